package catalog_test

import (
	"context"
	"testing"

	"github.com/davidsparrow/guitartube-sub001/internal/catalog"
	"github.com/davidsparrow/guitartube-sub001/internal/testsupport"
)

func newStore(t *testing.T) *catalog.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return testsupport.MustOpenStore(t, cfg)
}

func TestJobLifecycle(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	job := testsupport.NewJob(t, store, "job-100", "fav-1")
	if job.Status != catalog.JobPending {
		t.Fatalf("new job status = %s, want %s", job.Status, catalog.JobPending)
	}
	if job.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}

	if err := store.MarkJobProcessing(ctx, "job-100"); err != nil {
		t.Fatalf("MarkJobProcessing: %v", err)
	}
	processing, err := store.JobByExternalID(ctx, "job-100")
	if err != nil {
		t.Fatalf("JobByExternalID: %v", err)
	}
	if processing.Status != catalog.JobProcessing {
		t.Fatalf("status = %s, want %s", processing.Status, catalog.JobProcessing)
	}
	if processing.StartedAt == nil {
		t.Fatal("expected started_at to be set")
	}

	if err := store.MarkJobFinished(ctx, "job-100", `[[0,1,"E:maj"]]`); err != nil {
		t.Fatalf("MarkJobFinished: %v", err)
	}
	finished, err := store.JobByExternalID(ctx, "job-100")
	if err != nil {
		t.Fatalf("JobByExternalID: %v", err)
	}
	if finished.Status != catalog.JobFinished {
		t.Fatalf("status = %s, want %s", finished.Status, catalog.JobFinished)
	}
	if finished.RawResult != `[[0,1,"E:maj"]]` {
		t.Fatalf("raw result = %q", finished.RawResult)
	}
	if finished.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}
}

func TestJobByExternalIDMissing(t *testing.T) {
	store := newStore(t)

	job, err := store.JobByExternalID(context.Background(), "no-such-job")
	if err != nil {
		t.Fatalf("JobByExternalID: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil job, got %+v", job)
	}
}

func TestMarkJobFinishedUnknownJob(t *testing.T) {
	store := newStore(t)

	if err := store.MarkJobFinished(context.Background(), "no-such-job", "[]"); err == nil {
		t.Fatal("expected error finishing unknown job")
	}
}

func TestMarkJobFailed(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	testsupport.NewJob(t, store, "job-101", "fav-1")
	if err := store.MarkJobFailed(ctx, "job-101"); err != nil {
		t.Fatalf("MarkJobFailed: %v", err)
	}
	job, err := store.JobByExternalID(ctx, "job-101")
	if err != nil {
		t.Fatalf("JobByExternalID: %v", err)
	}
	if job.Status != catalog.JobFailed {
		t.Fatalf("status = %s, want %s", job.Status, catalog.JobFailed)
	}
	if job.CompletedAt == nil {
		t.Fatal("expected completed_at to be set on failure")
	}
}

func TestJobStats(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	testsupport.NewJob(t, store, "job-1", "fav-1")
	testsupport.NewJob(t, store, "job-2", "fav-2")
	if err := store.MarkJobFailed(ctx, "job-2"); err != nil {
		t.Fatalf("MarkJobFailed: %v", err)
	}

	stats, err := store.JobStats(ctx)
	if err != nil {
		t.Fatalf("JobStats: %v", err)
	}
	if stats[catalog.JobPending] != 1 || stats[catalog.JobFailed] != 1 {
		t.Fatalf("stats = %v", stats)
	}
}

func TestReplaceCaptionsForJobIdempotent(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	testsupport.NewJob(t, store, "job-42", "fav-9")
	batch := []catalog.Caption{
		{FavoriteID: "fav-9", ChordName: "E", StartTime: "0", EndTime: "1", DisplayOrder: 1, SerialNumber: 1},
		{FavoriteID: "fav-9", ChordName: "Am", StartTime: "1", EndTime: "2", DisplayOrder: 2, SerialNumber: 2},
		{FavoriteID: "fav-9", ChordName: "C", StartTime: "2", EndTime: "3", DisplayOrder: 3, SerialNumber: 3},
	}

	for i := 0; i < 2; i++ {
		if err := store.ReplaceCaptionsForJob(ctx, "job-42", batch); err != nil {
			t.Fatalf("ReplaceCaptionsForJob (pass %d): %v", i+1, err)
		}
	}

	captions, err := store.CaptionsForJob(ctx, "job-42")
	if err != nil {
		t.Fatalf("CaptionsForJob: %v", err)
	}
	if len(captions) != 3 {
		t.Fatalf("caption count = %d, want 3", len(captions))
	}
	for i, caption := range captions {
		if caption.DisplayOrder != i+1 {
			t.Fatalf("caption %d display order = %d", i, caption.DisplayOrder)
		}
		if caption.Source != catalog.SourceRecognizer {
			t.Fatalf("caption source = %q", caption.Source)
		}
	}
	if captions[1].ChordName != "Am" {
		t.Fatalf("second caption chord = %q, want Am", captions[1].ChordName)
	}
}

func TestReplaceCaptionsScopedToJob(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	testsupport.NewJob(t, store, "job-a", "fav-1")
	testsupport.NewJob(t, store, "job-b", "fav-2")

	if err := store.ReplaceCaptionsForJob(ctx, "job-a", []catalog.Caption{
		{ChordName: "G", StartTime: "0", EndTime: "1", DisplayOrder: 1, SerialNumber: 1},
	}); err != nil {
		t.Fatalf("ReplaceCaptionsForJob job-a: %v", err)
	}
	if err := store.ReplaceCaptionsForJob(ctx, "job-b", []catalog.Caption{
		{ChordName: "D", StartTime: "0", EndTime: "1", DisplayOrder: 1, SerialNumber: 1},
	}); err != nil {
		t.Fatalf("ReplaceCaptionsForJob job-b: %v", err)
	}

	if err := store.ReplaceCaptionsForJob(ctx, "job-a", nil); err != nil {
		t.Fatalf("ReplaceCaptionsForJob clear: %v", err)
	}

	remaining, err := store.CaptionsForJob(ctx, "job-b")
	if err != nil {
		t.Fatalf("CaptionsForJob: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ChordName != "D" {
		t.Fatalf("job-b captions = %+v", remaining)
	}
}

func TestEnsureVariationDedupes(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first, err := store.EnsureVariation(ctx, catalog.Variation{ChordName: "Am", RootNote: "A", ChordType: "minor"})
	if err != nil {
		t.Fatalf("EnsureVariation: %v", err)
	}
	second, err := store.EnsureVariation(ctx, catalog.Variation{ChordName: "Am", RootNote: "A", ChordType: "minor"})
	if err != nil {
		t.Fatalf("EnsureVariation (repeat): %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("variation ids differ: %d vs %d", first.ID, second.ID)
	}

	count, err := store.CountVariations(ctx)
	if err != nil {
		t.Fatalf("CountVariations: %v", err)
	}
	if count != 1 {
		t.Fatalf("variation count = %d, want 1", count)
	}
}

func TestEnsurePositionToleratesDuplicates(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	variation, err := store.EnsureVariation(ctx, catalog.Variation{ChordName: "Am", RootNote: "A", ChordType: "minor"})
	if err != nil {
		t.Fatalf("EnsureVariation: %v", err)
	}

	shape := catalog.Position{
		VariationID:  variation.ID,
		ChordName:    "Am",
		StringStates: "0,1,2,2,0,X",
		FingerStates: "X,1,3,2,X,X",
		FretWindow:   "0-5",
	}
	first, err := store.EnsurePosition(ctx, shape)
	if err != nil {
		t.Fatalf("EnsurePosition: %v", err)
	}
	second, err := store.EnsurePosition(ctx, shape)
	if err != nil {
		t.Fatalf("EnsurePosition (repeat): %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("position ids differ: %d vs %d", first.ID, second.ID)
	}

	count, err := store.CountPositionsForChord(ctx, "Am")
	if err != nil {
		t.Fatalf("CountPositionsForChord: %v", err)
	}
	if count != 1 {
		t.Fatalf("position count = %d, want 1", count)
	}

	oldest, err := store.FirstPositionForChord(ctx, "Am")
	if err != nil {
		t.Fatalf("FirstPositionForChord: %v", err)
	}
	if oldest == nil || oldest.ID != first.ID {
		t.Fatalf("FirstPositionForChord = %+v", oldest)
	}
}

func TestFirstPositionForChordMissing(t *testing.T) {
	store := newStore(t)

	position, err := store.FirstPositionForChord(context.Background(), "F#dim")
	if err != nil {
		t.Fatalf("FirstPositionForChord: %v", err)
	}
	if position != nil {
		t.Fatalf("expected nil position, got %+v", position)
	}
}

func TestSetPositionImageURL(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	variation, err := store.EnsureVariation(ctx, catalog.Variation{ChordName: "C", RootNote: "C", ChordType: "major"})
	if err != nil {
		t.Fatalf("EnsureVariation: %v", err)
	}
	position, err := store.EnsurePosition(ctx, catalog.Position{
		VariationID:  variation.ID,
		ChordName:    "C",
		StringStates: "0,1,0,2,3,X",
		FingerStates: "X,1,X,2,3,X",
		FretWindow:   "0-5",
	})
	if err != nil {
		t.Fatalf("EnsurePosition: %v", err)
	}

	if err := store.SetPositionImageURL(ctx, position.ID, "light", "https://cdn.example/chords/light/C_0-5_light.svg"); err != nil {
		t.Fatalf("SetPositionImageURL light: %v", err)
	}
	if err := store.SetPositionImageURL(ctx, position.ID, "dark", "https://cdn.example/chords/dark/C_0-5_dark.svg"); err != nil {
		t.Fatalf("SetPositionImageURL dark: %v", err)
	}
	if err := store.SetPositionImageURL(ctx, position.ID, "sepia", "x"); err == nil {
		t.Fatal("expected error for unknown theme")
	}

	updated, err := store.PositionByID(ctx, position.ID)
	if err != nil {
		t.Fatalf("PositionByID: %v", err)
	}
	if updated.ImageURLForTheme("light") == "" || updated.ImageURLForTheme("dark") == "" {
		t.Fatalf("image urls not stored: %+v", updated)
	}
}

func TestLinkCaptionsToPosition(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	testsupport.NewJob(t, store, "job-7", "fav-3")
	if err := store.ReplaceCaptionsForJob(ctx, "job-7", []catalog.Caption{
		{ChordName: "Am", StartTime: "0", EndTime: "1", DisplayOrder: 1, SerialNumber: 1},
		{ChordName: "C", StartTime: "1", EndTime: "2", DisplayOrder: 2, SerialNumber: 2},
		{ChordName: "Am", StartTime: "2", EndTime: "3", DisplayOrder: 3, SerialNumber: 3},
	}); err != nil {
		t.Fatalf("ReplaceCaptionsForJob: %v", err)
	}

	variation, err := store.EnsureVariation(ctx, catalog.Variation{ChordName: "Am", RootNote: "A", ChordType: "minor"})
	if err != nil {
		t.Fatalf("EnsureVariation: %v", err)
	}
	position, err := store.EnsurePosition(ctx, catalog.Position{
		VariationID:  variation.ID,
		ChordName:    "Am",
		StringStates: "0,1,2,2,0,X",
		FingerStates: "X,1,3,2,X,X",
		FretWindow:   "0-5",
	})
	if err != nil {
		t.Fatalf("EnsurePosition: %v", err)
	}

	linked, err := store.LinkCaptionsToPosition(ctx, "job-7", "Am", position.ID)
	if err != nil {
		t.Fatalf("LinkCaptionsToPosition: %v", err)
	}
	if linked != 2 {
		t.Fatalf("linked = %d, want 2", linked)
	}

	captions, err := store.CaptionsForJob(ctx, "job-7")
	if err != nil {
		t.Fatalf("CaptionsForJob: %v", err)
	}
	for _, caption := range captions {
		switch caption.ChordName {
		case "Am":
			if caption.PositionID == nil || *caption.PositionID != position.ID {
				t.Fatalf("Am caption not linked: %+v", caption)
			}
		default:
			if caption.PositionID != nil {
				t.Fatalf("unexpected link on %s caption", caption.ChordName)
			}
		}
	}
}
