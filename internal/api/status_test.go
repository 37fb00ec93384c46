package api_test

import (
	"context"
	"errors"
	"testing"

	"github.com/davidsparrow/guitartube-sub001/internal/api"
	"github.com/davidsparrow/guitartube-sub001/internal/catalog"
	"github.com/davidsparrow/guitartube-sub001/internal/services"
	"github.com/davidsparrow/guitartube-sub001/internal/testsupport"
)

func TestJobViewUnknownJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	svc := api.NewStatusService(store)

	_, err := svc.JobView(context.Background(), "no-such-job")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestJobViewProjectsChords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.NewJob(t, store, "job-9", "fav-3")
	if err := store.ReplaceCaptionsForJob(ctx, "job-9", []catalog.Caption{
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
	if err := store.SetPositionImageURL(ctx, position.ID, "light", "https://cdn.example/chords/light/Am_0-5_light.svg"); err != nil {
		t.Fatalf("SetPositionImageURL: %v", err)
	}

	view, err := api.NewStatusService(store).JobView(ctx, "job-9")
	if err != nil {
		t.Fatalf("JobView: %v", err)
	}
	if view.Status != string(catalog.JobPending) {
		t.Fatalf("status = %q", view.Status)
	}
	if view.CaptionCount != 3 {
		t.Fatalf("caption count = %d, want 3", view.CaptionCount)
	}
	if len(view.Chords) != 2 {
		t.Fatalf("chord summaries = %d, want 2", len(view.Chords))
	}

	am := view.Chords[0]
	if am.ChordName != "Am" || am.CaptionCount != 2 || am.PositionCount != 1 {
		t.Fatalf("Am summary = %+v", am)
	}
	if !am.HasLightImage || am.HasDarkImage {
		t.Fatalf("Am image flags = %+v", am)
	}

	c := view.Chords[1]
	if c.ChordName != "C" || c.CaptionCount != 1 || c.PositionCount != 0 {
		t.Fatalf("C summary = %+v", c)
	}
	if c.HasLightImage || c.HasDarkImage {
		t.Fatalf("C image flags = %+v", c)
	}
}
