package ingest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/davidsparrow/guitartube-sub001/internal/catalog"
	"github.com/davidsparrow/guitartube-sub001/internal/chords"
	"github.com/davidsparrow/guitartube-sub001/internal/config"
	"github.com/davidsparrow/guitartube-sub001/internal/ingest"
	"github.com/davidsparrow/guitartube-sub001/internal/notifications"
	"github.com/davidsparrow/guitartube-sub001/internal/recognition"
	"github.com/davidsparrow/guitartube-sub001/internal/services"
	"github.com/davidsparrow/guitartube-sub001/internal/storage"
	"github.com/davidsparrow/guitartube-sub001/internal/testsupport"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubExtractor struct {
	dir string
	err error
}

func (s *stubExtractor) Extract(ctx context.Context, mediaURL string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	path := filepath.Join(s.dir, "audio.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

type stubProvider struct {
	submitResp *recognition.SubmitResponse
	submitErr  error
	triplets   []recognition.Triplet
	raw        []byte
	fetchErr   error
	fetchCalls int
}

func (s *stubProvider) SubmitAudio(ctx context.Context, audioPath, vocabulary string) (*recognition.SubmitResponse, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	return s.submitResp, nil
}

func (s *stubProvider) FetchResult(ctx context.Context, resultURL string) ([]recognition.Triplet, []byte, error) {
	s.fetchCalls++
	if s.fetchErr != nil {
		return nil, nil, s.fetchErr
	}
	return s.triplets, s.raw, nil
}

type stubShapes struct {
	shapes map[string]chords.Shape
	err    error
}

func (s *stubShapes) FetchShapes(ctx context.Context, chordName string) ([]chords.Shape, error) {
	if s.err != nil {
		return nil, s.err
	}
	shape, ok := s.shapes[chordName]
	if !ok {
		return nil, nil
	}
	return []chords.Shape{shape}, nil
}

func mustShape(t *testing.T, strings, fingers string) chords.Shape {
	t.Helper()
	shape, err := chords.ParseShape(strings, fingers)
	if err != nil {
		t.Fatalf("ParseShape: %v", err)
	}
	return shape
}

type fixture struct {
	cfg      *config.Config
	store    *catalog.Store
	provider *stubProvider
	shapes   *stubShapes
	ingestor *ingest.Ingestor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	logger := discardLogger()

	publisher, err := storage.NewPublisherFromConfig(cfg, logger)
	if err != nil {
		t.Fatalf("NewPublisherFromConfig: %v", err)
	}

	provider := &stubProvider{
		triplets: []recognition.Triplet{
			{Start: 0, End: 1, Label: "E:maj"},
			{Start: 1, End: 2, Label: "A:min"},
			{Start: 2, End: 3, Label: "C:maj"},
		},
		raw: []byte(`[[0,1,"E:maj"],[1,2,"A:min"],[2,3,"C:maj"]]`),
	}
	shapes := &stubShapes{shapes: map[string]chords.Shape{
		"E":  mustShape(t, "0,0,1,2,2,0", "X,X,1,3,2,X"),
		"Am": mustShape(t, "0,1,2,2,0,X", "X,1,3,2,X,X"),
		"C":  mustShape(t, "0,1,0,2,3,X", "X,1,X,2,3,X"),
	}}

	images := ingest.NewImagePipeline(store, publisher, cfg.Storage.OverwriteObjects, logger)
	notifier := notifications.NewService(cfg)

	return &fixture{
		cfg:      cfg,
		store:    store,
		provider: provider,
		shapes:   shapes,
		ingestor: ingest.NewIngestor(store, provider, shapes, images, notifier, logger),
	}
}

func finishedCallback(jobID string) *recognition.Callback {
	return &recognition.Callback{
		JobID:     jobID,
		Status:    recognition.StatusFinished,
		ResultURL: "https://provider.example/results/" + jobID,
	}
}

func TestSubmitCreatesPendingJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	provider := &stubProvider{submitResp: &recognition.SubmitResponse{
		JobID:             "job-7",
		StatusEndpointURL: "https://provider.example/jobs/job-7",
	}}
	submitter := ingest.NewSubmitter(store, &stubExtractor{dir: t.TempDir()}, provider,
		notifications.NewService(cfg), cfg.Provider.Vocabulary, discardLogger())

	jobID, err := submitter.Submit(context.Background(), ingest.SubmitRequest{
		FavoriteID: "fav-1",
		VideoID:    "vid-1",
		MediaURL:   "https://youtube.example/watch?v=abc",
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if jobID != "job-7" {
		t.Fatalf("job id = %q", jobID)
	}

	job, err := store.JobByExternalID(context.Background(), "job-7")
	if err != nil {
		t.Fatalf("JobByExternalID: %v", err)
	}
	if job == nil || job.Status != catalog.JobPending {
		t.Fatalf("job = %+v", job)
	}
	if job.StatusURL != "https://provider.example/jobs/job-7" {
		t.Fatalf("status url = %q", job.StatusURL)
	}
	if job.RequestID == "" {
		t.Fatal("expected request id")
	}
}

func TestSubmitProviderFailureLeavesNoRow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	provider := &stubProvider{submitErr: errors.New("provider down")}
	submitter := ingest.NewSubmitter(store, &stubExtractor{dir: t.TempDir()}, provider,
		notifications.NewService(cfg), "", discardLogger())

	if _, err := submitter.Submit(context.Background(), ingest.SubmitRequest{
		MediaURL: "https://youtube.example/watch?v=abc",
	}); err == nil {
		t.Fatal("expected submission error")
	}

	stats, err := store.JobStats(context.Background())
	if err != nil {
		t.Fatalf("JobStats: %v", err)
	}
	for status, count := range stats {
		if count != 0 {
			t.Fatalf("unexpected %s jobs: %d", status, count)
		}
	}
}

func TestSubmitExtractionFailureLeavesNoRow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	submitter := ingest.NewSubmitter(store, &stubExtractor{err: errors.New("yt-dlp failed")},
		&stubProvider{}, notifications.NewService(cfg), "", discardLogger())

	if _, err := submitter.Submit(context.Background(), ingest.SubmitRequest{
		MediaURL: "https://youtube.example/watch?v=abc",
	}); err == nil {
		t.Fatal("expected extraction error")
	}

	stats, err := store.JobStats(context.Background())
	if err != nil {
		t.Fatalf("JobStats: %v", err)
	}
	if stats[catalog.JobPending] != 0 {
		t.Fatalf("pending jobs = %d, want 0", stats[catalog.JobPending])
	}
}

func TestHandleCallbackEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testsupport.NewJob(t, f.store, "job-42", "fav-9")

	if err := f.ingestor.HandleCallback(ctx, finishedCallback("job-42")); err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}

	job, err := f.store.JobByExternalID(ctx, "job-42")
	if err != nil {
		t.Fatalf("JobByExternalID: %v", err)
	}
	if job.Status != catalog.JobFinished {
		t.Fatalf("job status = %s", job.Status)
	}
	if job.RawResult == "" || job.CompletedAt == nil {
		t.Fatalf("finished job missing raw result or completion time: %+v", job)
	}

	captions, err := f.store.CaptionsForJob(ctx, "job-42")
	if err != nil {
		t.Fatalf("CaptionsForJob: %v", err)
	}
	wantNames := []string{"E", "Am", "C"}
	if len(captions) != len(wantNames) {
		t.Fatalf("caption count = %d, want %d", len(captions), len(wantNames))
	}
	for i, caption := range captions {
		if caption.ChordName != wantNames[i] {
			t.Fatalf("caption %d chord = %q, want %q", i, caption.ChordName, wantNames[i])
		}
		if caption.DisplayOrder != i+1 {
			t.Fatalf("caption %d display order = %d", i, caption.DisplayOrder)
		}
		if caption.PositionID == nil {
			t.Fatalf("caption for %s not linked to a position", caption.ChordName)
		}
	}
	if captions[0].StartTime != "0" || captions[0].EndTime != "1" {
		t.Fatalf("first caption times = %q..%q", captions[0].StartTime, captions[0].EndTime)
	}

	variations, err := f.store.CountVariations(ctx)
	if err != nil {
		t.Fatalf("CountVariations: %v", err)
	}
	if variations != 3 {
		t.Fatalf("variation count = %d, want 3", variations)
	}

	for _, name := range wantNames {
		position, err := f.store.FirstPositionForChord(ctx, name)
		if err != nil {
			t.Fatalf("FirstPositionForChord(%s): %v", name, err)
		}
		if position == nil {
			t.Fatalf("no position for %s", name)
		}
		if position.ImageURLForTheme("light") == "" || position.ImageURLForTheme("dark") == "" {
			t.Fatalf("position for %s missing image urls: %+v", name, position)
		}
	}
}

func TestHandleCallbackIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testsupport.NewJob(t, f.store, "job-42", "fav-9")

	for i := 0; i < 2; i++ {
		if err := f.ingestor.HandleCallback(ctx, finishedCallback("job-42")); err != nil {
			t.Fatalf("HandleCallback (pass %d): %v", i+1, err)
		}
	}

	captions, err := f.store.CaptionsForJob(ctx, "job-42")
	if err != nil {
		t.Fatalf("CaptionsForJob: %v", err)
	}
	if len(captions) != 3 {
		t.Fatalf("caption count after double ingest = %d, want 3", len(captions))
	}
	variations, err := f.store.CountVariations(ctx)
	if err != nil {
		t.Fatalf("CountVariations: %v", err)
	}
	if variations != 3 {
		t.Fatalf("variation count after double ingest = %d, want 3", variations)
	}
}

func TestNoDuplicateVariationsAcrossJobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testsupport.NewJob(t, f.store, "job-1", "fav-1")
	testsupport.NewJob(t, f.store, "job-2", "fav-2")

	if err := f.ingestor.HandleCallback(ctx, finishedCallback("job-1")); err != nil {
		t.Fatalf("HandleCallback job-1: %v", err)
	}
	if err := f.ingestor.HandleCallback(ctx, finishedCallback("job-2")); err != nil {
		t.Fatalf("HandleCallback job-2: %v", err)
	}

	variations, err := f.store.CountVariations(ctx)
	if err != nil {
		t.Fatalf("CountVariations: %v", err)
	}
	if variations != 3 {
		t.Fatalf("variation count across jobs = %d, want 3", variations)
	}
	for _, name := range []string{"E", "Am", "C"} {
		count, err := f.store.CountPositionsForChord(ctx, name)
		if err != nil {
			t.Fatalf("CountPositionsForChord(%s): %v", name, err)
		}
		if count != 1 {
			t.Fatalf("position count for %s = %d, want 1", name, count)
		}
	}
}

func TestHandleCallbackUnknownJob(t *testing.T) {
	f := newFixture(t)

	err := f.ingestor.HandleCallback(context.Background(), finishedCallback("no-such-job"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestHandleCallbackNonFinalStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testsupport.NewJob(t, f.store, "job-42", "fav-9")

	callback := &recognition.Callback{JobID: "job-42", Status: "queued"}
	if err := f.ingestor.HandleCallback(ctx, callback); err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}
	if f.provider.fetchCalls != 0 {
		t.Fatalf("fetch calls = %d, want 0", f.provider.fetchCalls)
	}

	job, err := f.store.JobByExternalID(ctx, "job-42")
	if err != nil {
		t.Fatalf("JobByExternalID: %v", err)
	}
	if job.Status != catalog.JobPending {
		t.Fatalf("job status = %s, want pending", job.Status)
	}
}

func TestHandleCallbackFailedStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testsupport.NewJob(t, f.store, "job-42", "fav-9")

	callback := &recognition.Callback{JobID: "job-42", Status: recognition.StatusFailed}
	if err := f.ingestor.HandleCallback(ctx, callback); err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}

	job, err := f.store.JobByExternalID(ctx, "job-42")
	if err != nil {
		t.Fatalf("JobByExternalID: %v", err)
	}
	if job.Status != catalog.JobFailed {
		t.Fatalf("job status = %s, want failed", job.Status)
	}
	if f.provider.fetchCalls != 0 {
		t.Fatalf("fetch calls = %d, want 0", f.provider.fetchCalls)
	}
}

func TestHandleCallbackFetchFailureLeavesJobProcessing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testsupport.NewJob(t, f.store, "job-42", "fav-9")
	f.provider.fetchErr = errors.New("result endpoint unavailable")

	err := f.ingestor.HandleCallback(ctx, finishedCallback("job-42"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("err = %v, want ErrTransient", err)
	}

	job, lookupErr := f.store.JobByExternalID(ctx, "job-42")
	if lookupErr != nil {
		t.Fatalf("JobByExternalID: %v", lookupErr)
	}
	if job.Status != catalog.JobProcessing {
		t.Fatalf("job status = %s, want processing", job.Status)
	}
}

func TestHandleCallbackShapeFailureNonFatal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testsupport.NewJob(t, f.store, "job-42", "fav-9")
	f.shapes.err = errors.New("scraper down")

	if err := f.ingestor.HandleCallback(ctx, finishedCallback("job-42")); err != nil {
		t.Fatalf("HandleCallback: %v", err)
	}

	captions, err := f.store.CaptionsForJob(ctx, "job-42")
	if err != nil {
		t.Fatalf("CaptionsForJob: %v", err)
	}
	if len(captions) != 3 {
		t.Fatalf("caption count = %d, want 3", len(captions))
	}
	for _, caption := range captions {
		if caption.PositionID != nil {
			t.Fatalf("caption linked despite scraper failure: %+v", caption)
		}
	}
}
