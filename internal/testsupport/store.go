package testsupport

import (
	"context"
	"testing"

	"github.com/davidsparrow/guitartube-sub001/internal/catalog"
	"github.com/davidsparrow/guitartube-sub001/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob creates a pending recognition job for tests using the provided store.
func NewJob(t testing.TB, store *catalog.Store, externalID, favoriteID string) *catalog.Job {
	t.Helper()

	job, err := store.CreateJob(context.Background(), &catalog.Job{
		ExternalID: externalID,
		FavoriteID: favoriteID,
		VideoID:    "video-" + favoriteID,
		Status:     catalog.JobPending,
		Vocabulary: "major-minor",
	})
	if err != nil {
		t.Fatalf("store.CreateJob: %v", err)
	}
	return job
}
