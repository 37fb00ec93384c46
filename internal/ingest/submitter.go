// Package ingest drives the recognition pipeline: job submission to the
// external provider, and webhook-triggered ingestion of finished results
// into the catalog.
package ingest

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/davidsparrow/guitartube-sub001/internal/catalog"
	"github.com/davidsparrow/guitartube-sub001/internal/logging"
	"github.com/davidsparrow/guitartube-sub001/internal/media"
	"github.com/davidsparrow/guitartube-sub001/internal/notifications"
	"github.com/davidsparrow/guitartube-sub001/internal/recognition"
	"github.com/davidsparrow/guitartube-sub001/internal/services"
)

// ProviderClient is the slice of the recognition client the pipeline uses.
type ProviderClient interface {
	SubmitAudio(ctx context.Context, audioPath, vocabulary string) (*recognition.SubmitResponse, error)
	FetchResult(ctx context.Context, resultURL string) ([]recognition.Triplet, []byte, error)
}

// SubmitRequest describes one recognition submission.
type SubmitRequest struct {
	FavoriteID string
	VideoID    string
	MediaURL   string
	Vocabulary string
}

// Submitter turns a media reference into a pending recognition job.
type Submitter struct {
	store      *catalog.Store
	extractor  media.Extractor
	client     ProviderClient
	notifier   notifications.Service
	vocabulary string
	logger     *slog.Logger
}

// NewSubmitter wires the submission path. defaultVocabulary applies when a
// request does not name one.
func NewSubmitter(store *catalog.Store, extractor media.Extractor, client ProviderClient, notifier notifications.Service, defaultVocabulary string, logger *slog.Logger) *Submitter {
	if strings.TrimSpace(defaultVocabulary) == "" {
		defaultVocabulary = "major-minor"
	}
	return &Submitter{
		store:      store,
		extractor:  extractor,
		client:     client,
		notifier:   notifier,
		vocabulary: defaultVocabulary,
		logger:     logging.WithComponent(logger, "submitter"),
	}
}

// Submit extracts audio from the media URL, uploads it to the provider, and
// persists a pending job keyed by the provider's job id. No job row is
// written when extraction or submission fails. Returns the external job id.
func (s *Submitter) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if strings.TrimSpace(req.MediaURL) == "" {
		return "", services.Wrap(services.ErrValidation, "submitter", "submit", "media url required", nil)
	}
	vocabulary := strings.TrimSpace(req.Vocabulary)
	if vocabulary == "" {
		vocabulary = s.vocabulary
	}

	requestID := uuid.NewString()
	ctx = services.WithRequestID(ctx, requestID)
	logger := s.logger.With(slog.String("request_id", requestID))

	audioPath, err := s.extractor.Extract(ctx, req.MediaURL)
	if err != nil {
		return "", err
	}
	defer func() {
		if removeErr := os.Remove(audioPath); removeErr != nil {
			logger.Warn("cleanup extracted audio", slog.String("error", removeErr.Error()))
		}
	}()

	resp, err := s.client.SubmitAudio(ctx, audioPath, vocabulary)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "submitter", "submit audio", "provider submission failed", err)
	}

	if _, err := s.store.CreateJob(ctx, &catalog.Job{
		ExternalID: resp.JobID,
		RequestID:  requestID,
		FavoriteID: req.FavoriteID,
		VideoID:    req.VideoID,
		Status:     catalog.JobPending,
		Vocabulary: vocabulary,
		StatusURL:  resp.StatusEndpointURL,
	}); err != nil {
		return "", services.Wrap(services.ErrTransient, "submitter", "persist job", "record pending job", err)
	}

	logger.Info("recognition job submitted",
		slog.String(logging.FieldJobID, resp.JobID),
		slog.String("media_url", req.MediaURL),
		slog.String("vocabulary", vocabulary))

	if err := s.notifier.NotifyJobSubmitted(ctx, resp.JobID, req.MediaURL); err != nil {
		logger.Warn("submit notification failed", slog.String("error", err.Error()))
	}
	return resp.JobID, nil
}
