package ingest

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/davidsparrow/guitartube-sub001/internal/catalog"
	"github.com/davidsparrow/guitartube-sub001/internal/chords"
	"github.com/davidsparrow/guitartube-sub001/internal/fretboard"
	"github.com/davidsparrow/guitartube-sub001/internal/logging"
	"github.com/davidsparrow/guitartube-sub001/internal/notifications"
	"github.com/davidsparrow/guitartube-sub001/internal/recognition"
	"github.com/davidsparrow/guitartube-sub001/internal/services"
	"github.com/davidsparrow/guitartube-sub001/internal/songdata"
)

// Ingestor is the webhook-driven job state machine. It owns all mutations
// of a job after submission: pending -> processing -> finished, or
// pending -> failed.
type Ingestor struct {
	store    *catalog.Store
	client   ProviderClient
	shapes   songdata.ShapeSource
	images   *ImagePipeline
	notifier notifications.Service
	logger   *slog.Logger
}

// NewIngestor wires the ingestion path.
func NewIngestor(store *catalog.Store, client ProviderClient, shapes songdata.ShapeSource, images *ImagePipeline, notifier notifications.Service, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		store:    store,
		client:   client,
		shapes:   shapes,
		images:   images,
		notifier: notifier,
		logger:   logging.WithComponent(logger, "ingestor"),
	}
}

// HandleCallback processes one provider callback. Only finished callbacks
// trigger result processing; failed callbacks mark the job failed; any
// other status is acknowledged without side effects so the provider may
// retry non-final notifications freely.
func (ing *Ingestor) HandleCallback(ctx context.Context, callback *recognition.Callback) error {
	ctx = services.WithJobID(ctx, callback.JobID)
	logger := ing.logger.With(slog.String(logging.FieldJobID, callback.JobID))

	switch callback.Status {
	case recognition.StatusFinished:
		return ing.ingestFinished(ctx, callback, logger)
	case recognition.StatusFailed:
		return ing.markFailed(ctx, callback, logger)
	default:
		logger.Debug("ignoring non-final callback", slog.String("status", callback.Status))
		return nil
	}
}

func (ing *Ingestor) markFailed(ctx context.Context, callback *recognition.Callback, logger *slog.Logger) error {
	job, err := ing.store.JobByExternalID(ctx, callback.JobID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "ingestor", "lookup job", "load job row", err)
	}
	if job == nil {
		return services.Wrap(services.ErrNotFound, "ingestor", "lookup job", "no job for callback", nil)
	}
	if err := ing.store.MarkJobFailed(ctx, callback.JobID); err != nil {
		return services.Wrap(services.ErrTransient, "ingestor", "mark failed", "persist failed status", err)
	}
	logger.Info("job marked failed")
	if err := ing.notifier.NotifyIngestFailed(ctx, callback.JobID, nil); err != nil {
		logger.Warn("failure notification failed", slog.String("error", err.Error()))
	}
	return nil
}

func (ing *Ingestor) ingestFinished(ctx context.Context, callback *recognition.Callback, logger *slog.Logger) error {
	job, err := ing.store.JobByExternalID(ctx, callback.JobID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "ingestor", "lookup job", "load job row", err)
	}
	if job == nil {
		// A webhook alone never fabricates a job row.
		return services.Wrap(services.ErrNotFound, "ingestor", "lookup job", "no job for callback", nil)
	}

	if err := ing.store.MarkJobProcessing(ctx, job.ExternalID); err != nil {
		return services.Wrap(services.ErrTransient, "ingestor", "mark processing", "persist processing status", err)
	}

	fetchURL := callback.FetchURL()
	if fetchURL == "" {
		fetchURL = job.StatusURL
	}
	triplets, raw, err := ing.client.FetchResult(ctx, fetchURL)
	if err != nil {
		return services.Wrap(services.ErrTransient, "ingestor", "fetch result", "download result payload", err)
	}

	labels := make([]string, len(triplets))
	for i, triplet := range triplets {
		labels[i] = triplet.Label
	}
	names, distinct := chords.NormalizeAll(labels)

	// The finished transition must be durable before any downstream write
	// counts.
	if err := ing.store.MarkJobFinished(ctx, job.ExternalID, string(raw)); err != nil {
		return services.Wrap(services.ErrTransient, "ingestor", "mark finished", "persist finished status", err)
	}

	captions := make([]catalog.Caption, len(triplets))
	for i, triplet := range triplets {
		captions[i] = catalog.Caption{
			FavoriteID:   job.FavoriteID,
			ChordName:    names[i],
			StartTime:    formatSeconds(triplet.Start),
			EndTime:      formatSeconds(triplet.End),
			DisplayOrder: i + 1,
			SerialNumber: i + 1,
		}
	}
	if err := ing.store.ReplaceCaptionsForJob(ctx, job.ExternalID, captions); err != nil {
		return services.Wrap(services.ErrTransient, "ingestor", "replace captions", "persist caption batch", err)
	}

	for _, name := range distinct {
		basics := chords.DeriveBasics(name)
		if _, err := ing.store.EnsureVariation(ctx, catalog.Variation{
			ChordName: name,
			RootNote:  basics.Root,
			ChordType: basics.Type,
		}); err != nil {
			logger.Warn("ensure variation failed",
				slog.String(logging.FieldChord, name),
				slog.String("error", err.Error()))
		}
	}

	ing.resolvePositions(ctx, distinct, logger)
	ing.linkPositions(ctx, job.ExternalID, distinct, logger)

	logger.Info("job ingested", slog.Int("captions", len(captions)), slog.Int("chords", len(distinct)))
	if err := ing.notifier.NotifyIngestCompleted(ctx, job.ExternalID, len(captions)); err != nil {
		logger.Warn("completion notification failed", slog.String("error", err.Error()))
	}
	return nil
}

// resolvePositions is the best-effort enrichment step: chords with no known
// shape ask the song-data collaborator for one. Every failure is logged and
// skipped, never propagated.
func (ing *Ingestor) resolvePositions(ctx context.Context, chordNames []string, logger *slog.Logger) {
	for _, name := range chordNames {
		count, err := ing.store.CountPositionsForChord(ctx, name)
		if err != nil {
			logger.Warn("count positions failed",
				slog.String(logging.FieldChord, name),
				slog.String("error", err.Error()))
			continue
		}
		if count > 0 {
			continue
		}

		shapes, err := ing.shapes.FetchShapes(ctx, name)
		if err != nil {
			logger.Warn("shape fetch failed",
				slog.String(logging.FieldChord, name),
				slog.String("error", err.Error()))
			continue
		}

		variation, err := ing.store.VariationByName(ctx, name)
		if err != nil || variation == nil {
			logger.Warn("no variation for resolved shapes", slog.String(logging.FieldChord, name))
			continue
		}

		for _, shape := range shapes {
			win := fretboard.Compute(shape.Strings)
			if _, err := ing.store.EnsurePosition(ctx, catalog.Position{
				VariationID:  variation.ID,
				ChordName:    name,
				StringStates: chords.EncodeStates(shape.Strings),
				FingerStates: chords.EncodeStates(shape.Fingers),
				FretWindow:   win.Label(),
			}); err != nil {
				logger.Warn("persist resolved shape failed",
					slog.String(logging.FieldChord, name),
					slog.String("error", err.Error()))
			}
		}
	}
}

// linkPositions renders missing diagrams and points the job's captions at
// the first known position per chord. Per-chord failures skip that chord
// and continue with the rest of the batch.
func (ing *Ingestor) linkPositions(ctx context.Context, jobExternalID string, chordNames []string, logger *slog.Logger) {
	for _, name := range chordNames {
		position, err := ing.store.FirstPositionForChord(ctx, name)
		if err != nil {
			logger.Warn("position lookup failed",
				slog.String(logging.FieldChord, name),
				slog.String("error", err.Error()))
			continue
		}
		if position == nil {
			continue
		}

		if err := ing.images.EnsureImages(ctx, position); err != nil {
			logger.Warn("diagram generation failed",
				slog.String(logging.FieldChord, name),
				slog.String("error", err.Error()))
			continue
		}

		if _, err := ing.store.LinkCaptionsToPosition(ctx, jobExternalID, name, position.ID); err != nil {
			logger.Warn("caption linking failed",
				slog.String(logging.FieldChord, name),
				slog.String("error", err.Error()))
		}
	}
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
