// Package storage publishes rendered diagrams to an object store and hands
// back their public URLs. Publishing is idempotent: an existing object is
// reported rather than rewritten unless overwrite is requested.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/davidsparrow/guitartube-sub001/internal/config"
	"github.com/davidsparrow/guitartube-sub001/internal/logging"
	"github.com/davidsparrow/guitartube-sub001/internal/services"
)

// ContentTypeSVG is the content type for rendered diagrams.
const ContentTypeSVG = "image/svg+xml"

// cacheControl keeps published diagrams cacheable for a year; keys are
// deterministic so stale content cannot appear under an existing key.
const cacheControl = "public, max-age=31536000, immutable"

// ObjectStore is the minimal surface the publisher needs from a backend.
type ObjectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, data []byte, contentType, cacheControl string) error
	PublicURL(key string) string
}

// ObjectKey builds the canonical storage key for a chord diagram.
func ObjectKey(chordName, windowLabel, theme string) string {
	return fmt.Sprintf("chords/%s/%s_%s_%s.svg", theme, chordName, windowLabel, theme)
}

// Result reports the outcome of a publish call.
type Result struct {
	URL           string
	AlreadyExists bool
}

// Publisher uploads rendered images with bounded retry per object.
type Publisher struct {
	store    ObjectStore
	attempts int
	wait     time.Duration
	logger   *slog.Logger
}

// NewPublisher wires a publisher over the configured backend.
func NewPublisher(store ObjectStore, attempts int, wait time.Duration, logger *slog.Logger) *Publisher {
	if attempts <= 0 {
		attempts = 1
	}
	return &Publisher{
		store:    store,
		attempts: attempts,
		wait:     wait,
		logger:   logging.WithComponent(logger, "storage"),
	}
}

// NewPublisherFromConfig builds the backend named by the config and wraps it.
func NewPublisherFromConfig(cfg *config.Config, logger *slog.Logger) (*Publisher, error) {
	var (
		store ObjectStore
		err   error
	)
	switch cfg.Storage.Backend {
	case "local":
		store, err = NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
	case "s3":
		store, err = NewS3Store(cfg)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "storage", "init",
			fmt.Sprintf("unknown backend %q", cfg.Storage.Backend), nil)
	}
	if err != nil {
		return nil, err
	}
	wait := time.Duration(cfg.Storage.UploadRetryWait) * time.Second
	return NewPublisher(store, cfg.Storage.UploadAttempts, wait, logger), nil
}

// Publish uploads one rendered diagram. When the object already exists and
// overwrite is false, no write happens and the existing URL is returned.
// Transient failures are retried up to the configured bound; exhausting the
// bound is fatal for this object only.
func (p *Publisher) Publish(ctx context.Context, chordName, windowLabel, theme string, data []byte, overwrite bool) (Result, error) {
	key := ObjectKey(chordName, windowLabel, theme)

	exists, err := p.store.Exists(ctx, key)
	if err != nil {
		return Result{}, services.Wrap(services.ErrTransient, "storage", "stat", key, err)
	}
	if exists && !overwrite {
		p.logger.Debug("object already exists", slog.String("key", key))
		return Result{URL: p.store.PublicURL(key), AlreadyExists: true}, nil
	}

	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		lastErr = p.store.Put(ctx, key, data, ContentTypeSVG, cacheControl)
		if lastErr == nil {
			p.logger.Info("published diagram",
				slog.String("key", key),
				slog.Int("bytes", len(data)),
				slog.Int("attempt", attempt))
			return Result{URL: p.store.PublicURL(key)}, nil
		}
		if attempt == p.attempts {
			break
		}
		p.logger.Warn("upload failed, retrying",
			slog.String("key", key),
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()))
		select {
		case <-time.After(p.wait):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
	return Result{}, services.Wrap(services.ErrTransient, "storage", "put", key, lastErr)
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
