// Package songdata fetches concrete chord shapes from an external
// song-data collaborator. The pipeline treats it as best-effort
// enrichment: any failure means "no shapes available", never a fatal
// ingestion error.
package songdata

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/davidsparrow/guitartube-sub001/internal/chords"
	"github.com/davidsparrow/guitartube-sub001/internal/config"
	"github.com/davidsparrow/guitartube-sub001/internal/logging"
)

// ShapeSource yields playable shapes for a canonical chord name.
type ShapeSource interface {
	FetchShapes(ctx context.Context, chordName string) ([]chords.Shape, error)
}

// NewSource builds a shape source from configuration. When the scraper is
// disabled a noop source is returned and position resolution quietly
// yields nothing.
func NewSource(cfg *config.Config, logger *slog.Logger, opts ...Option) ShapeSource {
	if !cfg.Shapes.Enabled || strings.TrimSpace(cfg.Shapes.BaseURL) == "" {
		return noopSource{}
	}

	timeout := time.Duration(cfg.Shapes.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	scraper := &Scraper{
		baseURL:    strings.TrimRight(cfg.Shapes.BaseURL, "/"),
		logger:     logging.WithComponent(logger, "songdata"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(scraper)
	}
	return scraper
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Scraper) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// Scraper fetches shapes over HTTP from the song-data service.
type Scraper struct {
	baseURL    string
	logger     *slog.Logger
	httpClient *http.Client
}

type shapeRecord struct {
	Strings string `json:"strings"`
	Fingers string `json:"fingers"`
}

// FetchShapes queries the collaborator for shapes of one chord. Records
// that fail shape validation are skipped rather than failing the batch.
func (s *Scraper) FetchShapes(ctx context.Context, chordName string) ([]chords.Shape, error) {
	if strings.TrimSpace(chordName) == "" {
		return nil, fmt.Errorf("chord name required")
	}

	endpoint := s.baseURL + "/chords/" + url.PathEscape(chordName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute shape request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("shape fetch returned %d", resp.StatusCode)
	}

	var records []shapeRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode shapes: %w", err)
	}

	shapes := make([]chords.Shape, 0, len(records))
	for _, record := range records {
		shape, err := chords.ParseShape(record.Strings, record.Fingers)
		if err != nil {
			s.logger.Warn("skipping malformed shape",
				slog.String(logging.FieldChord, chordName),
				slog.String("error", err.Error()))
			continue
		}
		shapes = append(shapes, shape)
	}
	return shapes, nil
}

type noopSource struct{}

func (noopSource) FetchShapes(ctx context.Context, chordName string) ([]chords.Shape, error) {
	return nil, nil
}
