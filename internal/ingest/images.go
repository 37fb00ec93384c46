package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/davidsparrow/guitartube-sub001/internal/catalog"
	"github.com/davidsparrow/guitartube-sub001/internal/chords"
	"github.com/davidsparrow/guitartube-sub001/internal/diagram"
	"github.com/davidsparrow/guitartube-sub001/internal/fretboard"
	"github.com/davidsparrow/guitartube-sub001/internal/logging"
	"github.com/davidsparrow/guitartube-sub001/internal/storage"
)

// ImagePipeline renders and publishes missing theme diagrams for a chord
// position, then records the resulting URLs on the row.
type ImagePipeline struct {
	store     *catalog.Store
	publisher *storage.Publisher
	overwrite bool
	logger    *slog.Logger
}

// NewImagePipeline wires the renderer output into the object store and the
// catalog. With overwrite set, existing diagrams are re-rendered and
// re-published.
func NewImagePipeline(store *catalog.Store, publisher *storage.Publisher, overwrite bool, logger *slog.Logger) *ImagePipeline {
	return &ImagePipeline{
		store:     store,
		publisher: publisher,
		overwrite: overwrite,
		logger:    logging.WithComponent(logger, "images"),
	}
}

// EnsureImages fills in every theme image URL the position is missing.
// Rendering is deterministic, so republishing the same position is a no-op
// at the object store.
func (p *ImagePipeline) EnsureImages(ctx context.Context, position *catalog.Position) error {
	shape, err := chords.ParseShape(position.StringStates, position.FingerStates)
	if err != nil {
		return fmt.Errorf("parse stored shape: %w", err)
	}
	win := fretboard.Compute(shape.Strings)

	for _, theme := range diagram.Themes() {
		if position.ImageURLForTheme(theme.Name) != "" && !p.overwrite {
			continue
		}

		data := diagram.Render(shape, win, theme)
		result, err := p.publisher.Publish(ctx, position.ChordName, win.Label(), theme.Name, data, p.overwrite)
		if err != nil {
			return fmt.Errorf("publish %s diagram: %w", theme.Name, err)
		}
		if err := p.store.SetPositionImageURL(ctx, position.ID, theme.Name, result.URL); err != nil {
			return fmt.Errorf("record %s diagram url: %w", theme.Name, err)
		}
		setImageURL(position, theme.Name, result.URL)

		p.logger.Info("diagram published",
			slog.String(logging.FieldChord, position.ChordName),
			slog.String("theme", theme.Name),
			slog.String("url", result.URL),
			slog.Bool("already_existed", result.AlreadyExists))
	}
	return nil
}

func setImageURL(position *catalog.Position, theme, url string) {
	switch theme {
	case "light":
		position.LightImageURL = url
	case "dark":
		position.DarkImageURL = url
	}
}
