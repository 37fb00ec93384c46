package api

import (
	"context"

	"github.com/davidsparrow/guitartube-sub001/internal/catalog"
	"github.com/davidsparrow/guitartube-sub001/internal/services"
)

// StatusService builds read-only job views from the catalog.
type StatusService struct {
	store *catalog.Store
}

// NewStatusService wraps a catalog store.
func NewStatusService(store *catalog.Store) *StatusService {
	return &StatusService{store: store}
}

// JobView assembles the status projection for one job by external id.
func (s *StatusService) JobView(ctx context.Context, externalID string) (*JobView, error) {
	job, err := s.store.JobByExternalID(ctx, externalID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "api", "job view", "load job", err)
	}
	if job == nil {
		return nil, services.Wrap(services.ErrNotFound, "api", "job view", "job not found", nil)
	}

	view := fromJob(job)
	captions, err := s.store.CaptionsForJob(ctx, externalID)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "api", "job view", "load captions", err)
	}
	view.CaptionCount = len(captions)

	// Distinct chords in first-seen caption order.
	var order []string
	captionCounts := make(map[string]int)
	for _, caption := range captions {
		if _, seen := captionCounts[caption.ChordName]; !seen {
			order = append(order, caption.ChordName)
		}
		captionCounts[caption.ChordName]++
	}

	view.Chords = make([]ChordSummary, 0, len(order))
	for _, name := range order {
		summary := ChordSummary{
			ChordName:    name,
			CaptionCount: captionCounts[name],
		}
		count, err := s.store.CountPositionsForChord(ctx, name)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "api", "job view", "count positions", err)
		}
		summary.PositionCount = count

		if count > 0 {
			position, err := s.store.FirstPositionForChord(ctx, name)
			if err != nil {
				return nil, services.Wrap(services.ErrTransient, "api", "job view", "load position", err)
			}
			if position != nil {
				summary.HasLightImage = position.ImageURLForTheme("light") != ""
				summary.HasDarkImage = position.ImageURLForTheme("dark") != ""
			}
		}
		view.Chords = append(view.Chords, summary)
	}
	return &view, nil
}
