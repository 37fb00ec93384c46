package api

import (
	"time"

	"github.com/davidsparrow/guitartube-sub001/internal/catalog"
)

// ChordSummary reports the diagnostic state of one distinct chord within a
// job: how often it is captioned, how many playable shapes are known, and
// which theme diagrams have been published.
type ChordSummary struct {
	ChordName     string `json:"chordName"`
	CaptionCount  int    `json:"captionCount"`
	PositionCount int    `json:"positionCount"`
	HasLightImage bool   `json:"hasLightImage"`
	HasDarkImage  bool   `json:"hasDarkImage"`
}

// JobView is the transport representation of a recognition job plus its
// per-chord summaries.
type JobView struct {
	ExternalID   string         `json:"externalId"`
	RequestID    string         `json:"requestId,omitempty"`
	FavoriteID   string         `json:"favoriteId,omitempty"`
	VideoID      string         `json:"videoId,omitempty"`
	Status       string         `json:"status"`
	Vocabulary   string         `json:"vocabulary,omitempty"`
	CreatedAt    string         `json:"createdAt,omitempty"`
	StartedAt    string         `json:"startedAt,omitempty"`
	CompletedAt  string         `json:"completedAt,omitempty"`
	CaptionCount int            `json:"captionCount"`
	Chords       []ChordSummary `json:"chords"`
}

func fromJob(job *catalog.Job) JobView {
	view := JobView{
		ExternalID: job.ExternalID,
		RequestID:  job.RequestID,
		FavoriteID: job.FavoriteID,
		VideoID:    job.VideoID,
		Status:     string(job.Status),
		Vocabulary: job.Vocabulary,
	}
	if !job.CreatedAt.IsZero() {
		view.CreatedAt = job.CreatedAt.Format(time.RFC3339)
	}
	if job.StartedAt != nil {
		view.StartedAt = job.StartedAt.Format(time.RFC3339)
	}
	if job.CompletedAt != nil {
		view.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	return view
}
