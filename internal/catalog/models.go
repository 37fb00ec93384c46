package catalog

import "time"

// JobStatus represents the lifecycle of a recognition job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobFinished   JobStatus = "finished"
	JobFailed     JobStatus = "failed"
)

// SourceRecognizer tags captions produced by the recognition pipeline.
const SourceRecognizer = "recognizer"

// Job is one asynchronous recognition request/response cycle with the
// external provider, keyed by the provider's unique job identifier. Rows are
// never deleted; status transitions are append-only.
type Job struct {
	ID          int64
	ExternalID  string
	RequestID   string
	FavoriteID  string
	VideoID     string
	Status      JobStatus
	Vocabulary  string
	RawResult   string
	ResultURL   string
	StatusURL   string
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
}

// Caption is one time-stamped canonical chord within a video. Captions
// carrying the same job tag form one atomic batch: re-ingesting the job
// replaces exactly that batch.
type Caption struct {
	ID            int64
	FavoriteID    string
	ChordName     string
	StartTime     string
	EndTime       string
	DisplayOrder  int
	SerialNumber  int
	PositionID    *int64
	Source        string
	JobExternalID string
}

// Variation is the canonical identity of a chord, created lazily the first
// time a name is seen and shared across jobs.
type Variation struct {
	ID        int64
	ChordName string
	RootNote  string
	ChordType string
	Category  string
}

// Position is one concrete playable shape for a variation. Image URLs start
// null and are filled in once diagrams are rendered and published.
type Position struct {
	ID            int64
	VariationID   int64
	ChordName     string
	StringStates  string
	FingerStates  string
	FretWindow    string
	LightImageURL string
	DarkImageURL  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ImageURLForTheme returns the stored URL for a theme name, empty when the
// diagram has not been published yet.
func (p *Position) ImageURLForTheme(theme string) string {
	switch theme {
	case "light":
		return p.LightImageURL
	case "dark":
		return p.DarkImageURL
	default:
		return ""
	}
}
