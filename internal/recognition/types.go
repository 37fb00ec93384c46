package recognition

import (
	"encoding/json"
	"fmt"
)

// SubmitResponse is the provider's answer to a job submission.
type SubmitResponse struct {
	JobID             string `json:"job_id"`
	StatusEndpointURL string `json:"status_endpoint_url"`
}

// Callback is the JSON body of the provider's completion webhook.
type Callback struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	ResultURL string `json:"result_url"`
	StatusURL string `json:"status_url"`
}

// FetchURL returns the location to fetch the result payload from,
// preferring the dedicated result URL over the status endpoint.
func (c *Callback) FetchURL() string {
	if c.ResultURL != "" {
		return c.ResultURL
	}
	return c.StatusURL
}

// Triplet is one recognized chord segment. The provider encodes it as a
// three-element array [startSeconds, endSeconds, chordLabel].
type Triplet struct {
	Start float64
	End   float64
	Label string
}

func (t *Triplet) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("triplet is not an array: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("triplet has %d elements, want 3", len(raw))
	}
	if err := json.Unmarshal(raw[0], &t.Start); err != nil {
		return fmt.Errorf("triplet start: %w", err)
	}
	if err := json.Unmarshal(raw[1], &t.End); err != nil {
		return fmt.Errorf("triplet end: %w", err)
	}
	if err := json.Unmarshal(raw[2], &t.Label); err != nil {
		return fmt.Errorf("triplet label: %w", err)
	}
	return nil
}

func (t Triplet) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{t.Start, t.End, t.Label})
}

type resultEnvelope struct {
	Result []Triplet `json:"result"`
}
