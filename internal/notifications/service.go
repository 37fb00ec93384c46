package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/davidsparrow/guitartube-sub001/internal/config"
)

const userAgent = "GuitarTube-Go/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyJobSubmitted(ctx context.Context, jobID, mediaURL string) error
	NotifyIngestCompleted(ctx context.Context, jobID string, captionCount int) error
	NotifyIngestFailed(ctx context.Context, jobID string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint: topic,
		client:   client,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyJobSubmitted(ctx context.Context, jobID, mediaURL string) error {
	jobID = strings.TrimSpace(jobID)
	message := fmt.Sprintf("Recognition job submitted: %s", jobID)
	if mediaURL = strings.TrimSpace(mediaURL); mediaURL != "" {
		message = fmt.Sprintf("%s\nSource: %s", message, mediaURL)
	}
	data := payload{
		title:   "GuitarTube - Job Submitted",
		message: message,
		tags:    []string{"guitartube", "job", "submitted"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyIngestCompleted(ctx context.Context, jobID string, captionCount int) error {
	jobID = strings.TrimSpace(jobID)
	data := payload{
		title:    "GuitarTube - Ingest Complete",
		message:  fmt.Sprintf("Job %s finished: %d chord captions", jobID, captionCount),
		tags:     []string{"guitartube", "ingest", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyIngestFailed(ctx context.Context, jobID string, err error) error {
	jobID = strings.TrimSpace(jobID)
	var builder strings.Builder
	builder.WriteString("Ingest failed for job ")
	builder.WriteString(jobID)
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown error")
	}
	data := payload{
		title:    "GuitarTube - Ingest Failed",
		message:  builder.String(),
		tags:     []string{"guitartube", "ingest", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "GuitarTube - Test",
		message:  "Notification system test",
		tags:     []string{"guitartube", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyJobSubmitted(ctx context.Context, jobID, mediaURL string) error { return nil }
func (noopService) NotifyIngestCompleted(ctx context.Context, jobID string, captionCount int) error {
	return nil
}
func (noopService) NotifyIngestFailed(ctx context.Context, jobID string, err error) error {
	return nil
}
func (noopService) TestNotification(ctx context.Context) error { return nil }
