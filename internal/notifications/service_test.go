package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/davidsparrow/guitartube-sub001/internal/config"
	"github.com/davidsparrow/guitartube-sub001/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyIngestCompleted(context.Background(), "job-1", 3); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func captureServer(t *testing.T, sink *captured) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		sink.title = r.Header.Get("Title")
		sink.tags = r.Header.Get("Tags")
		sink.priority = r.Header.Get("Priority")
		sink.body = string(body)
		w.WriteHeader(http.StatusOK)
	}))
}

func newService(t *testing.T, topic string) notifications.Service {
	t.Helper()
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	return notifications.NewService(&cfg)
}

func TestNotifyJobSubmitted(t *testing.T) {
	var got captured
	server := captureServer(t, &got)
	defer server.Close()

	svc := newService(t, server.URL)
	if err := svc.NotifyJobSubmitted(context.Background(), "job-42", "https://youtube.example/watch?v=abc"); err != nil {
		t.Fatalf("NotifyJobSubmitted: %v", err)
	}
	if got.title != "GuitarTube - Job Submitted" {
		t.Fatalf("title = %q", got.title)
	}
	if !strings.Contains(got.body, "job-42") || !strings.Contains(got.body, "youtube.example") {
		t.Fatalf("body = %q", got.body)
	}
	if got.tags != "guitartube,job,submitted" {
		t.Fatalf("tags = %q", got.tags)
	}
}

func TestNotifyIngestCompleted(t *testing.T) {
	var got captured
	server := captureServer(t, &got)
	defer server.Close()

	svc := newService(t, server.URL)
	if err := svc.NotifyIngestCompleted(context.Background(), "job-42", 3); err != nil {
		t.Fatalf("NotifyIngestCompleted: %v", err)
	}
	if got.body != "Job job-42 finished: 3 chord captions" {
		t.Fatalf("body = %q", got.body)
	}
	if got.priority != "high" {
		t.Fatalf("priority = %q", got.priority)
	}
}

func TestNotifyIngestFailed(t *testing.T) {
	var got captured
	server := captureServer(t, &got)
	defer server.Close()

	svc := newService(t, server.URL)
	if err := svc.NotifyIngestFailed(context.Background(), "job-42", errors.New("result fetch returned 503")); err != nil {
		t.Fatalf("NotifyIngestFailed: %v", err)
	}
	if !strings.Contains(got.body, "result fetch returned 503") {
		t.Fatalf("body = %q", got.body)
	}
}

func TestSendReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	svc := newService(t, server.URL)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
