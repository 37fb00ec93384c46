package recognition

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/davidsparrow/guitartube-sub001/internal/config"
)

const userAgent = "GuitarTube-Go/0.1.0"

// Client talks to the external chord-recognition provider.
type Client struct {
	baseURL       string
	apiKey        string
	callbackURL   string
	fetchAttempts int
	fetchWait     time.Duration
	httpClient    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a provider client from the provider configuration section.
func New(cfg config.Provider, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("provider base url required")
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("provider api key required")
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	attempts := cfg.FetchAttempts
	if attempts <= 0 {
		attempts = 3
	}

	client := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		callbackURL:   strings.TrimSpace(cfg.CallbackURL),
		fetchAttempts: attempts,
		fetchWait:     time.Duration(cfg.FetchRetryWait) * time.Second,
		httpClient:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SubmitAudio uploads an audio file for recognition and returns the
// provider's job handle. The provider processes asynchronously and calls
// the configured callback URL when done.
func (c *Client) SubmitAudio(ctx context.Context, audioPath, vocabulary string) (*SubmitResponse, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy audio into form: %w", err)
	}
	if err := form.WriteField("vocabulary", vocabulary); err != nil {
		return nil, fmt.Errorf("write vocabulary field: %w", err)
	}
	if c.callbackURL != "" {
		if err := form.WriteField("callback_url", c.callbackURL); err != nil {
			return nil, fmt.Errorf("write callback field: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/jobs", &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute submit request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider submission returned %d", resp.StatusCode)
	}

	var submitted SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		return nil, fmt.Errorf("decode submit response: %w", err)
	}
	if strings.TrimSpace(submitted.JobID) == "" {
		return nil, errors.New("provider response missing job id")
	}
	return &submitted, nil
}

// FetchResult downloads the recognition result from the given URL. The
// payload may be a bare triplet array or wrapped in {"result": [...]}.
// Transient failures are retried up to the configured attempt count; the
// raw payload bytes are returned alongside the parsed triplets.
func (c *Client) FetchResult(ctx context.Context, resultURL string) ([]Triplet, []byte, error) {
	if strings.TrimSpace(resultURL) == "" {
		return nil, nil, errors.New("result url required")
	}

	var lastErr error
	for attempt := 1; attempt <= c.fetchAttempts; attempt++ {
		if attempt > 1 && c.fetchWait > 0 {
			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(c.fetchWait):
			}
		}

		triplets, raw, err := c.fetchOnce(ctx, resultURL)
		if err == nil {
			return triplets, raw, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, err
		}
		lastErr = err
	}
	return nil, nil, fmt.Errorf("fetch result after %d attempts: %w", c.fetchAttempts, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, resultURL string) ([]Triplet, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("execute fetch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("result fetch returned %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read result body: %w", err)
	}

	triplets, err := parseResult(raw)
	if err != nil {
		return nil, nil, err
	}
	return triplets, raw, nil
}

func parseResult(raw []byte) ([]Triplet, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty result payload")
	}
	if trimmed[0] == '[' {
		var triplets []Triplet
		if err := json.Unmarshal(trimmed, &triplets); err != nil {
			return nil, fmt.Errorf("decode result array: %w", err)
		}
		return triplets, nil
	}
	var envelope resultEnvelope
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decode result envelope: %w", err)
	}
	return envelope.Result, nil
}
