// Package media obtains decodable audio for a source video reference by
// shelling out to an external extraction utility.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/davidsparrow/guitartube-sub001/internal/config"
	"github.com/davidsparrow/guitartube-sub001/internal/logging"
	"github.com/davidsparrow/guitartube-sub001/internal/services"
)

// Extractor produces a local audio file for a media URL.
type Extractor interface {
	Extract(ctx context.Context, mediaURL string) (string, error)
}

// commandRunner executes the extraction binary. It is a field so tests can
// replace it with a stub.
type commandRunner func(ctx context.Context, name string, args ...string) error

// YtDlpExtractor extracts audio using the yt-dlp binary.
type YtDlpExtractor struct {
	binary  string
	workDir string
	timeout time.Duration
	logger  *slog.Logger
	run     commandRunner
}

// NewExtractor builds an extractor from configuration. The binary must be
// resolvable on PATH or given as an absolute path.
func NewExtractor(cfg *config.Config, logger *slog.Logger) (*YtDlpExtractor, error) {
	binary := strings.TrimSpace(cfg.Audio.ExtractorBinary)
	if binary == "" {
		binary = "yt-dlp"
	}
	resolved, err := exec.LookPath(binary)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "media", "lookup extractor",
			fmt.Sprintf("audio extractor %q not found on PATH", binary), err)
	}

	timeout := time.Duration(cfg.Audio.ExtractTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	return &YtDlpExtractor{
		binary:  resolved,
		workDir: cfg.AudioWorkDir(),
		timeout: timeout,
		logger:  logging.WithComponent(logger, "media"),
		run:     defaultCommandRunner,
	}, nil
}

// Extract downloads the audio track of mediaURL into the work directory and
// returns the resulting file path.
func (e *YtDlpExtractor) Extract(ctx context.Context, mediaURL string) (string, error) {
	if strings.TrimSpace(mediaURL) == "" {
		return "", services.Wrap(services.ErrValidation, "media", "extract", "media url required", nil)
	}
	if err := os.MkdirAll(e.workDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "media", "extract", "create work directory", err)
	}

	output := filepath.Join(e.workDir, uuid.NewString()+".mp3")

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	err := e.run(ctx, e.binary,
		"--extract-audio",
		"--audio-format", "mp3",
		"--no-playlist",
		"--output", output,
		mediaURL,
	)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "media", "extract", "audio extraction failed", err)
	}
	if _, statErr := os.Stat(output); statErr != nil {
		return "", services.Wrap(services.ErrExternalTool, "media", "extract",
			"extractor reported success but produced no file", statErr)
	}

	e.logger.Info("audio extracted",
		slog.String("output", output),
		slog.Duration("elapsed", time.Since(start)))
	return output, nil
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			return err
		}
		return fmt.Errorf("%w: %s", err, detail)
	}
	return nil
}
