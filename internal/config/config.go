package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// Provider contains configuration for the external chord-recognition API.
type Provider struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	CallbackURL    string `toml:"callback_url"`
	WebhookSecret  string `toml:"webhook_secret"`
	Vocabulary     string `toml:"vocabulary"`
	RequestTimeout int    `toml:"request_timeout"`
	FetchAttempts  int    `toml:"fetch_attempts"`
	FetchRetryWait int    `toml:"fetch_retry_wait"`
}

// Audio contains configuration for audio extraction from source media.
type Audio struct {
	ExtractorBinary string `toml:"extractor_binary"`
	ExtractTimeout  int    `toml:"extract_timeout"`
}

// Storage contains configuration for the diagram object store.
type Storage struct {
	Backend          string `toml:"backend"` // "local" or "s3"
	LocalDir         string `toml:"local_dir"`
	Endpoint         string `toml:"endpoint"`
	Bucket           string `toml:"bucket"`
	AccessKey        string `toml:"access_key"`
	SecretKey        string `toml:"secret_key"`
	UseSSL           bool   `toml:"use_ssl"`
	PublicBaseURL    string `toml:"public_base_url"`
	UploadAttempts   int    `toml:"upload_attempts"`
	UploadRetryWait  int    `toml:"upload_retry_wait"`
	OverwriteObjects bool   `toml:"overwrite_objects"`
}

// Shapes contains configuration for the chord-shape scraping collaborator.
type Shapes struct {
	Enabled        bool   `toml:"enabled"`
	BaseURL        string `toml:"base_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the service.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and API bind address
//   - Provider: chord-recognition API access and webhook verification
//   - Audio: audio extraction from source media
//   - Storage: object store backend for rendered diagrams
//   - Shapes: chord-shape scraper used by position resolution
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Provider      Provider      `toml:"provider"`
	Audio         Audio         `toml:"audio"`
	Storage       Storage       `toml:"storage"`
	Shapes        Shapes        `toml:"shapes"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/guitartube/config.toml")
}

// SampleConfig returns the embedded sample configuration file contents.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("guitartube.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// normalize expands paths and applies environment overrides for secrets so
// credentials never have to live in the config file.
func (c *Config) normalize() error {
	for _, field := range []*string{&c.Paths.DataDir, &c.Paths.LogDir, &c.Storage.LocalDir} {
		if strings.TrimSpace(*field) == "" {
			continue
		}
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}

	applyEnvOverride(&c.Provider.APIKey, "GUITARTUBE_PROVIDER_API_KEY")
	applyEnvOverride(&c.Provider.WebhookSecret, "GUITARTUBE_WEBHOOK_SECRET")
	applyEnvOverride(&c.Storage.AccessKey, "GUITARTUBE_STORAGE_ACCESS_KEY")
	applyEnvOverride(&c.Storage.SecretKey, "GUITARTUBE_STORAGE_SECRET_KEY")
	return nil
}

func applyEnvOverride(field *string, key string) {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		*field = strings.TrimSpace(value)
	}
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir, c.Paths.LogDir, c.AudioWorkDir()}
	if c.Storage.Backend == "local" && strings.TrimSpace(c.Storage.LocalDir) != "" {
		dirs = append(dirs, c.Storage.LocalDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the catalog database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "catalog.db")
}

// AudioWorkDir returns the scratch directory for extracted audio files.
func (c *Config) AudioWorkDir() string {
	return filepath.Join(c.Paths.DataDir, "audio")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
