package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateProvider(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateShapes(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateProvider() error {
	if strings.TrimSpace(c.Provider.BaseURL) == "" {
		return errors.New("provider.base_url must be set")
	}
	if strings.TrimSpace(c.Provider.Vocabulary) == "" {
		return errors.New("provider.vocabulary must be set")
	}
	if c.Provider.RequestTimeout <= 0 {
		return errors.New("provider.request_timeout must be positive")
	}
	if c.Provider.FetchAttempts <= 0 {
		return errors.New("provider.fetch_attempts must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case "local":
		if strings.TrimSpace(c.Storage.LocalDir) == "" {
			return errors.New("storage.local_dir must be set when storage.backend is \"local\"")
		}
	case "s3":
		if strings.TrimSpace(c.Storage.Endpoint) == "" {
			return errors.New("storage.endpoint must be set when storage.backend is \"s3\"")
		}
		if strings.TrimSpace(c.Storage.Bucket) == "" {
			return errors.New("storage.bucket must be set when storage.backend is \"s3\"")
		}
		if strings.TrimSpace(c.Storage.AccessKey) == "" || strings.TrimSpace(c.Storage.SecretKey) == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/guitartube/config.toml"
			}
			return fmt.Errorf("storage credentials are required for the s3 backend. Set GUITARTUBE_STORAGE_ACCESS_KEY/GUITARTUBE_STORAGE_SECRET_KEY env vars or edit %s (create with 'guitartube config init')", defaultPath)
		}
	default:
		return fmt.Errorf("storage.backend must be \"local\" or \"s3\", got %q", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.PublicBaseURL) == "" {
		return errors.New("storage.public_base_url must be set")
	}
	if c.Storage.UploadAttempts <= 0 {
		return errors.New("storage.upload_attempts must be positive")
	}
	return nil
}

func (c *Config) validateShapes() error {
	if !c.Shapes.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Shapes.BaseURL) == "" {
		return errors.New("shapes.base_url must be set when shapes.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}
