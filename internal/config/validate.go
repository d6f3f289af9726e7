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
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateModels(); err != nil {
		return err
	}
	if err := c.validateAccent(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		return errors.New("paths.work_dir must be set")
	}
	if strings.TrimSpace(c.Paths.ModelCacheDir) == "" {
		return errors.New("paths.model_cache_dir must be set")
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.TimeoutSeconds <= 0 {
		return errors.New("fetch.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateModels() error {
	switch c.Models.Mode {
	case ModeML, ModeHeuristic:
	default:
		return fmt.Errorf("models.mode must be %q or %q, got %q", ModeML, ModeHeuristic, c.Models.Mode)
	}
	switch c.Models.Transcriber {
	case TranscriberLocal:
	case TranscriberOpenAI:
		if c.Models.OpenAIAPIKey == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = "~/.config/accentscope/config.toml"
			}
			return fmt.Errorf("models.openai_api_key is required when models.transcriber is %q. Set OPENAI_API_KEY env var or edit %s", TranscriberOpenAI, defaultPath)
		}
	default:
		return fmt.Errorf("models.transcriber must be %q or %q, got %q", TranscriberLocal, TranscriberOpenAI, c.Models.Transcriber)
	}
	return nil
}

func (c *Config) validateAccent() error {
	switch c.Accent.Fallback {
	case AccentFallbackUnavailable, AccentFallbackRandom:
		return nil
	default:
		return fmt.Errorf("accent.fallback must be %q or %q, got %q", AccentFallbackUnavailable, AccentFallbackRandom, c.Accent.Fallback)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}
