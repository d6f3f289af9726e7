package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeFetch()
	c.normalizeModels()
	c.normalizeAccent()
	c.normalizeServer()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir()
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ModelCacheDir) == "" {
		c.Paths.ModelCacheDir = defaultModelCacheDir()
	}
	if c.Paths.ModelCacheDir, err = expandPath(c.Paths.ModelCacheDir); err != nil {
		return fmt.Errorf("paths.model_cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeFetch() {
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeModels() {
	c.Models.Mode = strings.ToLower(strings.TrimSpace(c.Models.Mode))
	if c.Models.Mode == "" {
		c.Models.Mode = ModeML
	}
	c.Models.Transcriber = strings.ToLower(strings.TrimSpace(c.Models.Transcriber))
	if c.Models.Transcriber == "" {
		c.Models.Transcriber = TranscriberLocal
	}
	c.Models.UVXCommand = strings.TrimSpace(c.Models.UVXCommand)
	if c.Models.UVXCommand == "" {
		c.Models.UVXCommand = defaultUVXCommand
	}
	c.Models.FFmpegCommand = strings.TrimSpace(c.Models.FFmpegCommand)
	if c.Models.FFmpegCommand == "" {
		c.Models.FFmpegCommand = defaultFFmpegCommand
	}
	c.Models.LanguageModel = strings.TrimSpace(c.Models.LanguageModel)
	if c.Models.LanguageModel == "" {
		c.Models.LanguageModel = defaultLanguageModel
	}
	c.Models.AccentModel = strings.TrimSpace(c.Models.AccentModel)
	if c.Models.AccentModel == "" {
		c.Models.AccentModel = defaultAccentModel
	}
	c.Models.WhisperModel = strings.TrimSpace(c.Models.WhisperModel)
	if c.Models.WhisperModel == "" {
		c.Models.WhisperModel = defaultWhisperModel
	}
	c.Models.OpenAIModel = strings.TrimSpace(c.Models.OpenAIModel)
	if c.Models.OpenAIModel == "" {
		c.Models.OpenAIModel = defaultOpenAIModel
	}
	c.Models.OpenAIBaseURL = strings.TrimRight(strings.TrimSpace(c.Models.OpenAIBaseURL), "/")
	if c.Models.OpenAIAPIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Models.OpenAIAPIKey = value
		}
	}
	c.Models.OpenAIAPIKey = strings.TrimSpace(c.Models.OpenAIAPIKey)
	if c.Models.HFToken == "" {
		if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Models.HFToken = value
		}
	}
	c.Models.HFToken = strings.TrimSpace(c.Models.HFToken)
}

func (c *Config) normalizeAccent() {
	c.Accent.Fallback = strings.ToLower(strings.TrimSpace(c.Accent.Fallback))
	if c.Accent.Fallback == "" {
		c.Accent.Fallback = AccentFallbackUnavailable
	}
}

func (c *Config) normalizeServer() {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultServerBind
	}
	if c.Server.APIToken == "" {
		if value, ok := os.LookupEnv("ACCENTSCOPE_API_TOKEN"); ok {
			c.Server.APIToken = value
		}
	}
	c.Server.APIToken = strings.TrimSpace(c.Server.APIToken)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
