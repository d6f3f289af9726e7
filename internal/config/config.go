package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Analysis modes.
const (
	ModeML        = "ml"
	ModeHeuristic = "heuristic"
)

// Transcription backends for the transcript language strategy.
const (
	TranscriberLocal  = "local"
	TranscriberOpenAI = "openai"
)

// Accent classifier failure policies.
const (
	AccentFallbackUnavailable = "unavailable"
	AccentFallbackRandom      = "random"
)

// Paths contains directory configuration.
type Paths struct {
	WorkDir       string `toml:"work_dir"`
	ModelCacheDir string `toml:"model_cache_dir"`
	LogDir        string `toml:"log_dir"`
}

// Fetch contains configuration for downloading the source video.
type Fetch struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
}

// Models contains configuration for the classifier runtimes.
type Models struct {
	// Mode selects the full model pipeline ("ml") or URL heuristics ("heuristic").
	Mode          string `toml:"mode"`
	UVXCommand    string `toml:"uvx_command"`
	FFmpegCommand string `toml:"ffmpeg_command"`
	// LanguageModel is the SpeechBrain source for spoken language identification.
	LanguageModel string `toml:"language_model"`
	// AccentModel is the SpeechBrain source for English accent identification.
	AccentModel string `toml:"accent_model"`
	// WhisperModel is the Hugging Face Whisper checkpoint used by the local transcriber.
	WhisperModel string `toml:"whisper_model"`
	// Transcriber selects "local" (uvx + transformers) or "openai" (Whisper API).
	Transcriber   string `toml:"transcriber"`
	OpenAIAPIKey  string `toml:"openai_api_key"`
	OpenAIModel   string `toml:"openai_model"`
	OpenAIBaseURL string `toml:"openai_base_url"`
	CUDAEnabled   bool   `toml:"cuda_enabled"`
	HFToken       string `toml:"hf_token"`
}

// Accent contains configuration for the accent classifier.
type Accent struct {
	// Fallback is "unavailable" (deterministic sentinel) or "random" (shortlist guess).
	Fallback string `toml:"fallback"`
}

// Server contains configuration for the HTTP front-end.
type Server struct {
	Bind     string `toml:"bind"`
	APIToken string `toml:"api_token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for accentscope.
//
// Configuration sections by subsystem:
//   - Paths: temp work directory, model cache, logs
//   - Fetch: download timeout and identification header
//   - Models: analysis mode, model sources, transcriber backend
//   - Accent: classifier failure policy
//   - Server: HTTP bind address and optional bearer token
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Fetch   Fetch   `toml:"fetch"`
	Models  Models  `toml:"models"`
	Accent  Accent  `toml:"accent"`
	Server  Server  `toml:"server"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/accentscope/config.toml")
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

	projectPath, err := filepath.Abs("accentscope.toml")
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

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.ModelCacheDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FetchTimeout returns the total download timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// FFmpegBinary returns the ffmpeg executable used for audio extraction.
func (c *Config) FFmpegBinary() string {
	if strings.TrimSpace(c.Models.FFmpegCommand) == "" {
		return defaultFFmpegCommand
	}
	return c.Models.FFmpegCommand
}

// FFprobeBinary returns the ffprobe executable installed next to ffmpeg.
func (c *Config) FFprobeBinary() string {
	ffmpeg := c.FFmpegBinary()
	dir, base := filepath.Split(ffmpeg)
	if strings.HasPrefix(base, "ffmpeg") {
		return dir + "ffprobe" + strings.TrimPrefix(base, "ffmpeg")
	}
	return "ffprobe"
}

// UVXBinary returns the uvx executable used to run the model scripts.
func (c *Config) UVXBinary() string {
	if strings.TrimSpace(c.Models.UVXCommand) == "" {
		return defaultUVXCommand
	}
	return c.Models.UVXCommand
}

// HeuristicMode reports whether the ML stack is replaced by URL heuristics.
func (c *Config) HeuristicMode() bool {
	return c.Models.Mode == ModeHeuristic
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

func defaultModelCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "accentscope", "models")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/accentscope/models"
	}
	return filepath.Join(home, ".cache", "accentscope", "models")
}

func defaultWorkDir() string {
	return filepath.Join(os.TempDir(), "accentscope")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
