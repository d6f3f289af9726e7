package whisper

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"accentscope/internal/media/wavio"
	"accentscope/internal/modelcache"
	"accentscope/internal/services"
	"accentscope/internal/services/uvx"
)

//go:embed transcribe.py
var transcribeScript []byte

// Defaults shared by both backends.
const (
	DefaultLocalModel = "openai/whisper-base"
	DefaultAPIModel   = openai.Whisper1
	// MaxTokens bounds the local decoder output.
	MaxTokens = 30
	// ClipDuration is how much audio the API backend uploads.
	ClipDuration = 30 * time.Second
)

// Packages installed alongside the local script.
var Packages = []string{"transformers", "torch", "soundfile", "numpy"}

// Transcriber turns a speech WAV into text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Local runs Whisper through transformers under uvx.
type Local struct {
	model  string
	runner *uvx.Runner
	cache  *modelcache.Cache
}

// NewLocal constructs the uvx-backed transcriber.
func NewLocal(model string, runner *uvx.Runner, cache *modelcache.Cache) *Local {
	if strings.TrimSpace(model) == "" {
		model = DefaultLocalModel
	}
	return &Local{model: model, runner: runner, cache: cache}
}

// Name identifies the backend in logs.
func (l *Local) Name() string {
	return "whisper-local:" + l.model
}

// Transcribe returns the decoded text of the opening audio window.
func (l *Local) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return "", services.Wrap(services.ErrNotFound, "whisper", "transcribe", "audio missing", err)
	}
	if l.runner == nil || l.cache == nil {
		return "", services.Wrap(services.ErrConfiguration, "whisper", "transcribe", "runtime not configured", nil)
	}

	lease, err := l.cache.Acquire(ctx, "whisper", l.model)
	if err != nil {
		return "", err
	}
	defer lease.Release(ctx)

	var out struct {
		Text string `json:"text"`
	}
	script := uvx.Script{Name: "whisper_transcribe.py", Source: transcribeScript, Packages: Packages}
	args := []string{
		"--model", l.model,
		"--audio", audioPath,
		"--max-length", strconv.Itoa(MaxTokens),
		"--cache-dir", filepath.Join(l.cache.Root(), modelcache.TransformersDir),
	}
	if err := l.runner.Run(ctx, script, args, &out); err != nil {
		return "", err
	}
	lease.Done()
	return strings.TrimSpace(out.Text), nil
}

// APIConfig describes the OpenAI-backed transcriber.
type APIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	WorkDir string
}

// API transcribes through the OpenAI audio endpoint.
type API struct {
	client  *openai.Client
	model   string
	workDir string
}

// NewAPI constructs the OpenAI-backed transcriber.
func NewAPI(cfg APIConfig) (*API, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, services.Wrap(services.ErrConfiguration, "whisper", "api", "OPENAI_API_KEY is not set", nil)
	}
	clientCfg := openai.DefaultConfig(key)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = base
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultAPIModel
	}
	workDir := strings.TrimSpace(cfg.WorkDir)
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &API{client: openai.NewClientWithConfig(clientCfg), model: model, workDir: workDir}, nil
}

// Name identifies the backend in logs.
func (a *API) Name() string {
	return "openai:" + a.model
}

// Transcribe uploads the opening ClipDuration of audio and returns the text.
func (a *API) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return "", services.Wrap(services.ErrNotFound, "whisper", "transcribe", "audio missing", err)
	}
	clip := filepath.Join(a.workDir, "clip-"+uuid.NewString()+".wav")
	defer os.Remove(clip)
	if err := wavio.Clip(audioPath, clip, ClipDuration); err != nil {
		return "", services.Wrap(services.ErrValidation, "whisper", "clip audio", audioPath, err)
	}

	resp, err := a.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    a.model,
		FilePath: clip,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "whisper", "api transcription", fmt.Sprintf("model %s", a.model), err)
	}
	return strings.TrimSpace(resp.Text), nil
}
