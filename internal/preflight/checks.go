package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/sys/unix"

	"accentscope/internal/config"
	"accentscope/internal/deps"
)

const healthCheckTimeout = 10 * time.Second

// CheckOpenAI verifies the API key can see the transcription model.
func CheckOpenAI(ctx context.Context, baseURL, apiKey, model string) Result {
	const name = "OpenAI transcription"
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "api key not configured"}
	}
	if strings.TrimSpace(model) == "" {
		model = openai.Whisper1
	}
	clientCfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		clientCfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	client := openai.NewClientWithConfig(clientCfg)

	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if _, err := client.GetModel(checkCtx, model); err != nil {
		return Result{Name: name, Detail: summarizeOpenAIError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("model %s reachable", model)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries for the given config.
// uvx is required in ml mode and optional in heuristic mode.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	heuristic := cfg.HeuristicMode()
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for audio extraction",
			Optional:    heuristic,
		},
		{
			Name:        "uvx",
			Command:     cfg.UVXBinary(),
			Description: "Runs the SpeechBrain and Whisper models",
			Optional:    heuristic,
		},
	}
	statuses := deps.CheckBinaries(requirements)
	return append(statuses, deps.CheckFFprobeForFFmpeg(cfg.FFmpegBinary()))
}

// summarizeOpenAIError produces a human-readable summary for API check failures.
func summarizeOpenAIError(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return "auth failed (invalid api key)"
		case http.StatusNotFound:
			return "model not available to this key"
		}
		return fmt.Sprintf("api check failed (%d)", apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return "auth failed (invalid api key)"
		case http.StatusNotFound:
			return "model not available to this key"
		}
		return fmt.Sprintf("api check failed (%d)", reqErr.HTTPStatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
