package uvx

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"accentscope/internal/services"
)

// Package index URLs for torch wheels.
const (
	Command      = "uvx"
	CUDAIndexURL = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL = "https://pypi.org/simple"
)

// Exec runs a command and returns its captured stdout and stderr.
type Exec func(ctx context.Context, name string, args, env []string) (stdout, stderr []byte, err error)

// Config describes runner construction parameters.
type Config struct {
	Binary      string
	WorkDir     string
	CUDAEnabled bool
	HFToken     string
	// CacheEnv is appended to every command's environment.
	CacheEnv []string
}

// Runner executes embedded scripts.
type Runner struct {
	cfg  Config
	exec Exec
}

// New constructs a Runner.
func New(cfg Config) *Runner {
	if strings.TrimSpace(cfg.Binary) == "" {
		cfg.Binary = Command
	}
	if strings.TrimSpace(cfg.WorkDir) == "" {
		cfg.WorkDir = os.TempDir()
	}
	return &Runner{cfg: cfg, exec: runCommand}
}

// WithExec replaces command execution (for testing).
func (r *Runner) WithExec(fn Exec) {
	r.exec = fn
}

// Binary returns the configured uvx executable.
func (r *Runner) Binary() string {
	return r.cfg.Binary
}

// Script is an embedded Python program and the packages it needs.
type Script struct {
	Name     string
	Source   []byte
	Packages []string
}

// Run materializes script, executes it with args, and decodes its JSON output into out.
func (r *Runner) Run(ctx context.Context, script Script, args []string, out any) error {
	path, err := r.materialize(script)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "uvx", "write script", script.Name, err)
	}

	stdout, stderr, err := r.exec(ctx, r.cfg.Binary, r.BuildArgs(script, path, args), r.Env())
	if err != nil {
		if ctx.Err() != nil {
			return services.Wrap(services.ErrTimeout, "uvx", script.Name, "cancelled", ctx.Err())
		}
		return services.Wrap(services.ErrExternalTool, "uvx", script.Name, scriptError(stderr), err)
	}

	line := lastJSONLine(stdout)
	if line == nil {
		return services.Wrap(services.ErrExternalTool, "uvx", script.Name, "no JSON output", nil)
	}
	var failure struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(line, &failure) == nil && failure.Error != "" {
		return services.Wrap(services.ErrExternalTool, "uvx", script.Name, failure.Error, nil)
	}
	if err := json.Unmarshal(line, out); err != nil {
		return services.Wrap(services.ErrExternalTool, "uvx", script.Name, "parse output", err)
	}
	return nil
}

// BuildArgs constructs the uvx command line for script at path.
func (r *Runner) BuildArgs(script Script, path string, args []string) []string {
	out := make([]string, 0, 8+2*len(script.Packages)+len(args))
	out = append(out, "--quiet")
	if r.cfg.CUDAEnabled {
		out = append(out, "--index-url", CUDAIndexURL, "--extra-index-url", PypiIndexURL)
	}
	for _, pkg := range script.Packages {
		out = append(out, "--with", pkg)
	}
	out = append(out, "python", path)
	return append(out, args...)
}

// Env returns the environment for a script command.
func (r *Runner) Env() []string {
	env := append([]string{}, os.Environ()...)
	env = append(env, r.cfg.CacheEnv...)
	if token := strings.TrimSpace(r.cfg.HFToken); token != "" {
		env = append(env, "HF_TOKEN="+token)
	}
	// Torch 2.6 changed torch.load to weights_only=true, which breaks SpeechBrain checkpoints.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		env = append(env, "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	return env
}

// materialize writes the script under a content-addressed name so concurrent
// runs share one file without racing partial writes.
func (r *Runner) materialize(script Script) (string, error) {
	sum := sha256.Sum256(script.Source)
	base := strings.TrimSuffix(script.Name, filepath.Ext(script.Name))
	path := filepath.Join(r.cfg.WorkDir, fmt.Sprintf("%s-%s.py", base, hex.EncodeToString(sum[:6])))
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, script.Source) {
		return path, nil
	}
	if err := os.MkdirAll(r.cfg.WorkDir, 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(r.cfg.WorkDir, base+"-*.tmp")
	if err != nil {
		return "", err
	}
	if _, err := tmp.Write(script.Source); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return path, nil
}

func runCommand(ctx context.Context, name string, args, env []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = env
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func lastJSONLine(output []byte) []byte {
	lines := bytes.Split(bytes.TrimSpace(output), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		line := bytes.TrimSpace(lines[i])
		if len(line) > 0 && line[0] == '{' {
			return line
		}
	}
	return nil
}

// scriptError extracts the most useful failure message from stderr.
func scriptError(stderr []byte) string {
	if line := lastJSONLine(stderr); line != nil {
		var failure struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(line, &failure) == nil && failure.Error != "" {
			return failure.Error
		}
	}
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		return "script failed"
	}
	if strings.Contains(msg, "GatedRepoError") || strings.Contains(msg, "401 Client Error") {
		return "Hugging Face model access denied; set models.hf_token or HF_TOKEN"
	}
	if idx := strings.LastIndex(msg, "Error:"); idx != -1 {
		return strings.TrimSpace(msg[idx:])
	}
	lines := strings.Split(msg, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return msg
}

// IsUnavailable reports whether err means the runtime could not start at all
// (uvx missing from PATH).
func IsUnavailable(err error) bool {
	return errors.Is(err, exec.ErrNotFound)
}
