package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"accentscope/internal/logging"
	"accentscope/internal/services"
)

const (
	// FFmpegCommand is the default ffmpeg executable.
	FFmpegCommand = "ffmpeg"
	SampleRate    = 16000
	Channels      = 1
)

// CommandRunner executes name with args, returning combined output on failure.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Result describes an extracted waveform file owned by the caller.
type Result struct {
	Path string
	Size int64
}

// Extractor runs ffmpeg to produce speech WAV files.
type Extractor struct {
	workDir       string
	ffmpegBinary  string
	commandRunner CommandRunner
	logger        *slog.Logger
}

// New constructs an Extractor writing into workDir.
func New(workDir, ffmpegBinary string, logger *slog.Logger) *Extractor {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = FFmpegCommand
	}
	if strings.TrimSpace(workDir) == "" {
		workDir = os.TempDir()
	}
	return &Extractor{
		workDir:      workDir,
		ffmpegBinary: ffmpegBinary,
		logger:       logging.NewComponentLogger(logger, "extract"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (e *Extractor) WithCommandRunner(runner CommandRunner) {
	e.commandRunner = runner
}

// BuildArgs returns the ffmpeg arguments used to convert source into dest.
func BuildArgs(source, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-ac", fmt.Sprintf("%d", Channels),
		"-ar", fmt.Sprintf("%d", SampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
}

// Extract writes the audio track of videoPath to a new temp WAV. A nil Result
// with a nil error means extraction failed and no output remains.
func (e *Extractor) Extract(ctx context.Context, videoPath string) (*Result, error) {
	logger := logging.WithContext(ctx, e.logger)

	if _, err := os.Stat(videoPath); err != nil {
		logging.WarnWithContext(logger, "audio extraction skipped; input missing", "extract_input_missing",
			logging.String("path", videoPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "analysis cannot run for this request"),
		)
		return nil, nil
	}
	if err := os.MkdirAll(e.workDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "extract", "prepare work dir", e.workDir, err)
	}

	dest := filepath.Join(e.workDir, "audio-"+uuid.NewString()+".wav")
	started := time.Now()
	if err := e.run(ctx, e.ffmpegBinary, BuildArgs(videoPath, dest)...); err != nil {
		_ = os.Remove(dest)
		logging.WarnWithContext(logger, "audio extraction failed", "extract_failed",
			logging.String("source", videoPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "confirm the file contains an audio stream and ffmpeg is installed"),
			logging.String(logging.FieldImpact, "analysis cannot run for this request"),
		)
		return nil, nil
	}

	info, err := os.Stat(dest)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(dest)
		logging.WarnWithContext(logger, "audio extraction produced no output", "extract_empty",
			logging.String("source", videoPath),
			logging.String(logging.FieldErrorHint, "the video may not contain an audio track"),
			logging.String(logging.FieldImpact, "analysis cannot run for this request"),
		)
		return nil, nil
	}

	logger.Info("audio extracted",
		logging.String("path", dest),
		logging.String("size", humanize.Bytes(uint64(info.Size()))),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "extract_complete"),
	)
	return &Result{Path: dest, Size: info.Size()}, nil
}

func (e *Extractor) run(ctx context.Context, name string, args ...string) error {
	if e.commandRunner != nil {
		return e.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg extract: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
