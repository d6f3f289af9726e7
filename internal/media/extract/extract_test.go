package extract_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"accentscope/internal/logging"
	"accentscope/internal/media/extract"
)

func TestBuildArgsFixedLayout(t *testing.T) {
	got := extract.BuildArgs("in.mp4", "out.wav")
	want := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", "in.mp4", "-vn", "-ac", "1", "-ar", "16000", "-c:a", "pcm_s16le", "out.wav"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected args:\n got %v\nwant %v", got, want)
	}
}

func TestExtractWritesOutput(t *testing.T) {
	workDir := t.TempDir()
	video := writeVideo(t)

	e := extract.New(workDir, "ffmpeg-test", logging.NewNop())
	var gotName string
	e.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		return os.WriteFile(args[len(args)-1], []byte("RIFF....WAVE"), 0o644)
	})

	result, err := e.Extract(context.Background(), video)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if result == nil {
		t.Fatal("expected result")
	}
	if gotName != "ffmpeg-test" {
		t.Fatalf("expected configured binary, got %q", gotName)
	}
	if filepath.Dir(result.Path) != workDir || filepath.Ext(result.Path) != ".wav" {
		t.Fatalf("unexpected output path %q", result.Path)
	}
	if result.Size != int64(len("RIFF....WAVE")) {
		t.Fatalf("unexpected size %d", result.Size)
	}
}

func TestExtractReturnsNoResultOnFailure(t *testing.T) {
	tests := []struct {
		name   string
		runner extract.CommandRunner
		input  func(t *testing.T) string
	}{
		{
			name: "ffmpeg error leaves partial file",
			runner: func(_ context.Context, _ string, args ...string) error {
				_ = os.WriteFile(args[len(args)-1], []byte("partial"), 0o644)
				return errors.New("exit status 1: Output file does not contain any stream")
			},
			input: writeVideo,
		},
		{
			name: "empty output",
			runner: func(_ context.Context, _ string, args ...string) error {
				return os.WriteFile(args[len(args)-1], nil, 0o644)
			},
			input: writeVideo,
		},
		{
			name: "no output",
			runner: func(context.Context, string, ...string) error {
				return nil
			},
			input: writeVideo,
		},
		{
			name: "missing input",
			runner: func(context.Context, string, ...string) error {
				t.Fatal("runner must not be called for a missing input")
				return nil
			},
			input: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.mp4") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workDir := t.TempDir()
			e := extract.New(workDir, "", logging.NewNop())
			e.WithCommandRunner(tt.runner)

			result, err := e.Extract(context.Background(), tt.input(t))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result != nil {
				t.Fatalf("expected no result, got %+v", result)
			}
			entries, _ := os.ReadDir(workDir)
			if len(entries) != 0 {
				t.Fatalf("expected no files left in work dir, found %d", len(entries))
			}
		})
	}
}

func writeVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video.mp4")
	if err := os.WriteFile(path, []byte("fake video"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
