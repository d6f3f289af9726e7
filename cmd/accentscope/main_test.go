package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"accentscope/internal/analysis"
	"accentscope/internal/services"
	"accentscope/internal/testsupport"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "cancelled", err: fmt.Errorf("run: %w", context.Canceled), want: exitInterrupted},
		{name: "validation", err: services.Wrap(services.ErrValidation, "request", "validate url", "", nil), want: exitUsage},
		{name: "configuration", err: services.Wrap(services.ErrConfiguration, "request", "analyze file", "", nil), want: exitUsage},
		{name: "download", err: services.Wrap(services.ErrExternalTool, "fetch", "download", "", analysis.ErrDownloadFailed), want: exitMediaFailed},
		{name: "extraction", err: services.Wrap(services.ErrExternalTool, "extract", "ffmpeg", "", analysis.ErrExtractionFailed), want: exitMediaFailed},
		{name: "other", err: errors.New("boom"), want: exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Fatalf("exitCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAnalyzeJSONReportsFailureKind(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHeuristicMode())

	out, _, err := runCLI(t, []string{"analyze", "ftp://example.com/video.mp4", "--json"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var failure jsonFailure
	if err := json.Unmarshal([]byte(out), &failure); err != nil {
		t.Fatalf("decode failure: %v\n%s", err, out)
	}
	if failure.Kind != analysis.KindInvalidRequest || failure.Error == "" {
		t.Fatalf("unexpected failure %+v", failure)
	}
}
