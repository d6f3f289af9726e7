package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"accentscope/internal/analysis"
	"accentscope/internal/services"
)

// Exit codes beyond the generic failure.
const (
	exitFailure     = 1
	exitUsage       = 2
	exitMediaFailed = 3
	exitInterrupted = 130
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		code := exitCode(err)
		if code != exitInterrupted {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(code)
	}
}

// exitCode separates bad input and unreachable media from other failures
// so scripts can tell them apart.
func exitCode(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrConfiguration):
		return exitUsage
	case errors.Is(err, analysis.ErrDownloadFailed), errors.Is(err, analysis.ErrExtractionFailed):
		return exitMediaFailed
	default:
		return exitFailure
	}
}
