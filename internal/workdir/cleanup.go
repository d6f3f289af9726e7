// Package workdir sweeps request leftovers from the work directory.
//
// Requests remove their own temp files. Files survive only when a process is
// killed mid-request or when --keep-temp is used; this package reclaims them.
package workdir

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"accentscope/internal/logging"
)

// Patterns matches every temp artifact a request can leave behind.
var Patterns = []string{"video-*.mp4", "audio-*.wav", "clip-*.wav", "*.tmp"}

// CleanResult contains the outcome of a sweep.
type CleanResult struct {
	Removed []string
	Bytes   int64
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// Artifact describes one leftover file.
type Artifact struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// IsArtifact reports whether name matches one of Patterns.
func IsArtifact(name string) bool {
	for _, pattern := range Patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// ListArtifacts returns leftover files in dir, oldest first.
func ListArtifacts(dir string) ([]Artifact, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var artifacts []Artifact
	for _, entry := range entries {
		if entry.IsDir() || !IsArtifact(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		artifacts = append(artifacts, Artifact{
			Name:    entry.Name(),
			Path:    filepath.Join(dir, entry.Name()),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	sort.Slice(artifacts, func(i, j int) bool { return artifacts[i].ModTime.Before(artifacts[j].ModTime) })
	return artifacts, nil
}

// CleanStale removes artifacts older than maxAge. A zero maxAge removes all
// artifacts, which is only safe when no request is running.
func CleanStale(ctx context.Context, dir string, maxAge time.Duration, logger *slog.Logger) CleanResult {
	result := CleanResult{}
	artifacts, err := ListArtifacts(dir)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, artifact := range artifacts {
		if ctx.Err() != nil {
			break
		}
		if maxAge > 0 && !artifact.ModTime.Before(cutoff) {
			continue
		}
		if err := os.Remove(artifact.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			result.Errors = append(result.Errors, CleanupError{Path: artifact.Path, Error: err})
			logging.WarnWithContext(logger, "failed to remove stale temp file", "workdir_cleanup_failed",
				logging.String("path", artifact.Path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check work_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, artifact.Path)
		result.Bytes += artifact.Size
		if logger != nil {
			logger.Info("removed stale temp file",
				logging.String("path", artifact.Path),
				logging.Duration("age", time.Since(artifact.ModTime)),
				logging.String(logging.FieldEventType, "workdir_cleanup"),
			)
		}
	}
	return result
}
