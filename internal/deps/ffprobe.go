package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckFFprobeForFFmpeg reports the ffprobe binary paired with ffmpegCommand.
//
// An ffprobe sitting next to the resolved ffmpeg wins, so custom builds
// (static bundles, /opt installs) probe with their own ffprobe. Otherwise
// "ffprobe" is resolved from PATH.
func CheckFFprobeForFFmpeg(ffmpegCommand string) Status {
	result := Status{
		Name:        "FFprobe",
		Description: "Detects WAV files that can skip extraction",
		Optional:    true,
	}

	ffmpegBinary := strings.TrimSpace(ffmpegCommand)
	if ffmpegBinary != "" {
		if resolved, err := exec.LookPath(ffmpegBinary); err == nil {
			if candidate, ok := ffprobeSidecarCandidate(resolved); ok {
				if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
					result.Command = candidate
					result.Available = true
					return result
				}
			}
		}
	}

	ffprobeName := "ffprobe"
	if ffprobePath, err := exec.LookPath(ffprobeName); err == nil {
		result.Command = ffprobePath
		result.Available = true
		return result
	}

	result.Command = ffprobeName
	result.Available = false
	result.Detail = fmt.Sprintf("binary %q not found", ffprobeName)
	return result
}

func ffprobeSidecarCandidate(ffmpegPath string) (string, bool) {
	if ffmpegPath == "" {
		return "", false
	}
	dir := filepath.Dir(ffmpegPath)
	name := "ffprobe"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(dir, name), true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
