// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helper methods on Result report stream counts, duration, and whether a file
// is already a mono 16 kHz PCM WAV that the classifiers can consume directly.
package ffprobe
