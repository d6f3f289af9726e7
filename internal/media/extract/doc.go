// Package extract converts a downloaded video into the mono 16 kHz 16-bit PCM
// WAV that the speech classifiers consume.
//
// Extraction failures (missing input, no audio stream, ffmpeg errors, empty
// output) are reported as "no result" and leave no partial file behind.
package extract
