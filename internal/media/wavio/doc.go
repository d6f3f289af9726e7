// Package wavio reads and writes PCM WAV files as normalized float samples.
package wavio
