package wavio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrInvalidWAV indicates the file is not a readable PCM WAV.
var ErrInvalidWAV = errors.New("invalid WAV file")

// Waveform is mono audio with samples in [-1, 1].
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the playback length.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(w.Samples)) / float64(w.SampleRate) * float64(time.Second))
}

// Read decodes a PCM WAV file, downmixing multi-channel audio to mono.
func Read(path string) (Waveform, error) {
	file, err := os.Open(path)
	if err != nil {
		return Waveform{}, err
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return Waveform{}, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil && err != io.EOF {
		return Waveform{}, fmt.Errorf("read PCM buffer: %w", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.SampleRate <= 0 {
		return Waveform{}, fmt.Errorf("%w: missing format", ErrInvalidWAV)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	bitDepth := int(decoder.BitDepth)
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := 1 / math.Pow(2, float64(bitDepth-1))

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = sum / float64(channels) * scale
	}
	return Waveform{Samples: samples, SampleRate: buf.Format.SampleRate}, nil
}

// Write encodes mono samples as a 16-bit PCM WAV. A failed write removes
// the partial file.
func Write(path string, w Waveform) (err error) {
	if w.SampleRate <= 0 {
		return fmt.Errorf("write wav: invalid sample rate %d", w.SampleRate)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = file.Close()
			_ = os.Remove(path)
		}
	}()

	data := make([]int, len(w.Samples))
	for i, s := range w.Samples {
		s = math.Max(-1, math.Min(1, s))
		data[i] = int(math.Round(s * 32767))
	}
	encoder := wav.NewEncoder(file, w.SampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: w.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return file.Close()
}

// Clip writes at most maxDuration of src to dst.
func Clip(src, dst string, maxDuration time.Duration) error {
	w, err := Read(src)
	if err != nil {
		return err
	}
	if maxDuration > 0 {
		limit := int(maxDuration.Seconds() * float64(w.SampleRate))
		if limit < len(w.Samples) {
			w.Samples = w.Samples[:limit]
		}
	}
	return Write(dst, w)
}
