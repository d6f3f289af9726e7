package acoustic

import (
	"errors"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"accentscope/internal/media/wavio"
)

// Analysis parameters.
const (
	FrameSize = 2048
	HopSize   = 512
	MelBands  = 128
	MFCCCount = 13

	minTempo   = 60.0
	maxTempo   = 200.0
	startTempo = 120.0
	topDB      = 80.0
	amin       = 1e-10
)

// ErrEmptyAudio indicates the waveform has no samples.
var ErrEmptyAudio = errors.New("empty audio")

// Features summarizes a waveform.
type Features struct {
	TempoBPM       float64 `json:"tempo_bpm"`
	CentroidHz     float64 `json:"centroid_hz"`
	MFCCVariance   float64 `json:"mfcc_variance"`
	Frames         int     `json:"frames"`
	DurationSecond float64 `json:"duration_seconds"`
}

// AnalyzeFile reads a WAV and extracts its features.
func AnalyzeFile(path string) (Features, error) {
	w, err := wavio.Read(path)
	if err != nil {
		return Features{}, err
	}
	return Analyze(w)
}

// Analyze extracts features from an in-memory waveform.
func Analyze(w wavio.Waveform) (Features, error) {
	if len(w.Samples) == 0 || w.SampleRate <= 0 {
		return Features{}, ErrEmptyAudio
	}
	power := powerSpectrogram(w.Samples)
	sr := float64(w.SampleRate)

	centroids := make([]float64, len(power))
	for i, frame := range power {
		centroids[i] = spectralCentroid(frame, sr)
	}

	filters := melFilterbank(sr, FrameSize, MelBands)
	melDB := powerToDB(applyFilterbank(power, filters))

	coeffs := make([]float64, 0, len(melDB)*MFCCCount)
	for _, frame := range melDB {
		coeffs = append(coeffs, dctII(frame, MFCCCount)...)
	}

	return Features{
		TempoBPM:       estimateTempo(onsetEnvelope(melDB), sr),
		CentroidHz:     stat.Mean(centroids, nil),
		MFCCVariance:   stat.PopVariance(coeffs, nil),
		Frames:         len(power),
		DurationSecond: w.Duration().Seconds(),
	}, nil
}

// powerSpectrogram frames the centered, zero-padded signal and returns
// |FFT|^2 per frame.
func powerSpectrogram(samples []float64) [][]float64 {
	pad := FrameSize / 2
	padded := make([]float64, len(samples)+2*pad)
	copy(padded[pad:], samples)

	window := hann(FrameSize)
	fft := fourier.NewFFT(FrameSize)
	frameCount := 1 + (len(padded)-FrameSize)/HopSize

	frames := make([][]float64, frameCount)
	buf := make([]float64, FrameSize)
	var coeffs []complex128
	for f := 0; f < frameCount; f++ {
		start := f * HopSize
		for i := range buf {
			buf[i] = padded[start+i] * window[i]
		}
		coeffs = fft.Coefficients(coeffs, buf)
		bins := make([]float64, len(coeffs))
		for k, c := range coeffs {
			mag := cmplx.Abs(c)
			bins[k] = mag * mag
		}
		frames[f] = bins
	}
	return frames
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// spectralCentroid uses magnitudes; silent frames report 0.
func spectralCentroid(power []float64, sr float64) float64 {
	var weighted, total float64
	binHz := sr / float64(FrameSize)
	for k, p := range power {
		mag := math.Sqrt(p)
		weighted += float64(k) * binHz * mag
		total += mag
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// hzToMel and melToHz implement the Slaney mel scale.
func hzToMel(hz float64) float64 {
	const (
		fSp      = 200.0 / 3
		minLogHz = 1000.0
		logstep  = 0.06875177742094912 // ln(6.4) / 27
	)
	if hz < minLogHz {
		return hz / fSp
	}
	return minLogHz/fSp + math.Log(hz/minLogHz)/logstep
}

func melToHz(mel float64) float64 {
	const (
		fSp      = 200.0 / 3
		minLogHz = 1000.0
		logstep  = 0.06875177742094912
	)
	minLogMel := minLogHz / fSp
	if mel < minLogMel {
		return mel * fSp
	}
	return minLogHz * math.Exp(logstep*(mel-minLogMel))
}

// melFilterbank builds Slaney-normalized triangular filters.
func melFilterbank(sr float64, nFFT, bands int) [][]float64 {
	bins := nFFT/2 + 1
	fftFreqs := make([]float64, bins)
	for k := range fftFreqs {
		fftFreqs[k] = float64(k) * sr / float64(nFFT)
	}

	maxMel := hzToMel(sr / 2)
	melPoints := make([]float64, bands+2)
	floats.Span(melPoints, 0, maxMel)
	hzPoints := make([]float64, len(melPoints))
	for i, m := range melPoints {
		hzPoints[i] = melToHz(m)
	}

	filters := make([][]float64, bands)
	for b := 0; b < bands; b++ {
		lower, center, upper := hzPoints[b], hzPoints[b+1], hzPoints[b+2]
		norm := 2 / (upper - lower)
		filter := make([]float64, bins)
		for k, f := range fftFreqs {
			var weight float64
			switch {
			case f > lower && f <= center:
				weight = (f - lower) / (center - lower)
			case f > center && f < upper:
				weight = (upper - f) / (upper - center)
			}
			filter[k] = weight * norm
		}
		filters[b] = filter
	}
	return filters
}

func applyFilterbank(power [][]float64, filters [][]float64) [][]float64 {
	out := make([][]float64, len(power))
	for f, frame := range power {
		mel := make([]float64, len(filters))
		for b, filter := range filters {
			mel[b] = floats.Dot(filter, frame)
		}
		out[f] = mel
	}
	return out
}

// powerToDB converts to decibels relative to 1.0, clamped to topDB below the peak.
func powerToDB(mel [][]float64) [][]float64 {
	peak := math.Inf(-1)
	out := make([][]float64, len(mel))
	for f, frame := range mel {
		db := make([]float64, len(frame))
		for b, v := range frame {
			db[b] = 10 * math.Log10(math.Max(v, amin))
			peak = math.Max(peak, db[b])
		}
		out[f] = db
	}
	floor := peak - topDB
	for _, frame := range out {
		for b := range frame {
			frame[b] = math.Max(frame[b], floor)
		}
	}
	return out
}

// dctII returns the first n orthonormal DCT-II coefficients of x.
func dctII(x []float64, n int) []float64 {
	size := float64(len(x))
	out := make([]float64, n)
	for k := 0; k < n; k++ {
		var sum float64
		for i, v := range x {
			sum += v * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*size))
		}
		scale := math.Sqrt(2 / size)
		if k == 0 {
			scale = math.Sqrt(1 / size)
		}
		out[k] = sum * scale
	}
	return out
}

// onsetEnvelope is the mean positive log-mel flux per frame.
func onsetEnvelope(melDB [][]float64) []float64 {
	if len(melDB) < 2 {
		return nil
	}
	env := make([]float64, len(melDB)-1)
	for f := 1; f < len(melDB); f++ {
		var flux float64
		for b := range melDB[f] {
			if d := melDB[f][b] - melDB[f-1][b]; d > 0 {
				flux += d
			}
		}
		env[f-1] = flux / float64(len(melDB[f]))
	}
	return env
}

// estimateTempo picks the autocorrelation peak of the onset envelope within
// [minTempo, maxTempo], weighted by a log-normal prior around startTempo.
// A flat envelope yields 0.
func estimateTempo(env []float64, sr float64) float64 {
	if len(env) < 2 {
		return 0
	}
	mean := stat.Mean(env, nil)
	centered := make([]float64, len(env))
	for i, v := range env {
		centered[i] = v - mean
	}
	if floats.Norm(centered, 2) == 0 {
		return 0
	}

	framesPerSecond := sr / HopSize
	minLag := int(math.Floor(60 * framesPerSecond / maxTempo))
	maxLag := int(math.Ceil(60 * framesPerSecond / minTempo))
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(centered) {
		maxLag = len(centered) - 1
	}

	best, bestScore := 0.0, math.Inf(-1)
	for lag := minLag; lag <= maxLag; lag++ {
		bpm := 60 * framesPerSecond / float64(lag)
		if bpm < minTempo || bpm > maxTempo {
			continue
		}
		ac := floats.Dot(centered[:len(centered)-lag], centered[lag:])
		prior := math.Exp(-0.5 * math.Pow(math.Log2(bpm/startTempo), 2))
		if score := ac * prior; score > bestScore {
			best, bestScore = bpm, score
		}
	}
	if bestScore <= 0 {
		return 0
	}
	return best
}
