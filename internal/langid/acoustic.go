package langid

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"accentscope/internal/acoustic"
)

// FeatureFunc extracts acoustic features from a WAV path.
type FeatureFunc func(audioPath string) (acoustic.Features, error)

// Acoustic scores coarse prosodic features. It is the final strategy.
type Acoustic struct {
	features FeatureFunc
}

// NewAcoustic returns the final strategy. A nil fn uses acoustic.AnalyzeFile.
func NewAcoustic(fn FeatureFunc) *Acoustic {
	if fn == nil {
		fn = acoustic.AnalyzeFile
	}
	return &Acoustic{features: fn}
}

func (a *Acoustic) Name() string { return StrategyAcoustic }

// Detect never fails: extraction errors and panics yield (unknown, 40).
func (a *Acoustic) Detect(_ context.Context, audioPath string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = unknownAcoustic(fmt.Errorf("feature extraction panic: %v", r))
		}
	}()
	features, err := a.features(audioPath)
	if err != nil {
		return unknownAcoustic(err)
	}
	return Score(features)
}

func unknownAcoustic(err error) Result {
	return Result{
		Label:      "unknown",
		Confidence: 40,
		Strategy:   StrategyAcoustic,
		Detail:     map[string]string{"error": err.Error()},
	}
}

// Score applies fixed ranges typical of English speech.
func Score(f acoustic.Features) Result {
	score := 0.0
	if f.TempoBPM > 90 && f.TempoBPM < 150 {
		score += 30
	}
	if f.CentroidHz > 1200 && f.CentroidHz < 2500 {
		score += 25
	}
	if f.MFCCVariance > 50 && f.MFCCVariance < 200 {
		score += 25
	}

	detail := map[string]string{
		"tempo_bpm":     strconv.FormatFloat(f.TempoBPM, 'f', 1, 64),
		"centroid_hz":   strconv.FormatFloat(f.CentroidHz, 'f', 1, 64),
		"mfcc_variance": strconv.FormatFloat(f.MFCCVariance, 'f', 2, 64),
		"score":         strconv.FormatFloat(score, 'f', 0, 64),
	}
	if score >= 50 {
		return Result{Label: "en", Confidence: math.Min(score+20, 80), Strategy: StrategyAcoustic, Detail: detail}
	}
	return Result{Label: "non-english", Confidence: 60, Strategy: StrategyAcoustic, Detail: detail}
}
