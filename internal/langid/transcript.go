package langid

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"

	"accentscope/internal/services/whisper"
)

var indicatorWords = []string{"the", "and", "is", "are", "was", "were", "have", "has", "this", "that"}

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

func textDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().FromAllLanguages().Build()
	})
	return detector
}

// Transcript transcribes the audio and looks for common English words.
type Transcript struct {
	transcriber whisper.Transcriber
}

// NewTranscript wraps a transcriber as the secondary strategy.
func NewTranscript(transcriber whisper.Transcriber) *Transcript {
	return &Transcript{transcriber: transcriber}
}

func (t *Transcript) Name() string { return StrategyTranscript }

func (t *Transcript) Detect(ctx context.Context, audioPath string) Outcome {
	text, err := t.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return Failure(err)
	}
	result := ScoreTranscript(text)
	result.Detail["transcriber"] = t.transcriber.Name()
	return Success(result)
}

// CountIndicators returns how many indicator words occur anywhere in the
// lowercased text. Substrings count ("there" contains "the"); each word at
// most once.
func CountIndicators(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, word := range indicatorWords {
		if strings.Contains(lower, word) {
			count++
		}
	}
	return count
}

// ScoreTranscript maps a transcript to a result. The detected written
// language is attached for diagnostics only.
func ScoreTranscript(text string) Result {
	text = strings.TrimSpace(text)
	detail := map[string]string{}
	if text == "" {
		return Result{Label: "unknown", Confidence: 50, Strategy: StrategyTranscript, Detail: detail}
	}

	count := CountIndicators(text)
	detail["indicator_count"] = strconv.Itoa(count)
	if lang, ok := textDetector().DetectLanguageOf(text); ok {
		detail["transcript_language"] = strings.ToLower(lang.String())
	}

	if count >= 2 {
		return Result{
			Label:      "en",
			Confidence: math.Min(85+2*float64(count), 95),
			Strategy:   StrategyTranscript,
			Detail:     detail,
		}
	}
	return Result{Label: "non-english", Confidence: 70, Strategy: StrategyTranscript, Detail: detail}
}
