package accent_test

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"testing"

	"accentscope/internal/accent"
	"accentscope/internal/logging"
	"accentscope/internal/services/speechbrain"
)

type stubModel struct {
	prediction speechbrain.Prediction
	err        error
}

func (s stubModel) Classify(context.Context, string) (speechbrain.Prediction, error) {
	return s.prediction, s.err
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"us":             "American",
		"england":        "British (England)",
		" Scotland ":     "Scottish",
		"philippines":    "Filipino",
		"southatlandtic": "South Atlantic",
		"klingon":        "Klingon",
	}
	for code, want := range tests {
		if got := accent.DisplayName(code); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", code, got, want)
		}
	}
	if accent.Known("klingon") || !accent.Known("wales") {
		t.Fatal("unexpected Known results")
	}
}

func TestClassifyCapsAndRounds(t *testing.T) {
	tests := []struct {
		code        string
		probability float64
		label       string
		confidence  float64
	}{
		{code: "us", probability: 0.97, label: "American", confidence: 95},
		{code: "england", probability: 0.8234, label: "British (England)", confidence: 82.3},
		{code: "indian", probability: 0.45678, label: "Indian", confidence: 45.7},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			classifier := accent.New(stubModel{prediction: speechbrain.Prediction{Label: tt.code, Probability: tt.probability}}, accent.FallbackUnavailable, logging.NewNop())
			result := classifier.Classify(context.Background(), "audio.wav")
			if result.Label != tt.label || result.Confidence != tt.confidence || result.Source != accent.SourceModel {
				t.Fatalf("unexpected result %+v", result)
			}
		})
	}
}

func TestClassifyUnavailableFallback(t *testing.T) {
	classifier := accent.New(stubModel{err: errors.New("uvx missing")}, "", logging.NewNop())
	if classifier.Fallback() != accent.FallbackUnavailable {
		t.Fatalf("unexpected default fallback %q", classifier.Fallback())
	}
	result := classifier.Classify(context.Background(), "audio.wav")
	if result.Label != accent.UnavailableLabel || result.Confidence != 0 || result.Source != accent.SourceFallback {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestClassifyRandomFallbackIsSeeded(t *testing.T) {
	run := func() []string {
		classifier := accent.New(stubModel{err: errors.New("boom")}, accent.FallbackRandom, logging.NewNop(),
			accent.WithRand(rand.New(rand.NewPCG(7, 11))))
		labels := make([]string, 0, 10)
		for range 10 {
			result := classifier.Classify(context.Background(), "audio.wav")
			if result.Confidence != 65 {
				t.Fatalf("unexpected confidence %.1f", result.Confidence)
			}
			if !slices.Contains(accent.RandomShortlist, result.Label) {
				t.Fatalf("label %q outside shortlist", result.Label)
			}
			labels = append(labels, result.Label)
		}
		return labels
	}
	if first, second := run(), run(); !slices.Equal(first, second) {
		t.Fatalf("same seed produced different sequences: %v vs %v", first, second)
	}
}

func TestClassifyRandomFallbackConcurrent(t *testing.T) {
	classifier := accent.New(stubModel{err: errors.New("runtime missing")}, accent.FallbackRandom, logging.NewNop(),
		accent.WithRand(rand.New(rand.NewPCG(7, 11))))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				result := classifier.Classify(context.Background(), "clip.wav")
				if !slices.Contains(accent.RandomShortlist, result.Label) {
					t.Errorf("label %q not in shortlist", result.Label)
					return
				}
			}
		}()
	}
	wg.Wait()
}
