package accent

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"accentscope/internal/logging"
	"accentscope/internal/services/speechbrain"
)

// Fallback policies applied when the model cannot answer.
const (
	FallbackUnavailable = "unavailable"
	FallbackRandom      = "random"
)

// Result sources.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// UnavailableLabel is reported by the unavailable fallback.
const UnavailableLabel = "classification unavailable"

const (
	maxConfidence    = 95.0
	randomConfidence = 65.0
)

// RandomShortlist is sampled by the random fallback.
var RandomShortlist = []string{"American", "British (England)", "Australian", "Indian", "Canadian"}

// Model is satisfied by *speechbrain.Classifier.
type Model interface {
	Classify(ctx context.Context, audioPath string) (speechbrain.Prediction, error)
}

// Result is an accent name with a confidence in [0,95].
type Result struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Code       string  `json:"code,omitempty"`
	Source     string  `json:"source"`
}

// Classifier never fails; model errors resolve through the fallback policy.
type Classifier struct {
	model    Model
	fallback string
	logger   *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// Option customizes a Classifier.
type Option func(*Classifier)

// WithRand sets the random source used by the random fallback.
func WithRand(rng *rand.Rand) Option {
	return func(c *Classifier) {
		if rng != nil {
			c.rng = rng
		}
	}
}

// New builds a Classifier. Unrecognized fallback values behave as
// FallbackUnavailable.
func New(model Model, fallback string, logger *slog.Logger, opts ...Option) *Classifier {
	if fallback != FallbackRandom {
		fallback = FallbackUnavailable
	}
	seed := uint64(time.Now().UnixNano())
	c := &Classifier{
		model:    model,
		fallback: fallback,
		rng:      rand.New(rand.NewPCG(seed, seed>>1)),
		logger:   logging.NewComponentLogger(logger, "accent"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fallback returns the configured policy.
func (c *Classifier) Fallback() string {
	return c.fallback
}

// Classify labels the accent in audioPath.
func (c *Classifier) Classify(ctx context.Context, audioPath string) Result {
	logger := logging.WithContext(ctx, c.logger)
	if c.model == nil {
		return c.fallbackResult(logger, nil)
	}
	prediction, err := c.model.Classify(ctx, audioPath)
	if err != nil {
		return c.fallbackResult(logger, err)
	}
	result := Result{
		Label:      DisplayName(prediction.Label),
		Confidence: Confidence(prediction.Probability),
		Code:       prediction.Label,
		Source:     SourceModel,
	}
	logger.Info("accent classified",
		logging.String("accent", result.Label),
		logging.String("code", result.Code),
		logging.Float64("confidence", result.Confidence),
	)
	return result
}

// Confidence converts a probability to a percentage capped at 95 and rounded
// to one decimal.
func Confidence(probability float64) float64 {
	pct := math.Min(probability*100, maxConfidence)
	return math.Round(pct*10) / 10
}

func (c *Classifier) fallbackResult(logger *slog.Logger, err error) Result {
	attrs := []logging.Attr{
		logging.String("fallback", c.fallback),
		logging.String(logging.FieldImpact, "accent result is not model-derived"),
		logging.String(logging.FieldErrorHint, "check the accent model runtime"),
	}
	if err != nil {
		attrs = append(attrs, logging.Error(err))
	}
	logging.WarnWithContext(logger, "accent classification failed", "accent_fallback", attrs...)

	if c.fallback == FallbackRandom {
		c.mu.Lock()
		pick := c.rng.IntN(len(RandomShortlist))
		c.mu.Unlock()
		return Result{
			Label:      RandomShortlist[pick],
			Confidence: randomConfidence,
			Source:     SourceFallback,
		}
	}
	return Result{Label: UnavailableLabel, Confidence: 0, Source: SourceFallback}
}
