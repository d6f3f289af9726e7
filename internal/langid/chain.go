package langid

import (
	"context"
	"log/slog"

	"accentscope/internal/logging"
)

// Strategy names reported in Result.Strategy.
const (
	StrategyEmbedding  = "embedding"
	StrategyTranscript = "transcript"
	StrategyAcoustic   = "acoustic"
)

// Result is a language label with a confidence in [0,100].
type Result struct {
	Label      string            `json:"label"`
	Confidence float64           `json:"confidence"`
	Strategy   string            `json:"strategy"`
	Detail     map[string]string `json:"detail,omitempty"`
}

// Outcome is either a Result or the error that prevented one.
type Outcome struct {
	Result Result
	Err    error
}

// OK reports whether the outcome carries a usable result.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Success wraps a result.
func Success(result Result) Outcome {
	return Outcome{Result: result}
}

// Failure wraps an error.
func Failure(err error) Outcome {
	return Outcome{Err: err}
}

// Strategy may fail; the chain moves to the next one when it does.
type Strategy interface {
	Name() string
	Detect(ctx context.Context, audioPath string) Outcome
}

// FinalStrategy closes the chain and cannot fail.
type FinalStrategy interface {
	Name() string
	Detect(ctx context.Context, audioPath string) Result
}

// Chain runs strategies in order.
type Chain struct {
	strategies []Strategy
	final      FinalStrategy
	logger     *slog.Logger
}

// NewChain builds a chain that tries strategies in the given order before
// falling back to final.
func NewChain(logger *slog.Logger, final FinalStrategy, strategies ...Strategy) *Chain {
	return &Chain{
		strategies: strategies,
		final:      final,
		logger:     logging.NewComponentLogger(logger, "langid"),
	}
}

// Names lists the strategies in execution order, final last.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.strategies)+1)
	for _, s := range c.strategies {
		names = append(names, s.Name())
	}
	if c.final != nil {
		names = append(names, c.final.Name())
	}
	return names
}

// Detect returns the first successful strategy result. There are no retries
// and no voting.
func (c *Chain) Detect(ctx context.Context, audioPath string) Result {
	logger := logging.WithContext(ctx, c.logger)
	for i, strategy := range c.strategies {
		outcome := strategy.Detect(ctx, audioPath)
		if outcome.OK() {
			result := outcome.Result
			if result.Strategy == "" {
				result.Strategy = strategy.Name()
			}
			logger.Info("language detected",
				logging.Args(append(logging.DecisionAttrs("language_strategy", result.Strategy, "strategy succeeded"),
					logging.String("label", result.Label),
					logging.Float64("confidence", result.Confidence),
					logging.Int("attempt", i+1),
				)...)...)
			return result
		}
		logging.WarnWithContext(logger, "language strategy failed", "strategy_failed",
			logging.String("strategy", strategy.Name()),
			logging.Error(outcome.Err),
			logging.String(logging.FieldErrorHint, "check the model runtime (uvx, network, model cache)"),
			logging.String(logging.FieldImpact, "falling back to the next language strategy"),
		)
	}

	if c.final == nil {
		return Result{Label: "unknown", Strategy: "none"}
	}
	result := c.final.Detect(ctx, audioPath)
	if result.Strategy == "" {
		result.Strategy = c.final.Name()
	}
	logger.Info("language detected",
		logging.Args(append(logging.DecisionAttrs("language_strategy", result.Strategy, "fallback strategy"),
			logging.String("label", result.Label),
			logging.Float64("confidence", result.Confidence),
			logging.Int("attempt", len(c.strategies)+1),
		)...)...)
	return result
}
