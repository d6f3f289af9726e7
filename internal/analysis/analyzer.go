package analysis

import (
	"context"
	"log/slog"
	"os"

	"accentscope/internal/accent"
	"accentscope/internal/langid"
	"accentscope/internal/language"
	"accentscope/internal/logging"
	"accentscope/internal/services"
)

// LanguageDetector is satisfied by *langid.Chain.
type LanguageDetector interface {
	Detect(ctx context.Context, audioPath string) langid.Result
}

// AccentClassifier is satisfied by *accent.Classifier.
type AccentClassifier interface {
	Classify(ctx context.Context, audioPath string) accent.Result
}

// Analyzer runs language identification and, for English speech, accent
// classification.
type Analyzer struct {
	language LanguageDetector
	accent   AccentClassifier
	logger   *slog.Logger
}

// NewAnalyzer constructs an Analyzer.
func NewAnalyzer(language LanguageDetector, accent AccentClassifier, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		language: language,
		accent:   accent,
		logger:   logging.NewComponentLogger(logger, "analysis"),
	}
}

// Analyze classifies the speech in audioPath. It fails only when the file
// does not exist; classifier failures resolve through their fallbacks.
func (a *Analyzer) Analyze(ctx context.Context, audioPath string) (Outcome, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return Outcome{}, services.Wrap(services.ErrNotFound, "analysis", "analyze", "audio file not found: "+audioPath, err)
	}
	ctx = services.WithStage(ctx, "language")
	detected := a.language.Detect(ctx, audioPath)
	return compose(logging.WithContext(ctx, a.logger), detected, func() accent.Result {
		return a.accent.Classify(services.WithStage(ctx, "accent"), audioPath)
	}), nil
}

// compose applies the English gate and consults classify only for English.
func compose(logger *slog.Logger, detected langid.Result, classify func() accent.Result) Outcome {
	english := language.IsEnglish(detected.Label)
	logger.Info("english gate evaluated",
		logging.Args(append(logging.DecisionAttrs("english_gate", boolResult(english), language.MatchKind(detected.Label)),
			logging.String("label", detected.Label),
		)...)...)

	outcome := Outcome{
		IsEnglish:        english,
		Language:         detected.Label,
		LangConfidence:   detected.Confidence,
		LanguageStrategy: detected.Strategy,
		RawLanguage:      detected.Label,
		LanguageDetail:   detected.Detail,
	}
	if !english {
		return outcome
	}

	result := classify()
	outcome.Language = "English"
	outcome.Accent = &result.Label
	outcome.AccentConfidence = &result.Confidence
	outcome.AccentSource = result.Source
	return outcome
}

func boolResult(ok bool) string {
	if ok {
		return "english"
	}
	return "not_english"
}
