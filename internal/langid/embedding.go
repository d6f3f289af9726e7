package langid

import (
	"context"
	"strings"

	"accentscope/internal/services/speechbrain"
)

// LabelClassifier is satisfied by *speechbrain.Classifier.
type LabelClassifier interface {
	Classify(ctx context.Context, audioPath string) (speechbrain.Prediction, error)
}

// Embedding runs a pretrained speaker-embedding language classifier.
type Embedding struct {
	classifier LabelClassifier
}

// NewEmbedding wraps a classifier as the primary strategy.
func NewEmbedding(classifier LabelClassifier) *Embedding {
	return &Embedding{classifier: classifier}
}

func (e *Embedding) Name() string { return StrategyEmbedding }

// Detect lowercases the top label and scales its probability to a percentage.
func (e *Embedding) Detect(ctx context.Context, audioPath string) Outcome {
	prediction, err := e.classifier.Classify(ctx, audioPath)
	if err != nil {
		return Failure(err)
	}
	return Success(Result{
		Label:      strings.ToLower(strings.TrimSpace(prediction.Label)),
		Confidence: prediction.Probability * 100,
		Strategy:   StrategyEmbedding,
		Detail:     map[string]string{"raw_label": prediction.Label},
	})
}
