package speechbrain

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"accentscope/internal/modelcache"
	"accentscope/internal/services"
	"accentscope/internal/services/uvx"
)

//go:embed classify.py
var classifyScript []byte

// Packages installed alongside the script.
var Packages = []string{"speechbrain", "torch", "torchaudio", "soundfile"}

// Default model sources.
const (
	LanguageModel = "speechbrain/lang-id-voxlingua107-ecapa"
	AccentModel   = "Jzuluaga/accent-id-commonaccent_ecapa"
)

// Candidate is one ranked class.
type Candidate struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Prediction is the classifier output. Probability is in [0,1].
type Prediction struct {
	Label       string      `json:"label"`
	Probability float64     `json:"probability"`
	Top         []Candidate `json:"top"`
}

// Classifier identifies one model in the cache and runs it.
type Classifier struct {
	name   string
	source string
	runner *uvx.Runner
	cache  *modelcache.Cache
}

// New constructs a Classifier. name keys the model in the cache registry.
func New(name, source string, runner *uvx.Runner, cache *modelcache.Cache) *Classifier {
	return &Classifier{name: name, source: strings.TrimSpace(source), runner: runner, cache: cache}
}

// Name returns the cache key.
func (c *Classifier) Name() string {
	return c.name
}

// Source returns the Hugging Face model identifier.
func (c *Classifier) Source() string {
	return c.source
}

// Classify runs the model against a mono 16 kHz WAV.
func (c *Classifier) Classify(ctx context.Context, audioPath string) (Prediction, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return Prediction{}, services.Wrap(services.ErrNotFound, "speechbrain", c.name, "audio missing", err)
	}
	if c.runner == nil || c.cache == nil {
		return Prediction{}, services.Wrap(services.ErrConfiguration, "speechbrain", c.name, "runtime not configured", nil)
	}

	lease, err := c.cache.Acquire(ctx, c.name, c.source)
	if err != nil {
		return Prediction{}, err
	}
	defer lease.Release(ctx)

	var prediction Prediction
	script := uvx.Script{Name: "speechbrain_classify.py", Source: classifyScript, Packages: Packages}
	args := []string{"--source", c.source, "--savedir", lease.Dir, "--audio", audioPath}
	if err := c.runner.Run(ctx, script, args, &prediction); err != nil {
		return Prediction{}, err
	}
	if strings.TrimSpace(prediction.Label) == "" {
		return Prediction{}, services.Wrap(services.ErrExternalTool, "speechbrain", c.name, "empty label", nil)
	}
	if prediction.Probability < 0 || prediction.Probability > 1 {
		return Prediction{}, services.Wrap(services.ErrExternalTool, "speechbrain", c.name,
			fmt.Sprintf("probability %.4f out of range", prediction.Probability), nil)
	}
	lease.Done()
	return prediction, nil
}
