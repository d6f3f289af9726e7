package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"accentscope/internal/accent"
	"accentscope/internal/analysis"
	"accentscope/internal/config"
	"accentscope/internal/fetch"
	"accentscope/internal/heuristic"
	"accentscope/internal/langid"
	"accentscope/internal/media/extract"
	"accentscope/internal/media/ffprobe"
	"accentscope/internal/modelcache"
	"accentscope/internal/services/speechbrain"
	"accentscope/internal/services/uvx"
	"accentscope/internal/services/whisper"
)

// Cache keys for the classifiers.
const (
	languageModelName = "language"
	accentModelName   = "accent"
)

// runtime owns the resources a pipeline needs for the life of a command.
type runtime struct {
	pipeline *analysis.Pipeline
	cache    *modelcache.Cache
}

func (r *runtime) Close() error {
	if r == nil || r.cache == nil {
		return nil
	}
	return r.cache.Close()
}

// buildRuntime wires the pipeline for cfg's mode.
func buildRuntime(cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	if cfg.HeuristicMode() {
		return &runtime{pipeline: analysis.NewHeuristicPipeline(heuristic.New(nil), logger)}, nil
	}

	cache, err := modelcache.Open(cfg.Paths.ModelCacheDir, logger)
	if err != nil {
		return nil, fmt.Errorf("open model cache: %w", err)
	}
	runner := uvx.New(uvx.Config{
		Binary:      cfg.UVXBinary(),
		WorkDir:     cfg.Paths.WorkDir,
		CUDAEnabled: cfg.Models.CUDAEnabled,
		HFToken:     cfg.Models.HFToken,
		CacheEnv:    cache.Env(),
	})

	transcriber, err := newTranscriber(cfg, runner, cache)
	if err != nil {
		_ = cache.Close()
		return nil, err
	}

	chain := langid.NewChain(logger,
		langid.NewAcoustic(nil),
		langid.NewEmbedding(speechbrain.New(languageModelName, cfg.Models.LanguageModel, runner, cache)),
		langid.NewTranscript(transcriber),
	)
	accents := accent.New(
		speechbrain.New(accentModelName, cfg.Models.AccentModel, runner, cache),
		cfg.Accent.Fallback,
		logger,
	)

	fetcher := fetch.New(fetch.Config{
		WorkDir:   cfg.Paths.WorkDir,
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	}, logger)
	extractor := extract.New(cfg.Paths.WorkDir, cfg.FFmpegBinary(), logger)

	ffprobeBinary := cfg.FFprobeBinary()
	pipeline := analysis.NewPipeline(fetcher, extractor, analysis.NewAnalyzer(chain, accents, logger), logger).
		WithProber(func(ctx context.Context, path string) (ffprobe.Result, error) {
			return ffprobe.Inspect(ctx, ffprobeBinary, path)
		})
	return &runtime{pipeline: pipeline, cache: cache}, nil
}

func newTranscriber(cfg *config.Config, runner *uvx.Runner, cache *modelcache.Cache) (whisper.Transcriber, error) {
	if cfg.Models.Transcriber != config.TranscriberOpenAI {
		return whisper.NewLocal(cfg.Models.WhisperModel, runner, cache), nil
	}
	api, err := whisper.NewAPI(whisper.APIConfig{
		APIKey:  cfg.Models.OpenAIAPIKey,
		Model:   cfg.Models.OpenAIModel,
		BaseURL: cfg.Models.OpenAIBaseURL,
		WorkDir: cfg.Paths.WorkDir,
	})
	if err != nil {
		return nil, fmt.Errorf("openai transcriber: %w", err)
	}
	return api, nil
}

// withMode returns a copy of cfg with models.mode overridden.
func withMode(cfg *config.Config, mode string) (*config.Config, error) {
	if mode == "" {
		return cfg, nil
	}
	if mode != config.ModeML && mode != config.ModeHeuristic {
		return nil, errors.New("--mode must be \"ml\" or \"heuristic\"")
	}
	clone := *cfg
	clone.Models.Mode = mode
	return &clone, nil
}
