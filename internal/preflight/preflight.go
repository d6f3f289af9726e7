package preflight

import (
	"context"

	"accentscope/internal/config"
	"accentscope/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Report bundles every check for presentation.
type Report struct {
	Mode         string        `json:"mode"`
	Checks       []Result      `json:"checks"`
	Dependencies []deps.Status `json:"dependencies"`
}

// Ready reports whether every check and every required dependency passed.
func (r Report) Ready() bool {
	for _, check := range r.Checks {
		if !check.Passed {
			return false
		}
	}
	for _, dep := range r.Dependencies {
		if !dep.Available && !dep.Optional {
			return false
		}
	}
	return true
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Model cache", cfg.Paths.ModelCacheDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if !cfg.HeuristicMode() && cfg.Models.Transcriber == config.TranscriberOpenAI {
		results = append(results, CheckOpenAI(ctx, cfg.Models.OpenAIBaseURL, cfg.Models.OpenAIAPIKey, cfg.Models.OpenAIModel))
	}
	return results
}

// Run collects checks and dependency status into one Report.
func Run(ctx context.Context, cfg *config.Config) Report {
	report := Report{Mode: config.ModeML}
	if cfg == nil {
		return report
	}
	if cfg.HeuristicMode() {
		report.Mode = config.ModeHeuristic
	}
	report.Checks = RunAll(ctx, cfg)
	report.Dependencies = CheckSystemDeps(ctx, cfg)
	return report
}
