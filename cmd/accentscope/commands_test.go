package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"accentscope/internal/analysis"
	"accentscope/internal/heuristic"
	"accentscope/internal/testsupport"
)

func TestConfigInitWritesSampleOnce(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample not written: %v", err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateReportsPathAndMode(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHeuristicMode())

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, env.configPath)
	requireContains(t, out, "Mode: heuristic")
	requireContains(t, out, "Configuration valid")
}

func TestConfigValidateRejectsBadMode(t *testing.T) {
	env := setupCLITestEnv(t)
	content := "[models]\nmode = \"guess\"\n"
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, env.configPath); err == nil {
		t.Fatal("expected invalid mode to fail")
	}
}

func TestAnalyzeHeuristicJSON(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHeuristicMode())

	out, _, err := runCLI(t, []string{"analyze", "https://videos.example.com/en/us/keynote.mp4", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var report analysis.Report
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.Mode != analysis.ModeHeuristic {
		t.Fatalf("mode = %q", report.Mode)
	}
	if !report.Outcome.IsEnglish || report.Outcome.Language != "English" {
		t.Fatalf("expected English outcome, got %+v", report.Outcome)
	}
	if report.Outcome.AccentLabel() != "American" {
		t.Fatalf("accent = %q", report.Outcome.AccentLabel())
	}
	if report.Outcome.LanguageStrategy != heuristic.StrategyURL {
		t.Fatalf("strategy = %q", report.Outcome.LanguageStrategy)
	}
	if report.Outcome.LangConfidence < 75 || report.Outcome.LangConfidence > 95 {
		t.Fatalf("hinted confidence out of range: %v", report.Outcome.LangConfidence)
	}
}

func TestAnalyzeHeuristicText(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHeuristicMode())

	out, _, err := runCLI(t, []string{"analyze", "https://example.com/english/british/interview.mp4"}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, out, "== Analysis ==")
	requireContains(t, out, "Verdict:")
	requireContains(t, out, "British (England)")
	requireContains(t, out, "url-heuristic")
}

func TestAnalyzeModeFlagOverridesConfig(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"analyze", "https://example.com/en/talk.mp4", "--mode", "heuristic", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, out, `"mode": "heuristic"`)

	if _, _, err := runCLI(t, []string{"analyze", "https://example.com/a.mp4", "--mode", "guess"}, env.configPath); err == nil {
		t.Fatal("expected unknown mode to fail")
	}
}

func TestAnalyzeRejectsInvalidURL(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHeuristicMode())

	if _, _, err := runCLI(t, []string{"analyze", "ftp://example.com/video.mp4"}, env.configPath); err == nil {
		t.Fatal("expected ftp url to be rejected")
	}
	if _, _, err := runCLI(t, []string{"analyze"}, env.configPath); err == nil {
		t.Fatal("expected missing url to be rejected")
	}
}

func TestAnalyzeFileRequiresModelPipeline(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHeuristicMode())
	input := filepath.Join(t.TempDir(), "clip.wav")
	testsupport.WriteTone(t, input, 440, 1)

	if _, _, err := runCLI(t, []string{"analyze-file", input}, env.configPath); err == nil {
		t.Fatal("expected heuristic mode to refuse local files")
	}
	if _, _, err := runCLI(t, []string{"analyze-file", filepath.Join(t.TempDir(), "missing.wav")}, env.configPath); err == nil {
		t.Fatal("expected missing file to fail")
	}
}

func TestCleanRemovesArtifactsOnly(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHeuristicMode())
	work := env.cfg.Paths.WorkDir
	testsupport.WriteFile(t, filepath.Join(work, "video-abc.mp4"), 64)
	testsupport.WriteFile(t, filepath.Join(work, "audio-abc.wav"), 32)
	keep := filepath.Join(work, "notes.txt")
	testsupport.WriteFile(t, keep, 8)

	out, _, err := runCLI(t, []string{"clean", "--dry-run", "--max-age", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("clean --dry-run: %v", err)
	}
	requireContains(t, out, "video-abc.mp4")
	if _, err := os.Stat(filepath.Join(work, "video-abc.mp4")); err != nil {
		t.Fatal("dry run removed a file")
	}

	out, _, err = runCLI(t, []string{"clean", "--max-age", "0"}, env.configPath)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	requireContains(t, out, "Removed 2 temp file(s)")
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("non-artifact removed: %v", err)
	}
}

func TestStatusHeuristicModeIsReady(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHeuristicMode())

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	requireContains(t, out, "== Configuration ==")
	requireContains(t, out, "heuristic")
	requireContains(t, out, "Work directory")
	requireContains(t, out, "American")
}

func TestStatusJSON(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithHeuristicMode())

	out, _, err := runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status --json: %v", err)
	}
	var payload struct {
		Mode   string `json:"mode"`
		Checks []struct {
			Name   string `json:"name"`
			Passed bool   `json:"passed"`
		} `json:"checks"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Mode != "heuristic" || len(payload.Checks) == 0 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestCacheShowEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"cache", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("cache show: %v", err)
	}
	requireContains(t, out, "No models have been used yet")
	requireContains(t, out, "Total")

	out, _, err = runCLI(t, []string{"cache", "clear", "--yes"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Freed")
}
