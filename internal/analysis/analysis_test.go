package analysis_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"accentscope/internal/accent"
	"accentscope/internal/analysis"
	"accentscope/internal/fetch"
	"accentscope/internal/heuristic"
	"accentscope/internal/langid"
	"accentscope/internal/logging"
	"accentscope/internal/media/extract"
	"accentscope/internal/media/ffprobe"
	"accentscope/internal/services"
	"accentscope/internal/services/speechbrain"
)

type fixedLanguage struct {
	result langid.Result
	calls  int
}

func (f *fixedLanguage) Detect(context.Context, string) langid.Result {
	f.calls++
	return f.result
}

type fixedAccent struct {
	result accent.Result
	calls  int
}

func (f *fixedAccent) Classify(context.Context, string) accent.Result {
	f.calls++
	return f.result
}

type stubModel struct {
	prediction speechbrain.Prediction
	err        error
}

func (s stubModel) Classify(context.Context, string) (speechbrain.Prediction, error) {
	return s.prediction, s.err
}

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("RIFF....WAVE"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAnalyzeEnglishRunsAccent(t *testing.T) {
	lang := &fixedLanguage{result: langid.Result{Label: "en: english", Confidence: 91.3, Strategy: langid.StrategyEmbedding}}
	acc := &fixedAccent{result: accent.Result{Label: "American", Confidence: 95, Source: accent.SourceModel}}
	analyzer := analysis.NewAnalyzer(lang, acc, logging.NewNop())

	outcome, err := analyzer.Analyze(context.Background(), writeFile(t, t.TempDir(), "audio.wav"))
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if !outcome.IsEnglish || outcome.Language != "English" || outcome.LangConfidence != 91.3 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if outcome.AccentLabel() != "American" || outcome.AccentScore() != 95 || outcome.RawLanguage != "en: english" {
		t.Fatalf("unexpected accent fields %+v", outcome)
	}
	if acc.calls != 1 {
		t.Fatalf("expected accent classifier called once, got %d", acc.calls)
	}
}

func TestAnalyzeNonEnglishSkipsAccent(t *testing.T) {
	lang := &fixedLanguage{result: langid.Result{Label: "fr: french", Confidence: 88, Strategy: langid.StrategyEmbedding}}
	acc := &fixedAccent{}
	analyzer := analysis.NewAnalyzer(lang, acc, logging.NewNop())

	outcome, err := analyzer.Analyze(context.Background(), writeFile(t, t.TempDir(), "audio.wav"))
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	// "fr: french" contains "en", so the permissive gate accepts it.
	if !outcome.IsEnglish {
		t.Fatalf("expected substring gate to accept %q", outcome.RawLanguage)
	}

	lang.result = langid.Result{Label: "es: spanish", Confidence: 88, Strategy: langid.StrategyEmbedding}
	acc.calls = 0
	outcome, err = analyzer.Analyze(context.Background(), writeFile(t, t.TempDir(), "audio.wav"))
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if outcome.IsEnglish || outcome.Language != "es: spanish" || outcome.Accent != nil || outcome.AccentConfidence != nil {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if acc.calls != 0 {
		t.Fatalf("accent classifier should not run, got %d calls", acc.calls)
	}

	payload, err := json.Marshal(outcome)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(payload), `"accent":null`) || !strings.Contains(string(payload), `"accent_confidence":null`) {
		t.Fatalf("expected null accent fields in %s", payload)
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	analyzer := analysis.NewAnalyzer(&fixedLanguage{}, &fixedAccent{}, nil)
	_, err := analyzer.Analyze(context.Background(), filepath.Join(t.TempDir(), "missing.wav"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBandsAndVerdict(t *testing.T) {
	if analysis.Band(80) != analysis.BandHigh || analysis.Band(79.9) != analysis.BandModerate || analysis.Band(59.9) != analysis.BandLow {
		t.Fatal("unexpected band boundaries")
	}
	tests := []struct {
		outcome analysis.Outcome
		want    string
	}{
		{analysis.Outcome{IsEnglish: true, LangConfidence: 91.3}, analysis.VerdictSpeaksEnglish},
		{analysis.Outcome{IsEnglish: true, LangConfidence: 70}, analysis.VerdictLikelySpeaksEnglish},
		{analysis.Outcome{IsEnglish: true, LangConfidence: 40}, analysis.VerdictUncertain},
		{analysis.Outcome{IsEnglish: false, LangConfidence: 99}, analysis.VerdictNotEnglish},
	}
	for _, tt := range tests {
		if got := analysis.Verdict(tt.outcome); got != tt.want {
			t.Errorf("Verdict(%+v) = %q, want %q", tt.outcome, got, tt.want)
		}
	}
}

func TestValidateURL(t *testing.T) {
	for _, bad := range []string{"", "   ", "ftp://example.com/a.mp4", "/local/path.mp4", "https://"} {
		if err := analysis.ValidateURL(bad); !errors.Is(err, services.ErrValidation) {
			t.Errorf("ValidateURL(%q) = %v, want validation error", bad, err)
		}
	}
	if err := analysis.ValidateURL("https://example.com/video.mp4"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}

// newRealPipeline wires the real fetcher, extractor, chain and accent
// classifier; only ffmpeg and the models are stubbed.
func newRealPipeline(t *testing.T, workDir string, ffmpegErr error) *analysis.Pipeline {
	t.Helper()
	fetcher := fetch.New(fetch.Config{WorkDir: workDir}, logging.NewNop())
	extractor := extract.New(workDir, "ffmpeg", logging.NewNop())
	extractor.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		if ffmpegErr != nil {
			return ffmpegErr
		}
		return os.WriteFile(args[len(args)-1], []byte("RIFF....WAVEfmt "), 0o644)
	})

	chain := langid.NewChain(logging.NewNop(), langid.NewAcoustic(nil),
		langid.NewEmbedding(stubModel{prediction: speechbrain.Prediction{Label: "en: English", Probability: 0.913}}),
	)
	classifier := accent.New(stubModel{prediction: speechbrain.Prediction{Label: "us", Probability: 0.97}}, accent.FallbackUnavailable, logging.NewNop())
	return analysis.NewPipeline(fetcher, extractor, analysis.NewAnalyzer(chain, classifier, logging.NewNop()), logging.NewNop())
}

func videoServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.mp4" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte(strings.Repeat("v", 20000)))
	}))
	t.Cleanup(server.Close)
	return server
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected temp files removed, found %v", names)
	}
}

func TestPipelineRunEndToEnd(t *testing.T) {
	workDir := t.TempDir()
	server := videoServer(t)
	pipeline := newRealPipeline(t, workDir, nil)

	report, err := pipeline.Run(context.Background(), server.URL+"/talk.mp4")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	outcome := report.Outcome
	if !outcome.IsEnglish || outcome.Language != "English" || outcome.LanguageStrategy != langid.StrategyEmbedding {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if diff := outcome.LangConfidence - 91.3; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("unexpected language confidence %f", outcome.LangConfidence)
	}
	if outcome.AccentLabel() != "American" || outcome.AccentScore() != 95.0 {
		t.Fatalf("unexpected accent %q %.1f", outcome.AccentLabel(), outcome.AccentScore())
	}
	if report.VideoBytes != 20000 || report.RequestID == "" || report.Mode != analysis.ModeML {
		t.Fatalf("unexpected report metadata %+v", report)
	}
	if report.Verdict != analysis.VerdictSpeaksEnglish || report.AccentBand != analysis.BandHigh {
		t.Fatalf("unexpected verdict %q band %q", report.Verdict, report.AccentBand)
	}
	assertEmptyDir(t, workDir)
}

func TestPipelineRunDownloadFailure(t *testing.T) {
	workDir := t.TempDir()
	server := videoServer(t)
	pipeline := newRealPipeline(t, workDir, nil)

	_, err := pipeline.Run(context.Background(), server.URL+"/missing.mp4")
	if !errors.Is(err, analysis.ErrDownloadFailed) || !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected download failure, got %v", err)
	}
	assertEmptyDir(t, workDir)
}

func TestPipelineRunExtractionFailureCleansVideo(t *testing.T) {
	workDir := t.TempDir()
	server := videoServer(t)
	pipeline := newRealPipeline(t, workDir, errors.New("no audio stream"))

	_, err := pipeline.Run(context.Background(), server.URL+"/silent.mp4")
	if !errors.Is(err, analysis.ErrExtractionFailed) {
		t.Fatalf("expected extraction failure, got %v", err)
	}
	assertEmptyDir(t, workDir)
}

func TestPipelineKeepTemp(t *testing.T) {
	workDir := t.TempDir()
	server := videoServer(t)
	pipeline := newRealPipeline(t, workDir, nil).KeepTemp(true)

	if _, err := pipeline.Run(context.Background(), server.URL+"/talk.mp4"); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	entries, err := os.ReadDir(workDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected video and audio kept, found %d entries", len(entries))
	}
}

func TestPipelineRunFileUsesSpeechWAVDirectly(t *testing.T) {
	workDir := t.TempDir()
	source := writeFile(t, t.TempDir(), "speech.wav")
	extractions := 0
	lang := &fixedLanguage{result: langid.Result{Label: "en", Confidence: 89, Strategy: langid.StrategyTranscript}}
	acc := &fixedAccent{result: accent.Result{Label: "Irish", Confidence: 70, Source: accent.SourceModel}}
	extractor := extract.New(workDir, "ffmpeg", logging.NewNop())
	extractor.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		extractions++
		return os.WriteFile(args[len(args)-1], []byte("RIFF"), 0o644)
	})
	pipeline := analysis.NewPipeline(nil, extractor, analysis.NewAnalyzer(lang, acc, nil), nil)

	speech := ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "audio", CodecName: "pcm_s16le", Channels: 1, SampleRate: "16000"}}, Format: ffprobe.Format{FormatName: "wav"}}
	pipeline.WithProber(func(context.Context, string) (ffprobe.Result, error) { return speech, nil })

	report, err := pipeline.RunFile(context.Background(), source)
	if err != nil {
		t.Fatalf("RunFile returned error: %v", err)
	}
	if extractions != 0 || report.Outcome.AccentLabel() != "Irish" || report.Source != source {
		t.Fatalf("unexpected report %+v (extractions=%d)", report, extractions)
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("source file must be preserved: %v", err)
	}

	pipeline.WithProber(func(context.Context, string) (ffprobe.Result, error) {
		return ffprobe.Result{}, errors.New("not media")
	})
	if _, err := pipeline.RunFile(context.Background(), source); err != nil {
		t.Fatalf("RunFile returned error: %v", err)
	}
	if extractions != 1 {
		t.Fatalf("expected one extraction, got %d", extractions)
	}
	assertEmptyDir(t, workDir)
}

type fixedGuesser struct{}

func (fixedGuesser) Language(string) langid.Result {
	return langid.Result{Label: "en", Confidence: 82.5, Strategy: "url-heuristic"}
}

func (fixedGuesser) Accent(string) accent.Result {
	return accent.Result{Label: "Canadian", Confidence: 71, Source: "url-heuristic"}
}

func TestHeuristicPipelineSkipsDownload(t *testing.T) {
	pipeline := analysis.NewHeuristicPipeline(fixedGuesser{}, logging.NewNop())
	report, err := pipeline.Run(context.Background(), "https://cbc.ca/clip.mp4")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Mode != analysis.ModeHeuristic || report.Outcome.AccentLabel() != "Canadian" || report.Outcome.Language != "English" {
		t.Fatalf("unexpected report %+v", report)
	}
	if _, err := pipeline.RunFile(context.Background(), "/tmp/x.wav"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestHeuristicPipelineReportsNonEnglish(t *testing.T) {
	pipeline := analysis.NewHeuristicPipeline(heuristic.New(rand.New(rand.NewPCG(3, 5))), logging.NewNop())

	report, err := pipeline.Run(context.Background(), "https://example.com/french/clip.mp4")
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Outcome.IsEnglish || report.Outcome.Accent != nil || report.Verdict != analysis.VerdictNotEnglish {
		t.Fatalf("french url reported as English: %+v", report.Outcome)
	}

	var notEnglish int
	for range 200 {
		report, err := pipeline.Run(context.Background(), "https://example.com/video.mp4")
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		if !report.Outcome.IsEnglish {
			notEnglish++
			if report.Outcome.Accent != nil {
				t.Fatalf("non-English outcome carries an accent: %+v", report.Outcome)
			}
		}
	}
	if notEnglish == 0 {
		t.Fatal("unhinted urls never produced a non-English outcome")
	}
}
