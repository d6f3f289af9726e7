package analysis

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"accentscope/internal/accent"
	"accentscope/internal/fetch"
	"accentscope/internal/langid"
	"accentscope/internal/logging"
	"accentscope/internal/media/extract"
	"accentscope/internal/media/ffprobe"
	"accentscope/internal/services"
)

// User-facing request failures. Both wrap services.ErrExternalTool.
var (
	ErrDownloadFailed   = errors.New("video download failed")
	ErrExtractionFailed = errors.New("audio extraction failed")
)

// Failure kinds reported to API and CLI clients.
const (
	KindDownloadFailed   = "download_failed"
	KindExtractionFailed = "extraction_failed"
	KindInvalidRequest   = "invalid_request"
	KindAnalysisFailed   = "analysis_failed"
)

// ErrorKind classifies a Run or RunFile error for clients.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrDownloadFailed):
		return KindDownloadFailed
	case errors.Is(err, ErrExtractionFailed):
		return KindExtractionFailed
	case errors.Is(err, services.ErrValidation):
		return KindInvalidRequest
	default:
		return KindAnalysisFailed
	}
}

// Modes reported in Report.Mode.
const (
	ModeML        = "ml"
	ModeHeuristic = "heuristic"
)

// Fetcher is satisfied by *fetch.Fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Result, error)
}

// Extractor is satisfied by *extract.Extractor.
type Extractor interface {
	Extract(ctx context.Context, videoPath string) (*extract.Result, error)
}

// Prober inspects a local media file.
type Prober func(ctx context.Context, path string) (ffprobe.Result, error)

// Guesser is satisfied by *heuristic.Guesser.
type Guesser interface {
	Language(rawURL string) langid.Result
	Accent(rawURL string) accent.Result
}

// Pipeline runs whole requests. Each request owns its temp files.
type Pipeline struct {
	fetcher   Fetcher
	extractor Extractor
	analyzer  *Analyzer
	guesser   Guesser
	prober    Prober
	keepTemp  bool
	logger    *slog.Logger
}

// NewPipeline builds the model-backed pipeline.
func NewPipeline(fetcher Fetcher, extractor Extractor, analyzer *Analyzer, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		extractor: extractor,
		analyzer:  analyzer,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
}

// NewHeuristicPipeline builds a pipeline that answers from the URL alone.
func NewHeuristicPipeline(guesser Guesser, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		guesser: guesser,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
	}
}

// WithProber lets RunFile analyze speech WAVs without re-extracting them.
func (p *Pipeline) WithProber(prober Prober) *Pipeline {
	p.prober = prober
	return p
}

// KeepTemp leaves downloaded and extracted files in place for debugging.
func (p *Pipeline) KeepTemp(keep bool) *Pipeline {
	p.keepTemp = keep
	return p
}

// Mode reports which stack answers requests.
func (p *Pipeline) Mode() string {
	if p.guesser != nil {
		return ModeHeuristic
	}
	return ModeML
}

// ValidateURL rejects anything that is not an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return services.Wrap(services.ErrValidation, "request", "validate url", "url is required", nil)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return services.Wrap(services.ErrValidation, "request", "validate url", "url is not parseable", err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return services.Wrap(services.ErrValidation, "request", "validate url", "url must be an absolute http(s) URL", nil)
	}
	return nil
}

// Run analyzes the video at rawURL.
func (p *Pipeline) Run(ctx context.Context, rawURL string) (*Report, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}
	requestID := uuid.NewString()
	ctx = services.WithRequestID(ctx, requestID)
	logger := logging.WithContext(ctx, p.logger)
	started := time.Now()
	logger.Info("analysis started",
		logging.String("url", rawURL),
		logging.String("mode", p.Mode()),
		logging.String(logging.FieldEventType, "request_start"),
	)

	if p.guesser != nil {
		detected := p.guesser.Language(rawURL)
		outcome := compose(logger, detected, func() accent.Result { return p.guesser.Accent(rawURL) })
		report := newReport(requestID, ModeHeuristic, outcome, started)
		report.URL = rawURL
		p.logCompleted(logger, report)
		return report, nil
	}

	var tempFiles []string
	defer func() { p.cleanup(logger, tempFiles) }()

	fetchCtx := services.WithStage(ctx, "fetch")
	video, err := p.fetcher.Fetch(fetchCtx, rawURL)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, services.Wrap(services.ErrExternalTool, "fetch", "download", "", ErrDownloadFailed)
	}
	tempFiles = append(tempFiles, video.Path)

	audio, err := p.extract(ctx, video.Path)
	if err != nil {
		return nil, err
	}
	tempFiles = append(tempFiles, audio.Path)

	outcome, err := p.analyzer.Analyze(ctx, audio.Path)
	if err != nil {
		return nil, err
	}
	report := newReport(requestID, ModeML, outcome, started)
	report.URL = rawURL
	report.VideoBytes = video.Size
	report.AudioBytes = audio.Size
	p.logCompleted(logger, report)
	return report, nil
}

// RunFile analyzes a local file. Speech WAVs (mono, 16 kHz, 16-bit) are
// used as-is; anything else is extracted to a temp WAV first.
func (p *Pipeline) RunFile(ctx context.Context, path string) (*Report, error) {
	if p.analyzer == nil {
		return nil, services.Wrap(services.ErrConfiguration, "request", "analyze file", "local files require the model pipeline", nil)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "request", "analyze file", path, err)
	}
	requestID := uuid.NewString()
	ctx = services.WithRequestID(ctx, requestID)
	logger := logging.WithContext(ctx, p.logger)
	started := time.Now()

	var tempFiles []string
	defer func() { p.cleanup(logger, tempFiles) }()

	audioPath, audioBytes := path, info.Size()
	if !p.isSpeechWAV(ctx, logger, path) {
		audio, err := p.extract(ctx, path)
		if err != nil {
			return nil, err
		}
		tempFiles = append(tempFiles, audio.Path)
		audioPath, audioBytes = audio.Path, audio.Size
	}

	outcome, err := p.analyzer.Analyze(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	report := newReport(requestID, ModeML, outcome, started)
	report.Source = path
	report.AudioBytes = audioBytes
	if audioPath != path {
		report.VideoBytes = info.Size()
	}
	p.logCompleted(logger, report)
	return report, nil
}

func (p *Pipeline) extract(ctx context.Context, videoPath string) (*extract.Result, error) {
	audio, err := p.extractor.Extract(services.WithStage(ctx, "extract"), videoPath)
	if err != nil {
		return nil, err
	}
	if audio == nil {
		return nil, services.Wrap(services.ErrExternalTool, "extract", "ffmpeg", "", ErrExtractionFailed)
	}
	return audio, nil
}

func (p *Pipeline) isSpeechWAV(ctx context.Context, logger *slog.Logger, path string) bool {
	if p.prober == nil {
		return false
	}
	probe, err := p.prober(ctx, path)
	if err != nil {
		logger.Debug("probe failed; extracting audio", logging.String("path", path), logging.Error(err))
		return false
	}
	return probe.IsSpeechWAV()
}

func (p *Pipeline) cleanup(logger *slog.Logger, paths []string) {
	if p.keepTemp {
		if len(paths) > 0 {
			logger.Info("temp files kept", logging.Any("paths", paths))
		}
		return
	}
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.WarnWithContext(logger, "temp file cleanup failed", "cleanup_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run `accentscope clean` to sweep leftovers"),
				logging.String(logging.FieldImpact, "disk space is not reclaimed until the next sweep"),
			)
			continue
		}
		logger.Debug("temp file removed", logging.String("path", path))
	}
}

func (p *Pipeline) logCompleted(logger *slog.Logger, report *Report) {
	logger.Info("analysis completed",
		logging.Bool("is_english", report.Outcome.IsEnglish),
		logging.String("language", report.Outcome.Language),
		logging.Float64("lang_confidence", report.Outcome.LangConfidence),
		logging.String("accent", report.Outcome.AccentLabel()),
		logging.String("verdict", report.Verdict),
		logging.Duration("elapsed", report.Duration),
		logging.String(logging.FieldEventType, "request_complete"),
	)
}
