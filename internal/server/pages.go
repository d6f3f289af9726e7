package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"accentscope/internal/accent"
	"accentscope/internal/analysis"
	"accentscope/internal/language"
	"accentscope/internal/logging"
	"accentscope/internal/services"
)

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	index *template.Template
}

func loadPages() (*pages, error) {
	index, err := template.ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &pages{index: index}, nil
}

type pageData struct {
	URL     string
	Mode    string
	Error   string
	Reasons []string
	Result  *resultView
}

type resultView struct {
	RequestID        string
	IsEnglish        bool
	Language         string
	LangConfidence   string
	Strategy         string
	Accent           string
	AccentConfidence string
	AccentBand       string
	AccentNote       string
	Verdict          string
	VerdictNote      string
	Supported        string
}

var accentNotes = map[string]string{
	analysis.BandHigh:     "High confidence accent prediction",
	analysis.BandModerate: "Moderate confidence accent prediction",
	analysis.BandLow:      "Low confidence accent prediction; results may be unreliable",
}

var verdictNotes = map[string]string{
	analysis.VerdictSpeaksEnglish:       "Suitable for English-speaking roles",
	analysis.VerdictLikelySpeaksEnglish: "May need additional assessment",
	analysis.VerdictUncertain:           "Recommend manual review or additional testing",
	analysis.VerdictNotEnglish:          "Provide a video with clear English speech for accent analysis",
}

var failureReasons = map[string][]string{
	"download_failed": {
		"URL is not a direct link to a video file",
		"Video is behind authentication or login",
		"Server is blocking requests",
		"URL is incorrect or the video does not exist",
	},
	"extraction_failed": {
		"Video file is corrupted",
		"Video format not supported",
		"Video has no audio track",
		"FFmpeg is not properly installed",
	},
}

func newResultView(report *analysis.Report) *resultView {
	outcome := report.Outcome
	view := &resultView{
		RequestID:      report.RequestID,
		IsEnglish:      outcome.IsEnglish,
		Language:       "English",
		LangConfidence: fmt.Sprintf("%.1f%%", outcome.LangConfidence),
		Strategy:       outcome.LanguageStrategy,
		Verdict:        report.Verdict,
		VerdictNote:    verdictNotes[report.Verdict],
	}
	if !outcome.IsEnglish {
		view.Language = language.DisplayName(outcome.Language)
		return view
	}
	view.Accent = outcome.AccentLabel()
	view.AccentConfidence = fmt.Sprintf("%.1f%%", outcome.AccentScore())
	view.AccentBand = report.AccentBand
	view.AccentNote = accentNotes[report.AccentBand]
	view.Supported = strings.Join(accent.SupportedNames(), ", ")
	return view
}

func (s *Server) render(w http.ResponseWriter, status int, data pageData) {
	data.Mode = s.runner.Mode()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.pages.index.Execute(w, data); err != nil {
		s.logger.Error("template render failed", logging.Error(err))
	}
}

func (s *Server) formDisabled(w http.ResponseWriter) bool {
	if s.token == "" {
		return false
	}
	http.Error(w, "web form disabled while an API token is configured; use POST /api/analyze", http.StatusForbidden)
	return true
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	if s.formDisabled(w) {
		return
	}
	s.render(w, http.StatusOK, pageData{})
}

func (s *Server) handleFormAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.formDisabled(w) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, pageData{Error: "Could not read the submitted form."})
		return
	}
	rawURL := strings.TrimSpace(r.PostForm.Get("url"))
	if rawURL == "" {
		s.render(w, http.StatusBadRequest, pageData{Error: "Please enter a video URL."})
		return
	}

	report, err := s.runner.Run(r.Context(), rawURL)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logFailure(r, rawURL, err)
		kind := analysis.ErrorKind(err)
		s.render(w, services.HTTPStatus(err), pageData{
			URL:     rawURL,
			Error:   userMessage(err),
			Reasons: failureReasons[kind],
		})
		return
	}
	s.render(w, http.StatusOK, pageData{URL: rawURL, Result: newResultView(report)})
}
