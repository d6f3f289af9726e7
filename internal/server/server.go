package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"accentscope/internal/analysis"
	"accentscope/internal/logging"
	"accentscope/internal/preflight"
	"accentscope/internal/services"
)

const maxRequestBody = 1 << 20

// Runner is satisfied by *analysis.Pipeline.
type Runner interface {
	Run(ctx context.Context, rawURL string) (*analysis.Report, error)
	Mode() string
}

// StatusFunc produces the dependency report for /api/status.
type StatusFunc func(ctx context.Context) preflight.Report

// Options configures a Server.
type Options struct {
	Bind     string
	APIToken string
	Runner   Runner
	Status   StatusFunc
	Logger   *slog.Logger
}

// Server serves the form UI and the JSON API.
type Server struct {
	bind   string
	token  string
	runner Runner
	status StatusFunc
	logger *slog.Logger
	pages  *pages

	listener net.Listener
	server   *http.Server
}

// New constructs a Server. It does not start listening.
func New(opts Options) (*Server, error) {
	if opts.Runner == nil {
		return nil, errors.New("server: runner is required")
	}
	tmpl, err := loadPages()
	if err != nil {
		return nil, err
	}
	s := &Server{
		bind:   strings.TrimSpace(opts.Bind),
		token:  strings.TrimSpace(opts.APIToken),
		runner: opts.Runner,
		status: opts.Status,
		logger: logging.NewComponentLogger(opts.Logger, "api-server"),
		pages:  tmpl,
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// first-run model downloads can take minutes
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /analyze", s.handleFormAnalyze)
	mux.HandleFunc("POST /api/analyze", authMiddleware(s.token, s.handleAPIAnalyze))
	mux.HandleFunc("GET /api/status", authMiddleware(s.token, s.handleStatus))
	return mux
}

// Serve listens on the configured bind address until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("mode", s.runner.Mode()),
		logging.Bool("auth", s.token != ""),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api shutdown: %w", err)
		}
		return nil
	}
}

// Addr returns the bound address once Serve is listening.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

type analyzeRequest struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) handleAPIAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := decoder.Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "request body must be JSON: {\"url\": \"...\"}")
		return
	}
	report, err := s.runner.Run(r.Context(), req.URL)
	if err != nil {
		s.logFailure(r, req.URL, err)
		writeJSON(w, services.HTTPStatus(err), errorResponse{Error: userMessage(err), Kind: analysis.ErrorKind(err)})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if s.status == nil {
		writeJSON(w, http.StatusOK, preflight.Report{Mode: s.runner.Mode()})
		return
	}
	writeJSON(w, http.StatusOK, s.status(r.Context()))
}

func (s *Server) logFailure(r *http.Request, rawURL string, err error) {
	attrs := []logging.Attr{
		logging.String("url", rawURL),
		logging.Error(err),
		logging.Int("status", services.HTTPStatus(err)),
	}
	if errors.Is(err, services.ErrValidation) {
		s.logger.Info("analysis request rejected", logging.Args(attrs...)...)
		return
	}
	logging.WarnWithContext(s.logger, "analysis request failed", "request_failed",
		append(attrs,
			logging.String("remote", r.RemoteAddr),
			logging.String(logging.FieldImpact, "client received an error response"),
		)...)
}

// userMessage keeps responses free of local paths and tool output.
func userMessage(err error) string {
	switch {
	case errors.Is(err, analysis.ErrDownloadFailed):
		return "Video download failed. The URL must point directly at a publicly reachable video file."
	case errors.Is(err, analysis.ErrExtractionFailed):
		return "Audio extraction failed. The file may be corrupted, unsupported, or have no audio track."
	case errors.Is(err, services.ErrValidation):
		return "A valid http(s) video URL is required."
	case errors.Is(err, context.Canceled), errors.Is(err, services.ErrTimeout):
		return "The analysis was cancelled or timed out."
	default:
		return "Analysis failed. Check the server logs for details."
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
