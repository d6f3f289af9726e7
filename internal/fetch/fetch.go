package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"accentscope/internal/logging"
	"accentscope/internal/services"
)

const (
	// DefaultUserAgent identifies downloads as a desktop browser; some hosts
	// refuse requests without one.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultTimeout   = 30 * time.Second

	chunkSize = 8192
)

// Config describes fetcher construction parameters.
type Config struct {
	WorkDir    string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Result describes a downloaded video file owned by the caller.
type Result struct {
	Path        string
	Size        int64
	ContentType string
}

// Fetcher streams remote videos to disk.
type Fetcher struct {
	workDir   string
	userAgent string
	timeout   time.Duration
	client    *http.Client
	logger    *slog.Logger
}

// New constructs a Fetcher. Zero values in cfg fall back to package defaults.
func New(cfg Config, logger *slog.Logger) *Fetcher {
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	workDir := strings.TrimSpace(cfg.WorkDir)
	if workDir == "" {
		workDir = os.TempDir()
	}
	return &Fetcher{
		workDir:   workDir,
		userAgent: userAgent,
		timeout:   timeout,
		client:    client,
		logger:    logging.NewComponentLogger(logger, "fetch"),
	}
}

// Fetch downloads rawURL into a new temp file. A nil Result with a nil error
// means the download failed and no file remains on disk.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	logger := logging.WithContext(ctx, f.logger)

	if err := os.MkdirAll(f.workDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "fetch", "prepare work dir", f.workDir, err)
	}
	dest := filepath.Join(f.workDir, "video-"+uuid.NewString()+".mp4")
	file, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "fetch", "create temp file", dest, err)
	}

	started := time.Now()
	size, contentType, err := f.download(ctx, rawURL, file)
	closeErr := file.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("close temp file: %w", closeErr)
	}
	if err == nil && size == 0 {
		err = errors.New("response body was empty")
	}
	if err != nil {
		_ = os.Remove(dest)
		logging.WarnWithContext(logger, "video download failed", "download_failed",
			logging.String("url", rawURL),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify the URL points directly at a public video file"),
			logging.String(logging.FieldImpact, "analysis cannot run for this request"),
		)
		return nil, nil
	}

	logger.Info("video downloaded",
		logging.String("path", dest),
		logging.String("size", humanize.Bytes(uint64(size))),
		logging.Duration("elapsed", time.Since(started)),
		logging.String(logging.FieldEventType, "download_complete"),
	)
	return &Result{Path: dest, Size: size, ContentType: contentType}, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string, dst io.Writer) (int64, string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(rawURL), nil)
	if err != nil {
		return 0, "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return 0, "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	buf := make([]byte, chunkSize)
	written, err := io.CopyBuffer(dst, resp.Body, buf)
	if err != nil {
		return written, "", fmt.Errorf("read body: %w", err)
	}
	return written, resp.Header.Get("Content-Type"), nil
}
