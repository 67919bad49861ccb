// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire downloads the PDF or source archive of arXiv papers.
package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-engine/internal/httputil"
	"github.com/pdiddy/arxiv-engine/pkg/types"
)

// Kind selects which artifact of a paper is downloaded.
type Kind int

const (
	KindPDF Kind = iota
	KindSource
)

func (k Kind) String() string {
	if k == KindSource {
		return "source"
	}
	return "pdf"
}

// Extension returns the file extension used for the kind.
func (k Kind) Extension() string {
	if k == KindSource {
		return ".tar.gz"
	}
	return ".pdf"
}

// ParseKind parses "pdf" or "source".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pdf":
		return KindPDF, nil
	case "source", "src":
		return KindSource, nil
	default:
		return KindPDF, fmt.Errorf("unknown download kind %q (want pdf or source)", s)
	}
}

// nonWord matches characters replaced in default filenames.
var nonWord = regexp.MustCompile(`[^\w]`)

// DefaultFilename returns "<short id>.<title>.<ext>" with path separators
// and non-word characters replaced by underscores.
func DefaultFilename(p types.Paper, kind Kind) string {
	title := p.Title
	if title == "" {
		title = "UNTITLED"
	}
	id := strings.ReplaceAll(p.ShortID(), "/", "_")
	return id + "." + nonWord.ReplaceAllString(title, "_") + kind.Extension()
}

// URL returns the artifact URL of p for kind, or "" if the record has no
// PDF link.
func URL(p types.Paper, kind Kind) string {
	if kind == KindSource {
		return p.SourceURL()
	}
	return p.PDFURL()
}

// Download fetches the artifact of p into dir and returns the written path.
// An empty filename selects DefaultFilename. The file appears only once
// the body has been fully written.
func Download(ctx context.Context, client *http.Client, p types.Paper, kind Kind, dir, filename string, cfg types.HTTPConfig) (string, error) {
	src := URL(p, kind)
	if src == "" {
		return "", fmt.Errorf("paper %s has no %s link", p.ID, kind)
	}
	if filename == "" {
		filename = DefaultFilename(p, kind)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating directory %s: %w", dir, err)
	}

	dest := filepath.Join(dir, filename)
	if err := downloadFile(ctx, client, src, dest, kind, cfg); err != nil {
		return "", fmt.Errorf("downloading %s: %w", p.ID, err)
	}
	return dest, nil
}

// BatchResult holds the outcome of a batch download run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Paths      []string
}

// Total returns the total number of papers processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any papers failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// DownloadBatch downloads each paper with default filenames, skipping files
// that already exist. It continues after individual failures and waits
// cfg.Delay on clock between consecutive downloads. A nil clock means the
// system clock.
func DownloadBatch(ctx context.Context, client *http.Client, papers []types.Paper, kind Kind, cfg types.DownloadConfig, clock httputil.Clock, logger *zap.Logger) BatchResult {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = httputil.SystemClock{}
	}

	var result BatchResult
	fetched := 0
	for _, p := range papers {
		dest := filepath.Join(cfg.Dir, DefaultFilename(p, kind))
		if _, err := os.Stat(dest); err == nil {
			logger.Info("skipped download, file exists", zap.String("id", p.ID), zap.String("path", dest))
			result.Skipped++
			result.Paths = append(result.Paths, dest)
			continue
		}

		if fetched > 0 && cfg.Delay > 0 {
			if err := clock.Sleep(ctx, cfg.Delay); err != nil {
				result.Failed += len(papers) - result.Total()
				return result
			}
		}
		fetched++

		path, err := Download(ctx, client, p, kind, cfg.Dir, "", cfg.HTTPConfig)
		if err != nil {
			logger.Warn("download failed", zap.String("id", p.ID), zap.Error(err))
			result.Failed++
			continue
		}
		logger.Info("downloaded", zap.String("id", p.ID), zap.String("kind", kind.String()), zap.String("path", path))
		result.Downloaded++
		result.Paths = append(result.Paths, path)
	}
	return result
}

// downloadFile fetches url to destPath through a temporary file in the same
// directory. HTTP 429 and 503 are retried with backoff.
func downloadFile(ctx context.Context, client *http.Client, url, destPath string, kind Kind, cfg types.HTTPConfig) error {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	if kind == KindPDF {
		req.Header.Set("Accept", "application/pdf")
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
