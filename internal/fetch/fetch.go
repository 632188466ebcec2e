// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads discovered documents into the local download
// directory. Files already present are never fetched or overwritten.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"
	"golang.org/x/time/rate"

	"github.com/pdiddy/guideline-chunker/internal/httputil"
	"github.com/pdiddy/guideline-chunker/internal/report"
	"github.com/pdiddy/guideline-chunker/pkg/types"
)

// MetadataDir is the subdirectory of the download directory holding one
// YAML sidecar per fetched file.
const MetadataDir = "metadata"

// ErrNoFilename is returned for locators without a usable final path segment.
var ErrNoFilename = errors.New("locator has no filename")

// Status is the outcome class of a single fetch.
type Status string

const (
	StatusFetched Status = "fetched"
	StatusSkipped Status = "skipped"
	StatusBlocked Status = "blocked"
	StatusFailed  Status = "failed"
)

// Outcome describes what happened to one locator. Path is set for
// StatusFetched and StatusSkipped; Err is set for StatusBlocked and
// StatusFailed.
type Outcome struct {
	Locator string
	Path    string
	Status  Status
	Err     error
}

// OK reports whether the document is available locally after the fetch.
func (o Outcome) OK() bool {
	return o.Status == StatusFetched || o.Status == StatusSkipped
}

// BatchResult holds the outcome of a batch fetch run.
type BatchResult struct {
	Fetched  int
	Skipped  int
	Blocked  int
	Failed   int
	Outcomes []Outcome
}

// Total returns the total number of locators processed.
func (r BatchResult) Total() int {
	return r.Fetched + r.Skipped + r.Blocked + r.Failed
}

// Paths returns the local paths of every locator that ended up on disk.
func (r BatchResult) Paths() []string {
	var paths []string
	for _, o := range r.Outcomes {
		if o.OK() {
			paths = append(paths, o.Path)
		}
	}
	return paths
}

// Filename derives the local filename from the final path segment of
// locator.
func Filename(locator string) (string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("parsing locator %q: %w", locator, err)
	}
	name := path.Base(u.Path)
	switch name {
	case "", ".", "/", "..":
		return "", fmt.Errorf("%w: %s", ErrNoFilename, locator)
	}
	if name != filepath.Base(name) {
		return "", fmt.Errorf("%w: %s", ErrNoFilename, locator)
	}
	return name, nil
}

// Fetch ensures the document behind locator exists in cfg.DownloadDir.
// An existing file with the derived name is returned without any network
// activity. Otherwise up to cfg.MaxAttempts downloads are tried, each bounded
// by cfg.Timeout; a 403 ends the attempts immediately with StatusBlocked.
func Fetch(ctx context.Context, client *http.Client, locator string, cfg types.FetchConfig, rep report.Reporter) Outcome {
	rep = report.OrDiscard(rep)

	name, err := Filename(locator)
	if err != nil {
		rep.Report(report.Event{Kind: report.FetchFailed, Subject: locator, Err: err})
		return Outcome{Locator: locator, Status: StatusFailed, Err: err}
	}
	destPath := filepath.Join(cfg.DownloadDir, name)

	if _, err := os.Stat(destPath); err == nil {
		rep.Report(report.Event{Kind: report.FetchSkipped, Subject: name})
		return Outcome{Locator: locator, Path: destPath, Status: StatusSkipped}
	}

	if err := os.MkdirAll(cfg.DownloadDir, 0o755); err != nil {
		err = fmt.Errorf("creating directory %s: %w", cfg.DownloadDir, err)
		rep.Report(report.Event{Kind: report.FetchFailed, Subject: name, Err: err})
		return Outcome{Locator: locator, Status: StatusFailed, Err: err}
	}

	req, err := http.NewRequest(http.MethodGet, locator, nil)
	if err != nil {
		err = fmt.Errorf("creating request: %w", err)
		rep.Report(report.Event{Kind: report.FetchFailed, Subject: name, Err: err})
		return Outcome{Locator: locator, Status: StatusFailed, Err: err}
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")
	if cfg.Referer != "" {
		req.Header.Set("Referer", cfg.Referer)
	}

	var size int64
	policy := httputil.Policy{
		MaxAttempts: cfg.MaxAttempts,
		Delay:       cfg.RetryDelay,
		OnAttempt: func(n int) {
			rep.Report(report.Event{Kind: report.FetchAttempt, Subject: name, Count: n})
		},
		OnFailure: func(n int, err error) {
			rep.Report(report.Event{Kind: report.FetchRetry, Subject: name, Count: n, Err: err})
		},
	}
	err = httputil.Retry(ctx, policy, func(ctx context.Context) error {
		if cfg.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			defer cancel()
		}
		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			return fmt.Errorf("HTTP request: %w", err)
		}
		if err := httputil.CheckStatus(resp); err != nil {
			return err
		}
		defer resp.Body.Close()
		size, err = writeFile(resp.Body, destPath)
		return err
	})

	switch {
	case errors.Is(err, httputil.ErrBlocked):
		rep.Report(report.Event{Kind: report.FetchBlocked, Subject: name, Detail: locator, Err: err})
		return Outcome{Locator: locator, Status: StatusBlocked, Err: err}
	case err != nil:
		rep.Report(report.Event{Kind: report.FetchFailed, Subject: name, Err: err})
		return Outcome{Locator: locator, Status: StatusFailed, Err: err}
	}

	rec := types.FetchRecord{SourceURL: locator, FetchedAt: time.Now().UTC(), Size: size}
	if err := WriteRecord(cfg.DownloadDir, name, rec); err != nil {
		rep.Report(report.Event{Kind: report.Warning, Subject: name, Err: err})
	}

	rep.Report(report.Event{Kind: report.Fetched, Subject: name})
	return Outcome{Locator: locator, Path: destPath, Status: StatusFetched}
}

// FetchBatch fetches locators one after another, continuing after every
// per-locator outcome. Consecutive locators are paced by cfg.DownloadDelay.
func FetchBatch(ctx context.Context, client *http.Client, locators []string, cfg types.FetchConfig, rep report.Reporter) BatchResult {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.DownloadDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.DownloadDelay), 1)
	}

	var result BatchResult
	for _, loc := range locators {
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		o := Fetch(ctx, client, loc, cfg, rep)
		switch o.Status {
		case StatusFetched:
			result.Fetched++
		case StatusSkipped:
			result.Skipped++
		case StatusBlocked:
			result.Blocked++
		case StatusFailed:
			result.Failed++
		}
		result.Outcomes = append(result.Outcomes, o)
	}
	return result
}

// writeFile streams r to destPath through a temporary file in the same
// directory, renaming on success so a partial download never occupies the
// final name.
func writeFile(r io.Reader, destPath string) (int64, error) {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	n, copyErr := io.Copy(tmpFile, r)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return n, nil
}

// RecordPath returns the sidecar path for the file named name.
func RecordPath(dir, name string) string {
	return filepath.Join(dir, MetadataDir, name+".yaml")
}

// WriteRecord writes the sidecar metadata for a fetched file.
func WriteRecord(dir, name string, rec types.FetchRecord) error {
	if err := os.MkdirAll(filepath.Join(dir, MetadataDir), 0o755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	return os.WriteFile(RecordPath(dir, name), data, 0o644)
}

// ReadRecord reads the sidecar metadata for the file named name.
func ReadRecord(dir, name string) (*types.FetchRecord, error) {
	data, err := os.ReadFile(RecordPath(dir, name))
	if err != nil {
		return nil, err
	}
	var rec types.FetchRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
