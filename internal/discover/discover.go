// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover scrapes a listing page for links to downloadable documents.
package discover

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/guideline-chunker/internal/httputil"
	"github.com/pdiddy/guideline-chunker/pkg/types"
)

// maxListingBytes bounds how much of the listing page is read.
const maxListingBytes = 8 << 20

// Result holds the discovered locators.
type Result struct {
	// Locators are absolute URLs, deduplicated and sorted.
	Locators []string

	// Duplicates counts matching anchors dropped as repeats.
	Duplicates int
}

// Discover fetches the listing page at cfg.BaseURL and returns the absolute
// URLs of every anchor whose final path segment ends in cfg.Extension.
// Transient failures are retried up to cfg.MaxAttempts times; a 403 is not.
// A returned error means the page could not be fetched or parsed; an empty
// Result with a nil error means the page simply had no matching links.
func Discover(ctx context.Context, client *http.Client, cfg types.DiscoveryConfig) (Result, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return Result{}, fmt.Errorf("parsing base URL %q: %w", cfg.BaseURL, err)
	}
	if !base.IsAbs() {
		return Result{}, fmt.Errorf("base URL %q is not absolute", cfg.BaseURL)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, httputil.Policy{
		MaxAttempts: cfg.MaxAttempts,
		Delay:       cfg.RetryDelay,
	})
	if err != nil {
		return Result{}, fmt.Errorf("fetching listing %s: %w", base, err)
	}
	defer resp.Body.Close()

	return Parse(io.LimitReader(resp.Body, maxListingBytes), base, cfg.Extension)
}

// Parse extracts matching links from an HTML document, resolving each
// against base.
func Parse(r io.Reader, base *url.URL, ext string) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Result{}, fmt.Errorf("parsing listing HTML: %w", err)
	}

	ext = strings.ToLower(ext)
	seen := make(map[string]bool)
	var res Result

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		if !strings.HasSuffix(strings.ToLower(path.Base(abs.Path)), ext) {
			return
		}
		abs.Fragment, abs.RawFragment = "", ""
		loc := abs.String()
		if seen[loc] {
			res.Duplicates++
			return
		}
		seen[loc] = true
		res.Locators = append(res.Locators, loc)
	})

	sort.Strings(res.Locators)
	return res, nil
}
