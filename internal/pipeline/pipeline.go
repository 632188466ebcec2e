// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs one batch: discover, fetch, inventory, segment, and
// write the aggregate. Per-item failures are reported and skipped; only a
// missing input set ends the run early.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/pdiddy/guideline-chunker/internal/discover"
	"github.com/pdiddy/guideline-chunker/internal/fetch"
	"github.com/pdiddy/guideline-chunker/internal/index"
	"github.com/pdiddy/guideline-chunker/internal/inventory"
	"github.com/pdiddy/guideline-chunker/internal/report"
	"github.com/pdiddy/guideline-chunker/internal/segment"
	"github.com/pdiddy/guideline-chunker/pkg/types"
)

// Segmenter produces the chunks of one document.
type Segmenter interface {
	Segment(path string) ([]types.Chunk, error)
}

// Deps are the collaborators of a run. Zero values select the defaults.
type Deps struct {
	// Client is used for discovery and fetching (default: client with
	// cfg.Fetch.Timeout).
	Client *http.Client

	// Segmenter chunks documents (default: PDF segmenter built from cfg.Segment).
	Segmenter Segmenter

	// Reporter receives narration (default: discard).
	Reporter report.Reporter

	// NewRunID generates the run identifier (default: random UUID).
	NewRunID func() string
}

// Summary describes a finished run.
type Summary struct {
	RunID string

	// Discovered is the number of locators found; DiscoveryErr is set when
	// the listing could not be read.
	Discovered   int
	DiscoveryErr error

	Fetch fetch.BatchResult

	// Documents is the number of inventory documents segmented, Failed the
	// number among them that produced an error.
	Documents int
	Failed    int

	// NothingToProcess is true when the inventory was empty or missing; no
	// output is written in that case.
	NothingToProcess bool

	Aggregate types.Aggregate
	Output    string
}

// Run executes one batch with cfg. The returned error is reserved for
// infrastructure failures: the download directory cannot be created, or the
// output cannot be written or indexed.
func Run(ctx context.Context, cfg types.Config, deps Deps) (Summary, error) {
	rep := report.OrDiscard(deps.Reporter)
	client := deps.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Fetch.Timeout}
	}
	seg := deps.Segmenter
	if seg == nil {
		seg = segment.New(nil, cfg.Segment, rep)
	}
	newID := deps.NewRunID
	if newID == nil {
		newID = uuid.NewString
	}

	sum := Summary{RunID: newID()}
	dir := cfg.Fetch.DownloadDir

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return sum, fmt.Errorf("creating download directory %s: %w", dir, err)
	}

	// Fetching is best-effort; the inventory below decides what gets processed.
	if cfg.Discovery.BaseURL != "" {
		found, err := discover.Discover(ctx, client, cfg.Discovery)
		if err != nil {
			sum.DiscoveryErr = err
			rep.Report(report.Event{Kind: report.DiscoveryFailed, Subject: cfg.Discovery.BaseURL, Err: err})
		} else {
			sum.Discovered = len(found.Locators)
			ev := report.Event{Kind: report.DiscoveryDone, Subject: cfg.Discovery.BaseURL, Count: sum.Discovered}
			if found.Duplicates > 0 {
				ev.Detail = fmt.Sprintf("%d duplicate(s) dropped", found.Duplicates)
			}
			rep.Report(ev)
			sum.Fetch = fetch.FetchBatch(ctx, client, limit(found.Locators, cfg.Run.FetchLimit), cfg.Fetch, rep)
		}
	}

	docs, err := inventory.List(dir, cfg.Discovery.Extension)
	if err != nil || len(docs) == 0 {
		rep.Report(report.Event{Kind: report.NothingToDo, Subject: dir, Err: err})
		sum.NothingToProcess = true
		return sum, nil
	}
	rep.Report(report.Event{Kind: report.InventoryListed, Subject: dir, Count: len(docs)})

	var (
		chunks    []types.Chunk
		segmented []string
	)
	for _, doc := range limit(docs, cfg.Run.SegmentLimit) {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sum.Documents++
		got, err := seg.Segment(doc.Path)
		if err != nil {
			sum.Failed++
			rep.Report(report.Event{Kind: report.SegmentFailed, Subject: doc.Name, Err: err})
			continue
		}
		rep.Report(report.Event{Kind: report.Segmented, Subject: doc.Name, Count: len(got)})
		chunks = append(chunks, got...)
		segmented = append(segmented, doc.Name)
	}

	sum.Aggregate = types.NewAggregate(cfg.Run.Provenance, chunks)
	if err := WriteAggregate(cfg.Run.Output, sum.Aggregate); err != nil {
		return sum, err
	}
	sum.Output = cfg.Run.Output
	rep.Report(report.Event{Kind: report.OutputWritten, Subject: sum.Output, Count: sum.Aggregate.TotalChunks})

	if cfg.Run.IndexPath != "" {
		if err := ingest(ctx, cfg.Run.IndexPath, sum.RunID, sum.Aggregate, segmented); err != nil {
			return sum, err
		}
		rep.Report(report.Event{Kind: report.Indexed, Subject: cfg.Run.IndexPath, Count: sum.Aggregate.TotalChunks})
	}

	return sum, nil
}

func ingest(ctx context.Context, path, runID string, agg types.Aggregate, sources []string) (err error) {
	store, err := index.Open(path)
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()
	if err := store.Ingest(ctx, runID, agg, sources); err != nil {
		return fmt.Errorf("indexing run %s: %w", runID, err)
	}
	return nil
}

// limit returns the first n items of s; n <= 0 means no cap.
func limit[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
