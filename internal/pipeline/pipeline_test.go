// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/guideline-chunker/internal/index"
	"github.com/pdiddy/guideline-chunker/internal/report"
	"github.com/pdiddy/guideline-chunker/internal/segment"
	"github.com/pdiddy/guideline-chunker/pkg/types"
)

// pagedDoc implements segment.Document over in-memory pages.
type pagedDoc struct{ pages []string }

func (d pagedDoc) NumPages() int                  { return len(d.pages) }
func (d pagedDoc) PageText(n int) (string, error) { return d.pages[n-1], nil }
func (d pagedDoc) Close() error                   { return nil }

// fakeSegmenter builds a real Segmenter whose opener serves pages by
// filename and fails for names listed in broken.
func fakeSegmenter(pages map[string][]string, broken ...string) *segment.Segmenter {
	opener := segment.OpenerFunc(func(path string) (segment.Document, error) {
		name := filepath.Base(path)
		for _, b := range broken {
			if b == name {
				return nil, errors.New("file is damaged")
			}
		}
		p, ok := pages[name]
		if !ok {
			return nil, fmt.Errorf("unexpected document %s", name)
		}
		return pagedDoc{pages: p}, nil
	})
	return segment.New(opener, types.SegmentConfig{TextCap: 2000, CategoryCap: 100}, nil)
}

func testConfig(t *testing.T, baseURL string) types.Config {
	t.Helper()
	tmp := t.TempDir()
	cfg := types.DefaultConfig()
	cfg.Discovery.BaseURL = baseURL
	cfg.Discovery.Timeout = 5 * time.Second
	cfg.Discovery.RetryDelay = time.Millisecond
	cfg.Fetch.DownloadDir = filepath.Join(tmp, "pdfs")
	cfg.Fetch.RetryDelay = time.Millisecond
	cfg.Fetch.DownloadDelay = 0
	cfg.Fetch.Timeout = 5 * time.Second
	cfg.Run.Output = filepath.Join(tmp, "out", "chunks.json")
	return cfg
}

func seed(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("%PDF-1.4"), 0o644))
	}
}

func readOutput(t *testing.T, path string) types.Aggregate {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var agg types.Aggregate
	require.NoError(t, json.Unmarshal(data, &agg))
	return agg
}

func TestRun_EndToEnd(t *testing.T) {
	var pdfRequests int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/list/":
			fmt.Fprint(w, `<html><body><a href="a.pdf">A</a><a href="b.pdf">B</a><a href="a.pdf">A again</a></body></html>`)
		case "/list/a.pdf":
			atomic.AddInt32(&pdfRequests, 1)
			w.WriteHeader(http.StatusForbidden)
		default:
			atomic.AddInt32(&pdfRequests, 1)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	cfg := testConfig(t, ts.URL+"/list/")
	seed(t, cfg.Fetch.DownloadDir, "b.pdf")

	var rec report.Recorder
	sum, err := Run(context.Background(), cfg, Deps{
		Client: ts.Client(),
		Segmenter: fakeSegmenter(map[string][]string{
			"b.pdf": {strings.Repeat("x", 10), strings.Repeat("y", 2500)},
		}),
		Reporter: &rec,
		NewRunID: func() string { return "run-test" },
	})
	require.NoError(t, err)

	assert.Equal(t, "run-test", sum.RunID)
	assert.Equal(t, 2, sum.Discovered)
	assert.Equal(t, 1, sum.Fetch.Blocked)
	assert.Equal(t, 1, sum.Fetch.Skipped)
	assert.Equal(t, int32(1), atomic.LoadInt32(&pdfRequests), "blocked locator tried once, seeded one not at all")
	assert.Equal(t, 1, rec.Count(report.FetchBlocked))

	agg := readOutput(t, cfg.Run.Output)
	assert.Equal(t, 2, agg.TotalChunks)
	assert.Equal(t, types.DefaultProvenance, agg.Source)
	require.Len(t, agg.Chunks, 2)
	assert.Len(t, agg.Chunks[0].Text, 10)
	assert.Len(t, agg.Chunks[1].Text, 2000)
	assert.Equal(t, []int{0, 1}, []int{agg.Chunks[0].ChunkID, agg.Chunks[1].ChunkID})
	assert.Equal(t, "b", agg.Chunks[0].CancerType)
	assert.Equal(t, "Page 2", agg.Chunks[1].Heading)
}

func TestRun_PartialFailure(t *testing.T) {
	cfg := testConfig(t, "")
	seed(t, cfg.Fetch.DownloadDir, "one.pdf", "two.pdf", "three.pdf")

	seg := fakeSegmenter(map[string][]string{
		"one.pdf":   {"a", "b"},
		"three.pdf": {"c", "", "d", "e"},
	}, "two.pdf")

	var rec report.Recorder
	sum, err := Run(context.Background(), cfg, Deps{Segmenter: seg, Reporter: &rec})
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Documents)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, rec.Count(report.SegmentFailed))

	agg := readOutput(t, cfg.Run.Output)
	assert.Equal(t, 5, agg.TotalChunks)
	for _, c := range agg.Chunks {
		assert.NotEqual(t, "two.pdf", c.Source)
	}
	// Inventory is name-sorted, so one.pdf precedes three.pdf; ids restart per document.
	assert.Equal(t, "one.pdf", agg.Chunks[0].Source)
	assert.Equal(t, "three.pdf", agg.Chunks[2].Source)
	assert.Equal(t, 0, agg.Chunks[2].ChunkID)
}

func TestRun_NothingToProcess(t *testing.T) {
	closed := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	closedURL := closed.URL
	closed.Close()

	cfg := testConfig(t, closedURL+"/list/")

	var rec report.Recorder
	sum, err := Run(context.Background(), cfg, Deps{Reporter: &rec})
	require.NoError(t, err)

	assert.True(t, sum.NothingToProcess)
	assert.Error(t, sum.DiscoveryErr)
	assert.Equal(t, 1, rec.Count(report.DiscoveryFailed))
	assert.Equal(t, 1, rec.Count(report.NothingToDo))
	assert.NoFileExists(t, cfg.Run.Output)
	assert.DirExists(t, cfg.Fetch.DownloadDir)
}

func TestRun_DiscoveryFailureIsSoft(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	cfg := testConfig(t, ts.URL+"/list/")
	seed(t, cfg.Fetch.DownloadDir, "local.pdf")

	sum, err := Run(context.Background(), cfg, Deps{
		Client:    ts.Client(),
		Segmenter: fakeSegmenter(map[string][]string{"local.pdf": {"text"}}),
	})
	require.NoError(t, err)
	assert.Error(t, sum.DiscoveryErr)
	assert.False(t, sum.NothingToProcess)
	assert.Equal(t, 1, readOutput(t, cfg.Run.Output).TotalChunks)
}

func TestRun_Limits(t *testing.T) {
	var pdfRequests int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			fmt.Fprint(w, `<a href="x1.pdf"></a><a href="x2.pdf"></a><a href="x3.pdf"></a>`)
			return
		}
		atomic.AddInt32(&pdfRequests, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	cfg := testConfig(t, ts.URL+"/")
	cfg.Run.FetchLimit = 1
	cfg.Run.SegmentLimit = 2
	seed(t, cfg.Fetch.DownloadDir, "a.pdf", "b.pdf", "c.pdf")

	sum, err := Run(context.Background(), cfg, Deps{
		Client: ts.Client(),
		Segmenter: fakeSegmenter(map[string][]string{
			"a.pdf": {"a"}, "b.pdf": {"b"}, "c.pdf": {"c"},
		}),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Discovered)
	assert.Equal(t, int32(1), atomic.LoadInt32(&pdfRequests))
	assert.Equal(t, 2, sum.Documents)
	assert.Equal(t, 2, readOutput(t, cfg.Run.Output).TotalChunks)
}

func TestRun_Index(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Run.IndexPath = filepath.Join(t.TempDir(), "chunks.db")
	seed(t, cfg.Fetch.DownloadDir, "lung.pdf")

	_, err := Run(context.Background(), cfg, Deps{
		Segmenter: fakeSegmenter(map[string][]string{"lung.pdf": {"Chemotherapy", "Radiotherapy"}}),
	})
	require.NoError(t, err)

	store, err := index.Open(cfg.Run.IndexPath)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Search(context.Background(), index.Query{Text: "radio"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Page)
}

func TestRun_IndexReplacesEmptiedDocument(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Run.IndexPath = filepath.Join(t.TempDir(), "chunks.db")
	seed(t, cfg.Fetch.DownloadDir, "lung.pdf")

	_, err := Run(context.Background(), cfg, Deps{
		Segmenter: fakeSegmenter(map[string][]string{"lung.pdf": {"Chemotherapy"}}),
	})
	require.NoError(t, err)

	sum, err := Run(context.Background(), cfg, Deps{
		Segmenter: fakeSegmenter(map[string][]string{"lung.pdf": {"", ""}}),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Aggregate.TotalChunks)

	store, err := index.Open(cfg.Run.IndexPath)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Search(context.Background(), index.Query{Source: "lung.pdf"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEncodeAggregate(t *testing.T) {
	agg := types.NewAggregate("Рекомендации", []types.Chunk{
		{ChunkID: 0, CancerType: "Рак легкого", Heading: "Page 1", Text: "<b> & доза", Source: "Рак_легкого.pdf", Page: 1},
	})

	var buf strings.Builder
	require.NoError(t, EncodeAggregate(&buf, agg))
	out := buf.String()

	assert.Contains(t, out, `"source": "Рекомендации"`)
	assert.Contains(t, out, `"text": "<b> & доза"`)
	assert.Contains(t, out, "\n  \"total_chunks\": 1,")
	for _, field := range []string{"chunk_id", "cancer_type", "heading", "text", "source", "page"} {
		assert.Contains(t, out, `"`+field+`"`)
	}
}

func TestEncodeAggregate_EmptyChunks(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, EncodeAggregate(&buf, types.NewAggregate("x", nil)))
	assert.Contains(t, buf.String(), `"chunks": []`)
}
