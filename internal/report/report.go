// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report carries pipeline narration as typed events. Stages emit
// events to a Reporter; the CLI prints them, tests record them.
package report

import (
	"fmt"
	"io"
	"sync"
)

// Kind classifies an event.
type Kind string

const (
	DiscoveryDone   Kind = "discovery_done"
	DiscoveryFailed Kind = "discovery_failed"
	FetchAttempt    Kind = "fetch_attempt"
	FetchRetry      Kind = "fetch_retry"
	Fetched         Kind = "fetched"
	FetchSkipped    Kind = "fetch_skipped"
	FetchBlocked    Kind = "fetch_blocked"
	FetchFailed     Kind = "fetch_failed"
	Warning         Kind = "warning"
	InventoryListed Kind = "inventory_listed"
	NothingToDo     Kind = "nothing_to_process"
	Segmented       Kind = "segmented"
	SegmentFailed   Kind = "segment_failed"
	OutputWritten   Kind = "output_written"
	Indexed         Kind = "indexed"
)

// Event is one narrated outcome. Subject names the locator, file, or path
// the event is about; Count carries a number where one is meaningful.
type Event struct {
	Kind    Kind
	Subject string
	Detail  string
	Count   int
	Err     error
}

// Reporter receives events from pipeline stages.
type Reporter interface {
	Report(e Event)
}

// Discard drops every event.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(Event) {}

// Narrator prints events as human-readable lines.
type Narrator struct {
	W io.Writer

	// Verbose enables per-attempt lines.
	Verbose bool
}

// NewNarrator returns a Narrator writing to w.
func NewNarrator(w io.Writer, verbose bool) *Narrator {
	return &Narrator{W: w, Verbose: verbose}
}

// Report implements Reporter.
func (n *Narrator) Report(e Event) {
	switch e.Kind {
	case DiscoveryDone:
		fmt.Fprintf(n.W, "discovered: %d locator(s) at %s", e.Count, e.Subject)
		if e.Detail != "" {
			fmt.Fprintf(n.W, " (%s)", e.Detail)
		}
		fmt.Fprintln(n.W)
	case DiscoveryFailed:
		fmt.Fprintf(n.W, "discovery failed: %s (%v)\n", e.Subject, e.Err)
	case FetchAttempt:
		if n.Verbose {
			fmt.Fprintf(n.W, "  attempt %d: %s\n", e.Count, e.Subject)
		}
	case FetchRetry:
		if n.Verbose {
			fmt.Fprintf(n.W, "  attempt %d failed: %s (%v)\n", e.Count, e.Subject, e.Err)
		}
	case Fetched:
		fmt.Fprintf(n.W, "downloaded: %s\n", e.Subject)
	case FetchSkipped:
		fmt.Fprintf(n.W, "skipped: %s (already exists)\n", e.Subject)
	case FetchBlocked:
		fmt.Fprintf(n.W, "blocked: %s (HTTP 403), fetch manually: %s\n", e.Subject, e.Detail)
	case FetchFailed:
		fmt.Fprintf(n.W, "failed:  %s (%v)\n", e.Subject, e.Err)
	case Warning:
		fmt.Fprintf(n.W, "  warning: %s: %v\n", e.Subject, e.Err)
	case InventoryListed:
		fmt.Fprintf(n.W, "local documents: %d in %s\n", e.Count, e.Subject)
	case NothingToDo:
		fmt.Fprintf(n.W, "nothing to process: place PDF files in %s", e.Subject)
		if e.Err != nil {
			fmt.Fprintf(n.W, " (%v)", e.Err)
		}
		fmt.Fprintln(n.W)
	case Segmented:
		fmt.Fprintf(n.W, "chunked: %s (%d chunks)\n", e.Subject, e.Count)
	case SegmentFailed:
		fmt.Fprintf(n.W, "failed:  %s (%v)\n", e.Subject, e.Err)
	case OutputWritten:
		fmt.Fprintf(n.W, "\nwrote %d chunk(s) to %s\n", e.Count, e.Subject)
	case Indexed:
		fmt.Fprintf(n.W, "indexed %d chunk(s) into %s\n", e.Count, e.Subject)
	default:
		fmt.Fprintf(n.W, "%s: %s %s\n", e.Kind, e.Subject, e.Detail)
	}
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Report implements Reporter.
func (r *Recorder) Report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events in order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kind of each recorded event in order.
func (r *Recorder) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]Kind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind
	}
	return kinds
}

// Count returns how many events of kind k were recorded.
func (r *Recorder) Count(k Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// OrDiscard returns r, or Discard when r is nil.
func OrDiscard(r Reporter) Reporter {
	if r == nil {
		return Discard
	}
	return r
}
