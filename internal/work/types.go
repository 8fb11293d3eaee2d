// Package work runs fetches off the event loop. A fixed set of workers pulls
// sources from a job channel and hands every outcome back on one result
// channel, which only the event loop reads.
package work

import (
	"context"
	"fmt"
	"time"

	"github.com/abelbrown/headlines/internal/fetch"
	"github.com/abelbrown/headlines/internal/logging"
	"github.com/abelbrown/headlines/internal/sources"
)

// Fetcher retrieves the items of one source.
type Fetcher interface {
	Fetch(ctx context.Context, src sources.Source) ([]fetch.Item, error)
}

// Result is the outcome of one fetch.
type Result struct {
	Source   sources.Source
	Items    []fetch.Item
	Err      error
	Started  time.Time
	Duration time.Duration
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool { return r.Err == nil }

// Stats is a point-in-time view of pool counters.
type Stats struct {
	Submitted int64
	Completed int64
	Failed    int64
	Active    int64
	Queued    int
	Workers   int
}

// String returns a summary string for stats.
func (s Stats) String() string {
	return fmt.Sprintf("active: %d  queued: %d  done: %d  failed: %d",
		s.Active, s.Queued, s.Completed, s.Failed)
}

// logResult logs a finished fetch for debugging.
func logResult(r Result) {
	if r.Err != nil {
		logging.Warn("Fetch failed",
			"source", r.Source,
			"error", r.Err,
			"duration", r.Duration)
		return
	}
	logging.Debug("Fetch completed",
		"source", r.Source,
		"items", len(r.Items),
		"duration", r.Duration)
}
