// Package pending holds sources whose freshest story is waiting to be shown.
//
// A source appears at most once: a second Offer while it is still queued is
// ignored, so a fast-updating feed cannot crowd out the others. The item to
// display is looked up at Poll time, which means the newest headline wins
// even if the source was queued several fetches ago.
package pending

import "github.com/abelbrown/headlines/internal/sources"

// Queue is a FIFO of distinct sources. Not safe for concurrent use.
type Queue struct {
	items  []sources.Source
	queued map[sources.Source]bool
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{queued: make(map[sources.Source]bool)}
}

// Offer appends src unless it is already waiting. Returns true if appended.
func (q *Queue) Offer(src sources.Source) bool {
	if q.queued[src] {
		return false
	}
	q.queued[src] = true
	q.items = append(q.items, src)
	return true
}

// Poll removes and returns the oldest source.
func (q *Queue) Poll() (sources.Source, bool) {
	if len(q.items) == 0 {
		return "", false
	}
	src := q.items[0]
	q.items[0] = ""
	q.items = q.items[1:]
	delete(q.queued, src)
	return src, true
}

// Len returns the number of waiting sources.
func (q *Queue) Len() int { return len(q.items) }

// Contains reports whether src is waiting.
func (q *Queue) Contains(src sources.Source) bool { return q.queued[src] }

// Drain discards every waiting source and returns how many there were.
func (q *Queue) Drain() int {
	n := len(q.items)
	q.items = nil
	clear(q.queued)
	return n
}
