// Package fresh decides whether a fetched item is new for its source.
//
// The tracker keeps one high-water mark per source: the timestamp and item of
// the newest story accepted so far. An item is fresh only if its timestamp is
// strictly later than that mark.
package fresh

import (
	"errors"
	"fmt"
	"time"

	"github.com/abelbrown/headlines/internal/fetch"
	"github.com/abelbrown/headlines/internal/sources"
)

var (
	// ErrNoItems is returned by Recent for an empty fetch.
	ErrNoItems = errors.New("feed returned no items")
	// ErrMissingField means an item lacks the configured timestamp field.
	ErrMissingField = errors.New("timestamp field missing")
	// ErrBadTimestamp means the timestamp does not match the configured layout.
	ErrBadTimestamp = errors.New("timestamp does not match layout")
)

// ClassifyError reports a metadata mismatch for one source.
type ClassifyError struct {
	Source sources.Source
	Field  string
	Value  string
	Err    error
}

func (e *ClassifyError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("classify %s: field %q: %v", e.Source, e.Field, e.Err)
	}
	return fmt.Sprintf("classify %s: field %q value %q: %v", e.Source, e.Field, e.Value, e.Err)
}

func (e *ClassifyError) Unwrap() error { return e.Err }

// MetaLookup resolves a source to its timestamp metadata.
// *sources.Registry satisfies it.
type MetaLookup interface {
	Meta(src sources.Source) (sources.Meta, error)
}

// Entry is the last accepted story for a source.
type Entry struct {
	Seen time.Time
	Item fetch.Item
}

// Tracker is not safe for concurrent use; the event loop owns it.
type Tracker struct {
	meta    MetaLookup
	entries map[sources.Source]Entry
}

// New creates an empty tracker.
func New(meta MetaLookup) *Tracker {
	return &Tracker{
		meta:    meta,
		entries: make(map[sources.Source]Entry),
	}
}

// timestamp extracts and parses the configured timestamp of item.
func (t *Tracker) timestamp(item fetch.Item, src sources.Source) (time.Time, error) {
	m, err := t.meta.Meta(src)
	if err != nil {
		return time.Time{}, err
	}
	raw, ok := item[m.TimeField]
	if !ok || raw == "" {
		return time.Time{}, &ClassifyError{Source: src, Field: m.TimeField, Err: ErrMissingField}
	}
	ts, err := m.Parse(raw)
	if err != nil {
		return time.Time{}, &ClassifyError{Source: src, Field: m.TimeField, Value: raw, Err: fmt.Errorf("%w: %v", ErrBadTimestamp, err)}
	}
	return ts, nil
}

// Recent returns the item with the latest timestamp. Ties go to the item
// seen first. Any item with a missing or unparseable timestamp fails the
// whole call.
func (t *Tracker) Recent(items []fetch.Item, src sources.Source) (fetch.Item, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	var (
		best   fetch.Item
		bestTS time.Time
	)
	for i, item := range items {
		ts, err := t.timestamp(item, src)
		if err != nil {
			return nil, err
		}
		if i == 0 || ts.After(bestTS) {
			best, bestTS = item, ts
		}
	}
	return best, nil
}

// IsNew reports whether item is newer than anything accepted for src, and
// if so records it. On false or error nothing changes.
func (t *Tracker) IsNew(item fetch.Item, src sources.Source) (bool, error) {
	ts, err := t.timestamp(item, src)
	if err != nil {
		return false, err
	}

	if prev, ok := t.entries[src]; ok && !ts.After(prev.Seen) {
		return false, nil
	}
	t.entries[src] = Entry{Seen: ts, Item: item}
	return true, nil
}

// Last returns the most recently accepted entry for src.
func (t *Tracker) Last(src sources.Source) (Entry, bool) {
	e, ok := t.entries[src]
	return e, ok
}

// Len returns the number of sources with an accepted story.
func (t *Tracker) Len() int {
	return len(t.entries)
}
