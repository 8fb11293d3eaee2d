package fresh

import (
	"errors"
	"testing"
	"time"

	"github.com/abelbrown/headlines/internal/fetch"
	"github.com/abelbrown/headlines/internal/sources"
)

type stubMeta map[sources.Source]sources.Meta

func (s stubMeta) Meta(src sources.Source) (sources.Meta, error) {
	m, ok := s[src]
	if !ok {
		return sources.Meta{}, sources.ErrUnknownDomain
	}
	return m, nil
}

const src = sources.Source("https://example.com/rss")

func newTracker() *Tracker {
	return New(stubMeta{
		src: {TimeField: "published", TimeFormat: "RFC3339"},
	})
}

func item(title string, ts time.Time) fetch.Item {
	return fetch.Item{
		fetch.FieldTitle:     title,
		fetch.FieldLink:      "https://example.com/" + title,
		fetch.FieldPublished: ts.Format(time.RFC3339),
	}
}

var base = time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)

func TestRecentPicksLatest(t *testing.T) {
	tr := newTracker()
	items := []fetch.Item{
		item("old", base),
		item("newest", base.Add(2*time.Hour)),
		item("middle", base.Add(time.Hour)),
	}

	got, err := tr.Recent(items, src)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if got.Title() != "newest" {
		t.Errorf("Recent = %q, want newest", got.Title())
	}
	if tr.Len() != 0 {
		t.Error("Recent must not mutate tracker state")
	}
}

func TestRecentTieKeepsFirst(t *testing.T) {
	tr := newTracker()
	items := []fetch.Item{
		item("early", base),
		item("first", base.Add(time.Hour)),
		item("second", base.Add(time.Hour)),
	}

	got, err := tr.Recent(items, src)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if got.Title() != "first" {
		t.Errorf("tie should return first encountered, got %q", got.Title())
	}
}

func TestRecentErrors(t *testing.T) {
	tr := newTracker()

	if _, err := tr.Recent(nil, src); !errors.Is(err, ErrNoItems) {
		t.Errorf("empty input: expected ErrNoItems, got %v", err)
	}

	missing := []fetch.Item{item("ok", base), {fetch.FieldTitle: "no time"}}
	_, err := tr.Recent(missing, src)
	if !errors.Is(err, ErrMissingField) {
		t.Errorf("expected ErrMissingField, got %v", err)
	}
	var ce *ClassifyError
	if !errors.As(err, &ce) || ce.Field != "published" || ce.Source != src {
		t.Errorf("expected *ClassifyError naming the field, got %#v", err)
	}

	bad := []fetch.Item{{fetch.FieldPublished: "last tuesday"}}
	if _, err := tr.Recent(bad, src); !errors.Is(err, ErrBadTimestamp) {
		t.Errorf("expected ErrBadTimestamp, got %v", err)
	}

	if _, err := tr.Recent([]fetch.Item{item("x", base)}, "https://other.net/rss"); !errors.Is(err, sources.ErrUnknownDomain) {
		t.Errorf("expected metadata lookup error, got %v", err)
	}
}

func TestIsNewIncreasingSequence(t *testing.T) {
	tr := newTracker()

	for i := 0; i < 5; i++ {
		it := item("story", base.Add(time.Duration(i)*time.Minute))
		fresh, err := tr.IsNew(it, src)
		if err != nil {
			t.Fatalf("IsNew #%d: %v", i, err)
		}
		if !fresh {
			t.Errorf("IsNew #%d should be fresh for a strictly later timestamp", i)
		}
		// Feeding the same item again is never fresh.
		again, err := tr.IsNew(it, src)
		if err != nil {
			t.Fatal(err)
		}
		if again {
			t.Errorf("IsNew #%d repeated should not be fresh", i)
		}
	}
}

func TestIsNewRejectsOlderAndEqual(t *testing.T) {
	tr := newTracker()
	latest := item("latest", base.Add(time.Hour))

	if fresh, _ := tr.IsNew(latest, src); !fresh {
		t.Fatal("first sighting should be fresh")
	}

	for _, it := range []fetch.Item{item("equal", base.Add(time.Hour)), item("older", base)} {
		fresh, err := tr.IsNew(it, src)
		if err != nil {
			t.Fatal(err)
		}
		if fresh {
			t.Errorf("%q should not be fresh", it.Title())
		}
	}

	e, ok := tr.Last(src)
	if !ok || e.Item.Title() != "latest" || !e.Seen.Equal(base.Add(time.Hour)) {
		t.Errorf("stored entry changed by stale items: %+v", e)
	}
}

func TestIsNewErrorDoesNotMutate(t *testing.T) {
	tr := newTracker()
	if fresh, _ := tr.IsNew(item("kept", base), src); !fresh {
		t.Fatal("first sighting should be fresh")
	}

	_, err := tr.IsNew(fetch.Item{fetch.FieldPublished: "garbage"}, src)
	if !errors.Is(err, ErrBadTimestamp) {
		t.Fatalf("expected ErrBadTimestamp, got %v", err)
	}
	if e, _ := tr.Last(src); e.Item.Title() != "kept" {
		t.Errorf("entry mutated on error: %+v", e)
	}
	if tr.Len() != 1 {
		t.Errorf("Len = %d, want 1", tr.Len())
	}
}

func TestIsNewSourcesAreIndependent(t *testing.T) {
	other := sources.Source("https://example.com/other")
	tr := New(stubMeta{
		src:   {TimeField: "published", TimeFormat: "RFC3339"},
		other: {TimeField: "published", TimeFormat: "RFC3339"},
	})

	if fresh, _ := tr.IsNew(item("a", base.Add(time.Hour)), src); !fresh {
		t.Fatal("expected fresh")
	}
	if fresh, _ := tr.IsNew(item("b", base), other); !fresh {
		t.Error("an older story on another source is still fresh for that source")
	}
}
