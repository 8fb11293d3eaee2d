package ticker

import (
	"fmt"
	"strings"
	"testing"
)

func mustValidate(t *testing.T, b *Buffer) {
	t.Helper()
	if err := b.validate(); err != nil {
		t.Fatalf("invalid buffer: %v", err)
	}
}

func TestInsertShiftsOlderStories(t *testing.T) {
	b := New(10, 50, 20)

	s1 := b.Insert("a", "first one", "https://a.example/1")
	s2 := b.Insert("b", "second", "https://b.example/2")
	mustValidate(t, b)

	if s1.RowLower != 2 || s1.RowUpper != 3 {
		t.Errorf("S1 rows = %d..%d, want 2..3", s1.RowLower, s1.RowUpper)
	}
	if s2.RowLower != 0 || s2.RowUpper != 1 {
		t.Errorf("S2 rows = %d..%d, want 0..1", s2.RowLower, s2.RowUpper)
	}
	if s1.ScreenLower != 2 || s1.ScreenUpper != 3 {
		t.Errorf("S1 screen = %d..%d, want 2..3", s1.ScreenLower, s1.ScreenUpper)
	}

	entries := b.Entries()
	if len(entries) != 2 || entries[0] != s2 || entries[1] != s1 {
		t.Errorf("Entries should be newest first")
	}
}

func TestInsertShiftByWrappedLines(t *testing.T) {
	b := New(10, 50, 20)
	old := b.Insert("a", "short", "")
	b.Insert("b", "The quick brown fox", "")

	// two title rows plus the separator
	if old.RowLower != 3 || old.RowUpper != 4 {
		t.Errorf("old rows = %d..%d, want 3..4", old.RowLower, old.RowUpper)
	}

	rows := b.Rows()
	want := []string{"The quick ", "brown fox ", "          ", "short     ", "          "}
	for i, w := range want {
		if rows[i].Text != w {
			t.Errorf("row %d = %q, want %q", i, rows[i].Text, w)
		}
	}
	if b.Lines() != 5 {
		t.Errorf("Lines = %d, want 5", b.Lines())
	}
}

func TestExactlyDivisibleTitle(t *testing.T) {
	b := New(5, 50, 20)
	e := b.Insert("a", "abcdefghij", "")
	if e.Lines() != 2 {
		t.Errorf("Lines = %d, want 2", e.Lines())
	}
	if e.RowUpper != 2 {
		t.Errorf("RowUpper = %d, want 2", e.RowUpper)
	}
}

func TestEviction(t *testing.T) {
	b := New(10, 6, 6)

	s1 := b.Insert("a", "one", "")
	s2 := b.Insert("b", "two", "")
	b.Insert("c", "three", "")
	mustValidate(t, b)
	if len(b.Evicted()) != 0 || len(b.Entries()) != 3 {
		t.Fatalf("nothing should be evicted yet")
	}

	// S1 would land on rows 6..7, past depth 6.
	s4 := b.Insert("d", "four", "")
	mustValidate(t, b)

	ev := b.Evicted()
	if len(ev) != 1 || ev[0] != s1 {
		t.Fatalf("Evicted = %v, want S1 only", ev)
	}
	if len(b.Entries()) != 3 || b.Entries()[0] != s4 || b.Entries()[2] != s2 {
		t.Errorf("unexpected entries after eviction")
	}
	if b.Lines() != 6 {
		t.Errorf("Lines = %d, want 6", b.Lines())
	}

	for row := 0; row < 6; row++ {
		if e, ok := b.Hit(row, 0); ok && e == s1 {
			t.Errorf("evicted entry still hit at row %d", row)
		}
	}
}

func TestEvictionTrimsPartialRows(t *testing.T) {
	b := New(10, 5, 5)
	fox := b.Insert("a", "The quick brown fox", "")
	b.Insert("b", "two", "")
	mustValidate(t, b)
	if fox.RowLower != 2 || fox.RowUpper != 4 {
		t.Fatalf("fox rows = %d..%d, want 2..4", fox.RowLower, fox.RowUpper)
	}

	// fox now straddles the depth: row 4 is retained, rows 5..6 are not.
	b.Insert("c", "three", "")
	mustValidate(t, b)

	if len(b.Entries()) != 2 {
		t.Fatalf("entries = %d, want 2", len(b.Entries()))
	}
	if ev := b.Evicted(); len(ev) != 1 || ev[0] != fox {
		t.Fatalf("Evicted = %v, want fox only", ev)
	}
	if b.Lines() != 4 {
		t.Errorf("Lines = %d, want 4", b.Lines())
	}
	if _, ok := b.Hit(4, 0); ok {
		t.Error("row 4 should no longer be hit-testable")
	}
}

func TestHit(t *testing.T) {
	b := New(10, 50, 4)
	s1 := b.Insert("a", "first", "")
	s2 := b.Insert("b", "second", "")

	tests := []struct {
		row, col int
		want     *Entry
	}{
		{0, 0, s2},
		{1, 9, s2},
		{2, 3, s1},
		{3, 0, s1},
		{0, 10, nil}, // past width
		{-1, 0, nil},
		{4, 0, nil}, // past window
		{0, -1, nil},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d,%d", tt.row, tt.col), func(t *testing.T) {
			got, ok := b.Hit(tt.row, tt.col)
			if ok != (tt.want != nil) || got != tt.want {
				t.Errorf("Hit(%d, %d) = %v, %v", tt.row, tt.col, got, ok)
			}
		})
	}
}

func TestHitFollowsScroll(t *testing.T) {
	b := New(10, 50, 4)
	s1 := b.Insert("a", "first", "")
	b.Insert("b", "second", "")

	if got := b.Scroll(2); got != 2 {
		t.Fatalf("Scroll(2) applied %d", got)
	}
	if e, ok := b.Hit(0, 0); !ok || e != s1 {
		t.Errorf("after scrolling down 2, row 0 should hit S1")
	}
	if s1.RowLower != 2 {
		t.Errorf("scroll must not change logical rows, got %d", s1.RowLower)
	}
}

func TestScrollRoundTrip(t *testing.T) {
	b := New(12, 40, 10)
	for i := 0; i < 6; i++ {
		b.Insert("s", fmt.Sprintf("headline number %d", i), "")
	}
	b.Scroll(3)

	type span struct{ lo, hi int }
	before := map[*Entry]span{}
	for _, e := range b.Entries() {
		before[e] = span{e.ScreenLower, e.ScreenUpper}
	}

	for _, d := range []int{1, 4, 7} {
		applied := b.Scroll(d)
		b.Scroll(-applied)
		mustValidate(t, b)
		for _, e := range b.Entries() {
			if got := (span{e.ScreenLower, e.ScreenUpper}); got != before[e] {
				t.Errorf("Scroll(%d) round trip moved %q to %v, want %v", d, e.Title, got, before[e])
			}
		}
	}
}

func TestScrollClamps(t *testing.T) {
	b := New(10, 8, 4)
	b.Insert("a", "one", "")

	if got := b.Scroll(-3); got != 0 {
		t.Errorf("Scroll(-3) at top applied %d, want 0", got)
	}
	if got := b.Scroll(100); got != 8 {
		t.Errorf("Scroll(100) applied %d, want 8", got)
	}
	if b.Offset() != 8 {
		t.Errorf("Offset = %d, want 8", b.Offset())
	}
	if got := b.Scroll(-100); got != -8 {
		t.Errorf("Scroll(-100) applied %d, want -8", got)
	}
	mustValidate(t, b)
}

func TestInsertWhileScrolled(t *testing.T) {
	b := New(10, 50, 10)
	b.Insert("a", "one", "")
	b.Scroll(1)

	e := b.Insert("b", "two", "")
	mustValidate(t, b)
	if e.ScreenLower != -1 || e.ScreenUpper != 0 {
		t.Errorf("new entry screen = %d..%d, want -1..0", e.ScreenLower, e.ScreenUpper)
	}
}

func TestMarkVisitedRender(t *testing.T) {
	b := New(10, 50, 4)
	e := b.Insert("a", "clicked", "https://a.example/")
	b.MarkVisited(e)

	if !e.Visited {
		t.Fatal("entry should be visited")
	}
	out := b.Render()
	if got := strings.Count(out, "\n"); got != 3 {
		t.Errorf("Render produced %d lines, want 4", got+1)
	}
	if !strings.Contains(out, "clicked") {
		t.Errorf("Render output missing title: %q", out)
	}
}

func TestWindowClampedToDepth(t *testing.T) {
	b := New(10, 3, 10)
	if b.Window() != 3 {
		t.Errorf("Window = %d, want 3", b.Window())
	}
	if len(b.Rows()) != 3 {
		t.Errorf("Rows = %d, want 3", len(b.Rows()))
	}
}

func TestSetVisibleLimitsRowsAndHit(t *testing.T) {
	b := New(10, 50, 6)
	s1 := b.Insert("a", "first", "")
	s2 := b.Insert("b", "second", "")

	b.SetVisible(3)
	if b.Visible() != 3 || len(b.Rows()) != 3 {
		t.Fatalf("Visible = %d, Rows = %d, want 3", b.Visible(), len(b.Rows()))
	}
	if got := strings.Count(b.Render(), "\n") + 1; got != 3 {
		t.Errorf("Render drew %d lines, want 3", got)
	}
	if e, ok := b.Hit(2, 0); !ok || e != s1 {
		t.Errorf("row 2 should still hit S1")
	}
	if _, ok := b.Hit(3, 0); ok {
		t.Error("row 3 is below the visible rows and must miss")
	}
	if b.Window() != 6 {
		t.Errorf("SetVisible must not change the window, got %d", b.Window())
	}

	b.SetVisible(100)
	if b.Visible() != 6 {
		t.Errorf("Visible = %d, want clamp to window 6", b.Visible())
	}
	b.SetVisible(-2)
	if b.Visible() != 0 || len(b.Rows()) != 0 {
		t.Errorf("negative visible should clamp to 0, got %d", b.Visible())
	}
	if _, ok := b.Hit(0, 0); ok {
		t.Errorf("nothing is hittable with no visible rows, S2 = %v", s2)
	}
}
