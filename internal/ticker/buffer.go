// Package ticker is the scrolling display buffer: stories enter at the top,
// push older ones down, and fall off the bottom once they pass the retained
// depth. Each story remembers both its logical rows, which only change on
// insertion, and its screen rows, which also follow the scroll offset.
package ticker

import (
	"fmt"
	"strings"

	"github.com/abelbrown/headlines/internal/sources"
)

// Entry is one story on the buffer. Row ranges are inclusive and cover the
// wrapped title plus one blank separator row below it.
type Entry struct {
	Source sources.Source
	Title  string
	Link   string

	RowLower int
	RowUpper int

	ScreenLower int
	ScreenUpper int

	Visited bool
}

// Lines returns the number of title rows, excluding the separator.
func (e *Entry) Lines() int { return e.RowUpper - e.RowLower }

// Row is one retained line of text. Entry is the story it belongs to.
type Row struct {
	Text  string
	Entry *Entry
}

// Blank reports whether the row is a separator or padding row.
func (r Row) Blank() bool { return strings.TrimSpace(r.Text) == "" }

// Buffer keeps the last depth rows of stories and shows window of them.
// Not safe for concurrent use.
type Buffer struct {
	width  int
	depth  int
	window int
	shown  int // rows of the window the terminal has room for
	offset int

	rows    []Row
	entries []*Entry // newest first
	evicted []*Entry
	styles  Styles
}

// New returns an empty buffer. window is clamped to depth.
func New(width, depth, window int) *Buffer {
	window = min(window, depth)
	return &Buffer{
		width:  width,
		depth:  depth,
		window: window,
		shown:  window,
		styles: DefaultStyles(),
	}
}

// SetStyles replaces the styles used by Render.
func (b *Buffer) SetStyles(s Styles) { b.styles = s }

// Insert wraps title at the buffer width and places it at the top, shifting
// every retained story down. Stories pushed past the depth are evicted and
// can be read back with Evicted until the next Insert.
func (b *Buffer) Insert(src sources.Source, title, link string) *Entry {
	lines := Wrap(title, b.width)
	n := len(lines)
	shift := n + 1

	e := &Entry{
		Source:      src,
		Title:       title,
		Link:        link,
		RowLower:    0,
		RowUpper:    n,
		ScreenLower: -b.offset,
		ScreenUpper: n - b.offset,
	}

	for _, old := range b.entries {
		old.RowLower += shift
		old.RowUpper += shift
		old.ScreenLower += shift
		old.ScreenUpper += shift
	}

	rows := make([]Row, 0, len(b.rows)+shift)
	for _, l := range lines {
		rows = append(rows, Row{Text: l, Entry: e})
	}
	rows = append(rows, Row{Text: strings.Repeat(" ", b.width), Entry: e})
	b.rows = append(rows, b.rows...)
	b.entries = append([]*Entry{e}, b.entries...)

	b.evict()
	b.check()
	return e
}

// evict drops entries reaching past the last retained row, then trims the
// row store so no row outlives its entry.
func (b *Buffer) evict() {
	b.evicted = nil
	keep := len(b.entries)
	for keep > 0 && b.entries[keep-1].RowUpper > b.depth-1 {
		keep--
	}
	if keep == len(b.entries) {
		return
	}
	b.evicted = append(b.evicted, b.entries[keep:]...)
	for i := keep; i < len(b.entries); i++ {
		b.entries[i] = nil
	}
	b.entries = b.entries[:keep]

	cut := 0
	if keep > 0 {
		cut = b.entries[keep-1].RowUpper + 1
	}
	for i := cut; i < len(b.rows); i++ {
		b.rows[i] = Row{}
	}
	b.rows = b.rows[:cut]
}

// Evicted returns the entries removed by the most recent Insert.
func (b *Buffer) Evicted() []*Entry { return b.evicted }

// Scroll moves the view by delta rows: positive scrolls down toward older
// stories. The offset is clamped to [0, depth] and the applied delta is
// returned. Logical rows never change.
func (b *Buffer) Scroll(delta int) int {
	off := min(max(b.offset+delta, 0), b.depth)
	applied := off - b.offset
	if applied == 0 {
		return 0
	}
	b.offset = off
	for _, e := range b.entries {
		e.ScreenLower -= applied
		e.ScreenUpper -= applied
	}
	b.check()
	return applied
}

// Hit returns the entry drawn at screen position (row, col) of the window.
func (b *Buffer) Hit(row, col int) (*Entry, bool) {
	if row < 0 || row >= b.shown || col < 0 || col >= b.width {
		return nil, false
	}
	for _, e := range b.entries {
		if e.ScreenLower <= row && row <= e.ScreenUpper {
			return e, true
		}
	}
	return nil, false
}

// MarkVisited switches e to the visited style.
func (b *Buffer) MarkVisited(e *Entry) {
	if e != nil {
		e.Visited = true
	}
}

// SetVisible limits how many rows of the window are drawn and hit-tested,
// for terminals shorter than the window. n is clamped to [0, window].
func (b *Buffer) SetVisible(n int) {
	b.shown = max(0, min(n, b.window))
}

// Visible returns the number of window rows drawn.
func (b *Buffer) Visible() int { return b.shown }

// Rows returns the visible rows of the window, padded with blank rows.
func (b *Buffer) Rows() []Row {
	out := make([]Row, b.shown)
	blank := strings.Repeat(" ", b.width)
	for i := range out {
		r := b.offset + i
		if r < len(b.rows) {
			out[i] = b.rows[r]
		} else {
			out[i] = Row{Text: blank}
		}
	}
	return out
}

// Render draws the window with story styles applied.
func (b *Buffer) Render() string {
	rows := b.Rows()
	lines := make([]string, len(rows))
	for i, r := range rows {
		switch {
		case r.Entry == nil || r.Blank():
			lines[i] = r.Text
		case r.Entry.Visited:
			lines[i] = b.styles.Visited.Render(r.Text)
		default:
			lines[i] = b.styles.Story.Render(r.Text)
		}
	}
	return strings.Join(lines, "\n")
}

// Entries returns the retained stories, newest first.
func (b *Buffer) Entries() []*Entry { return b.entries }

// Offset returns the scroll offset.
func (b *Buffer) Offset() int { return b.offset }

// Lines returns the number of retained rows.
func (b *Buffer) Lines() int { return len(b.rows) }

// Width returns the row width.
func (b *Buffer) Width() int { return b.width }

// Window returns the number of visible rows.
func (b *Buffer) Window() int { return b.window }

func (b *Buffer) check() {
	if !debugChecks {
		return
	}
	if err := b.validate(); err != nil {
		panic(err)
	}
}

// validate checks the coordinate bookkeeping: entries tile the row store from
// the top without gaps, screen rows equal logical rows minus the offset, and
// nothing reaches past the retained depth.
func (b *Buffer) validate() error {
	if b.offset < 0 || b.offset > b.depth {
		return fmt.Errorf("offset %d outside [0, %d]", b.offset, b.depth)
	}
	if len(b.rows) > b.depth {
		return fmt.Errorf("%d rows retained, depth %d", len(b.rows), b.depth)
	}
	next := 0
	for i, e := range b.entries {
		if e.RowLower != next {
			return fmt.Errorf("entry %d starts at row %d, want %d", i, e.RowLower, next)
		}
		if e.RowUpper <= e.RowLower {
			return fmt.Errorf("entry %d has empty range %d..%d", i, e.RowLower, e.RowUpper)
		}
		if e.RowUpper > b.depth-1 {
			return fmt.Errorf("entry %d ends at row %d past depth %d", i, e.RowUpper, b.depth)
		}
		if e.ScreenLower != e.RowLower-b.offset || e.ScreenUpper != e.RowUpper-b.offset {
			return fmt.Errorf("entry %d screen %d..%d does not match rows %d..%d at offset %d",
				i, e.ScreenLower, e.ScreenUpper, e.RowLower, e.RowUpper, b.offset)
		}
		for r := e.RowLower; r <= e.RowUpper; r++ {
			if r >= len(b.rows) || b.rows[r].Entry != e {
				return fmt.Errorf("row %d not owned by entry %d", r, i)
			}
		}
		next = e.RowUpper + 1
	}
	if next != len(b.rows) {
		return fmt.Errorf("entries cover %d rows, store holds %d", next, len(b.rows))
	}
	return nil
}
