// Package ui is the Bubble Tea event loop of the ticker. Each tick collects
// finished fetches, advances the scheduler by one source, and at most once
// per display delay moves a pending story onto the screen.
package ui

import (
	"time"

	"github.com/abelbrown/headlines/internal/sources"
)

// tickMsg drives one loop iteration.
type tickMsg time.Time

// linkOpened is sent when the browser launch for a clicked story returns.
type linkOpened struct {
	Source sources.Source
	Link   string
	Err    error
}
