package otel

import (
	"os"
	"sync/atomic"
)

// traceEnabled gates per-keystroke ui.key events, which are noisy.
var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("HEADLINES_TRACE") != "")
}

// TraceEnabled reports whether HEADLINES_TRACE is set.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

// SetTraceEnabled overrides the environment setting.
func SetTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
