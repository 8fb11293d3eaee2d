//go:build debug

package ticker

const debugChecks = true
