//go:build !debug

package ticker

const debugChecks = false
