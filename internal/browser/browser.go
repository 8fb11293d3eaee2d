// Package browser opens story links in an external browser.
package browser

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// ErrUnsupported is returned for a browser that cannot be launched on this OS.
var ErrUnsupported = errors.New("browser not supported on this platform")

// Open launches link in the named browser without waiting for it to exit.
// Only http and https links are accepted.
func Open(link, browser string) error {
	name, args, err := command(runtime.GOOS, browser, link)
	if err != nil {
		return err
	}
	if err := exec.Command(name, args...).Start(); err != nil {
		return fmt.Errorf("launch %s: %w", name, err)
	}
	return nil
}

// command resolves the program and arguments that open link.
func command(goos, browser, link string) (string, []string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", nil, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", nil, fmt.Errorf("refusing to open URL with scheme %q (only http/https allowed)", u.Scheme)
	}
	if browser == "" {
		browser = "default"
	}

	switch goos {
	case "darwin":
		app := map[string]string{
			"chrome":  "Google Chrome",
			"firefox": "Firefox",
			"safari":  "Safari",
			"edge":    "Microsoft Edge",
		}
		if browser == "default" {
			return "open", []string{link}, nil
		}
		if a, ok := app[browser]; ok {
			return "open", []string{"-a", a, link}, nil
		}
	case "windows":
		// rundll32 avoids cmd /c start and its shell interpretation
		exe := map[string]string{
			"chrome":  "chrome",
			"firefox": "firefox",
			"edge":    "msedge",
		}
		if browser == "default" {
			return "rundll32", []string{"url.dll,FileProtocolHandler", link}, nil
		}
		if e, ok := exe[browser]; ok {
			return e, []string{link}, nil
		}
	default:
		exe := map[string]string{
			"chrome":  "google-chrome",
			"firefox": "firefox",
			"edge":    "microsoft-edge",
		}
		if browser == "default" {
			return "xdg-open", []string{link}, nil
		}
		if e, ok := exe[browser]; ok {
			return e, []string{link}, nil
		}
	}
	return "", nil, fmt.Errorf("%w: %s on %s", ErrUnsupported, browser, goos)
}
