// Package config holds the immutable runtime configuration for headlines.
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Config is built once at startup and passed by value to every component.
type Config struct {
	StoryColor string `yaml:"story_color"`
	ClickColor string `yaml:"click_color"`

	NewsFile string `yaml:"news_file"`
	MetaFile string `yaml:"meta_file"`

	Width         int           `yaml:"width"`
	Delay         time.Duration `yaml:"delay"`
	Buffer        int           `yaml:"buffer"`
	DisplayBuffer int           `yaml:"display_buffer"`

	Browser string `yaml:"browser"`
	Topic   string `yaml:"topic"`

	Workers       int           `yaml:"workers"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout"`
	FetchRate     float64       `yaml:"fetch_rate"` // requests per second, 0 = unlimited
	TickInterval  time.Duration `yaml:"tick_interval"`
	ShutdownGrace time.Duration `yaml:"shutdown_grace"`

	MetricsAddr string `yaml:"metrics_addr"`
	Debug       bool   `yaml:"debug"`
}

// Colors maps the accepted color names to ANSI colors.
var Colors = map[string]lipgloss.Color{
	"black":   lipgloss.Color("0"),
	"red":     lipgloss.Color("1"),
	"green":   lipgloss.Color("2"),
	"yellow":  lipgloss.Color("3"),
	"blue":    lipgloss.Color("4"),
	"magenta": lipgloss.Color("5"),
	"cyan":    lipgloss.Color("6"),
	"white":   lipgloss.Color("7"),
}

// Browsers lists the accepted browser choices.
var Browsers = []string{"default", "chrome", "firefox", "safari", "edge"}

// StoryStyleColor returns the color new headlines are drawn in.
func (c Config) StoryStyleColor() lipgloss.Color {
	return Colors[c.StoryColor]
}

// ClickStyleColor returns the color of headlines that have been opened.
func (c Config) ClickStyleColor() lipgloss.Color {
	return Colors[c.ClickColor]
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/headlines/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "headlines", "config.yaml")
}

// StateDir returns the directory for logs and event files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "headlines")
}

// Default returns the embedded defaults.
func Default() (Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return Config{}, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing embedded config: %w", err)
	}
	return cfg, nil
}

// Load reads the file at path over the embedded defaults. A missing file is
// not an error; an empty path means DefaultConfigPath.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	// Unmarshal into the defaults so absent keys keep their default value.
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if _, ok := Colors[c.StoryColor]; !ok {
		return fmt.Errorf("story_color: unknown color %q", c.StoryColor)
	}
	if _, ok := Colors[c.ClickColor]; !ok {
		return fmt.Errorf("click_color: unknown color %q", c.ClickColor)
	}
	if c.Width < 1 {
		return fmt.Errorf("width must be at least 1, got %d", c.Width)
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay must not be negative, got %v", c.Delay)
	}
	if c.Buffer < 1 {
		return fmt.Errorf("buffer must be at least 1, got %d", c.Buffer)
	}
	if c.DisplayBuffer < 1 {
		return fmt.Errorf("display_buffer must be at least 1, got %d", c.DisplayBuffer)
	}
	if c.DisplayBuffer > c.Buffer {
		return fmt.Errorf("display_buffer (%d) must not exceed buffer (%d)", c.DisplayBuffer, c.Buffer)
	}
	if !validBrowser(c.Browser) {
		return fmt.Errorf("browser: unknown browser %q (valid: %v)", c.Browser, Browsers)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive, got %v", c.FetchTimeout)
	}
	if c.FetchRate < 0 {
		return fmt.Errorf("fetch_rate must not be negative, got %v", c.FetchRate)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %v", c.TickInterval)
	}
	return nil
}

func validBrowser(name string) bool {
	for _, b := range Browsers {
		if b == name {
			return true
		}
	}
	return false
}
