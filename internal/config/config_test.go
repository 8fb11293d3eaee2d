package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("embedded defaults should validate: %v", err)
	}
	if cfg.Width != 80 {
		t.Errorf("expected width 80, got %d", cfg.Width)
	}
	if cfg.Delay != time.Second {
		t.Errorf("expected delay 1s, got %v", cfg.Delay)
	}
	if cfg.TickInterval != 50*time.Millisecond {
		t.Errorf("expected tick interval 50ms, got %v", cfg.TickInterval)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def, _ := Default()
	if cfg != def {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "width: 40\ndelay: 250ms\nstory_color: green\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Width != 40 {
		t.Errorf("width = %d, want 40", cfg.Width)
	}
	if cfg.Delay != 250*time.Millisecond {
		t.Errorf("delay = %v, want 250ms", cfg.Delay)
	}
	if cfg.StoryColor != "green" {
		t.Errorf("story_color = %q, want green", cfg.StoryColor)
	}
	// Untouched keys keep their defaults.
	if cfg.Buffer != 200 {
		t.Errorf("buffer = %d, want default 200", cfg.Buffer)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("width: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	base, err := Default()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"ok", func(c *Config) {}, ""},
		{"bad story color", func(c *Config) { c.StoryColor = "mauve" }, "story_color"},
		{"bad click color", func(c *Config) { c.ClickColor = "" }, "click_color"},
		{"zero width", func(c *Config) { c.Width = 0 }, "width"},
		{"negative delay", func(c *Config) { c.Delay = -time.Second }, "delay"},
		{"zero buffer", func(c *Config) { c.Buffer = 0 }, "buffer"},
		{"window larger than buffer", func(c *Config) { c.DisplayBuffer = c.Buffer + 1 }, "display_buffer"},
		{"bad browser", func(c *Config) { c.Browser = "lynx" }, "browser"},
		{"no workers", func(c *Config) { c.Workers = 0 }, "workers"},
		{"no timeout", func(c *Config) { c.FetchTimeout = 0 }, "fetch_timeout"},
		{"negative rate", func(c *Config) { c.FetchRate = -1 }, "fetch_rate"},
		{"no tick", func(c *Config) { c.TickInterval = 0 }, "tick_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestColors(t *testing.T) {
	cfg := Config{StoryColor: "blue", ClickColor: "red"}
	if cfg.StoryStyleColor() != "4" {
		t.Errorf("blue should map to ANSI 4, got %q", cfg.StoryStyleColor())
	}
	if cfg.ClickStyleColor() != "1" {
		t.Errorf("red should map to ANSI 1, got %q", cfg.ClickStyleColor())
	}
}
