package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abelbrown/headlines/internal/config"
	"github.com/abelbrown/headlines/internal/sources"
)

// Set with -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type flagValues struct {
	config        string
	storyColor    string
	clickColor    string
	newsFile      string
	metaFile      string
	width         int
	delay         time.Duration
	buffer        int
	displayBuffer int
	browser       string
	topic         string
	workers       int
	fetchTimeout  time.Duration
	metricsAddr   string
	debug         bool
}

func newRootCmd() *cobra.Command {
	var f flagValues

	root := &cobra.Command{
		Use:   "headlines",
		Short: "Scrolling terminal news ticker",
		Long: `headlines polls a list of news feeds round-robin and scrolls each source's
freshest headline down the terminal. Click a headline to open it.

Keys: space pause, ↑/k ↓/j scroll, q quit.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, &f)
			if err != nil {
				return err
			}
			return runTicker(cmd.Context(), cfg)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.config, "config", "", "path to config file (default "+config.DefaultConfigPath()+")")
	pf.StringVar(&f.newsFile, "news-file", "", "sources file: category → feed URLs (default built-in)")
	pf.StringVar(&f.metaFile, "meta-file", "", "per-domain timestamp metadata file (default built-in)")
	pf.StringVar(&f.topic, "topic", "", "only poll sources of this category")

	fl := root.Flags()
	fl.StringVar(&f.storyColor, "story-color", "", "headline color (black, red, green, yellow, blue, magenta, cyan, white)")
	fl.StringVar(&f.clickColor, "click-color", "", "color of clicked headlines")
	fl.IntVar(&f.width, "width", 0, "headline width in columns")
	fl.DurationVar(&f.delay, "delay", 0, "minimum time between two headlines")
	fl.IntVar(&f.buffer, "buffer", 0, "rows of history kept for scrolling")
	fl.IntVar(&f.displayBuffer, "display-buffer", 0, "rows shown on screen")
	fl.StringVar(&f.browser, "browser", "", "browser for opening links (default, chrome, firefox, safari, edge)")
	fl.IntVar(&f.workers, "workers", 0, "concurrent fetches")
	fl.DurationVar(&f.fetchTimeout, "fetch-timeout", 0, "timeout for one feed fetch")
	fl.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	fl.BoolVar(&f.debug, "debug", false, "debug logging and event tracing")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newSourcesCmd(&f))
	return root
}

// loadConfig reads the config file and applies every flag the user set.
func loadConfig(cmd *cobra.Command, f *flagValues) (config.Config, error) {
	cfg, err := config.Load(f.config)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}

	changed := cmd.Flags().Changed
	if changed("story-color") {
		cfg.StoryColor = f.storyColor
	}
	if changed("click-color") {
		cfg.ClickColor = f.clickColor
	}
	if changed("news-file") {
		cfg.NewsFile = f.newsFile
	}
	if changed("meta-file") {
		cfg.MetaFile = f.metaFile
	}
	if changed("width") {
		cfg.Width = f.width
	}
	if changed("delay") {
		cfg.Delay = f.delay
	}
	if changed("buffer") {
		cfg.Buffer = f.buffer
	}
	if changed("display-buffer") {
		cfg.DisplayBuffer = f.displayBuffer
	}
	if changed("browser") {
		cfg.Browser = f.browser
	}
	if changed("topic") {
		cfg.Topic = f.topic
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("fetch-timeout") {
		cfg.FetchTimeout = f.fetchTimeout
	}
	if changed("metrics-addr") {
		cfg.MetricsAddr = f.metricsAddr
	}
	if changed("debug") {
		cfg.Debug = f.debug
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "headlines %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func newSourcesCmd(f *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the feeds that would be polled",
		Long:  "Load and validate the sources and metadata files, then print every feed with its domain key in polling order.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			reg, err := sources.Load(cfg.NewsFile, cfg.MetaFile, cfg.Topic)
			if err != nil {
				return fmt.Errorf("loading sources: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, c := range reg.Categories() {
				fmt.Fprintf(out, "%s\n", c.Name)
				for _, src := range c.Sources {
					fmt.Fprintf(out, "  %-50s %s\n", src, reg.Key(src))
				}
			}
			fmt.Fprintf(out, "%d sources\n", len(reg.Sources()))
			return nil
		},
	}
}
