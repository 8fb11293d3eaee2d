package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/headlines/internal/browser"
	"github.com/abelbrown/headlines/internal/config"
	"github.com/abelbrown/headlines/internal/fetch"
	"github.com/abelbrown/headlines/internal/fresh"
	"github.com/abelbrown/headlines/internal/logging"
	"github.com/abelbrown/headlines/internal/metrics"
	"github.com/abelbrown/headlines/internal/otel"
	"github.com/abelbrown/headlines/internal/pending"
	"github.com/abelbrown/headlines/internal/schedule"
	"github.com/abelbrown/headlines/internal/sources"
	"github.com/abelbrown/headlines/internal/ticker"
	"github.com/abelbrown/headlines/internal/ui"
	"github.com/abelbrown/headlines/internal/work"
)

// runTicker wires every component and runs the TUI until the user quits.
// Configuration errors are returned before the terminal is taken over.
func runTicker(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reg, err := sources.Load(cfg.NewsFile, cfg.MetaFile, cfg.Topic)
	if err != nil {
		return fmt.Errorf("loading sources: %w", err)
	}
	srcs := reg.Sources()

	sched, err := schedule.New(srcs, nil)
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	stateDir := config.StateDir()
	if err := logging.Init(stateDir, cfg.Debug); err != nil {
		return err
	}
	defer logging.Close()

	eventsFile, err := os.OpenFile(filepath.Join(stateDir, "events.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening event log: %w", err)
	}
	defer eventsFile.Close()

	events := otel.NewLogger(eventsFile)
	defer events.Close()
	ring := otel.NewRingBuffer(512)
	events.SetRingBuffer(ring)
	if cfg.Debug {
		otel.SetTraceEnabled(true)
	}

	collector, err := metrics.NewCollector()
	if err != nil {
		return fmt.Errorf("creating metrics: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := collector.Serve(ctx, cfg.MetricsAddr); err != nil {
				logging.Error("Metrics server stopped", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
	}

	fetcher := fetch.NewFetcher(cfg.FetchTimeout, cfg.FetchRate)
	pool := work.NewPool(fetcher, cfg.Workers, len(srcs))
	pool.Start(ctx)

	buf := ticker.New(cfg.Width, cfg.Buffer, cfg.DisplayBuffer)
	buf.SetStyles(ticker.NewStyles(cfg.StoryStyleColor(), cfg.ClickStyleColor()))

	model := ui.New(ui.Deps{
		Scheduler: sched,
		Tracker:   fresh.New(reg),
		Pending:   pending.New(),
		Buffer:    buf,
		Pool:      pool,
		Open:      browser.Open,
		Events:    events,
		Ring:      ring,
		Metrics:   collector,
	}, ui.Options{
		Delay:        cfg.Delay,
		TickInterval: cfg.TickInterval,
		Browser:      cfg.Browser,
	})

	logging.Info("Starting ticker",
		"sources", len(srcs),
		"topic", cfg.Topic,
		"workers", cfg.Workers,
		"session", events.SessionID())
	events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindStartup, Comp: "main", Count: len(srcs)})

	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	final, runErr := program.Run()

	cancel()
	if err := pool.Stop(cfg.ShutdownGrace); err != nil {
		logging.Warn("Work pool did not stop cleanly", "error", err)
	}

	if m, ok := final.(ui.Model); ok {
		fmt.Fprintf(os.Stderr, "headlines: %s\n", m.Summary())
		logging.Info("Session summary", "summary", m.Summary().String(), "dropped_events", events.Dropped())
	}
	if runErr != nil {
		return fmt.Errorf("running ticker: %w", runErr)
	}
	return nil
}
