package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/headlines/internal/fetch"
	"github.com/abelbrown/headlines/internal/fresh"
	"github.com/abelbrown/headlines/internal/logging"
	"github.com/abelbrown/headlines/internal/metrics"
	"github.com/abelbrown/headlines/internal/otel"
	"github.com/abelbrown/headlines/internal/pending"
	"github.com/abelbrown/headlines/internal/schedule"
	"github.com/abelbrown/headlines/internal/sources"
	"github.com/abelbrown/headlines/internal/ticker"
	"github.com/abelbrown/headlines/internal/work"
)

// headerHeight is the number of lines above the display window. Mouse rows
// are shifted by it before hit-testing.
const headerHeight = 1

// footerHeight is the status line below the display window.
const footerHeight = 1

// State is the loop state.
type State int

const (
	Running State = iota
	Paused
	Terminated
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Pool is the fetch pool as seen by the loop. *work.Pool satisfies it.
type Pool interface {
	Submit(src sources.Source) bool
	Results() <-chan work.Result
	Cancel()
}

// Opener launches a link in a browser.
type Opener func(link, browser string) error

// Deps are the components the loop drives. The loop owns Scheduler, Tracker,
// Pending and Buffer exclusively once the program starts.
type Deps struct {
	Scheduler *schedule.Scheduler
	Tracker   *fresh.Tracker
	Pending   *pending.Queue
	Buffer    *ticker.Buffer
	Pool      Pool
	Open      Opener

	Events  *otel.Logger     // optional
	Ring    *otel.RingBuffer // optional, feeds the debug overlay
	Metrics *metrics.Collector
}

// Options are the loop settings taken from the configuration.
type Options struct {
	Delay        time.Duration
	TickInterval time.Duration
	Browser      string
}

// Summary counts what happened during a session.
type Summary struct {
	Rounds         int
	Fetches        int
	FetchErrors    int
	ClassifyErrors int
	Fresh          int
	Shown          int
	Drained        int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d rounds, %d fetches (%d failed, %d unclassifiable), %d fresh, %d shown",
		s.Rounds, s.Fetches, s.FetchErrors, s.ClassifyErrors, s.Fresh, s.Shown)
}

// Model is the root Bubble Tea model.
type Model struct {
	deps Deps
	opts Options

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	state        State
	lastFlush    time.Time
	status       string
	debugVisible bool
	width        int
	height       int

	summary Summary
}

// New creates the loop model in the running state.
func New(deps Deps, opts Options) Model {
	if deps.Events == nil {
		deps.Events = otel.NewNullLogger()
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = 50 * time.Millisecond
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = HeaderText

	return Model{
		deps:    deps,
		opts:    opts,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		spinner: s,
		state:   Running,
	}
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.spinner.Tick)
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == Terminated {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.deps.Buffer.SetVisible(msg.Height - headerHeight - footerHeight)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tickMsg:
		if m.state == Running {
			m.step(time.Time(msg))
		}
		return m, m.tick()

	case linkOpened:
		m.linkOpened(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	if otel.TraceEnabled() {
		m.deps.Events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Comp: "ui", Msg: msg.String()})
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quit()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Pause):
		if m.state == Running {
			m.state = Paused
		} else {
			m.state = Running
		}
		m.deps.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindKeyPress, Comp: "ui", Msg: m.state.String()})
		logging.Info("Ticker state changed", "state", m.state)

	case key.Matches(msg, m.keys.Up):
		m.deps.Buffer.Scroll(-1)

	case key.Matches(msg, m.keys.Down):
		m.deps.Buffer.Scroll(1)

	case key.Matches(msg, m.keys.Debug):
		m.debugVisible = !m.debugVisible
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft || m.debugVisible {
		return m, nil
	}
	e, ok := m.deps.Buffer.Hit(msg.Y-headerHeight, msg.X)
	if !ok {
		return m, nil
	}
	m.deps.Buffer.MarkVisited(e)
	return m, m.openLink(e)
}

func (m Model) openLink(e *ticker.Entry) tea.Cmd {
	open, browser := m.deps.Open, m.opts.Browser
	src, link := e.Source, e.Link
	return func() tea.Msg {
		if open == nil {
			return linkOpened{Source: src, Link: link, Err: errors.New("no browser configured")}
		}
		return linkOpened{Source: src, Link: link, Err: open(link, browser)}
	}
}

func (m *Model) linkOpened(msg linkOpened) {
	if m.deps.Metrics != nil {
		m.deps.Metrics.LinkOpened(msg.Err)
	}
	if msg.Err != nil {
		m.status = "open link: " + msg.Err.Error()
		logging.Warn("Open link failed", "link", msg.Link, "error", msg.Err)
		m.deps.Events.Emit(otel.Event{
			Level: otel.LevelWarn, Kind: otel.KindLinkError, Comp: "ui",
			Source: string(msg.Source), Link: msg.Link, Err: msg.Err.Error(),
		})
		return
	}
	m.deps.Events.Emit(otel.Event{
		Level: otel.LevelInfo, Kind: otel.KindLinkOpen, Comp: "ui",
		Source: string(msg.Source), Link: msg.Link,
	})
}

// step is one iteration of the running loop.
func (m *Model) step(now time.Time) {
	m.collect()

	sched := m.deps.Scheduler
	if sched.RoundDone() {
		if err := sched.Rollover(); err != nil {
			logging.Error("Rollover failed", "error", err)
		} else {
			m.summary.Rounds++
			m.deps.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindRollover, Comp: "sched", Round: sched.Round()})
			if m.deps.Metrics != nil {
				m.deps.Metrics.Rollover()
			}
		}
	}

	if src, err := sched.Next(); err == nil {
		m.dispatch(src)
	} else if !errors.Is(err, schedule.ErrRoundComplete) {
		logging.Error("Scheduler", "error", err)
	}

	if now.Sub(m.lastFlush) >= m.opts.Delay {
		m.flush()
		m.lastFlush = now
	}
}

// collect drains every finished fetch without blocking.
func (m *Model) collect() {
	for {
		select {
		case r := <-m.deps.Pool.Results():
			m.complete(r)
		default:
			return
		}
	}
}

func (m *Model) dispatch(src sources.Source) {
	if !m.deps.Pool.Submit(src) {
		// Hand it straight back so the round can still finish.
		logging.Warn("Fetch not submitted, skipping source this round", "source", src)
		if err := m.deps.Scheduler.TickComplete(src); err != nil {
			logging.Error("TickComplete failed", "source", src, "error", err)
		}
		return
	}
	m.deps.Events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindFetchStart, Comp: "work", Source: string(src), Round: m.deps.Scheduler.Round()})
}

// complete classifies one fetch result and returns its source to the
// scheduler. A failed fetch or an unclassifiable feed changes nothing else.
func (m *Model) complete(r work.Result) {
	defer func() {
		if err := m.deps.Scheduler.TickComplete(r.Source); err != nil {
			logging.Error("TickComplete failed", "source", r.Source, "error", err)
		}
		if m.deps.Metrics != nil {
			m.deps.Metrics.SetPending(m.deps.Pending.Len())
		}
	}()

	m.summary.Fetches++
	if m.deps.Metrics != nil {
		m.deps.Metrics.FetchDone(r.Duration, r.Err)
	}

	if r.Err != nil {
		m.summary.FetchErrors++
		m.deps.Events.Emit(otel.Event{
			Level: otel.LevelWarn, Kind: otel.KindFetchError, Comp: "work",
			Source: string(r.Source), Dur: r.Duration, Err: r.Err.Error(),
		})
		return
	}
	m.deps.Events.Emit(otel.Event{
		Level: otel.LevelInfo, Kind: otel.KindFetchComplete, Comp: "work",
		Source: string(r.Source), Dur: r.Duration, Count: len(r.Items),
	})

	item, err := m.deps.Tracker.Recent(r.Items, r.Source)
	if errors.Is(err, fresh.ErrNoItems) {
		logging.Debug("Feed returned no items", "source", r.Source)
		return
	}
	isNew := false
	if err == nil {
		isNew, err = m.deps.Tracker.IsNew(item, r.Source)
	}
	if err != nil {
		m.classifyFailed(r.Source, err)
		return
	}
	if !isNew {
		return
	}

	m.summary.Fresh++
	m.deps.Pending.Offer(r.Source)
	m.deps.Events.Emit(otel.Event{
		Level: otel.LevelInfo, Kind: otel.KindStoryFresh, Comp: "fresh",
		Source: string(r.Source), Link: item.Link(),
	})
	if m.deps.Metrics != nil {
		m.deps.Metrics.Fresh()
	}
}

func (m *Model) classifyFailed(src sources.Source, err error) {
	m.summary.ClassifyErrors++
	field := ""
	var ce *fresh.ClassifyError
	if errors.As(err, &ce) {
		field = ce.Field
	}
	logging.Error("Classification failed", "source", src, "field", field, "error", err)
	m.deps.Events.Emit(otel.Event{
		Level: otel.LevelError, Kind: otel.KindClassifyError, Comp: "fresh",
		Source: string(src), Field: field, Err: err.Error(),
	})
	if m.deps.Metrics != nil {
		m.deps.Metrics.ClassifyError()
	}
}

// flush moves one pending story onto the display.
func (m *Model) flush() {
	src, ok := m.deps.Pending.Poll()
	if !ok {
		return
	}
	last, ok := m.deps.Tracker.Last(src)
	if !ok {
		logging.Error("Pending source has no fresh story", "source", src)
		return
	}

	title := fetch.CleanTitle(last.Item.Title())
	e := m.deps.Buffer.Insert(src, title, last.Item.Link())
	m.summary.Shown++
	m.deps.Events.Emit(otel.Event{
		Level: otel.LevelInfo, Kind: otel.KindStoryShown, Comp: "ticker",
		Source: string(src), Link: e.Link, Count: e.Lines(),
	})

	evicted := m.deps.Buffer.Evicted()
	for _, old := range evicted {
		m.deps.Events.Emit(otel.Event{
			Level: otel.LevelDebug, Kind: otel.KindStoryEvicted, Comp: "ticker",
			Source: string(old.Source), Link: old.Link,
		})
	}
	if m.deps.Metrics != nil {
		m.deps.Metrics.Shown()
		if len(evicted) > 0 {
			m.deps.Metrics.Evicted(len(evicted))
		}
		m.deps.Metrics.SetPending(m.deps.Pending.Len())
	}
}

// quit discards everything still queued and cancels in-flight fetches.
func (m *Model) quit() {
	m.state = Terminated

	drained := m.deps.Pending.Drain() + m.deps.Scheduler.Drain()
	m.deps.Pool.Cancel()
drain:
	for {
		select {
		case <-m.deps.Pool.Results():
			drained++
		default:
			break drain
		}
	}
	m.summary.Drained = drained

	logging.Info("Ticker quitting", "drained", drained)
	m.deps.Events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindShutdown, Comp: "ui", Count: drained})
}

// View renders the UI.
func (m Model) View() string {
	if m.state == Terminated {
		return ""
	}
	if m.debugVisible {
		return m.header() + "\n" + debugOverlay(m.deps.Ring, m.width, m.height-headerHeight)
	}

	var footer string
	if m.status != "" {
		footer = ErrorStyle.MaxWidth(m.width).MaxHeight(footerHeight).Render(m.status)
	} else {
		footer = StatusBar.MaxWidth(m.width).MaxHeight(footerHeight).Render(m.help.View(m.keys))
	}
	if m.deps.Buffer.Visible() == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, m.header(), footer)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		m.deps.Buffer.Render(),
		footer,
	)
}

func (m Model) header() string {
	var b strings.Builder
	b.WriteString(HeaderTitle.Render("headlines"))
	if m.state == Paused {
		b.WriteString(HeaderPaused.Render("PAUSED "))
	} else if m.deps.Scheduler.InFlight() > 0 {
		b.WriteString(m.spinner.View() + " ")
	}
	b.WriteString(HeaderText.Render(fmt.Sprintf("round %d · %d shown · %d pending · %d errors",
		m.deps.Scheduler.Round(), m.summary.Shown, m.deps.Pending.Len(),
		m.summary.FetchErrors+m.summary.ClassifyErrors)))

	line := b.String()
	if m.width > 0 {
		return Header.Width(m.width).MaxHeight(1).Render(line)
	}
	return Header.Render(line)
}

// State returns the loop state (for testing).
func (m Model) State() State { return m.state }

// Summary returns session counters.
func (m Model) Summary() Summary { return m.summary }
