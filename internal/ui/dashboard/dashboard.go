// Package dashboard is the demo surface for loom: a parent model that
// hosts slot-addressed feed panes, each fed by its own event source,
// with a status bar built by fanning a stats query out to every pane.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/loom/internal/config"
	"github.com/zjrosen/loom/internal/log"
	"github.com/zjrosen/loom/internal/query"
	"github.com/zjrosen/loom/internal/source"
	"github.com/zjrosen/loom/internal/ui/styles"
	"github.com/zjrosen/loom/internal/watch"
)

// Slot identifies one feed pane within the dashboard.
type Slot string

const (
	SlotTicks Slot = "ticks"
	SlotFiles Slot = "files"
	SlotLogs  Slot = "logs"
)

const paneScrollback = 64

// Messages produced by the dashboard's subscriptions.
type (
	tickMsg struct{ at time.Time }
	fileMsg struct{ ev watch.Event }
	logMsg  struct{ entry string }
)

// registry is the dashboard's read-only view of its panes for the
// query router.
type registry map[Slot]*Pane

func (r registry) Lookup(slot Slot) (query.Handler[StatsRequest, Stats], bool) {
	p, ok := r[slot]
	return p, ok
}

func (r registry) Slots() []Slot {
	slots := make([]Slot, 0, len(r))
	for s := range r {
		slots = append(slots, s)
	}
	return slots
}

// Model is the dashboard root.
type Model struct {
	cfg config.Config

	ctx    context.Context
	cancel context.CancelFunc

	panes registry
	order []Slot
	focus int

	ticks *source.Subscription[tickMsg]
	files *source.Subscription[fileMsg]
	logs  *source.Subscription[logMsg]

	spin   spinner.Model
	status string
	width  int
	height int
}

// New creates the dashboard model. Sources are described here but only
// subscribed in Init.
func New(cfg config.Config) Model {
	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.HighlightColor)

	return Model{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		panes: registry{
			SlotTicks: NewPane("Ticks", paneScrollback),
			SlotFiles: NewPane("Files", paneScrollback),
			SlotLogs:  NewPane("Logs", paneScrollback),
		},
		order: []Slot{SlotTicks, SlotFiles, SlotLogs},
		spin:  sp,
	}
}

// Init subscribes every feed and starts listening.
func (m *Model) Init() tea.Cmd {
	m.ticks = source.Map(
		source.Every(m.cfg.Refresh.Tick),
		func(t time.Time) tickMsg { return tickMsg{at: t} },
	).Subscribe(m.ctx)

	fileCfg := watch.DefaultConfig(m.cfg.Path)
	fileCfg.Debounce = m.cfg.Refresh.Debounce
	m.files = source.Map(
		watch.Source(fileCfg),
		func(ev watch.Event) fileMsg { return fileMsg{ev: ev} },
	).Subscribe(m.ctx)

	m.logs = source.Map(
		log.Feed(),
		func(e log.Entry) logMsg { return logMsg{entry: strings.TrimRight(e.Payload, "\n")} },
	).Subscribe(m.ctx)

	log.Info(log.CatUI, "dashboard subscribed",
		"ticks", m.ticks.ID(), "files", m.files.ID(), "logs", m.logs.ID())

	return tea.Batch(
		m.spin.Tick,
		source.Listen(m.ticks),
		source.Listen(m.files),
		source.Listen(m.logs),
	)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.cancel()
			return m, tea.Quit
		case "tab":
			m.focus = (m.focus + 1) % len(m.order)
			return m, nil
		}
		return m, nil

	case spinner.TickMsg:
		if m.status != "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tickMsg:
		m.panes[SlotTicks].Push(msg.at.Format("15:04:05"))
		m.refreshStatus()
		return m, source.Listen(m.ticks)

	case fileMsg:
		m.panes[SlotFiles].Push(fmt.Sprintf("%s %s", msg.ev.Op, msg.ev.Path))
		return m, source.Listen(m.files)

	case logMsg:
		m.panes[SlotLogs].Push(msg.entry)
		return m, source.Listen(m.logs)

	case source.Closed[tickMsg]:
		return m, m.feedClosed(SlotTicks, msg.Err)
	case source.Closed[fileMsg]:
		return m, m.feedClosed(SlotFiles, msg.Err)
	case source.Closed[logMsg]:
		return m, m.feedClosed(SlotLogs, msg.Err)
	}

	return m, nil
}

func (m *Model) feedClosed(slot Slot, err error) tea.Cmd {
	m.panes[slot].SetClosed()
	if err != nil {
		log.ErrorErr(log.CatUI, "feed closed", err, "slot", slot)
		m.status = fmt.Sprintf("%s feed failed: %v", slot, err)
	}
	return nil
}

// refreshStatus fans the stats query out to every pane and rebuilds
// the status line.
func (m *Model) refreshStatus() {
	stats, err := query.QueryAll[Slot, StatsRequest, Stats](m.ctx, m.panes, StatsRequest{})
	if err != nil {
		log.ErrorErr(log.CatQuery, "stats fan-out failed", err)
		return
	}

	slots := make([]string, 0, len(stats))
	for slot := range stats {
		slots = append(slots, string(slot))
	}
	sort.Strings(slots)

	parts := make([]string, 0, len(slots))
	for _, slot := range slots {
		parts = append(parts, fmt.Sprintf("%s: %d", slot, stats[Slot(slot)].Count))
	}
	m.status = strings.Join(parts, " · ")
}

// View renders the dashboard.
func (m *Model) View() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	height := m.height
	if height <= 0 {
		height = 24
	}

	paneWidth := width/len(m.order) - 4
	if paneWidth < 10 {
		paneWidth = 10
	}
	paneHeight := height - 5
	if paneHeight < 3 {
		paneHeight = 3
	}

	views := make([]string, 0, len(m.order))
	for i, slot := range m.order {
		views = append(views, m.panes[slot].View(paneWidth, paneHeight, i == m.focus))
	}

	status := m.status
	if status == "" {
		status = m.spin.View() + " waiting for feeds..."
	}

	help := wordwrap.String("tab: focus next pane · q: quit", width)

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, views...),
		styles.StatusBar().Render(status),
		styles.Help().Render(help),
	)
}

// Close tears down every subscription. Called after the program exits;
// safe to call even if Update already cancelled the context.
func (m *Model) Close() error {
	m.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var first error
	if m.ticks != nil {
		if err := m.ticks.Unsubscribe(ctx); err != nil && first == nil {
			first = err
		}
	}
	if m.files != nil {
		if err := m.files.Unsubscribe(ctx); err != nil && first == nil {
			first = err
		}
	}
	if m.logs != nil {
		if err := m.logs.Unsubscribe(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
