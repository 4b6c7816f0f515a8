package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zjrosen/loom/internal/ui/styles"
)

// StatsRequest asks a pane for its feed statistics.
type StatsRequest struct{}

// Stats is a pane's answer to a StatsRequest.
type Stats struct {
	Count  int
	LastAt time.Time
}

// Pane is one feed pane: a bounded scrollback of lines from a single
// event source. It answers the dashboard's StatsRequest queries.
type Pane struct {
	title  string
	limit  int
	lines  []string
	count  int
	lastAt time.Time
	closed bool
}

// NewPane creates a pane holding up to limit lines.
func NewPane(title string, limit int) *Pane {
	return &Pane{title: title, limit: limit}
}

// Push appends a line, dropping the oldest past the limit.
func (p *Pane) Push(line string) {
	p.lines = append(p.lines, line)
	if len(p.lines) > p.limit {
		p.lines = p.lines[len(p.lines)-p.limit:]
	}
	p.count++
	p.lastAt = time.Now()
}

// SetClosed marks the pane's feed as terminated.
func (p *Pane) SetClosed() {
	p.closed = true
}

// Started reports whether the feed has delivered anything yet.
func (p *Pane) Started() bool {
	return p.count > 0
}

// HandleQuery answers the dashboard's stats fan-out.
func (p *Pane) HandleQuery(_ context.Context, _ StatsRequest) (Stats, error) {
	return Stats{Count: p.count, LastAt: p.lastAt}, nil
}

// View renders the pane at the given inner width and height.
func (p *Pane) View(width, height int, focused bool) string {
	title := p.title
	if p.closed {
		title += " (closed)"
	}

	body := make([]string, 0, height)
	start := 0
	if len(p.lines) > height {
		start = len(p.lines) - height
	}
	for _, line := range p.lines[start:] {
		if len(line) > width {
			line = line[:width]
		}
		body = append(body, line)
	}
	for len(body) < height {
		body = append(body, "")
	}

	content := fmt.Sprintf("%s\n%s", styles.Title().Render(title), strings.Join(body, "\n"))
	style := styles.Pane()
	if focused {
		style = styles.PaneFocused()
	}
	return style.Width(width).Render(content)
}
