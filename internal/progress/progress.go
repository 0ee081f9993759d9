// Package progress reports unit completion to a human or to the logs. The
// scheduler calls a sink after every finished unit; sinks must tolerate
// concurrent callers.
package progress

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Sink receives completion updates during a run.
type Sink interface {
	// Start announces the total number of units in the run.
	Start(total int)
	// Update reports that a unit finished; completed counts all finished
	// units so far, including this one.
	Update(label string, completed int)
	// Done marks the end of the run, whether or not it succeeded.
	Done()
}

var (
	countStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// Console renders a single in-place progress line on a terminal.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	total int
}

// NewConsole creates a console sink writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Start implements Sink.
func (c *Console) Start(total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total = total
	fmt.Fprintf(c.out, "%s units\n", countStyle.Render(fmt.Sprintf("%d", total)))
}

// Update implements Sink.
func (c *Console) Update(label string, completed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	counter := countStyle.Render(fmt.Sprintf("%d/%d", completed, c.total))
	fmt.Fprintf(c.out, "\r\033[K%s %s", counter, labelStyle.Render(label))
}

// Done implements Sink.
func (c *Console) Done() {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out)
}

// Slog reports progress through the structured logger, for non-interactive
// runs where an in-place line would garble the output.
type Slog struct {
	logger *slog.Logger
	total  int
}

// NewSlog creates a logging sink.
func NewSlog(logger *slog.Logger) *Slog {
	return &Slog{logger: logger}
}

// Start implements Sink.
func (s *Slog) Start(total int) {
	s.total = total
	s.logger.Info("🚀 Run started.", "units", total)
}

// Update implements Sink.
func (s *Slog) Update(label string, completed int) {
	s.logger.Info("✅ Unit finished.", "unit", label, "completed", completed, "total", s.total)
}

// Done implements Sink.
func (s *Slog) Done() {
	s.logger.Info("🏁 Run finished.")
}

// Noop discards all updates.
type Noop struct{}

func (Noop) Start(int)          {}
func (Noop) Update(string, int) {}
func (Noop) Done()              {}
