package launch

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Printer is an [Observer] that writes a line for each started command,
// each request that could not be resolved, and each failed command.
type Printer struct {
	w       io.Writer
	prompt  lipgloss.Style
	failure lipgloss.Style
	notice  lipgloss.Style
	// Also print a line for requests skipped by their condition.
	verbose bool
}

// PrinterOpt configures a [Printer].
type PrinterOpt func(*Printer)

// WithVerbose also prints requests skipped by their condition or declined.
func WithVerbose(verbose bool) PrinterOpt {
	return func(p *Printer) {
		p.verbose = verbose
	}
}

// NewPrinter creates a new [Printer] writing to w. Colors are used when w is
// a terminal that supports them.
func NewPrinter(w io.Writer, opts ...PrinterOpt) *Printer {
	r := lipgloss.NewRenderer(w)

	p := &Printer{
		w:       w,
		prompt:  r.NewStyle().Foreground(lipgloss.Color("6")),
		failure: r.NewStyle().Foreground(lipgloss.Color("1")),
		notice:  r.NewStyle().Foreground(lipgloss.Color("3")),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Printer) Observe(_ context.Context, evt Event) {
	switch e := evt.(type) {
	case EventStart:
		p.println(p.prompt.Render(">") + " " + e.Command.String())

	case EventSkip:
		switch e.Reason {
		case ReasonNotFound:
			p.println(p.failure.Render(fmt.Sprintf("Failed to find '%s'", e.Request.Name)))
		case ReasonInvalid:
			p.println(p.failure.Render(fmt.Sprintf("Failed to evaluate '%s': %v", e.Request.Name, e.Err)))
		case ReasonCondition, ReasonDeclined:
			if p.verbose {
				p.println(p.notice.Render(fmt.Sprintf("Skipped '%s' (%s)", e.Request.Name, e.Reason)))
			}
		case ReasonNone, ReasonCanceled:
		}

	case EventEnd:
		if e.Status == StatusFailed {
			p.println(p.failure.Render(fmt.Sprintf("Command: `%s` failed!", e.Command.String())))
		}
	}
}

func (p *Printer) println(s string) {
	_, _ = fmt.Fprintln(p.w, s)
}
