package tui

import (
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/aretw0/todosoa/pkg/view"
	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/term"
)

var strict = bluemonday.StrictPolicy()

// Text strips the markup of a rendered fragment down to plain text.
func Text(markup string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(markup)))
}

// Checklist renders a view snapshot as a markdown task list.
func Checklist(s view.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## todos (%s)\n\n", s.Filter)
	if !s.FrameVisible {
		b.WriteString("_nothing to do_\n")
		return b.String()
	}

	for i, row := range s.Rows {
		mark := " "
		if row.Completed {
			mark = "x"
		}
		title := row.Title
		if row.Editing {
			title += " _(editing)_"
		}
		fmt.Fprintf(&b, "%d. [%s] %s `%s`\n", i+1, mark, title, row.ID)
	}
	if len(s.Rows) == 0 {
		b.WriteString("_no items in this view_\n")
	}

	b.WriteString("\n")
	b.WriteString(Text(s.Counter))
	if s.ClearVisible {
		b.WriteString(" · ")
		b.WriteString(Text(s.ClearButton))
	}
	b.WriteString("\n\n")
	b.WriteString(filters(s.Filter))
	b.WriteString("\n")
	return b.String()
}

func filters(selected domain.Route) string {
	routes := []domain.Route{domain.RouteAll, domain.RouteActive, domain.RouteCompleted}
	parts := make([]string, len(routes))
	for i, r := range routes {
		if r == selected {
			parts[i] = "**" + string(r) + "**"
		} else {
			parts[i] = string(r)
		}
	}
	return strings.Join(parts, " | ")
}

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// SnapshotPrinter renders snapshots through glamour when out is a terminal
// and as plain markdown otherwise.
func SnapshotPrinter(out *os.File) func(view.Snapshot) string {
	if !IsTerminal(out) {
		return Checklist
	}
	render := NewRenderer()
	return func(s view.Snapshot) string {
		md := Checklist(s)
		rendered, err := render(md)
		if err != nil {
			return md
		}
		return rendered
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
