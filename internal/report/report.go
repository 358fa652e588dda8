// Package report prints run summaries for the command line.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/doctavious/snippext/internal/extraction"
)

// Styles holds the lipgloss styles used in summaries.
type Styles struct {
	Title     lipgloss.Style
	Label     lipgloss.Style
	Written   lipgloss.Style
	Unchanged lipgloss.Style
	Target    lipgloss.Style
	Error     lipgloss.Style
}

// NewStyles returns the styles bound to r.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:     r.NewStyle().Bold(true),
		Label:     r.NewStyle().Width(11),
		Written:   r.NewStyle().Foreground(lipgloss.Color("42")),
		Unchanged: r.NewStyle().Foreground(lipgloss.Color("241")),
		Target:    r.NewStyle().Foreground(lipgloss.Color("212")),
		Error:     r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

// Printer writes summaries to an output stream.
type Printer struct {
	w       io.Writer
	styles  Styles
	verbose bool
}

// NewPrinter creates a Printer for w. Colours are only emitted when w is
// a terminal. With verbose every path is listed.
func NewPrinter(w io.Writer, verbose bool) *Printer {
	return &Printer{
		w:       w,
		styles:  NewStyles(lipgloss.NewRenderer(w)),
		verbose: verbose,
	}
}

// Extract prints the summary of an extraction run.
func (p *Printer) Extract(res extraction.Result) error {
	var b strings.Builder
	title := fmt.Sprintf("snippext: %d %s, %d %s",
		res.Sources, plural(res.Sources, "source"),
		res.Snippets, plural(res.Snippets, "snippet"))
	b.WriteString(p.styles.Title.Render(title))
	b.WriteByte('\n')
	p.counts(&b, res)
	_, err := io.WriteString(p.w, b.String())
	return err
}

// Clear prints the summary of a clear run.
func (p *Printer) Clear(res extraction.Result) error {
	var b strings.Builder
	b.WriteString(p.styles.Title.Render(fmt.Sprintf("snippext: cleared %d %s",
		len(res.Targets), plural(len(res.Targets), "target"))))
	b.WriteByte('\n')
	p.counts(&b, res)
	_, err := io.WriteString(p.w, b.String())
	return err
}

// Error prints a failed run.
func (p *Printer) Error(err error) error {
	_, werr := fmt.Fprintln(p.w, p.styles.Error.Render("error:")+" "+err.Error())
	return werr
}

func (p *Printer) counts(b *strings.Builder, res extraction.Result) {
	line := func(label string, n int, style lipgloss.Style) {
		b.WriteString("  ")
		b.WriteString(p.styles.Label.Render(label))
		b.WriteString(style.Render(fmt.Sprint(n)))
		b.WriteByte('\n')
	}
	line("written", len(res.Written), p.styles.Written)
	line("unchanged", len(res.Unchanged), p.styles.Unchanged)
	line("targets", len(res.Targets), p.styles.Target)

	if !p.verbose {
		return
	}
	list := func(mark string, paths []string, style lipgloss.Style) {
		for _, path := range paths {
			b.WriteString("  ")
			b.WriteString(style.Render(mark + " " + path))
			b.WriteByte('\n')
		}
	}
	list("+", res.Written, p.styles.Written)
	list("~", res.Targets, p.styles.Target)
	list("=", res.Unchanged, p.styles.Unchanged)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
