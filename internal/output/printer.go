package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

type Class int

const (
	Required Class = iota
	Error
	Normal
	Verbose
)

// ClassesFor returns the output classes enabled at the given verbosity.
func ClassesFor(verbose bool, quiet bool) []Class {
	switch {
	case quiet:
		return []Class{Required, Error}
	case verbose:
		return []Class{Required, Error, Normal, Verbose}
	}
	return []Class{Required, Error, Normal}
}

// Printer routes output by class: Error goes to the diagnosis writer, everything else to the terminal writer.
// Classes not included are dropped.
type Printer struct {
	classes   map[Class]bool
	terminal  io.Writer
	diagnosis io.Writer
	styles    Styles
}

func NewPrinter(terminal io.Writer, diagnosis io.Writer, include []Class, plain bool) (p Printer) {
	p = Printer{
		classes:   map[Class]bool{},
		terminal:  terminal,
		diagnosis: diagnosis,
		styles:    NewStyles(terminal, plain),
	}
	for _, class := range include {
		p.classes[class] = true
	}
	return
}

func (p Printer) Out(class Class, format string, values ...any) {
	if !p.classes[class] {
		return
	}
	target := p.terminal
	if class == Error {
		target = p.diagnosis
	}
	fmt.Fprintf(target, format, values...)
}

func (p Printer) Styles() Styles {
	return p.styles
}

// Styles renders emphasis for terminals. In plain mode every method returns its input unchanged.
type Styles struct {
	plain  bool
	dim    lipgloss.Style
	tag    lipgloss.Style
	path   lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	prompt lipgloss.Style
}

func NewStyles(w io.Writer, plain bool) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		plain:  plain,
		dim:    r.NewStyle().Faint(true),
		tag:    r.NewStyle().Foreground(lipgloss.Color("#10B981")),
		path:   r.NewStyle().Bold(true),
		err:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		prompt: r.NewStyle().Foreground(lipgloss.Color("#3B82F6")),
	}
}

func (s Styles) render(style lipgloss.Style, text string) string {
	if s.plain {
		return text
	}
	return style.Render(text)
}

func (s Styles) Dim(text string) string    { return s.render(s.dim, text) }
func (s Styles) Tag(text string) string    { return s.render(s.tag, text) }
func (s Styles) Path(text string) string   { return s.render(s.path, text) }
func (s Styles) Error(text string) string  { return s.render(s.err, text) }
func (s Styles) Warn(text string) string   { return s.render(s.warn, text) }
func (s Styles) Prompt(text string) string { return s.render(s.prompt, text) }
