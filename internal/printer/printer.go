package printer

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Printer writes human-facing CLI output. Colors follow fatih/color's TTY and
// NO_COLOR detection.
type Printer struct {
	out io.Writer
}

func New(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Success prints a line in green with a checkmark prefix
func (p *Printer) Success(format string, a ...any) {
	green.Fprintf(p.out, "✓ %s\n", fmt.Sprintf(format, a...))
}

// Failure prints a line in bold red with a cross prefix
func (p *Printer) Failure(format string, a ...any) {
	red.Fprintf(p.out, "✗ %s\n", fmt.Sprintf(format, a...))
}

func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.out, "⚠ %s\n", fmt.Sprintf(format, a...))
}

func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.out, format+"\n", a...)
}

// Field prints an aligned "label: value" pair with the label in cyan
func (p *Printer) Field(label, value string) {
	cyan.Fprintf(p.out, "  %-12s", label+":")
	fmt.Fprintf(p.out, " %s\n", value)
}
