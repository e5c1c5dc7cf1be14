package console

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/iliyamo/displaydb/internal/model"
)

// Output formats.
const (
	FormatPlain = "plain" // labelled lines, one field per line
	FormatTable = "table" // boxed tables
)

const separator = "-----------------------"

// Printer writes everything the operator reads.  Status lines are
// coloured only when the writer is a colour terminal.
type Printer struct {
	w       io.Writer
	format  string
	success lipgloss.Style
	failure lipgloss.Style
	heading lipgloss.Style
}

// NewPrinter returns a Printer writing to w in format.
func NewPrinter(w io.Writer, format string) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		format:  format,
		success: r.NewStyle().Foreground(lipgloss.Color("2")),
		failure: r.NewStyle().Foreground(lipgloss.Color("1")),
		heading: r.NewStyle().Bold(true),
	}
}

// Println writes an unstyled line.
func (p *Printer) Println(a ...any) {
	_, _ = fmt.Fprintln(p.w, a...)
}

// Success writes a confirmation line.
func (p *Printer) Success(msg string) {
	_, _ = fmt.Fprintln(p.w, p.success.Render(msg))
}

// Error writes a failure line.
func (p *Printer) Error(msg string) {
	_, _ = fmt.Fprintln(p.w, p.failure.Render(msg))
}

// Heading writes a section title preceded by a blank line.
func (p *Printer) Heading(title string) {
	_, _ = fmt.Fprintln(p.w)
	_, _ = fmt.Fprintln(p.w, p.heading.Render(title))
}

// Displays writes a titled display listing.  An empty listing prints the
// title only.
func (p *Printer) Displays(title string, ds []model.Display) {
	p.Heading(title)
	if p.format == FormatTable {
		t := p.newTable()
		t.AppendHeader(table.Row{"Serial Number", "Scheduler System", "Model Number"})
		for _, d := range ds {
			t.AppendRow(table.Row{d.SerialNo, d.SchedulerSystem, d.ModelNo})
		}
		t.Render()
		return
	}
	for _, d := range ds {
		_, _ = fmt.Fprintf(p.w, "Serial Number: %s\nScheduler System: %s\nModel Number: %s\n%s\n",
			d.SerialNo, d.SchedulerSystem, d.ModelNo, separator)
	}
}

// Models writes a titled model listing.
func (p *Printer) Models(title string, ms []model.Model) {
	p.Heading(title)
	if p.format == FormatTable {
		t := p.newTable()
		t.AppendHeader(table.Row{"Model No", "Width", "Height", "Weight", "Depth", "Screen Size"})
		for _, m := range ms {
			t.AppendRow(table.Row{m.ModelNo, num(m.Width), num(m.Height), num(m.Weight), num(m.Depth), num(m.ScreenSize)})
		}
		t.Render()
		return
	}
	for _, m := range ms {
		p.modelLines(m)
	}
}

// ModelDetail writes the attributes of one model.
func (p *Printer) ModelDetail(m model.Model) {
	p.Models("Model Details:", []model.Model{m})
}

func (p *Printer) modelLines(m model.Model) {
	_, _ = fmt.Fprintf(p.w, "Model No: %s\nWidth: %s\nHeight: %s\nWeight: %s\nDepth: %s\nScreen Size: %s\n%s\n",
		m.ModelNo, num(m.Width), num(m.Height), num(m.Weight), num(m.Depth), num(m.ScreenSize), separator)
}

func (p *Printer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.SetStyle(table.StyleLight)
	return t
}

// num keeps one decimal on whole numbers: 10 prints as "10.0".
func num(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
