package render

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type mode int

const (
	modeText     mode = iota // Fixed-width terminal tables
	modeMarkdown             // GitHub-flavoured Markdown
)

// doc accumulates headings, paragraphs and tables in one output mode.
type doc struct {
	mode    mode
	noColor bool
	b       strings.Builder
}

func (d *doc) gap() {
	if d.b.Len() > 0 {
		d.b.WriteString("\n")
	}
}

func (d *doc) title(s string) {
	d.gap()
	if d.mode == modeMarkdown {
		d.b.WriteString("# " + s + "\n")
		return
	}
	d.b.WriteString(d.paint(s, text.Bold) + "\n")
}

func (d *doc) heading(s string) {
	d.gap()
	if d.mode == modeMarkdown {
		d.b.WriteString("## " + s + "\n")
		return
	}
	d.b.WriteString(d.paint(strings.ToUpper(s), text.Bold) + "\n")
}

func (d *doc) line(s string) {
	d.b.WriteString(s + "\n")
}

func (d *doc) para(s string) {
	d.gap()
	d.line(s)
}

// strong emphasizes s: bold markdown, or bold terminal text.
func (d *doc) strong(s string) string {
	if d.mode == modeMarkdown {
		return "**" + s + "**"
	}
	return d.paint(s, text.Bold)
}

// paint colors s unless colors are off.
func (d *doc) paint(s string, colors ...text.Color) string {
	if d.noColor || d.mode == modeMarkdown || len(colors) == 0 {
		return s
	}
	return text.Colors(colors).Sprint(s)
}

func (d *doc) newTable(header ...any) table.Writer {
	t := table.NewWriter()
	if d.mode == modeText {
		t.SetStyle(table.StyleLight)
	}
	t.AppendHeader(table.Row(header))
	return t
}

func (d *doc) table(t table.Writer) {
	d.gap()
	if d.mode == modeMarkdown {
		d.line(t.RenderMarkdown())
		return
	}
	d.line(t.Render())
}

func (d *doc) String() string {
	return d.b.String()
}
