// Package render writes health reports, work items, pull requests and
// snapshot history as terminal tables, JSON, Markdown or HTML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
)

// Format selects the output encoding.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// DefaultLimit is the number of items listed per alert or section before the
// remainder is summarized.
const DefaultLimit = 5

// ParseFormat accepts table, json, markdown (or md) and html,
// case-insensitively. An empty string means table.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown format %q: expected table, json, markdown or html", s)
	}
}

// Options controls rendering. The zero value renders a colored table with
// DefaultLimit items per group, measuring ages against the current time.
type Options struct {
	Format  Format
	Limit   int // 0 means DefaultLimit; negative means no truncation.
	Now     time.Time
	NoColor bool
	// Footer is rendered after the body of HTML pages.
	Footer templ.Component
}

func (o Options) limit() int {
	if o.Limit == 0 {
		return DefaultLimit
	}
	return o.Limit
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// emit writes v as indented JSON, or the document built by build in the
// requested text format.
func emit(w io.Writer, opts Options, title string, v any, build func(d *doc)) error {
	switch opts.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	case FormatMarkdown, FormatHTML:
		d := &doc{mode: modeMarkdown, noColor: true}
		build(d)
		if opts.Format == FormatHTML {
			return writeHTML(w, title, d.String(), opts.Footer)
		}
		_, err := io.WriteString(w, d.String())
		return err
	case FormatTable, "":
		d := &doc{mode: modeText, noColor: opts.NoColor}
		build(d)
		_, err := io.WriteString(w, d.String())
		return err
	default:
		return fmt.Errorf("unsupported format %q", opts.Format)
	}
}

// truncate returns at most limit leading elements of items and how many were
// left out. It never modifies items.
func truncate[T any](items []T, limit int) ([]T, int) {
	if limit < 0 || len(items) <= limit {
		return items, 0
	}
	return items[:limit:limit], len(items) - limit
}

func moreLine(n int) string {
	return fmt.Sprintf("...and %d more", n)
}
