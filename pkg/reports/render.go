// Package reports renders the report bodies published into ITFlow documents.
package reports

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const logPrefix = "reports:render"

var (
	markdownInstance goldmark.Markdown
	markdownOnce     sync.Once
)

func markdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownInstance
}

// RenderHTML converts Markdown source into the HTML stored as document content.
func RenderHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := markdown().Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("%s - failed to render markdown: %w", logPrefix, err)
	}
	return buf.String(), nil
}

// table accumulates a GFM table.
type table struct {
	b strings.Builder
}

func newTable(headers ...string) *table {
	t := &table{}
	t.row(headers...)
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	t.row(sep...)
	return t
}

func (t *table) row(cells ...string) {
	t.b.WriteString("|")
	for _, c := range cells {
		t.b.WriteString(" ")
		t.b.WriteString(cell(c))
		t.b.WriteString(" |")
	}
	t.b.WriteString("\n")
}

func (t *table) String() string { return t.b.String() }

// cell keeps a value on one table line.
func cell(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

// document assembles a titled Markdown report.
type document struct {
	b strings.Builder
}

func newDocument(title, generated string) *document {
	d := &document{}
	fmt.Fprintf(&d.b, "# %s\n\n_Generated %s_\n\n", title, generated)
	return d
}

func (d *document) section(heading string) {
	fmt.Fprintf(&d.b, "## %s\n\n", heading)
}

func (d *document) para(format string, args ...any) {
	fmt.Fprintf(&d.b, format, args...)
	d.b.WriteString("\n\n")
}

func (d *document) table(t *table) {
	d.b.WriteString(t.String())
	d.b.WriteString("\n")
}

func (d *document) html() (string, error) {
	return RenderHTML(d.b.String())
}
