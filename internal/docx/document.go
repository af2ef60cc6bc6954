// Package docx models the body of a WordprocessingML document as a typed tree
// (paragraphs of runs, tables of rows of cells) and writes substitutions back
// into the original package without disturbing the XML it does not model.
package docx

import (
	"regexp"
	"strings"
)

// Block is a top-level body element: *Paragraph or *Table.
type Block interface {
	block()
}

// span is a half-open byte range inside word/document.xml.
type span struct {
	start, end int
}

// Run is a stretch of text sharing one set of run properties.
type Run struct {
	Text string

	span    span
	openTag string // raw <w:r ...> start tag
	props   string // raw <w:rPr> element, "" if absent
	orig    string // text as parsed
}

// changed reports whether Text differs from what was read.
func (r *Run) changed() bool {
	return r.Text != r.orig
}

// Paragraph is an ordered list of runs.
type Paragraph struct {
	Runs []Run

	span span
}

func (*Paragraph) block() {}

// Text is the concatenated text of all runs.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

func (p *Paragraph) clone() *Paragraph {
	cp := *p
	cp.Runs = append([]Run(nil), p.Runs...)
	return &cp
}

// Cell is a table cell holding its own paragraphs.
type Cell struct {
	Paragraphs []*Paragraph

	span     span
	openTag  string  // raw <w:tc ...> start tag
	props    string  // raw <w:tcPr> element
	assigned *string // set once the cell text has been reassigned
}

// Text joins the cell's paragraph texts with newlines.
func (c *Cell) Text() string {
	if c.assigned != nil {
		return *c.assigned
	}
	parts := make([]string, len(c.Paragraphs))
	for i, p := range c.Paragraphs {
		parts[i] = p.Text()
	}
	return strings.Join(parts, "\n")
}

// SetText replaces the whole cell content with a single unformatted run.
// Cell properties survive; paragraph and run formatting do not.
func (c *Cell) SetText(text string) {
	c.assigned = &text
	c.Paragraphs = []*Paragraph{{Runs: []Run{{Text: text}}}}
}

// Rewritten reports whether SetText has been called.
func (c *Cell) Rewritten() bool {
	return c.assigned != nil
}

func (c *Cell) clone() *Cell {
	cp := *c
	cp.Paragraphs = make([]*Paragraph, len(c.Paragraphs))
	for i, p := range c.Paragraphs {
		cp.Paragraphs[i] = p.clone()
	}
	if c.assigned != nil {
		s := *c.assigned
		cp.assigned = &s
	}
	return &cp
}

// Row is a table row.
type Row struct {
	Cells []*Cell
}

// Table is a grid of cells.
type Table struct {
	Rows []Row

	span span
}

func (*Table) block() {}

// Cells returns every cell in row-major order.
func (t *Table) Cells() []*Cell {
	var out []*Cell
	for _, row := range t.Rows {
		out = append(out, row.Cells...)
	}
	return out
}

func (t *Table) clone() *Table {
	cp := *t
	cp.Rows = make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]*Cell, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = c.clone()
		}
		cp.Rows[i] = Row{Cells: cells}
	}
	return &cp
}

// Document is the body of a .docx package.
type Document struct {
	Blocks []Block

	source    []byte // word/document.xml as read
	container []byte // the whole package
}

// Paragraphs returns the top-level body paragraphs in order.
func (d *Document) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, b := range d.Blocks {
		if p, ok := b.(*Paragraph); ok {
			out = append(out, p)
		}
	}
	return out
}

// Tables returns the top-level body tables in order.
func (d *Document) Tables() []*Table {
	var out []*Table
	for _, b := range d.Blocks {
		if t, ok := b.(*Table); ok {
			out = append(out, t)
		}
	}
	return out
}

// Text is every paragraph text followed by every table-cell text, newline joined.
func (d *Document) Text() string {
	var parts []string
	for _, p := range d.Paragraphs() {
		parts = append(parts, p.Text())
	}
	for _, t := range d.Tables() {
		for _, c := range t.Cells() {
			parts = append(parts, c.Text())
		}
	}
	return strings.Join(parts, "\n")
}

var placeholderRe = regexp.MustCompile(`\[([A-Z0-9_]+)\]`)

// Placeholders lists the distinct field names of [FIELD] tokens still present
// in the document text, in order of first appearance.
func (d *Document) Placeholders() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, m := range placeholderRe.FindAllStringSubmatch(d.Text(), -1) {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}

func (d *Document) clone() *Document {
	cp := &Document{
		Blocks:    make([]Block, len(d.Blocks)),
		source:    d.source,
		container: d.container,
	}
	for i, b := range d.Blocks {
		switch v := b.(type) {
		case *Paragraph:
			cp.Blocks[i] = v.clone()
		case *Table:
			cp.Blocks[i] = v.clone()
		}
	}
	return cp
}
