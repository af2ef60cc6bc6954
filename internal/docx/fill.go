package docx

import (
	"strings"

	"github.com/joseph-ayodele/glr-generator/constants"
	"github.com/joseph-ayodele/glr-generator/internal/entity"
)

// FillStats summarises what Fill changed.
type FillStats struct {
	Replacements int // token occurrences substituted
	Paragraphs   int // body paragraphs with at least one substitution
	Cells        int // table cells whose text was reassigned
}

// Fill returns a copy of doc with every [NAME] token replaced by the value of
// the field NAME. doc itself is not modified.
//
// Body paragraphs are substituted run by run: a token is only replaced inside
// a run whose own text holds the whole token, so a token split across runs by
// a formatting boundary is left as is. Table cells are substituted on their
// full text and collapse to a single unformatted run when touched. Tokens for
// fields missing from fields are never altered.
func Fill(doc *Document, fields entity.Fields) (*Document, FillStats) {
	out := doc.clone()
	var stats FillStats

	for _, para := range out.Paragraphs() {
		if n := fillParagraph(para, fields); n > 0 {
			stats.Replacements += n
			stats.Paragraphs++
		}
	}
	for _, tbl := range out.Tables() {
		for _, cell := range tbl.Cells() {
			if n := fillCell(cell, fields); n > 0 {
				stats.Replacements += n
				stats.Cells++
			}
		}
	}
	return out, stats
}

func fillParagraph(p *Paragraph, fields entity.Fields) int {
	replaced := 0
	for _, f := range fields {
		token := constants.Token(f.Name)
		if !strings.Contains(p.Text(), token) {
			continue
		}
		for i := range p.Runs {
			r := &p.Runs[i]
			if n := strings.Count(r.Text, token); n > 0 {
				r.Text = strings.ReplaceAll(r.Text, token, f.Value)
				replaced += n
			}
		}
	}
	return replaced
}

func fillCell(c *Cell, fields entity.Fields) int {
	replaced := 0
	for _, f := range fields {
		token := constants.Token(f.Name)
		text := c.Text()
		if n := strings.Count(text, token); n > 0 {
			c.SetText(strings.ReplaceAll(text, token, f.Value))
			replaced += n
		}
	}
	return replaced
}
