package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// DocumentPart is the package path of the main document body.
const DocumentPart = "word/document.xml"

const (
	nsMain       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsStrictMain = "http://purl.oclc.org/ooxml/wordprocessingml/main"
)

// ErrNoBody is returned when word/document.xml has no w:body element.
var ErrNoBody = errors.New("docx: document has no body")

// Open parses a .docx package held in memory.
func Open(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == DocumentPart {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("open docx: %s not found", DocumentPart)
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", DocumentPart, err)
	}
	defer rc.Close()

	src, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", DocumentPart, err)
	}

	blocks, err := parseBody(src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", DocumentPart, err)
	}
	return &Document{Blocks: blocks, source: src, container: data}, nil
}

func isW(n xml.Name, local string) bool {
	return n.Local == local && (n.Space == nsMain || n.Space == nsStrictMain)
}

// parser walks document.xml with byte offsets so every modelled element can be
// located again in the source when writing.
type parser struct {
	dec *xml.Decoder
	src []byte
}

func (p *parser) next() (tok xml.Token, start, end int, err error) {
	start = int(p.dec.InputOffset())
	tok, err = p.dec.Token()
	end = int(p.dec.InputOffset())
	return tok, start, end, err
}

// skip consumes the rest of the element whose start tag was just read and
// returns the offset just past its end tag.
func (p *parser) skip() (int, error) {
	if err := p.dec.Skip(); err != nil {
		return 0, err
	}
	return int(p.dec.InputOffset()), nil
}

func parseBody(src []byte) ([]Block, error) {
	p := &parser{dec: xml.NewDecoder(bytes.NewReader(src)), src: src}

	for {
		tok, _, _, err := p.next()
		if err == io.EOF {
			return nil, ErrNoBody
		}
		if err != nil {
			return nil, err
		}
		if se, ok := tok.(xml.StartElement); ok && isW(se.Name, "body") {
			return p.body()
		}
	}
}

func (p *parser) body() ([]Block, error) {
	var blocks []Block
	for {
		tok, start, _, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case isW(t.Name, "p"):
				para, err := p.paragraph(start)
				if err != nil {
					return nil, err
				}
				blocks = append(blocks, para)
			case isW(t.Name, "tbl"):
				tbl, err := p.table(start)
				if err != nil {
					return nil, err
				}
				blocks = append(blocks, tbl)
			default:
				if _, err := p.skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			return blocks, nil
		}
	}
}

// paragraph collects every run inside the paragraph, including runs nested in
// hyperlinks, insertions and simple fields. Deleted and moved-away content is
// not part of the visible text and is skipped.
func (p *parser) paragraph(start int) (*Paragraph, error) {
	para := &Paragraph{span: span{start: start}}
	depth := 0
	for {
		tok, s, e, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case isW(t.Name, "r"):
				run, err := p.run(s, e)
				if err != nil {
					return nil, err
				}
				para.Runs = append(para.Runs, run)
			case isW(t.Name, "pPr"), isW(t.Name, "del"), isW(t.Name, "moveFrom"):
				if _, err := p.skip(); err != nil {
					return nil, err
				}
			default:
				depth++
			}
		case xml.EndElement:
			if depth == 0 {
				para.span.end = e
				return para, nil
			}
			depth--
		}
	}
}

func (p *parser) run(start, tagEnd int) (Run, error) {
	r := Run{span: span{start: start}, openTag: string(p.src[start:tagEnd])}
	var text []byte
	for {
		tok, s, e, err := p.next()
		if err != nil {
			return Run{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case isW(t.Name, "rPr"):
				end, err := p.skip()
				if err != nil {
					return Run{}, err
				}
				r.props = string(p.src[s:end])
			case isW(t.Name, "t"):
				chunk, err := p.charData()
				if err != nil {
					return Run{}, err
				}
				text = append(text, chunk...)
			case isW(t.Name, "tab"), isW(t.Name, "ptab"):
				text = append(text, '\t')
				if _, err := p.skip(); err != nil {
					return Run{}, err
				}
			case isW(t.Name, "br"):
				if breakIsText(t) {
					text = append(text, '\n')
				}
				if _, err := p.skip(); err != nil {
					return Run{}, err
				}
			case isW(t.Name, "cr"):
				text = append(text, '\n')
				if _, err := p.skip(); err != nil {
					return Run{}, err
				}
			case isW(t.Name, "noBreakHyphen"):
				text = append(text, '-')
				if _, err := p.skip(); err != nil {
					return Run{}, err
				}
			default:
				if _, err := p.skip(); err != nil {
					return Run{}, err
				}
			}
		case xml.EndElement:
			r.span.end = e
			r.Text = string(text)
			r.orig = r.Text
			return r, nil
		}
	}
}

// breakIsText reports whether a w:br is a plain line break (page and column
// breaks carry no text).
func breakIsText(se xml.StartElement) bool {
	for _, a := range se.Attr {
		if a.Name.Local == "type" {
			return a.Value == "" || a.Value == "textWrapping"
		}
	}
	return true
}

// charData reads the text content of the element just opened, through its end tag.
func (p *parser) charData() ([]byte, error) {
	var out []byte
	for {
		tok, err := p.dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			out = append(out, t...)
		case xml.StartElement:
			if err := p.dec.Skip(); err != nil {
				return nil, err
			}
		case xml.EndElement:
			return out, nil
		}
	}
}

func (p *parser) table(start int) (*Table, error) {
	tbl := &Table{span: span{start: start}}
	for {
		tok, _, e, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if isW(t.Name, "tr") {
				row, err := p.row()
				if err != nil {
					return nil, err
				}
				tbl.Rows = append(tbl.Rows, row)
				continue
			}
			if _, err := p.skip(); err != nil {
				return nil, err
			}
		case xml.EndElement:
			tbl.span.end = e
			return tbl, nil
		}
	}
}

func (p *parser) row() (Row, error) {
	var row Row
	for {
		tok, s, e, err := p.next()
		if err != nil {
			return Row{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if isW(t.Name, "tc") {
				cell, err := p.cell(s, e)
				if err != nil {
					return Row{}, err
				}
				row.Cells = append(row.Cells, cell)
				continue
			}
			if _, err := p.skip(); err != nil {
				return Row{}, err
			}
		case xml.EndElement:
			return row, nil
		}
	}
}

// cell keeps only the cell's direct paragraphs; nested tables are left as raw XML.
func (p *parser) cell(start, tagEnd int) (*Cell, error) {
	c := &Cell{span: span{start: start}, openTag: string(p.src[start:tagEnd])}
	for {
		tok, s, e, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case isW(t.Name, "tcPr"):
				end, err := p.skip()
				if err != nil {
					return nil, err
				}
				c.props = string(p.src[s:end])
			case isW(t.Name, "p"):
				para, err := p.paragraph(s)
				if err != nil {
					return nil, err
				}
				c.Paragraphs = append(c.Paragraphs, para)
			default:
				if _, err := p.skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			c.span.end = e
			return c, nil
		}
	}
}
