package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

type edit struct {
	span
	text string
}

// Bytes serialises the document back into a complete .docx package. Only the
// runs and cells changed since Open are rewritten; every other byte of
// word/document.xml and every other package part is carried over unchanged.
func (d *Document) Bytes() ([]byte, error) {
	body := d.render()

	zr, err := zip.NewReader(bytes.NewReader(d.container), int64(len(d.container)))
	if err != nil {
		return nil, fmt.Errorf("reopen docx: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		if f.Name != DocumentPart {
			if err := zw.Copy(f); err != nil {
				return nil, fmt.Errorf("copy %s: %w", f.Name, err)
			}
			continue
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: f.Modified,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", f.Name, err)
		}
		if _, err := io.Copy(w, bytes.NewReader(body)); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close docx: %w", err)
	}
	return buf.Bytes(), nil
}

// render splices the changed elements into the original document.xml.
func (d *Document) render() []byte {
	var edits []edit
	for _, b := range d.Blocks {
		switch v := b.(type) {
		case *Paragraph:
			for i := range v.Runs {
				if r := &v.Runs[i]; r.changed() {
					edits = append(edits, edit{span: r.span, text: renderRun(r)})
				}
			}
		case *Table:
			for _, c := range v.Cells() {
				if c.Rewritten() {
					edits = append(edits, edit{span: c.span, text: renderCell(c)})
				}
			}
		}
	}
	if len(edits) == 0 {
		return d.source
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var out bytes.Buffer
	out.Grow(len(d.source))
	pos := 0
	for _, e := range edits {
		out.Write(d.source[pos:e.start])
		out.WriteString(e.text)
		pos = e.end
	}
	out.Write(d.source[pos:])
	return out.Bytes()
}

// prefixOf returns the namespace prefix used in a raw start tag ("w" for "<w:r>").
func prefixOf(openTag string) string {
	tag := strings.TrimPrefix(openTag, "<")
	if i := strings.IndexAny(tag, ": />"); i >= 0 && tag[i] == ':' {
		return tag[:i]
	}
	return ""
}

func qualify(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

func renderRun(r *Run) string {
	prefix := prefixOf(r.openTag)
	var b strings.Builder
	b.WriteString(r.openTag)
	b.WriteString(r.props)
	writeRunContent(&b, prefix, r.Text)
	b.WriteString("</" + qualify(prefix, "r") + ">")
	return b.String()
}

func renderCell(c *Cell) string {
	prefix := prefixOf(c.openTag)
	var b strings.Builder
	b.WriteString(c.openTag)
	b.WriteString(c.props)
	b.WriteString("<" + qualify(prefix, "p") + ">")
	b.WriteString("<" + qualify(prefix, "r") + ">")
	writeRunContent(&b, prefix, c.Text())
	b.WriteString("</" + qualify(prefix, "r") + ">")
	b.WriteString("</" + qualify(prefix, "p") + ">")
	b.WriteString("</" + qualify(prefix, "tc") + ">")
	return b.String()
}

// writeRunContent emits text as w:t elements, turning tabs into w:tab and
// line breaks into w:br.
func writeRunContent(b *strings.Builder, prefix, text string) {
	var pending strings.Builder
	flush := func() {
		if pending.Len() == 0 {
			return
		}
		s := pending.String()
		pending.Reset()
		b.WriteString("<" + qualify(prefix, "t"))
		if strings.TrimSpace(s) != s {
			b.WriteString(` xml:space="preserve"`)
		}
		b.WriteString(">")
		_ = xml.EscapeText(b, []byte(s))
		b.WriteString("</" + qualify(prefix, "t") + ">")
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, ch := range text {
		switch ch {
		case '\t':
			flush()
			b.WriteString("<" + qualify(prefix, "tab") + "/>")
		case '\n', '\r':
			flush()
			b.WriteString("<" + qualify(prefix, "br") + "/>")
		default:
			pending.WriteRune(ch)
		}
	}
	flush()
}
