package docx_test

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/glr-generator/internal/docx"
	"github.com/joseph-ayodele/glr-generator/internal/docx/docxtest"
	"github.com/joseph-ayodele/glr-generator/internal/entity"
)

func readPart(t *testing.T, pkg []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(pkg), int64(len(pkg)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func open(t *testing.T, body string) *docx.Document {
	t.Helper()
	doc, err := docx.Open(docxtest.Build(body))
	require.NoError(t, err)
	return doc
}

func fields(kv ...string) entity.Fields {
	var fs entity.Fields
	for i := 0; i+1 < len(kv); i += 2 {
		fs = fs.Set(kv[i], kv[i+1])
	}
	return fs
}

func TestOpen(t *testing.T) {
	t.Run("paragraphs and tables", func(t *testing.T) {
		doc := open(t,
			docxtest.Table([]string{"Claim", "[CLAIM]"})+
				docxtest.P("Insured: ", docxtest.Bold("[INSURED_NAME]"))+
				docxtest.P("second"),
		)

		require.Len(t, doc.Paragraphs(), 2)
		require.Len(t, doc.Tables(), 1)
		assert.Equal(t, "Insured: [INSURED_NAME]", doc.Paragraphs()[0].Text())
		assert.Len(t, doc.Paragraphs()[0].Runs, 2)
		// Paragraph texts come before cell texts regardless of body order.
		assert.Equal(t, "Insured: [INSURED_NAME]\nsecond\nClaim\n[CLAIM]", doc.Text())
	})

	t.Run("tabs and breaks", func(t *testing.T) {
		doc := open(t, `<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t><w:br w:type="page"/></w:r></w:p>`)
		assert.Equal(t, "a\tb\nc", doc.Text())
	})

	t.Run("deleted text is not visible", func(t *testing.T) {
		doc := open(t, `<w:p><w:del w:id="1"><w:r><w:delText>gone</w:delText></w:r></w:del><w:ins w:id="2"><w:r><w:t>kept</w:t></w:r></w:ins></w:p>`)
		assert.Equal(t, "kept", doc.Text())
	})

	t.Run("not a zip", func(t *testing.T) {
		_, err := docx.Open([]byte("plain text"))
		assert.Error(t, err)
	})

	t.Run("missing document part", func(t *testing.T) {
		pkg := docxtest.Package(map[string]string{"word/other.xml": "<x/>"})
		_, err := docx.Open(pkg)
		assert.ErrorContains(t, err, docx.DocumentPart)
	})

	t.Run("no body", func(t *testing.T) {
		pkg := docxtest.Package(map[string]string{
			"word/document.xml": `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"></w:document>`,
		})
		_, err := docx.Open(pkg)
		assert.ErrorIs(t, err, docx.ErrNoBody)
	})
}

func TestPlaceholders(t *testing.T) {
	doc := open(t,
		docxtest.P("[B] and [A]")+
			docxtest.P("[B] again, [lower] ignored")+
			docxtest.Table([]string{"[C_1]"}),
	)
	assert.Equal(t, []string{"B", "A", "C_1"}, doc.Placeholders())
}

func TestFillParagraphs(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		fields   entity.Fields
		want     string
		replaced int
	}{
		{
			name:     "single token",
			body:     docxtest.P("Insured: [INSURED_NAME]"),
			fields:   fields("INSURED_NAME", "John Doe"),
			want:     "Insured: John Doe",
			replaced: 1,
		},
		{
			name:     "repeated token",
			body:     docxtest.P("[X] / [X]"),
			fields:   fields("X", "1"),
			want:     "1 / 1",
			replaced: 2,
		},
		{
			name:     "absent field keeps token",
			body:     docxtest.P("[DATE_LOSS] [INSURED_NAME]"),
			fields:   fields("INSURED_NAME", "Jane"),
			want:     "[DATE_LOSS] Jane",
			replaced: 1,
		},
		{
			name:     "token split across runs is left alone",
			body:     docxtest.P(docxtest.R("[INSURED_"), docxtest.Bold("NAME]")),
			fields:   fields("INSURED_NAME", "John Doe"),
			want:     "[INSURED_NAME]",
			replaced: 0,
		},
		{
			name:     "token in a field value is not rescanned",
			body:     docxtest.P("[A]"),
			fields:   fields("B", "x", "A", "[B]"),
			want:     "[B]",
			replaced: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := open(t, tt.body)
			filled, stats := docx.Fill(doc, tt.fields)

			assert.Equal(t, tt.want, filled.Paragraphs()[0].Text())
			assert.Equal(t, tt.replaced, stats.Replacements)
			assert.Zero(t, stats.Cells)
		})
	}
}

func TestFillDoesNotMutateInput(t *testing.T) {
	doc := open(t, docxtest.P("[A]")+docxtest.Table([]string{"[A]"}))
	before := doc.Text()

	filled, stats := docx.Fill(doc, fields("A", "value"))

	assert.Equal(t, before, doc.Text())
	assert.Equal(t, "value\nvalue", filled.Text())
	assert.Equal(t, docx.FillStats{Replacements: 2, Paragraphs: 1, Cells: 1}, stats)
}

func TestFillCells(t *testing.T) {
	body := `<w:tbl><w:tr><w:tc><w:tcPr><w:shd w:fill="EEEEEE"/></w:tcPr>` +
		docxtest.P(docxtest.Bold("Name: "), docxtest.R("[INSURED_NAME]")) +
		docxtest.P("second line") +
		`</w:tc><w:tc>` + docxtest.P("untouched") + `</w:tc></w:tr></w:tbl>`
	doc := open(t, body)

	filled, stats := docx.Fill(doc, fields("INSURED_NAME", "John Doe"))
	require.Equal(t, 1, stats.Cells)

	cells := filled.Tables()[0].Cells()
	assert.Equal(t, "Name: John Doe\nsecond line", cells[0].Text())
	assert.True(t, cells[0].Rewritten())
	require.Len(t, cells[0].Paragraphs, 1)
	require.Len(t, cells[0].Paragraphs[0].Runs, 1)
	assert.False(t, cells[1].Rewritten())

	out, err := filled.Bytes()
	require.NoError(t, err)
	xml := readPart(t, out, docx.DocumentPart)
	assert.Contains(t, xml, `<w:tc><w:tcPr><w:shd w:fill="EEEEEE"/></w:tcPr><w:p><w:r><w:t>Name: John Doe</w:t><w:br/><w:t>second line</w:t></w:r></w:p></w:tc>`)
	assert.Contains(t, xml, `untouched`)

	reopened, err := docx.Open(out)
	require.NoError(t, err)
	assert.Equal(t, "Name: John Doe\nsecond line\nuntouched", reopened.Text())
}

func TestBytes(t *testing.T) {
	t.Run("unchanged document keeps body bytes", func(t *testing.T) {
		body := docxtest.P("Hello [A]") + docxtest.Table([]string{"[B]"})
		pkg := docxtest.Build(body)
		doc, err := docx.Open(pkg)
		require.NoError(t, err)

		out, err := doc.Bytes()
		require.NoError(t, err)
		assert.Equal(t, readPart(t, pkg, docx.DocumentPart), readPart(t, out, docx.DocumentPart))
	})

	t.Run("run formatting survives", func(t *testing.T) {
		doc := open(t, docxtest.P("Insured: ", docxtest.Bold("[INSURED_NAME]")))
		filled, _ := docx.Fill(doc, fields("INSURED_NAME", "John Doe"))

		out, err := filled.Bytes()
		require.NoError(t, err)
		xml := readPart(t, out, docx.DocumentPart)
		assert.Contains(t, xml, `<w:r><w:rPr><w:b/></w:rPr><w:t>John Doe</w:t></w:r>`)
		assert.Contains(t, xml, `<w:sectPr>`)
	})

	t.Run("values are escaped and line breaks kept", func(t *testing.T) {
		doc := open(t, docxtest.P("[A]"))
		value := "Smith & Sons <LLC>\nRoof\tdamaged "
		filled, _ := docx.Fill(doc, fields("A", value))

		out, err := filled.Bytes()
		require.NoError(t, err)
		xml := readPart(t, out, docx.DocumentPart)
		assert.Contains(t, xml, "Smith &amp; Sons &lt;LLC&gt;")
		assert.Contains(t, xml, `<w:t xml:space="preserve">damaged </w:t>`)

		reopened, err := docx.Open(out)
		require.NoError(t, err)
		assert.Equal(t, value, reopened.Text())
	})

	t.Run("other parts are carried over", func(t *testing.T) {
		styles := `<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"/>`
		pkg := docxtest.Package(map[string]string{
			"word/document.xml": docxtest.DocumentXML(docxtest.P("[A]")),
			"word/styles.xml":   styles,
		})
		doc, err := docx.Open(pkg)
		require.NoError(t, err)
		filled, _ := docx.Fill(doc, fields("A", "b"))

		out, err := filled.Bytes()
		require.NoError(t, err)
		assert.Equal(t, styles, readPart(t, out, "word/styles.xml"))
		assert.Equal(t, readPart(t, pkg, "[Content_Types].xml"), readPart(t, out, "[Content_Types].xml"))
	})
}
