package common

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalDocx(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		require.NoError(t, err)
		_, err = w.Write([]byte("<x/>"))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestValidateUploads(t *testing.T) {
	docx := Upload{Name: "template.DOCX", Data: minimalDocx(t)}
	pdf := Upload{Name: "report.pdf", Data: []byte("%PDF-1.7\n%%EOF")}

	tests := []struct {
		name     string
		template Upload
		report   *Upload
		max      int64
		wantErr  string
	}{
		{"valid pair", docx, &pdf, 0, ""},
		{"template only", docx, nil, 0, ""},
		{"missing template", Upload{Name: "t.docx"}, &pdf, 0, "template"},
		{"template extension", Upload{Name: "t.doc", Data: docx.Data}, &pdf, 0, "must be a .docx file"},
		{"report extension", docx, &Upload{Name: "r.txt", Data: pdf.Data}, 0, "must be a .pdf file"},
		{"report content", docx, &Upload{Name: "r.pdf", Data: []byte("hello world")}, 0, "want application/pdf"},
		{"too large", docx, &pdf, 8, "must be at most 8 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUploads(tt.template, tt.report, tt.max)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, CodeInvalidUpload, ErrorCode(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidatorCollectsAll(t *testing.T) {
	v := NewValidator().
		Field("name", "  ", Required).
		Field("data", []byte{}, Required)
	assert.True(t, v.HasErrors())
	assert.Len(t, v.Errors(), 2)
	assert.Contains(t, v.ErrorMessage(), "name")
	assert.Contains(t, v.ErrorMessage(), "data")
}
