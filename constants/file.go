package constants

import "strings"

const (
	DOCX = "DOCX"
	PDF  = "PDF"
)

// OutputFileName is the download name of a filled report.
const OutputFileName = "generated_glr.docx"

// MIME types we expect from uploads after content sniffing.
const (
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEPDF  = "application/pdf"
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns DOCX, PDF or "" for unsupported extensions.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "docx":
		return DOCX
	case "pdf":
		return PDF
	default:
		return ""
	}
}
