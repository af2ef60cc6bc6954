// Package detect decides which insurer GLR template a document is.
package detect

import (
	"strings"

	"github.com/joseph-ayodele/glr-generator/constants"
	"github.com/joseph-ayodele/glr-generator/internal/docx"
)

const (
	xm8Marker      = "[XM8_"
	guideOneMarker = "GUIDEONE"
	usaaMarker     = "[INSURED_NAME]"
)

// Classify maps template text to a variant. Rules are checked in order and the
// first match wins; text matching none of them is Unknown.
func Classify(text string) constants.Variant {
	switch {
	case strings.Contains(text, xm8Marker) && strings.Contains(strings.ToUpper(text), guideOneMarker):
		return constants.GuideOne
	case strings.Contains(text, xm8Marker):
		return constants.Wayne
	case strings.Contains(text, usaaMarker):
		return constants.USAA
	default:
		return constants.Unknown
	}
}

// Document classifies a parsed template using its paragraph and cell text.
func Document(doc *docx.Document) constants.Variant {
	return Classify(doc.Text())
}
