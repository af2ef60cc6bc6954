package llm

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/glr-generator/constants"
	"github.com/joseph-ayodele/glr-generator/internal/common"
)

type promptText struct {
	intro       string
	instruction string
}

var promptTexts = map[constants.Variant]promptText{
	constants.USAA: {
		intro:       "You are a professional insurance adjuster assistant. Based on the photo report below, extract each of the following fields and return them in the format:",
		instruction: "If any field is not available, respond with 'Not observed'.",
	},
	constants.Wayne: {
		intro:       "You are a claims adjuster assistant. Based on the photo report below, return each of the following Wayne GLR fields in the format:",
		instruction: "If any field is not found, return 'Not observed'.",
	},
	constants.GuideOne: {
		intro:       "You are an expert adjuster assistant. Based on the report below, return each of the following GuideOne GLR fields in the format:",
		instruction: "If a field is not present in the text, return 'Not observed'.",
	},
}

// BuildPrompt renders the extraction prompt for a variant: an intro line, one
// "[FIELD]:" line per field in enumeration order, the not-observed instruction
// and the report text appended verbatim.
func BuildPrompt(variant constants.Variant, reportText string) (string, error) {
	text, ok := promptTexts[variant]
	if !ok {
		return "", common.NewAppError(common.CodeUnknownTemplate,
			fmt.Sprintf("no prompt for variant %q", variant), common.ErrTemplateUnknown)
	}

	var b strings.Builder
	b.WriteString(text.intro)
	b.WriteString("\n\n")
	for _, f := range constants.FieldsFor(variant) {
		b.WriteString(constants.Token(f))
		b.WriteString(":\n")
	}
	b.WriteString("\n")
	b.WriteString(text.instruction)
	b.WriteString("\n\nPHOTO REPORT:\n")
	b.WriteString(reportText)
	return b.String(), nil
}
