package constants

import (
	"strings"
)

// Variant identifies which insurer GLR template was uploaded.
type Variant string

const (
	USAA     Variant = "USAA"
	Wayne    Variant = "Wayne"
	GuideOne Variant = "GuideOne"
	Unknown  Variant = "Unknown"
)

// NotObserved is what the model is told to answer for fields missing from the report.
const NotObserved = "Not observed"

var allVariants = []Variant{USAA, Wayne, GuideOne}

var usaaFields = []string{
	"INSURED_NAME", "DATE_LOSS", "DATE_RECEIVED", "DATE_INSPECTED",
	"MORTGAGEE", "INSURED_H_STREET", "INSURED_H_CITY", "INSURED_H_STATE",
	"INSURED_H_ZIP", "DWELLING_DESCRIPTION", "PROPERTY_CONDITION", "INSPECTION_SUMMARY",
	"DWELLING_SECTION", "ELEVATION_SECTION", "INTERIOR_SECTION", "OTHER_STRUCTURES_SECTION",
	"CONTENTS_SECTION", "REVIEW_SECTION", "SUPPLEMENT_SECTION", "PRIORS_SECTION",
	"CODE_ITEMS_SECTION", "OVERHEAD_PROFIT_SECTION", "MICA_QA_SECTION", "MORTGAGEE_SECTION",
	"CAUSE_ORIGIN_SECTION", "SUBROGATION_SECTION", "SALVAGE_SECTION",
}

var wayneFields = []string{
	"XM8_INSURED_NAME", "XM8_DATE_LOSS", "XM8_DATE_INSPECTED", "XM8_ESTIMATOR_NAME",
	"XM8_ESTIMATOR_E_MAIL", "XM8_ESTIMATOR_C_PHONE", "XM8_CLAIM_NUMBER", "XM8_LOCATION_LOSS",
	"XM8_RISK_INFO", "XM8_CAUSE_ORIGIN", "XM8_INSPECTION_SUMMARY", "XM8_INTERIOR_SECTION",
	"XM8_CONTENTS_SECTION", "XM8_REVIEW_SECTION", "XM8_SUPPLEMENT_SECTION", "XM8_SALVAGE_SECTION",
	"XM8_SUBROGATION_SECTION", "XM8_DATE_CURRENT",
}

var guideOneFields = []string{
	"XM8_INSURED_NAME", "XM8_DATE_LOSS", "XM8_DATE_INSPECTED", "XM8_DATE_CURRENT",
	"XM8_ESTIMATOR_NAME", "XM8_ESTIMATOR_E_MAIL", "XM8_ESTIMATOR_C_PHONE", "XM8_INSURED_P_STREET",
	"XM8_INSURED_P_CITY", "XM8_INSURED_P_STATE", "XM8_INSURED_P_ZIP", "XM8_CLAIM_NUMBER",
	"XM8_LOCATION_LOSS", "XM8_RISK_INFO", "XM8_CAUSE_ORIGIN", "XM8_INTERIOR_SECTION",
	"XM8_SALVAGE_SECTION", "XM8_SUBROGATION_SECTION", "XM8_REVIEW_SECTION",
}

// FieldsFor returns a copy of the ordered field enumeration for v.
// Unknown (or any unrecognised value) has no fields.
func FieldsFor(v Variant) []string {
	var src []string
	switch v {
	case USAA:
		src = usaaFields
	case Wayne:
		src = wayneFields
	case GuideOne:
		src = guideOneFields
	default:
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Variants lists the supported (non-Unknown) variants.
func Variants() []Variant {
	out := make([]Variant, len(allVariants))
	copy(out, allVariants)
	return out
}

// Token renders the placeholder token for a field name.
func Token(field string) string {
	return "[" + field + "]"
}

// ParseVariant maps user input such as "guideone" or "USAA" onto a Variant.
func ParseVariant(input string) (Variant, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return Unknown, false
	}
	for _, v := range allVariants {
		if normalized == strings.ToLower(string(v)) {
			return v, true
		}
	}
	return Unknown, false
}
