package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVariant(t *testing.T) {
	tests := []struct {
		in     string
		want   Variant
		wantOK bool
	}{
		{"USAA", USAA, true},
		{"usaa", USAA, true},
		{"  guideone ", GuideOne, true},
		{"WAYNE", Wayne, true},
		{"unknown", Unknown, false},
		{"", Unknown, false},
		{"xm8", Unknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseVariant(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestFieldsFor(t *testing.T) {
	assert.Len(t, FieldsFor(USAA), 27)
	assert.Len(t, FieldsFor(Wayne), 18)
	assert.Len(t, FieldsFor(GuideOne), 19)
	assert.Nil(t, FieldsFor(Unknown))

	got := FieldsFor(USAA)
	got[0] = "CHANGED"
	assert.Equal(t, "INSURED_NAME", FieldsFor(USAA)[0])
}
