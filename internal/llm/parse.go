package llm

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/glr-generator/internal/entity"
)

// markerRe matches a line that opens a field: "[NAME]:" at column 0.
var markerRe = regexp.MustCompile(`^\[([A-Z0-9_]+)\]:(.*)$`)

// ParseReply extracts "[NAME]: value" blocks from a model reply. A value runs
// from the marker to the next marker line or the end of the reply and may span
// lines. Text before the first marker is ignored, names and values are
// trimmed and a repeated name keeps its last value. A marker with nothing
// after it is kept with an empty value, so its token is blanked in the
// document rather than left visible. A reply with no markers yields an empty
// result.
func ParseReply(reply string) entity.Fields {
	reply = strings.ReplaceAll(reply, "\r\n", "\n")

	var (
		out     entity.Fields
		name    string
		value   []string
		inField bool
	)
	flush := func() {
		if !inField {
			return
		}
		out = out.Set(strings.TrimSpace(name), strings.TrimSpace(strings.Join(value, "\n")))
	}

	for _, line := range strings.Split(reply, "\n") {
		if m := markerRe.FindStringSubmatch(line); m != nil {
			flush()
			name, value, inField = m[1], []string{m[2]}, true
			continue
		}
		if inField {
			value = append(value, line)
		}
	}
	flush()
	return out
}
