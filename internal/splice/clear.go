package splice

import (
	"strings"

	"github.com/doctavious/snippext/internal/extract"
	"github.com/doctavious/snippext/internal/lexicon"
)

// Clear empties every marked region in doc. With del the marker lines are
// removed too. Regions do not nest here: a start marker inside a region is
// part of its body and the first end marker closes it.
func Clear(doc string, markers []lexicon.Marker, del bool) string {
	var b strings.Builder
	b.Grow(len(doc))

	omitting := false
	for _, line := range strings.SplitAfter(doc, "\n") {
		if line == "" {
			continue
		}
		trimmed := trimLine(line)

		if !omitting {
			if _, _, ok := extract.MatchBegin(trimmed, markers); ok {
				omitting = true
				if !del {
					b.WriteString(line)
				}
				continue
			}
			b.WriteString(line)
			continue
		}

		if extract.MatchEnd(trimmed, markers) {
			omitting = false
			if !del {
				b.WriteString(line)
			}
		}
	}
	return b.String()
}
