// Package splice writes rendered snippets into marked regions of target
// documents and clears those regions again.
package splice

import (
	"strings"

	"github.com/doctavious/snippext/internal/extract"
	"github.com/doctavious/snippext/internal/lexicon"
	"github.com/doctavious/snippext/internal/models"
)

// Renderer renders a snippet with attribute overrides from the target.
type Renderer interface {
	Render(s models.Snippet, src models.SnippetSource, overrides map[string]string) (string, error)
}

// Splice replaces the body of the first region in doc named after s with
// "\n" followed by the rendered snippet. The region runs from the end of
// the start marker line to the start of the next end marker line, or to
// the end of doc when there is none. Marker lines are never modified and
// the end marker always stays on a line of its own. A doc without a
// matching start marker is returned unchanged.
func Splice(doc string, s models.Snippet, src models.SnippetSource, markers []lexicon.Marker, r Renderer) (string, bool, error) {
	startEnd, marker, attrs, found := findStart(doc, s.Identifier, markers)
	if !found {
		return doc, false, nil
	}

	rendered, err := r.Render(s, src, attrs)
	if err != nil {
		return doc, false, err
	}

	bodyEnd := findEnd(doc, startEnd, marker)
	if bodyEnd < len(doc) && rendered != "" && !strings.HasSuffix(rendered, "\n") {
		rendered += "\n"
	}
	out := doc[:startEnd] + "\n" + rendered + doc[bodyEnd:]
	return out, out != doc, nil
}

// findStart returns the offset just past the start marker line (the index
// of its newline, or len(doc)), the marker that matched and the inline
// attributes on that line.
func findStart(doc, identifier string, markers []lexicon.Marker) (int, lexicon.Marker, map[string]string, bool) {
	for pos := 0; pos < len(doc); {
		lineEnd := lineEndAt(doc, pos)
		if m, header, ok := extract.MatchBegin(trimLine(doc[pos:lineEnd]), markers); ok {
			if id, attrs := extract.ParseHeader(header); id == identifier {
				return lineEnd, m, attrs, true
			}
		}
		pos = lineEnd + 1
	}
	return 0, lexicon.Marker{}, nil, false
}

// findEnd returns the offset of the first line after from that closes m,
// or len(doc).
func findEnd(doc string, from int, m lexicon.Marker) int {
	for pos := from + 1; pos < len(doc); {
		lineEnd := lineEndAt(doc, pos)
		if strings.HasPrefix(trimLine(doc[pos:lineEnd]), m.End) {
			return pos
		}
		pos = lineEnd + 1
	}
	return len(doc)
}

func lineEndAt(doc string, pos int) int {
	if i := strings.IndexByte(doc[pos:], '\n'); i >= 0 {
		return pos + i
	}
	return len(doc)
}

func trimLine(line string) string {
	return strings.TrimLeft(strings.TrimRight(line, "\r\n"), " \t")
}
