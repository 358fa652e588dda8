// Package extract scans source files for snippet regions.
package extract

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/doctavious/snippext/internal/apperr"
	"github.com/doctavious/snippext/internal/lexicon"
	"github.com/doctavious/snippext/internal/models"
)

// maxLineSize bounds a single source line.
const maxLineSize = 4 * 1024 * 1024

// Options controls a single extraction pass.
type Options struct {
	Markers []lexicon.Marker
	// RetainNested keeps the start/end lines of inner regions in the
	// text of the regions enclosing them.
	RetainNested bool
}

type bodyLine struct {
	text   string
	marker bool
}

// openRegion is a region whose end marker has not been seen yet.
type openRegion struct {
	key        string
	startLine  int
	lines      []bodyLine
	attributes map[string]string
}

// Extract returns the snippets in data in the order their end markers
// appear. A region left open at end of input fails the whole file with
// an *apperr.UnclosedSnippetError for the most recently opened region.
func Extract(file models.SourceFile, data []byte, opts Options) ([]models.Snippet, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var (
		stack    []*openRegion
		snippets []models.Snippet
		lineNo   int
	)

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimLeft(line, " \t")

		if _, header, ok := MatchBegin(trimmed, opts.Markers); ok {
			key, attrs := ParseHeader(header)
			for _, r := range stack {
				r.lines = append(r.lines, bodyLine{text: line, marker: true})
			}
			stack = append(stack, &openRegion{
				key:        key,
				startLine:  lineNo,
				attributes: withDefaults(file.RelativePath, attrs),
			})
			continue
		}

		if len(stack) == 0 {
			continue
		}

		if MatchEnd(trimmed, opts.Markers) {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, r := range stack {
				r.lines = append(r.lines, bodyLine{text: line, marker: true})
			}
			snippets = append(snippets, models.Snippet{
				Identifier: top.key,
				Path:       file.RelativePath,
				FullPath:   file.FullPath,
				Text:       top.text(opts.RetainNested),
				Attributes: top.attributes,
				StartLine:  top.startLine,
				EndLine:    lineNo,
			})
			continue
		}

		for _, r := range stack {
			r.lines = append(r.lines, bodyLine{text: line})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("extract: scan %s: %w", file.RelativePath, err)
	}

	if len(stack) > 0 {
		top := stack[len(stack)-1]
		return nil, &apperr.UnclosedSnippetError{
			Path:       file.RelativePath,
			Identifier: top.key,
			Line:       top.startLine,
		}
	}
	return snippets, nil
}

func (r *openRegion) text(retainNested bool) string {
	var b strings.Builder
	for _, l := range r.lines {
		if l.marker && !retainNested {
			continue
		}
		b.WriteString(l.text)
		b.WriteString("\n")
	}
	return b.String()
}

// MatchBegin reports whether trimmed (a line without leading whitespace)
// opens a region. It returns the matching marker and the header with any
// block comment closer removed.
func MatchBegin(trimmed string, markers []lexicon.Marker) (lexicon.Marker, string, bool) {
	for _, m := range markers {
		if !strings.HasPrefix(trimmed, m.Begin) {
			continue
		}
		rest := strings.TrimSpace(trimmed[len(m.Begin):])
		if m.Close != "" {
			rest = strings.TrimSpace(strings.TrimSuffix(rest, m.Close))
		}
		if rest == "" {
			continue
		}
		return m, rest, true
	}
	return lexicon.Marker{}, "", false
}

// MatchEnd reports whether trimmed closes a region for any marker.
func MatchEnd(trimmed string, markers []lexicon.Marker) bool {
	for _, m := range markers {
		if strings.HasPrefix(trimmed, m.End) {
			return true
		}
	}
	return false
}

func withDefaults(relPath string, attrs map[string]string) map[string]string {
	out := map[string]string{
		"path":     relPath,
		"filename": filepath.Base(relPath),
	}
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
