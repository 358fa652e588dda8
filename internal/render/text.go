package render

import (
	"fmt"
	"strconv"
	"strings"
)

// Unindent removes the indentation shared by every non-blank line.
// Blank lines shorter than the shared indentation become empty.
func Unindent(s string) string {
	lines := strings.Split(s, "\n")

	shared := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if shared < 0 || n < shared {
			shared = n
		}
	}
	if shared <= 0 {
		return s
	}

	for i, l := range lines {
		lines[i] = l[min(shared, len(l)):]
	}
	return strings.Join(lines, "\n")
}

type lineRange struct {
	from, to int
}

// parseSelection parses "1 3-4" style selections. Separators are spaces,
// ';' and '|' since commas delimit attributes.
func parseSelection(selection string) ([]lineRange, error) {
	fields := strings.FieldsFunc(selection, func(r rune) bool {
		return r == ' ' || r == ';' || r == '|' || r == '\t'
	})
	out := make([]lineRange, 0, len(fields))
	for _, f := range fields {
		from, to, isRange := strings.Cut(f, "-")
		a, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil || a < 1 {
			return nil, fmt.Errorf("render: invalid selected_lines entry %q", f)
		}
		b := a
		if isRange {
			b, err = strconv.Atoi(strings.TrimSpace(to))
			if err != nil || b < a {
				return nil, fmt.Errorf("render: invalid selected_lines entry %q", f)
			}
		}
		out = append(out, lineRange{from: a, to: b})
	}
	return out, nil
}

// SelectLines keeps only the selected 1-based lines of text. When ellipsis
// is non-empty it is inserted, indented like the following line, before
// every selected run that follows skipped lines.
func SelectLines(text, selection, ellipsis string) (string, error) {
	ranges, err := parseSelection(selection)
	if err != nil {
		return "", err
	}
	if len(ranges) == 0 || text == "" {
		return text, nil
	}

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	keep := make([]bool, len(lines)+1)
	for _, r := range ranges {
		for n := r.from; n <= r.to && n <= len(lines); n++ {
			keep[n] = true
		}
	}

	var b strings.Builder
	for n := 1; n <= len(lines); n++ {
		if !keep[n] {
			continue
		}
		line := lines[n-1]
		if ellipsis != "" && n > 1 && !keep[n-1] {
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			b.WriteString(indent + ellipsis + "\n")
		}
		b.WriteString(line + "\n")
	}
	return b.String(), nil
}
