package extract

import "strings"

// ParseAttributes reads the first [k=v,k2=v2] group in s. Pieces that are
// not exactly one key and one value are dropped.
func ParseAttributes(s string) map[string]string {
	out := make(map[string]string)

	open := strings.Index(s, "[")
	if open < 0 {
		return out
	}
	rel := strings.Index(s[open+1:], "]")
	if rel < 0 {
		return out
	}
	inner := s[open+1 : open+1+rel]

	for _, piece := range strings.Split(inner, ",") {
		kv := strings.SplitN(piece, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(kv[1])
	}
	return out
}

// ParseHeader splits a region header such as `name [k=v]` into its
// identifier and attributes. Only a trailing bracket group counts.
func ParseHeader(header string) (string, map[string]string) {
	header = strings.TrimSpace(header)
	if strings.HasSuffix(header, "]") {
		if i := strings.LastIndex(header, "["); i >= 0 {
			return strings.TrimSpace(header[:i]), ParseAttributes(header[i:])
		}
	}
	return header, map[string]string{}
}
