// Package lexicon maps file types to their comment syntax and language names.
package lexicon

import (
	"path/filepath"
	"sort"
	"strings"
)

// Comment is a comment opener with an optional closer (e.g. "<!--" / "-->").
type Comment struct {
	Prefix string
	Suffix string
}

// Language describes how comments are written in one file type.
type Language struct {
	Name        string
	LineComment string
	Comments    []Comment
	// Regions are language-native region markers, independent of the
	// configured start/end text.
	Regions []Marker
}

// Marker is a pair of tokens that open and close a snippet region.
type Marker struct {
	Begin string
	Close string // optional trailing token on the begin line, e.g. "-->"
	End   string
}

var (
	slash = []Comment{{Prefix: "// "}, {Prefix: "//"}}
	hash  = []Comment{{Prefix: "# "}, {Prefix: "#"}}
	dash  = []Comment{{Prefix: "-- "}, {Prefix: "--"}}
	block = []Comment{{Prefix: "/* ", Suffix: "*/"}, {Prefix: "/*", Suffix: "*/"}}
	xml   = []Comment{{Prefix: "<!-- ", Suffix: "-->"}, {Prefix: "<!--", Suffix: "-->"}}
)

func lang(name, line string, groups ...[]Comment) Language {
	l := Language{Name: name, LineComment: line}
	for _, g := range groups {
		l.Comments = append(l.Comments, g...)
	}
	return l
}

var byExtension = map[string]Language{
	"c":     lang("c", "//", slash, block),
	"h":     lang("c", "//", slash, block),
	"cpp":   lang("cpp", "//", slash, block),
	"hpp":   lang("cpp", "//", slash, block),
	"cc":    lang("cpp", "//", slash, block),
	"cs":    withRegions(lang("csharp", "//", slash, block), Marker{Begin: "#region ", End: "#endregion"}),
	"vb":    withRegions(lang("vb", "'", []Comment{{Prefix: "' "}, {Prefix: "'"}}), Marker{Begin: "#Region ", End: "#End Region"}),
	"go":    lang("go", "//", slash, block),
	"rs":    lang("rust", "//", slash, block),
	"java":  lang("java", "//", slash, block),
	"kt":    lang("kotlin", "//", slash, block),
	"scala": lang("scala", "//", slash, block),
	"swift": lang("swift", "//", slash, block),
	"js":    lang("javascript", "//", slash, block),
	"jsx":   lang("jsx", "//", slash, block, []Comment{{Prefix: "{/* ", Suffix: "*/}"}}),
	"ts":    lang("typescript", "//", slash, block),
	"tsx":   lang("tsx", "//", slash, block, []Comment{{Prefix: "{/* ", Suffix: "*/}"}}),
	"php":   lang("php", "//", slash, hash, block),
	"css":   lang("css", "/*", block),
	"scss":  lang("scss", "//", slash, block),
	"py":    lang("python", "#", hash),
	"rb":    lang("ruby", "#", hash),
	"sh":    lang("shell", "#", hash),
	"bash":  lang("bash", "#", hash),
	"zsh":   lang("zsh", "#", hash),
	"ps1":   lang("powershell", "#", hash),
	"pl":    lang("perl", "#", hash),
	"r":     lang("r", "#", hash),
	"yaml":  lang("yaml", "#", hash),
	"yml":   lang("yaml", "#", hash),
	"toml":  lang("toml", "#", hash),
	"ini":   lang("ini", ";", []Comment{{Prefix: "; "}, {Prefix: ";"}}, hash),
	"sql":   lang("sql", "--", dash, block),
	"lua":   lang("lua", "--", dash),
	"hs":    lang("haskell", "--", dash),
	"ex":    lang("elixir", "#", hash),
	"exs":   lang("elixir", "#", hash),
	"md":    lang("markdown", "", xml),
	"mdx":   lang("mdx", "", xml, []Comment{{Prefix: "{/* ", Suffix: "*/}"}}),
	"html":  lang("html", "", xml),
	"htm":   lang("html", "", xml),
	"xml":   lang("xml", "", xml),
	"vue":   lang("vue", "//", xml, slash),
	"adoc":  lang("asciidoc", "//", slash),
	"tf":    lang("hcl", "#", hash, slash, block),
	"hcl":   lang("hcl", "#", hash, slash, block),
}

var byFileName = map[string]Language{
	"dockerfile": lang("dockerfile", "#", hash),
	"makefile":   lang("makefile", "#", hash),
}

func withRegions(l Language, regions ...Marker) Language {
	l.Regions = regions
	return l
}

// Lookup returns the language for path, keyed by extension or well-known file name.
func Lookup(path string) (Language, bool) {
	base := filepath.Base(path)
	if l, ok := byFileName[strings.ToLower(base)]; ok {
		return l, true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(base)), ".")
	l, ok := byExtension[ext]
	return l, ok
}

// LineComment returns the line comment token for path, or fallback when unknown.
func LineComment(path, fallback string) string {
	if l, ok := Lookup(path); ok && l.LineComment != "" {
		return l.LineComment
	}
	return fallback
}

// Markers builds the marker set for path. Configured prefixes come first,
// followed by the file type's own comment styles and region syntax. The
// result is ordered longest Begin first, ties keeping declaration order,
// so a line is always matched by its most specific marker.
func Markers(path string, prefixes []string, start, end string) []Marker {
	var out []Marker
	seen := make(map[string]struct{})
	add := func(m Marker) {
		if _, dup := seen[m.Begin]; dup {
			return
		}
		seen[m.Begin] = struct{}{}
		out = append(out, m)
	}

	for _, p := range prefixes {
		add(Marker{Begin: p + start, Close: closerFor(p), End: p + end})
	}
	if l, ok := Lookup(path); ok {
		for _, c := range l.Comments {
			add(Marker{Begin: c.Prefix + start, Close: c.Suffix, End: c.Prefix + end})
		}
		for _, r := range l.Regions {
			add(r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Begin) > len(out[j].Begin)
	})
	return out
}

// closerFor returns the block comment closer implied by a configured prefix.
func closerFor(prefix string) string {
	p := strings.TrimSpace(prefix)
	switch p {
	case "<!--":
		return "-->"
	case "/*", "/**":
		return "*/"
	case "{/*":
		return "*/}"
	}
	return ""
}

// ByName finds a language by name (e.g. "python") or extension (e.g. "py").
func ByName(name string) (Language, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Language{}, false
	}
	if l, ok := byExtension[name]; ok {
		return l, true
	}
	for _, l := range byExtension {
		if l.Name == name {
			return l, true
		}
	}
	return Language{}, false
}
