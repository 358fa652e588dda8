package extraction

import (
	"path"
	"strings"
)

// OutputPath returns the standalone output file for a snippet rendered
// with a template: <outDir>/<sourcePath>/<identifier>_<template>.<ext>.
func OutputPath(outDir, sourcePath, identifier, template, ext string) string {
	name := Sanitize(identifier) + "_" + template
	if ext = strings.TrimPrefix(ext, "."); ext != "" {
		name += "." + ext
	}
	return path.Join(outDir, sourcePath, name)
}

// Sanitize maps an identifier onto a safe file name. Characters other
// than ASCII letters, digits, '.', '_' and '-' become '_'.
func Sanitize(identifier string) string {
	var b strings.Builder
	b.Grow(len(identifier))
	for _, r := range identifier {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" || out == "." || out == ".." {
		return strings.Repeat("_", max(len(out), 1))
	}
	return out
}
