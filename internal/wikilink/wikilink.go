// Package wikilink implements slug normalization and [[LinkText]]
// extraction for the wikilink graph. Only the base `[[LinkText]]` form is
// recognized (spec.md §4.4); aliases and anchors are not part of the
// spec, so a brace containing `|` or `#` is truncated to the substring
// before the first such character (Open Question #1, decided in
// DESIGN.md: implemented as specified).
//
// The teacher repo has no wikilink syntax of its own (confirmed absent
// from internal/graph/extraction.go); this file is newly authored against
// spec.md, grounded only on the teacher's shape of a package-scope
// compiled regexp plus a pure extraction function.
package wikilink

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	linkPattern   = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)
	hyphenRunPattern = regexp.MustCompile(`-+`)
)

// Extract returns the raw link text of every [[...]] occurrence in body,
// in order of appearance, with duplicates removed (stable on first
// occurrence).
func Extract(body string) []string {
	matches := linkPattern.FindAllStringSubmatch(body, -1)
	seen := make(map[string]bool, len(matches))
	var out []string
	for _, m := range matches {
		text := baseForm(m[1])
		if text == "" || seen[text] {
			continue
		}
		seen[text] = true
		out = append(out, text)
	}
	return out
}

// baseForm truncates a raw brace body to the substring before the first
// `|` or `#`, trimmed of surrounding whitespace.
func baseForm(raw string) string {
	if i := strings.IndexAny(raw, "|#"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimSpace(raw)
}

// NormalizeSlug implements the four-step slug normalization of
// spec.md §4.4:
//  1. Lowercase (Unicode-aware).
//  2. Replace runs of whitespace and underscores with single hyphens.
//  3. Strip characters other than [a-z0-9/-].
//  4. Collapse repeated hyphens; trim leading/trailing hyphens.
func NormalizeSlug(s string) string {
	lower := strings.ToLower(s)

	var withHyphens strings.Builder
	lastWasSpace := false
	for _, r := range lower {
		if unicode.IsSpace(r) || r == '_' {
			if !lastWasSpace {
				withHyphens.WriteRune('-')
			}
			lastWasSpace = true
			continue
		}
		lastWasSpace = false
		withHyphens.WriteRune(r)
	}

	var stripped strings.Builder
	for _, r := range withHyphens.String() {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '/' || r == '-' {
			stripped.WriteRune(r)
		}
	}

	collapsed := hyphenRunPattern.ReplaceAllString(stripped.String(), "-")
	return strings.Trim(collapsed, "-")
}

// PathSlug computes the path slug for a note: the normalized filename
// stem (without its folder or .md extension) per spec.md §4.4
// ("path slug computed from filename stem").
func PathSlug(notePath string) string {
	stem := notePath
	if i := strings.LastIndex(stem, "/"); i >= 0 {
		stem = stem[i+1:]
	}
	stem = strings.TrimSuffix(stem, ".md")
	return NormalizeSlug(stem)
}

// Folder returns the folder portion of a note path ("" for a root note).
func Folder(notePath string) string {
	if i := strings.LastIndex(notePath, "/"); i >= 0 {
		return notePath[:i]
	}
	return ""
}
