package search

import "strings"

// snippetWindow is the rough total width, in characters, of a generated
// snippet (spec.md §4.5: "bounded to roughly 200 characters").
const snippetWindow = 200

// buildSnippet returns a body-centric excerpt centered on the first
// occurrence of any term, with the match wrapped in <mark>...</mark> and
// ellipses where the window was truncated. If no term is found, it falls
// back to the first snippetWindow characters of the body.
func buildSnippet(body string, terms []string) string {
	lower := strings.ToLower(body)
	matchAt, matchLen := -1, 0
	for _, t := range terms {
		if t == "" {
			continue
		}
		if i := strings.Index(lower, t); i >= 0 && (matchAt == -1 || i < matchAt) {
			matchAt, matchLen = i, len(t)
		}
	}
	if matchAt == -1 {
		return truncate(body, snippetWindow)
	}

	half := (snippetWindow - matchLen) / 2
	start := matchAt - half
	if start < 0 {
		start = 0
	}
	end := start + snippetWindow
	if end > len(body) {
		end = len(body)
		start = end - snippetWindow
		if start < 0 {
			start = 0
		}
	}

	before := body[start:matchAt]
	match := body[matchAt : matchAt+matchLen]
	after := body[matchAt+matchLen : end]

	var b strings.Builder
	if start > 0 {
		b.WriteString("…")
	}
	b.WriteString(before)
	b.WriteString("<mark>")
	b.WriteString(match)
	b.WriteString("</mark>")
	b.WriteString(after)
	if end < len(body) {
		b.WriteString("…")
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
