package wikilink

import "testing"

func TestExtractFindsLinksInOrderDeduped(t *testing.T) {
	body := "See [[Roadmap]] and [[Budget]]. Also [[Roadmap]] again."
	got := Extract(body)
	want := []string{"Roadmap", "Budget"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestExtractTruncatesAliasAndAnchor(t *testing.T) {
	body := "[[Roadmap|Q3 Plan]] and [[Budget#2026]]"
	got := Extract(body)
	want := []string{"Roadmap", "Budget"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestExtractIgnoresEmptyLinkText(t *testing.T) {
	got := Extract("[[]] [[ ]] [[Real]]")
	if len(got) != 1 || got[0] != "Real" {
		t.Fatalf("got %v, want [Real]", got)
	}
}

func TestNormalizeSlugLowercasesAndHyphenates(t *testing.T) {
	cases := map[string]string{
		"Q3 Roadmap":       "q3-roadmap",
		"My_Note Name":     "my-note-name",
		"  spaced  out  ":  "spaced-out",
		"Weird!!@@Chars":   "weirdchars",
		"already-hyphened": "already-hyphened",
		"multi---hyphen":   "multi-hyphen",
	}
	for in, want := range cases {
		if got := NormalizeSlug(in); got != want {
			t.Errorf("NormalizeSlug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPathSlugUsesFilenameStem(t *testing.T) {
	if got := PathSlug("projects/Q3 Roadmap.md"); got != "q3-roadmap" {
		t.Fatalf("got %q", got)
	}
	if got := PathSlug("root.md"); got != "root" {
		t.Fatalf("got %q", got)
	}
}

func TestFolderReturnsParentOrEmpty(t *testing.T) {
	if got := Folder("projects/roadmap.md"); got != "projects" {
		t.Fatalf("got %q", got)
	}
	if got := Folder("root.md"); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}
