package wikilink

import "testing"

func TestResolveEmptyCandidatesIsUnresolved(t *testing.T) {
	target, resolved := Resolve("projects/a.md", nil)
	if resolved || target != "" {
		t.Fatalf("expected unresolved, got target=%q resolved=%v", target, resolved)
	}
}

func TestResolveSingleCandidateWinsOutright(t *testing.T) {
	target, resolved := Resolve("projects/a.md", []Candidate{{NotePath: "elsewhere/b.md"}})
	if !resolved || target != "elsewhere/b.md" {
		t.Fatalf("got target=%q resolved=%v", target, resolved)
	}
}

func TestResolvePrefersSameFolder(t *testing.T) {
	candidates := []Candidate{
		{NotePath: "other/budget.md"},
		{NotePath: "projects/budget.md"},
	}
	target, resolved := Resolve("projects/a.md", candidates)
	if !resolved || target != "projects/budget.md" {
		t.Fatalf("got target=%q resolved=%v, want projects/budget.md", target, resolved)
	}
}

func TestResolveFallsBackToLexicographicTiebreak(t *testing.T) {
	candidates := []Candidate{
		{NotePath: "zeta/budget.md"},
		{NotePath: "alpha/budget.md"},
	}
	target, resolved := Resolve("projects/a.md", candidates)
	if !resolved || target != "alpha/budget.md" {
		t.Fatalf("got target=%q resolved=%v, want alpha/budget.md", target, resolved)
	}
}

func TestResolveTiebreaksWithinSameFolderCandidates(t *testing.T) {
	candidates := []Candidate{
		{NotePath: "projects/zeta.md"},
		{NotePath: "projects/alpha.md"},
		{NotePath: "other/beta.md"},
	}
	target, resolved := Resolve("projects/a.md", candidates)
	if !resolved || target != "projects/alpha.md" {
		t.Fatalf("got target=%q resolved=%v, want projects/alpha.md", target, resolved)
	}
}
