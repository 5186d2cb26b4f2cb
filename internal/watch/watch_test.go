package watch

import "testing"

func TestSplitPathExtractsUserAndNotePath(t *testing.T) {
	w := &Watcher{root: "/vaults"}
	userID, notePath, ok := w.splitPath("/vaults/alice/projects/roadmap.md")
	if !ok {
		t.Fatal("expected ok")
	}
	if userID != "alice" || notePath != "projects/roadmap.md" {
		t.Fatalf("got user=%q path=%q", userID, notePath)
	}
}

func TestSplitPathRejectsRootLevelFile(t *testing.T) {
	w := &Watcher{root: "/vaults"}
	_, _, ok := w.splitPath("/vaults/stray.md")
	if ok {
		t.Fatal("expected a file directly under the vault root (no user segment) to be rejected")
	}
}

func TestSplitPathRejectsPathOutsideRoot(t *testing.T) {
	w := &Watcher{root: "/vaults"}
	_, _, ok := w.splitPath("/elsewhere/alice/note.md")
	if ok {
		t.Fatal("expected a path outside the vault root to be rejected")
	}
}
