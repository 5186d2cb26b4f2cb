package search

import (
	"context"
	"os"
	"testing"

	"github.com/bigwolfeman/Document-MCP-sub002/internal/indexer"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/store"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/vault"
)

func newTestEngine(t *testing.T) (*Engine, *indexer.Indexer) {
	t.Helper()
	dir, err := os.MkdirTemp("", "search-test-*")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	vs := vault.New(dir, 1<<20)
	ix := indexer.New(db, vs)
	return New(db, vs, 3.0, 1.0, 7, 30), ix
}

func TestSanitizeRejectsEmptyQuery(t *testing.T) {
	if _, err := sanitize("   "); err == nil {
		t.Fatal("expected InvalidQuery for blank query")
	}
}

func TestSanitizePreservesPrefixAndApostrophe(t *testing.T) {
	q, err := sanitize("don't foo*")
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if q != `"don't" "foo"*` {
		t.Fatalf("unexpected sanitized query: %q", q)
	}
}

func TestSearchRanksByBM25AndRecency(t *testing.T) {
	eng, ix := newTestEngine(t)
	now := int64(1_000_000)

	if _, err := ix.IndexNote("alice", "old.md", "Old Note", nil, "roadmap roadmap roadmap planning content", 40, now-60*86400); err != nil {
		t.Fatalf("index old: %v", err)
	}
	if _, err := ix.IndexNote("alice", "new.md", "New Note", nil, "roadmap planning content", 30, now-1*86400); err != nil {
		t.Fatalf("index new: %v", err)
	}

	results, err := eng.Search(context.Background(), "alice", "roadmap", 10, now)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].NotePath != "new.md" {
		t.Fatalf("expected recency bonus to rank new.md first, got %+v", results)
	}
}

func TestSearchSnippetWrapsMatch(t *testing.T) {
	eng, ix := newTestEngine(t)
	now := int64(1_000_000)

	body := "This is a long note about project planning and the quarterly roadmap for the team."
	if _, err := eng.vault.Write("alice", "note.md", vault.Frontmatter{Title: "Plan"}, body); err != nil {
		t.Fatalf("vault write: %v", err)
	}
	if _, err := ix.IndexNote("alice", "note.md", "Plan", nil, body, int64(len(body)), now); err != nil {
		t.Fatalf("index: %v", err)
	}

	results, err := eng.Search(context.Background(), "alice", "roadmap", 10, now)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !contains(results[0].Snippet, "<mark>roadmap</mark>") {
		t.Fatalf("expected marked snippet, got %q", results[0].Snippet)
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
