package indexer

import (
	"context"
	"os"
	"testing"

	"github.com/bigwolfeman/Document-MCP-sub002/internal/store"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/vault"
)

func newTestIndexer(t *testing.T) (*Indexer, *vault.Store, *store.DB) {
	t.Helper()
	dir, err := os.MkdirTemp("", "indexer-test-*")
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
	return New(db, vs), vs, db
}

func TestIndexNoteCreatesMetadataAndFTS(t *testing.T) {
	ix, _, db := newTestIndexer(t)

	res, err := ix.IndexNote("alice", "notes/a.md", "Project Plan", []string{"work", "planning"}, "This is the project plan body.", 32, 1000)
	if err != nil {
		t.Fatalf("IndexNote: %v", err)
	}
	if !res.Created || res.Version != 1 {
		t.Fatalf("expected created v1, got %+v", res)
	}

	m, err := store.GetMetadata(db.Conn(), "alice", "notes/a.md")
	if err != nil || m == nil {
		t.Fatalf("GetMetadata: %v, %+v", err, m)
	}
	if m.Title != "Project Plan" || m.NormalizedPathSlug != "a" {
		t.Fatalf("unexpected metadata: %+v", m)
	}

	rows, err := store.SearchFTS(db.Conn(), "alice", "plan", 3.0, 1.0, 10)
	if err != nil {
		t.Fatalf("SearchFTS: %v", err)
	}
	if len(rows) != 1 || rows[0].NotePath != "notes/a.md" {
		t.Fatalf("expected one match, got %+v", rows)
	}
}

func TestIndexNoteReindexBumpsVersion(t *testing.T) {
	ix, _, _ := newTestIndexer(t)

	if _, err := ix.IndexNote("alice", "a.md", "A", nil, "first body", 10, 1000); err != nil {
		t.Fatalf("first index: %v", err)
	}
	res, err := ix.IndexNote("alice", "a.md", "A", nil, "second body", 11, 2000)
	if err != nil {
		t.Fatalf("second index: %v", err)
	}
	if res.Created || res.Version != 2 {
		t.Fatalf("expected update to v2, got %+v", res)
	}
}

func TestWikilinkResolutionAcrossNotes(t *testing.T) {
	ix, _, db := newTestIndexer(t)

	if _, err := ix.IndexNote("alice", "draft.md", "Draft", nil, "See [[Project Plan]] for details.", 30, 1000); err != nil {
		t.Fatalf("index draft: %v", err)
	}
	links, err := store.Backlinks(db.Conn(), "alice", "plan.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("expected no backlinks before target exists, got %+v", links)
	}

	if _, err := ix.IndexNote("alice", "plan.md", "Project Plan", nil, "The plan itself.", 20, 1100); err != nil {
		t.Fatalf("index plan: %v", err)
	}

	links, err = store.Backlinks(db.Conn(), "alice", "plan.md")
	if err != nil {
		t.Fatalf("Backlinks after target created: %v", err)
	}
	if len(links) != 1 || links[0].SourcePath != "draft.md" {
		t.Fatalf("expected draft.md as a resolved backlink, got %+v", links)
	}
}

func TestUnindexNoteBreaksInboundLinks(t *testing.T) {
	ix, _, db := newTestIndexer(t)

	if _, err := ix.IndexNote("alice", "plan.md", "Project Plan", nil, "body", 5, 1000); err != nil {
		t.Fatalf("index plan: %v", err)
	}
	if _, err := ix.IndexNote("alice", "draft.md", "Draft", nil, "See [[Project Plan]].", 20, 1000); err != nil {
		t.Fatalf("index draft: %v", err)
	}

	if err := ix.UnindexNote("alice", "plan.md", 2000); err != nil {
		t.Fatalf("UnindexNote: %v", err)
	}

	m, err := store.GetMetadata(db.Conn(), "alice", "plan.md")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if m != nil {
		t.Fatalf("expected metadata removed, got %+v", m)
	}

	links, err := store.Backlinks(db.Conn(), "alice", "plan.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("expected no resolved backlinks after unindex, got %+v", links)
	}
}

func TestMoveNoteRetargetsInboundLinks(t *testing.T) {
	ix, _, db := newTestIndexer(t)

	if _, err := ix.IndexNote("alice", "plan.md", "Project Plan", nil, "body", 5, 1000); err != nil {
		t.Fatalf("index plan: %v", err)
	}
	if _, err := ix.IndexNote("alice", "draft.md", "Draft", nil, "See [[Project Plan]].", 20, 1000); err != nil {
		t.Fatalf("index draft: %v", err)
	}

	if _, err := ix.MoveNote("alice", "plan.md", "archive/plan.md", "Project Plan", nil, "body", 2000); err != nil {
		t.Fatalf("MoveNote: %v", err)
	}

	links, err := store.Backlinks(db.Conn(), "alice", "archive/plan.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(links) != 1 || links[0].SourcePath != "draft.md" {
		t.Fatalf("expected retargeted backlink, got %+v", links)
	}
}

func TestRebuildAllSkipsUnchangedAndRemovesDeleted(t *testing.T) {
	ix, vs, db := newTestIndexer(t)

	if _, err := vs.Write("alice", "kept.md", vault.Frontmatter{Title: "Kept"}, "unchanged body"); err != nil {
		t.Fatalf("vault write: %v", err)
	}
	if _, err := ix.IndexNote("alice", "kept.md", "Kept", nil, "unchanged body", 14, 1000); err != nil {
		t.Fatalf("seed index: %v", err)
	}
	if _, err := store.GetMetadata(db.Conn(), "alice", "kept.md"); err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}

	// a note indexed previously but now gone from the vault
	if err := seedOrphanMetadata(db, "alice", "gone.md"); err != nil {
		t.Fatalf("seed orphan: %v", err)
	}

	stats, err := ix.RebuildAll(context.Background(), "alice", 2000)
	if err != nil {
		t.Fatalf("RebuildAll: %v", err)
	}
	if stats.SkippedUnchanged != 1 {
		t.Fatalf("expected one skipped-unchanged note, got %+v", stats)
	}
	if stats.Removed != 1 {
		t.Fatalf("expected one removed note, got %+v", stats)
	}

	if m, _ := store.GetMetadata(db.Conn(), "alice", "gone.md"); m != nil {
		t.Fatalf("expected gone.md purged from the index")
	}
}

func seedOrphanMetadata(db *store.DB, userID, notePath string) error {
	_, err := store.UpsertMetadata(db.Conn(), store.NoteMetadata{
		UserID:              userID,
		NotePath:            notePath,
		Version:             1,
		Title:               "Gone",
		SizeBytes:           4,
		Created:             500,
		Updated:             500,
		NormalizedTitleSlug: "gone",
		NormalizedPathSlug:  "gone",
		ContentHash:         "deadbeef",
	})
	return err
}
