package store

import "testing"

func TestOpenMemoryMigratesSchema(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	if err := db.IntegrityCheck(); err != nil {
		t.Fatalf("IntegrityCheck: %v", err)
	}
	if db.SchemaVersion() != 1 {
		t.Fatalf("expected schema version 1, got %d", db.SchemaVersion())
	}

	tables := []string{"note_metadata", "note_fts", "note_tags", "note_links", "index_health"}
	for _, tbl := range tables {
		var name string
		err := db.Conn().QueryRow(`SELECT name FROM sqlite_master WHERE type IN ('table','view') AND name = ?`, tbl).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s to exist: %v", tbl, err)
		}
	}
}

func TestMetadataUpsertAndGet(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	id, err := UpsertMetadata(db.Conn(), NoteMetadata{
		UserID: "alice", NotePath: "a.md", Version: 1, Title: "A",
		SizeBytes: 10, Created: 100, Updated: 100,
		NormalizedTitleSlug: "a", NormalizedPathSlug: "a", ContentHash: "h1",
	})
	if err != nil {
		t.Fatalf("UpsertMetadata: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero row id")
	}

	m, err := GetMetadata(db.Conn(), "alice", "a.md")
	if err != nil || m == nil {
		t.Fatalf("GetMetadata: %v, %+v", err, m)
	}
	if m.ID != id || m.Version != 1 {
		t.Fatalf("unexpected metadata: %+v", m)
	}

	id2, err := UpsertMetadata(db.Conn(), NoteMetadata{
		UserID: "alice", NotePath: "a.md", Version: 2, Title: "A updated",
		SizeBytes: 20, Created: 100, Updated: 200,
		NormalizedTitleSlug: "a-updated", NormalizedPathSlug: "a", ContentHash: "h2",
	})
	if err != nil {
		t.Fatalf("UpsertMetadata (update): %v", err)
	}
	if id2 != id {
		t.Fatalf("expected row id to stay stable across updates, got %d vs %d", id2, id)
	}
}

func TestNoteCountTracksQuota(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	for i, p := range []string{"a.md", "b.md", "c.md"} {
		_, err := UpsertMetadata(db.Conn(), NoteMetadata{
			UserID: "alice", NotePath: p, Version: 1, Title: p,
			SizeBytes: 1, Created: int64(i), Updated: int64(i),
			NormalizedTitleSlug: p, NormalizedPathSlug: p,
		})
		if err != nil {
			t.Fatalf("seed note %s: %v", p, err)
		}
	}
	n, err := NoteCount(db.Conn(), "alice")
	if err != nil {
		t.Fatalf("NoteCount: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 notes, got %d", n)
	}
	n, err = NoteCount(db.Conn(), "bob")
	if err != nil {
		t.Fatalf("NoteCount (bob): %v", err)
	}
	if n != 0 {
		t.Fatalf("expected tenant isolation, got %d notes for bob", n)
	}
}
