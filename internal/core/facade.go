// Package core implements the Core Facade: the ten typed operations
// (spec.md §4.7) exposed to any request layer — the REST adapter and the
// MCP tool-call adapter call only this package's operations, never
// internal/store or the Vault Store directly (they import internal/vault
// only for its Frontmatter type). It composes the
// Concurrency Gate, Vault Store, Indexer, and Search Engine into one
// pipeline per operation, the way the teacher's internal/mcp/server.go
// composes internal/store + internal/graph behind each tool handler.
package core

import (
	"context"
	"time"

	"github.com/bigwolfeman/Document-MCP-sub002/internal/concurrency"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/config"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/indexer"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/search"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/store"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/vault"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/vaulterr"
)

// Facade is the single entry point the request layers consume.
type Facade struct {
	cfg     *config.Config
	db      *store.DB
	vault   *vault.Store
	indexer *indexer.Indexer
	search  *search.Engine
	gate    *concurrency.Gate
}

// New wires a Facade from its already-constructed dependencies.
func New(cfg *config.Config, db *store.DB, vs *vault.Store, ix *indexer.Indexer, se *search.Engine, gate *concurrency.Gate) *Facade {
	return &Facade{cfg: cfg, db: db, vault: vs, indexer: ix, search: se, gate: gate}
}

// ListItem is a single row of ListNotes.
type ListItem struct {
	NotePath string
	Title    string
	Updated  int64
}

// ListNotes lists every note for a user, optionally scoped to folder.
func (f *Facade) ListNotes(ctx context.Context, userID, folder string) ([]ListItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := store.ListMetadata(f.db.Conn(), userID, folder)
	if err != nil {
		return nil, vaulterr.Wrap(err, "list notes")
	}
	out := make([]ListItem, len(rows))
	for i, r := range rows {
		out[i] = ListItem{NotePath: r.NotePath, Title: r.Title, Updated: r.Updated}
	}
	return out, nil
}

// ReadResult is the return value of ReadNote.
type ReadResult struct {
	Title       string
	Frontmatter vault.Frontmatter
	Body        string
	Version     int
	Created     int64
	Updated     int64
	SizeBytes   int64
}

// ReadNote reads a note's vault content and current index version. Reads
// take no lock (spec.md §4.6).
func (f *Facade) ReadNote(ctx context.Context, userID, notePath string) (ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return ReadResult{}, err
	}
	note, err := f.vault.Read(userID, notePath)
	if err != nil {
		return ReadResult{}, err
	}
	m, err := store.GetMetadata(f.db.Conn(), userID, notePath)
	if err != nil {
		return ReadResult{}, vaulterr.Wrap(err, "read note metadata")
	}
	res := ReadResult{
		Title:       note.Frontmatter.Title,
		Frontmatter: note.Frontmatter,
		Body:        note.Body,
		SizeBytes:   note.SizeBytes,
	}
	if note.Frontmatter.Title == "" {
		res.Title = vault.DeriveTitle(note.Body, notePath)
	}
	if m != nil {
		res.Version, res.Created, res.Updated = m.Version, m.Created, m.Updated
	}
	return res, nil
}

// WriteResult is the return value of WriteNote.
type WriteResult struct {
	Version int
	Created bool
	Updated int64
}

// WriteNote persists a note's frontmatter+body and keeps the index in
// lockstep, enforcing optimistic concurrency and the per-user note quota.
func (f *Facade) WriteNote(ctx context.Context, userID, notePath string, fm vault.Frontmatter, body string, ifVersion *int) (WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return WriteResult{}, err
	}
	unlock := f.gate.LockNote(userID, notePath)
	defer unlock()

	existing, err := store.GetMetadata(f.db.Conn(), userID, notePath)
	if err != nil {
		return WriteResult{}, vaulterr.Wrap(err, "read current version")
	}
	if ifVersion != nil {
		current := 0
		if existing != nil {
			current = existing.Version
		}
		if current != *ifVersion {
			return WriteResult{}, vaulterr.VersionConflictErr(notePath, current)
		}
	}
	if existing == nil {
		count, err := store.NoteCount(f.db.Conn(), userID)
		if err != nil {
			return WriteResult{}, vaulterr.Wrap(err, "count notes")
		}
		if count >= f.cfg.MaxNotesPerUser {
			return WriteResult{}, vaulterr.New(vaulterr.QuotaExceeded, "note quota exceeded").WithPath(notePath)
		}
	}

	title := fm.Title
	if title == "" {
		title = vault.DeriveTitle(body, notePath)
	}
	sizeBytes, err := f.vault.Write(userID, notePath, fm, body)
	if err != nil {
		return WriteResult{}, err
	}

	now := time.Now().Unix()
	res, err := f.indexer.IndexNote(userID, notePath, title, fm.Tags, body, sizeBytes, now)
	if err != nil {
		return WriteResult{}, vaulterr.Wrap(err, "update index")
	}
	return WriteResult{Version: res.Version, Created: res.Created, Updated: now}, nil
}

// DeleteNote removes a note from the vault and the index.
func (f *Facade) DeleteNote(ctx context.Context, userID, notePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := f.gate.LockNote(userID, notePath)
	defer unlock()

	if err := f.vault.Delete(userID, notePath); err != nil {
		return err
	}
	return f.indexer.UnindexNote(userID, notePath, time.Now().Unix())
}

// MoveResult is the return value of MoveNote.
type MoveResult struct {
	Version int
}

// MoveNote renames a note within a user's vault, retargeting inbound
// links and re-deriving slugs for the new path.
func (f *Facade) MoveNote(ctx context.Context, userID, oldPath, newPath string) (MoveResult, error) {
	if err := ctx.Err(); err != nil {
		return MoveResult{}, err
	}
	if oldPath == newPath {
		return MoveResult{}, vaulterr.New(vaulterr.PathInvalid, "move target is the same as the source").WithPath(newPath)
	}
	unlockOld := f.gate.LockNote(userID, oldPath)
	defer unlockOld()
	unlockNew := f.gate.LockNote(userID, newPath)
	defer unlockNew()

	if err := f.vault.Move(userID, oldPath, newPath); err != nil {
		return MoveResult{}, err
	}
	note, err := f.vault.Read(userID, newPath)
	if err != nil {
		return MoveResult{}, err
	}
	title := note.Frontmatter.Title
	if title == "" {
		title = vault.DeriveTitle(note.Body, newPath)
	}
	res, err := f.indexer.MoveNote(userID, oldPath, newPath, title, note.Frontmatter.Tags, note.Body, time.Now().Unix())
	if err != nil {
		return MoveResult{}, vaulterr.Wrap(err, "update index")
	}
	return MoveResult{Version: res.Version}, nil
}

// Search ranks and snippets search results for a user. limit is clamped to
// [1, SearchMaxLimit], defaulting to SearchDefaultLimit when zero.
func (f *Facade) Search(ctx context.Context, userID, query string, limit int) ([]search.Result, error) {
	if limit <= 0 {
		limit = f.cfg.SearchDefaultLimit
	}
	if limit > f.cfg.SearchMaxLimit {
		limit = f.cfg.SearchMaxLimit
	}
	return f.search.Search(ctx, userID, query, limit, time.Now().Unix())
}

// Backlinks returns every resolved inbound link to notePath.
func (f *Facade) Backlinks(ctx context.Context, userID, notePath string) ([]store.Backlink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := store.Backlinks(f.db.Conn(), userID, notePath)
	if err != nil {
		return nil, vaulterr.Wrap(err, "backlinks")
	}
	return rows, nil
}

// Tags returns every tag for a user with its usage count.
func (f *Facade) Tags(ctx context.Context, userID string) ([]store.TagCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := store.ListTags(f.db.Conn(), userID)
	if err != nil {
		return nil, vaulterr.Wrap(err, "list tags")
	}
	return rows, nil
}

// RebuildResult is the return value of RebuildIndex.
type RebuildResult struct {
	NoteCount        int
	Reindexed        int
	SkippedUnchanged int
	Removed          int
	Errors           int
	DurationMs       int64
}

// RebuildIndex walks a user's vault and brings the index back into full
// agreement with it, excluding concurrent rebuilds of the same user.
func (f *Facade) RebuildIndex(ctx context.Context, userID string) (RebuildResult, error) {
	unlock := f.gate.LockRebuild(userID)
	defer unlock()

	start := time.Now()
	stats, err := f.indexer.RebuildAll(ctx, userID, start.Unix())
	if err != nil {
		return RebuildResult{}, vaulterr.Wrap(err, "rebuild index")
	}
	health, err := store.GetHealth(f.db.Conn(), userID)
	if err != nil {
		return RebuildResult{}, vaulterr.Wrap(err, "read index health")
	}
	return RebuildResult{
		NoteCount:        health.NoteCount,
		Reindexed:        stats.Reindexed,
		SkippedUnchanged: stats.SkippedUnchanged,
		Removed:          stats.Removed,
		Errors:           stats.Errors,
		DurationMs:       time.Since(start).Milliseconds(),
	}, nil
}

// HealthResult is the return value of IndexHealth.
type HealthResult struct {
	NoteCount             int
	LastFullRebuild       int64
	LastIncrementalUpdate int64
}

// IndexHealth reports a user's index counters.
func (f *Facade) IndexHealth(ctx context.Context, userID string) (HealthResult, error) {
	if err := ctx.Err(); err != nil {
		return HealthResult{}, err
	}
	h, err := store.GetHealth(f.db.Conn(), userID)
	if err != nil {
		return HealthResult{}, vaulterr.Wrap(err, "index health")
	}
	return HealthResult{NoteCount: h.NoteCount, LastFullRebuild: h.LastFullRebuild, LastIncrementalUpdate: h.LastIncrementalUpdate}, nil
}
