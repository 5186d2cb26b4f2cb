// Package indexer keeps the derived SQLite index (internal/store) in sync
// with the filesystem-owned vault (internal/vault): upserting metadata,
// the contentless FTS row, the tag set, and the wikilink graph on every
// write, and tearing the same rows down on delete. Grounded on the
// teacher's internal/indexer/indexer.go (Reindex/ReindexWithProgress):
// the content-hash skip optimization and the walk-then-index shape carry
// over; the embedding/graph-LLM/chunking machinery does not, since this
// index has no vector or chunk dimension (spec.md Non-goals).
package indexer

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/bigwolfeman/Document-MCP-sub002/internal/store"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/vault"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/vaulterr"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/wikilink"
)

// Indexer ties the Vault Store and Index Store together so that every
// note write keeps note_metadata, note_fts, note_tags, and note_links in
// lockstep, inside a single transaction (spec.md §4.2/§4.3 Consistency).
type Indexer struct {
	db    *store.DB
	vault *vault.Store
}

// New constructs an Indexer over db and vs.
func New(db *store.DB, vs *vault.Store) *Indexer {
	return &Indexer{db: db, vault: vs}
}

// Result reports the version and creation state of an indexed note.
type Result struct {
	Version int
	Created bool
}

// IndexNote upserts a note's full derived state: metadata (with version
// bump), the FTS row, its tag set, its outbound wikilinks (resolved
// against every note's slug, this note included), and any previously-unresolved inbound
// links that this note's slugs now satisfy.
func (ix *Indexer) IndexNote(userID, notePath, title string, tags []string, body string, sizeBytes int64, now int64) (Result, error) {
	var res Result
	titleSlug := wikilink.NormalizeSlug(title)
	pathSlug := wikilink.PathSlug(notePath)

	err := ix.db.WithTx(func(tx *sql.Tx) error {
		existing, err := store.GetMetadata(tx, userID, notePath)
		if err != nil {
			return err
		}
		version := 1
		created := existing == nil
		createdAt := now
		if existing != nil {
			version = existing.Version + 1
			createdAt = existing.Created
		}

		rowID, err := store.UpsertMetadata(tx, store.NoteMetadata{
			UserID:              userID,
			NotePath:            notePath,
			Version:             version,
			Title:               title,
			SizeBytes:           sizeBytes,
			Created:             createdAt,
			Updated:             now,
			NormalizedTitleSlug: titleSlug,
			NormalizedPathSlug:  pathSlug,
			ContentHash:         contentHash(body),
		})
		if err != nil {
			return err
		}
		if err := store.IndexFTS(tx, rowID, userID, notePath, title, body); err != nil {
			return err
		}
		if err := store.ReplaceTags(tx, userID, notePath, tags); err != nil {
			return err
		}
		if err := ix.reindexOutboundLinks(tx, userID, notePath, body); err != nil {
			return err
		}
		if err := ix.reresolveInboundLinks(tx, userID, titleSlug); err != nil {
			return err
		}
		if pathSlug != titleSlug {
			if err := ix.reresolveInboundLinks(tx, userID, pathSlug); err != nil {
				return err
			}
		}
		if created {
			if err := store.BumpNoteCount(tx, userID, 1, now); err != nil {
				return err
			}
		} else {
			if err := store.TouchIncrementalUpdate(tx, userID, now); err != nil {
				return err
			}
		}
		res = Result{Version: version, Created: created}
		return nil
	})
	return res, err
}

// UnindexNote removes a note's metadata, FTS row, tags, and outbound
// links, and breaks any inbound links that targeted it. A no-op (not an
// error) if the note was never indexed.
func (ix *Indexer) UnindexNote(userID, notePath string, now int64) error {
	return ix.db.WithTx(func(tx *sql.Tx) error {
		existing, err := store.GetMetadata(tx, userID, notePath)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		if err := store.DeleteFTS(tx, existing.ID); err != nil {
			return err
		}
		if _, err := store.DeleteMetadata(tx, userID, notePath); err != nil {
			return err
		}
		if err := store.DeleteTags(tx, userID, notePath); err != nil {
			return err
		}
		if err := store.DeleteOutboundLinks(tx, userID, notePath); err != nil {
			return err
		}
		if err := store.BreakInboundLinksTo(tx, userID, notePath); err != nil {
			return err
		}
		return store.BumpNoteCount(tx, userID, -1, now)
	})
}

// MoveNote repoints a note's metadata, tags, and outbound/inbound links to
// its new path, and re-derives title/path slugs for the new location.
// title and body are the note's content as it now stands at newPath (the
// caller reads them back after the filesystem rename).
func (ix *Indexer) MoveNote(userID, oldPath, newPath, title string, tags []string, body string, now int64) (Result, error) {
	var res Result
	titleSlug := wikilink.NormalizeSlug(title)
	pathSlug := wikilink.PathSlug(newPath)

	err := ix.db.WithTx(func(tx *sql.Tx) error {
		existing, err := store.GetMetadata(tx, userID, oldPath)
		if err != nil {
			return err
		}
		if existing == nil {
			return vaulterr.New(vaulterr.NotFound, "note not indexed").WithPath(oldPath)
		}
		version := existing.Version + 1

		if err := store.RenameMetadata(tx, userID, oldPath, newPath, version, now, titleSlug, pathSlug); err != nil {
			return err
		}
		if err := store.IndexFTS(tx, existing.ID, userID, newPath, title, body); err != nil {
			return err
		}
		if err := store.RenameTags(tx, userID, oldPath, newPath); err != nil {
			return err
		}
		if err := store.RenameOutboundLinksSource(tx, userID, oldPath, newPath); err != nil {
			return err
		}
		if err := ix.reindexOutboundLinks(tx, userID, newPath, body); err != nil {
			return err
		}
		if err := store.RetargetInboundLinks(tx, userID, oldPath, newPath); err != nil {
			return err
		}
		if err := ix.reresolveInboundLinks(tx, userID, titleSlug); err != nil {
			return err
		}
		if pathSlug != titleSlug {
			if err := ix.reresolveInboundLinks(tx, userID, pathSlug); err != nil {
				return err
			}
		}
		if err := store.TouchIncrementalUpdate(tx, userID, now); err != nil {
			return err
		}
		res = Result{Version: version}
		return nil
	})
	return res, err
}

// reindexOutboundLinks extracts every [[LinkText]] occurrence in body,
// resolves each against the user's current notes, and rewrites
// sourcePath's note_links rows in full.
func (ix *Indexer) reindexOutboundLinks(q store.Queryer, userID, sourcePath, body string) error {
	texts := wikilink.Extract(body)
	links := make([]store.Link, 0, len(texts))
	for _, text := range texts {
		slug := wikilink.NormalizeSlug(text)
		candidates, err := store.CandidatesBySlug(q, userID, slug)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", text, err)
		}
		wikiCandidates := make([]wikilink.Candidate, len(candidates))
		for i, c := range candidates {
			wikiCandidates[i] = wikilink.Candidate{NotePath: c.NotePath}
		}
		target, resolved := wikilink.Resolve(sourcePath, wikiCandidates)
		l := store.Link{UserID: userID, SourcePath: sourcePath, LinkText: text, IsResolved: resolved}
		if resolved {
			l.TargetPath.String = target
			l.TargetPath.Valid = true
		}
		links = append(links, l)
	}
	return store.ReplaceOutboundLinks(q, userID, sourcePath, links)
}

// reresolveInboundLinks re-resolves every unresolved link whose text
// normalizes to slug — called after a note is created or moved, since its
// arrival may satisfy links that previously pointed nowhere.
func (ix *Indexer) reresolveInboundLinks(q store.Queryer, userID, slug string) error {
	unresolved, err := store.UnresolvedLinksMatchingSlug(q, userID, wikilink.NormalizeSlug, slug)
	if err != nil {
		return err
	}
	if len(unresolved) == 0 {
		return nil
	}
	candidates, err := store.CandidatesBySlug(q, userID, slug)
	if err != nil {
		return err
	}
	wikiCandidates := make([]wikilink.Candidate, len(candidates))
	for i, c := range candidates {
		wikiCandidates[i] = wikilink.Candidate{NotePath: c.NotePath}
	}
	for _, l := range unresolved {
		target, resolved := wikilink.Resolve(l.SourcePath, wikiCandidates)
		if !resolved {
			continue
		}
		if err := store.SetLinkTarget(q, userID, l.SourcePath, l.LinkText, target, resolved); err != nil {
			return err
		}
	}
	return nil
}

// contentHash is the skip-unchanged fingerprint used by RebuildAll,
// grounded on the teacher's sha256Hash helper in internal/indexer/indexer.go.
func contentHash(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}
