package indexer

import (
	"context"
	"fmt"

	"github.com/bigwolfeman/Document-MCP-sub002/internal/store"
)

// RebuildStats reports what a RebuildAll pass did.
type RebuildStats struct {
	TotalFiles       int
	Reindexed        int
	SkippedUnchanged int
	Removed          int
	Errors           int
}

// RebuildAll walks every note in a user's vault and brings the index back
// into agreement with the filesystem: notes whose content hash hasn't
// changed since the last index are skipped, notes present in the index
// but absent from the vault are unindexed, and everything else is
// reindexed. It runs as a sequential loop — not the teacher's worker
// pool — specifically so ctx can be checked between notes and the walk
// can stop cleanly mid-rebuild (a worker pool's in-flight goroutines
// can't be cancelled that cleanly).
func (ix *Indexer) RebuildAll(ctx context.Context, userID string, now int64) (RebuildStats, error) {
	var stats RebuildStats

	entries, err := ix.vault.List(userID, "")
	if err != nil {
		return stats, fmt.Errorf("list vault: %w", err)
	}
	stats.TotalFiles = len(entries)

	onDisk := make(map[string]bool, len(entries))
	for _, e := range entries {
		onDisk[e.Path] = true
	}

	existing, err := store.ListMetadata(ix.db.Conn(), userID, "")
	if err != nil {
		return stats, fmt.Errorf("list indexed notes: %w", err)
	}

	for _, e := range entries {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		note, err := ix.vault.Read(userID, e.Path)
		if err != nil {
			stats.Errors++
			continue
		}
		hash := contentHash(note.Body)

		if prior := priorHash(existing, e.Path); prior != "" && prior == hash {
			stats.SkippedUnchanged++
			continue
		}

		if _, err := ix.IndexNote(userID, e.Path, note.Frontmatter.Title, note.Frontmatter.Tags, note.Body, note.SizeBytes, now); err != nil {
			stats.Errors++
			continue
		}
		stats.Reindexed++
	}

	for _, m := range existing {
		if onDisk[m.NotePath] {
			continue
		}
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}
		if err := ix.UnindexNote(userID, m.NotePath, now); err != nil {
			stats.Errors++
			continue
		}
		stats.Removed++
	}

	finalCount, err := store.NoteCount(ix.db.Conn(), userID)
	if err != nil {
		return stats, fmt.Errorf("count notes: %w", err)
	}
	if err := store.SetFullRebuild(ix.db.Conn(), userID, finalCount, now); err != nil {
		return stats, fmt.Errorf("record rebuild: %w", err)
	}
	return stats, nil
}

func priorHash(existing []store.NoteMetadata, notePath string) string {
	for _, m := range existing {
		if m.NotePath == notePath {
			return m.ContentHash
		}
	}
	return ""
}
