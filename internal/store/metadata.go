package store

import (
	"database/sql"
	"fmt"
)

// NoteMetadata mirrors a note_metadata row.
type NoteMetadata struct {
	ID                   int64
	UserID               string
	NotePath             string
	Version              int
	Title                string
	SizeBytes            int64
	Created              int64
	Updated              int64
	NormalizedTitleSlug  string
	NormalizedPathSlug   string
	ContentHash          string
}

// GetMetadata returns the metadata row for (userID, notePath), or
// (nil, nil) if absent.
func GetMetadata(q Queryer, userID, notePath string) (*NoteMetadata, error) {
	var m NoteMetadata
	err := q.QueryRow(`
		SELECT id, user_id, note_path, version, title, size_bytes, created, updated,
		       normalized_title_slug, normalized_path_slug, content_hash
		FROM note_metadata WHERE user_id = ? AND note_path = ?`,
		userID, notePath,
	).Scan(&m.ID, &m.UserID, &m.NotePath, &m.Version, &m.Title, &m.SizeBytes, &m.Created, &m.Updated,
		&m.NormalizedTitleSlug, &m.NormalizedPathSlug, &m.ContentHash)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get metadata: %w", err)
	}
	return &m, nil
}

// UpsertMetadata inserts a new metadata row (version starts at 1) or
// updates an existing one (version supplied by the caller, who has
// already incremented it). Returns the row id, used as the note_fts
// rowid.
func UpsertMetadata(q Queryer, m NoteMetadata) (int64, error) {
	res, err := q.Exec(`
		INSERT INTO note_metadata (user_id, note_path, version, title, size_bytes, created, updated,
		                            normalized_title_slug, normalized_path_slug, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, note_path) DO UPDATE SET
			version = excluded.version,
			title = excluded.title,
			size_bytes = excluded.size_bytes,
			updated = excluded.updated,
			normalized_title_slug = excluded.normalized_title_slug,
			normalized_path_slug = excluded.normalized_path_slug,
			content_hash = excluded.content_hash`,
		m.UserID, m.NotePath, m.Version, m.Title, m.SizeBytes, m.Created, m.Updated,
		m.NormalizedTitleSlug, m.NormalizedPathSlug, m.ContentHash,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert metadata: %w", err)
	}
	existing, err := GetMetadata(q, m.UserID, m.NotePath)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}
	return res.LastInsertId()
}

// DeleteMetadata removes a metadata row, returning true if one existed.
func DeleteMetadata(q Queryer, userID, notePath string) (bool, error) {
	res, err := q.Exec(`DELETE FROM note_metadata WHERE user_id = ? AND note_path = ?`, userID, notePath)
	if err != nil {
		return false, fmt.Errorf("delete metadata: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RenameMetadata moves a metadata row to a new path, setting version to
// the caller-supplied newVersion and updated to updated.
func RenameMetadata(q Queryer, userID, oldPath, newPath string, newVersion int, updated int64, newTitleSlug, newPathSlug string) error {
	_, err := q.Exec(`
		UPDATE note_metadata SET note_path = ?, version = ?, updated = ?,
		       normalized_path_slug = ?, normalized_title_slug = ?
		WHERE user_id = ? AND note_path = ?`,
		newPath, newVersion, updated, newPathSlug, newTitleSlug, userID, oldPath,
	)
	if err != nil {
		return fmt.Errorf("rename metadata: %w", err)
	}
	return nil
}

// NoteCount returns the number of notes currently indexed for a user
// (used for quota enforcement — the count is taken from metadata, not
// the filesystem, per spec.md §4.1).
func NoteCount(q Queryer, userID string) (int, error) {
	var n int
	err := q.QueryRow(`SELECT COUNT(*) FROM note_metadata WHERE user_id = ?`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return n, nil
}

// CandidatesBySlug returns every note of a user whose title or path slug
// equals slug — the wikilink resolution candidate set (spec.md §4.4).
func CandidatesBySlug(q Queryer, userID, slug string) ([]NoteMetadata, error) {
	rows, err := q.Query(`
		SELECT id, user_id, note_path, version, title, size_bytes, created, updated,
		       normalized_title_slug, normalized_path_slug, content_hash
		FROM note_metadata
		WHERE user_id = ? AND (normalized_title_slug = ? OR normalized_path_slug = ?)`,
		userID, slug, slug,
	)
	if err != nil {
		return nil, fmt.Errorf("candidates by slug: %w", err)
	}
	defer rows.Close()
	var out []NoteMetadata
	for rows.Next() {
		var m NoteMetadata
		if err := rows.Scan(&m.ID, &m.UserID, &m.NotePath, &m.Version, &m.Title, &m.SizeBytes, &m.Created, &m.Updated,
			&m.NormalizedTitleSlug, &m.NormalizedPathSlug, &m.ContentHash); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListMetadata lists every note under folder (or the whole vault, if
// folder is empty) for a user, sorted by note_path ascending.
func ListMetadata(q Queryer, userID, folder string) ([]NoteMetadata, error) {
	pattern := folder
	var rows *sql.Rows
	var err error
	if folder == "" {
		rows, err = q.Query(`
			SELECT id, user_id, note_path, version, title, size_bytes, created, updated,
			       normalized_title_slug, normalized_path_slug, content_hash
			FROM note_metadata WHERE user_id = ? ORDER BY note_path ASC`, userID)
	} else {
		if len(pattern) > 0 && pattern[len(pattern)-1] != '/' {
			pattern += "/"
		}
		rows, err = q.Query(`
			SELECT id, user_id, note_path, version, title, size_bytes, created, updated,
			       normalized_title_slug, normalized_path_slug, content_hash
			FROM note_metadata WHERE user_id = ? AND note_path LIKE ? || '%' ORDER BY note_path ASC`, userID, pattern)
	}
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	defer rows.Close()
	var out []NoteMetadata
	for rows.Next() {
		var m NoteMetadata
		if err := rows.Scan(&m.ID, &m.UserID, &m.NotePath, &m.Version, &m.Title, &m.SizeBytes, &m.Created, &m.Updated,
			&m.NormalizedTitleSlug, &m.NormalizedPathSlug, &m.ContentHash); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
