package store

import "fmt"

// IndexFTS replaces a note's contentless FTS row. rowID must equal the
// note's note_metadata.id so the two tables stay in 1:1 correspondence
// (spec.md §3 FTS index invariant).
func IndexFTS(q Queryer, rowID int64, userID, notePath, title, body string) error {
	if _, err := q.Exec(`DELETE FROM note_fts WHERE rowid = ?`, rowID); err != nil {
		return fmt.Errorf("clear fts row: %w", err)
	}
	_, err := q.Exec(`
		INSERT INTO note_fts (rowid, user_id, note_path, title, body)
		VALUES (?, ?, ?, ?, ?)`,
		rowID, userID, notePath, title, body,
	)
	if err != nil {
		return fmt.Errorf("insert fts row: %w", err)
	}
	return nil
}

// DeleteFTS removes a note's FTS row by its note_metadata id.
func DeleteFTS(q Queryer, rowID int64) error {
	if _, err := q.Exec(`DELETE FROM note_fts WHERE rowid = ?`, rowID); err != nil {
		return fmt.Errorf("delete fts row: %w", err)
	}
	return nil
}

// SearchRow is a single FTS match joined with its current metadata.
type SearchRow struct {
	NotePath string
	Title    string
	BM25     float64 // raw sqlite bm25() value: more negative is a better match
	Created  int64
	Updated  int64
}

// SearchFTS runs a MATCH query scoped to userID and weighted per
// spec.md §4.5 (title x titleWeight, body x bodyWeight). bm25() takes one
// weight per declared column, so the two UNINDEXED key columns get 0.
// note_fts is contentless and returns NULL for its columns, so the path
// and user scope come from note_metadata. Callers must have already
// sanitized ftsQuery (internal/search does this) — this function performs
// no rewriting of its own.
func SearchFTS(q Queryer, userID, ftsQuery string, titleWeight, bodyWeight float64, limit int) ([]SearchRow, error) {
	rows, err := q.Query(`
		SELECT m.note_path, m.title, bm25(note_fts, 0.0, 0.0, ?, ?) as rank, m.created, m.updated
		FROM note_fts f
		JOIN note_metadata m ON m.id = f.rowid
		WHERE note_fts MATCH ? AND m.user_id = ?
		ORDER BY rank
		LIMIT ?`,
		titleWeight, bodyWeight, ftsQuery, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fts match: %w", err)
	}
	defer rows.Close()
	var out []SearchRow
	for rows.Next() {
		var r SearchRow
		if err := rows.Scan(&r.NotePath, &r.Title, &r.BM25, &r.Created, &r.Updated); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
