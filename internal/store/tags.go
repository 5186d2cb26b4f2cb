package store

import "fmt"

// TagCount is a single row of the Tags() facade operation.
type TagCount struct {
	Tag   string
	Count int
}

// ReplaceTags fully rewrites a note's tag set (spec.md §3: "fully
// rewritten on every write of a note — no stale tags").
func ReplaceTags(q Queryer, userID, notePath string, tags []string) error {
	if _, err := q.Exec(`DELETE FROM note_tags WHERE user_id = ? AND note_path = ?`, userID, notePath); err != nil {
		return fmt.Errorf("clear tags: %w", err)
	}
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		if _, err := q.Exec(`INSERT INTO note_tags (user_id, note_path, tag) VALUES (?, ?, ?)`, userID, notePath, t); err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}
	}
	return nil
}

// RenameTags repoints every tag row for a note to its new path (used by
// MoveNote; the tag set itself is unchanged).
func RenameTags(q Queryer, userID, oldPath, newPath string) error {
	_, err := q.Exec(`UPDATE note_tags SET note_path = ? WHERE user_id = ? AND note_path = ?`, newPath, userID, oldPath)
	if err != nil {
		return fmt.Errorf("rename tags: %w", err)
	}
	return nil
}

// DeleteTags removes every tag row for a note.
func DeleteTags(q Queryer, userID, notePath string) error {
	if _, err := q.Exec(`DELETE FROM note_tags WHERE user_id = ? AND note_path = ?`, userID, notePath); err != nil {
		return fmt.Errorf("delete tags: %w", err)
	}
	return nil
}

// ListTags returns every tag for a user with its usage count, ordered by
// tag ascending.
func ListTags(q Queryer, userID string) ([]TagCount, error) {
	rows, err := q.Query(`
		SELECT tag, COUNT(*) FROM note_tags WHERE user_id = ?
		GROUP BY tag ORDER BY tag ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()
	var out []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}
