package store

import (
	"database/sql"
	"fmt"
)

// Link mirrors a note_links row.
type Link struct {
	UserID     string
	SourcePath string
	LinkText   string
	TargetPath sql.NullString
	IsResolved bool
}

// Backlink is a single row of the Backlinks() facade operation.
type Backlink struct {
	SourcePath string
	Title      string
}

// ReplaceOutboundLinks fully rewrites the set of note_links rows whose
// source_path is sourcePath. Each entry maps a link's raw text to its
// resolved target (empty target = unresolved).
func ReplaceOutboundLinks(q Queryer, userID, sourcePath string, links []Link) error {
	if _, err := q.Exec(`DELETE FROM note_links WHERE user_id = ? AND source_path = ?`, userID, sourcePath); err != nil {
		return fmt.Errorf("clear outbound links: %w", err)
	}
	for _, l := range links {
		resolved := 0
		if l.IsResolved {
			resolved = 1
		}
		if _, err := q.Exec(`
			INSERT INTO note_links (user_id, source_path, link_text, target_path, is_resolved)
			VALUES (?, ?, ?, ?, ?)`,
			userID, sourcePath, l.LinkText, nullableString(l.TargetPath), resolved,
		); err != nil {
			return fmt.Errorf("insert link: %w", err)
		}
	}
	return nil
}

func nullableString(s sql.NullString) any {
	if !s.Valid {
		return nil
	}
	return s.String
}

// RenameOutboundLinksSource repoints every outbound link row's source_path
// to a note's new path (used by MoveNote).
func RenameOutboundLinksSource(q Queryer, userID, oldPath, newPath string) error {
	_, err := q.Exec(`UPDATE note_links SET source_path = ? WHERE user_id = ? AND source_path = ?`, newPath, userID, oldPath)
	if err != nil {
		return fmt.Errorf("rename outbound link sources: %w", err)
	}
	return nil
}

// DeleteOutboundLinks removes every outbound link row for a note (used by
// UnindexNote).
func DeleteOutboundLinks(q Queryer, userID, sourcePath string) error {
	if _, err := q.Exec(`DELETE FROM note_links WHERE user_id = ? AND source_path = ?`, userID, sourcePath); err != nil {
		return fmt.Errorf("delete outbound links: %w", err)
	}
	return nil
}

// BreakInboundLinksTo marks every resolved link that targets notePath as
// unresolved (spec.md §3: delete/move-away sets target_path = NULL rather
// than deleting the row, preserving the occurrence for UI affordances).
func BreakInboundLinksTo(q Queryer, userID, notePath string) error {
	_, err := q.Exec(`
		UPDATE note_links SET target_path = NULL, is_resolved = 0
		WHERE user_id = ? AND target_path = ? AND is_resolved = 1`,
		userID, notePath,
	)
	if err != nil {
		return fmt.Errorf("break inbound links: %w", err)
	}
	return nil
}

// RetargetInboundLinks moves resolved inbound links pointing at oldPath to
// newPath (used by MoveNote).
func RetargetInboundLinks(q Queryer, userID, oldPath, newPath string) error {
	_, err := q.Exec(`
		UPDATE note_links SET target_path = ?
		WHERE user_id = ? AND target_path = ? AND is_resolved = 1`,
		newPath, userID, oldPath,
	)
	if err != nil {
		return fmt.Errorf("retarget inbound links: %w", err)
	}
	return nil
}

// UnresolvedLinksMatchingSlug returns every unresolved link of a user
// whose link text normalizes to slug, used to re-resolve inbound links
// when a note is created. The SQL reads all of the user's unresolved
// links and the slug comparison runs in Go; it is not an indexed lookup.
func UnresolvedLinksMatchingSlug(q Queryer, userID string, normalize func(string) string, slug string) ([]Link, error) {
	rows, err := q.Query(`
		SELECT user_id, source_path, link_text, target_path, is_resolved
		FROM note_links WHERE user_id = ? AND is_resolved = 0`, userID)
	if err != nil {
		return nil, fmt.Errorf("unresolved links: %w", err)
	}
	defer rows.Close()
	var out []Link
	for rows.Next() {
		var l Link
		var resolved int
		if err := rows.Scan(&l.UserID, &l.SourcePath, &l.LinkText, &l.TargetPath, &resolved); err != nil {
			return nil, err
		}
		l.IsResolved = resolved != 0
		if normalize(l.LinkText) == slug {
			out = append(out, l)
		}
	}
	return out, rows.Err()
}

// SetLinkTarget updates a single outbound link row's resolution.
func SetLinkTarget(q Queryer, userID, sourcePath, linkText, targetPath string, resolved bool) error {
	r := 0
	if resolved {
		r = 1
	}
	var target any
	if targetPath != "" {
		target = targetPath
	}
	_, err := q.Exec(`
		UPDATE note_links SET target_path = ?, is_resolved = ?
		WHERE user_id = ? AND source_path = ? AND link_text = ?`,
		target, r, userID, sourcePath, linkText,
	)
	if err != nil {
		return fmt.Errorf("set link target: %w", err)
	}
	return nil
}

// Backlinks returns every resolved inbound link to notePath, with the
// source note's current title, ordered by source_path ascending.
func Backlinks(q Queryer, userID, notePath string) ([]Backlink, error) {
	rows, err := q.Query(`
		SELECT l.source_path, COALESCE(m.title, '')
		FROM note_links l
		LEFT JOIN note_metadata m ON m.user_id = l.user_id AND m.note_path = l.source_path
		WHERE l.user_id = ? AND l.target_path = ? AND l.is_resolved = 1
		ORDER BY l.source_path ASC`,
		userID, notePath,
	)
	if err != nil {
		return nil, fmt.Errorf("backlinks: %w", err)
	}
	defer rows.Close()
	var out []Backlink
	for rows.Next() {
		var b Backlink
		if err := rows.Scan(&b.SourcePath, &b.Title); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
