package store

import "fmt"

// Health mirrors an index_health row.
type Health struct {
	UserID                string
	NoteCount             int
	LastFullRebuild       int64
	LastIncrementalUpdate int64
}

// GetHealth returns a user's health counters, zero-valued if the user has
// never been indexed.
func GetHealth(q Queryer, userID string) (Health, error) {
	h := Health{UserID: userID}
	err := q.QueryRow(`
		SELECT note_count, last_full_rebuild, last_incremental_update
		FROM index_health WHERE user_id = ?`, userID,
	).Scan(&h.NoteCount, &h.LastFullRebuild, &h.LastIncrementalUpdate)
	if err != nil {
		return h, nil // absent row == zero counters, not an error
	}
	return h, nil
}

func ensureHealthRow(q Queryer, userID string) error {
	_, err := q.Exec(`INSERT INTO index_health (user_id) VALUES (?) ON CONFLICT(user_id) DO NOTHING`, userID)
	return err
}

// BumpNoteCount adjusts note_count by delta and stamps
// last_incremental_update to now.
func BumpNoteCount(q Queryer, userID string, delta int, now int64) error {
	if err := ensureHealthRow(q, userID); err != nil {
		return fmt.Errorf("ensure health row: %w", err)
	}
	_, err := q.Exec(`
		UPDATE index_health SET note_count = note_count + ?, last_incremental_update = ?
		WHERE user_id = ?`, delta, now, userID)
	if err != nil {
		return fmt.Errorf("bump note count: %w", err)
	}
	return nil
}

// TouchIncrementalUpdate stamps last_incremental_update without changing
// note_count.
func TouchIncrementalUpdate(q Queryer, userID string, now int64) error {
	if err := ensureHealthRow(q, userID); err != nil {
		return fmt.Errorf("ensure health row: %w", err)
	}
	_, err := q.Exec(`UPDATE index_health SET last_incremental_update = ? WHERE user_id = ?`, now, userID)
	if err != nil {
		return fmt.Errorf("touch incremental update: %w", err)
	}
	return nil
}

// SetFullRebuild stamps last_full_rebuild and sets note_count exactly.
func SetFullRebuild(q Queryer, userID string, noteCount int, now int64) error {
	if err := ensureHealthRow(q, userID); err != nil {
		return fmt.Errorf("ensure health row: %w", err)
	}
	_, err := q.Exec(`
		UPDATE index_health SET note_count = ?, last_full_rebuild = ?, last_incremental_update = ?
		WHERE user_id = ?`, noteCount, now, now, userID)
	if err != nil {
		return fmt.Errorf("set full rebuild: %w", err)
	}
	return nil
}
