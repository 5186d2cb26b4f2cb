package store

import "database/sql"

// Queryer is satisfied by both *sql.DB and *sql.Tx, so every helper in
// this package can run either standalone or as part of the Indexer's
// single transaction (spec.md §4.2 Consistency).
type Queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

// WithTx runs fn inside a new transaction on db, committing on success and
// rolling back on any error (including a panic, which is re-thrown after
// rollback).
func (db *DB) WithTx(fn func(tx *sql.Tx) error) (err error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
