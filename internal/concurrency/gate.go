// Package concurrency implements the Concurrency Gate: a per-(user_id,
// note_path) write mutex plus a per-user rebuild lock (spec.md §4.6).
// The teacher's internal/store/claims.go serializes writers across
// independent *processes* via a persisted, TTL-expiring claims table —
// this spec is explicitly single-node, so the gate here is a genuine
// in-process sync.Mutex map; only claims.go's key-normalization shape
// carries over (see DESIGN.md).
package concurrency

import "sync"

// Gate serializes conflicting writes to the same note and excludes
// concurrent rebuilds of the same user's index.
type Gate struct {
	mu       sync.Mutex
	notes    map[string]*sync.Mutex
	rebuilds map[string]*sync.Mutex
}

// NewGate constructs an empty Gate.
func NewGate() *Gate {
	return &Gate{
		notes:    make(map[string]*sync.Mutex),
		rebuilds: make(map[string]*sync.Mutex),
	}
}

// LockNote acquires the mutex for (userID, notePath), returning an unlock
// function the caller must defer. Reads never call this (spec.md §4.6:
// "reads do not take this lock").
func (g *Gate) LockNote(userID, notePath string) func() {
	m := g.noteLock(userID, notePath)
	m.Lock()
	return m.Unlock
}

// LockRebuild acquires the per-user rebuild lock.
func (g *Gate) LockRebuild(userID string) func() {
	m := g.rebuildLock(userID)
	m.Lock()
	return m.Unlock
}

func (g *Gate) noteLock(userID, notePath string) *sync.Mutex {
	key := userID + "\x00" + notePath
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.notes[key]
	if !ok {
		m = &sync.Mutex{}
		g.notes[key] = m
	}
	return m
}

func (g *Gate) rebuildLock(userID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.rebuilds[userID]
	if !ok {
		m = &sync.Mutex{}
		g.rebuilds[userID] = m
	}
	return m
}
