// Package watch keeps the derived index in sync with Markdown files that
// change on disk outside an explicit Core Facade call (spec.md §3's
// "filesystem is the source of truth" ownership rule implies the index
// must also track edits made by another process, e.g. a sync client or a
// text editor). Grounded on the teacher's internal/watcher/watcher.go:
// fsnotify.NewWatcher, the directory-add-on-Create walk, and the
// debounce-by-timer idiom all carry over; the embedding-provider
// reindex path does not (no embeddings in this spec's scope).
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bigwolfeman/Document-MCP-sub002/internal/indexer"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/vault"
)

const debounceDelay = 2 * time.Second

// Watcher watches every user directory under a vault root and keeps the
// index in lockstep with Markdown files changed outside the facade.
type Watcher struct {
	root    string
	indexer *indexer.Indexer
	vault   *vault.Store
	logger  *slog.Logger

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
}

// New constructs a Watcher rooted at vaultRoot (the same root the Vault
// Store and Indexer were constructed with).
func New(vaultRoot string, ix *indexer.Indexer, vs *vault.Store, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		root:    vaultRoot,
		indexer: ix,
		vault:   vs,
		logger:  logger,
		fsw:     fsw,
		pending: make(map[string]bool),
	}, nil
}

// Run adds every existing directory under the vault root and blocks,
// reindexing changed notes as events arrive, until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	for _, dir := range w.walkDirs() {
		if err := w.fsw.Add(dir); err != nil {
			w.logger.Warn("watch add failed", "dir", dir, "err", err)
		}
	}
	w.logger.Info("watching vault root", "root", w.root)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".md") {
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := w.fsw.Add(event.Name); err != nil {
					w.logger.Warn("watch add failed", "dir", event.Name, "err", err)
				}
			}
		}
		return
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		userID, notePath, ok := w.splitPath(event.Name)
		if !ok {
			return
		}
		if err := w.indexer.UnindexNote(userID, notePath, time.Now().Unix()); err != nil {
			w.logger.Warn("unindex after remove failed", "user", userID, "path", notePath, "err", err)
		}
		return
	}

	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
		w.mu.Lock()
		w.pending[event.Name] = true
		if w.timer != nil {
			w.timer.Stop()
		}
		w.timer = time.AfterFunc(debounceDelay, w.flush)
		w.mu.Unlock()
	}
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	for _, p := range paths {
		w.reindexOne(p)
	}
}

func (w *Watcher) reindexOne(absPath string) {
	userID, notePath, ok := w.splitPath(absPath)
	if !ok {
		return
	}
	note, err := w.vault.Read(userID, notePath)
	if err != nil {
		w.logger.Warn("read changed note failed", "user", userID, "path", notePath, "err", err)
		return
	}
	title := note.Frontmatter.Title
	if title == "" {
		title = vault.DeriveTitle(note.Body, notePath)
	}
	if _, err := w.indexer.IndexNote(userID, notePath, title, note.Frontmatter.Tags, note.Body, note.SizeBytes, time.Now().Unix()); err != nil {
		w.logger.Warn("reindex changed note failed", "user", userID, "path", notePath, "err", err)
		return
	}
	w.logger.Info("reindexed changed note", "user", userID, "path", notePath)
}

// splitPath turns an absolute filesystem path under the vault root into
// the (user_id, note_path) pair the Indexer and Vault Store operate on.
func (w *Watcher) splitPath(absPath string) (userID, notePath string, ok bool) {
	rel, err := filepath.Rel(w.root, absPath)
	if err != nil {
		return "", "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", "", false
	}
	parts := strings.SplitN(rel, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func (w *Watcher) walkDirs() []string {
	var dirs []string
	filepath.WalkDir(w.root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, p)
		}
		return nil
	})
	return dirs
}
