package vault

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	yaml "go.yaml.in/yaml/v3"

	"github.com/bigwolfeman/Document-MCP-sub002/internal/vaulterr"
)

// Frontmatter is the decoded key/value metadata block at the top of a
// note. Title and Tags are first-class (the spec's data model names
// them); Extra holds any unknown keys, passed through unchanged on write.
type Frontmatter struct {
	Title string   `yaml:"title,omitempty"`
	Tags  []string `yaml:"tags,omitempty"`
	Extra map[string]any `yaml:"-"`
}

// Note is the full content of a vault file as returned by Read.
type Note struct {
	Path        string
	Frontmatter Frontmatter
	Body        string
	SizeBytes   int64
	ModTime     time.Time
}

// Entry is a single row of a List result.
type Entry struct {
	Path         string
	LastModified time.Time
}

// Store owns <vault_root>/<user_id>/... for every user. It is the
// exclusive writer of vault bytes; the Index Store exclusively owns the
// derived SQLite rows (spec.md §3 Ownership).
type Store struct {
	root             string
	maxNoteSizeBytes int64
}

// New constructs a Store rooted at vaultRoot.
func New(vaultRoot string, maxNoteSizeBytes int64) *Store {
	return &Store{root: vaultRoot, maxNoteSizeBytes: maxNoteSizeBytes}
}

// Read returns a note's frontmatter, body, size, and modification time.
func (s *Store) Read(userID, notePath string) (*Note, error) {
	root, err := userRoot(s.root, userID)
	if err != nil {
		return nil, err
	}
	full, err := resolveWithinVault(root, notePath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vaulterr.New(vaulterr.NotFound, "note not found").WithPath(notePath)
		}
		return nil, vaulterr.Wrap(err, "stat note")
	}
	raw, err := os.ReadFile(full)
	if err != nil {
		return nil, vaulterr.Wrap(err, "read note")
	}
	fm, body := decodeFrontmatter(raw)
	if fm.Title == "" {
		fm.Title = DeriveTitle(body, notePath)
	}
	return &Note{
		Path:        notePath,
		Frontmatter: fm,
		Body:        body,
		SizeBytes:   info.Size(),
		ModTime:     info.ModTime(),
	}, nil
}

// Write atomically persists frontmatter+body to notePath, creating parent
// directories as needed, and returns the new size in bytes. The caller
// (the Core Facade, under the Concurrency Gate) is responsible for quota
// enforcement, since quota is counted from the metadata table, not the
// filesystem (spec.md §4.1).
func (s *Store) Write(userID, notePath string, fm Frontmatter, body string) (int64, error) {
	root, err := userRoot(s.root, userID)
	if err != nil {
		return 0, err
	}
	full, err := resolveWithinVault(root, notePath)
	if err != nil {
		return 0, err
	}
	encoded := encodeFrontmatter(fm, body)
	if int64(len(encoded)) > s.maxNoteSizeBytes {
		return 0, vaulterr.New(vaulterr.TooLarge, fmt.Sprintf("note exceeds %d bytes", s.maxNoteSizeBytes)).WithPath(notePath)
	}
	if err := ensureDir(filepath.Dir(full)); err != nil {
		return 0, err
	}
	if err := atomicWrite(full, encoded); err != nil {
		return 0, vaulterr.Wrap(err, "write note")
	}
	return int64(len(encoded)), nil
}

// Delete removes a note. NotFound if it is already absent.
func (s *Store) Delete(userID, notePath string) error {
	root, err := userRoot(s.root, userID)
	if err != nil {
		return err
	}
	full, err := resolveWithinVault(root, notePath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return vaulterr.New(vaulterr.NotFound, "note not found").WithPath(notePath)
		}
		return vaulterr.Wrap(err, "stat note")
	}
	if err := os.Remove(full); err != nil {
		return vaulterr.Wrap(err, "delete note")
	}
	return nil
}

// Move renames a note within the same user's vault.
func (s *Store) Move(userID, oldPath, newPath string) error {
	root, err := userRoot(s.root, userID)
	if err != nil {
		return err
	}
	fullOld, err := resolveWithinVault(root, oldPath)
	if err != nil {
		return err
	}
	fullNew, err := resolveWithinVault(root, newPath)
	if err != nil {
		return err
	}
	if _, err := os.Stat(fullOld); err != nil {
		if os.IsNotExist(err) {
			return vaulterr.New(vaulterr.NotFound, "note not found").WithPath(oldPath)
		}
		return vaulterr.Wrap(err, "stat note")
	}
	if _, err := os.Stat(fullNew); err == nil {
		return vaulterr.New(vaulterr.Conflict, "move target already exists").WithPath(newPath)
	} else if !os.IsNotExist(err) {
		return vaulterr.Wrap(err, "stat move target")
	}
	if err := ensureDir(filepath.Dir(fullNew)); err != nil {
		return err
	}
	if err := os.Rename(fullOld, fullNew); err != nil {
		return vaulterr.Wrap(err, "move note")
	}
	return nil
}

// List returns every note under folder (or the whole vault if folder is
// empty), sorted by path ascending.
func (s *Store) List(userID, folder string) ([]Entry, error) {
	root, err := userRoot(s.root, userID)
	if err != nil {
		return nil, err
	}
	base := root
	if folder != "" {
		full, err := resolveFolder(root, folder)
		if err != nil {
			return nil, err
		}
		base = full
	}
	var entries []Entry
	err = filepath.Walk(base, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || !strings.HasSuffix(p, ".md") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{
			Path:         filepath.ToSlash(rel),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, vaulterr.Wrap(err, "list vault")
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func resolveFolder(root, folder string) (string, error) {
	clean := strings.Trim(filepath.ToSlash(filepath.Clean(folder)), "/")
	if clean == "" || clean == "." {
		return root, nil
	}
	full := filepath.Join(root, filepath.FromSlash(clean))
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", vaulterr.Wrap(err, "resolve vault root")
	}
	absFull, err := filepath.Abs(full)
	if err != nil {
		return "", vaulterr.Wrap(err, "resolve folder")
	}
	if !isDescendantOrEqual(absRoot, absFull) {
		return "", vaulterr.New(vaulterr.PathInvalid, "folder escapes the vault root").WithPath(folder)
	}
	return absFull, nil
}

// atomicWrite writes data to a temp file in dir's directory, fsyncs it,
// then renames it over path. Grounded on the teacher's idiom of small,
// single-purpose filesystem helpers (internal/store/db.go's OpenPath
// creates its own directories the same defensive way); the temp-file +
// fsync + rename sequence itself follows the standard Go atomic-write
// recipe used across the example pack's file-backed stores.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// decodeFrontmatter splits raw file bytes into frontmatter and body. A
// missing or malformed frontmatter block means the whole file is body.
//
// frontmatter.Parse decodes straight into the typed Frontmatter struct,
// which captures title/tags but (being yaml:"-") leaves Extra untouched.
// A second pass decodes the same block into a generic map so unknown
// keys survive the round trip instead of being silently dropped.
func decodeFrontmatter(raw []byte) (Frontmatter, string) {
	var fm Frontmatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		return Frontmatter{}, string(raw)
	}

	var all map[string]any
	if _, err := frontmatter.Parse(bytes.NewReader(raw), &all); err == nil {
		delete(all, "title")
		delete(all, "tags")
		if len(all) > 0 {
			fm.Extra = all
		}
	}
	return fm, string(body)
}

// encodeFrontmatter re-serializes frontmatter+body into a file's bytes.
// Unknown keys in Extra pass through unchanged.
func encodeFrontmatter(fm Frontmatter, body string) []byte {
	if fm.Title == "" && len(fm.Tags) == 0 && len(fm.Extra) == 0 {
		return []byte(body)
	}
	doc := map[string]any{}
	for k, v := range fm.Extra {
		doc[k] = v
	}
	if fm.Title != "" {
		doc["title"] = fm.Title
	}
	if len(fm.Tags) > 0 {
		doc["tags"] = fm.Tags
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	_ = enc.Encode(doc)
	_ = enc.Close()

	var out bytes.Buffer
	out.WriteString("---\n")
	out.Write(buf.Bytes())
	out.WriteString("---\n")
	out.WriteString(body)
	return out.Bytes()
}

// DeriveTitle falls back to the first H1 heading, then the filename stem,
// when frontmatter carries no title (spec.md §4.1 Encoding).
func DeriveTitle(body, notePath string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}
	stem := filepath.Base(notePath)
	return strings.TrimSuffix(stem, filepath.Ext(stem))
}
