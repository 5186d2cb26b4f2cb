// Package vault owns the per-user Markdown vault on the filesystem:
// path validation, atomic reads/writes, deletes, moves, and listings.
// It never looks inside another user's directory.
package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bigwolfeman/Document-MCP-sub002/internal/vaulterr"
)

const maxPathBytes = 256

// reservedNames are platform-sensitive device names rejected regardless of
// host OS, so vaults stay portable.
var reservedNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true,
	"com1": true, "com2": true, "com3": true, "com4": true, "com5": true,
	"com6": true, "com7": true, "com8": true, "com9": true,
	"lpt1": true, "lpt2": true, "lpt3": true, "lpt4": true, "lpt5": true,
	"lpt6": true, "lpt7": true, "lpt8": true, "lpt9": true,
}

// validateNotePath applies path-safety rules 1-6 of the Vault Store
// (the rules that don't require filesystem access) and returns the cleaned,
// forward-slash, vault-relative path. Rule 7 (symlink-escape protection)
// is applied separately by resolveWithinVault, since it needs the user's
// root on disk.
//
// Grounded on internal/mcp/server.go:safeVaultPath and
// internal/store/claims.go:NormalizeClaimPath from the teacher repo.
func validateNotePath(rawPath string) (string, error) {
	if len(rawPath) == 0 {
		return "", vaulterr.New(vaulterr.PathInvalid, "path must not be empty").WithPath(rawPath)
	}
	// Rule 1: length.
	if len(rawPath) > maxPathBytes {
		return "", vaulterr.New(vaulterr.PathInvalid, "path exceeds 256 bytes").WithPath(rawPath)
	}
	// Rule 4: null bytes and control characters.
	for _, r := range rawPath {
		if r == 0 || r < 0x20 {
			return "", vaulterr.New(vaulterr.PathInvalid, "path contains a control character").WithPath(rawPath)
		}
	}
	// Rule 3: only forward slashes; backslashes rejected outright (not
	// silently normalized — accepting a backslash path would let the
	// same logical note be reachable under two different spellings).
	if strings.ContainsRune(rawPath, '\\') {
		return "", vaulterr.New(vaulterr.PathInvalid, "path must use forward slashes").WithPath(rawPath)
	}
	if strings.HasPrefix(rawPath, "/") {
		return "", vaulterr.New(vaulterr.PathInvalid, "path must not be absolute").WithPath(rawPath)
	}
	if hasWindowsDrivePrefix(rawPath) {
		return "", vaulterr.New(vaulterr.PathInvalid, "path must be relative to the vault").WithPath(rawPath)
	}
	// Rule 2: no empty/`.`/`..` segments.
	segments := strings.Split(rawPath, "/")
	for _, seg := range segments {
		if seg == "" {
			return "", vaulterr.New(vaulterr.PathInvalid, "path contains an empty segment").WithPath(rawPath)
		}
		if seg == "." || seg == ".." {
			return "", vaulterr.New(vaulterr.PathInvalid, "path contains a . or .. segment").WithPath(rawPath)
		}
		// Rule 5: reserved device names, with or without extension.
		stem := seg
		if i := strings.LastIndex(stem, "."); i >= 0 {
			stem = stem[:i]
		}
		if reservedNames[strings.ToLower(stem)] {
			return "", vaulterr.New(vaulterr.PathInvalid, "path contains a reserved filename").WithPath(rawPath)
		}
	}
	// Rule 6: must end in .md.
	if !strings.HasSuffix(rawPath, ".md") {
		return "", vaulterr.New(vaulterr.PathInvalid, "path must end in .md").WithPath(rawPath)
	}
	clean := filepath.ToSlash(filepath.Clean(rawPath))
	if clean != rawPath {
		// Clean() collapsing anything means the raw form wasn't already
		// canonical (e.g. "a//b.md"); reject rather than silently accept
		// an alternate spelling of the same logical path.
		return "", vaulterr.New(vaulterr.PathInvalid, "path is not in canonical form").WithPath(rawPath)
	}
	return clean, nil
}

func hasWindowsDrivePrefix(p string) bool {
	if len(p) < 3 {
		return false
	}
	ch := p[0]
	isLetter := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
	return isLetter && p[1] == ':' && (p[2] == '/' || p[2] == '\\')
}

// resolveWithinVault validates rawPath and resolves it against the user's
// vault root, enforcing rule 7: the resolved absolute path must be a
// strict descendant of the root, and any symlink on the path must not
// escape it. For paths that don't exist yet (a pending Write), the check
// walks up to the nearest existing ancestor.
func resolveWithinVault(userRoot, rawPath string) (string, error) {
	clean, err := validateNotePath(rawPath)
	if err != nil {
		return "", err
	}
	absRoot, err := filepath.Abs(userRoot)
	if err != nil {
		return "", vaulterr.Wrap(err, "resolve vault root")
	}
	full := filepath.Join(absRoot, filepath.FromSlash(clean))
	if !isDescendant(absRoot, full) {
		return "", vaulterr.New(vaulterr.PathInvalid, "path escapes the vault root").WithPath(rawPath)
	}

	resolvedRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		// Root itself doesn't exist yet — nothing can have escaped via a
		// symlink under it.
		return full, nil
	}
	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		// Target doesn't exist yet (pending write/move destination):
		// walk up to the nearest existing ancestor and verify that one
		// doesn't escape via a symlink.
		ancestor := full
		for {
			parent := filepath.Dir(ancestor)
			if parent == ancestor {
				return "", vaulterr.New(vaulterr.PathInvalid, "path escapes the vault root").WithPath(rawPath)
			}
			ancestor = parent
			resolvedAncestor, aerr := filepath.EvalSymlinks(ancestor)
			if aerr != nil {
				continue
			}
			if !isDescendantOrEqual(resolvedRoot, resolvedAncestor) {
				return "", vaulterr.New(vaulterr.PathInvalid, "path escapes the vault root via a symlink").WithPath(rawPath)
			}
			return full, nil
		}
	}
	if !isDescendantOrEqual(resolvedRoot, resolved) {
		return "", vaulterr.New(vaulterr.PathInvalid, "path escapes the vault root via a symlink").WithPath(rawPath)
	}
	return full, nil
}

func isDescendant(root, candidate string) bool {
	return strings.HasPrefix(candidate, root+string(filepath.Separator))
}

func isDescendantOrEqual(root, candidate string) bool {
	return candidate == root || isDescendant(root, candidate)
}

// userRoot returns <vault_root>/<user_id>, itself validated against the
// same traversal rules applied to user_id (a user_id must never be able
// to read or write another user's directory by crafting its own value).
func userRoot(vaultRoot, userID string) (string, error) {
	if userID == "" || userID == "." || userID == ".." || strings.ContainsAny(userID, "/\\\x00") {
		return "", vaulterr.New(vaulterr.PathInvalid, "invalid user id")
	}
	return filepath.Join(vaultRoot, userID), nil
}

// ensureDir creates dir (and parents) if absent.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return vaulterr.Wrap(err, fmt.Sprintf("create directory %s", dir))
	}
	return nil
}
