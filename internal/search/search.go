// Package search implements the Search Engine: FTS query sanitization,
// bm25-plus-recency ranking, and snippet generation. Grounded on the
// teacher's internal/store/search.go (ExtractSearchTerms' token-splitting
// idiom, round()-style float helpers); the hybrid/vector/fuzzy-title
// machinery there has no analog here since this index carries no
// embeddings (spec.md Non-goals).
package search

import (
	"context"
	"sort"
	"strings"

	"github.com/bigwolfeman/Document-MCP-sub002/internal/store"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/vault"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/vaulterr"
)

// candidatePoolSize bounds how many raw FTS matches are pulled before
// recency re-ranking, so the bonus can reorder within a reasonably sized
// window without requiring a full table scan.
const candidatePoolSize = 200

// Result is a single ranked, snippeted search hit.
type Result struct {
	NotePath string
	Title    string
	Snippet  string
	Score    float64
	Updated  int64
}

// Engine ranks and snippets search results for a user.
type Engine struct {
	db    *store.DB
	vault *vault.Store

	titleWeight float64
	bodyWeight  float64
	recentDays  int
	mediumDays  int
}

// New constructs a search Engine. titleWeight/bodyWeight feed bm25()'s
// column weights; recentDays/mediumDays set the two-tier recency bonus
// thresholds (spec.md §4.5, §6 defaults: 3.0/1.0 and 7/30 days).
func New(db *store.DB, vs *vault.Store, titleWeight, bodyWeight float64, recentDays, mediumDays int) *Engine {
	return &Engine{db: db, vault: vs, titleWeight: titleWeight, bodyWeight: bodyWeight, recentDays: recentDays, mediumDays: mediumDays}
}

// Search sanitizes rawQuery, runs a weighted FTS match scoped to userID,
// applies the recency bonus, and returns up to limit results ordered by
// effective score descending, ties broken by updated descending then
// note_path ascending.
func (e *Engine) Search(ctx context.Context, userID, rawQuery string, limit int, now int64) ([]Result, error) {
	ftsQuery, err := sanitize(rawQuery)
	if err != nil {
		return nil, err
	}

	rows, err := store.SearchFTS(e.db.Conn(), userID, ftsQuery, e.titleWeight, e.bodyWeight, candidatePoolSize)
	if err != nil {
		return nil, vaulterr.Wrap(err, "search fts")
	}

	type scored struct {
		row   store.SearchRow
		score float64
	}
	ranked := make([]scored, 0, len(rows))
	for _, r := range rows {
		ranked = append(ranked, scored{row: r, score: -r.BM25 + e.recencyBonus(r.Updated, now)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if ranked[i].row.Updated != ranked[j].row.Updated {
			return ranked[i].row.Updated > ranked[j].row.Updated
		}
		return ranked[i].row.NotePath < ranked[j].row.NotePath
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	terms := queryTerms(rawQuery)
	out := make([]Result, 0, len(ranked))
	for _, s := range ranked {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		snippet := ""
		if note, err := e.vault.Read(userID, s.row.NotePath); err == nil {
			snippet = buildSnippet(note.Body, terms)
		}
		out = append(out, Result{
			NotePath: s.row.NotePath,
			Title:    s.row.Title,
			Snippet:  snippet,
			Score:    s.score,
			Updated:  s.row.Updated,
		})
	}
	return out, nil
}

// recencyBonus implements spec.md §4.5's two-tier bonus.
func (e *Engine) recencyBonus(updated, now int64) float64 {
	age := now - updated
	recentCutoff := int64(e.recentDays) * 86400
	mediumCutoff := int64(e.mediumDays) * 86400
	switch {
	case age <= recentCutoff:
		return 1.0
	case age <= mediumCutoff:
		return 0.5
	default:
		return 0
	}
}

// sanitize rewrites a raw user query into FTS5's safe form (spec.md §4.5):
// split on whitespace, strip FTS operator characters from each token,
// quote it to force a phrase match, and re-append a trailing `*` outside
// the quotes to preserve intentional prefix queries. The raw string is
// never passed to the query language.
func sanitize(raw string) (string, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return "", vaulterr.New(vaulterr.InvalidQuery, "empty search query")
	}
	var quoted []string
	for _, tok := range fields {
		prefix := strings.HasSuffix(tok, "*")
		tok = strings.TrimSuffix(tok, "*")
		tok = stripFTSOperators(tok)
		if tok == "" {
			continue
		}
		tok = strings.ReplaceAll(tok, `"`, "")
		q := `"` + tok + `"`
		if prefix {
			q += "*"
		}
		quoted = append(quoted, q)
	}
	if len(quoted) == 0 {
		return "", vaulterr.New(vaulterr.InvalidQuery, "query has no searchable terms")
	}
	return strings.Join(quoted, " "), nil
}

// stripFTSOperators removes characters FTS5 would otherwise interpret as
// syntax: quotes, parens, colons, carets, and the boolean-keyword-adjacent
// punctuation. Everything else (including apostrophes inside a word, like
// "don't") passes through untouched — it is safe once quoted.
func stripFTSOperators(tok string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '(', ')', ':', '^', '{', '}', '[', ']':
			return -1
		default:
			return r
		}
	}, tok)
}

// queryTerms extracts lowercase terms from the raw query for snippet
// highlighting, grounded on the teacher's ExtractSearchTerms token split.
func queryTerms(raw string) []string {
	fields := strings.Fields(raw)
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, f := range fields {
		t := strings.ToLower(strings.Trim(f, `*"`))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
