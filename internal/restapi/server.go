// Package restapi is the human-facing HTTP surface over the Core Facade —
// the other of the two external adapters spec.md §1 names as deliberately
// out of scope for the core itself. Grounded on the teacher's
// internal/web/server.go: the net/http.ServeMux routing table, the
// localhostOnly/securityHeaders middleware chain, and the writeJSON/
// writeError response helpers all carry over; the dashboard HTML and the
// embedding-aware search fallback do not (no UI, no embeddings in this
// spec's scope).
package restapi

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	json "github.com/segmentio/encoding/json"

	"github.com/bigwolfeman/Document-MCP-sub002/internal/core"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/vault"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/vaulterr"
)

// UserIDFunc resolves the already-authenticated user_id for a request.
// Authentication itself is out of the core's scope (spec.md §1); the
// adapter only needs a resolved identity to pass through to the facade.
type UserIDFunc func(r *http.Request) string

// Server wraps a Core Facade with an HTTP surface.
type Server struct {
	facade *core.Facade
	userID UserIDFunc
}

// New constructs a Server.
func New(facade *core.Facade, userID UserIDFunc) *Server {
	return &Server{facade: facade, userID: userID}
}

// Handler builds the routed, middleware-wrapped http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/notes", s.handleNotes)
	mux.HandleFunc("/api/notes/", s.handleNoteByPath)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/tags", s.handleTags)
	mux.HandleFunc("/api/reindex", s.handleReindex)
	mux.HandleFunc("/api/health", s.handleHealth)
	return securityHeaders(mux)
}

// ListenAndServe starts the server on addr.
func (s *Server) ListenAndServe(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return http.Serve(listener, s.Handler())
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		folder := r.URL.Query().Get("folder")
		items, err := s.facade.ListNotes(r.Context(), s.userID(r), folder)
		if err != nil {
			writeVaultErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	case http.MethodPost:
		var body struct {
			Path      string         `json:"path"`
			Title     string         `json:"title"`
			Tags      []string       `json:"tags"`
			Body      string         `json:"body"`
			IfVersion *int           `json:"if_version"`
			Extra     map[string]any `json:"extra"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		fm := vault.Frontmatter{Title: body.Title, Tags: body.Tags, Extra: body.Extra}
		res, err := s.facade.WriteNote(r.Context(), s.userID(r), body.Path, fm, body.Body, body.IfVersion)
		if err != nil {
			writeVaultErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleNoteByPath(w http.ResponseWriter, r *http.Request) {
	notePath := strings.TrimPrefix(r.URL.Path, "/api/notes/")
	if notePath == "" {
		s.handleNotes(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		note, err := s.facade.ReadNote(r.Context(), s.userID(r), notePath)
		if err != nil {
			writeVaultErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, note)
	case http.MethodDelete:
		if err := s.facade.DeleteNote(r.Context(), s.userID(r), notePath); err != nil {
			writeVaultErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodPut:
		var body struct {
			NewPath string `json:"new_path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.NewPath == "" {
			writeError(w, http.StatusBadRequest, "new_path is required")
			return
		}
		res, err := s.facade.MoveNote(r.Context(), s.userID(r), notePath, body.NewPath)
		if err != nil {
			writeVaultErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	results, err := s.facade.Search(r.Context(), s.userID(r), query, limit)
	if err != nil {
		writeVaultErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.facade.Tags(r.Context(), s.userID(r))
	if err != nil {
		writeVaultErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	res, err := s.facade.RebuildIndex(r.Context(), s.userID(r))
	if err != nil {
		writeVaultErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	res, err := s.facade.IndexHealth(r.Context(), s.userID(r))
	if err != nil {
		writeVaultErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeVaultErr maps a typed vaulterr.Kind onto the appropriate HTTP
// status, surfacing VersionConflict as 409 with the current version
// (spec.md §4.6's optimistic concurrency contract).
func writeVaultErr(w http.ResponseWriter, err error) {
	kind := vaulterr.Of(err)
	switch kind {
	case vaulterr.NotFound:
		writeError(w, http.StatusNotFound, err.Error())
	case vaulterr.PathInvalid, vaulterr.InvalidQuery, vaulterr.TooLarge:
		writeError(w, http.StatusBadRequest, err.Error())
	case vaulterr.QuotaExceeded:
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	case vaulterr.Conflict:
		writeError(w, http.StatusConflict, err.Error())
	case vaulterr.VersionConflict:
		current := 0
		var ve *vaulterr.Error
		if errors.As(err, &ve) {
			current = ve.CurrentVersion
		}
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error(), "current_version": current})
	case vaulterr.IndexCorrupt:
		writeError(w, http.StatusInternalServerError, err.Error())
	case vaulterr.Cancelled:
		writeError(w, 499, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

