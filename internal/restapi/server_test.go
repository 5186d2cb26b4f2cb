package restapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/bigwolfeman/Document-MCP-sub002/internal/concurrency"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/config"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/core"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/indexer"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/search"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/store"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/vault"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir, err := os.MkdirTemp("", "restapi-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cfg := config.Default()
	vs := vault.New(dir, int64(cfg.MaxNoteSizeBytes))
	ix := indexer.New(db, vs)
	se := search.New(db, vs, cfg.TitleWeight, cfg.BodyWeight, cfg.RecencyBonusRecentDays, cfg.RecencyBonusMediumDays)
	gate := concurrency.NewGate()
	facade := core.New(cfg, db, vs, ix, se, gate)

	return New(facade, func(r *http.Request) string { return "alice" })
}

func TestWriteThenReadNoteRoundTrips(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Handler())
	defer srv.Close()

	body := `{"path":"projects/roadmap.md","title":"Roadmap","tags":["planning"],"body":"# Roadmap\nShip it."}`
	resp, err := http.Post(srv.URL+"/api/notes", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/notes: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/notes/projects/roadmap.md")
	if err != nil {
		t.Fatalf("GET note: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var note struct {
		Title string
		Body  string
	}
	if err := json.NewDecoder(resp.Body).Decode(&note); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if note.Title != "Roadmap" || !strings.Contains(note.Body, "Ship it") {
		t.Fatalf("unexpected note: %+v", note)
	}
}

func TestWriteNoteVersionConflictReturns409(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Handler())
	defer srv.Close()

	create := `{"path":"a.md","body":"one"}`
	resp, _ := http.Post(srv.URL+"/api/notes", "application/json", strings.NewReader(create))
	resp.Body.Close()

	stale := `{"path":"a.md","body":"two","if_version":99}`
	resp, err := http.Post(srv.URL+"/api/notes", "application/json", strings.NewReader(stale))
	if err != nil {
		t.Fatalf("POST conflict: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	var payload struct {
		Error          string `json:"error"`
		CurrentVersion int    `json:"current_version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.CurrentVersion != 1 {
		t.Fatalf("expected current_version 1, got %d", payload.CurrentVersion)
	}
}

func TestReadMissingNoteReturns404(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/notes/missing.md")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestSearchReturnsWrittenNote(t *testing.T) {
	srv := httptest.NewServer(newTestServer(t).Handler())
	defer srv.Close()

	create := `{"path":"notes/budget.md","title":"Budget","body":"Quarterly budget planning details."}`
	resp, _ := http.Post(srv.URL+"/api/notes", "application/json", strings.NewReader(create))
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/search?q=budget")
	if err != nil {
		t.Fatalf("GET search: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var results []struct {
		NotePath string
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 1 || results[0].NotePath != "notes/budget.md" {
		t.Fatalf("unexpected results: %+v", results)
	}
}
