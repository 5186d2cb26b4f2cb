package main

import (
	"fmt"

	"github.com/bigwolfeman/Document-MCP-sub002/internal/concurrency"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/config"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/core"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/indexer"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/search"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/store"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/vault"
)

// app bundles every component a subcommand needs, closed over one
// config+database lifetime. Grounded on the teacher's per-command
// store.Open()/defer db.Close() idiom (cmd/same/vault_cmd.go), generalized
// to also construct the Vault Store, Indexer, Search Engine, and
// Concurrency Gate the facade composes.
type app struct {
	cfg     *config.Config
	db      *store.DB
	vault   *vault.Store
	indexer *indexer.Indexer
	facade  *core.Facade
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	vs := vault.New(cfg.VaultRoot, int64(cfg.MaxNoteSizeBytes))
	ix := indexer.New(db, vs)
	se := search.New(db, vs, cfg.TitleWeight, cfg.BodyWeight, cfg.RecencyBonusRecentDays, cfg.RecencyBonusMediumDays)
	gate := concurrency.NewGate()
	facade := core.New(cfg, db, vs, ix, se, gate)
	return &app{cfg: cfg, db: db, vault: vs, indexer: ix, facade: facade}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
