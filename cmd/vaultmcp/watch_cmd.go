package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bigwolfeman/Document-MCP-sub002/internal/watch"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the index in sync with notes changed outside vaultmcp",
		Long:  "Monitor every user directory under the vault root for Markdown file changes and reindex them, with a 2-second debounce.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			w, err := watch.New(a.cfg.VaultRoot, a.indexer, a.vault, slog.Default())
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}
}
