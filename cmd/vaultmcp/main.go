// Package main is the entrypoint for the vaultmcp CLI, the reference
// process that wires the Core Facade to its two external adapters
// (MCP over stdio, HTTP) and exposes vault operations directly as
// subcommands. Grounded on the teacher's cmd/same/main.go: a single
// cobra root with a persistent --vault-style override flag and one
// AddCommand per subcommand group.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var configPath string
var userID string

func main() {
	root := &cobra.Command{
		Use:   "vaultmcp",
		Short: "Multi-tenant Markdown note vault with search and a wikilink graph",
		Long: `vaultmcp stores Markdown notes per user, keeps a derived full-text and
wikilink index in sync with them, and exposes both as a REST API and an
MCP tool surface for AI agents.`,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to vault.toml (defaults built in if omitted)")
	root.PersistentFlags().StringVar(&userID, "user", "default", "user_id to operate as")

	root.AddCommand(versionCmd())
	root.AddCommand(serveMCPCmd())
	root.AddCommand(serveHTTPCmd())
	root.AddCommand(watchCmd())
	root.AddCommand(vaultCmd())
	root.AddCommand(searchCmd())
	root.AddCommand(tagsCmd())
	root.AddCommand(reindexCmd())
	root.AddCommand(healthCmd())
	root.AddCommand(completionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the vaultmcp version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("vaultmcp %s\n", Version)
			return nil
		},
	}
}
