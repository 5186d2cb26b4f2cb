package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bigwolfeman/Document-MCP-sub002/internal/vault"
)

// vaultCmd groups the note-level operations, mirroring the teacher's
// `same vault` subcommand group shape (cmd/same/vault_cmd.go) but scoped
// to single-note CRUD against the Core Facade instead of multi-vault
// registry management.
func vaultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Read, write, move, and delete notes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "ls [folder]",
		Short: "List notes, optionally scoped to a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			folder := ""
			if len(args) == 1 {
				folder = args[0]
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			items, err := a.facade.ListNotes(cmd.Context(), userID, folder)
			if err != nil {
				return err
			}
			for _, it := range items {
				fmt.Printf("%-50s %s\n", it.NotePath, it.Title)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "read [path]",
		Short: "Print a note's frontmatter and body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			note, err := a.facade.ReadNote(cmd.Context(), userID, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("title: %s\nversion: %d\nupdated: %d\ntags: %v\n\n%s\n",
				note.Title, note.Version, note.Updated, note.Frontmatter.Tags, note.Body)
			return nil
		},
	})

	var title string
	var tags []string
	var ifVersion int
	writeCmd := &cobra.Command{
		Use:   "write [path]",
		Short: "Create or update a note from stdin",
		Long:  "Reads the note body from stdin and writes it to the vault. Pass --if-version to require the note be unchanged since your last read.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			var ifv *int
			if cmd.Flags().Changed("if-version") {
				ifv = &ifVersion
			}
			fm := vault.Frontmatter{Title: title, Tags: tags}
			res, err := a.facade.WriteNote(cmd.Context(), userID, args[0], fm, string(body), ifv)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %s (version=%d created=%v)\n", args[0], res.Version, res.Created)
			return nil
		},
	}
	writeCmd.Flags().StringVar(&title, "title", "", "note title")
	writeCmd.Flags().StringSliceVar(&tags, "tags", nil, "comma-separated tags")
	writeCmd.Flags().IntVar(&ifVersion, "if-version", 0, "expected current version")
	cmd.AddCommand(writeCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm [path]",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.facade.DeleteNote(cmd.Context(), userID, args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "mv [old-path] [new-path]",
		Short: "Move or rename a note",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.facade.MoveNote(cmd.Context(), userID, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("moved %s -> %s (version=%d)\n", args[0], args[1], res.Version)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "backlinks [path]",
		Short: "List notes that link to the given note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			links, err := a.facade.Backlinks(cmd.Context(), userID, args[0])
			if err != nil {
				return err
			}
			for _, l := range links {
				fmt.Printf("%-50s %s\n", l.SourcePath, l.Title)
			}
			return nil
		},
	})

	return cmd
}

func searchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Full-text search with BM25 ranking and a recency bonus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			results, err := a.facade.Search(cmd.Context(), userID, args[0], limit)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Printf("%-6s %-40s %s\n", strconv.FormatFloat(r.Score, 'f', 2, 64), r.NotePath, r.Snippet)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "max results (0 uses the server default)")
	return cmd
}

func tagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List every tag with its usage count",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			tags, err := a.facade.Tags(cmd.Context(), userID)
			if err != nil {
				return err
			}
			for _, t := range tags {
				fmt.Printf("%-30s %d\n", t.Tag, t.Count)
			}
			return nil
		},
	}
}

func reindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the index from the vault on disk",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.facade.RebuildIndex(cmd.Context(), userID)
			if err != nil {
				return err
			}
			fmt.Printf("reindexed: %d notes (%d indexed, %d unchanged, %d removed, %d errors) in %dms\n",
				res.NoteCount, res.Reindexed, res.SkippedUnchanged, res.Removed, res.Errors, res.DurationMs)
			return nil
		},
	}
}

func healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Report index health counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()
			h, err := a.facade.IndexHealth(cmd.Context(), userID)
			if err != nil {
				return err
			}
			fmt.Printf("notes: %d\nlast_full_rebuild: %d\nlast_incremental_update: %d\n",
				h.NoteCount, h.LastFullRebuild, h.LastIncrementalUpdate)
			return nil
		},
	}
}
