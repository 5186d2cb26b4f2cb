package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/bigwolfeman/Document-MCP-sub002/internal/mcpadapter"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/restapi"
)

func serveMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve the Core Facade as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			mcpadapter.Version = Version
			adapter := mcpadapter.New(a.facade, func(context.Context) string { return userID })
			server := mcp.NewServer(&mcp.Implementation{Name: "vaultmcp", Version: Version}, nil)
			return adapter.Serve(cmd.Context(), server)
		},
	}
}

func serveHTTPCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve-http",
		Short: "Serve the Core Facade over a REST HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			server := restapi.New(a.facade, func(r *http.Request) string {
				if u := r.Header.Get("X-User-Id"); u != "" {
					return u
				}
				return userID
			})
			fmt.Printf("Listening on %s\n", addr)
			return server.ListenAndServe(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "address to listen on")
	return cmd
}
