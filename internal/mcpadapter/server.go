// Package mcpadapter exposes the Core Facade as a set of named MCP tools
// over stdio, the AI-agent-facing half of the two external adapters
// spec.md §1 names as deliberately out of scope for the core itself.
// Grounded on the teacher's internal/mcp/server.go (mcp.NewServer,
// registerTools/mcp.AddTool, ToolAnnotations, textResult, clampTopK) and
// internal/hooks/injection.go (the go-promptguard detector wiring) for
// scanning vault content before it is handed to an agent.
package mcpadapter

import (
	"context"
	"fmt"

	"github.com/mdombrov-33/go-promptguard/detector"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	json "github.com/segmentio/encoding/json"

	"github.com/bigwolfeman/Document-MCP-sub002/internal/core"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/vault"
	"github.com/bigwolfeman/Document-MCP-sub002/internal/vaulterr"
)

// Version is set by cmd/vaultmcp before calling Serve.
var Version = "dev"

// guard scans note bodies returned to an agent for prompt-injection
// markers, mirroring the teacher's sub-millisecond pattern-only detector
// (no LLM judge — this runs on every tool response).
var guard = detector.New(
	detector.WithThreshold(0.6),
	detector.WithAllDetectors(),
	detector.WithMaxInputLength(1_048_576), // matches the vault's note size ceiling
)

// Adapter wraps a Core Facade with the MCP tool surface.
type Adapter struct {
	facade *core.Facade
	userID func(ctx context.Context) string
}

// New constructs an Adapter. userIDFromCtx resolves the already-authenticated
// user_id for the current tool call (auth itself is out of the core's scope,
// spec.md §1).
func New(facade *core.Facade, userIDFromCtx func(ctx context.Context) string) *Adapter {
	return &Adapter{facade: facade, userID: userIDFromCtx}
}

// Serve registers every tool on server and runs it over stdio.
func (a *Adapter) Serve(ctx context.Context, server *mcp.Server) error {
	a.registerTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func (a *Adapter) registerTools(server *mcp.Server) {
	readOnly := &mcp.ToolAnnotations{ReadOnlyHint: true}
	boolPtr := func(b bool) *bool { return &b }
	writeDestructive := &mcp.ToolAnnotations{DestructiveHint: boolPtr(true)}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_notes",
		Description: "List notes in the vault, optionally scoped to a folder.\n\nArgs:\n  folder: Optional folder prefix (e.g. 'projects/'). Omit for the whole vault.\n\nReturns note_path, title, and updated timestamp for each note.",
		Annotations: readOnly,
	}, a.handleListNotes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_note",
		Description: "Read a note's frontmatter and body.\n\nArgs:\n  path: Note path relative to the vault root.\n\nReturns title, frontmatter, body, version, and timestamps.",
		Annotations: readOnly,
	}, a.handleReadNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "write_note",
		Description: "Create or update a note. Always last-write-wins — an agent call never fails on a stale version.\n\nArgs:\n  path: Note path relative to the vault root.\n  title: Note title (stored in frontmatter).\n  tags: Tags to store in frontmatter.\n  body: Markdown body.\n\nReturns the new version and whether the note was newly created.",
		Annotations: writeDestructive,
	}, a.handleWriteNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_note",
		Description: "Delete a note from the vault and the index.\n\nArgs:\n  path: Note path relative to the vault root.",
		Annotations: writeDestructive,
	}, a.handleDeleteNote)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_notes",
		Description: "Full-text search over the vault with title-weighted BM25 ranking and a recency bonus.\n\nArgs:\n  query: Natural language or keyword query.\n  limit: Max results (default 10, max 20).\n\nReturns ranked results with a snippet of matched text.",
		Annotations: readOnly,
	}, a.handleSearchNotes)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_backlinks",
		Description: "List every note that links to a given note via [[wikilinks]].\n\nArgs:\n  path: Target note path.\n\nReturns source_path and title for each resolved inbound link.",
		Annotations: readOnly,
	}, a.handleBacklinks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_tags",
		Description: "List every tag used in the vault with its usage count.",
		Annotations: readOnly,
	}, a.handleListTags)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func errResult(err error) (*mcp.CallToolResult, any, error) {
	return textResult(fmt.Sprintf("Error [%s]: %s", vaulterr.Of(err), err.Error())), nil, nil
}

func toJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return textResult("Error: could not encode result."), nil, nil
	}
	return textResult(string(data)), nil, nil
}

// guardText neutralizes content before it reaches the agent — vault notes
// are untrusted input once surfaced through a tool call (spec.md §1's AI
// agent client is not a trusted author of the content it reads back).
func guardText(text string) string {
	if text == "" {
		return text
	}
	result := guard.Detect(context.Background(), text)
	if result.Safe {
		return text
	}
	return "[content withheld: possible prompt injection detected]"
}

type listInput struct {
	Folder string `json:"folder,omitempty" jsonschema:"Optional folder prefix"`
}

func (a *Adapter) handleListNotes(ctx context.Context, req *mcp.CallToolRequest, input listInput) (*mcp.CallToolResult, any, error) {
	items, err := a.facade.ListNotes(ctx, a.userID(ctx), input.Folder)
	if err != nil {
		return errResult(err)
	}
	return toJSON(items)
}

type readInput struct {
	Path string `json:"path" jsonschema:"Note path relative to the vault root"`
}

func (a *Adapter) handleReadNote(ctx context.Context, req *mcp.CallToolRequest, input readInput) (*mcp.CallToolResult, any, error) {
	note, err := a.facade.ReadNote(ctx, a.userID(ctx), input.Path)
	if err != nil {
		return errResult(err)
	}
	note.Body = guardText(note.Body)
	return toJSON(note)
}

type writeInput struct {
	Path  string   `json:"path" jsonschema:"Note path relative to the vault root"`
	Title string   `json:"title,omitempty" jsonschema:"Note title"`
	Tags  []string `json:"tags,omitempty" jsonschema:"Tags to store in frontmatter"`
	Body  string   `json:"body" jsonschema:"Markdown body"`
}

// handleWriteNote always writes last-write-wins: an agent has no stable
// notion of the version it last read, so the tool surface never exposes
// if_version (spec.md §4.6 — agent writes never spuriously fail on
// concurrency).
func (a *Adapter) handleWriteNote(ctx context.Context, req *mcp.CallToolRequest, input writeInput) (*mcp.CallToolResult, any, error) {
	fm := vault.Frontmatter{Title: input.Title, Tags: input.Tags}
	res, err := a.facade.WriteNote(ctx, a.userID(ctx), input.Path, fm, input.Body, nil)
	if err != nil {
		return errResult(err)
	}
	return toJSON(res)
}

func (a *Adapter) handleDeleteNote(ctx context.Context, req *mcp.CallToolRequest, input readInput) (*mcp.CallToolResult, any, error) {
	if err := a.facade.DeleteNote(ctx, a.userID(ctx), input.Path); err != nil {
		return errResult(err)
	}
	return textResult("deleted"), nil, nil
}

type searchInput struct {
	Query string `json:"query" jsonschema:"Natural language or keyword query"`
	Limit int    `json:"limit,omitempty" jsonschema:"Max results (default 10, max 20)"`
}

func (a *Adapter) handleSearchNotes(ctx context.Context, req *mcp.CallToolRequest, input searchInput) (*mcp.CallToolResult, any, error) {
	results, err := a.facade.Search(ctx, a.userID(ctx), input.Query, input.Limit)
	if err != nil {
		return errResult(err)
	}
	for i := range results {
		results[i].Snippet = guardText(results[i].Snippet)
	}
	return toJSON(results)
}

func (a *Adapter) handleBacklinks(ctx context.Context, req *mcp.CallToolRequest, input readInput) (*mcp.CallToolResult, any, error) {
	links, err := a.facade.Backlinks(ctx, a.userID(ctx), input.Path)
	if err != nil {
		return errResult(err)
	}
	return toJSON(links)
}

type emptyInput struct{}

func (a *Adapter) handleListTags(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, any, error) {
	tags, err := a.facade.Tags(ctx, a.userID(ctx))
	if err != nil {
		return errResult(err)
	}
	return toJSON(tags)
}
