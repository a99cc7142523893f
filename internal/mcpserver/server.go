// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes iconsync tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/iconsync/internal/history"
	"github.com/starford/iconsync/internal/models"
	"github.com/starford/iconsync/internal/settings"
	"github.com/starford/iconsync/internal/syncservice"
)

// Syncer is the slice of the sync service the MCP tools depend on.
type Syncer interface {
	SyncToGitHub(ctx context.Context, st models.SyncSettings) syncservice.Result
	BuildManifest(ctx context.Context) ([]byte, error)
}

// Server wraps the MCP server with iconsync tools.
type Server struct {
	mcp      *server.MCPServer
	svc      Syncer
	store    settings.Store
	hist     history.RunLog
	defaults *models.SyncSettings
}

// New creates a new MCP server with all iconsync tools registered.
// defaults may be nil.
func New(svc Syncer, store settings.Store, hist history.RunLog, defaults *models.SyncSettings) *Server {
	s := &Server{svc: svc, store: store, hist: hist, defaults: defaults}

	s.mcp = server.NewMCPServer(
		"iconsync",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("sync_icons",
		mcp.WithDescription("Extract 24x24 icon instances from the configured Figma file, "+
			"build the manifest and publish it to a GitHub repository. Uses saved settings "+
			"unless repository and token are supplied."),
		mcp.WithString("repository", mcp.Description("Target repository as owner/repo (optional override)")),
		mcp.WithString("token", mcp.Description("GitHub access token (optional override)")),
	), s.syncIcons)

	s.mcp.AddTool(mcp.NewTool("build_manifest",
		mcp.WithDescription("Build the icons manifest JSON from the Figma file without "+
			"publishing anything. Returns the manifest document. Read the "+
			"iconsync://manifest-format resource for the schema."),
	), s.buildManifest)

	s.mcp.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List recent synchronization runs, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of runs to return (default 50)")),
	), s.listRuns)

	s.mcp.AddTool(mcp.NewTool("get_settings",
		mcp.WithDescription("Return the cached sync settings with the token redacted."),
	), s.getSettings)

	s.mcp.AddTool(mcp.NewTool("save_settings",
		mcp.WithDescription("Validate and persist sync settings for later runs."),
		mcp.WithString("repository", mcp.Required(), mcp.Description("Target repository as owner/repo")),
		mcp.WithString("token", mcp.Required(), mcp.Description("GitHub access token (at least 20 characters)")),
	), s.saveSettings)

	// Resource: manifest format contract.
	s.mcp.AddResource(
		mcp.NewResource("iconsync://manifest-format", "Manifest Format Contract",
			mcp.WithResourceDescription("Schema of the published icons manifest document."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readManifestFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) syncIcons(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.resolveSettings(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if st == nil {
		return mcp.NewToolResultError("no sync settings: pass repository and token or save settings first"), nil
	}
	if err := st.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := s.svc.SyncToGitHub(ctx, *st)
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

// resolveSettings picks the run settings: tool arguments, then cached
// settings, then config defaults.
func (s *Server) resolveSettings(req mcp.CallToolRequest) (*models.SyncSettings, error) {
	repo := ""
	if v, err := req.RequireString("repository"); err == nil {
		repo = v
	}
	token := ""
	if v, err := req.RequireString("token"); err == nil {
		token = v
	}
	if repo != "" || token != "" {
		return &models.SyncSettings{Repository: repo, Token: token}, nil
	}
	if s.store != nil {
		cached, err := s.store.Load()
		if err != nil {
			return nil, err
		}
		if cached != nil {
			return cached, nil
		}
	}
	return s.defaults, nil
}

func (s *Server) buildManifest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := s.svc.BuildManifest(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listRuns(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := 0
	if v, err := req.RequireFloat("limit"); err == nil {
		limit = int(v)
	}
	runs, total, err := s.hist.List(limit, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{"runs": runs, "total": total}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.store.Load()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if st == nil {
		return mcp.NewToolResultText("no settings saved"), nil
	}
	out, _ := json.MarshalIndent(st.Redacted(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) saveSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	repo, err := req.RequireString("repository")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	token, err := req.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	st := models.SyncSettings{Repository: repo, Token: token}
	if err := st.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.store.Save(&st); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved settings for %s", st.Repository)), nil
}

func (s *Server) readManifestFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "iconsync://manifest-format",
			MIMEType: "text/markdown",
			Text:     ManifestFormatContract,
		},
	}, nil
}
