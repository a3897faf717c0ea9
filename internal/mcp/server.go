package mcp

import (
	"log/slog"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/skim/internal/logging"
	"github.com/hpungsan/skim/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"skim_summarize": {
		def:     summarizeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSummarize },
	},
	"skim_export": {
		def:     exportToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport },
	},
	"skim_settings": {
		def:     settingsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSettings },
	},
	"skim_save_folder": {
		def:     saveFolderToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleSaveFolder },
	},
}

// AllToolNames returns the registered tool names, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewServer creates an MCP server with the Skim tools registered.
func NewServer(store Store, svc ops.Summarizer, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"skim",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(store, svc, logging.OrDiscard(log).With("component", "mcp"))
	for _, name := range AllToolNames() {
		entry := toolRegistry[name]
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run serves the MCP tools over stdio.
func Run(store Store, svc ops.Summarizer, version string, log *slog.Logger) error {
	return server.ServeStdio(NewServer(store, svc, version, log))
}
