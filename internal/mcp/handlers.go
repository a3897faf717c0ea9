package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/skim/internal/errors"
	"github.com/hpungsan/skim/internal/logging"
	"github.com/hpungsan/skim/internal/ops"
	"github.com/hpungsan/skim/internal/settings"
)

// Store is the settings access the tools need.
type Store interface {
	ops.CredentialChecker
	Get(ctx context.Context) settings.Configuration
	SetOutputFolderPath(ctx context.Context, path string) error
}

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store Store
	svc   ops.Summarizer
	log   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store Store, svc ops.Summarizer, log *slog.Logger) *Handlers {
	return &Handlers{store: store, svc: svc, log: logging.OrDiscard(log)}
}

// SummarizeRequest represents the arguments for skim_summarize.
type SummarizeRequest struct {
	URL      string `json:"url"`
	WithCode bool   `json:"with_code,omitempty"`
	Export   bool   `json:"export,omitempty"`
}

// SummarizeResult is the skim_summarize reply.
type SummarizeResult struct {
	FileName string `json:"file_name"`
	Text     string `json:"text"`
	Path     string `json:"path,omitempty"`
}

// ExportRequest represents the arguments for skim_export.
type ExportRequest struct {
	FileName string `json:"file_name,omitempty"`
	Text     string `json:"text"`
}

// SaveFolderRequest represents the arguments for skim_save_folder.
type SaveFolderRequest struct {
	Path string `json:"path"`
}

// HandleSummarize handles the skim_summarize tool.
func (h *Handlers) HandleSummarize(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[SummarizeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := ops.RequestSummary(ctx, h.store, h.svc, ops.SummaryInput{URL: args.URL, WithCode: args.WithCode})
	if err != nil {
		h.log.Warn("summary failed", "url", args.URL, "error", err)
		return errorResult(err), nil
	}

	result := SummarizeResult{FileName: out.FileName, Text: out.Text}
	if args.Export {
		exported, err := ops.Export(ctx, ops.ExportInput{
			Folder:   h.store.Get(ctx).OutputFolderPath,
			FileName: out.FileName,
			Text:     out.Text,
		})
		if err != nil {
			return errorResult(err), nil
		}
		result.Path = exported.Path
	}

	return successResult(result)
}

// HandleExport handles the skim_export tool.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	out, err := ops.Export(ctx, ops.ExportInput{
		Folder:   h.store.Get(ctx).OutputFolderPath,
		FileName: args.FileName,
		Text:     args.Text,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// HandleSettings handles the skim_settings tool.
func (h *Handlers) HandleSettings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if _, err := decode[struct{}](req); err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	return successResult(h.store.Get(ctx))
}

// HandleSaveFolder handles the skim_save_folder tool.
func (h *Handlers) HandleSaveFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[SaveFolderRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if !ops.IsWritable(args.Path) {
		return errorResult(errors.NewPathNotWritable(args.Path)), nil
	}
	if err := h.store.SetOutputFolderPath(ctx, args.Path); err != nil {
		return errorResult(err), nil
	}
	return successResult(h.store.Get(ctx))
}

// errorResult creates an MCP error result from a SkimError.
func errorResult(err error) *mcp.CallToolResult {
	sErr := errors.As(err)
	errorObj := map[string]any{
		"code":    sErr.Code,
		"message": sErr.Message,
		"status":  sErr.Status,
	}
	// Internal errors may carry file paths or SQL text
	if sErr.Code == errors.ErrInternal {
		errorObj["message"] = "an internal error occurred"
	} else if sErr.Details != nil {
		errorObj["details"] = sErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
