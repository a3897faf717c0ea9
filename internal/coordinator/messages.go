package coordinator

import (
	"encoding/json"

	"github.com/oklog/ulid/v2"
)

// Inbound channels, sent by the UI.
const (
	ChannelReady            = "ready"
	ChannelSaveCredential   = "save-credential"
	ChannelSaveFolderPath   = "save-folder-path"
	ChannelRequestSummary   = "request-summary"
	ChannelExport           = "export"
	ChannelOpenExportedFile = "open-exported-file"
	ChannelWindowResized    = "window-resized"
)

// Outbound channels, sent to the UI.
const (
	ChannelCredentialStatus = "credential-status"
	ChannelFolderPath       = "folder-path"
	ChannelSummaryResult    = "summary-result"
	ChannelExportResult     = "export-result"
	ChannelWindowSize       = "window-size"
)

// Inbound is one UI event.
type Inbound struct {
	Channel string          `json:"channel"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Outbound is one event for the UI. ID echoes the inbound event that caused
// it, or is a fresh id for unsolicited events.
type Outbound struct {
	Channel string `json:"channel"`
	ID      string `json:"id"`
	Payload any    `json:"payload"`
}

// NewID returns a new event id.
func NewID() string {
	return ulid.Make().String()
}

// Inbound payloads.

type saveCredentialPayload struct {
	Secret string `json:"secret"`
}

type pathPayload struct {
	Path string `json:"path"`
}

type exportRequestPayload struct {
	FileName string `json:"fileName"`
	Text     string `json:"text"`
}

type windowSizePayload struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Outbound payloads.

// CredentialStatus reports whether a credential is stored.
type CredentialStatus struct {
	Present bool `json:"present"`
}

// FolderPath is the effective output folder.
type FolderPath struct {
	Path string `json:"path"`
}

// SummaryResult carries a summary, or an error message in Text with an
// empty FileName.
type SummaryResult struct {
	FileName string `json:"fileName"`
	Text     string `json:"text"`
}

// ExportResult carries the exported file's absolute path, or null on failure.
type ExportResult struct {
	Path *string `json:"path"`
}

// WindowSize is the persisted window geometry.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
