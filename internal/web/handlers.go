package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hpungsan/skim/internal/coordinator"
	"github.com/hpungsan/skim/internal/errors"
)

// maxRenderBytes bounds a POST /render body.
const maxRenderBytes = 1 << 20

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	coord    *coordinator.Coordinator
	renderer *Renderer
	log      *slog.Logger
}

// HandleIndex handles GET / — the single-page UI.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.renderer.renderPage(w, http.StatusOK, "index", PageData{
		Title:   "Skim",
		Version: h.renderer.version,
	})
}

// RenderRequest is the body of POST /render.
type RenderRequest struct {
	Markdown string `json:"markdown"`
}

// RenderResponse is the reply of POST /render.
type RenderResponse struct {
	HTML string `json:"html"`
}

// HandleRender handles POST /render — markdown preview for a summary.
func (h *Handlers) HandleRender(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRenderBytes)

	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.renderer.renderError(w, r, errors.NewInvalidRequest("body must be JSON with a markdown field"))
		return
	}

	renderJSON(w, http.StatusOK, RenderResponse{HTML: string(renderMarkdown(req.Markdown))})
}

// HandleWebSocket handles GET /ws. The connection becomes the coordinator's
// active session, replacing any earlier one.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	session := newWSSession(h.coord, conn, h.log)
	if err := h.coord.Attach(session); err != nil {
		h.log.Warn("session not attached", "error", err)
		session.Close()
		return
	}

	go session.writePump()
	go session.readPump()
}
