// Package datagrid renders paginated, sortable and filterable HTML tables
// backed by a SQL table.
//
// A Grid is configured per request, then rendered against a State parsed
// from the request parameters page, order, filter and useajax.
package datagrid

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Handler serves a grid over HTTP. Configure is called on a fresh Grid for
// every request.
//
// Responses are the grid fragment (text/html), or the RenderResult as JSON
// when the request carries format=json.
type Handler struct {
	Source    DataSource
	Configure func(g *Grid) error
	Logger    *slog.Logger
}

func NewHandler(src DataSource, configure func(g *Grid) error) *Handler {
	return &Handler{
		Source:    src,
		Configure: configure,
		Logger:    slog.Default(),
	}
}

// NewHandlerFromDefinition serves the grid described by d
func NewHandlerFromDefinition(src DataSource, d *Definition) *Handler {
	return NewHandler(src, d.Apply)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	g := New(h.Source)
	g.SetLogger(logger)
	if h.Configure != nil {
		if err := h.Configure(g); err != nil {
			logger.Error("Grid configuration failed", "error", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	result, err := g.Render(r.Context(), ParseRequest(r))
	if err != nil {
		logger.Error("Grid render failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if r.URL.Query().Get("format") == "json" {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			logger.Debug("Grid response write failed", "render", result.ID, "error", err)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(result.HTML)); err != nil {
		logger.Debug("Grid response write failed", "render", result.ID, "error", err)
	}
}
