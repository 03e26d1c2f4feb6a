package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/kleverson/cartas/internal/api"
	"github.com/kleverson/cartas/internal/backup"
	"github.com/kleverson/cartas/internal/logger"
	"github.com/kleverson/cartas/internal/storage"
	"github.com/kleverson/cartas/internal/version"
	"github.com/kleverson/cartas/internal/websocket"
)

// Handlers serves the public and admin API
type Handlers struct {
	store   *storage.DuckDBStore
	backups *backup.Service
	hub     *websocket.Hub
	siteURL string
}

// New creates the handler set. hub may be nil when the live feed is disabled.
func New(store *storage.DuckDBStore, backups *backup.Service, hub *websocket.Hub, siteURL string) *Handlers {
	return &Handlers{
		store:   store,
		backups: backups,
		hub:     hub,
		siteURL: siteURL,
	}
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// HandleWebSocket handles GET /ws
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		api.WriteError(w, http.StatusNotFound, "live feed disabled")
		return
	}
	h.hub.ServeHTTP(w, r)
}

func (h *Handlers) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// writeError maps typed errors to statuses. Internal failures are logged and
// answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := api.HTTPStatusFromError(err)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		if status == http.StatusInternalServerError {
			api.WriteError(w, status, "internal error")
			return
		}
	}
	api.WriteError(w, status, err.Error())
}

// decodeJSON reads and validates a request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			api.WriteErrorFromError(w, api.NewPayloadTooLargeError(maxErr.Limit, r.ContentLength))
			return false
		}
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := api.Validate(v); err != nil {
		api.WriteErrorFromError(w, err)
		return false
	}
	return true
}

// parseLimit reads ?limit, clamped to [1, max]
func parseLimit(r *http.Request, def, max int) int {
	limit := def
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > max {
		limit = max
	}
	return limit
}

func parsePage(r *http.Request) (page, pageSize int) {
	page, pageSize = 1, 20

	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if s := r.URL.Query().Get("pageSize"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 {
			pageSize = min(parsed, 100)
		}
	}

	return page, pageSize
}

func parseBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}
