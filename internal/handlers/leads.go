package handlers

import (
	"net/http"

	"github.com/kleverson/cartas/internal/api"
	"github.com/kleverson/cartas/internal/websocket"
)

// CreateLead handles POST /api/leads
func (h *Handlers) CreateLead(w http.ResponseWriter, r *http.Request) {
	var req api.CreateLeadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lead, err := h.store.CreateLead(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.broadcast(websocket.NewLeadCreatedMessage(lead))
	api.WriteJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

// AdminListLeads handles GET /api/admin/leads
func (h *Handlers) AdminListLeads(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePage(r)

	leads, total, err := h.store.ListLeads(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if leads == nil {
		leads = []api.Lead{}
	}

	api.WriteJSON(w, http.StatusOK, api.LeadsResponse{
		Leads:      leads,
		Total:      total,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	})
}
