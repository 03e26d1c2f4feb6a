package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/kleverson/cartas/internal/api"
	"github.com/kleverson/cartas/internal/backup"
	"github.com/kleverson/cartas/internal/logger"
	"github.com/kleverson/cartas/internal/websocket"
)

// BackupFailedMessage is the only error detail returned to the admin console
const BackupFailedMessage = "Erro ao gerar backup. Tente novamente."

// CreateBackup handles POST /api/admin/backups and streams the archive
func (h *Handlers) CreateBackup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	res, err := h.backups.Create(r.Context())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", api.NewTimeoutError("backup", time.Since(start).Round(time.Millisecond).String()), err)
		}
		logger.ErrorContext(r.Context(), "Backup error",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		api.WriteError(w, api.HTTPStatusFromError(err), BackupFailedMessage)
		return
	}

	h.broadcast(websocket.NewBackupCreatedMessage(toBackupRecord(res.Record)))

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set("X-Backup-Posts", strconv.Itoa(res.PostsCount))
	w.Header().Set("X-Backup-Leads", strconv.Itoa(res.LeadsCount))
	w.Header().Set("X-Backup-Message", res.Summary())
	w.WriteHeader(http.StatusOK)
	w.Write(res.Data)
}

// ListBackups handles GET /api/admin/backups
func (h *Handlers) ListBackups(w http.ResponseWriter, r *http.Request) {
	records := h.backups.History()
	resp := api.BackupHistoryResponse{Backups: make([]api.BackupRecord, 0, len(records))}
	for _, rec := range records {
		resp.Backups = append(resp.Backups, toBackupRecord(rec))
	}
	api.WriteJSON(w, http.StatusOK, resp)
}

// ClearBackups handles DELETE /api/admin/backups
func (h *Handlers) ClearBackups(w http.ResponseWriter, r *http.Request) {
	h.backups.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

func toBackupRecord(r backup.Record) api.BackupRecord {
	return api.BackupRecord{
		ID:         r.ID,
		CreatedAt:  r.CreatedAt,
		PostsCount: r.PostsCount,
		LeadsCount: r.LeadsCount,
		Filename:   r.Filename,
		Size:       r.Size,
		UploadedTo: r.UploadedTo,
	}
}
