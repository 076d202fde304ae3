package handlers

import (
	"context"
	"net/http"
	"strconv"

	"newsroom/internal/apperror"
	"newsroom/internal/models"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditLogRepository is implemented by *store.AuditLogStore.
type AuditLogRepository interface {
	Recent(ctx context.Context, limit int) ([]models.AuditLogEntry, error)
	ForEntity(ctx context.Context, entity string, entityID int64) ([]models.AuditLogEntry, error)
}

// AuditLogs serves the audit trail to editors.
type AuditLogs struct {
	logs AuditLogRepository
}

// NewAuditLogs creates the audit log handler group.
func NewAuditLogs(logs AuditLogRepository) *AuditLogs {
	return &AuditLogs{logs: logs}
}

// List returns the newest entries, or the history of one entity when
// entity and entityId are given.
func (h *AuditLogs) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if entity := q.Get("entity"); entity != "" {
		id, err := strconv.ParseInt(q.Get("entityId"), 10, 64)
		if err != nil || id <= 0 {
			apperror.Write(w, r, apperror.NewInvalidInput("entityId is required with entity"))
			return
		}
		entries, err := h.logs.ForEntity(r.Context(), entity, id)
		if err != nil {
			apperror.Write(w, r, err)
			return
		}
		writeEntries(w, entries)
		return
	}

	limit := defaultAuditLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			apperror.Write(w, r, apperror.NewInvalidInput("Invalid limit"))
			return
		}
		limit = min(n, maxAuditLimit)
	}

	entries, err := h.logs.Recent(r.Context(), limit)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	writeEntries(w, entries)
}

func writeEntries(w http.ResponseWriter, entries []models.AuditLogEntry) {
	if entries == nil {
		entries = []models.AuditLogEntry{}
	}
	writeData(w, http.StatusOK, entries)
}
