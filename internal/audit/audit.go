// Package audit records who changed what. Logging is best-effort: a
// failure to write an entry is logged and never fails the request.
package audit

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"newsroom/internal/middleware"
	"newsroom/internal/models"
)

// Detail keys with special meaning.
const (
	DetailIPAddress = "ipAddress"
	DetailUserAgent = "userAgent"
	DetailUserName  = "userName"
	DetailUserEmail = "userEmail"

	unknownUser  = "Unknown"
	unknownValue = "unknown"
)

// Recorder persists audit entries.
type Recorder interface {
	Create(ctx context.Context, e *models.AuditLogEntry) (*models.AuditLogEntry, error)
}

// Logger writes audit entries through a Recorder.
type Logger struct {
	store Recorder
}

// NewLogger creates a Logger backed by the given store.
func NewLogger(store Recorder) *Logger {
	return &Logger{store: store}
}

// Log appends an entry for an action performed by principal (nil for an
// anonymous caller). The caller's details are copied, never modified.
// Returns the stored entry, or nil if it could not be written.
func (l *Logger) Log(ctx context.Context, action, entity string, entityID int64, principal *models.User, details map[string]any) *models.AuditLogEntry {
	entry := Entry(action, entity, entityID, principal, details)

	stored, err := l.store.Create(ctx, entry)
	if err != nil {
		slog.Warn("failed to write audit log",
			"action", action,
			"entity", entity,
			"entity_id", entityID,
			"error", err,
		)
		return nil
	}

	slog.Info("audit",
		"action", action,
		"entity", entity,
		"entity_id", entityID,
		"user", entry.Details[DetailUserName],
	)
	return stored
}

// Entry builds the entry Log would write, without storing it.
func Entry(action, entity string, entityID int64, principal *models.User, details map[string]any) *models.AuditLogEntry {
	merged := make(map[string]any, len(details)+2)
	for k, v := range details {
		merged[k] = v
	}

	e := &models.AuditLogEntry{
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   merged,
		IPAddress: stringOr(details[DetailIPAddress], unknownValue),
		UserAgent: stringOr(details[DetailUserAgent], unknownValue),
	}

	merged[DetailUserName] = unknownUser
	merged[DetailUserEmail] = unknownUser
	if principal != nil {
		id := principal.ID
		e.UserID = &id
		merged[DetailUserName] = nonEmpty(principal.Username, unknownUser)
		merged[DetailUserEmail] = nonEmpty(principal.Email, unknownUser)
	}
	return e
}

// RequestDetails returns the client address and user agent of a request
// in the keys Log reads them from.
func RequestDetails(r *http.Request) map[string]any {
	return map[string]any{
		DetailIPAddress: middleware.ClientIP(r),
		DetailUserAgent: r.UserAgent(),
	}
}

// With returns a copy of base extended with extra.
func With(base map[string]any, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func stringOr(v any, fallback string) string {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
