package models

import "time"

// AuditLogEntry is one append-only record of a mutation.
type AuditLogEntry struct {
	ID        int64          `json:"id"`
	Action    string         `json:"action"`
	Entity    string         `json:"entity"`
	EntityID  int64          `json:"entityId"`
	UserID    *int64         `json:"user"`
	Details   map[string]any `json:"details"`
	IPAddress string         `json:"ipAddress"`
	UserAgent string         `json:"userAgent"`
	CreatedAt time.Time      `json:"createdAt"`
}
