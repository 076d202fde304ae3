// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// audit_log.go persists the append-only record of article mutations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"newsroom/internal/models"
)

// AuditLogStore handles audit log operations. Entries are never updated
// or deleted.
type AuditLogStore struct {
	db *sql.DB
}

// NewAuditLogStore creates a new AuditLogStore.
func NewAuditLogStore(db *sql.DB) *AuditLogStore {
	return &AuditLogStore{db: db}
}

const auditLogColumns = `id, action, entity, entity_id, user_id, details, ip_address, user_agent, created_at`

func scanAuditLog(scanner interface{ Scan(...any) error }) (*models.AuditLogEntry, error) {
	var (
		e       models.AuditLogEntry
		details []byte
	)
	err := scanner.Scan(
		&e.ID, &e.Action, &e.Entity, &e.EntityID, &e.UserID,
		&details, &e.IPAddress, &e.UserAgent, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return nil, fmt.Errorf("decode audit details: %w", err)
		}
	}
	return &e, nil
}

// Create appends an entry and returns it as stored.
func (s *AuditLogStore) Create(ctx context.Context, e *models.AuditLogEntry) (*models.AuditLogEntry, error) {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return nil, fmt.Errorf("encode audit details: %w", err)
	}
	if e.Details == nil {
		details = []byte("{}")
	}

	created, err := scanAuditLog(s.db.QueryRowContext(ctx, `
		INSERT INTO audit_logs (action, entity, entity_id, user_id, details, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+auditLogColumns,
		e.Action, e.Entity, e.EntityID, e.UserID, string(details), e.IPAddress, e.UserAgent,
	))
	if err != nil {
		return nil, fmt.Errorf("create audit log: %w", translate(err))
	}
	return created, nil
}

// Recent returns the most recent entries, newest first.
func (s *AuditLogStore) Recent(ctx context.Context, limit int) ([]models.AuditLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+auditLogColumns+`
		FROM audit_logs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditLogEntry
	for rows.Next() {
		e, err := scanAuditLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// ForEntity returns every entry for one entity, oldest first.
func (s *AuditLogStore) ForEntity(ctx context.Context, entity string, entityID int64) ([]models.AuditLogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+auditLogColumns+`
		FROM audit_logs
		WHERE entity = $1 AND entity_id = $2
		ORDER BY created_at, id
	`, entity, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit logs for entity: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditLogEntry
	for rows.Next() {
		e, err := scanAuditLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
