// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"newsroom/internal/models"
)

// MediaStore handles all media-related database operations.
type MediaStore struct {
	db *sql.DB
}

// NewMediaStore creates a new MediaStore with the given database connection.
func NewMediaStore(db *sql.DB) *MediaStore {
	return &MediaStore{db: db}
}

// mediaColumns lists the columns selected in media queries.
const mediaColumns = `id, name, alternative_text, mime, size, width, height, storage_key, uploader_id, created_at`

// scanMedia scans a media row from the result set.
func scanMedia(scanner interface{ Scan(...any) error }) (*models.Media, error) {
	var m models.Media
	err := scanner.Scan(
		&m.ID, &m.Name, &m.AlternativeText, &m.Mime, &m.Size, &m.Width, &m.Height,
		&m.StorageKey, &m.UploaderID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts a new media record and returns it with the generated ID.
func (s *MediaStore) Create(ctx context.Context, m *models.Media) (*models.Media, error) {
	created, err := scanMedia(s.db.QueryRowContext(ctx, `
		INSERT INTO media (name, alternative_text, mime, size, width, height, storage_key, uploader_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+mediaColumns,
		m.Name, m.AlternativeText, m.Mime, m.Size, m.Width, m.Height, m.StorageKey, m.UploaderID,
	))
	if err != nil {
		return nil, fmt.Errorf("create media: %w", translate(err))
	}
	return created, nil
}

// FindByID retrieves a media item by ID. Returns nil if not found.
func (s *MediaStore) FindByID(ctx context.Context, id int64) (*models.Media, error) {
	m, err := scanMedia(s.db.QueryRowContext(ctx,
		`SELECT `+mediaColumns+` FROM media WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find media by id: %w", err)
	}
	return m, nil
}

// Delete removes a media record. Articles using it lose their cover image.
func (s *MediaStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return nil
}
