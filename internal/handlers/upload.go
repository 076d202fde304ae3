// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"newsroom/internal/apperror"
	"newsroom/internal/audit"
	"newsroom/internal/imaging"
	"newsroom/internal/middleware"
	"newsroom/internal/models"
	"newsroom/internal/policy"
)

// maxUploadSize is the largest cover image accepted.
const maxUploadSize = 10 << 20

// allowedImageTypes maps sniffed MIME types to storage extensions.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// MediaRepository is implemented by *store.MediaStore.
type MediaRepository interface {
	Create(ctx context.Context, m *models.Media) (*models.Media, error)
	FindByID(ctx context.Context, id int64) (*models.Media, error)
	Delete(ctx context.Context, id int64) error
}

// Uploads handles cover image uploads.
type Uploads struct {
	media MediaRepository
	files FileStore // nil when storage is not configured
	audit AuditLogger
	cache ResponseCache
}

// NewUploads creates the upload handler group.
func NewUploads(media MediaRepository, files FileStore, auditLog AuditLogger, respCache ResponseCache) *Uploads {
	return &Uploads{media: media, files: files, audit: auditLog, cache: respCache}
}

// Upload stores the image sent in the "files" multipart field and
// records it as a media item.
func (h *Uploads) Upload(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromCtx(r.Context())
	if principal == nil {
		apperror.Write(w, r, apperror.NewUnauthenticated("Authentication required"))
		return
	}
	if h.files == nil {
		apperror.Write(w, r, apperror.NewUnavailable("File storage is not configured"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		apperror.Write(w, r, apperror.NewInvalidInput("File is too large or the form is malformed (max 10 MB)"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("files")
	if err != nil {
		apperror.Write(w, r, apperror.NewInvalidInput(`Missing "files" field`))
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		apperror.Write(w, r, apperror.NewInvalidInput("File is too large (max 10 MB)"))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		apperror.Write(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	mimeType := http.DetectContentType(data)
	ext, ok := allowedImageTypes[mimeType]
	if !ok {
		apperror.Write(w, r, apperror.NewInvalidInput("Only JPEG, PNG, GIF and WebP images are allowed"))
		return
	}
	info, err := imaging.Probe(data)
	if errors.Is(err, imaging.ErrTooLarge) {
		apperror.Write(w, r, apperror.NewInvalidInput(fmt.Sprintf("Image dimensions must not exceed %dx%d", imaging.MaxDimension, imaging.MaxDimension)))
		return
	}
	if err != nil {
		apperror.Write(w, r, apperror.NewInvalidInput("The file is not a valid image"))
		return
	}

	key := "covers/" + uuid.NewString() + ext
	if err := h.files.Upload(r.Context(), key, mimeType, bytes.NewReader(data), int64(len(data))); err != nil {
		apperror.Write(w, r, fmt.Errorf("upload cover: %w", err))
		return
	}

	m := &models.Media{
		Name:       sanitizeFilename(header.Filename),
		Mime:       mimeType,
		Size:       int64(len(data)),
		Width:      &info.Width,
		Height:     &info.Height,
		StorageKey: key,
		UploaderID: &principal.ID,
	}
	if alt := strings.TrimSpace(r.FormValue("alternativeText")); alt != "" {
		m.AlternativeText = &alt
	}
	created, err := h.media.Create(r.Context(), m)
	if err != nil {
		// Don't leave an orphaned object behind.
		if delErr := h.files.Delete(r.Context(), key); delErr != nil {
			slog.Warn("failed to remove orphaned upload", "key", key, "error", delErr)
		}
		apperror.Write(w, r, err)
		return
	}

	h.audit.Log(r.Context(), "upload", "media", created.ID, principal,
		audit.With(audit.RequestDetails(r), map[string]any{"name": created.Name, "size": created.HumanSize()}))

	created.URL = h.files.FileURL(created.StorageKey)
	writeData(w, http.StatusCreated, []*models.Media{created})
}

// Get returns one media item.
func (h *Uploads) Get(w http.ResponseWriter, r *http.Request) {
	m, ok := h.load(w, r)
	if !ok {
		return
	}
	writeData(w, http.StatusOK, m)
}

// Delete removes a media item and its stored file. Only the uploader or
// an editor may do so.
func (h *Uploads) Delete(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromCtx(r.Context())
	if principal == nil {
		apperror.Write(w, r, apperror.NewUnauthenticated("Authentication required"))
		return
	}
	m, ok := h.load(w, r)
	if !ok {
		return
	}
	if !policy.IsEditor(principal) && (m.UploaderID == nil || *m.UploaderID != principal.ID) {
		apperror.Write(w, r, apperror.NewForbidden("You can only delete your own files"))
		return
	}

	if err := h.media.Delete(r.Context(), m.ID); err != nil {
		apperror.Write(w, r, err)
		return
	}
	if h.files != nil {
		if err := h.files.Delete(r.Context(), m.StorageKey); err != nil {
			slog.Warn("failed to delete stored file", "key", m.StorageKey, "error", err)
		}
	}
	// Cached listings may embed the file as a cover image.
	if h.cache != nil {
		h.cache.InvalidateAll(r.Context())
	}

	h.audit.Log(r.Context(), "delete", "media", m.ID, principal,
		audit.With(audit.RequestDetails(r), map[string]any{"name": m.Name}))
	writeData(w, http.StatusOK, m)
}

func (h *Uploads) load(w http.ResponseWriter, r *http.Request) (*models.Media, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		apperror.Write(w, r, apperror.NewInvalidInput("Invalid file id"))
		return nil, false
	}
	m, err := h.media.FindByID(r.Context(), id)
	if err != nil {
		apperror.Write(w, r, err)
		return nil, false
	}
	if m == nil {
		apperror.Write(w, r, apperror.NewNotFound("File not found"))
		return nil, false
	}
	if h.files != nil {
		m.URL = h.files.FileURL(m.StorageKey)
	}
	return m, true
}

// sanitizeFilename keeps the base name of an uploaded file, without any
// path a client may have sent.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	if len(name) > 255 {
		name = name[:255]
	}
	return name
}
