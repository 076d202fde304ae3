package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"newsroom/internal/apperror"
	"newsroom/internal/audit"
	"newsroom/internal/middleware"
	"newsroom/internal/models"
	"newsroom/internal/slug"
	"newsroom/internal/store"
)

// CategoryRepository is implemented by *store.CategoryStore.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id int64) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) (*models.Category, error)
	Delete(ctx context.Context, id int64) error
}

// Categories groups the category handlers. Reads are public; writes are
// for editors, enforced by the router.
type Categories struct {
	categories CategoryRepository
	audit      AuditLogger
	cache      ResponseCache
}

// NewCategories creates the category handler group.
func NewCategories(categories CategoryRepository, auditLog AuditLogger, respCache ResponseCache) *Categories {
	return &Categories{categories: categories, audit: auditLog, cache: respCache}
}

// List returns all categories ordered by name.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.categories.List(r.Context())
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	if items == nil {
		items = []models.Category{}
	}
	writeData(w, http.StatusOK, items)
}

// Get returns one category.
func (h *Categories) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apperror.Write(w, r, apperror.NewInvalidInput("Invalid category id"))
		return
	}
	c, err := h.categories.FindByID(r.Context(), id)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	if c == nil {
		apperror.Write(w, r, apperror.NewNotFound("Category not found"))
		return
	}
	writeData(w, http.StatusOK, c)
}

// Create adds a category. The slug is derived from the name when absent.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name        string  `json:"name"`
		Slug        string  `json:"slug"`
		Description *string `json:"description"`
	}
	if err := decodeData(w, r, &in); err != nil {
		apperror.Write(w, r, err)
		return
	}

	in.Name = strings.TrimSpace(in.Name)
	if in.Slug == "" {
		in.Slug = slug.Generate(in.Name)
	}
	var errs []string
	switch {
	case in.Name == "":
		errs = append(errs, "Name is required")
	case utf8.RuneCountInString(in.Name) > maxCategoryName:
		errs = append(errs, "Name must be less than 100 characters")
	}
	if in.Name != "" && (in.Slug == "" || !slug.Valid(in.Slug) || len(in.Slug) > slug.MaxLength) {
		errs = append(errs, "Slug can only contain lowercase letters, numbers and hyphens")
	}
	if len(errs) > 0 {
		apperror.Write(w, r, apperror.NewValidation(errs))
		return
	}

	created, err := h.categories.Create(r.Context(), &models.Category{
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
	})
	if errors.Is(err, store.ErrDuplicate) {
		apperror.Write(w, r, apperror.NewConflict("Category with this name or slug already exists"))
		return
	}
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	h.audit.Log(r.Context(), "create", "category", created.ID, middleware.PrincipalFromCtx(r.Context()),
		audit.With(audit.RequestDetails(r), map[string]any{"name": created.Name}))
	writeData(w, http.StatusCreated, created)
}

// Delete removes a category. Its articles stay, without a category.
func (h *Categories) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apperror.Write(w, r, apperror.NewInvalidInput("Invalid category id"))
		return
	}
	c, err := h.categories.FindByID(r.Context(), id)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	if c == nil {
		apperror.Write(w, r, apperror.NewNotFound("Category not found"))
		return
	}
	if err := h.categories.Delete(r.Context(), id); err != nil {
		apperror.Write(w, r, err)
		return
	}

	h.audit.Log(r.Context(), "delete", "category", c.ID, middleware.PrincipalFromCtx(r.Context()),
		audit.With(audit.RequestDetails(r), map[string]any{"name": c.Name}))
	// Cached article responses embed the category.
	if h.cache != nil {
		h.cache.InvalidateAll(r.Context())
	}
	writeData(w, http.StatusOK, c)
}
