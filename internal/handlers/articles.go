// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"newsroom/internal/apperror"
	"newsroom/internal/audit"
	"newsroom/internal/cache"
	"newsroom/internal/middleware"
	"newsroom/internal/models"
	"newsroom/internal/policy"
	"newsroom/internal/store"
)

const entityArticle = "article"

// Articles groups the article endpoint handlers.
type Articles struct {
	articles ArticleRepository
	writer   ArticleWriter
	audit    AuditLogger
	cache    ResponseCache // nil disables caching
	files    FileStore     // nil when storage is not configured
	now      func() time.Time
}

// NewArticles creates the article handler group.
func NewArticles(articles ArticleRepository, writer ArticleWriter, auditLog AuditLogger, respCache ResponseCache, files FileStore) *Articles {
	return &Articles{
		articles: articles,
		writer:   writer,
		audit:    auditLog,
		cache:    respCache,
		files:    files,
		now:      time.Now,
	}
}

// List returns a page of articles. Listing drafts requires a principal;
// non-editors only see their own drafts.
func (h *Articles) List(w http.ResponseWriter, r *http.Request) {
	lq, err := parseListQuery(r.URL.Query())
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	principal := middleware.PrincipalFromCtx(r.Context())
	if lq.filter.Status != store.StatusPublished {
		if principal == nil {
			apperror.Write(w, r, apperror.NewUnauthenticated("You must be logged in to list drafts"))
			return
		}
		if !policy.IsEditor(principal) {
			lq.filter.DraftsOf = &principal.ID
		}
	}

	items, total, err := h.articles.List(r.Context(), lq.filter)
	if err != nil {
		apperror.Write(w, r, fmt.Errorf("list articles: %w", err))
		return
	}
	if items == nil {
		items = []models.Article{}
	}
	for i := range items {
		h.decorate(&items[i])
	}

	writeJSON(w, http.StatusOK, dataEnvelope{
		Data: items,
		Meta: map[string]any{"pagination": lq.pagination(total)},
	})
}

// Get returns one article by id and records a view.
func (h *Articles) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apperror.Write(w, r, apperror.NewInvalidInput("Invalid article id"))
		return
	}

	article, err := h.articles.FindByID(r.Context(), id)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	h.show(w, r, article)
}

// GetBySlug returns the first article with the slug and records a view.
func (h *Articles) GetBySlug(w http.ResponseWriter, r *http.Request) {
	s := strings.TrimSpace(chi.URLParam(r, "slug"))
	if s == "" {
		apperror.Write(w, r, apperror.NewInvalidInput("Slug is required"))
		return
	}

	article, err := h.articles.FindBySlug(r.Context(), s)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	h.show(w, r, article)
}

// show answers a detail fetch. Drafts exist only for those who may edit
// them.
func (h *Articles) show(w http.ResponseWriter, r *http.Request, article *models.Article) {
	if article == nil {
		apperror.Write(w, r, apperror.NewNotFound("Article not found"))
		return
	}
	if !article.IsPublished() && !policy.CanMutate(middleware.PrincipalFromCtx(r.Context()), article) {
		apperror.Write(w, r, apperror.NewNotFound("Article not found"))
		return
	}

	h.writer.RecordView(r.Context(), article)
	h.decorate(article)
	writeData(w, http.StatusOK, article)
}

// Featured returns the published featured articles, newest first. The
// encoded response is cached until the next article mutation.
func (h *Articles) Featured(w http.ResponseWriter, r *http.Request) {
	load := func(ctx context.Context) ([]byte, error) {
		items, err := h.articles.Featured(ctx, 0)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []models.Article{}
		}
		for i := range items {
			h.decorate(&items[i])
		}
		return json.Marshal(dataEnvelope{Data: items})
	}

	var (
		body []byte
		err  error
	)
	if h.cache != nil {
		body, err = h.cache.GetOrLoad(r.Context(), cache.FeaturedKey, load)
	} else {
		body, err = load(r.Context())
	}
	if err != nil {
		apperror.Write(w, r, fmt.Errorf("featured articles: %w", err))
		return
	}
	writeRaw(w, http.StatusOK, body)
}

// Permissions tells the caller whether it may edit the article.
func (h *Articles) Permissions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		apperror.Write(w, r, apperror.NewInvalidInput("Invalid article id"))
		return
	}

	canEdit, err := policy.IsAuthorOrEditor(r.Context(), h.articles, middleware.PrincipalFromCtx(r.Context()), id)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"canEdit": canEdit})
}

// Create stores a new draft owned by the caller.
func (h *Articles) Create(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromCtx(r.Context())
	if principal == nil {
		apperror.Write(w, r, apperror.NewUnauthenticated("You must be logged in to create articles"))
		return
	}

	in, err := h.readInput(w, r)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	article, err := h.writer.Create(r.Context(), in, principal)
	if err != nil {
		apperror.Write(w, r, articleWriteError(err))
		return
	}

	h.audit.Log(r.Context(), "create", entityArticle, article.ID, principal,
		audit.With(audit.RequestDetails(r), map[string]any{
			"title": article.Title,
			"slug":  article.Slug,
		}))
	h.invalidate(r.Context())

	h.decorate(article)
	writeData(w, http.StatusCreated, article)
}

// Update replaces the editable fields of an article. Only its author or
// an editor may do so.
func (h *Articles) Update(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromCtx(r.Context())
	if principal == nil {
		apperror.Write(w, r, apperror.NewUnauthenticated("You must be logged in to update articles"))
		return
	}

	existing, ok := h.loadForMutation(w, r, principal, "You can only update your own articles")
	if !ok {
		return
	}

	in, err := h.readInput(w, r)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	changes := suppliedFields(in)
	article, err := h.writer.Update(r.Context(), existing, in)
	if err != nil {
		apperror.Write(w, r, articleWriteError(err))
		return
	}
	if article == nil {
		apperror.Write(w, r, apperror.NewNotFound("Article not found"))
		return
	}

	h.audit.Log(r.Context(), "update", entityArticle, article.ID, principal,
		audit.With(audit.RequestDetails(r), map[string]any{
			"title":   article.Title,
			"slug":    article.Slug,
			"changes": changes,
		}))
	h.invalidate(r.Context())

	h.decorate(article)
	writeData(w, http.StatusOK, article)
}

// Delete removes an article. Only its author or an editor may do so.
func (h *Articles) Delete(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromCtx(r.Context())
	if principal == nil {
		apperror.Write(w, r, apperror.NewUnauthenticated("You must be logged in to delete articles"))
		return
	}

	existing, ok := h.loadForMutation(w, r, principal, "You can only delete your own articles")
	if !ok {
		return
	}

	deleted, err := h.articles.Delete(r.Context(), existing.ID)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	if deleted == nil {
		apperror.Write(w, r, apperror.NewNotFound("Article not found"))
		return
	}

	h.audit.Log(r.Context(), "delete", entityArticle, deleted.ID, principal,
		audit.With(audit.RequestDetails(r), map[string]any{
			"title": deleted.Title,
			"slug":  deleted.Slug,
		}))
	h.invalidate(r.Context())

	h.decorate(deleted)
	writeData(w, http.StatusOK, deleted)
}

// Publish makes an article public as of now. Editors only.
func (h *Articles) Publish(w http.ResponseWriter, r *http.Request) {
	now := h.now().UTC()
	h.setPublished(w, r, &now, "publish")
}

// Unpublish turns an article back into a draft. Editors only.
func (h *Articles) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.setPublished(w, r, nil, "unpublish")
}

func (h *Articles) setPublished(w http.ResponseWriter, r *http.Request, at *time.Time, action string) {
	principal := middleware.PrincipalFromCtx(r.Context())
	if principal == nil {
		apperror.Write(w, r, apperror.NewUnauthenticated(fmt.Sprintf("You must be logged in to %s articles", action)))
		return
	}
	if !policy.IsEditor(principal) {
		apperror.Write(w, r, apperror.NewForbidden(fmt.Sprintf("Only editors can %s articles", action)))
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		apperror.Write(w, r, apperror.NewInvalidInput("Invalid article id"))
		return
	}

	article, err := h.articles.SetPublishedAt(r.Context(), id, at)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	if article == nil {
		apperror.Write(w, r, apperror.NewNotFound("Article not found"))
		return
	}

	details := map[string]any{"title": article.Title, "slug": article.Slug}
	if at != nil {
		details["publishedAt"] = at.Format(time.RFC3339)
	}
	h.audit.Log(r.Context(), action, entityArticle, article.ID, principal,
		audit.With(audit.RequestDetails(r), details))
	h.invalidate(r.Context())

	h.decorate(article)
	writeData(w, http.StatusOK, article)
}

// loadForMutation resolves the article named in the URL and checks that
// the principal may change it. It writes the error response itself.
func (h *Articles) loadForMutation(w http.ResponseWriter, r *http.Request, principal *models.User, forbidden string) (*models.Article, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		apperror.Write(w, r, apperror.NewInvalidInput("Invalid article id"))
		return nil, false
	}

	article, err := h.articles.FindByID(r.Context(), id)
	if err != nil {
		apperror.Write(w, r, err)
		return nil, false
	}
	if article == nil {
		apperror.Write(w, r, apperror.NewNotFound("Article not found"))
		return nil, false
	}
	if !policy.CanMutate(principal, article) {
		apperror.Write(w, r, apperror.NewForbidden(forbidden))
		return nil, false
	}
	return article, true
}

// readInput decodes and validates an article payload.
func (h *Articles) readInput(w http.ResponseWriter, r *http.Request) (*models.ArticleInput, error) {
	var in models.ArticleInput
	if err := decodeData(w, r, &in); err != nil {
		return nil, err
	}
	if errs := validateArticle(&in); len(errs) > 0 {
		return nil, apperror.NewValidation(errs)
	}
	title := strings.TrimSpace(*in.Title)
	in.Title = &title
	return &in, nil
}

// decorate fills derived response fields.
func (h *Articles) decorate(a *models.Article) {
	if a.CoverImage != nil && h.files != nil && a.CoverImage.StorageKey != "" {
		a.CoverImage.URL = h.files.FileURL(a.CoverImage.StorageKey)
	}
}

func (h *Articles) invalidate(ctx context.Context) {
	if h.cache != nil {
		h.cache.InvalidateAll(ctx)
	}
}

// articleWriteError maps store write failures to client errors.
func articleWriteError(err error) error {
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return apperror.NewConflict("Article with this slug already exists")
	case errors.Is(err, store.ErrInvalidReference):
		return &apperror.Error{
			Kind:    apperror.InvalidInput,
			Message: "Data validation failed",
			Details: map[string]any{"errors": []string{"Category or cover image does not exist"}},
		}
	}
	return err
}

// suppliedFields lists the payload fields the client sent.
func suppliedFields(in *models.ArticleInput) []string {
	var fields []string
	add := func(name string, present bool) {
		if present {
			fields = append(fields, name)
		}
	}
	add("title", in.Title != nil)
	add("slug", in.Slug != nil)
	add("content", in.Content != nil)
	add("excerpt", in.Excerpt != nil)
	add("category", in.Category != nil)
	add("coverImage", in.CoverImage != nil)
	add("isFeatured", in.IsFeatured != nil)
	add("readingTime", in.ReadingTime != nil)
	add("tags", in.Tags != nil)
	return fields
}
