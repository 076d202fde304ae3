// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package lifecycle runs the derived-field transforms that every article
// write goes through, and records views on published articles.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"newsroom/internal/models"
	"newsroom/internal/readingtime"
	"newsroom/internal/slug"
	"newsroom/internal/store"
)

// Hooks applies derived-field transforms to an article payload in place.
type Hooks struct {
	// now is used for fallback slugs; tests replace it.
	now func() time.Time
}

// BeforeCreate prepares a payload for insertion.
func (h Hooks) BeforeCreate(in *models.ArticleInput) {
	h.apply(in)
}

// BeforeUpdate prepares a payload for an update.
func (h Hooks) BeforeUpdate(in *models.ArticleInput) {
	h.apply(in)
}

// apply derives the slug when none was supplied, recomputes the reading
// time whenever content is present and drops any client-supplied views.
func (h Hooks) apply(in *models.ArticleInput) {
	if (in.Slug == nil || *in.Slug == "") && in.Title != nil && *in.Title != "" {
		s := slug.Generate(*in.Title)
		if s == "" {
			s = h.fallbackSlug()
		}
		in.Slug = &s
	}
	if in.Content != nil {
		rt := readingtime.Estimate(in.Content)
		in.ReadingTime = &rt
	}
	in.Views = nil
}

// fallbackSlug is used when a title has no characters a slug can keep.
func (h Hooks) fallbackSlug() string {
	now := time.Now
	if h.now != nil {
		now = h.now
	}
	return "article-" + strconv.FormatInt(now().UnixNano(), 36)
}

// Writer is the store primitive the hooks wrap.
type Writer interface {
	Create(ctx context.Context, a *models.Article) (*models.Article, error)
	Update(ctx context.Context, a *models.Article) (*models.Article, error)
	IncrementViews(ctx context.Context, id int64) (int, error)
}

// Articles composes the hooks with a store so transforms always run
// before persistence.
type Articles struct {
	hooks Hooks
	store Writer
}

// NewArticles creates an Articles writer on top of the given store.
func NewArticles(w Writer) *Articles {
	return &Articles{store: w}
}

// Create transforms the payload and inserts a new article owned by author.
func (a *Articles) Create(ctx context.Context, in *models.ArticleInput, author *models.User) (*models.Article, error) {
	a.hooks.BeforeCreate(in)

	article := &models.Article{}
	in.ApplyTo(article)
	if author != nil {
		article.AuthorID = &author.ID
	}
	return a.store.Create(ctx, article)
}

// Update transforms the payload and writes it over an existing article.
// Author, views and publication state are carried over unchanged.
func (a *Articles) Update(ctx context.Context, existing *models.Article, in *models.ArticleInput) (*models.Article, error) {
	a.hooks.BeforeUpdate(in)

	updated := *existing
	in.ApplyTo(&updated)
	return a.store.Update(ctx, &updated)
}

// RecordView adds one view to a published article and updates the views
// field of the passed article with the new count. Drafts and articles
// without an id are left alone. Failures are logged and never returned.
func (a *Articles) RecordView(ctx context.Context, article *models.Article) {
	if article == nil || article.ID == 0 || !article.IsPublished() {
		return
	}
	views, err := a.store.IncrementViews(ctx, article.ID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Warn("failed to record article view", "article_id", article.ID, "error", err)
		}
		return
	}
	article.Views = views
}
