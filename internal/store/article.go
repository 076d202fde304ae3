// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"newsroom/internal/models"
)

// Publication states an article listing can be restricted to.
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
	StatusAll       = "all"
)

// sortColumns whitelists the fields a listing may be ordered by.
var sortColumns = map[string]string{
	"publishedAt": "a.published_at",
	"createdAt":   "a.created_at",
	"updatedAt":   "a.updated_at",
	"views":       "a.views",
	"title":       "a.title",
}

// SortableField reports whether articles can be ordered by field.
func SortableField(field string) bool {
	_, ok := sortColumns[field]
	return ok
}

// ArticleFilter narrows and orders an article listing. Zero values mean
// "no restriction"; an empty Status means published only.
type ArticleFilter struct {
	CategoryID    *int64
	AuthorID      *int64
	IsFeatured    *bool
	Tag           string
	Slug          string
	TitleContains string
	Status        string
	SortField     string
	SortDesc      bool
	Limit         int
	Offset        int

	// DraftsOf, when set, limits the drafts a listing may include to
	// those written by this user. Published articles are unaffected.
	DraftsOf *int64
}

// ArticleStore handles all article-related database operations. Reads
// return articles with category, author and cover image populated.
type ArticleStore struct {
	db *sql.DB
}

// NewArticleStore creates a new ArticleStore with the given database connection.
func NewArticleStore(db *sql.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

const articleSelect = `
	SELECT a.id, a.title, a.slug, a.content, a.excerpt, a.views, a.is_featured,
	       a.reading_time, a.tags, a.published_at, a.created_at, a.updated_at,
	       a.category_id, a.author_id, a.cover_image_id,
	       c.name, c.slug, c.description, c.created_at, c.updated_at,
	       u.username, u.email,
	       m.name, m.alternative_text, m.mime, m.size, m.width, m.height, m.storage_key, m.created_at
	FROM articles a
	LEFT JOIN categories c ON c.id = a.category_id
	LEFT JOIN users u ON u.id = a.author_id
	LEFT JOIN media m ON m.id = a.cover_image_id`

// scanArticle scans a row produced by articleSelect.
func scanArticle(scanner interface{ Scan(...any) error }) (*models.Article, error) {
	var (
		a        models.Article
		catName  sql.NullString
		catSlug  sql.NullString
		catDesc  *string
		catCr    sql.NullTime
		catUp    sql.NullTime
		username sql.NullString
		email    sql.NullString
		mName    sql.NullString
		mAlt     *string
		mMime    sql.NullString
		mSize    sql.NullInt64
		mWidth   *int
		mHeight  *int
		mKey     sql.NullString
		mCr      sql.NullTime
	)
	err := scanner.Scan(
		&a.ID, &a.Title, &a.Slug, &a.Content, &a.Excerpt, &a.Views, &a.IsFeatured,
		&a.ReadingTime, &a.Tags, &a.PublishedAt, &a.CreatedAt, &a.UpdatedAt,
		&a.CategoryID, &a.AuthorID, &a.CoverImageID,
		&catName, &catSlug, &catDesc, &catCr, &catUp,
		&username, &email,
		&mName, &mAlt, &mMime, &mSize, &mWidth, &mHeight, &mKey, &mCr,
	)
	if err != nil {
		return nil, err
	}

	if a.CategoryID != nil {
		a.Category = &models.Category{
			ID:          *a.CategoryID,
			Name:        catName.String,
			Slug:        catSlug.String,
			Description: catDesc,
			CreatedAt:   catCr.Time,
			UpdatedAt:   catUp.Time,
		}
	}
	if a.AuthorID != nil {
		a.Author = &models.Author{ID: *a.AuthorID, Username: username.String, Email: email.String}
	}
	if a.CoverImageID != nil {
		a.CoverImage = &models.Media{
			ID:              *a.CoverImageID,
			Name:            mName.String,
			AlternativeText: mAlt,
			Mime:            mMime.String,
			Size:            mSize.Int64,
			Width:           mWidth,
			Height:          mHeight,
			StorageKey:      mKey.String,
			CreatedAt:       mCr.Time,
		}
	}
	return &a, nil
}

// where builds the WHERE clause and its arguments for a filter.
func (f ArticleFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	switch f.Status {
	case StatusAll:
		if f.DraftsOf != nil {
			add("(a.published_at IS NOT NULL OR a.author_id = $%d)", *f.DraftsOf)
		}
	case StatusDraft:
		conds = append(conds, "a.published_at IS NULL")
		if f.DraftsOf != nil {
			add("a.author_id = $%d", *f.DraftsOf)
		}
	default:
		conds = append(conds, "a.published_at IS NOT NULL")
	}
	if f.CategoryID != nil {
		add("a.category_id = $%d", *f.CategoryID)
	}
	if f.AuthorID != nil {
		add("a.author_id = $%d", *f.AuthorID)
	}
	if f.IsFeatured != nil {
		add("a.is_featured = $%d", *f.IsFeatured)
	}
	if f.Tag != "" {
		add("a.tags @> jsonb_build_array($%d::text)", f.Tag)
	}
	if f.Slug != "" {
		add("a.slug = $%d", f.Slug)
	}
	if f.TitleContains != "" {
		add(`a.title ILIKE '%%' || $%d || '%%'`, escapeLike(f.TitleContains))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// orderBy returns the ORDER BY clause for a filter.
func (f ArticleFilter) orderBy() string {
	col, ok := sortColumns[f.SortField]
	if !ok {
		return " ORDER BY a.published_at DESC NULLS LAST, a.id DESC"
	}
	dir := "ASC"
	if f.SortDesc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s NULLS LAST, a.id %s", col, dir, dir)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// List returns one page of articles matching the filter together with the
// total number of matches.
func (s *ArticleStore) List(ctx context.Context, f ArticleFilter) ([]models.Article, int, error) {
	where, args := f.where()

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles a"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	query := articleSelect + where + f.orderBy()
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var items []models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, *a)
	}
	return items, total, rows.Err()
}

// FindByID retrieves an article regardless of publication state. Returns
// nil if not found.
func (s *ArticleStore) FindByID(ctx context.Context, id int64) (*models.Article, error) {
	a, err := scanArticle(s.db.QueryRowContext(ctx, articleSelect+" WHERE a.id = $1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find article by id: %w", err)
	}
	return a, nil
}

// FindBySlug retrieves the first article with the given slug. Returns nil
// if none matches.
func (s *ArticleStore) FindBySlug(ctx context.Context, slug string) (*models.Article, error) {
	a, err := scanArticle(s.db.QueryRowContext(ctx,
		articleSelect+" WHERE a.slug = $1 ORDER BY a.id LIMIT 1", slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find article by slug: %w", err)
	}
	return a, nil
}

// Featured returns published articles flagged as featured, newest first.
func (s *ArticleStore) Featured(ctx context.Context, limit int) ([]models.Article, error) {
	featured := true
	items, _, err := s.List(ctx, ArticleFilter{
		IsFeatured: &featured,
		Status:     StatusPublished,
		SortField:  "publishedAt",
		SortDesc:   true,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("featured articles: %w", err)
	}
	return items, nil
}

// Create inserts a new article and returns it populated. Views always
// start at zero.
func (s *ArticleStore) Create(ctx context.Context, a *models.Article) (*models.Article, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO articles (title, slug, content, excerpt, is_featured, reading_time,
		                      tags, published_at, category_id, author_id, cover_image_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, a.Title, a.Slug, a.Content, a.Excerpt, a.IsFeatured, a.ReadingTime,
		a.Tags, a.PublishedAt, a.CategoryID, a.AuthorID, a.CoverImageID,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create article: %w", translate(err))
	}
	return s.FindByID(ctx, id)
}

// Update writes the editable fields of an article. Author, views and
// publication state are not touched. Returns nil if the article no longer
// exists.
func (s *ArticleStore) Update(ctx context.Context, a *models.Article) (*models.Article, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		UPDATE articles
		SET title = $1, slug = $2, content = $3, excerpt = $4, is_featured = $5,
		    reading_time = $6, tags = $7, category_id = $8, cover_image_id = $9,
		    updated_at = NOW()
		WHERE id = $10
		RETURNING id
	`, a.Title, a.Slug, a.Content, a.Excerpt, a.IsFeatured,
		a.ReadingTime, a.Tags, a.CategoryID, a.CoverImageID, a.ID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update article: %w", translate(err))
	}
	return s.FindByID(ctx, id)
}

// Delete removes an article and returns it as it was. Returns nil if it
// did not exist.
func (s *ArticleStore) Delete(ctx context.Context, id int64) (*models.Article, error) {
	a, err := s.FindByID(ctx, id)
	if err != nil || a == nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("delete article: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return a, nil
}

// SetPublishedAt publishes (non-nil t) or unpublishes (nil t) an article.
// Returns nil if the article does not exist.
func (s *ArticleStore) SetPublishedAt(ctx context.Context, id int64, t *time.Time) (*models.Article, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE articles SET published_at = $1, updated_at = NOW() WHERE id = $2
	`, t, id)
	if err != nil {
		return nil, fmt.Errorf("set article published_at: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.FindByID(ctx, id)
}

// IncrementViews atomically adds one to a published article's view count
// and returns the new count. Returns ErrNotFound when no published article
// has the id.
func (s *ArticleStore) IncrementViews(ctx context.Context, id int64) (int, error) {
	var views int
	err := s.db.QueryRowContext(ctx, `
		UPDATE articles SET views = views + 1
		WHERE id = $1 AND published_at IS NOT NULL
		RETURNING views
	`, id).Scan(&views)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment article views: %w", err)
	}
	return views, nil
}
