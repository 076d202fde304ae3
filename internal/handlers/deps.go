package handlers

import (
	"context"
	"io"
	"time"

	"newsroom/internal/cache"
	"newsroom/internal/models"
	"newsroom/internal/store"
)

// ArticleRepository is the read and state-change side of the article
// store. *store.ArticleStore implements it.
type ArticleRepository interface {
	List(ctx context.Context, f store.ArticleFilter) ([]models.Article, int, error)
	FindByID(ctx context.Context, id int64) (*models.Article, error)
	FindBySlug(ctx context.Context, slug string) (*models.Article, error)
	Featured(ctx context.Context, limit int) ([]models.Article, error)
	Delete(ctx context.Context, id int64) (*models.Article, error)
	SetPublishedAt(ctx context.Context, id int64, t *time.Time) (*models.Article, error)
}

// ArticleWriter persists client payloads through the lifecycle
// transforms. *lifecycle.Articles implements it.
type ArticleWriter interface {
	Create(ctx context.Context, in *models.ArticleInput, author *models.User) (*models.Article, error)
	Update(ctx context.Context, existing *models.Article, in *models.ArticleInput) (*models.Article, error)
	RecordView(ctx context.Context, article *models.Article)
}

// AuditLogger records mutations. *audit.Logger implements it.
type AuditLogger interface {
	Log(ctx context.Context, action, entity string, entityID int64, principal *models.User, details map[string]any) *models.AuditLogEntry
}

// ResponseCache caches encoded responses. *cache.ResponseCache
// implements it.
type ResponseCache interface {
	GetOrLoad(ctx context.Context, key string, load cache.Loader) ([]byte, error)
	InvalidateAll(ctx context.Context)
}

// FileStore keeps uploaded files. *storage.Client implements it.
type FileStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	FileURL(key string) string
}
