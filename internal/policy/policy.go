// Package policy decides who may change an article.
package policy

import (
	"context"
	"fmt"

	"newsroom/internal/models"
)

// ArticleFinder loads an article with its author populated. It returns
// nil, nil when the article does not exist.
type ArticleFinder interface {
	FindByID(ctx context.Context, id int64) (*models.Article, error)
}

// IsEditor reports whether the principal holds the editor role.
func IsEditor(principal *models.User) bool {
	return principal.IsEditor()
}

// CanMutate reports whether the principal may update or delete an article
// it has already loaded: editors may change anything, everyone else only
// their own articles.
func CanMutate(principal *models.User, article *models.Article) bool {
	if principal == nil || article == nil {
		return false
	}
	if principal.IsEditor() {
		return true
	}
	id, ok := authorID(article)
	return ok && id == principal.ID
}

// IsAuthorOrEditor reports whether the principal may change the article
// with the given id. Editors are allowed without a lookup; anonymous
// callers and missing articles are denied.
func IsAuthorOrEditor(ctx context.Context, finder ArticleFinder, principal *models.User, articleID int64) (bool, error) {
	if principal.IsEditor() {
		return true, nil
	}
	if principal == nil {
		return false, nil
	}

	article, err := finder.FindByID(ctx, articleID)
	if err != nil {
		return false, fmt.Errorf("authorize article %d: %w", articleID, err)
	}
	return CanMutate(principal, article), nil
}

func authorID(a *models.Article) (int64, bool) {
	if a.Author != nil {
		return a.Author.ID, true
	}
	if a.AuthorID != nil {
		return *a.AuthorID, true
	}
	return 0, false
}
