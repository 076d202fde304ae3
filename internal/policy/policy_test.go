package policy

import (
	"context"
	"errors"
	"testing"

	"newsroom/internal/models"
)

type finderFunc func(ctx context.Context, id int64) (*models.Article, error)

func (f finderFunc) FindByID(ctx context.Context, id int64) (*models.Article, error) {
	return f(ctx, id)
}

var (
	editor = &models.User{ID: 1, Role: &models.Role{Name: models.RoleEditor}}
	alice  = &models.User{ID: 2, Role: &models.Role{Name: models.RoleAuthenticated}}
	bob    = &models.User{ID: 3, Role: &models.Role{Name: models.RoleAuthenticated}}
)

func articleBy(authorID int64) *models.Article {
	return &models.Article{ID: 10, Author: &models.Author{ID: authorID}}
}

func TestIsAuthorOrEditor(t *testing.T) {
	tests := []struct {
		name      string
		principal *models.User
		article   *models.Article
		findErr   error
		want      bool
		wantErr   bool
		wantFetch bool
	}{
		{name: "editor without lookup", principal: editor, want: true},
		{name: "anonymous", principal: nil, want: false},
		{name: "author", principal: alice, article: articleBy(2), want: true, wantFetch: true},
		{name: "other user", principal: bob, article: articleBy(2), want: false, wantFetch: true},
		{name: "missing article", principal: alice, article: nil, want: false, wantFetch: true},
		{name: "article without author", principal: alice, article: &models.Article{ID: 10}, want: false, wantFetch: true},
		{name: "lookup failure", principal: alice, findErr: errors.New("db down"), wantErr: true, wantFetch: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetched := false
			finder := finderFunc(func(_ context.Context, id int64) (*models.Article, error) {
				fetched = true
				if id != 10 {
					t.Errorf("fetched id %d, want 10", id)
				}
				return tt.article, tt.findErr
			})

			got, err := IsAuthorOrEditor(context.Background(), finder, tt.principal, 10)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("IsAuthorOrEditor() = %v, want %v", got, tt.want)
			}
			if fetched != tt.wantFetch {
				t.Errorf("fetched = %v, want %v", fetched, tt.wantFetch)
			}
		})
	}
}

func TestCanMutate(t *testing.T) {
	authorID := int64(2)
	unpopulated := &models.Article{ID: 5, AuthorID: &authorID}

	tests := []struct {
		name      string
		principal *models.User
		article   *models.Article
		want      bool
	}{
		{"editor on any article", editor, articleBy(99), true},
		{"author on own article", alice, articleBy(2), true},
		{"author on foreign article", bob, articleBy(2), false},
		{"author id without populated relation", alice, unpopulated, true},
		{"anonymous", nil, articleBy(2), false},
		{"nil article", alice, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanMutate(tt.principal, tt.article); got != tt.want {
				t.Errorf("CanMutate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsEditor(t *testing.T) {
	if !IsEditor(editor) {
		t.Error("editor not recognised")
	}
	if IsEditor(alice) || IsEditor(nil) {
		t.Error("non-editor recognised as editor")
	}
}
