package handlers

import (
	"strings"
	"unicode/utf8"

	"newsroom/internal/models"
	"newsroom/internal/slug"
)

// Validation limits for article fields.
const (
	maxTitleLen       = 200
	maxExcerptLen     = 500
	maxReadingTime    = 1000
	maxCategoryName   = 100
	minPasswordLength = 6
)

// validateArticle checks a create or update payload and returns every
// violated rule, in a fixed order. An empty result means the payload is
// valid.
func validateArticle(in *models.ArticleInput) []string {
	var errs []string

	title := ""
	if in.Title != nil {
		title = strings.TrimSpace(*in.Title)
	}
	switch {
	case title == "":
		errs = append(errs, "Title is required")
	case utf8.RuneCountInString(title) > maxTitleLen:
		errs = append(errs, "Title must be less than 200 characters")
	}

	if in.Content.IsEmpty() {
		errs = append(errs, "Content is required")
	}

	if in.Category == nil || *in.Category <= 0 {
		errs = append(errs, "Category is required")
	}

	if in.Excerpt != nil && utf8.RuneCountInString(*in.Excerpt) > maxExcerptLen {
		errs = append(errs, "Excerpt must be less than 500 characters")
	}

	if in.Slug != nil && *in.Slug != "" {
		if utf8.RuneCountInString(*in.Slug) > slug.MaxLength {
			errs = append(errs, "Slug must be less than 100 characters")
		}
		if !slug.Valid(*in.Slug) {
			errs = append(errs, "Slug can only contain lowercase letters, numbers and hyphens")
		}
	}

	if in.ReadingTime != nil && (*in.ReadingTime < 0 || *in.ReadingTime > maxReadingTime) {
		errs = append(errs, "Reading time must be between 0 and 1000 minutes")
	}

	return errs
}
