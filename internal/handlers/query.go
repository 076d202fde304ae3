package handlers

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"newsroom/internal/apperror"
	"newsroom/internal/store"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
	maxPage         = 1 << 20
)

// listQuery is a parsed article listing request.
type listQuery struct {
	filter   store.ArticleFilter
	page     int
	pageSize int
}

// parseListQuery understands the Strapi-style query parameters the
// frontend sends: filters[...], status, sort and pagination[...].
func parseListQuery(q url.Values) (listQuery, error) {
	lq := listQuery{page: 1, pageSize: defaultPageSize}
	f := &lq.filter

	if v := q.Get("filters[category]"); v != "" {
		id, err := parsePositive(v)
		if err != nil {
			return lq, apperror.NewInvalidInput("Invalid category filter")
		}
		f.CategoryID = &id
	}
	if v := q.Get("filters[author]"); v != "" {
		id, err := parsePositive(v)
		if err != nil {
			return lq, apperror.NewInvalidInput("Invalid author filter")
		}
		f.AuthorID = &id
	}
	if v := q.Get("filters[isFeatured]"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return lq, apperror.NewInvalidInput("Invalid isFeatured filter")
		}
		f.IsFeatured = &b
	}
	f.Tag = strings.TrimSpace(q.Get("filters[tags]"))
	f.Slug = strings.TrimSpace(q.Get("filters[slug]"))
	f.TitleContains = strings.TrimSpace(q.Get("filters[title][$containsi]"))

	switch status := q.Get("status"); status {
	case "", store.StatusPublished:
		f.Status = store.StatusPublished
	case store.StatusDraft, store.StatusAll:
		f.Status = status
	default:
		return lq, apperror.NewInvalidInput("Invalid status: " + status)
	}

	if v := q.Get("sort"); v != "" {
		field, dir, _ := strings.Cut(v, ":")
		if !store.SortableField(field) {
			return lq, apperror.NewInvalidInput("Invalid sort field: " + field)
		}
		switch strings.ToLower(dir) {
		case "", "asc":
		case "desc":
			f.SortDesc = true
		default:
			return lq, apperror.NewInvalidInput("Invalid sort direction: " + dir)
		}
		f.SortField = field
	}

	if v := q.Get("pagination[page]"); v != "" {
		n, err := parsePositive(v)
		if err != nil || n > maxPage {
			return lq, apperror.NewInvalidInput("Invalid page")
		}
		lq.page = int(n)
	}
	if v := q.Get("pagination[pageSize]"); v != "" {
		n, err := parsePositive(v)
		if err != nil {
			return lq, apperror.NewInvalidInput("Invalid page size")
		}
		lq.pageSize = int(min(n, maxPageSize))
	}

	f.Limit = lq.pageSize
	f.Offset = (lq.page - 1) * lq.pageSize
	return lq, nil
}

// pagination builds the response meta for a page of results.
func (lq listQuery) pagination(total int) Pagination {
	return Pagination{
		Page:      lq.page,
		PageSize:  lq.pageSize,
		PageCount: int(math.Ceil(float64(total) / float64(lq.pageSize))),
		Total:     total,
	}
}

func parsePositive(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
