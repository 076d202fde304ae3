// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure: in-memory stores
// standing in for PostgreSQL, a miniredis-backed response cache, and
// request helpers.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"newsroom/internal/audit"
	"newsroom/internal/cache"
	"newsroom/internal/lifecycle"
	"newsroom/internal/middleware"
	"newsroom/internal/models"
	"newsroom/internal/store"
)

var (
	editor  = &models.User{ID: 1, Username: "editor", Email: "editor@newsroom.local", Role: &models.Role{ID: 2, Name: models.RoleEditor, Type: models.RoleEditor}}
	alice   = &models.User{ID: 2, Username: "alice", Email: "alice@newsroom.local", Role: &models.Role{ID: 1, Name: models.RoleAuthenticated, Type: models.RoleAuthenticated}}
	bob     = &models.User{ID: 3, Username: "bob", Email: "bob@newsroom.local", Role: &models.Role{ID: 1, Name: models.RoleAuthenticated, Type: models.RoleAuthenticated}}
	newsCat = &models.Category{ID: 10, Name: "News", Slug: "news"}
)

// fakeArticles is an in-memory article store. It satisfies both
// ArticleRepository and lifecycle.Writer and hands out copies so handlers
// cannot mutate stored state.
type fakeArticles struct {
	mu     sync.Mutex
	rows   map[int64]*models.Article
	nextID int64
	err    error // returned by every call when set
	users  map[int64]*models.User
}

func newFakeArticles() *fakeArticles {
	return &fakeArticles{
		rows:   make(map[int64]*models.Article),
		nextID: 1,
		users:  map[int64]*models.User{editor.ID: editor, alice.ID: alice, bob.ID: bob},
	}
}

func (f *fakeArticles) populate(a *models.Article) *models.Article {
	out := *a
	if a.AuthorID != nil {
		if u, ok := f.users[*a.AuthorID]; ok {
			out.Author = u.AsAuthor()
		}
	}
	if a.CategoryID != nil && *a.CategoryID == newsCat.ID {
		c := *newsCat
		out.Category = &c
	}
	if a.CoverImageID != nil {
		out.CoverImage = &models.Media{ID: *a.CoverImageID, Name: "cover.png", Mime: "image/png", StorageKey: "covers/cover.png"}
	}
	return &out
}

func (f *fakeArticles) checkRefs(a *models.Article) error {
	if a.CategoryID != nil && *a.CategoryID != newsCat.ID {
		return errors.Join(store.ErrInvalidReference, errors.New("fk"))
	}
	for id, other := range f.rows {
		if id != a.ID && other.Slug == a.Slug {
			return errors.Join(store.ErrDuplicate, errors.New("unique"))
		}
	}
	return nil
}

func (f *fakeArticles) Create(_ context.Context, a *models.Article) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if err := f.checkRefs(a); err != nil {
		return nil, err
	}
	row := *a
	row.ID = f.nextID
	row.Views = 0
	row.CreatedAt = time.Now()
	row.UpdatedAt = row.CreatedAt
	f.nextID++
	f.rows[row.ID] = &row
	return f.populate(&row), nil
}

func (f *fakeArticles) Update(_ context.Context, a *models.Article) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	old, ok := f.rows[a.ID]
	if !ok {
		return nil, nil
	}
	if err := f.checkRefs(a); err != nil {
		return nil, err
	}
	row := *a
	row.AuthorID = old.AuthorID
	row.Views = old.Views
	row.PublishedAt = old.PublishedAt
	row.UpdatedAt = time.Now()
	f.rows[a.ID] = &row
	return f.populate(&row), nil
}

func (f *fakeArticles) IncrementViews(_ context.Context, id int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok || row.PublishedAt == nil {
		return 0, store.ErrNotFound
	}
	row.Views++
	return row.Views, nil
}

func (f *fakeArticles) FindByID(_ context.Context, id int64) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	row, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return f.populate(row), nil
}

func (f *fakeArticles) FindBySlug(_ context.Context, slug string) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.sorted() {
		if row.Slug == slug {
			return f.populate(row), nil
		}
	}
	return nil, nil
}

func (f *fakeArticles) sorted() []*models.Article {
	rows := make([]*models.Article, 0, len(f.rows))
	for _, row := range f.rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

func (f *fakeArticles) List(_ context.Context, flt store.ArticleFilter) ([]models.Article, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, 0, f.err
	}
	var matched []models.Article
	for _, row := range f.sorted() {
		published := row.PublishedAt != nil
		ownDraft := flt.DraftsOf == nil || (row.AuthorID != nil && *row.AuthorID == *flt.DraftsOf)
		switch flt.Status {
		case store.StatusAll:
			if !published && !ownDraft {
				continue
			}
		case store.StatusDraft:
			if published || !ownDraft {
				continue
			}
		default:
			if !published {
				continue
			}
		}
		if flt.IsFeatured != nil && row.IsFeatured != *flt.IsFeatured {
			continue
		}
		matched = append(matched, *f.populate(row))
	}
	total := len(matched)
	if flt.Offset < len(matched) {
		matched = matched[flt.Offset:]
	} else {
		matched = nil
	}
	if flt.Limit > 0 && len(matched) > flt.Limit {
		matched = matched[:flt.Limit]
	}
	return matched, total, nil
}

func (f *fakeArticles) Featured(ctx context.Context, limit int) ([]models.Article, error) {
	featured := true
	items, _, err := f.List(ctx, store.ArticleFilter{IsFeatured: &featured, Limit: limit})
	return items, err
}

func (f *fakeArticles) Delete(_ context.Context, id int64) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	row, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	delete(f.rows, id)
	return f.populate(row), nil
}

func (f *fakeArticles) SetPublishedAt(_ context.Context, id int64, t *time.Time) (*models.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	row, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	row.PublishedAt = t
	return f.populate(row), nil
}

// seed inserts an article directly, bypassing the handlers.
func (f *fakeArticles) seed(title, slug string, author *models.User, published, featured bool) *models.Article {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := &models.Article{
		ID:         f.nextID,
		Title:      title,
		Slug:       slug,
		Content:    *models.TextContent("Some body text"),
		IsFeatured: featured,
		CategoryID: &newsCat.ID,
		AuthorID:   &author.ID,
	}
	if published {
		now := time.Now().UTC()
		a.PublishedAt = &now
	}
	f.nextID++
	f.rows[a.ID] = a
	return f.populate(a)
}

func (f *fakeArticles) views(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id].Views
}

// fakeAuditStore collects audit entries in memory.
type fakeAuditStore struct {
	mu      sync.Mutex
	entries []models.AuditLogEntry
}

func (f *fakeAuditStore) Create(_ context.Context, e *models.AuditLogEntry) (*models.AuditLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := *e
	out.ID = int64(len(f.entries) + 1)
	out.CreatedAt = time.Now()
	f.entries = append(f.entries, out)
	return &out, nil
}

func (f *fakeAuditStore) Recent(_ context.Context, limit int) ([]models.AuditLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AuditLogEntry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.entries[i])
	}
	return out, nil
}

func (f *fakeAuditStore) ForEntity(_ context.Context, entity string, id int64) ([]models.AuditLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AuditLogEntry
	for _, e := range f.entries {
		if e.Entity == entity && e.EntityID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditStore) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

// fakeFiles records uploads and serves URLs under a fixed host.
type fakeFiles struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeFiles() *fakeFiles { return &fakeFiles{objects: make(map[string][]byte)} }

func (f *fakeFiles) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeFiles) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeFiles) FileURL(key string) string { return "https://cdn.test/" + key }

// testEnv holds all dependencies for article handler tests.
type testEnv struct {
	store    *fakeArticles
	auditLog *fakeAuditStore
	cache    *cache.ResponseCache
	mr       *miniredis.Miniredis
	files    *fakeFiles
	articles *Articles
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	env := &testEnv{
		store:    newFakeArticles(),
		auditLog: &fakeAuditStore{},
		cache:    cache.NewResponseCache(client, time.Minute),
		mr:       mr,
		files:    newFakeFiles(),
	}
	env.articles = NewArticles(env.store, lifecycle.NewArticles(env.store), audit.NewLogger(env.auditLog), env.cache, env.files)
	return env
}

// request builds a request with an optional JSON body, principal and chi
// URL parameters given as key/value pairs.
func request(method, target, body string, principal *models.User, params ...string) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if principal != nil {
		r = r.WithContext(middleware.WithPrincipal(r.Context(), principal))
	}
	for i := 0; i+1 < len(params); i += 2 {
		r = withChiURLParam(r, params[i], params[i+1])
	}
	return r
}

// withChiURLParam adds a chi URL parameter to the request, keeping any
// already present.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// serve runs a handler and returns the recorder.
func serve(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, r)
	return rec
}

// errorBody is the decoded error envelope.
type errorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Name    string `json:"name"`
		Message string `json:"message"`
		Details struct {
			Errors []string `json:"errors"`
		} `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body
}

func decodeArticle(t *testing.T, rec *httptest.ResponseRecorder) models.Article {
	t.Helper()
	var body struct {
		Data models.Article `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode article %q: %v", rec.Body.String(), err)
	}
	return body.Data
}
