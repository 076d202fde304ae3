// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router tests verify the HTTP routing configuration, middleware
// chains, and the health endpoint.
package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"newsroom/internal/handlers"
	"newsroom/internal/middleware"
	"newsroom/internal/models"
	"newsroom/internal/session"
)

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/health", nil)

	healthHandler(w, r)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("content-type: got %q, want %q", ct, "application/json")
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field: got %q, want %q", body["status"], "ok")
	}
}

type usersByID map[int64]*models.User

func (u usersByID) FindByID(_ context.Context, id int64) (*models.User, error) {
	return u[id], nil
}

// testRouter builds the router with real middleware and token handling.
// Only route guards and handlers that reject before touching a store are
// exercised, so the handler groups carry no repositories.
func testRouter(t *testing.T) (http.Handler, *session.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	tokens, err := session.NewStore(client, session.Options{Secret: "router-test"})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	users := usersByID{
		1: {ID: 1, Username: "ed", Role: &models.Role{Name: models.RoleEditor}},
		2: {ID: 2, Username: "al", Role: &models.Role{Name: models.RoleAuthenticated}},
	}

	h := New(Deps{
		Verifier:   tokens,
		Users:      users,
		CORS:       middleware.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
		Articles:   handlers.NewArticles(nil, nil, nil, nil, nil),
		Auth:       handlers.NewAuth(nil, tokens, nil),
		Categories: handlers.NewCategories(nil, nil, nil),
		Uploads:    handlers.NewUploads(nil, nil, nil, nil),
		AuditLogs:  handlers.NewAuditLogs(nil),
	})
	return h, tokens
}

func TestRouteGuards(t *testing.T) {
	h, tokens := testRouter(t)
	editorToken, _ := tokens.Issue(1)
	userToken, _ := tokens.Issue(2)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"health", "GET", "/health", "", 200},
		{"unknown route", "GET", "/api/nothing", "", 404},
		{"create article anonymous", "POST", "/api/articles", "", 401},
		{"drafts anonymous", "GET", "/api/articles?status=draft", "", 401},
		{"publish as author", "POST", "/api/articles/1/publish", userToken, 403},
		{"me anonymous", "GET", "/api/users/me", "", 401},
		{"me with garbage token", "GET", "/api/users/me", "garbage", 401},
		{"me", "GET", "/api/users/me", userToken, 200},
		{"category create anonymous", "POST", "/api/categories", "", 401},
		{"category create as author", "POST", "/api/categories", userToken, 403},
		{"audit logs as author", "GET", "/api/audit-logs", userToken, 403},
		{"upload anonymous", "POST", "/api/upload", "", 401},
		{"upload without storage", "POST", "/api/upload", editorToken, 503},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				r.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			if w.Code != tt.status {
				t.Errorf("status: got %d, want %d: %s", w.Code, tt.status, w.Body.String())
			}
			if w.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("security headers missing")
			}
		})
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	h, tokens := testRouter(t)
	token, _ := tokens.Issue(2)

	do := func(method, path string) int {
		r := httptest.NewRequest(method, path, nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		return w.Code
	}

	if got := do("GET", "/api/users/me"); got != http.StatusOK {
		t.Fatalf("me before logout: got %d", got)
	}
	if got := do("POST", "/api/auth/logout"); got != http.StatusNoContent {
		t.Fatalf("logout: got %d", got)
	}
	if got := do("GET", "/api/users/me"); got != http.StatusUnauthorized {
		t.Errorf("me after logout: got %d, want 401", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	h, _ := testRouter(t)

	r := httptest.NewRequest("OPTIONS", "/api/articles", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	r.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow-origin: got %q", got)
	}
}

func TestRateLimitedAPI(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute)
	t.Cleanup(limiter.Stop)
	limited := New(Deps{
		Limiter:    limiter,
		Articles:   handlers.NewArticles(nil, nil, nil, nil, nil),
		Auth:       handlers.NewAuth(nil, nil, nil),
		Categories: handlers.NewCategories(nil, nil, nil),
		Uploads:    handlers.NewUploads(nil, nil, nil, nil),
		AuditLogs:  handlers.NewAuditLogs(nil),
	})

	var codes []int
	for range 2 {
		r := httptest.NewRequest("POST", "/api/articles", nil)
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, r)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusUnauthorized || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes: got %v, want [401 429]", codes)
	}

	// The health check is not throttled.
	for range 3 {
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("health: got %d", w.Code)
		}
	}
}
