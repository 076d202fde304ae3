// Package router sets up all HTTP routes and middleware chains for the
// newsroom API. Every endpoint lives under /api except the health check.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"newsroom/internal/handlers"
	"newsroom/internal/middleware"
)

// Deps is everything the router wires together.
type Deps struct {
	Verifier middleware.TokenVerifier
	Users    middleware.UserFinder
	CORS     middleware.CORSConfig

	// Limiter throttles all API traffic per client; AuthLimiter is a
	// tighter limit on credential endpoints. Either may be nil.
	Limiter     *middleware.RateLimiter
	AuthLimiter *middleware.RateLimiter

	Articles   *handlers.Articles
	Auth       *handlers.Auth
	Categories *handlers.Categories
	Uploads    *handlers.Uploads
	AuditLogs  *handlers.AuditLogs
}

// New creates the chi router with all middleware and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(d.CORS))

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(d.Limiter.Middleware)
		}
		r.Use(middleware.Authenticate(d.Verifier, d.Users))

		r.Route("/articles", func(r chi.Router) {
			r.Get("/", d.Articles.List)
			r.Get("/featured", d.Articles.Featured)
			r.Get("/slug/{slug}", d.Articles.GetBySlug)
			r.Get("/{id}", d.Articles.Get)
			r.Get("/{id}/permissions", d.Articles.Permissions)
			r.Post("/", d.Articles.Create)
			r.Put("/{id}", d.Articles.Update)
			r.Delete("/{id}", d.Articles.Delete)
			r.Post("/{id}/publish", d.Articles.Publish)
			r.Post("/{id}/unpublish", d.Articles.Unpublish)
		})

		// Credential endpoints.
		r.Group(func(r chi.Router) {
			if d.AuthLimiter != nil {
				r.Use(d.AuthLimiter.Middleware)
			}
			r.Post("/auth/local/register", d.Auth.Register)
			r.Post("/auth/local", d.Auth.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/auth/logout", d.Auth.Logout)
			r.Get("/users/me", d.Auth.Me)
			r.Post("/auth/2fa/setup", d.Auth.TwoFASetup)
			r.Post("/auth/2fa/enable", d.Auth.TwoFAEnable)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", d.Categories.List)
			r.Get("/{id}", d.Categories.Get)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireEditor)
				r.Post("/", d.Categories.Create)
				r.Delete("/{id}", d.Categories.Delete)
			})
		})

		r.Route("/upload", func(r chi.Router) {
			r.Post("/", d.Uploads.Upload)
			r.Get("/files/{id}", d.Uploads.Get)
			r.Delete("/files/{id}", d.Uploads.Delete)
		})

		r.With(middleware.RequireEditor).Get("/audit-logs", d.AuditLogs.List)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
