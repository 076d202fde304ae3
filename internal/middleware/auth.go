// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"newsroom/internal/apperror"
	"newsroom/internal/models"
	"newsroom/internal/session"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// PrincipalKey is the context key for the authenticated user.
	PrincipalKey contextKey = "principal"
	// TokenKey is the context key for the raw bearer token.
	TokenKey contextKey = "token"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*session.Claims, error)
}

// UserFinder loads the user a token belongs to.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
}

// Authenticate resolves the bearer token, if any, into a principal and
// stores it in the request context. It never rejects a request: a missing
// or invalid token leaves the caller anonymous, and route guards decide.
func Authenticate(verifier TokenVerifier, users UserFinder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := session.TokenFromRequest(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if !errors.Is(err, session.ErrInvalidToken) && !errors.Is(err, session.ErrRevoked) {
					slog.Warn("token verification failed", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.FindByID(r.Context(), claims.UserID)
			if err != nil {
				slog.Error("failed to load principal", "user_id", claims.UserID, "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if user == nil {
				// Account deleted after the token was issued.
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithPrincipal(r.Context(), user)
			ctx = context.WithValue(ctx, TokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous callers with 401.
// Must be applied after Authenticate in the middleware chain.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if PrincipalFromCtx(r.Context()) == nil {
			apperror.Write(w, r, apperror.NewUnauthenticated("Authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireEditor rejects callers without the editor role: 401 when
// anonymous, 403 otherwise.
func RequireEditor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := PrincipalFromCtx(r.Context())
		if user == nil {
			apperror.Write(w, r, apperror.NewUnauthenticated("Authentication required"))
			return
		}
		if !user.IsEditor() {
			apperror.Write(w, r, apperror.NewForbidden("Only editors can access this resource"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithPrincipal returns a context carrying the given user.
func WithPrincipal(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, PrincipalKey, user)
}

// PrincipalFromCtx returns the authenticated user, or nil for anonymous
// requests.
func PrincipalFromCtx(ctx context.Context) *models.User {
	user, _ := ctx.Value(PrincipalKey).(*models.User)
	return user
}

// TokenFromCtx returns the bearer token the principal authenticated with.
func TokenFromCtx(ctx context.Context) string {
	token, _ := ctx.Value(TokenKey).(string)
	return token
}
