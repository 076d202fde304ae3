package handlers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"newsroom/internal/apperror"
	"newsroom/internal/audit"
	"newsroom/internal/middleware"
	"newsroom/internal/models"
	"newsroom/internal/store"
)

const (
	entityUser = "user"
	totpIssuer = "Newsroom"
)

// UserRepository is the user side of the store. *store.UserStore
// implements it.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	Create(ctx context.Context, username, email, password, role string) (*models.User, error)
	SetTOTPSecret(ctx context.Context, userID int64, secret string) error
	EnableTOTP(ctx context.Context, userID int64) error
	CheckPassword(user *models.User, password string) bool
}

// TokenIssuer issues and revokes bearer tokens. *session.Store
// implements it.
type TokenIssuer interface {
	Issue(userID int64) (string, error)
	Revoke(ctx context.Context, token string) error
}

// Auth groups the account and token handlers.
type Auth struct {
	users  UserRepository
	tokens TokenIssuer
	audit  AuditLogger
}

// NewAuth creates a new Auth handler group.
func NewAuth(users UserRepository, tokens TokenIssuer, auditLog AuditLogger) *Auth {
	return &Auth{users: users, tokens: tokens, audit: auditLog}
}

type authResponse struct {
	JWT  string       `json:"jwt"`
	User *models.User `json:"user"`
}

// Register creates an account with the authenticated role and logs it in.
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		apperror.Write(w, r, err)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var errs []string
	if n := utf8.RuneCountInString(req.Username); n < 3 || n > 50 {
		errs = append(errs, "Username must be between 3 and 50 characters")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil || !strings.Contains(req.Email, "@") {
		errs = append(errs, "Email must be a valid email address")
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		errs = append(errs, fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if len(errs) > 0 {
		apperror.Write(w, r, apperror.NewValidation(errs))
		return
	}

	user, err := a.users.Create(r.Context(), req.Username, req.Email, req.Password, models.RoleAuthenticated)
	if errors.Is(err, store.ErrDuplicate) {
		apperror.Write(w, r, apperror.NewConflict("Email or Username are already taken"))
		return
	}
	if err != nil {
		apperror.Write(w, r, err)
		return
	}

	a.audit.Log(r.Context(), "register", entityUser, user.ID, user, audit.RequestDetails(r))
	a.respondWithToken(w, r, user)
}

// Login exchanges credentials, plus a TOTP code when 2FA is enabled, for
// a bearer token.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
		Code       string `json:"code"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		apperror.Write(w, r, err)
		return
	}
	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" || req.Password == "" {
		apperror.Write(w, r, apperror.NewInvalidInput("Identifier and password are required"))
		return
	}

	user, err := a.users.FindByIdentifier(r.Context(), req.Identifier)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	if user == nil || !a.users.CheckPassword(user, req.Password) {
		apperror.Write(w, r, apperror.NewInvalidInput("Invalid identifier or password"))
		return
	}

	if user.TOTPEnabled && user.TOTPSecret != nil {
		code := strings.TrimSpace(req.Code)
		if code == "" {
			apperror.Write(w, r, &apperror.Error{
				Kind:    apperror.InvalidInput,
				Message: "Two-factor code required",
				Details: map[string]any{"totpRequired": true},
			})
			return
		}
		if !totp.Validate(code, *user.TOTPSecret) {
			apperror.Write(w, r, apperror.NewInvalidInput("Invalid two-factor code"))
			return
		}
	}

	a.audit.Log(r.Context(), "login", entityUser, user.ID, user, audit.RequestDetails(r))
	a.respondWithToken(w, r, user)
}

func (a *Auth) respondWithToken(w http.ResponseWriter, r *http.Request, user *models.User) {
	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{JWT: token, User: user})
}

// Logout revokes the token the request was made with.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.tokens.Revoke(r.Context(), middleware.TokenFromCtx(r.Context())); err != nil {
		apperror.Write(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated user with their role.
func (a *Auth) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.PrincipalFromCtx(r.Context())
	if user == nil {
		apperror.Write(w, r, apperror.NewUnauthenticated("Authentication required"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// TwoFASetup generates a new TOTP secret for the caller and returns it
// with a QR code to scan. 2FA stays off until TwoFAEnable confirms a code.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	user := middleware.PrincipalFromCtx(r.Context())
	if user == nil {
		apperror.Write(w, r, apperror.NewUnauthenticated("Authentication required"))
		return
	}
	if user.TOTPEnabled {
		apperror.Write(w, r, apperror.NewInvalidInput("Two-factor authentication is already enabled"))
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: user.Email,
	})
	if err != nil {
		apperror.Write(w, r, fmt.Errorf("totp generate: %w", err))
		return
	}
	if err := a.users.SetTOTPSecret(r.Context(), user.ID, key.Secret()); err != nil {
		apperror.Write(w, r, err)
		return
	}

	png, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		apperror.Write(w, r, fmt.Errorf("qr code: %w", err))
		return
	}

	writeData(w, http.StatusOK, map[string]string{
		"secret":     key.Secret(),
		"otpauthUrl": key.URL(),
		"qrPng":      base64.StdEncoding.EncodeToString(png),
	})
}

// TwoFAEnable turns 2FA on once the caller proves they can produce codes.
func (a *Auth) TwoFAEnable(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromCtx(r.Context())
	if principal == nil {
		apperror.Write(w, r, apperror.NewUnauthenticated("Authentication required"))
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		apperror.Write(w, r, err)
		return
	}

	// The secret was written after the principal was loaded.
	user, err := a.users.FindByID(r.Context(), principal.ID)
	if err != nil {
		apperror.Write(w, r, err)
		return
	}
	if user == nil || user.TOTPSecret == nil {
		apperror.Write(w, r, apperror.NewInvalidInput("Two-factor setup has not been started"))
		return
	}
	if !totp.Validate(strings.TrimSpace(req.Code), *user.TOTPSecret) {
		apperror.Write(w, r, apperror.NewInvalidInput("Invalid two-factor code"))
		return
	}
	if err := a.users.EnableTOTP(r.Context(), user.ID); err != nil {
		apperror.Write(w, r, err)
		return
	}

	a.audit.Log(r.Context(), "enable_2fa", entityUser, user.ID, user, audit.RequestDetails(r))
	writeData(w, http.StatusOK, map[string]bool{"totpEnabled": true})
}
