// Package store provides database access methods for all newsroom
// entities. Each store struct wraps a *sql.DB and exposes typed query methods.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"newsroom/internal/models"
)

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userSelect = `
	SELECT u.id, u.username, u.email, u.password_hash, u.totp_secret, u.totp_enabled,
	       u.created_at, u.updated_at,
	       r.id, r.name, r.type, r.description
	FROM users u
	JOIN roles r ON r.id = u.role_id`

// scanUser scans a row produced by userSelect.
func scanUser(scanner interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{Role: &models.Role{}}
	err := scanner.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.TOTPSecret, &u.TOTPEnabled,
		&u.CreatedAt, &u.UpdatedAt,
		&u.Role.ID, &u.Role.Name, &u.Role.Type, &u.Role.Description,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserStore) findOne(ctx context.Context, what, where string, arg any) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, userSelect+" WHERE "+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by %s: %w", what, err)
	}
	return u, nil
}

// FindByID retrieves a user with their role. Returns nil if not found.
func (s *UserStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return s.findOne(ctx, "id", "u.id = $1", id)
}

// FindByEmail retrieves a user by their email address. Returns nil if not found.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "email", "LOWER(u.email) = LOWER($1)", email)
}

// FindByIdentifier retrieves a user by email or username. Returns nil if
// neither matches.
func (s *UserStore) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	return s.findOne(ctx, "identifier", "LOWER(u.email) = LOWER($1) OR u.username = $1", identifier)
}

// Create inserts a new user with a bcrypt-hashed password and the named role.
func (s *UserStore) Create(ctx context.Context, username, email, password, role string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, role_id)
		VALUES ($1, $2, $3, (SELECT id FROM roles WHERE name = $4))
		RETURNING id
	`, username, email, string(hash), role).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", translate(err))
	}
	return s.FindByID(ctx, id)
}

// SetTOTPSecret saves the TOTP secret for a user (during 2FA setup).
func (s *UserStore) SetTOTPSecret(ctx context.Context, userID int64, secret string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET totp_secret = $1, totp_enabled = FALSE, updated_at = NOW() WHERE id = $2
	`, secret, userID)
	if err != nil {
		return fmt.Errorf("set totp secret: %w", err)
	}
	return nil
}

// EnableTOTP marks 2FA as active for a user (after successful code verification).
func (s *UserStore) EnableTOTP(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET totp_enabled = TRUE, updated_at = NOW() WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("enable totp: %w", err)
	}
	return nil
}

// Delete removes a user by ID. Their articles keep existing without an author.
func (s *UserStore) Delete(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}
