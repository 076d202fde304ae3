// Package session issues and verifies bearer tokens. Tokens are HS256
// JWTs; logging out records the token id in Valkey until the token would
// have expired anyway.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL is how long an issued token stays valid.
	DefaultTTL = 7 * 24 * time.Hour

	// keyPrefix namespaces revocation keys in Valkey to avoid collisions.
	keyPrefix = "revoked:"

	defaultIssuer   = "newsroom"
	defaultAudience = "newsroom-api"
	defaultLeeway   = 30 * time.Second
)

var (
	// ErrInvalidToken is returned for malformed, expired or foreign tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrRevoked is returned for tokens that were logged out.
	ErrRevoked = errors.New("token revoked")
)

// Options configures token issuing and validation.
type Options struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
	Leeway   time.Duration
}

// Claims is what a verified token tells us about its bearer.
type Claims struct {
	UserID    int64
	TokenID   string
	ExpiresAt time.Time
}

// Store issues tokens and tracks revocations in Valkey.
type Store struct {
	client   *redis.Client
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	leeway   time.Duration
}

// NewStore creates a token store backed by the given Valkey client.
func NewStore(client *redis.Client, opts Options) (*Store, error) {
	if strings.TrimSpace(opts.Secret) == "" {
		return nil, errors.New("session: jwt secret is required")
	}
	s := &Store{
		client:   client,
		secret:   []byte(opts.Secret),
		issuer:   strings.TrimSpace(opts.Issuer),
		audience: strings.TrimSpace(opts.Audience),
		ttl:      opts.TTL,
		leeway:   opts.Leeway,
	}
	if s.issuer == "" {
		s.issuer = defaultIssuer
	}
	if s.audience == "" {
		s.audience = defaultAudience
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.leeway <= 0 {
		s.leeway = defaultLeeway
	}
	return s, nil
}

// Issue creates a signed token for the user.
func (s *Store) Issue(userID int64) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    s.issuer,
		Audience:  jwt.ClaimStrings{s.audience},
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("session sign: %w", err)
	}
	return token, nil
}

// Verify checks a token's signature, claims and revocation state.
func (s *Store) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	n, err := s.client.Exists(ctx, keyPrefix+claims.TokenID).Result()
	if err != nil {
		return nil, fmt.Errorf("session revocation check: %w", err)
	}
	if n > 0 {
		return nil, ErrRevoked
	}
	return claims, nil
}

// Revoke marks a token as logged out until it expires. Tokens that no
// longer verify are ignored.
func (s *Store) Revoke(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, keyPrefix+claims.TokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("session revoke: %w", err)
	}
	return nil
}

func (s *Store) parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	var rc jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &rc, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if rc.ID == "" {
		return nil, fmt.Errorf("%w: jti missing", ErrInvalidToken)
	}
	userID, err := strconv.ParseInt(rc.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return &Claims{UserID: userID, TokenID: rc.ID, ExpiresAt: rc.ExpiresAt.Time}, nil
}

// TokenFromRequest returns the bearer token from the Authorization header,
// or an empty string when there is none.
func TokenFromRequest(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
