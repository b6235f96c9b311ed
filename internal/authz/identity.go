package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Identity is the verified claim extracted from a signed token, distinct
// from the raw token itself.
type Identity struct {
	UserID int64
	Email  string
}

type identityContextKey struct{}

// ContextWithIdentity attaches the verified identity for downstream
// handlers.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity placed by the middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}

// Claims is the JWT payload carried by both token kinds.
type Claims struct {
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type tokenKind string

const (
	kindAccess  tokenKind = "access"
	kindRefresh tokenKind = "refresh"
)

// TokenVerifier signs and verifies the bearer tokens. Access and refresh
// tokens use distinct secrets and carry a kind claim in the audience, so
// one can never verify as the other.
type TokenVerifier struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenVerifier constructs a TokenVerifier. Missing secrets are a
// configuration error: the process must refuse to serve authenticated
// routes rather than treat every request as unauthenticated.
func NewTokenVerifier(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*TokenVerifier, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, ErrConfiguration(errors.New("token secrets must be provided"))
	}
	if accessSecret == refreshSecret {
		return nil, ErrConfiguration(errors.New("access and refresh secrets must differ"))
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * time.Hour
	}
	return &TokenVerifier{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// SignAccess issues a short-lived access token for the identity.
func (v *TokenVerifier) SignAccess(id Identity) (string, error) {
	return v.sign(id, kindAccess, v.accessSecret, v.accessTTL)
}

// SignRefresh issues a long-lived refresh token for the identity.
func (v *TokenVerifier) SignRefresh(id Identity) (string, error) {
	return v.sign(id, kindRefresh, v.refreshSecret, v.refreshTTL)
}

func (v *TokenVerifier) sign(id Identity, kind tokenKind, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: id.UserID,
		Email:  id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", id.UserID),
			Audience:  jwt.ClaimStrings{string(kind)},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("authz: sign %s token: %w", kind, err)
	}
	return signed, nil
}

// VerifyAccess validates an access token and yields its identity.
func (v *TokenVerifier) VerifyAccess(token string) (Identity, error) {
	return v.verify(token, kindAccess, v.accessSecret)
}

// VerifyRefresh validates a refresh token and yields its identity.
func (v *TokenVerifier) VerifyRefresh(token string) (Identity, error) {
	return v.verify(token, kindRefresh, v.refreshSecret)
}

func (v *TokenVerifier) verify(tokenStr string, kind tokenKind, secret []byte) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithAudience(string(kind)))
	if err != nil {
		return Identity{}, ErrAuthenticationRequired(err)
	}
	if !token.Valid || claims.UserID == 0 {
		return Identity{}, ErrAuthenticationRequired(errors.New("invalid token claims"))
	}
	return Identity{UserID: claims.UserID, Email: claims.Email}, nil
}
