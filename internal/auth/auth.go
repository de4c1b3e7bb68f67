// Package auth turns bearer tokens into session identities.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"floria-quiz-service/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier resolves a token into an identity. An empty token yields the absent identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}

// Claims are the JWT claims accepted by JWTVerifier.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier validates HS256 tokens signed with a shared secret.
type JWTVerifier struct {
	secret   []byte
	audience string
	now      func() time.Time
}

func NewJWTVerifier(secret, audience string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), audience: audience, now: time.Now}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (domain.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Identity{}, nil
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return domain.Identity{}, mapJWTError(err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing subject", domain.ErrUnauthenticated)
	}
	return domain.Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

// Sign issues a token for identity valid for ttl. Used by tests and local tooling.
func (v *JWTVerifier) Sign(identity domain.Identity, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// mapJWTError translates jwt library errors to domain errors.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: token expired", domain.ErrUnauthenticated)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: invalid signature", domain.ErrUnauthenticated)
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return fmt.Errorf("%w: invalid audience", domain.ErrUnauthenticated)
	default:
		return fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
}

// PlainVerifier accepts the token itself as user ID. Development only.
type PlainVerifier struct{}

func (PlainVerifier) Verify(_ context.Context, token string) (domain.Identity, error) {
	return domain.Identity{UserID: strings.TrimSpace(token)}, nil
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
