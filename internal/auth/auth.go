package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/users"
)

// Claims are the bearer token claims. Subject holds the user's email.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Sign issues an HS256 token for email.
func (v *Verifier) Sign(email, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *Verifier) Parse(token string) (*Claims, error) {
	if token == "" {
		return nil, apperr.Unauthorized("Missing bearer token")
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.KindUnauthorized, "Token expired", err)
		}
		return nil, apperr.Wrap(apperr.KindUnauthorized, "Invalid token", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, apperr.Unauthorized("Invalid token")
	}
	if claims.Subject == "" {
		return nil, apperr.Unauthorized("Token has no subject")
	}
	return claims, nil
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Email  string
	Role   string
}

func (p Principal) IsAdmin() bool { return p.Role == users.RoleAdmin }

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Lookup resolves a token subject to a stored user.
type Lookup interface {
	ByEmail(ctx context.Context, email string) (users.User, error)
}

// Authenticate verifies token and resolves its subject. The stored role wins
// over the role claim.
func (v *Verifier) Authenticate(ctx context.Context, lookup Lookup, token string) (Principal, error) {
	claims, err := v.Parse(token)
	if err != nil {
		return Principal{}, err
	}
	u, err := lookup.ByEmail(ctx, claims.Subject)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return Principal{}, apperr.Unauthorized("Unknown user")
		}
		return Principal{}, fmt.Errorf("resolve principal: %w", err)
	}
	return Principal{UserID: u.ID, Email: u.Email, Role: u.Role}, nil
}
