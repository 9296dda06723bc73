package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/users"
)

type fakeLookup map[string]users.User

func (f fakeLookup) ByEmail(_ context.Context, email string) (users.User, error) {
	if email == "broken@example.com" {
		return users.User{}, errors.New("connection reset")
	}
	u, ok := f[email]
	if !ok {
		return users.User{}, apperr.NotFound("User", "email", email)
	}
	return u, nil
}

func TestSignAndParse(t *testing.T) {
	v := NewVerifier("s3cret")
	tok, err := v.Sign("ann@example.com", users.RoleUser, time.Minute)
	require.NoError(t, err)

	claims, err := v.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", claims.Subject)
	assert.Equal(t, users.RoleUser, claims.Role)
}

func TestParse_Rejects(t *testing.T) {
	v := NewVerifier("s3cret")

	expired, err := v.Sign("ann@example.com", users.RoleUser, -time.Minute)
	require.NoError(t, err)
	foreign, err := NewVerifier("other").Sign("ann@example.com", users.RoleUser, time.Minute)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "ann@example.com"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":      "",
		"garbage":    "not.a.jwt",
		"expired":    expired,
		"bad secret": foreign,
		"alg none":   none,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Parse(tok)
			require.Error(t, err)
			assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
		})
	}
}

func TestAuthenticate(t *testing.T) {
	v := NewVerifier("s3cret")
	lookup := fakeLookup{
		"admin@example.com": {ID: "u-admin", Email: "admin@example.com", Role: users.RoleAdmin},
	}

	// The role claim says USER; the directory says ADMIN.
	tok, err := v.Sign("admin@example.com", users.RoleUser, time.Minute)
	require.NoError(t, err)
	p, err := v.Authenticate(context.Background(), lookup, tok)
	require.NoError(t, err)
	assert.Equal(t, "u-admin", p.UserID)
	assert.True(t, p.IsAdmin())

	ghost, err := v.Sign("ghost@example.com", users.RoleUser, time.Minute)
	require.NoError(t, err)
	_, err = v.Authenticate(context.Background(), lookup, ghost)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	broken, err := v.Sign("broken@example.com", users.RoleUser, time.Minute)
	require.NoError(t, err)
	_, err = v.Authenticate(context.Background(), lookup, broken)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestPrincipalContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{UserID: "u1", Email: "a@b.c", Role: users.RoleUser})
	p, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", p.UserID)
	assert.False(t, p.IsAdmin())
}
