package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

type Store interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Directory resolves identities. Users are managed elsewhere; this is read-only.
type Directory struct {
	store Store
}

func NewDirectory(store Store) *Directory {
	return &Directory{store: store}
}

func (d *Directory) ByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := d.store.QueryRow(ctx, `SELECT id, email, role FROM users WHERE email = $1`, email).
		Scan(&u.ID, &u.Email, &u.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound("User", "email", email)
		}
		return User{}, fmt.Errorf("select user by email: %w", err)
	}
	return u, nil
}

func (d *Directory) Exists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := d.store.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return exists, nil
}
