package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("cart not found")

type Executor interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Repository interface {
	// Lock loads the user's cart and holds its row lock until the transaction ends.
	Lock(ctx context.Context, userID string) (*Cart, error)
	GetOrCreate(ctx context.Context, userID string) (*Cart, error)
	UpsertLine(ctx context.Context, cartID, productID string, quantity int) (Line, error)
	DeleteLine(ctx context.Context, cartID, productID string) (bool, error)
	DeleteLineByID(ctx context.Context, cartID, lineID string) (bool, error)
	Clear(ctx context.Context, cartID string) (int64, error)
}

type PostgresRepository struct {
	db Executor
}

func NewPostgresRepository(db Executor) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Lock(ctx context.Context, userID string) (*Cart, error) {
	var c Cart
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, updated_at
		FROM carts
		WHERE user_id = $1
		FOR UPDATE
	`, userID).Scan(&c.ID, &c.UserID, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock cart: %w", err)
	}
	return r.withLines(ctx, newCart(c.ID, c.UserID, c.UpdatedAt))
}

// GetOrCreate lazily creates the user's cart. The upsert also takes the row
// lock, so concurrent mutations of one cart serialize.
func (r *PostgresRepository) GetOrCreate(ctx context.Context, userID string) (*Cart, error) {
	var c Cart
	err := r.db.QueryRow(ctx, `
		INSERT INTO carts (id, user_id, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
		RETURNING id, user_id, updated_at
	`, uuid.NewString(), userID).Scan(&c.ID, &c.UserID, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert cart: %w", err)
	}
	return r.withLines(ctx, newCart(c.ID, c.UserID, c.UpdatedAt))
}

func (r *PostgresRepository) withLines(ctx context.Context, c *Cart) (*Cart, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, quantity
		FROM cart_lines
		WHERE cart_id = $1
		ORDER BY product_id
	`, c.ID)
	if err != nil {
		return nil, fmt.Errorf("select cart lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.ProductID, &l.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		c.Lines[l.ProductID] = l
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return c, nil
}

// UpsertLine sets the absolute quantity of the product's line, creating it if needed.
func (r *PostgresRepository) UpsertLine(ctx context.Context, cartID, productID string, quantity int) (Line, error) {
	l := Line{ProductID: productID, Quantity: quantity}
	err := r.db.QueryRow(ctx, `
		INSERT INTO cart_lines (id, cart_id, product_id, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
		RETURNING id
	`, uuid.NewString(), cartID, productID, quantity).Scan(&l.ID)
	if err != nil {
		return Line{}, fmt.Errorf("upsert cart line: %w", err)
	}
	if _, err := r.db.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID); err != nil {
		return Line{}, fmt.Errorf("touch cart: %w", err)
	}
	return l, nil
}

func (r *PostgresRepository) DeleteLine(ctx context.Context, cartID, productID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return false, fmt.Errorf("delete cart line: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) DeleteLineByID(ctx context.Context, cartID, lineID string) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1 AND id = $2`, cartID, lineID)
	if err != nil {
		return false, fmt.Errorf("delete cart line by id: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresRepository) Clear(ctx context.Context, cartID string) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID)
	if err != nil {
		return 0, fmt.Errorf("clear cart: %w", err)
	}
	return tag.RowsAffected(), nil
}
