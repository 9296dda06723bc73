package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
)

// Executor matches the subset of *pgxpool.Pool and pgx.Tx the ledger needs.
type Executor interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Ledger owns products.stock_quantity. No other code path writes that column.
type Ledger struct {
	db Executor
}

func NewLedger(db Executor) *Ledger {
	return &Ledger{db: db}
}

// WithExecutor returns a ledger bound to db, typically a pgx.Tx.
func (l *Ledger) WithExecutor(db Executor) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) Available(ctx context.Context, productID string) (Product, error) {
	var p Product
	err := l.db.QueryRow(ctx, `
		SELECT id, name, price, stock_quantity
		FROM products
		WHERE id = $1
	`, productID).Scan(&p.ID, &p.Name, &p.Price, &p.StockQuantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, apperr.NotFound("Product", "id", productID)
		}
		return Product{}, fmt.Errorf("select product %s: %w", productID, err)
	}
	return p, nil
}

func (l *Ledger) CheckAvailable(ctx context.Context, productID string, requested int) (bool, error) {
	if requested <= 0 {
		return false, apperr.BadRequest("Quantity must be greater than 0")
	}
	p, err := l.Available(ctx, productID)
	if err != nil {
		return false, err
	}
	return requested <= p.StockQuantity, nil
}

// Reserve decrements the counter by qty in a single conditional statement.
// The row lock taken by the UPDATE makes check and decrement one step.
func (l *Ledger) Reserve(ctx context.Context, productID string, qty int) (Reservation, error) {
	if qty <= 0 {
		return Reservation{}, apperr.BadRequest("Quantity must be greater than 0")
	}

	res := Reservation{ProductID: productID, Quantity: qty}
	err := l.db.QueryRow(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $2, updated_at = now()
		WHERE id = $1 AND stock_quantity >= $2
		RETURNING name, price, stock_quantity
	`, productID, qty).Scan(&res.Name, &res.Price, &res.Remaining)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Reservation{}, fmt.Errorf("reserve %s: %w", productID, err)
	}

	p, err := l.Available(ctx, productID)
	if err != nil {
		return Reservation{}, err
	}
	return Reservation{}, apperr.InsufficientStock(p.ID, p.Name, qty, p.StockQuantity)
}

// Release adds qty back without an upper bound. Callers must only release
// quantities they previously reserved.
func (l *Ledger) Release(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return apperr.BadRequest("Quantity must be greater than 0")
	}

	tag, err := l.db.Exec(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = now()
		WHERE id = $1
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("release %s: %w", productID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Product", "id", productID)
	}
	return nil
}
