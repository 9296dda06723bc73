package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("order not found")

type Executor interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type PostgresRepository struct {
	db Executor
}

func NewPostgresRepository(db Executor) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the order and its lines. It must run inside the caller's
// transaction; it does not open one itself.
func (r *PostgresRepository) Create(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO orders (id, user_id, status, total_price, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, $5)`,
		o.ID, o.UserID, string(o.Status), o.TotalPrice.StringFixed(2), o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Lines {
		l := &o.Lines[i]
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		_, err = r.db.Exec(ctx,
			`INSERT INTO order_lines (id, order_id, product_id, product_name, quantity, price)
             VALUES ($1, $2, $3, $4, $5, $6)`,
			l.ID, o.ID, l.ProductID, l.ProductName, l.Quantity, l.Price.StringFixed(2),
		)
		if err != nil {
			return fmt.Errorf("insert order_line: %w", err)
		}
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	return r.getOne(ctx, `
		SELECT id, user_id, status, total_price, created_at
		FROM orders WHERE id = $1`, orderID)
}

// Lock loads the order and holds its row lock until the transaction ends.
func (r *PostgresRepository) Lock(ctx context.Context, orderID string) (*Order, error) {
	return r.getOne(ctx, `
		SELECT id, user_id, status, total_price, created_at
		FROM orders WHERE id = $1
		FOR UPDATE`, orderID)
}

func (r *PostgresRepository) getOne(ctx context.Context, query, orderID string) (*Order, error) {
	var (
		o      Order
		status string
	)
	err := r.db.QueryRow(ctx, query, orderID).Scan(&o.ID, &o.UserID, &status, &o.TotalPrice, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}
	o.Status = Status(status)

	orders := []Order{o}
	if err := r.loadLines(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return r.list(ctx, `
		SELECT id, user_id, status, total_price, created_at
		FROM orders WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]Order, error) {
	return r.list(ctx, `
		SELECT id, user_id, status, total_price, created_at
		FROM orders
		ORDER BY created_at DESC`)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		var (
			o      Order
			status string
		)
		if err := rows.Scan(&o.ID, &o.UserID, &status, &o.TotalPrice, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = Status(status)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	rows.Close()

	if err := r.loadLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadLines fills Lines for all given orders with one query.
func (r *PostgresRepository) loadLines(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	byID := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = i
		orders[i].Lines = []Line{}
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, product_name, quantity, price
		FROM order_lines
		WHERE order_id = ANY($1)
		ORDER BY order_id, product_id`, ids)
	if err != nil {
		return fmt.Errorf("select order_lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l       Line
			orderID string
		)
		if err := rows.Scan(&l.ID, &orderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.Price); err != nil {
			return fmt.Errorf("scan order_line: %w", err)
		}
		if i, ok := byID[orderID]; ok {
			orders[i].Lines = append(orders[i].Lines, l)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows: %w", err)
	}
	return nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, orderID string, status Status) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`,
		orderID, string(status),
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
