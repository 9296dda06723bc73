package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/stock"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/users"
)

// scope binds every repository to one pgx.Tx.
type scope struct {
	tx pgx.Tx
}

func (s scope) ledger() *stock.Ledger             { return stock.NewLedger(s.tx) }
func (s scope) carts() *cart.PostgresRepository   { return cart.NewPostgresRepository(s.tx) }
func (s scope) orders() *order.PostgresRepository { return order.NewPostgresRepository(s.tx) }
func (s scope) directory() *users.Directory       { return users.NewDirectory(s.tx) }

type cartScope struct{ scope }

func (s cartScope) Carts() cart.Repository { return s.carts() }
func (s cartScope) Stock() cart.Stock      { return s.ledger() }
func (s cartScope) Users() cart.Users      { return s.directory() }

type orderScope struct{ scope }

func (s orderScope) Carts() order.Carts   { return s.carts() }
func (s orderScope) Ledger() order.Ledger { return s.ledger() }
func (s orderScope) Orders() order.Orders { return s.orders() }

// CartTransactor runs cart mutations in one PostgreSQL transaction.
type CartTransactor struct {
	pool db.TxBeginner
}

func NewCartTransactor(pool db.TxBeginner) *CartTransactor {
	return &CartTransactor{pool: pool}
}

func (t *CartTransactor) InTx(ctx context.Context, fn func(tx cart.Tx) error) error {
	return db.WithTx(ctx, t.pool, func(tx pgx.Tx) error {
		return fn(cartScope{scope{tx: tx}})
	})
}

// OrderTransactor runs order assembly and cancellation in one PostgreSQL
// transaction. Reservations made through it are rolled back with it.
type OrderTransactor struct {
	pool db.TxBeginner
}

func NewOrderTransactor(pool db.TxBeginner) *OrderTransactor {
	return &OrderTransactor{pool: pool}
}

func (t *OrderTransactor) InTx(ctx context.Context, fn func(tx order.Tx) error) error {
	return db.WithTx(ctx, t.pool, func(tx pgx.Tx) error {
		return fn(orderScope{scope{tx: tx}})
	})
}
