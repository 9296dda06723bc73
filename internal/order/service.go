package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/logger"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/stock"
)

type Carts interface {
	Lock(ctx context.Context, userID string) (*cart.Cart, error)
	Clear(ctx context.Context, cartID string) (int64, error)
}

type Ledger interface {
	Available(ctx context.Context, productID string) (stock.Product, error)
	Reserve(ctx context.Context, productID string, qty int) (stock.Reservation, error)
	Release(ctx context.Context, productID string, qty int) error
}

type Orders interface {
	Create(ctx context.Context, o *Order) error
	Lock(ctx context.Context, orderID string) (*Order, error)
	UpdateStatus(ctx context.Context, orderID string, status Status) error
}

// Tx exposes repositories bound to one database transaction.
type Tx interface {
	Carts() Carts
	Ledger() Ledger
	Orders() Orders
}

type Transactor interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

type Reader interface {
	GetByID(ctx context.Context, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
}

// Publisher announces committed state changes. Errors are logged by the
// service and never undo the change.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, o *Order) error
	PublishOrderCancelled(ctx context.Context, o *Order) error
	PublishStockDepleted(ctx context.Context, orderID string, r stock.Reservation) error
}

type Service struct {
	tx     Transactor
	reader Reader
	pub    Publisher
	log    *logger.Logger
	now    func() time.Time
}

func NewService(tx Transactor, reader Reader, pub Publisher, log *logger.Logger) *Service {
	return &Service{
		tx:     tx,
		reader: reader,
		pub:    pub,
		log:    log.With("component", "order"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateFromCart turns the user's cart into a PENDING order. Stock for every
// line is reserved or none is.
func (s *Service) CreateFromCart(ctx context.Context, userID string) (*Order, error) {
	var (
		o        *Order
		depleted []stock.Reservation
	)
	err := s.tx.InTx(ctx, func(tx Tx) error {
		c, err := tx.Carts().Lock(ctx, userID)
		if errors.Is(err, cart.ErrNotFound) {
			return apperr.NotFound("Cart", "userId", userID)
		}
		if err != nil {
			return err
		}
		lines := c.SortedLines()
		if len(lines) == 0 {
			return apperr.CartEmpty()
		}

		if err := validate(ctx, tx.Ledger(), lines); err != nil {
			return err
		}

		held := &reservations{ledger: tx.Ledger()}
		o, err = s.commit(ctx, tx, held, c, lines)
		if err != nil {
			if relErr := held.releaseAll(ctx); relErr != nil {
				// a store failure aborts the tx; rollback restores the stock
				if apperr.KindOf(err) == apperr.KindInternal {
					s.log.Debug("compensating release skipped by aborted tx", "user_id", userID, "error", relErr)
				} else {
					s.log.Error("compensating release failed", "user_id", userID, "error", relErr)
				}
			}
			return err
		}
		depleted = held.depleted()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order created", "order_id", o.ID, "user_id", userID, "lines", len(o.Lines), "total", o.TotalPrice.String())
	s.publish("order.created", o.ID, func() error { return s.pub.PublishOrderCreated(ctx, o) })
	for _, r := range depleted {
		s.publish("stock.depleted", o.ID, func() error { return s.pub.PublishStockDepleted(ctx, o.ID, r) })
	}
	return o, nil
}

// validate checks every line against a fresh read before anything is reserved.
func validate(ctx context.Context, ledger Ledger, lines []cart.Line) error {
	for _, l := range lines {
		p, err := ledger.Available(ctx, l.ProductID)
		if err != nil {
			return err
		}
		if l.Quantity > p.StockQuantity {
			return apperr.InsufficientStock(p.ID, p.Name, l.Quantity, p.StockQuantity)
		}
	}
	return nil
}

func (s *Service) commit(ctx context.Context, tx Tx, held *reservations, c *cart.Cart, lines []cart.Line) (*Order, error) {
	o := &Order{
		ID:         uuid.NewString(),
		UserID:     c.UserID,
		Status:     StatusPending,
		TotalPrice: decimal.Zero,
		CreatedAt:  s.now(),
		Lines:      make([]Line, 0, len(lines)),
	}

	for _, l := range lines {
		r, err := held.reserve(ctx, l.ProductID, l.Quantity)
		if err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, Line{
			ProductID:   r.ProductID,
			ProductName: r.Name,
			Quantity:    r.Quantity,
			Price:       r.Price,
		})
		o.TotalPrice = o.TotalPrice.Add(r.Price.Mul(decimal.NewFromInt(int64(r.Quantity))))
	}

	if err := tx.Orders().Create(ctx, o); err != nil {
		return nil, err
	}
	if _, err := tx.Carts().Clear(ctx, c.ID); err != nil {
		return nil, err
	}
	return o, nil
}

// Cancel moves a PENDING order to CANCELLED and returns its stock. Orders the
// requester may not see are reported as not found.
func (s *Service) Cancel(ctx context.Context, orderID string, who Requester) (*Order, error) {
	var o *Order
	err := s.tx.InTx(ctx, func(tx Tx) error {
		var err error
		o, err = tx.Orders().Lock(ctx, orderID)
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("Order", "id", orderID)
		}
		if err != nil {
			return err
		}
		if !who.owns(o) {
			return apperr.NotFound("Order", "id", orderID)
		}
		if !o.Status.Cancellable() {
			return apperr.Conflict(fmt.Sprintf("Order cannot be cancelled in status %s", o.Status))
		}

		for _, l := range o.sortedLines() {
			if err := tx.Ledger().Release(ctx, l.ProductID, l.Quantity); err != nil {
				return err
			}
		}
		if err := tx.Orders().UpdateStatus(ctx, o.ID, StatusCancelled); err != nil {
			return err
		}
		o.Status = StatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order cancelled", "order_id", o.ID, "user_id", o.UserID, "by_admin", who.Admin && who.UserID != o.UserID)
	s.publish("order.cancelled", o.ID, func() error { return s.pub.PublishOrderCancelled(ctx, o) })
	return o, nil
}

func (s *Service) Get(ctx context.Context, orderID string, who Requester) (*Order, error) {
	o, err := s.reader.GetByID(ctx, orderID)
	if errors.Is(err, ErrNotFound) || (err == nil && !who.owns(o)) {
		return nil, apperr.NotFound("Order", "id", orderID)
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	return s.reader.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]Order, error) {
	return s.reader.ListAll(ctx)
}

func (s *Service) publish(event, orderID string, fn func() error) {
	if s.pub == nil {
		return
	}
	if err := fn(); err != nil {
		s.log.Warn("publish failed", "event", event, "order_id", orderID, "error", err)
	}
}
