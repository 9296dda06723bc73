package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/logger"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/stock"
)

// Stock is the read side of the stock ledger. Carts observe availability but
// never reserve.
type Stock interface {
	Available(ctx context.Context, productID string) (stock.Product, error)
}

type Users interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// Tx exposes repositories bound to one database transaction.
type Tx interface {
	Carts() Repository
	Stock() Stock
	Users() Users
}

type Transactor interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

type Products interface {
	Product(ctx context.Context, productID string) (catalog.Product, error)
}

type Service struct {
	tx       Transactor
	products Products
	log      *logger.Logger
}

func NewService(tx Transactor, products Products, log *logger.Logger) *Service {
	return &Service{tx: tx, products: products, log: log.With("component", "cart")}
}

// Get returns the user's cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, userID string) (View, error) {
	var c *Cart
	err := s.tx.InTx(ctx, func(tx Tx) error {
		if err := ensureUser(ctx, tx, userID); err != nil {
			return err
		}
		var err error
		c, err = tx.Carts().GetOrCreate(ctx, userID)
		return err
	})
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, c)
}

func (s *Service) AddItem(ctx context.Context, userID, productID string, qty int) (View, error) {
	if qty <= 0 {
		return View{}, apperr.BadRequest("Quantity must be greater than 0")
	}

	var c *Cart
	err := s.tx.InTx(ctx, func(tx Tx) error {
		if err := ensureUser(ctx, tx, userID); err != nil {
			return err
		}
		var err error
		c, err = tx.Carts().GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}

		candidate := qty
		if existing, ok := c.Lines[productID]; ok {
			candidate += existing.Quantity
		}
		if err := ensureAvailable(ctx, tx.Stock(), productID, candidate); err != nil {
			return err
		}

		line, err := tx.Carts().UpsertLine(ctx, c.ID, productID, candidate)
		if err != nil {
			return err
		}
		c.Lines[productID] = line
		return nil
	})
	if err != nil {
		return View{}, err
	}

	s.log.Debug("cart item added", "user_id", userID, "product_id", productID, "quantity", qty)
	return s.view(ctx, c)
}

// UpdateItem replaces the line's quantity. Zero removes the line.
func (s *Service) UpdateItem(ctx context.Context, userID, productID string, qty int) (View, error) {
	if qty < 0 {
		return View{}, apperr.BadRequest("Quantity must not be negative")
	}

	var c *Cart
	err := s.tx.InTx(ctx, func(tx Tx) error {
		var err error
		c, err = lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		if _, ok := c.Lines[productID]; !ok {
			return apperr.NotFound("Cart item", "productId", productID)
		}

		if qty == 0 {
			if _, err := tx.Carts().DeleteLine(ctx, c.ID, productID); err != nil {
				return err
			}
			delete(c.Lines, productID)
			return nil
		}

		if err := ensureAvailable(ctx, tx.Stock(), productID, qty); err != nil {
			return err
		}
		line, err := tx.Carts().UpsertLine(ctx, c.ID, productID, qty)
		if err != nil {
			return err
		}
		c.Lines[productID] = line
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, c)
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (View, error) {
	var c *Cart
	err := s.tx.InTx(ctx, func(tx Tx) error {
		var err error
		c, err = lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		deleted, err := tx.Carts().DeleteLine(ctx, c.ID, productID)
		if err != nil {
			return err
		}
		if !deleted {
			return apperr.NotFound("Cart item", "productId", productID)
		}
		delete(c.Lines, productID)
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, c)
}

// RemoveLine deletes a line by its own id. Lines of other users' carts are
// reported as not found.
func (s *Service) RemoveLine(ctx context.Context, userID, lineID string) (View, error) {
	var c *Cart
	err := s.tx.InTx(ctx, func(tx Tx) error {
		var err error
		c, err = lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		line, ok := c.lineByID(lineID)
		if !ok {
			return apperr.NotFound("Cart item", "id", lineID)
		}
		if _, err := tx.Carts().DeleteLineByID(ctx, c.ID, lineID); err != nil {
			return err
		}
		delete(c.Lines, line.ProductID)
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return s.view(ctx, c)
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.tx.InTx(ctx, func(tx Tx) error {
		c, err := lockCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		if len(c.Lines) == 0 {
			return apperr.CartEmpty()
		}
		_, err = tx.Carts().Clear(ctx, c.ID)
		return err
	})
}

func (s *Service) view(ctx context.Context, c *Cart) (View, error) {
	v := View{CartID: c.ID, UserID: c.UserID, Items: []ItemView{}, Total: decimal.Zero, UpdatedAt: c.UpdatedAt}
	for _, l := range c.SortedLines() {
		p, err := s.products.Product(ctx, l.ProductID)
		if err != nil {
			return View{}, err
		}
		subtotal := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		v.Items = append(v.Items, ItemView{
			LineID:      l.ID,
			ProductID:   l.ProductID,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Quantity:    l.Quantity,
			Subtotal:    subtotal,
		})
		v.Total = v.Total.Add(subtotal)
	}
	return v, nil
}

func ensureUser(ctx context.Context, tx Tx, userID string) error {
	ok, err := tx.Users().Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("User", "id", userID)
	}
	return nil
}

func lockCart(ctx context.Context, tx Tx, userID string) (*Cart, error) {
	c, err := tx.Carts().Lock(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("Cart", "userId", userID)
	}
	return c, err
}

func ensureAvailable(ctx context.Context, st Stock, productID string, requested int) error {
	p, err := st.Available(ctx, productID)
	if err != nil {
		return err
	}
	if requested > p.StockQuantity {
		return apperr.InsufficientStock(p.ID, p.Name, requested, p.StockQuantity)
	}
	return nil
}
