package cart

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/logger"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/stock"
)

type fakeWorld struct {
	users    map[string]bool
	products map[string]stock.Product
	carts    map[string]*Cart
	nextID   int
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		users: map[string]bool{"u1": true, "u2": true},
		products: map[string]stock.Product{
			"p1": {ID: "p1", Name: "Widget", Price: decimal.RequireFromString("10.00"), StockQuantity: 5},
			"p2": {ID: "p2", Name: "Gadget", Price: decimal.RequireFromString("2.50"), StockQuantity: 1},
		},
		carts: map[string]*Cart{},
	}
}

func (w *fakeWorld) id(prefix string) string {
	w.nextID++
	return fmt.Sprintf("%s-%d", prefix, w.nextID)
}

func (w *fakeWorld) InTx(_ context.Context, fn func(tx Tx) error) error { return fn(w) }
func (w *fakeWorld) Carts() Repository                                  { return w }
func (w *fakeWorld) Stock() Stock                                       { return w }
func (w *fakeWorld) Users() Users                                       { return w }

func (w *fakeWorld) Exists(_ context.Context, userID string) (bool, error) {
	return w.users[userID], nil
}

func (w *fakeWorld) Available(_ context.Context, productID string) (stock.Product, error) {
	p, ok := w.products[productID]
	if !ok {
		return stock.Product{}, apperr.NotFound("Product", "id", productID)
	}
	return p, nil
}

func (w *fakeWorld) Product(ctx context.Context, productID string) (catalog.Product, error) {
	p, err := w.Available(ctx, productID)
	if err != nil {
		return catalog.Product{}, err
	}
	return catalog.Product{ID: p.ID, Name: p.Name, Price: p.Price}, nil
}

func (w *fakeWorld) copyCart(c *Cart) *Cart {
	out := newCart(c.ID, c.UserID, c.UpdatedAt)
	for k, v := range c.Lines {
		out.Lines[k] = v
	}
	return out
}

func (w *fakeWorld) Lock(_ context.Context, userID string) (*Cart, error) {
	c, ok := w.carts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return w.copyCart(c), nil
}

func (w *fakeWorld) GetOrCreate(_ context.Context, userID string) (*Cart, error) {
	c, ok := w.carts[userID]
	if !ok {
		c = newCart(w.id("cart"), userID, time.Now())
		w.carts[userID] = c
	}
	return w.copyCart(c), nil
}

func (w *fakeWorld) cartByID(cartID string) *Cart {
	for _, c := range w.carts {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func (w *fakeWorld) UpsertLine(_ context.Context, cartID, productID string, quantity int) (Line, error) {
	c := w.cartByID(cartID)
	l, ok := c.Lines[productID]
	if !ok {
		l = Line{ID: w.id("line"), ProductID: productID}
	}
	l.Quantity = quantity
	c.Lines[productID] = l
	return l, nil
}

func (w *fakeWorld) DeleteLine(_ context.Context, cartID, productID string) (bool, error) {
	c := w.cartByID(cartID)
	_, ok := c.Lines[productID]
	delete(c.Lines, productID)
	return ok, nil
}

func (w *fakeWorld) DeleteLineByID(_ context.Context, cartID, lineID string) (bool, error) {
	c := w.cartByID(cartID)
	for pid, l := range c.Lines {
		if l.ID == lineID {
			delete(c.Lines, pid)
			return true, nil
		}
	}
	return false, nil
}

func (w *fakeWorld) Clear(_ context.Context, cartID string) (int64, error) {
	c := w.cartByID(cartID)
	n := int64(len(c.Lines))
	c.Lines = map[string]Line{}
	return n, nil
}

func newTestService(w *fakeWorld) *Service {
	return NewService(w, w, logger.Nop())
}

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperr.KindOf(err), "error: %v", err)
}

func TestService_GetCreatesEmptyCart(t *testing.T) {
	w := newFakeWorld()

	v, err := newTestService(w).Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, v.CartID)
	assert.Empty(t, v.Items)
	assert.True(t, v.Total.IsZero())
	assert.Contains(t, w.carts, "u1")
}

func TestService_AddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("adds and merges lines", func(t *testing.T) {
		w := newFakeWorld()
		svc := newTestService(w)

		_, err := svc.AddItem(ctx, "u1", "p1", 2)
		require.NoError(t, err)
		v, err := svc.AddItem(ctx, "u1", "p1", 1)
		require.NoError(t, err)

		require.Len(t, v.Items, 1)
		assert.Equal(t, 3, v.Items[0].Quantity)
		assert.Equal(t, "Widget", v.Items[0].ProductName)
		assert.True(t, decimal.RequireFromString("30").Equal(v.Total))
		assert.Equal(t, 5, w.products["p1"].StockQuantity, "cart must not touch stock")
	})

	t.Run("merged quantity is checked against stock", func(t *testing.T) {
		w := newFakeWorld()
		svc := newTestService(w)

		_, err := svc.AddItem(ctx, "u1", "p1", 4)
		require.NoError(t, err)
		_, err = svc.AddItem(ctx, "u1", "p1", 2)
		requireKind(t, err, apperr.KindInsufficientStock)

		var appErr *apperr.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, 6, appErr.Details["requested"])
		assert.Equal(t, 5, appErr.Details["available"])
		assert.Equal(t, 4, w.carts["u1"].Lines["p1"].Quantity)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := newTestService(newFakeWorld()).AddItem(ctx, "u1", "p1", 0)
		requireKind(t, err, apperr.KindBadRequest)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := newTestService(newFakeWorld()).AddItem(ctx, "ghost", "p1", 1)
		requireKind(t, err, apperr.KindNotFound)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := newTestService(newFakeWorld()).AddItem(ctx, "u1", "nope", 1)
		requireKind(t, err, apperr.KindNotFound)
	})
}

func TestService_ViewIsSortedByProduct(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeWorld())

	_, err := svc.AddItem(ctx, "u1", "p2", 1)
	require.NoError(t, err)
	v, err := svc.AddItem(ctx, "u1", "p1", 1)
	require.NoError(t, err)

	require.Len(t, v.Items, 2)
	assert.Equal(t, "p1", v.Items[0].ProductID)
	assert.Equal(t, "p2", v.Items[1].ProductID)
	assert.True(t, decimal.RequireFromString("12.50").Equal(v.Total))
}

func TestService_UpdateItem(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces quantity", func(t *testing.T) {
		w := newFakeWorld()
		svc := newTestService(w)
		_, err := svc.AddItem(ctx, "u1", "p1", 1)
		require.NoError(t, err)

		v, err := svc.UpdateItem(ctx, "u1", "p1", 4)
		require.NoError(t, err)
		assert.Equal(t, 4, v.Items[0].Quantity)
	})

	t.Run("zero removes the line", func(t *testing.T) {
		w := newFakeWorld()
		svc := newTestService(w)
		_, err := svc.AddItem(ctx, "u1", "p1", 1)
		require.NoError(t, err)

		v, err := svc.UpdateItem(ctx, "u1", "p1", 0)
		require.NoError(t, err)
		assert.Empty(t, v.Items)
		assert.Empty(t, w.carts["u1"].Lines)
	})

	t.Run("re-checks stock", func(t *testing.T) {
		svc := newTestService(newFakeWorld())
		_, err := svc.AddItem(ctx, "u1", "p2", 1)
		require.NoError(t, err)

		_, err = svc.UpdateItem(ctx, "u1", "p2", 2)
		requireKind(t, err, apperr.KindInsufficientStock)
	})

	t.Run("missing line", func(t *testing.T) {
		svc := newTestService(newFakeWorld())
		_, err := svc.AddItem(ctx, "u1", "p1", 1)
		require.NoError(t, err)

		_, err = svc.UpdateItem(ctx, "u1", "p2", 0)
		requireKind(t, err, apperr.KindNotFound)
	})

	t.Run("missing cart", func(t *testing.T) {
		_, err := newTestService(newFakeWorld()).UpdateItem(ctx, "u1", "p1", 1)
		requireKind(t, err, apperr.KindNotFound)
	})

	t.Run("negative quantity", func(t *testing.T) {
		_, err := newTestService(newFakeWorld()).UpdateItem(ctx, "u1", "p1", -1)
		requireKind(t, err, apperr.KindBadRequest)
	})
}

func TestService_RemoveItem(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newFakeWorld())

	_, err := svc.AddItem(ctx, "u1", "p1", 1)
	require.NoError(t, err)

	v, err := svc.RemoveItem(ctx, "u1", "p1")
	require.NoError(t, err)
	assert.Empty(t, v.Items)

	_, err = svc.RemoveItem(ctx, "u1", "p1")
	requireKind(t, err, apperr.KindNotFound)
}

func TestService_RemoveLine(t *testing.T) {
	ctx := context.Background()
	w := newFakeWorld()
	svc := newTestService(w)

	v1, err := svc.AddItem(ctx, "u1", "p1", 1)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "u2", "p1", 1)
	require.NoError(t, err)
	lineID := v1.Items[0].LineID

	_, err = svc.RemoveLine(ctx, "u2", lineID)
	requireKind(t, err, apperr.KindNotFound)

	v, err := svc.RemoveLine(ctx, "u1", lineID)
	require.NoError(t, err)
	assert.Empty(t, v.Items)
}

func TestService_Clear(t *testing.T) {
	ctx := context.Background()

	t.Run("clears lines", func(t *testing.T) {
		w := newFakeWorld()
		svc := newTestService(w)
		_, err := svc.AddItem(ctx, "u1", "p1", 2)
		require.NoError(t, err)

		require.NoError(t, svc.Clear(ctx, "u1"))
		assert.Empty(t, w.carts["u1"].Lines)
	})

	t.Run("empty cart", func(t *testing.T) {
		svc := newTestService(newFakeWorld())
		_, err := svc.Get(ctx, "u1")
		require.NoError(t, err)

		requireKind(t, svc.Clear(ctx, "u1"), apperr.KindCartEmpty)
	})

	t.Run("no cart", func(t *testing.T) {
		requireKind(t, newTestService(newFakeWorld()).Clear(ctx, "u1"), apperr.KindNotFound)
	})
}
