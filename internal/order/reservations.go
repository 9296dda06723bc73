package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/stock"
)

// reservations tracks what one commit pass has taken from the ledger so the
// pass can give it back if it fails part way.
type reservations struct {
	ledger Ledger
	held   []stock.Reservation
}

func (r *reservations) reserve(ctx context.Context, productID string, qty int) (stock.Reservation, error) {
	res, err := r.ledger.Reserve(ctx, productID, qty)
	if err != nil {
		return stock.Reservation{}, err
	}
	r.held = append(r.held, res)
	return res, nil
}

// releaseAll returns every held reservation, newest first. It keeps going
// past individual failures and reports them joined.
func (r *reservations) releaseAll(ctx context.Context) error {
	var errs []error
	for i := len(r.held) - 1; i >= 0; i-- {
		h := r.held[i]
		if err := r.ledger.Release(ctx, h.ProductID, h.Quantity); err != nil {
			errs = append(errs, fmt.Errorf("release %s x%d: %w", h.ProductID, h.Quantity, err))
		}
	}
	r.held = nil
	return errors.Join(errs...)
}

func (r *reservations) depleted() []stock.Reservation {
	var out []stock.Reservation
	for _, h := range r.held {
		if h.Remaining == 0 {
			out = append(out, h)
		}
	}
	return out
}
