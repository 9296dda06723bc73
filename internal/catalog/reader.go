package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/logger"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/stock"
)

// Product is the display view of a product. Stock is never cached; availability
// always comes from the ledger.
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// sharedReadTimeout bounds a lookup shared by several callers. It runs
// detached from any one caller's context.
const sharedReadTimeout = 5 * time.Second

type Source interface {
	Available(ctx context.Context, productID string) (stock.Product, error)
}

type Reader struct {
	source Source
	cache  Cache
	log    *logger.Logger
	group  singleflight.Group
}

func NewReader(source Source, cache Cache, log *logger.Logger) *Reader {
	if cache == nil {
		cache = NopCache{}
	}
	return &Reader{source: source, cache: cache, log: log}
}

// Product returns name and price, reading through the cache. Cache failures
// degrade to a direct read.
func (r *Reader) Product(ctx context.Context, productID string) (Product, error) {
	p, err := r.cache.Get(ctx, productID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		r.log.Warn("product cache get failed", "product_id", productID, "error", err)
	}

	ch := r.group.DoChan(productID, func() (interface{}, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()

		sp, err := r.source.Available(readCtx, productID)
		if err != nil {
			return Product{}, err
		}
		p := Product{ID: sp.ID, Name: sp.Name, Price: sp.Price}
		if err := r.cache.Set(readCtx, p); err != nil {
			r.log.Warn("product cache set failed", "product_id", productID, "error", err)
		}
		return p, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Product{}, res.Err
		}
		return res.Val.(Product), nil
	case <-ctx.Done():
		return Product{}, ctx.Err()
	}
}
