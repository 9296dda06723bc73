package stock

import "github.com/shopspring/decimal"

// Product is the stock-relevant view of a catalog row.
type Product struct {
	ID            string          `json:"productId"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
}

// Reservation is the outcome of a successful Reserve. Price is the product
// price read in the same statement that decremented the counter.
type Reservation struct {
	ProductID string
	Name      string
	Price     decimal.Decimal
	Quantity  int
	Remaining int
}
