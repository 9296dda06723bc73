package order

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Line is an immutable snapshot of one purchased product. Price is the unit
// price at the moment the stock was reserved.
type Line struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type Order struct {
	ID         string          `json:"orderId"`
	UserID     string          `json:"userId"`
	Status     Status          `json:"status"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	CreatedAt  time.Time       `json:"orderDate"`
	Lines      []Line          `json:"items"`
}

func (o *Order) sortedLines() []Line {
	out := append([]Line(nil), o.Lines...)
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// Requester is the authenticated caller of an order operation.
type Requester struct {
	UserID string
	Admin  bool
}

func (r Requester) owns(o *Order) bool {
	return r.Admin || o.UserID == r.UserID
}
