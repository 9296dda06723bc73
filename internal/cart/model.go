package cart

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type Line struct {
	ID        string
	ProductID string
	Quantity  int
}

// Cart holds at most one line per product; Lines is keyed by product id.
type Cart struct {
	ID        string
	UserID    string
	Lines     map[string]Line
	UpdatedAt time.Time
}

func newCart(id, userID string, updatedAt time.Time) *Cart {
	return &Cart{ID: id, UserID: userID, Lines: make(map[string]Line), UpdatedAt: updatedAt}
}

// SortedLines returns the lines in ascending product id order.
func (c *Cart) SortedLines() []Line {
	out := make([]Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

func (c *Cart) lineByID(lineID string) (Line, bool) {
	for _, l := range c.Lines {
		if l.ID == lineID {
			return l, true
		}
	}
	return Line{}, false
}

type ItemView struct {
	LineID      string          `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// View is the read model returned to callers. Total is derived from current
// prices every time a view is built and never stored.
type View struct {
	CartID    string          `json:"cartId"`
	UserID    string          `json:"userId"`
	Items     []ItemView      `json:"items"`
	Total     decimal.Decimal `json:"totalPrice"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
