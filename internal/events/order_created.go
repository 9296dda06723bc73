package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

const (
	EventTypeOrderCreated   = "OrderCreated"
	EventTypeOrderCancelled = "OrderCancelled"

	orderCreatedSchema   = "ecommerce://schemas/order-created/v1"
	orderCancelledSchema = "ecommerce://schemas/order-cancelled/v1"
)

// OrderItem is one priced line as it appears on the wire.
type OrderItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type OrderCreatedPayload struct {
	OrderID    string          `json:"orderId"`
	UserID     string          `json:"userId"`
	Items      []OrderItem     `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Status     string          `json:"status"`
	Timestamp  time.Time       `json:"timestamp"`
}

type OrderCreatedEvent struct {
	EventEnvelope
	Payload OrderCreatedPayload `json:"payload"`
}

// LegacyOrderCreated is the bare payload published when envelopes are off.
type LegacyOrderCreated struct {
	EventType string `json:"eventType"`
	OrderCreatedPayload
}

type OrderCancelledPayload struct {
	OrderID   string      `json:"orderId"`
	UserID    string      `json:"userId"`
	Items     []OrderItem `json:"items"`
	Timestamp time.Time   `json:"timestamp"`
}

type OrderCancelledEvent struct {
	EventEnvelope
	Payload OrderCancelledPayload `json:"payload"`
}

type LegacyOrderCancelled struct {
	EventType string `json:"eventType"`
	OrderCancelledPayload
}

func orderItems(lines []order.Line) []OrderItem {
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, OrderItem{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Price:       l.Price,
		})
	}
	return items
}

func orderCreatedPayload(o *order.Order, ts time.Time) OrderCreatedPayload {
	return OrderCreatedPayload{
		OrderID:    o.ID,
		UserID:     o.UserID,
		Items:      orderItems(o.Lines),
		TotalPrice: o.TotalPrice,
		Status:     string(o.Status),
		Timestamp:  ts,
	}
}

func orderCancelledPayload(o *order.Order, ts time.Time) OrderCancelledPayload {
	return OrderCancelledPayload{
		OrderID:   o.ID,
		UserID:    o.UserID,
		Items:     orderItems(o.Lines),
		Timestamp: ts,
	}
}
