package events

import "time"

const (
	EventTypeStockDepleted = "StockDepleted"
	stockDepletedSchema    = "ecommerce://schemas/stock-depleted/v1"
)

// StockDepletedPayload reports a product whose stock reached zero through
// the named order.
type StockDepletedPayload struct {
	OrderID     string    `json:"orderId"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName"`
	Timestamp   time.Time `json:"timestamp"`
}

type StockDepletedEvent struct {
	EventEnvelope
	Payload StockDepletedPayload `json:"payload"`
}

type LegacyStockDepleted struct {
	EventType string `json:"eventType"`
	StockDepletedPayload
}
