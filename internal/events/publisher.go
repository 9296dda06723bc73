package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/stock"
)

const publishTimeout = 3 * time.Second

// Sequencer hands out per-partition sequence numbers for envelopes.
type Sequencer interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

type Publisher struct {
	ch                 Channel
	seq                Sequencer
	publishEnveloped   bool
	producerIdentifier string
	now                func() time.Time
}

type PublisherOptions struct {
	PublishEnveloped bool
	Producer         string
}

func NewPublisher(conn *amqp.Connection, seq Sequencer, opts PublisherOptions) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return newPublisher(ch, seq, opts)
}

func newPublisher(ch Channel, seq Sequencer, opts PublisherOptions) (*Publisher, error) {
	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	producer := opts.Producer
	if producer == "" {
		producer = defaultProducer
	}

	return &Publisher{
		ch:                 ch,
		seq:                seq,
		publishEnveloped:   opts.PublishEnveloped,
		producerIdentifier: producer,
		now:                func() time.Time { return time.Now().UTC() },
	}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

type EventMeta struct {
	CorrelationID string
	CausationID   string
	PartitionKey  string
}

func (p *Publisher) meta(ctx context.Context, orderID string) EventMeta {
	return EventMeta{
		CorrelationID: correlationID(ctx),
		CausationID:   orderID,
		PartitionKey:  orderID,
	}
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, o *order.Order) error {
	ts := p.now()
	payload := orderCreatedPayload(o, ts)

	if !p.publishEnveloped {
		return p.publishValue(ctx, OrderCreatedRoutingKey, EventTypeOrderCreated,
			LegacyOrderCreated{EventType: EventTypeOrderCreated, OrderCreatedPayload: payload})
	}

	meta := p.meta(ctx, o.ID)
	seq, err := p.nextSequence(ctx, meta.PartitionKey)
	if err != nil {
		return err
	}
	return p.publishValue(ctx, OrderCreatedRoutingKey, EventTypeOrderCreated, OrderCreatedEvent{
		EventEnvelope: newEnvelope(EventTypeOrderCreated, orderCreatedSchema, p.producerIdentifier, meta, seq, ts),
		Payload:       payload,
	})
}

func (p *Publisher) PublishOrderCancelled(ctx context.Context, o *order.Order) error {
	ts := p.now()
	payload := orderCancelledPayload(o, ts)

	if !p.publishEnveloped {
		return p.publishValue(ctx, OrderCancelledRoutingKey, EventTypeOrderCancelled,
			LegacyOrderCancelled{EventType: EventTypeOrderCancelled, OrderCancelledPayload: payload})
	}

	meta := p.meta(ctx, o.ID)
	seq, err := p.nextSequence(ctx, meta.PartitionKey)
	if err != nil {
		return err
	}
	return p.publishValue(ctx, OrderCancelledRoutingKey, EventTypeOrderCancelled, OrderCancelledEvent{
		EventEnvelope: newEnvelope(EventTypeOrderCancelled, orderCancelledSchema, p.producerIdentifier, meta, seq, ts),
		Payload:       payload,
	})
}

func (p *Publisher) PublishStockDepleted(ctx context.Context, orderID string, r stock.Reservation) error {
	ts := p.now()
	payload := StockDepletedPayload{
		OrderID:     orderID,
		ProductID:   r.ProductID,
		ProductName: r.Name,
		Timestamp:   ts,
	}

	if !p.publishEnveloped {
		return p.publishValue(ctx, StockDepletedRoutingKey, EventTypeStockDepleted,
			LegacyStockDepleted{EventType: EventTypeStockDepleted, StockDepletedPayload: payload})
	}

	meta := p.meta(ctx, orderID)
	seq, err := p.nextSequence(ctx, meta.PartitionKey)
	if err != nil {
		return err
	}
	return p.publishValue(ctx, StockDepletedRoutingKey, EventTypeStockDepleted, StockDepletedEvent{
		EventEnvelope: newEnvelope(EventTypeStockDepleted, stockDepletedSchema, p.producerIdentifier, meta, seq, ts),
		Payload:       payload,
	})
}

func (p *Publisher) nextSequence(ctx context.Context, partitionKey string) (int64, error) {
	seq, err := p.seq.NextSequence(ctx, partitionKey)
	if err != nil {
		return 0, fmt.Errorf("reserve sequence: %w", err)
	}
	return seq, nil
}

func (p *Publisher) publishValue(ctx context.Context, routingKey, eventType string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}
	return p.publishJSON(ctx, routingKey, eventType, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey, eventType string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         eventType,
			Timestamp:    p.now(),
			Body:         body,
		},
	)
}

// NopPublisher drops every event. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, *order.Order) error   { return nil }
func (NopPublisher) PublishOrderCancelled(context.Context, *order.Order) error { return nil }
func (NopPublisher) PublishStockDepleted(context.Context, string, stock.Reservation) error {
	return nil
}

var (
	_ order.Publisher = (*Publisher)(nil)
	_ order.Publisher = NopPublisher{}
)
