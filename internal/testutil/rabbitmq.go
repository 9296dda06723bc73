package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
)

// StartRabbitMQ launches a RabbitMQ container and returns a ready AMQP
// connection plus the broker URL. Teardown is registered with t.Cleanup.
func StartRabbitMQ(t *testing.T) (*amqp.Connection, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in -short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:3.13-alpine",
		ExposedPorts: []string{"5672/tcp"},
		WaitingFor:   wait.ForListeningPort("5672/tcp").WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { terminate(t, container) })

	host, err := container.Host(ctx)
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "5672")
	require.NoError(t, err)

	url := fmt.Sprintf("amqp://guest:guest@%s:%s/", host, mappedPort.Port())

	conn, err := amqp.DialConfig(url, amqp.Config{
		Dial: amqp.DefaultDial(10 * time.Second),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn, url
}

// BindQueue declares an exclusive queue bound to routingKey on the events
// exchange and returns its deliveries.
func BindQueue(t *testing.T, conn *amqp.Connection, routingKey string) <-chan amqp.Delivery {
	t.Helper()

	ch, err := conn.Channel()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	require.NoError(t, ch.ExchangeDeclare(events.EventsExchange, "topic", true, false, false, false, nil))
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, routingKey, events.EventsExchange, false, nil))

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)
	return deliveries
}

// NextMessage waits for one delivery or fails the test.
func NextMessage(t *testing.T, deliveries <-chan amqp.Delivery, timeout time.Duration) amqp.Delivery {
	t.Helper()
	select {
	case d, ok := <-deliveries:
		require.True(t, ok, "delivery channel closed")
		return d
	case <-time.After(timeout):
		t.Fatalf("timed out after %s waiting for message", timeout)
		return amqp.Delivery{}
	}
}
