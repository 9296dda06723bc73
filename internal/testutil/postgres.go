package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/logger"
)

const (
	dbUser     = "storefront"
	dbPassword = "storefront"
	dbName     = "storefront"
)

// StartPostgres launches a PostgreSQL container, applies the migrations and
// returns a pool plus its DSN. Everything is torn down via t.Cleanup.
func StartPostgres(t *testing.T) (*pgxpool.Pool, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in -short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": dbUser, "POSTGRES_PASSWORD": dbPassword, "POSTGRES_DB": dbName},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { terminate(t, container) })

	host, err := container.Host(ctx)
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", dbUser, dbPassword, host, mappedPort.Port(), dbName)
	require.NoError(t, db.RunMigrations(dsn, logger.Nop()))

	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(ctx))

	return pool, dsn
}

func terminate(t *testing.T, c testcontainers.Container) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.Terminate(ctx); err != nil {
		t.Logf("terminate container: %v", err)
	}
}

// SeedUser inserts a user and returns its id.
func SeedUser(t *testing.T, pool *pgxpool.Pool, email, role string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, email, role) VALUES ($1, $2, $3)`, id, email, role)
	require.NoError(t, err)
	return id
}

// SeedProduct inserts a product and returns its id. price is a decimal string.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, name, price string, stockQty int) string {
	t.Helper()
	id := uuid.NewString()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO products (id, name, price, stock_quantity) VALUES ($1, $2, $3, $4)`, id, name, price, stockQty)
	require.NoError(t, err)
	return id
}

func StockOf(t *testing.T, pool *pgxpool.Pool, productID string) int {
	t.Helper()
	var qty int
	err := pool.QueryRow(context.Background(),
		`SELECT stock_quantity FROM products WHERE id = $1`, productID).Scan(&qty)
	require.NoError(t, err)
	return qty
}

func CountRows(t *testing.T, pool *pgxpool.Pool, table string) int {
	t.Helper()
	var n int
	err := pool.QueryRow(context.Background(), `SELECT count(*) FROM `+table).Scan(&n)
	require.NoError(t, err)
	return n
}
