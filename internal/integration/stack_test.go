package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	httpapi "github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/logger"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/stock"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/store"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/users"
)

const jwtSecret = "integration-secret"

type stack struct {
	carts  *cart.Service
	orders *order.Service
	server *httptest.Server
	signer *auth.Verifier
}

func newStack(t *testing.T, pool *pgxpool.Pool, pub order.Publisher) *stack {
	t.Helper()
	log := logger.Nop()

	ledger := stock.NewLedger(pool)
	products := catalog.NewReader(ledger, catalog.NopCache{}, log)
	s := &stack{
		carts:  cart.NewService(store.NewCartTransactor(pool), products, log),
		orders: order.NewService(store.NewOrderTransactor(pool), order.NewPostgresRepository(pool), pub, log),
		signer: auth.NewVerifier(jwtSecret),
	}

	h := httpapi.NewHandler(s.carts, s.orders, ledger, users.NewDirectory(pool), s.signer, log)
	s.server = httptest.NewServer(httpapi.NewRouter(h, log, httpapi.RouterOptions{RequestTimeout: 10 * time.Second}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *stack) token(t *testing.T, email string) string {
	t.Helper()
	tok, err := s.signer.Sign(email, users.RoleUser, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *stack) call(t *testing.T, token, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}
