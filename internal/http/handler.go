package httpapi

import (
	"context"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/logger"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

type CartService interface {
	Get(ctx context.Context, userID string) (cart.View, error)
	AddItem(ctx context.Context, userID, productID string, qty int) (cart.View, error)
	UpdateItem(ctx context.Context, userID, productID string, qty int) (cart.View, error)
	RemoveItem(ctx context.Context, userID, productID string) (cart.View, error)
	RemoveLine(ctx context.Context, userID, lineID string) (cart.View, error)
	Clear(ctx context.Context, userID string) error
}

type OrderService interface {
	CreateFromCart(ctx context.Context, userID string) (*order.Order, error)
	Cancel(ctx context.Context, orderID string, who order.Requester) (*order.Order, error)
	Get(ctx context.Context, orderID string, who order.Requester) (*order.Order, error)
	ListForUser(ctx context.Context, userID string) ([]order.Order, error)
	ListAll(ctx context.Context) ([]order.Order, error)
}

type Availability interface {
	CheckAvailable(ctx context.Context, productID string, requested int) (bool, error)
}

type Handler struct {
	carts    CartService
	orders   OrderService
	stock    Availability
	users    auth.Lookup
	verifier *auth.Verifier
	log      *logger.Logger
}

func NewHandler(carts CartService, orders OrderService, stock Availability, users auth.Lookup, verifier *auth.Verifier, log *logger.Logger) *Handler {
	return &Handler{
		carts:    carts,
		orders:   orders,
		stock:    stock,
		users:    users,
		verifier: verifier,
		log:      log.With("component", "http"),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// targetUser resolves whose cart or orders a request addresses. Without an
// email query parameter that is the caller; with one, the caller must be an
// admin or name themselves.
func (h *Handler) targetUser(r *http.Request) (string, error) {
	p, err := principal(r)
	if err != nil {
		return "", err
	}
	email := r.URL.Query().Get("email")
	if email == "" || email == p.Email {
		return p.UserID, nil
	}
	if !p.IsAdmin() {
		return "", apperr.Forbidden("Access denied")
	}
	u, err := h.users.ByEmail(r.Context(), email)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

func requester(r *http.Request) (order.Requester, error) {
	p, err := principal(r)
	if err != nil {
		return order.Requester{}, err
	}
	return order.Requester{UserID: p.UserID, Admin: p.IsAdmin()}, nil
}
