package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/logger"
)

type RouterOptions struct {
	RequestTimeout time.Duration
}

func NewRouter(h *Handler, log *logger.Logger, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(correlate)
	if opts.RequestTimeout > 0 {
		r.Use(middleware.Timeout(opts.RequestTimeout))
	}

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.requireAuth)

		r.Get("/products/{productId}/availability", h.CheckAvailability)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.ClearCart)
			r.Post("/items", h.AddItem)
			r.Put("/items/{productId}", h.UpdateItem)
			r.Delete("/items/{productId}", h.RemoveItem)
			r.Delete("/lines/{lineId}", h.RemoveLine)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.Get("/", h.ListOrders)
			r.Get("/all", h.ListAllOrders)
			r.Get("/{orderId}", h.GetOrder)
			r.Post("/{orderId}/cancel", h.CancelOrder)
		})
	})

	return r
}
