package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
)

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := h.targetUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.orders.CreateFromCart(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := h.targetUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	orders, err := h.orders.ListForUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !p.IsAdmin() {
		h.writeError(w, r, apperr.Forbidden("Access denied"))
		return
	}
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	who, err := requester(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "orderId"), who)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	who, err := requester(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	o, err := h.orders.Cancel(r.Context(), chi.URLParam(r, "orderId"), who)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}
