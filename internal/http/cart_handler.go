package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
)

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type availabilityResponse struct {
	ProductID string `json:"productId"`
	Requested int    `json:"requested"`
	Available bool   `json:"available"`
}

func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	qty, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		h.writeError(w, r, apperr.BadRequest("quantity must be an integer"))
		return
	}
	ok, err := h.stock.CheckAvailable(r.Context(), productID, qty)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{ProductID: productID, Requested: qty, Available: ok})
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	h.withCartUser(w, r, func(userID string) (cart.View, error) {
		return h.carts.Get(r.Context(), userID)
	})
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.ProductID == "" {
		h.writeError(w, r, apperr.BadRequest("productId is required"))
		return
	}
	h.withCartUser(w, r, func(userID string) (cart.View, error) {
		return h.carts.AddItem(r.Context(), userID, req.ProductID, req.Quantity)
	})
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Quantity == nil {
		h.writeError(w, r, apperr.BadRequest("quantity is required"))
		return
	}
	productID := chi.URLParam(r, "productId")
	h.withCartUser(w, r, func(userID string) (cart.View, error) {
		return h.carts.UpdateItem(r.Context(), userID, productID, *req.Quantity)
	})
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productId")
	h.withCartUser(w, r, func(userID string) (cart.View, error) {
		return h.carts.RemoveItem(r.Context(), userID, productID)
	})
}

func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "lineId")
	h.withCartUser(w, r, func(userID string) (cart.View, error) {
		return h.carts.RemoveLine(r.Context(), userID, lineID)
	})
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, err := h.targetUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.carts.Clear(r.Context(), userID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Cart cleared successfully"})
}

func (h *Handler) withCartUser(w http.ResponseWriter, r *http.Request, fn func(userID string) (cart.View, error)) {
	userID, err := h.targetUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := fn(userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
