package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/fjod/go_cart/storefront/internal/page"
	"github.com/fjod/go_cart/storefront/internal/selection"
	"github.com/fjod/go_cart/storefront/internal/shipping"
)

// Page is what the handlers need from the page controller.
type Page interface {
	Product() page.ProductView
	SelectVariant(ctx context.Context, axisID, valueID string) error
	SelectImage(ctx context.Context, url string)
	SetPostalCode(ctx context.Context, raw string) shipping.View
	LookupShipping(ctx context.Context) shipping.View
	Shipping() shipping.View
	Notification() (notify.Notification, bool)
	AddToCart(ctx context.Context) (domain.CartItem, error)
	UpdateQuantity(ctx context.Context, id string, quantity int) (bool, error)
	RemoveFromCart(ctx context.Context, id string) (bool, error)
	Cart() (page.CartView, error)
}

type PageHandler struct {
	page    Page
	timeout time.Duration
	log     *slog.Logger
}

func NewPageHandler(p Page, timeout time.Duration, log *slog.Logger) *PageHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PageHandler{page: p, timeout: timeout, log: log}
}

type SelectVariantRequestDTO struct {
	VariantID string `json:"variantId"`
	ValueID   string `json:"valueId"`
}

type SelectImageRequestDTO struct {
	URL string `json:"url"`
}

type PostalCodeRequestDTO struct {
	CEP string `json:"cep"`
	// Lookup resolves the code right away, like leaving the input field.
	Lookup bool `json:"lookup"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

func (h *PageHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.page.Product())
}

func (h *PageHandler) SelectVariant(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SelectVariantRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.VariantID == "" || req.ValueID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "variantId and valueId are required")
		return
	}

	if err := h.page.SelectVariant(ctx, req.VariantID, req.ValueID); err != nil {
		switch {
		case errors.Is(err, selection.ErrUnknownVariant):
			respondError(w, http.StatusBadRequest, "unknown_variant", err.Error())
		case errors.Is(err, selection.ErrUnavailable):
			respondError(w, http.StatusConflict, "unavailable", err.Error())
		default:
			h.internalError(ctx, w, err)
		}
		return
	}

	respondJSON(w, http.StatusOK, h.page.Product())
}

func (h *PageHandler) SelectImage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SelectImageRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.page.SelectImage(ctx, req.URL)
	respondJSON(w, http.StatusOK, h.page.Product())
}

func (h *PageHandler) SetPostalCode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PostalCodeRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	view := h.page.SetPostalCode(ctx, req.CEP)
	if req.Lookup {
		view = h.page.LookupShipping(ctx)
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *PageHandler) GetShipping(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.page.Shipping())
}

func (h *PageHandler) GetNotification(w http.ResponseWriter, r *http.Request) {
	n, ok := h.page.Notification()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, n)
}

func (h *PageHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.page.Cart()
	if err != nil {
		h.handleCartError(r.Context(), w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *PageHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	item, err := h.page.AddToCart(ctx)
	if err != nil {
		h.handleCartError(ctx, w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *PageHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity < 1 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at least 1")
		return
	}

	ok, err := h.page.UpdateQuantity(ctx, id, req.Quantity)
	if err != nil {
		h.handleCartError(ctx, w, err)
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "cart item not found")
		return
	}
	h.GetCart(w, r)
}

func (h *PageHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ok, err := h.page.RemoveFromCart(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleCartError(ctx, w, err)
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "cart item not found")
		return
	}
	h.GetCart(w, r)
}

func (h *PageHandler) handleCartError(ctx context.Context, w http.ResponseWriter, err error) {
	var missing *cart.MissingVariantsError
	switch {
	case errors.As(err, &missing):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   missing.Message(),
			Code:    "missing_variants",
			Missing: missing.IDs,
		})
	case errors.Is(err, page.ErrCartDisabled):
		respondError(w, http.StatusNotFound, "cart_disabled", err.Error())
	default:
		h.internalError(ctx, w, err)
	}
}

func (h *PageHandler) internalError(ctx context.Context, w http.ResponseWriter, err error) {
	h.log.ErrorContext(ctx, "request failed", "request_id", getRequestID(ctx), "error", err)
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
