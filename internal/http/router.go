// Package http exposes the product page as a small JSON API for the
// presentation layer.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxBodySize = 1 << 20

func NewRouter(h *PageHandler, requestTimeout time.Duration, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.RequestSize(maxBodySize))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/product", h.GetProduct)
	r.Route("/selection", func(r chi.Router) {
		r.Post("/variants", h.SelectVariant)
		r.Post("/image", h.SelectImage)
	})
	r.Route("/shipping", func(r chi.Router) {
		r.Get("/", h.GetShipping)
		r.Post("/cep", h.SetPostalCode)
	})
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{id}", h.UpdateQuantity)
		r.Delete("/items/{id}", h.RemoveItem)
	})
	r.Get("/notification", h.GetNotification)

	return otelhttp.NewHandler(r, "storefront")
}
