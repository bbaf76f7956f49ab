// Package httpapi — HTTP API корзины и оформления заказа для фронтенда.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vladislavdragonenkov/foodhub/internal/identity"
)

// NewRouter собирает маршруты API.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(echoCorrelationID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(recoverer(h.logger))
	r.Use(identity.Middleware)

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(h.withSession)

		r.Get("/", h.GetCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{itemId}", h.SetQuantity)
		r.Delete("/items/{itemId}", h.RemoveItem)
		r.Post("/checkout", h.Checkout)
		r.Get("/events", h.Events)
		r.Get("/attempts", h.Attempts)
	})

	return r
}
