package orderstub

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
	"github.com/vladislavdragonenkov/foodhub/internal/orderapi"
)

// NewHTTPHandler публикует сервис заказов по HTTP-контракту POST /api/orders.
func NewHTTPHandler(svc domain.OrderService, logger *log.Entry) http.Handler {
	if logger == nil {
		logger = log.WithField("component", "order-stub-http")
	}
	h := &httpHandler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Post("/api/orders", h.createOrder)
	return r
}

type httpHandler struct {
	svc    domain.OrderService
	logger *log.Entry
}

func (h *httpHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	customer := domain.Identity{
		UserID: strings.TrimSpace(r.Header.Get(orderapi.HeaderUserID)),
		Name:   r.Header.Get(orderapi.HeaderUserName),
		Token:  strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "),
	}
	if customer.UserID == "" {
		writeError(w, http.StatusUnauthorized, "missing required header: X-User-Id")
		return
	}

	var body orderapi.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	lines, err := body.Lines()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	receipt, err := h.svc.CreateOrder(r.Context(), domain.OrderRequest{
		IdempotencyKey: r.Header.Get(orderapi.HeaderIdempotencyKey),
		Customer:       customer,
		Lines:          lines,
	})
	if err != nil {
		h.logger.WithError(err).WithField("user_id", customer.UserID).Warn("create order failed")
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, orderapi.NewCreateOrderResponse(receipt.OrderID))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrOrderRejected), errors.Is(err, domain.ErrMenuItemNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrOrderTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrOrderNetwork):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
