package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodhub/internal/catalog"
	"github.com/vladislavdragonenkov/foodhub/internal/domain"
	"github.com/vladislavdragonenkov/foodhub/internal/metrics"
	"github.com/vladislavdragonenkov/foodhub/internal/session"
)

// HeaderSessionID — идентификатор сессии браузера.
const HeaderSessionID = "X-Session-Id"

const (
	defaultAttemptsLimit = 20
	maxAttemptsLimit     = 200
	maxRequestBody       = 1 << 16
	defaultKeepAlive     = 15 * time.Second
)

// Option настраивает Handler.
type Option func(*Handler)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithMetrics задаёт метрики изменений корзины.
func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithJournal включает выдачу журнала попыток.
func WithJournal(journal domain.AttemptJournal) Option {
	return func(h *Handler) {
		h.journal = journal
	}
}

// WithKeepAlive задаёт период комментариев-пингов в потоке событий.
func WithKeepAlive(interval time.Duration) Option {
	return func(h *Handler) {
		h.keepAlive = interval
	}
}

// Handler обслуживает корзину и оформление заказа.
type Handler struct {
	sessions  *session.Registry
	catalog   domain.MenuCatalog
	journal   domain.AttemptJournal
	metrics   *metrics.CheckoutMetrics
	logger    *log.Entry
	keepAlive time.Duration
}

// NewHandler создаёт Handler.
func NewHandler(sessions *session.Registry, menu domain.MenuCatalog, opts ...Option) *Handler {
	h := &Handler{
		sessions:  sessions,
		catalog:   menu,
		keepAlive: defaultKeepAlive,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = log.WithField("component", "http-api")
	}
	return h
}

// GetCart отдаёт снимок корзины и статус последней попытки.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	writeJSON(w, http.StatusOK, toCartDTO(s, s.Ledger.Snapshot()))
}

// AddItem добавляет позицию меню; повторное добавление увеличивает количество.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)

	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.RestaurantID <= 0 || req.MenuItemID <= 0 {
		writeError(w, http.StatusBadRequest, "restaurantId and menuItemId are required")
		return
	}

	item, err := h.catalog.MenuItem(r.Context(), req.RestaurantID, domain.ItemID(req.MenuItemID))
	switch {
	case err == nil:
	case catalog.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, domain.ErrInvalidPrice):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	default:
		h.logger.WithError(err).WithFields(log.Fields{
			"restaurant_id": req.RestaurantID,
			"menu_item_id":  req.MenuItemID,
		}).Warn("catalog lookup failed")
		writeError(w, http.StatusBadGateway, "menu catalog unavailable")
		return
	}

	s.Ledger.Add(item)
	h.recordMutation("add")
	writeJSON(w, http.StatusOK, toCartDTO(s, s.Ledger.Snapshot()))
}

// SetQuantity меняет количество позиции; 0 и меньше удаляют её.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)

	id, err := itemIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req setQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}
	if *req.Quantity > domain.MaxLineQuantity {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("%v: max %d", domain.ErrQuantityTooLarge, domain.MaxLineQuantity))
		return
	}

	s.Ledger.SetQuantity(id, *req.Quantity)
	h.recordMutation("set_quantity")
	writeJSON(w, http.StatusOK, toCartDTO(s, s.Ledger.Snapshot()))
}

// RemoveItem удаляет позицию; отсутствующая позиция не считается ошибкой.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)

	id, err := itemIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.Ledger.Remove(id)
	h.recordMutation("remove")
	writeJSON(w, http.StatusOK, toCartDTO(s, s.Ledger.Snapshot()))
}

// Checkout выполняет одну попытку оформления заказа.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)

	attempt := s.Workflow.Submit(r.Context())
	writeJSON(w, checkoutStatusCode(attempt.Result.Err), toAttemptDTO(s, attempt))
}

// Attempts отдаёт журнал попыток сессии, новые первыми.
func (h *Handler) Attempts(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	if h.journal == nil {
		writeJSON(w, http.StatusOK, []attemptRecordDTO{})
		return
	}

	limit := defaultAttemptsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxAttemptsLimit)
	}

	records, err := h.journal.ListBySession(s.ID, limit)
	if err != nil {
		h.logger.WithError(err).WithField("session_id", s.ID).Error("failed to list checkout attempts")
		writeError(w, http.StatusInternalServerError, "failed to list attempts")
		return
	}
	writeJSON(w, http.StatusOK, toAttemptRecordDTOs(records))
}

func (h *Handler) recordMutation(op string) {
	if h.metrics != nil {
		h.metrics.RecordCartMutation(op)
	}
}

// checkoutStatusCode отображает итог попытки в HTTP-код.
func checkoutStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrSubmissionInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrOrderTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func itemIDParam(r *http.Request) (domain.ItemID, error) {
	raw := chi.URLParam(r, "itemId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid item id %q", raw)
	}
	return domain.ItemID(id), nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
