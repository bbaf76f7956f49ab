// Package orderstub — конфигурируемая реализация сервиса заказов для локального запуска и тестов.
package orderstub

import (
	"context"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

// Option настраивает Service.
type Option func(*Service)

// WithLatency задаёт задержку ответа.
func WithLatency(latency time.Duration) Option {
	return func(s *Service) {
		s.latency = latency
	}
}

// WithError заставляет сервис отвечать ошибкой на каждый вызов.
func WithError(err error) Option {
	return func(s *Service) {
		s.err = err
	}
}

// WithFirstOrderID задаёт номер первого создаваемого заказа.
func WithFirstOrderID(id int64) Option {
	return func(s *Service) {
		s.nextID = id
	}
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Service выдаёт последовательные номера заказов и повторяет ответ для уже
// использованного идемпотентного ключа.
type Service struct {
	mu      sync.Mutex
	latency time.Duration
	err     error
	nextID  int64
	byKey   map[string]string
	orders  map[string][]domain.OrderLine
	calls   int
	logger  *log.Entry
}

// NewService возвращает заглушку с успешным сценарием по умолчанию.
func NewService(opts ...Option) *Service {
	s := &Service{
		nextID: 1,
		byKey:  make(map[string]string),
		orders: make(map[string][]domain.OrderLine),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "order-stub")
	}
	return s
}

// SetError меняет ошибку, возвращаемую на следующие вызовы. nil включает успешный сценарий.
func (s *Service) SetError(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// SetLatency меняет задержку ответа.
func (s *Service) SetLatency(latency time.Duration) {
	s.mu.Lock()
	s.latency = latency
	s.mu.Unlock()
}

// Calls возвращает количество вызовов CreateOrder.
func (s *Service) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Order возвращает строки созданного заказа.
func (s *Service) Order(orderID string) ([]domain.OrderLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, ok := s.orders[orderID]
	return lines, ok
}

// CreateOrder создаёт заказ после настроенной задержки.
func (s *Service) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderReceipt, error) {
	s.mu.Lock()
	s.calls++
	latency, failure := s.latency, s.err
	s.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return domain.OrderReceipt{}, ctx.Err()
		case <-timer.C:
		}
	}
	if failure != nil {
		return domain.OrderReceipt{}, failure
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.IdempotencyKey != "" {
		if id, ok := s.byKey[req.IdempotencyKey]; ok {
			s.logger.WithFields(log.Fields{
				"idempotency_key": req.IdempotencyKey,
				"order_id":        id,
			}).Info("replaying order for idempotency key")
			return domain.OrderReceipt{OrderID: id}, nil
		}
	}

	id := strconv.FormatInt(s.nextID, 10)
	s.nextID++
	s.orders[id] = append([]domain.OrderLine(nil), req.Lines...)
	if req.IdempotencyKey != "" {
		s.byKey[req.IdempotencyKey] = id
	}

	s.logger.WithFields(log.Fields{
		"order_id": id,
		"user_id":  req.Customer.UserID,
		"lines":    len(req.Lines),
	}).Info("order created")
	return domain.OrderReceipt{OrderID: id}, nil
}

var _ domain.OrderService = (*Service)(nil)
