package checkout

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
	"github.com/vladislavdragonenkov/foodhub/internal/metrics"
)

// DefaultSubmitTimeout ограничивает ожидание ответа сервиса заказов.
const DefaultSubmitTimeout = 10 * time.Second

type workflowOptions struct {
	logger  *log.Entry
	timeout time.Duration
	journal domain.AttemptJournal
	outbox  domain.OutboxRepository
	metrics *metrics.CheckoutMetrics
	now     func() time.Time
}

// Option настраивает Workflow.
type Option func(*workflowOptions)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) Option {
	return func(opts *workflowOptions) {
		opts.logger = logger
	}
}

// WithSubmitTimeout задаёт таймаут обращения к сервису заказов.
func WithSubmitTimeout(timeout time.Duration) Option {
	return func(opts *workflowOptions) {
		opts.timeout = timeout
	}
}

// WithJournal включает запись попыток в журнал.
func WithJournal(journal domain.AttemptJournal) Option {
	return func(opts *workflowOptions) {
		opts.journal = journal
	}
}

// WithOutbox включает публикацию итогов попыток через outbox.
func WithOutbox(outbox domain.OutboxRepository) Option {
	return func(opts *workflowOptions) {
		opts.outbox = outbox
	}
}

// WithMetrics задаёт метрики оформления.
func WithMetrics(m *metrics.CheckoutMetrics) Option {
	return func(opts *workflowOptions) {
		opts.metrics = m
	}
}

func withClock(now func() time.Time) Option {
	return func(opts *workflowOptions) {
		opts.now = now
	}
}
