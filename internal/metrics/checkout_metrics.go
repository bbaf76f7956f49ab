package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics содержит метрики корзины и оформления заказа.
type CheckoutMetrics struct {
	// Попытки оформления по итогу и причине отказа
	attempts   *prometheus.CounterVec
	rejections *prometheus.CounterVec

	// Гистограммы времени выполнения
	attemptDuration prometheus.Histogram
	remoteDuration  *prometheus.HistogramVec

	// Gauge для попыток, ожидающих ответа сервиса заказов
	inFlight prometheus.Gauge

	cartMutations *prometheus.CounterVec
	outboxEvents  prometheus.Counter
}

// NewCheckoutMetrics создаёт метрики в глобальном реестре.
func NewCheckoutMetrics() *CheckoutMetrics {
	return NewCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCheckoutMetricsWithRegisterer создаёт метрики в указанном реестре (используется в тестах).
func NewCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CheckoutMetrics{
		attempts: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "foodhub_checkout_attempts_total",
			Help: "Total number of checkout attempts by terminal state",
		}, []string{"state"}),
		rejections: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "foodhub_checkout_rejections_total",
			Help: "Total number of rejected checkout attempts by reason",
		}, []string{"reason"}),
		attemptDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "foodhub_checkout_duration_seconds",
			Help:    "Duration of checkout attempts in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		remoteDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "foodhub_order_request_duration_seconds",
			Help:    "Duration of order service calls in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"outcome"}),
		inFlight: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "foodhub_checkout_in_flight",
			Help: "Number of checkout attempts waiting for the order service",
		}),
		cartMutations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "foodhub_cart_mutations_total",
			Help: "Total number of cart mutations by operation",
		}, []string{"op"}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "foodhub_checkout_outbox_events_total",
			Help: "Total number of checkout events enqueued to the outbox",
		}),
	}
}

// RecordAttempt фиксирует завершённую попытку. reason пустой для успешных попыток.
func (m *CheckoutMetrics) RecordAttempt(state, reason string, duration time.Duration) {
	m.attempts.WithLabelValues(state).Inc()
	if reason != "" {
		m.rejections.WithLabelValues(reason).Inc()
	}
	m.attemptDuration.Observe(duration.Seconds())
}

// RecordRemoteCall записывает длительность обращения к сервису заказов.
func (m *CheckoutMetrics) RecordRemoteCall(outcome string, duration time.Duration) {
	m.remoteDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordInFlightStarted увеличивает количество ожидающих попыток.
func (m *CheckoutMetrics) RecordInFlightStarted() {
	m.inFlight.Inc()
}

// RecordInFlightFinished уменьшает количество ожидающих попыток.
func (m *CheckoutMetrics) RecordInFlightFinished() {
	m.inFlight.Dec()
}

// RecordCartMutation увеличивает счётчик изменений корзины.
func (m *CheckoutMetrics) RecordCartMutation(op string) {
	m.cartMutations.WithLabelValues(op).Inc()
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *CheckoutMetrics) RecordOutboxEvent() {
	m.outboxEvents.Inc()
}
