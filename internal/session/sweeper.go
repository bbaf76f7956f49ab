package session

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

const (
	defaultSweepInterval  = time.Minute
	defaultSweepBatchSize = 500
	// DefaultTTL — время жизни неактивной сессии.
	DefaultTTL = 2 * time.Hour
)

var (
	sessionSweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodhub_session_sweep_runs_total",
		Help: "Total number of idle session sweeps grouped by result.",
	}, []string{"result"})
	sessionEvictedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "foodhub_session_evicted_total",
		Help: "Total number of evicted idle sessions.",
	})
	sessionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "foodhub_sessions_active",
		Help: "Number of sessions held in memory after the last sweep.",
	})
)

// Store — хранилище сессий, из которого Sweeper удаляет неактивные.
type Store interface {
	EvictIdle(before time.Time, limit int) (int, error)
	Len() int
}

// SweeperOptions задаёт параметры очистки.
type SweeperOptions struct {
	Logger    *log.Entry
	Interval  time.Duration
	BatchSize int
	TTL       time.Duration
}

// SweeperOption настраивает Sweeper.
type SweeperOption func(*SweeperOptions)

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) SweeperOption {
	return func(opts *SweeperOptions) {
		opts.Logger = logger
	}
}

// WithInterval задаёт интервал между циклами очистки.
func WithInterval(interval time.Duration) SweeperOption {
	return func(opts *SweeperOptions) {
		opts.Interval = interval
	}
}

// WithBatchSize задаёт количество сессий, удаляемых за один вызов хранилища.
func WithBatchSize(batchSize int) SweeperOption {
	return func(opts *SweeperOptions) {
		opts.BatchSize = batchSize
	}
}

// WithTTL задаёт время неактивности, после которого сессия удаляется.
func WithTTL(ttl time.Duration) SweeperOption {
	return func(opts *SweeperOptions) {
		opts.TTL = ttl
	}
}

// Sweeper периодически удаляет неактивные сессии.
type Sweeper struct {
	store     Store
	logger    *log.Entry
	interval  time.Duration
	batchSize int
	ttl       time.Duration
}

// NewSweeper создаёт воркер очистки сессий.
func NewSweeper(store Store, options ...SweeperOption) *Sweeper {
	opts := SweeperOptions{
		Interval:  defaultSweepInterval,
		BatchSize: defaultSweepBatchSize,
		TTL:       DefaultTTL,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "session-sweeper")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultSweepInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultSweepBatchSize
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}

	return &Sweeper{
		store:     store,
		logger:    logger,
		interval:  opts.Interval,
		batchSize: opts.BatchSize,
		ttl:       opts.TTL,
	}
}

// Run запускает периодическую очистку до отмены ctx.
func (s *Sweeper) Run(ctx context.Context) {
	if s.store == nil {
		s.logger.Warn("session sweeper is disabled: store is nil")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx, time.Now().UTC())
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context, now time.Time) {
	evicted, err := s.EvictIdle(ctx, now.Add(-s.ttl))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		sessionSweepRunsTotal.WithLabelValues("error").Inc()
		s.logger.WithError(err).Warn("session sweep failed")
		return
	}

	sessionSweepRunsTotal.WithLabelValues("ok").Inc()
	sessionActive.Set(float64(s.store.Len()))
	if evicted > 0 {
		s.logger.WithField("evicted", evicted).Info("idle sessions evicted")
	}
}

// EvictIdle удаляет все сессии, неактивные с момента before, порциями batchSize.
func (s *Sweeper) EvictIdle(ctx context.Context, before time.Time) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		evicted, err := s.store.EvictIdle(before, s.batchSize)
		if err != nil {
			return total, err
		}

		total += evicted
		if evicted > 0 {
			sessionEvictedTotal.Add(float64(evicted))
		}
		if evicted < s.batchSize {
			return total, nil
		}
	}
}
