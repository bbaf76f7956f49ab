package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodhub/internal/cart"
	"github.com/vladislavdragonenkov/foodhub/internal/checkout"
	"github.com/vladislavdragonenkov/foodhub/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/foodhub/internal/health"
	"github.com/vladislavdragonenkov/foodhub/internal/httpapi"
	"github.com/vladislavdragonenkov/foodhub/internal/identity"
	"github.com/vladislavdragonenkov/foodhub/internal/metrics"
	"github.com/vladislavdragonenkov/foodhub/internal/service/outbox"
	"github.com/vladislavdragonenkov/foodhub/internal/session"
	"github.com/vladislavdragonenkov/foodhub/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run поднимает HTTP API корзины, сервер метрик и фоновые воркеры и блокируется до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.close(logger)

	orders, err := newOrderBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer orders.close(logger)

	menu, err := newMenuCatalog(cfg, logger)
	if err != nil {
		return err
	}

	publishers := initPublishers(cfg, logger)
	defer publishers.close(logger)

	checkoutMetrics := metrics.NewCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
	outboxMetrics := metrics.NewOutboxMetrics(prometheus.DefaultRegisterer)

	// Без брокеров события не копятся в outbox: их некому доставить.
	var outboxRepo domain.OutboxRepository
	if publishers.enabled() {
		outboxRepo = deps.outboxRepo
	}

	sessions := session.NewRegistry(newWorkflowFactory(cfg, orders.service, deps.journal, outboxRepo, checkoutMetrics, logger))

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if deps.storageChecker != nil {
		healthHandler.RegisterChecker("storage", deps.storageChecker)
	}
	if orders.checker != nil {
		healthHandler.RegisterChecker("order-service", orders.checker)
	}
	if outboxRepo != nil {
		healthHandler.RegisterChecker("outbox", healthcheck.NewThresholdChecker("outbox", float64(cfg.OutboxMaxPending), outboxBacklog(outboxRepo)))
	}

	handler := httpapi.NewHandler(sessions, menu,
		httpapi.WithLogger(log.WithField("component", "http-api")),
		httpapi.WithMetrics(checkoutMetrics),
		httpapi.WithJournal(deps.journal),
		httpapi.WithKeepAlive(cfg.EventsKeepAlive),
	)

	runCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var workers sync.WaitGroup
	startWorker(runCtx, &workers, session.NewSweeper(sessions,
		session.WithLogger(log.WithField("component", "session-sweeper")),
		session.WithInterval(cfg.SessionSweepInterval),
		session.WithTTL(cfg.SessionTTL),
	).Run)

	if outboxRepo != nil {
		worker := outbox.NewWorker(outboxRepo, publishers.outbox,
			outbox.WithLogger(log.WithField("component", "outbox-worker")),
			outbox.WithDLQPublisher(publishers.dlq),
			outbox.WithMetrics(outboxMetrics),
			outbox.WithPollInterval(cfg.OutboxPollInterval),
			outbox.WithBatchSize(cfg.OutboxBatchSize),
			outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
			outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
		)
		startWorker(runCtx, &workers, worker.Run)
	}

	lis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		cancelWorkers()
		workers.Wait()
		return fmt.Errorf("listen http %s: %w", cfg.HTTPAddr, err)
	}

	metricsSrv := startMetricsServer(runCtx, cfg.MetricsAddr, logger, healthHandler)

	apiSrv := &http.Server{
		Handler:           httpapi.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return runCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", lis.Addr().String()).Info("cart API слушает")
		errCh <- apiSrv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, завершаем работу")
		cancelWorkers()
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		workers.Wait()
		return ctx.Err()
	case err := <-errCh:
		cancelWorkers()
		shutdownHTTP(metricsSrv, logger)
		workers.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// newWorkflowFactory собирает workflow оформления для каждой новой сессии.
func newWorkflowFactory(
	cfg Config,
	orders domain.OrderService,
	journal domain.AttemptJournal,
	outboxRepo domain.OutboxRepository,
	m *metrics.CheckoutMetrics,
	logger *log.Entry,
) session.WorkflowFactory {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return func(sessionID string, ledger *cart.Ledger) *checkout.Workflow {
		opts := []checkout.Option{
			checkout.WithLogger(logger.WithFields(log.Fields{"component": "checkout", "session_id": sessionID})),
			checkout.WithSubmitTimeout(cfg.SubmitTimeout),
			checkout.WithJournal(journal),
			checkout.WithMetrics(m),
		}
		if outboxRepo != nil {
			opts = append(opts, checkout.WithOutbox(outboxRepo))
		}
		return checkout.NewWorkflow(sessionID, ledger, identity.ContextProvider{}, orders, opts...)
	}
}

func outboxBacklog(repo domain.OutboxRepository) func(context.Context) (float64, error) {
	return func(context.Context) (float64, error) {
		stats, err := repo.Stats()
		if err != nil {
			return 0, err
		}
		return float64(stats.PendingCount), nil
	}
}

func startWorker(ctx context.Context, wg *sync.WaitGroup, run func(context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		run(ctx)
	}()
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus и health probes.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
