// Команда order-stub — локальный сервис заказов для разработки и e2e-тестов.
// Отдаёт HTTP-контракт POST /api/orders и gRPC /foodhub.v1.OrderService/CreateOrder
// поверх одной заглушки, так что idempotency-ключи общие для обоих транспортов.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/foodhub/internal/health"
	"github.com/vladislavdragonenkov/foodhub/internal/orderapi"
	"github.com/vladislavdragonenkov/foodhub/internal/service/orderstub"
	"github.com/vladislavdragonenkov/foodhub/internal/version"
)

const stopTimeout = 5 * time.Second

type config struct {
	httpAddr string
	grpcAddr string
	latency  time.Duration
	failWith error
	firstID  int64
}

func readConfig(getenv func(string) string) (config, error) {
	cfg := config{httpAddr: ":8081", grpcAddr: ":50051", firstID: 1}

	if v := strings.TrimSpace(getenv("ORDER_STUB_HTTP_ADDR")); v != "" {
		cfg.httpAddr = v
	}
	if v := strings.TrimSpace(getenv("ORDER_STUB_GRPC_ADDR")); v != "" {
		cfg.grpcAddr = v
	}
	if v := strings.TrimSpace(getenv("ORDER_STUB_LATENCY")); v != "" {
		latency, err := time.ParseDuration(v)
		if err != nil || latency < 0 {
			return config{}, fmt.Errorf("invalid ORDER_STUB_LATENCY %q", v)
		}
		cfg.latency = latency
	}

	failWith, err := parseFailure(getenv("ORDER_STUB_FAIL"))
	if err != nil {
		return config{}, err
	}
	cfg.failWith = failWith
	return cfg, nil
}

// parseFailure переводит режим отказа в ошибку, которую заглушка вернёт на каждый заказ.
func parseFailure(mode string) (failure error, err error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "none":
		return nil, nil
	case "reject":
		return domain.ErrOrderRejected, nil
	case "unavailable":
		return domain.ErrOrderNetwork, nil
	default:
		return nil, fmt.Errorf("unsupported ORDER_STUB_FAIL %q (use none|reject|unavailable)", mode)
	}
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)

	cfg, err := readConfig(os.Getenv)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, nil); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("order-stub завершился с ошибкой")
	}
	log.Info("order-stub остановлен")
}

// run обслуживает HTTP и gRPC до отмены ctx. ready, если не nil, получает фактические адреса.
func run(ctx context.Context, cfg config, ready func(httpAddr, grpcAddr string)) error {
	logger := log.WithField("component", "order-stub")

	svc := orderstub.NewService(
		orderstub.WithLogger(logger),
		orderstub.WithLatency(cfg.latency),
		orderstub.WithError(cfg.failWith),
		orderstub.WithFirstOrderID(cfg.firstID),
	)

	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))
	orderapi.RegisterOrderServer(grpcServer, orderapi.NewOrderServer(svc, logger.WithField("layer", "grpc")))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	grpcMetrics.InitializeMetrics(grpcServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	grpcLis, err := net.Listen("tcp", cfg.grpcAddr)
	if err != nil {
		return fmt.Errorf("listen grpc %s: %w", cfg.grpcAddr, err)
	}
	httpLis, err := net.Listen("tcp", cfg.httpAddr)
	if err != nil {
		_ = grpcLis.Close()
		return fmt.Errorf("listen http %s: %w", cfg.httpAddr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/", orderstub.NewHTTPHandler(svc, logger.WithField("layer", "http")))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthcheck.NewHandler(version.GetVersion()))
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	httpSrv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 2)
	go func() {
		logger.Infof("gRPC сервер слушает %s", grpcLis.Addr())
		errCh <- grpcServer.Serve(grpcLis)
	}()
	go func() {
		logger.Infof("HTTP сервер слушает %s", httpLis.Addr())
		errCh <- httpSrv.Serve(httpLis)
	}()
	if ready != nil {
		ready(httpLis.Addr().String(), grpcLis.Addr().String())
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки")
		runErr = ctx.Err()
	case err := <-errCh:
		runErr = err
	}

	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(stopTimeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		grpcServer.Stop()
	}

	if errors.Is(runErr, http.ErrServerClosed) || errors.Is(runErr, grpc.ErrServerStopped) {
		return nil
	}
	return runErr
}
