package app

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/vladislavdragonenkov/foodhub/internal/catalog"
	"github.com/vladislavdragonenkov/foodhub/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/foodhub/internal/health"
	"github.com/vladislavdragonenkov/foodhub/internal/orderapi"
	"github.com/vladislavdragonenkov/foodhub/internal/service/orderstub"
)

// orderBackend — клиент сервиса заказов и проверка его доступности.
type orderBackend struct {
	service domain.OrderService
	checker healthcheck.Checker
	conn    *grpc.ClientConn
}

func newOrderBackend(cfg Config, logger *log.Entry) (orderBackend, error) {
	transport := strings.ToLower(strings.TrimSpace(cfg.OrderTransport))
	switch transport {
	case "", OrderTransportMock:
		logger.Warn("order service is mocked: orders are accepted locally")
		return orderBackend{
			service: orderstub.NewService(orderstub.WithLogger(logger.WithField("component", "order-stub"))),
		}, nil
	case OrderTransportHTTP:
		client, err := orderapi.NewHTTPClient(cfg.OrderURL, nil, logger.WithField("component", "order-http-client"))
		if err != nil {
			return orderBackend{}, err
		}
		return orderBackend{
			service: client,
			checker: healthcheck.NewFuncChecker("order-service", tcpProbe(cfg.OrderURL)),
		}, nil
	case OrderTransportGRPC:
		if strings.TrimSpace(cfg.OrderGRPCAddr) == "" {
			return orderBackend{}, fmt.Errorf("order grpc address is required for transport %q", OrderTransportGRPC)
		}
		conn, err := orderapi.DialGRPC(cfg.OrderGRPCAddr)
		if err != nil {
			return orderBackend{}, err
		}
		return orderBackend{
			service: orderapi.NewGRPCClient(conn, logger.WithField("component", "order-grpc-client")),
			checker: healthcheck.NewFuncChecker("order-service", grpcHealthProbe(conn)),
			conn:    conn,
		}, nil
	default:
		return orderBackend{}, fmt.Errorf("unsupported order transport %q", cfg.OrderTransport)
	}
}

func (b orderBackend) close(logger *log.Entry) {
	if b.conn == nil {
		return
	}
	if err := b.conn.Close(); err != nil {
		logger.WithError(err).Warn("failed to close order service connection")
	}
}

// grpcHealthProbe опрашивает стандартный grpc.health.v1 сервиса заказов.
func grpcHealthProbe(conn grpc.ClientConnInterface) func(ctx context.Context) error {
	client := healthpb.NewHealthClient(conn)
	return func(ctx context.Context) error {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
		if err != nil {
			return err
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			return fmt.Errorf("order service status %s", resp.GetStatus())
		}
		return nil
	}
}

// tcpProbe проверяет, что хост из rawURL принимает соединения.
func tcpProbe(rawURL string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		u, err := url.Parse(rawURL)
		if err != nil {
			return err
		}
		host := u.Host
		if u.Port() == "" {
			port := "80"
			if u.Scheme == "https" {
				port = "443"
			}
			host = net.JoinHostPort(u.Hostname(), port)
		}
		var dialer net.Dialer
		conn, err := dialer.DialContext(ctx, "tcp", host)
		if err != nil {
			return err
		}
		return conn.Close()
	}
}

func newMenuCatalog(cfg Config, logger *log.Entry) (domain.MenuCatalog, error) {
	if strings.TrimSpace(cfg.CatalogURL) == "" {
		logger.Info("catalog url is not set, using demo catalog")
		return catalog.Demo(), nil
	}
	client, err := catalog.NewHTTPClient(cfg.CatalogURL, nil, logger.WithField("component", "catalog-client"))
	if err != nil {
		return nil, err
	}
	return client, nil
}
