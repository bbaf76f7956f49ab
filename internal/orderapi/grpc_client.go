package orderapi

import (
	"context"
	"errors"
	"fmt"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

// DialGRPC открывает соединение с gRPC-сервисом заказов с клиентскими метриками Prometheus.
func DialGRPC(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(promgrpc.UnaryClientInterceptor),
	}
	conn, err := grpc.NewClient(addr, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("dial order service %s: %w", addr, err)
	}
	return conn, nil
}

// GRPCClient вызывает /foodhub.v1.OrderService/CreateOrder.
type GRPCClient struct {
	conn   grpc.ClientConnInterface
	logger *log.Entry
}

// NewGRPCClient создаёт клиент поверх готового соединения.
func NewGRPCClient(conn grpc.ClientConnInterface, logger *log.Entry) *GRPCClient {
	if logger == nil {
		logger = log.WithField("component", "order-grpc-client")
	}
	return &GRPCClient{conn: conn, logger: logger}
}

// CreateOrder отправляет заказ. Идемпотентный ключ и пользователь передаются через metadata.
func (c *GRPCClient) CreateOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderReceipt, error) {
	in, err := encodeRequest(req.Lines)
	if err != nil {
		return domain.OrderReceipt{}, &domain.SubmissionError{Kind: domain.SubmissionNetwork, Err: fmt.Errorf("encode order: %w", err)}
	}

	pairs := []string{
		mdIdempotencyKey, req.IdempotencyKey,
		mdUserID, req.Customer.UserID,
	}
	if req.Customer.Name != "" {
		pairs = append(pairs, mdUserName, req.Customer.Name)
	}
	if req.Customer.Token != "" {
		pairs = append(pairs, mdAuthorization, "Bearer "+req.Customer.Token)
	}
	ctx = metadata.AppendToOutgoingContext(ctx, pairs...)

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, CreateOrderMethod, in, out); err != nil {
		c.logger.WithError(err).WithField("idempotency_key", req.IdempotencyKey).Warn("order service call failed")
		return domain.OrderReceipt{}, statusError(err)
	}

	orderID, err := decodeReceipt(out)
	if err != nil {
		return domain.OrderReceipt{}, &domain.SubmissionError{Kind: domain.SubmissionRejected, Err: err}
	}
	return domain.OrderReceipt{OrderID: orderID}, nil
}

// statusError классифицирует ошибку gRPC-вызова.
func statusError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.SubmissionError{Kind: domain.SubmissionTimeout, Err: err}
	}

	st, ok := status.FromError(err)
	if !ok {
		return &domain.SubmissionError{Kind: domain.SubmissionNetwork, Err: err}
	}
	switch st.Code() {
	case codes.DeadlineExceeded:
		return &domain.SubmissionError{Kind: domain.SubmissionTimeout, StatusCode: int(st.Code()), Err: err}
	case codes.Unavailable, codes.Canceled:
		return &domain.SubmissionError{Kind: domain.SubmissionNetwork, StatusCode: int(st.Code()), Err: err}
	default:
		return &domain.SubmissionError{Kind: domain.SubmissionRejected, StatusCode: int(st.Code()), Err: err}
	}
}

var _ domain.OrderService = (*GRPCClient)(nil)
