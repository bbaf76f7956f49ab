package orderapi

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vladislavdragonenkov/foodhub/internal/domain"
)

// OrderServer — серверная сторона gRPC-контракта сервиса заказов.
type OrderServer interface {
	CreateOrder(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var orderServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateOrder",
			Handler:    createOrderHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "foodhub/v1/order_service.proto",
}

func createOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServer).CreateOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CreateOrderMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderServer).CreateOrder(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterOrderServer регистрирует реализацию на gRPC-сервере.
func RegisterOrderServer(s grpc.ServiceRegistrar, srv OrderServer) {
	s.RegisterService(&orderServiceDesc, srv)
}

// serviceServer публикует domain.OrderService как gRPC OrderServer.
type serviceServer struct {
	svc    domain.OrderService
	logger *log.Entry
}

// NewOrderServer оборачивает сервис заказов в gRPC-обработчик.
func NewOrderServer(svc domain.OrderService, logger *log.Entry) OrderServer {
	if logger == nil {
		logger = log.WithField("component", "order-grpc-server")
	}
	return &serviceServer{svc: svc, logger: logger}
}

func (s *serviceServer) CreateOrder(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	customer := domain.Identity{
		UserID: firstValue(md, mdUserID),
		Name:   firstValue(md, mdUserName),
		Token:  strings.TrimPrefix(firstValue(md, mdAuthorization), "Bearer "),
	}
	if customer.UserID == "" {
		return nil, status.Error(codes.Unauthenticated, "x-user-id is required")
	}

	body, err := decodeRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	lines, err := body.Lines()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	receipt, err := s.svc.CreateOrder(ctx, domain.OrderRequest{
		IdempotencyKey: firstValue(md, mdIdempotencyKey),
		Customer:       customer,
		Lines:          lines,
	})
	if err != nil {
		s.logger.WithError(err).WithField("user_id", customer.UserID).Warn("create order failed")
		return nil, toStatus(err)
	}
	return encodeReceipt(receipt), nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, domain.ErrOrderTimeout):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, domain.ErrOrderNetwork):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, domain.ErrOrderRejected), errors.Is(err, domain.ErrMenuItemNotFound):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func firstValue(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}
