package grpc

import (
	"context"
	"strings"
	"time"

	"adaptive-cache-service/internal/core/ports"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// EvictedKeysHeader is the response header listing keys evicted by a command.
const EvictedKeysHeader = "x-evicted-keys"

// Adapter implements LedisServer on top of the command service.
type Adapter struct {
	service ports.CommandService
}

// New creates a new gRPC adapter.
func New(service ports.CommandService) *Adapter {
	return &Adapter{service: service}
}

// Execute runs one command line.
func (s *Adapter) Execute(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	line := strings.TrimSpace(req.GetValue())
	if line == "" {
		return nil, status.Error(codes.InvalidArgument, "ERROR: No command provided")
	}

	res := s.service.Execute(ctx, line)
	if len(res.Evicted) > 0 {
		_ = grpc.SetHeader(ctx, metadata.Pairs(EvictedKeysHeader, strings.Join(res.Evicted, ",")))
	}
	return wrapperspb.String(res.Text), nil
}

// NewServer returns a gRPC server with the Ledis and health services registered.
func NewServer(adapter *Adapter, logger *zap.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(UnaryLogging(logger)))
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&ServiceDesc, adapter)

	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv, hs
}

// UnaryLogging logs one line per unary call.
func UnaryLogging(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc.access",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}
