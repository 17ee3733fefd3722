package kioskrpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/BrandonDHaskell/roomlog/internal/roomlog/service"
)

// Server hosts the kiosk service and a gRPC health endpoint.
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     zerolog.Logger
}

func NewServer(ledger *service.Ledger, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "kioskrpc").Logger()

	gs := grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary(logger)))
	RegisterKioskServer(gs, NewService(ledger))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &Server{grpcServer: gs, health: hs, logger: logger}
}

// GRPC exposes the underlying server, mainly for tests.
func (s *Server) GRPC() *grpc.Server { return s.grpcServer }

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.logger.Info().Str("addr", lis.Addr().String()).Msg("kiosk gRPC listening")

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

func logUnary(logger zerolog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info().
			Str("method", info.FullMethod).
			Str("code", status.Code(err).String()).
			Dur("dur", time.Since(start)).
			Msg("rpc")
		return resp, err
	}
}
