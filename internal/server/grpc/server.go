// Package grpc exposes the server over gRPC: the standard health service,
// open to anyone, and server reflection, which requires an access token.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/bellwether/internal/logging"
	"github.com/dmitrijs2005/bellwether/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Authenticator accepts or rejects a presented token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

type GRPCServer struct {
	address   string
	auth      Authenticator
	tokenName string
	logger    logging.Logger
	health    *health.Server
}

func NewGRPCServer(a string, l logging.Logger, authn Authenticator, tokenName string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		auth:      authn,
		tokenName: tokenName,
		logger:    l.With("module", "grpc_server"),
		health:    health.NewServer(),
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.serve(ctx, listen)
}

func (s *GRPCServer) serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.streamAccessTokenInterceptor),
	)

	healthpb.RegisterHealthServer(srv, s.health)
	reflection.Register(srv)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
