package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/bellwether/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// publicPrefixes lists services callable without a token.
var publicPrefixes = []string{
	"/grpc.health.v1.Health/",
}

// ClaimsFromContext returns the claims of the token that admitted the call,
// or nil for public methods.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey).(*auth.Claims)
	return c
}

func isPublic(fullMethod string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(fullMethod, p) {
			return true
		}
	}
	return false
}

// authorize returns ctx extended with the caller's claims. Every failure is
// the same Unauthenticated status.
func (s *GRPCServer) authorize(ctx context.Context, fullMethod string) (context.Context, error) {
	if isPublic(fullMethod) {
		return ctx, nil
	}

	token := s.tokenFromMetadata(ctx)
	if token == "" {
		s.logger.Debug(ctx, "missing token", "method", fullMethod)
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}

	claims, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}

	return context.WithValue(ctx, claimsKey, claims), nil
}

// tokenFromMetadata reads the token from the tokenName key, falling back to
// "authorization: Bearer <token>".
func (s *GRPCServer) tokenFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	if values := md.Get(s.tokenName); len(values) > 0 && values[0] != "" {
		return values[0]
	}

	for _, v := range md.Get("authorization") {
		scheme, value, ok := strings.Cut(v, " ")
		if ok && strings.EqualFold(scheme, "Bearer") && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	ctx, err := s.authorize(ctx, info.FullMethod)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

func (s *GRPCServer) streamAccessTokenInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx, err := s.authorize(ss.Context(), info.FullMethod)
	if err != nil {
		return err
	}
	return handler(srv, &authorizedStream{ServerStream: ss, ctx: ctx})
}

type authorizedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *authorizedStream) Context() context.Context { return w.ctx }
