package httpapi

import (
	"context"

	"github.com/dmitrijs2005/bellwether/internal/server/auth"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// WithClaims returns ctx carrying the claims of an accepted token.
func WithClaims(ctx context.Context, c *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFromContext returns the claims stored by RequireAuth, or nil.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey).(*auth.Claims)
	return c
}
