package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/bellwether/internal/logging"
	"github.com/dmitrijs2005/bellwether/internal/server/auth"
	"github.com/go-chi/chi/v5/middleware"
)

// rejectMessage is the only reason a client is ever given for a refused token.
const rejectMessage = "invalid or expired token"

// Authenticator accepts or rejects a presented token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthMiddleware guards routes with a token.
type AuthMiddleware struct {
	auth      Authenticator
	tokenName string
	logger    logging.Logger
}

// NewAuthMiddleware looks tokens up under tokenName.
func NewAuthMiddleware(a Authenticator, tokenName string, logger logging.Logger) *AuthMiddleware {
	return &AuthMiddleware{auth: a, tokenName: tokenName, logger: logger}
}

// RequireAuth answers 401 unless the request carries an accepted token, and
// stores the token claims in the request context otherwise.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := ExtractToken(r, m.tokenName)
		if token == "" {
			m.logger.Debug(ctx, "missing token", "request_id", middleware.GetReqID(ctx))
			writeUnauthorized(w, rejectMessage)
			return
		}

		claims, err := m.auth.Authenticate(ctx, token)
		if err != nil {
			writeUnauthorized(w, rejectMessage)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
	})
}

// ExtractToken finds the token in, by priority: the tokenName header, an
// "Authorization: Bearer" header, then the tokenName cookie.
func ExtractToken(r *http.Request, tokenName string) string {
	if v := strings.TrimSpace(r.Header.Get(tokenName)); v != "" {
		return v
	}

	if h := r.Header.Get("Authorization"); h != "" {
		scheme, value, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if v := strings.TrimSpace(value); v != "" {
				return v
			}
		}
	}

	if c, err := r.Cookie(tokenName); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}

// RequestLogger logs one line per request through logger.
func RequestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info(r.Context(), "http request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
