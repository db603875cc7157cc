// Package httpapi is the HTTP surface of the server: user registration, the
// token endpoint, and token-guarded user routes.
package httpapi

import (
	"net/http"
	"slices"
	"time"

	"github.com/dmitrijs2005/bellwether/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Options configure the router.
type Options struct {
	TokenName      string
	TokenPath      string
	AllowedOrigins []string
	SecureCookie   bool
	RequestTimeout time.Duration
}

// NewRouter builds the HTTP handler tree.
func NewRouter(users UserService, opts Options, logger logging.Logger) http.Handler {
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	h := NewHandler(users, opts.TokenName, opts.SecureCookie, logger)
	authMW := NewAuthMiddleware(users, opts.TokenName, logger)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))

	// A wildcard origin never gets credentialed responses.
	allowCredentials := !slices.Contains(opts.AllowedOrigins, "*")

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", opts.TokenName},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Health)
	r.Post(opts.TokenPath, h.Token)

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", h.Register)

		r.Group(func(r chi.Router) {
			r.Use(authMW.RequireAuth)
			r.Get("/me", h.Me)
			r.Put("/me/password", h.ChangePassword)
		})
	})

	return r
}
