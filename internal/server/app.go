// Package server initializes and runs the Bellwether server: it derives the
// signing key, builds the token and credential services, opens the user
// store, and runs the HTTP and gRPC endpoints until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/bellwether/internal/cryptox"
	"github.com/dmitrijs2005/bellwether/internal/logging"
	"github.com/dmitrijs2005/bellwether/internal/server/auth"
	"github.com/dmitrijs2005/bellwether/internal/server/config"
	"github.com/dmitrijs2005/bellwether/internal/server/credentials"
	"github.com/dmitrijs2005/bellwether/internal/server/httpapi"
	"github.com/dmitrijs2005/bellwether/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bellwether/internal/server/services"

	gs "github.com/dmitrijs2005/bellwether/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      *logging.ZapLogger
	db          *sql.DB
	userService *services.UserService
}

// core holds the components built from configuration alone.
type core struct {
	key         auth.SigningKey
	issuer      *auth.IssuancePolicy
	validator   *auth.ValidationPolicy
	credentials *credentials.Service
}

// newCore builds the signing key, token policies and credential service.
// Any error matches common.ErrConfiguration.
func newCore(c *config.Config) (*core, error) {
	key, err := auth.DeriveKey(c.SecretKey)
	if err != nil {
		return nil, err
	}

	issuer, err := auth.NewIssuancePolicy(auth.JwtOptions{
		Issuer:    c.Jwt.Issuer,
		Subject:   c.Jwt.Subject,
		Audience:  c.Jwt.Audience,
		Path:      c.Jwt.Path,
		TokenName: c.Jwt.TokenName,
		ValidFor:  c.Jwt.ValidFor,

		NotBeforeOffset: c.Jwt.NotBeforeOffset,
	})
	if err != nil {
		return nil, err
	}

	validator, err := auth.NewValidationPolicy(key, auth.ValidationOptions{
		CheckIssuer:   c.Jwt.ValidateIssuer,
		Issuer:        c.Jwt.Issuer,
		CheckAudience: c.Jwt.ValidateAudience,
		Audience:      c.Jwt.Audience,
	})
	if err != nil {
		return nil, err
	}

	creds, err := credentials.NewService(credentials.Config{
		Argon2: cryptox.Argon2Params{
			Time:      c.Password.Time,
			MemoryKiB: c.Password.MemoryKiB,
			Threads:   c.Password.Threads,
			KeyLen:    c.Password.KeyLen,
		},
		MaxPasswordLen: c.Password.MaxPasswordLen,
		MaxConcurrent:  c.Password.MaxConcurrent,
	})
	if err != nil {
		return nil, err
	}

	return &core{key: key, issuer: issuer, validator: validator, credentials: creds}, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogLevel, c.IsDevelopment())
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	cr, err := newCore(c)
	if err != nil {
		return nil, err
	}

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	us := services.NewUserService(db, rm, cr.credentials, cr.issuer, cr.validator, cr.key, logger.With("module", "users"))

	if err := us.Seed(ctx, c.Seed.UserName, c.Seed.Password); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed error: %w", err)
	}

	logger.Info(ctx, "configuration loaded",
		"environment", c.Environment,
		"http", c.EndpointAddrHTTP,
		"grpc", c.EndpointAddrGRPC,
		"issuer", c.Jwt.Issuer,
		"audience", c.Jwt.Audience,
		"token_path", c.Jwt.Path,
		"valid_for", c.Jwt.ValidFor,
		"validate_issuer", c.Jwt.ValidateIssuer,
		"validate_audience", c.Jwt.ValidateAudience,
		"signing_key", cr.key,
	)

	return &App{config: c, logger: logger, db: db, userService: us}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router := httpapi.NewRouter(app.userService, httpapi.Options{
		TokenName:      app.config.Jwt.TokenName,
		TokenPath:      app.config.Jwt.Path,
		AllowedOrigins: app.config.AllowedOrigins,
		SecureCookie:   !app.config.IsDevelopment(),
	}, app.logger.With("module", "http"))

	s := httpapi.NewServer(app.config.EndpointAddrHTTP, router, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.userService, app.config.Jwt.TokenName)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

// Run serves until ctx ends, a shutdown signal arrives, or a server fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	_ = app.logger.Sync()
}
