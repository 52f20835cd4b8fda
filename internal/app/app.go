package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	_ "github.com/lib/pq"
	"uimock/mockapi/internal/audit"
	"uimock/mockapi/internal/auth"
	"uimock/mockapi/internal/config"
	"uimock/mockapi/internal/fixtures"
	"uimock/mockapi/internal/httpserver"
	"uimock/mockapi/internal/observability"
	"uimock/mockapi/internal/resource"
)

type App struct {
	cfg    config.Config
	log    *slog.Logger
	server *httpserver.Server
}

// LoadFixtures builds the fixture store from the embedded defaults, then the
// fixture directory, then the fixture database, each overriding the last.
func LoadFixtures(ctx context.Context, cfg config.FixtureConfig) (*fixtures.Store, error) {
	sources := []fixtures.Source{fixtures.Defaults()}
	if cfg.Dir != "" {
		sources = append(sources, fixtures.Dir(cfg.Dir))
	}
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open fixture database: %w", err)
		}
		// Fixtures are read once; the connection is not needed afterwards.
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping fixture database: %w", err)
		}
		src, err := fixtures.NewPostgresSource(db)
		if err != nil {
			return nil, fmt.Errorf("create postgres fixture source: %w", err)
		}
		sources = append(sources, src)
	}
	return fixtures.Load(ctx, sources...)
}

// NewResolver loads the fixtures and verifies every key the resolver can
// serve is present.
func NewResolver(ctx context.Context, cfg config.Config, logger *slog.Logger) (*resource.Resolver, *fixtures.Store, error) {
	store, err := LoadFixtures(ctx, cfg.Fixtures)
	if err != nil {
		return nil, nil, err
	}
	resolver, err := resource.NewResolver(store, resource.Config{KnownUsers: cfg.KnownUsers}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create resource resolver: %w", err)
	}
	if err := store.Require(resolver.RequiredFixtures()...); err != nil {
		return nil, nil, fmt.Errorf("validate fixtures: %w", err)
	}
	return resolver, store, nil
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger := observability.NewLogger(cfg.LogLevel)

	resolver, store, err := NewResolver(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("fixtures loaded", "count", store.Len())

	validator, err := auth.NewValidator(cfg.Accounts)
	if err != nil {
		return nil, fmt.Errorf("create credential validator: %w", err)
	}
	authService, err := auth.NewService(validator, auth.NewSessionStore(), resolver)
	if err != nil {
		return nil, fmt.Errorf("create auth service: %w", err)
	}

	cookies, err := httpserver.NewSessionCookies(cfg.Session.CookieName, []byte(cfg.Session.HashKey), cfg.Session.CookieSecure)
	if err != nil {
		return nil, fmt.Errorf("create session cookies: %w", err)
	}
	if cfg.Session.HashKey == "" {
		logger.Warn("SESSION_HASH_KEY not set; session cookies are signed with a per-process key")
	}

	auditLogger := audit.NewLogger(cfg.AuditLogFile)

	server := httpserver.New(cfg.HTTP, httpserver.Deps{
		Auth:          authService,
		Resources:     resolver,
		Audit:         auditLogger,
		Cookies:       cookies,
		Logger:        logger,
		ServerVersion: cfg.ServerVersion,
	})

	return &App{
		cfg:    cfg,
		log:    logger,
		server: server,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr, "latency", a.cfg.HTTP.Latency.String())
		errCh <- a.server.Start()
	}()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server exited: %w", err)
	}
}
