// Package app provides application-level wiring for the graph service: the
// graph store, the import pipeline and the HTTP router.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"fastcontrol/internal/api"
	"fastcontrol/internal/config"
	"fastcontrol/internal/db"
	"fastcontrol/internal/db/repository"
	"fastcontrol/internal/domain"
	graphops "fastcontrol/internal/graph"
	"fastcontrol/internal/middleware"
	"fastcontrol/internal/schemaparse"
	graphsvc "fastcontrol/internal/service/graph"
	"fastcontrol/internal/source"
)

// Deps holds the external dependencies that main() must provide.
type Deps struct {
	Cfg    *config.Config
	Pool   *db.Pool
	Logger *slog.Logger
	// HTTPClient is used for dump requests. Nil builds a client with
	// Cfg.Dump.Timeout.
	HTTPClient *http.Client
	// IDs overrides the identifier generator (UUIDv7 by default).
	IDs domain.IDGenerator
}

// App holds the fully-wired application.
type App struct {
	Graphs  *graphsvc.Service
	Handler *api.Handler
	Router  http.Handler

	limiter *middleware.RateLimiter
}

// New wires the repository, the import pipeline and the router. When
// Cfg.SeedExamples is set the bundled example graphs are created
// (best-effort).
func New(ctx context.Context, deps Deps) (*App, error) {
	cfg := deps.Cfg
	if cfg == nil || deps.Pool == nil || deps.Logger == nil {
		return nil, fmt.Errorf("app: config, pool and logger are required")
	}

	// === Repository ===
	graphRepo := repository.NewGraphRepo(deps.Pool.Write, deps.Pool.Read)

	// === Import pipeline ===
	ids := deps.IDs
	if ids == nil {
		ids = domain.UUIDGenerator{}
	}
	layout := graphops.DefaultLayout()
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	normalizer := graphops.NewNormalizer(ids, layout)

	var dumpSource domain.SchemaSource
	if cfg.Dump.URL != "" {
		client := deps.HTTPClient
		if client == nil {
			client = &http.Client{Timeout: cfg.Dump.Timeout}
		}
		provider := &source.HTTPDumpProvider{
			URL:      cfg.Dump.URL,
			Field:    cfg.Dump.Field,
			Dialect:  cfg.Dump.Dialect,
			Client:   client,
			MaxBytes: cfg.Dump.MaxBytes,
		}
		dumpSource = provider
		deps.Logger.Info("dump imports enabled", "source", provider.String(), "dialect", cfg.Dump.Dialect)
	}

	graphSvc := graphsvc.New(graphRepo, dumpSource, schemaparse.NewParser(), normalizer, deps.Logger)

	// === Seed examples ===
	if cfg.SeedExamples {
		if err := seedExamples(ctx, graphSvc, deps.Logger); err != nil {
			deps.Logger.Warn("seed examples failed", "error", err)
		}
	}

	// === HTTP ===
	opts := []api.Option{
		api.WithMaxBodyBytes(cfg.Dump.MaxBytes),
		api.WithReadinessCheck(func(r *http.Request) error {
			return deps.Pool.Read.PingContext(r.Context())
		}),
	}
	var validator middleware.JWTValidator
	if cfg.Auth.Enabled() {
		v, err := middleware.NewHS256Validator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		if err != nil {
			return nil, fmt.Errorf("jwt validator: %w", err)
		}
		validator = v
		opts = append(opts, api.WithAdminGuard(middleware.RequireAdmin))
	}
	handler := api.NewHandler(graphSvc, deps.Logger, opts...)

	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})

	return &App{
		Graphs:  graphSvc,
		Handler: handler,
		Router:  NewRouter(cfg, handler, limiter, validator, deps.Logger),
		limiter: limiter,
	}, nil
}

// Close releases background resources. It does not close the pool.
func (a *App) Close() {
	if a.limiter != nil {
		a.limiter.Close()
	}
}
