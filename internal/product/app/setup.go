// Package app contains the application setup for the product service.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/loja/cadastroprodutos/internal/config"
	"github.com/loja/cadastroprodutos/internal/product/events"
	"github.com/loja/cadastroprodutos/internal/product/migrations"
	"github.com/loja/cadastroprodutos/internal/product/service"
	"github.com/loja/cadastroprodutos/internal/product/store"
	grpcImpl "github.com/loja/cadastroprodutos/internal/product/transport/grpc"
	"github.com/loja/cadastroprodutos/internal/product/transport/rest"
	"github.com/loja/cadastroprodutos/pkg/auth"
	"github.com/loja/cadastroprodutos/pkg/bootstrap"
	pkgconfig "github.com/loja/cadastroprodutos/pkg/config"
	"github.com/loja/cadastroprodutos/pkg/messaging"
	pkgnats "github.com/loja/cadastroprodutos/pkg/nats"
	"github.com/loja/cadastroprodutos/pkg/server"
	"github.com/loja/cadastroprodutos/pkg/web"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"
)

type Dependencies struct {
	ProductService service.ProductService
	Logger         *slog.Logger
	// Verifier guards the mutating routes. Nil leaves them open.
	Verifier auth.Verifier
	// Metrics is served on /metrics when set.
	Metrics http.Handler
}

func SetupDependencies(productStore store.ProductStore, publisher messaging.Publisher, logger *slog.Logger) *Dependencies {
	return &Dependencies{
		ProductService: service.NewService(productStore, publisher, logger),
		Logger:         logger,
	}
}

// NewStore opens the store selected by cfg.Driver. For postgres the migrations are applied first when
// cfg.Migrate is set. The returned close func releases the pool.
func NewStore(ctx context.Context, cfg pkgconfig.DatabaseConfig, logger *slog.Logger) (store.ProductStore, func(), error) {
	if cfg.Driver == pkgconfig.DriverMemory {
		logger.Warn("Using the in-memory product store, data is lost on restart")
		return store.NewInMemoryStore(), func() {}, nil
	}

	if cfg.Migrate {
		if err := bootstrap.RunMigrations(migrations.FS, migrations.Dir, cfg.URL); err != nil {
			return nil, nil, err
		}
		logger.Info("Database migrations applied")
	}
	dbPool, err := bootstrap.NewDbPool(ctx, cfg.URL, cfg.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}
	logger.Info("Successfully connected to the database!")
	return store.NewPgStore(dbPool), dbPool.Close, nil
}

// NewPublisher connects to NATS, ensures the product stream and wraps the JetStream publisher in a
// circuit breaker. When NATS is disabled events are dropped.
func NewPublisher(ctx context.Context, cfg pkgconfig.NATSConfig, logger *slog.Logger) (messaging.Publisher, func(), error) {
	if !cfg.Enabled {
		return messaging.NewNoopPublisher(logger), func() {}, nil
	}

	nc, err := pkgnats.NewClient(cfg.Url, cfg.Timeout)
	if err != nil {
		return nil, nil, err
	}
	js, err := pkgnats.NewJetStreamContext(nc)
	if err != nil {
		return nil, nil, err
	}
	if _, err := pkgnats.EnsureStream(ctx, js, cfg.Stream, events.SubjectPrefix+">"); err != nil {
		nc.Close()
		return nil, nil, err
	}
	logger.Info("Connected to NATS", slog.String("url", nc.ConnectedUrlRedacted()), slog.String("stream", cfg.Stream))

	closeFn := func() { drain(nc, logger) }
	return messaging.NewBreakerPublisher(pkgnats.NewNatsPublisher(js), cfg.CircuitBreaker, logger), closeFn, nil
}

func drain(nc *nats.Conn, logger *slog.Logger) {
	if err := nc.Drain(); err != nil {
		logger.Error("Failed to drain NATS connection", slog.String("error", err.Error()))
		return
	}
	logger.Info("NATS connection drained")
}

// SetupHttpHandler builds the traced router with every product route.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics)
	}
	wireRoutes(mux, deps)
	return otelhttp.NewHandler(mux, "product-http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	var guards []func(http.Handler) http.Handler
	if deps.Verifier != nil {
		guards = append(guards, web.AuthMiddleware(deps.Verifier, deps.Logger))
	}
	productHandler := rest.NewHandler(deps.ProductService, deps.Logger)
	productHandler.RegisterRoutes(mux, guards...)
}

// SetupHttpServer creates and configures an HTTP server for the product service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, SetupHttpHandler(deps))
}

// SetupGrpcServer initializes the gRPC server exposing the catalog read API.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	productGRPCServer := grpcImpl.NewServer(deps.ProductService, deps.Logger)
	return server.NewGRPCServer(deps.Logger, reflectionEnabled, productGRPCServer.Registration())
}

// SetupPprofServer serves the runtime profiles under /debug on cfg.Addr.
func SetupPprofServer(cfg pkgconfig.PProfConfig) *http.Server {
	mux := chi.NewRouter()
	mux.Mount("/debug", middleware.Profiler())
	return &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}
}
