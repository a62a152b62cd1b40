// Package main is the entry point for the msaada workflow server.
// It wires all dependencies together and starts the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pitabwire/msaada/internal/capability"
	"github.com/pitabwire/msaada/internal/config"
	"github.com/pitabwire/msaada/internal/notify"
	"github.com/pitabwire/msaada/internal/observability"
	"github.com/pitabwire/msaada/internal/role"
	"github.com/pitabwire/msaada/internal/routes"
	"github.com/pitabwire/msaada/internal/transport"
	"github.com/pitabwire/msaada/internal/workflow"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, "msaada", version)
	if err != nil {
		logger.Error("tracing initialization failed", zap.Error(err))
		return 1
	}

	metrics := observability.InitMetrics(prometheus.DefaultRegisterer)

	// Role catalog and capability evaluation.
	catalog := role.NewCatalog()
	if cfg.Roles.File != "" {
		if err := catalog.LoadFile(cfg.Roles.File); err != nil {
			logger.Error("role catalog load failed", zap.Error(err))
			return 1
		}
	}
	evaluator := capability.NewEvaluator(catalog)
	resolver := capability.NewResolver(evaluator, cfg.Capability.Cache.TTL).
		WithCacheObserver(metrics.RecordCapabilityCacheHit, metrics.RecordCapabilityCacheMiss)

	// Route table and access policy. No testing override in production.
	table := routes.NewTable()
	if cfg.Routes.File != "" {
		if err := table.LoadFile(cfg.Routes.File); err != nil {
			logger.Error("route table load failed", zap.Error(err))
			return 1
		}
	}
	policy := routes.NewPolicy(table, nil, logger)

	// Workflow engine over the configured store.
	store, storeCloser, err := buildWorkflowStore(ctx, cfg.Workflow.Store, logger)
	if err != nil {
		logger.Error("workflow store initialization failed", zap.Error(err))
		return 1
	}

	engine := workflow.NewEngine(workflow.NewGraph(), store, store, logger)
	visits := workflow.NewVisitWorkflow(store, logger)

	// Change notifications keep the capability cache honest.
	broker := notify.NewBroker(resolver, cfg.Notify.Buffer, logger).
		WithFlushObserver(metrics.RecordCacheFlush)
	broker.Start(ctx)

	jwks := transport.NewJWKSClient(cfg.Identity.JWKSURL, cfg.Identity.JWKSCacheTTL, logger)

	readiness := observability.ReadinessChecks{
		RolesLoaded:  func() bool { return len(catalog.All()) > 0 },
		RoutesLoaded: func() bool { return len(table.All()) > 0 },
	}
	if pinger, ok := store.(observability.Pinger); ok {
		readiness.WorkflowStore = pinger
	}

	handler := transport.NewHandler(engine, visits, catalog, evaluator, policy, metrics, logger)
	router := transport.NewRouter(transport.Dependencies{
		Config:       cfg,
		Logger:       logger,
		Metrics:      metrics,
		Authenticate: transport.JWTAuthenticator(cfg.Identity, jwks),
		Capabilities: resolver,
		Handler:      handler,
		Policy:       policy,
		Readiness:    readiness,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("store", cfg.Workflow.Store.Driver),
		zap.Int("roles", len(catalog.All())),
		zap.Int("routes", len(table.All())),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new connections and drain in-flight requests.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	broker.Close()

	if storeCloser != nil {
		storeCloser()
	}

	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return 0
}

// workflowStore is the combined persistence surface the engine and visit
// workflow share.
type workflowStore interface {
	workflow.RequestStore
	workflow.FieldVisitStore
}

// buildWorkflowStore creates the request/visit store based on config.
func buildWorkflowStore(ctx context.Context, cfg config.WorkflowStoreConfig, logger *zap.Logger) (workflowStore, func(), error) {
	switch cfg.Driver {
	case "memory":
		logger.Info("using in-memory workflow store")
		return workflow.NewMemoryStore(), nil, nil
	case "postgres", "":
		dsn := os.Getenv(cfg.DSNEnv)
		if dsn == "" {
			return nil, nil, fmt.Errorf("workflow store: %s environment variable not set", cfg.DSNEnv)
		}

		poolCfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("workflow store: parse DSN: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("workflow store: connect: %w", err)
		}

		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("workflow store: ping: %w", err)
		}

		return workflow.NewPgStore(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported workflow store driver: %q", cfg.Driver)
	}
}
