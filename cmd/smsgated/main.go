// Command smsgated serves the SMS verification endpoints of the local
// producer marketplace behind sliding-window rate limit gates. The
// whole dependency graph is assembled here: one store, one limiter
// engine, one policy table, shared by every gate.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pefocdelemne/ratelimit/core/config"
	"github.com/pefocdelemne/ratelimit/core/logger"
	"github.com/pefocdelemne/ratelimit/integration/database/mongo"
	"github.com/pefocdelemne/ratelimit/integration/database/redis"
	"github.com/pefocdelemne/ratelimit/middleware"
	"github.com/pefocdelemne/ratelimit/pkg/ratelimiter"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg appConfig
	config.MustLoad(&cfg) // panic on error

	logOpts := []logger.Option{logger.WithAttr(slog.String("app", "smsgated"))}
	if cfg.LogJSON {
		logOpts = append(logOpts, logger.WithJSONFormatter())
	}
	log := logger.New(logOpts...)

	backend, err := newBackend(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize rate limit store", logger.Component("store"), logger.Error(err))
		os.Exit(1)
	}
	defer backend.close()

	limiterOpts := []ratelimiter.Option{ratelimiter.WithLogger(log)}
	if cfg.FailClosed {
		limiterOpts = append(limiterOpts, ratelimiter.WithFailClosed())
	}
	engine := ratelimiter.New(backend.store, limiterOpts...)

	// Built-in per-endpoint defaults plus startup-time environment
	// overrides, resolved once and shared by every gate.
	policies := ratelimiter.NewPolicies(
		ratelimiter.WithEnvOverrides(ratelimiter.EndpointSMSVerify, ratelimiter.EndpointSMSConfirm),
	)

	verifyGate := middleware.RateLimit(middleware.RateLimitConfig{
		Endpoint:   ratelimiter.EndpointSMSVerify,
		Limiter:    engine,
		Policies:   policies,
		Logger:     log,
		SetHeaders: true,
	})
	confirmGate := middleware.RateLimit(middleware.RateLimitConfig{
		Endpoint:   ratelimiter.EndpointSMSConfirm,
		Limiter:    engine,
		Policies:   policies,
		Logger:     log,
		SetHeaders: true,
	})

	mux := http.NewServeMux()
	mux.Handle("POST /api/sms/verify", verifyGate(handleVerify(log)))
	mux.Handle("POST /api/sms/confirm", confirmGate(handleConfirm(log)))
	mux.Handle("GET /api/sms/quota", middleware.Quota(middleware.QuotaConfig{
		Limiter:  engine,
		Policies: policies,
	}))
	mux.Handle("GET /healthz", handleHealth(backend.health))

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	if backend.run != nil {
		g.Go(backend.run(gctx))
	}
	g.Go(func() error {
		log.Info("Server listening", logger.Component("server"), slog.String("addr", cfg.Addr), slog.String("store", cfg.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", logger.Component("server"), logger.Error(err))
		os.Exit(1)
	}
	log.Info("Server stopped", logger.Component("server"))
}

// backend bundles a store with its lifecycle hooks so main treats all
// three implementations uniformly.
type backend struct {
	store  ratelimiter.Store
	health func(ctx context.Context) error
	run    func(ctx context.Context) func() error
	close  func()
}

func newBackend(ctx context.Context, cfg appConfig, log *slog.Logger) (backend, error) {
	switch cfg.Store {
	case storeMemory:
		ms := ratelimiter.NewMemoryStore(ratelimiter.WithMemoryStoreLogger(log))
		return backend{
			store:  ms,
			health: ms.Healthcheck,
			run:    ms.Run,
			close:  func() {},
		}, nil

	case storeMongo:
		var mongoCfg mongo.Config
		if err := config.Load(&mongoCfg); err != nil {
			return backend{}, err
		}
		db, err := mongo.NewWithDatabase(ctx, mongoCfg, cfg.MongoDatabase)
		if err != nil {
			return backend{}, err
		}
		store := ratelimiter.NewMongoStore(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = db.Client().Disconnect(ctx)
			return backend{}, err
		}
		return backend{
			store:  store,
			health: mongo.Healthcheck(db.Client()),
			close:  func() { _ = db.Client().Disconnect(context.Background()) },
		}, nil

	case storeRedis:
		var redisCfg redis.Config
		if err := config.Load(&redisCfg); err != nil {
			return backend{}, err
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return backend{}, err
		}
		return backend{
			store:  ratelimiter.NewRedisStore(client),
			health: redis.Healthcheck(client),
			close:  func() { _ = client.Close() },
		}, nil

	default:
		return backend{}, fmt.Errorf("unknown store backend %q (want memory, mongo or redis)", cfg.Store)
	}
}
