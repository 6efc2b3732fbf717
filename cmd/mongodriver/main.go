package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/jakestrouse00/mongodriver/handlers"
	"github.com/jakestrouse00/mongodriver/internal/auth"
	"github.com/jakestrouse00/mongodriver/internal/config"
	"github.com/jakestrouse00/mongodriver/internal/document"
	"github.com/jakestrouse00/mongodriver/internal/document/handler"
	"github.com/jakestrouse00/mongodriver/internal/snapshot"
	"github.com/jakestrouse00/mongodriver/internal/storage"
	"github.com/jakestrouse00/mongodriver/internal/store"
	"github.com/jakestrouse00/mongodriver/pkg/logger"
	"github.com/jakestrouse00/mongodriver/pkg/metrics"
	"github.com/jakestrouse00/mongodriver/pkg/middleware"
)

const connectAttempts = 5

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	addr := pflag.String("addr", "", "listen address (default SERVER_HOST:SERVER_PORT)")
	pflag.Parse()

	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Infof("config loaded: mongo=%v redis=%v auth=%v snapshots=%v",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.Auth.Enabled(), cfg.Snapshot.Dir != "" || cfg.Snapshot.MinIOEndpoint != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	driver := openDriver(ctx, cfg.MongoDB)
	defer func() {
		if err := driver.Close(); err != nil {
			logger.Warnf("disconnect: %v", err)
		}
	}()

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	checks := map[string]handlers.Check{"mongodb": driver.Ping}

	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
		}
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	handlers.RegisterHealth(r, time.Now(), checks)
	handlers.RegisterSwagger(r)
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/")
	verifier, err := auth.FromConfig(ctx, cfg.Auth)
	if err != nil {
		logger.Fatalf("failed to initialize token verifier: %v", err)
	}
	if verifier != nil {
		api.Use(middleware.AuthMiddleware(verifier))
	} else {
		logger.Warnf("auth disabled: set AUTH_OIDC_ISSUER or AUTH_JWT_SECRET to protect /api")
	}
	// after auth so authenticated callers are limited per subject
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			api.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			api.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	handler.RegisterDocumentRoutes(api, driver)
	sink, err := storage.FromConfig(ctx, cfg.Snapshot)
	switch {
	case errors.Is(err, storage.ErrNoSink):
		logger.Infof("snapshots disabled: set SNAPSHOT_DIR or MINIO_ENDPOINT to enable")
	case err != nil:
		logger.Fatalf("failed to initialize snapshot storage: %v", err)
	default:
		handler.RegisterSnapshotRoutes(api, snapshot.NewExporter(driver, sink))
		logger.Infof("snapshots go to %s", sink.Name())
	}

	listen := *addr
	if listen == "" {
		listen = fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	}
	srv := &http.Server{
		Addr:         listen,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("mongodriver listening on %s", listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

// openDriver binds the configured collection, retrying with backoff to ride
// out startup races. Without a URI the service runs on an in-memory store.
func openDriver(ctx context.Context, cfg config.MongoDBConfig) *document.Driver {
	if cfg.URI == "" {
		logger.Warnf("MONGODB_URI not set: using in-memory store, data is lost on exit")
		return document.New(store.NewInstrumented(store.NewMemory()))
	}
	dcfg := document.Config{URI: cfg.URI, Database: cfg.Database, Collection: cfg.Collection, Timeout: cfg.Timeout}
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		dr, err := document.Open(ctx, dcfg)
		if err == nil {
			return dr
		}
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, connectAttempts, err)
		if attempt < connectAttempts {
			select {
			case <-ctx.Done():
				logger.Fatalf("interrupted while connecting to MongoDB")
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	logger.Fatalf("could not connect to MongoDB after %d attempts: %v", connectAttempts, lastErr)
	return nil
}
