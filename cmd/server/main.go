package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/qs-lzh/movie-booking/config"
	"github.com/qs-lzh/movie-booking/internal/app"
	"github.com/qs-lzh/movie-booking/internal/cache"
	"github.com/qs-lzh/movie-booking/internal/handler"
	"github.com/qs-lzh/movie-booking/internal/logger"
	"github.com/qs-lzh/movie-booking/internal/mq"
	"github.com/qs-lzh/movie-booking/internal/repository"
	"github.com/qs-lzh/movie-booking/internal/repository/memory"
	"github.com/qs-lzh/movie-booking/internal/tracing"
	"github.com/qs-lzh/movie-booking/internal/util"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	zl, err := logger.New(cfg.Env, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	os.Exit(exitCode(zl, run(cfg, zl)))
}

// exitCode logs err and flushes the logger before the process exits.
func exitCode(zl *zap.Logger, err error) int {
	if err != nil {
		zl.Error("server stopped", zap.Error(err))
	}
	_ = zl.Sync()
	if err != nil {
		return 1
	}
	return 0
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, "movie-booking", cfg.OTLPEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			zl.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	store, err := openStore(cfg, zl)
	if err != nil {
		return err
	}

	var redisCache *cache.RedisCache
	if cfg.CacheURL != "" {
		redisCache, err = cache.NewRedisCache(ctx, cfg.CacheURL, cfg.SeatCacheTTL)
		if err != nil {
			return err
		}
	} else {
		zl.Info("CACHE_URL not set, seat map cache disabled")
	}

	var mqConn *amqp.Connection
	if cfg.MQURL != "" {
		mqConn, err = mq.NewMQConn(cfg.MQURL)
		if err != nil {
			return err
		}
	} else {
		zl.Info("RABBIT_MQ_URL not set, reservation events disabled")
	}

	application := app.New(cfg, store, redisCache, mqConn, zl, util.SystemClock{})
	defer func() {
		if err := application.Close(); err != nil {
			zl.Warn("close app", zap.Error(err))
		}
	}()
	if err := application.Init(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.NewRouter(application),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server listening", zap.String("addr", cfg.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(cfg *config.Config, zl *zap.Logger) (repository.Store, error) {
	if cfg.DatabaseDSN == "" {
		zl.Warn("DATABASE_DSN not set, using in-memory store")
		return memory.New(cfg.BookingLockTimeout), nil
	}
	db, err := repository.OpenPostgres(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(db); err != nil {
		return nil, err
	}
	return repository.NewGormStore(db, cfg.BookingLockTimeout), nil
}
