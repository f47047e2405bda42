package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Siddarth2230/shortcode/internal/handler"
	"github.com/Siddarth2230/shortcode/internal/logging"
	"github.com/Siddarth2230/shortcode/internal/service"
	"github.com/Siddarth2230/shortcode/pkg/cache"
)

// startupTimeout bounds connecting, migrating and seeding.
const startupTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Connect to the configured store, seed the counter from it and serve
POST /code and GET /code. The server refuses to start if the counter cannot
be seeded.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	repo, closeStore, err := openStore(startCtx, cfg, logger)
	if err != nil {
		logger.Error("store unavailable", slog.String("driver", cfg.Store.Driver), slog.Any("error", err))
		return errors.Wrap(err, "open store")
	}
	defer closeStore()

	opts := service.Options{CacheSize: cfg.Cache.Size, Logger: logger}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			DialTimeout: 5 * time.Second,
			ReadTimeout: 3 * time.Second,
		})
		defer func() { _ = client.Close() }()

		shared := cache.NewRedisCache(client, cfg.Redis.TTL)
		// The shared cache is optional; a dead redis only costs hit rate.
		if err := shared.Ping(startCtx); err != nil {
			logger.Warn("redis ping failed, continuing without shared cache",
				slog.String("addr", cfg.Redis.Addr), slog.Any("error", err))
		} else {
			opts.Shared = shared
		}
	}

	svc, err := service.Bootstrap(startCtx, repo, opts)
	if err != nil {
		logger.Error("cannot seed counter", slog.Any("error", err))
		return err
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: handler.NewRouter(svc, handler.RouterOptions{
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			RequestTimeout: cfg.Server.RequestTimeout,
			Logger:         logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", slog.Duration("timeout", cfg.Server.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		logger.Info("server stopped")
		return nil
	})
	return g.Wait()
}
