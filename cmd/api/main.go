package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/teslimakintunde/shortlets-backend-api/internal/config"
	"github.com/teslimakintunde/shortlets-backend-api/internal/database"
	"github.com/teslimakintunde/shortlets-backend-api/internal/domain/payment"
	"github.com/teslimakintunde/shortlets-backend-api/internal/gateway"
	"github.com/teslimakintunde/shortlets-backend-api/internal/logger"
	"github.com/teslimakintunde/shortlets-backend-api/internal/migration"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/crypt"
	"github.com/teslimakintunde/shortlets-backend-api/internal/pkg/lock"
	"github.com/teslimakintunde/shortlets-backend-api/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zlog.Sync() }()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL, zlog)
	if err != nil {
		return err
	}
	if err := migration.Run(db); err != nil {
		return err
	}

	cipher, err := crypt.New(cfg.EncryptionKey)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var locker payment.Locker
	if cfg.RedisURL != "" {
		l, client, err := lock.NewFromURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		locker = l
	} else {
		zlog.Warn("REDIS_URL is empty, reconcile sweeps are not coordinated across instances")
	}

	app := server.New(server.Deps{
		Config:   cfg,
		DB:       db,
		Gateway:  gateway.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret),
		Cipher:   cipher,
		Log:      zlog,
		Registry: reg,
	}, locker)

	stopSweeps := app.Scheduler.Start(ctx, payment.SchedulerConfig{
		Enabled:  cfg.Reconciler.Enabled,
		Interval: cfg.Reconciler.Interval,
	})
	if stopSweeps != nil {
		defer close(stopSweeps)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("http server listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.AppEnv))
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

	zlog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
