package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"spendboard/internal/amqp"
	"spendboard/internal/backend"
	"spendboard/internal/cache"
	"spendboard/internal/cli"
	"spendboard/internal/dashboard"
	apphttp "spendboard/internal/http"
	"spendboard/internal/log"
	"spendboard/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, logger := cli.LoadAndValidateConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendConfig)
	if err != nil {
		logger.Error("Failed to initialize data backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Close(); err != nil {
			logger.Warn("Failed to close data backend", log.FieldError, err)
		}
	}()

	svc := dashboard.NewService(result.Source, dashboard.Options{
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
		Logger:    logger,
	})

	cacheManager := cache.NewManager(logger.With(log.FieldComponent, log.ComponentCache).Logger)
	cacheManager.Register(svc.Results())
	cacheManager.StartCleanup(cfg.CacheTTL)
	defer cacheManager.Stop()

	refresher := worker.NewRefreshWorker(svc, cfg.RefreshInterval, logger)
	refresher.StartupLoad(ctx)

	serverOpts := apphttp.Options{Logger: logger}
	if history, ok := result.Source.(apphttp.ImportLog); ok {
		serverOpts.Imports = history
	}
	srv := apphttp.NewServer(":"+cfg.Port, svc, serverOpts)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting spendboard server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			log.FieldSource, result.Source.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return refresher.Run(gctx)
	})

	if cfg.AMQPEnabled() {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// The dashboard still serves without notifications.
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			g.Go(func() error {
				err := amqpClient.ConsumeRefresh(gctx, refresher.HandleRefresh)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
			logger.Info("Listening for dataset refresh notifications", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
