package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"txstats/internal/amqp"
	"txstats/internal/cli"
	apphttp "txstats/internal/http"
	"txstats/internal/log"
	"txstats/internal/services"
	"txstats/internal/storage"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	gateway, err := storage.NewGateway(ctx, cfg.Storage(), logger.WithComponent(log.ComponentStorage).Logger)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "backend", cfg.StorageBackend)
		os.Exit(1)
	}

	opts := services.Options{Logger: logger.WithComponent(log.ComponentUpload).Logger}
	checks := map[string]apphttp.Pinger{}

	if cfg.LedgerEnabled() {
		ledger, err := storage.OpenLedger(cfg.LedgerDBPath)
		if err != nil {
			logger.Error("Failed to open upload ledger", "error", err, "path", cfg.LedgerDBPath)
			os.Exit(1)
		}
		opts.Ledger = ledger
		checks["ledger"] = ledger
		logger.Info("Upload ledger enabled", "path", cfg.LedgerDBPath)
	} else {
		logger.Info("Upload ledger disabled")
	}

	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, upload events disabled", "error", err)
		} else {
			opts.Publisher = client
			logger.Info("Upload events enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewTransactionService(gateway, opts)

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:              logger,
		UploadRatePerMinute: cfg.UploadRatePerMinute,
		RequestTimeout:      cfg.RequestTimeout,
		Checks:              checks,
	})
	srv.WriteTimeout = cfg.RequestTimeout + 5*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	logger.Info("Starting txstats server",
		"port", cfg.Port,
		"storage", gateway.Location(),
		"max_upload_bytes", storage.MaxUploadBytes)
	if err := serve(ctx, srv, svc, logger); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// serve runs srv until ctx is done or the listener fails, then shuts it down
// and closes svc on every path.
func serve(ctx context.Context, srv *apphttp.Server, svc io.Closer, logger *log.Logger) error {
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close service", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
