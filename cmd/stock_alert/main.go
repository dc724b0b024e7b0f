// Package main runs the stock alert consumer that watches product quantity updates on NATS JetStream.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/loja/cadastroprodutos/internal/product/client"
	"github.com/loja/cadastroprodutos/internal/stockalert"
	"github.com/loja/cadastroprodutos/internal/stockalert/config"
	"github.com/loja/cadastroprodutos/pkg/bootstrap"
	"github.com/loja/cadastroprodutos/pkg/config/configloader"
	"github.com/loja/cadastroprodutos/pkg/nats"
	"github.com/loja/cadastroprodutos/pkg/telemetry"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName = "stockalert"
	configFile  = "stock_alert.yaml"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run initializes the application, starts the NATS subscriber, and optionally starts the pprof server if enabled.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.Config](serviceName, configloader.WithConfigFile(configFile))
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	metrics, err := telemetry.NewMeterProvider(serviceName)
	if err != nil {
		return fmt.Errorf("failed to init meter provider: %w", err)
	}
	defer func() {
		if err := metrics.Provider.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shut down meter provider", "error", err)
		}
	}()

	natsConn, err := nats.NewClient(cfg.Nats.Url, cfg.Nats.Timeout)
	if err != nil {
		return fmt.Errorf("failed to create NATS connection: %w", err)
	}
	defer natsConn.Close()
	js, err := nats.NewJetStreamContext(natsConn)
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}

	catalog, err := client.New(cfg.Catalog)
	if err != nil {
		return fmt.Errorf("failed to create catalog client: %w", err)
	}
	defer func() {
		if err := catalog.Close(); err != nil {
			logger.Error("Failed to close catalog client", "error", err)
		}
	}()

	handler := stockalert.NewHandler(cfg.Consumer.Threshold, catalog, logger)
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("NATS subscriber started", "subject", cfg.Consumer.Subject(), "durable", cfg.Consumer.Durable,
			"threshold", cfg.Consumer.Threshold, "catalog", cfg.Catalog.Addr)
		err := stockalert.Start(gCtx, js, cfg.Consumer, handler, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("subscriber failed", "error", err)
			return err
		}
		logger.Info("subscriber stopped gracefully.")
		return nil
	})

	// The pprof server also exposes /metrics.
	if cfg.PProf.Enabled {
		mux := chi.NewRouter()
		mux.Mount("/debug", middleware.Profiler())
		mux.Handle("/metrics", metrics.Handler)
		pprofServer := &http.Server{
			Addr:    cfg.PProf.Addr,
			Handler: mux,
		}
		g.Go(func() error {
			logger.Info("Pprof server listening", slog.String("addr", pprofServer.Addr))
			if err := pprofServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("pprof server failed: %w", err)
			}
			return nil
		})
		// gracefully shutdown pprof server on context cancellation
		g.Go(func() error {
			<-gCtx.Done()
			logger.Info("Shutting down pprof server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
			defer cancel()
			return pprofServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}
