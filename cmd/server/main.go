// Package main provides the entry point for the preprint resolver HTTP server.
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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/helixir/preprint-resolver/internal/config"
	"github.com/helixir/preprint-resolver/internal/embedding"
	"github.com/helixir/preprint-resolver/internal/match"
	"github.com/helixir/preprint-resolver/internal/observability"
	"github.com/helixir/preprint-resolver/internal/resolver"
	httpserver "github.com/helixir/preprint-resolver/internal/server/http"
	"github.com/helixir/preprint-resolver/internal/sources/biorxiv"
	"github.com/helixir/preprint-resolver/internal/sources/crossref"
	"github.com/helixir/preprint-resolver/internal/sources/pubmed"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("preprint-resolver server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Set up Prometheus metrics when enabled.
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics("preprint_resolver")
	}

	// Build the resolution pipeline.
	res, err := buildResolver(cfg, logger, metrics)
	if err != nil {
		return err
	}

	httpCfg := httpserver.Config{
		Address:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}
	httpSrv := httpserver.NewServer(httpCfg, res, logger)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.MetricsPort),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	// Start HTTP REST API server in background.
	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start metrics server if configured.
	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().Str("http_address", httpCfg.Address)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("preprint-resolver is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down preprint-resolver")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Msg("shutdown complete")
	return nil
}

// buildResolver wires the external source clients, the embedding-backed
// similarity scorer, and the author matcher into a Resolver.
func buildResolver(cfg *config.Config, logger zerolog.Logger, metrics *observability.Metrics) (*resolver.Resolver, error) {
	biorxivClient := biorxiv.New(biorxiv.Config{
		BaseURL:   cfg.BioRxiv.BaseURL,
		Timeout:   cfg.BioRxiv.Timeout,
		RateLimit: cfg.BioRxiv.RateLimit,
	})

	crossrefClient := crossref.New(crossref.Config{
		BaseURL:   cfg.Crossref.BaseURL,
		MailTo:    cfg.Crossref.MailTo,
		Timeout:   cfg.Crossref.Timeout,
		RateLimit: cfg.Crossref.RateLimit,
	})

	pubmedClient := pubmed.New(pubmed.Config{
		BaseURL:   cfg.PubMed.BaseURL,
		APIKey:    cfg.PubMed.APIKey,
		Email:     cfg.PubMed.Email,
		Timeout:   cfg.PubMed.Timeout,
		RateLimit: cfg.PubMed.RateLimit,
		RetMax:    cfg.Resolver.RetMax,
	})

	provider := embedding.NewOllamaProvider(
		embedding.WithBaseURL(cfg.Embedding.BaseURL),
		embedding.WithModel(cfg.Embedding.Model),
		embedding.WithDimensions(cfg.Embedding.Dimensions),
		embedding.WithTimeout(cfg.Embedding.Timeout),
	)

	stopwords := match.DefaultStopwords()
	if cfg.Resolver.StopwordFile != "" {
		var err error
		stopwords, err = match.LoadStopwords(cfg.Resolver.StopwordFile)
		if err != nil {
			return nil, fmt.Errorf("load stopword file: %w", err)
		}
	}

	return resolver.New(
		biorxivClient,
		crossrefClient,
		pubmedClient,
		match.NewScorer(provider, stopwords),
		match.NewMatcher(match.FormatFullName),
		stopwords,
		resolver.Config{RetMax: cfg.Resolver.RetMax},
		logger,
		metrics,
	), nil
}
