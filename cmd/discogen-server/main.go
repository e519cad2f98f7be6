package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"discogen/internal/audit"
	"discogen/internal/config"
	"discogen/internal/discovery"
	"discogen/internal/logging"
	"discogen/internal/metrics"
	"discogen/internal/ratelimit"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (optional)")
	listen := flag.String("listen", "", "Listen address (overrides config)")
	logFormat := flag.String("log-format", "", "Log output format: text, json (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	cfg := &config.Config{}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("config error", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg.ApplyDefaults()
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	logger := logging.ForComponent(logging.Setup(cfg.Log.Format, cfg.Log.Level), "server")

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	srv := &server{
		cfg:       cfg,
		logger:    logger,
		directory: discovery.NewDirectory(cfg.DirectoryURL, timeout),
		fetcher:   discovery.NewFetcher(timeout),
		collector: metrics.NewCollector(),
	}

	if cfg.AuditDB != "" {
		auditLog, err := audit.NewLogger(cfg.AuditDB)
		if err != nil {
			slog.Error("audit database error", "error", err)
			os.Exit(1)
		}
		defer auditLog.Close()
		srv.auditLog = auditLog
	}

	if cfg.RateLimit != nil && (cfg.RateLimit.PerMinute > 0 || cfg.RateLimit.PerHour > 0) {
		srv.limits = ratelimit.NewRegistry(cfg.RateLimit.PerMinute, cfg.RateLimit.PerHour)
	}

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("server listening", "addr", cfg.Listen, "directory", cfg.DirectoryURL)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
