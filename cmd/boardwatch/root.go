package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/boardwatch/boardwatch/internal/adapter"
	"github.com/boardwatch/boardwatch/internal/collector"
	"github.com/boardwatch/boardwatch/internal/config"
	"github.com/boardwatch/boardwatch/internal/department"
	"github.com/boardwatch/boardwatch/internal/model"
	"github.com/boardwatch/boardwatch/internal/ratelimit"
	"github.com/boardwatch/boardwatch/internal/reconcile"
	"github.com/boardwatch/boardwatch/internal/retry"
	"github.com/boardwatch/boardwatch/internal/store"
	"github.com/boardwatch/boardwatch/internal/telemetry"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "boardwatch",
	Short: "Job board tracker",
	Long:  "Boardwatch polls employer job boards and records every posting change.",
	// Default to `serve` so invoking the binary directly runs the daemon.
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: BOARDWATCH_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path flag > BOARDWATCH_CONFIG env var > "./config.yaml"
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		if env := os.Getenv("BOARDWATCH_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (model.Store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		logger.Info("using postgres store")
		return store.OpenPostgres(ctx, cfg.Storage.DSN, logger)
	default:
		logger.Info("using sqlite store", "path", cfg.Storage.DSN)
		return store.OpenSQLite(cfg.Storage.DSN, logger)
	}
}

// buildAdapterFactory wires the per-employer adapter stack: the raw ATS
// client wrapped with shared per-source rate limiting and fetch retries.
func buildAdapterFactory(cfg config.Config, logger *slog.Logger) collector.AdapterFactory {
	client := &http.Client{Timeout: cfg.HTTPTimeout.Std()}
	limiter := ratelimit.NewLimiter(cfg.RateLimitInterval.Std())

	return func(emp model.Employer) (model.SourceAdapter, error) {
		var a model.SourceAdapter
		switch emp.Source {
		case model.SourceAshby:
			a = adapter.NewAshbyAdapter(emp.BoardIdentifier, client, logger)
		case model.SourceGreenhouse:
			a = adapter.NewGreenhouseAdapter(emp.BoardIdentifier, client, logger)
		default:
			return nil, fmt.Errorf("unsupported source %q for employer %s", emp.Source, emp.Name)
		}
		a = ratelimit.NewLimitedAdapter(a, emp.Source, limiter)
		a = retry.NewAdapter(a, cfg.FetchRetries, 5*time.Second, logger)
		return a, nil
	}
}

func buildFailureSink(cfg config.Config, st model.Store, logger *slog.Logger) model.FailureSink {
	sinks := telemetry.MultiSink{
		telemetry.NewLogSink(logger),
		telemetry.NewStoreSink(st, logger),
	}
	if cfg.Telemetry.SlackWebhookURL != "" {
		logger.Info("slack failure notifications enabled")
		sinks = append(sinks, telemetry.NewSlackSink(cfg.Telemetry.SlackWebhookURL, logger))
	}
	return sinks
}

func buildCollector(cfg config.Config, st model.Store, classifier *department.Classifier, logger *slog.Logger) *collector.Collector {
	engine := reconcile.NewEngine(st, classifier, cfg.StaleAfter.Std(), logger)
	return collector.New(
		st,
		engine,
		buildAdapterFactory(cfg, logger),
		buildFailureSink(cfg, st, logger),
		cfg.EmployerDelay.Std(),
		logger,
	)
}
