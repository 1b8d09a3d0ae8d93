package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/boardwatch/boardwatch/internal/collector"
	"github.com/boardwatch/boardwatch/internal/department"
	"github.com/boardwatch/boardwatch/internal/model"
	"github.com/boardwatch/boardwatch/internal/trigger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the collection daemon",
	Long:  "Run scheduled collection cycles; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// cycleKicker starts an off-schedule cycle for the HTTP trigger.
type cycleKicker struct {
	coll *collector.Collector
	run  func()
}

func (k *cycleKicker) Kick() error {
	if k.coll.Busy() {
		return collector.ErrCollectionRunning
	}
	go k.run()
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"interval", cfg.PollingInterval.Std().String(),
		"storage", cfg.Storage.Driver,
		"stale_after", cfg.StaleAfter.Std().String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	classifier := department.NewClassifier(st)
	coll := buildCollector(cfg, st, classifier, logger)

	runCycle := func() {
		_, err := coll.Run(ctx, collector.Options{})
		switch {
		case err == nil, errors.Is(err, context.Canceled):
		case errors.Is(err, collector.ErrCollectionRunning):
			logger.Warn("skipping cycle, previous one still running")
		default:
			logger.Error("collection cycle failed", "error", err)
		}
	}

	sched := cron.New()
	if _, err := sched.AddFunc(fmt.Sprintf("@every %s", cfg.PollingInterval.Std()), runCycle); err != nil {
		return fmt.Errorf("scheduling collection: %w", err)
	}
	if _, err := sched.AddFunc("@every 24h", func() {
		pruneChanges(ctx, st, cfg.ChangeRetention.Std(), logger)
	}); err != nil {
		return fmt.Errorf("scheduling retention prune: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	var srv *trigger.Server
	if cfg.Trigger.Addr != "" {
		srv = trigger.New(cfg.Trigger.Addr, cfg.Trigger.Secret, &cycleKicker{coll: coll, run: runCycle}, logger)
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				logger.Error("trigger server failed", "error", err)
			}
		}()
	}

	// First cycle right away; the cron entry covers the rest.
	go runCycle()

	<-ctx.Done()
	logger.Info("shutting down")
	if srv != nil {
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Warn("trigger server shutdown", "error", err)
		}
	}
	return nil
}

func pruneChanges(ctx context.Context, st model.Store, retention time.Duration, logger *slog.Logger) {
	pruned, err := st.PruneChanges(ctx, retention)
	if err != nil {
		logger.Error("pruning old changes", "error", err)
		return
	}
	if pruned > 0 {
		logger.Info("pruned old changes", "removed", pruned)
	}
}
