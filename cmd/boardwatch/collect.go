package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/boardwatch/boardwatch/internal/collector"
	"github.com/boardwatch/boardwatch/internal/department"
)

var (
	collectEmployer string
	collectDryRun   bool
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run one collection cycle and exit",
	RunE:  runCollect,
}

func init() {
	collectCmd.Flags().StringVar(&collectEmployer, "employer", "", "collect a single employer (id, name, or board identifier)")
	collectCmd.Flags().BoolVar(&collectDryRun, "dry-run", false, "compute and log diffs without writing anything")
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

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

	sum, err := coll.Run(ctx, collector.Options{
		Employer: collectEmployer,
		DryRun:   collectDryRun,
	})
	if err != nil {
		return fmt.Errorf("collection cycle: %w", err)
	}

	fmt.Printf("employers: %d  failed: %d  added: %d  updated: %d  removed: %d  stale: %d\n",
		sum.Employers, sum.Failed, sum.Added, sum.Updated, sum.Removed, sum.Stale)
	return nil
}
