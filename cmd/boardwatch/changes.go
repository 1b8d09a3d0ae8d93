package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/boardwatch/boardwatch/internal/changes"
)

var changesLimit int

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Browse the recent change feed",
	RunE:  runChanges,
}

func init() {
	changesCmd.Flags().IntVar(&changesLimit, "limit", 100, "maximum number of changes to load")
	rootCmd.AddCommand(changesCmd)
}

func runChanges(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	st, err := openStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	return changes.Run(st, changesLimit)
}
