package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/boardwatch/boardwatch/internal/department"
)

var departmentsCmd = &cobra.Command{
	Use:   "departments",
	Short: "Manage the department taxonomy",
}

var departmentsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync departments from the seed file into the store",
	RunE:  runDepartmentsSync,
}

var departmentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored departments",
	RunE:  runDepartmentsList,
}

func init() {
	departmentsCmd.AddCommand(departmentsSyncCmd, departmentsListCmd)
	rootCmd.AddCommand(departmentsCmd)
}

func runDepartmentsSync(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	deps, err := department.LoadSeed(cfg.DepartmentsFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := department.Sync(ctx, st, deps); err != nil {
		return err
	}
	logger.Info("departments synced", "count", len(deps), "file", cfg.DepartmentsFile)
	return nil
}

func runDepartmentsList(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	deps, err := st.ListDepartments(ctx)
	if err != nil {
		return err
	}
	for _, d := range deps {
		fmt.Printf("%-24s %d keywords\n", d.Name, len(d.Keywords))
	}
	return nil
}
