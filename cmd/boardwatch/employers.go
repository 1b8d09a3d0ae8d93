package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/boardwatch/boardwatch/internal/model"
)

var (
	employerName   string
	employerSource string
	employerBoard  string
	employerURL    string
)

// employerAdmin is implemented by both store backends.
type employerAdmin interface {
	SeedEmployer(ctx context.Context, e model.Employer) error
	RetireEmployer(ctx context.Context, id string) error
}

var employersCmd = &cobra.Command{
	Use:   "employers",
	Short: "Manage tracked employers",
}

var employersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Start tracking an employer's job board",
	RunE:  runEmployersAdd,
}

var employersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active employers",
	RunE:  runEmployersList,
}

var employersRemoveCmd = &cobra.Command{
	Use:   "remove <name|board>",
	Short: "Stop tracking an employer",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmployersRemove,
}

func init() {
	employersAddCmd.Flags().StringVar(&employerName, "name", "", "employer display name")
	employersAddCmd.Flags().StringVar(&employerSource, "source", "", "ATS kind: ashby or greenhouse")
	employersAddCmd.Flags().StringVar(&employerBoard, "board", "", "ATS board identifier (slug)")
	employersAddCmd.Flags().StringVar(&employerURL, "url", "", "public board URL")
	employersAddCmd.MarkFlagRequired("name")
	employersAddCmd.MarkFlagRequired("source")
	employersAddCmd.MarkFlagRequired("board")

	employersCmd.AddCommand(employersAddCmd, employersListCmd, employersRemoveCmd)
	rootCmd.AddCommand(employersCmd)
}

func runEmployersAdd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	source := model.SourceKind(employerSource)
	switch source {
	case model.SourceAshby, model.SourceGreenhouse:
	default:
		return fmt.Errorf("unsupported source %q, want ashby or greenhouse", employerSource)
	}

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

	admin, ok := st.(employerAdmin)
	if !ok {
		return fmt.Errorf("store backend does not support managing employers")
	}

	now := time.Now().UTC()
	emp := model.Employer{
		ID:              uuid.NewString(),
		Name:            employerName,
		Source:          source,
		BoardIdentifier: employerBoard,
		BoardURL:        employerURL,
		Status:          model.EmployerActive,
		CreatedAt:       now,
	}
	if err := admin.SeedEmployer(ctx, emp); err != nil {
		return err
	}
	err = st.InsertChanges(ctx, []model.JobChange{{
		ID:         uuid.NewString(),
		EmployerID: emp.ID,
		Type:       model.ChangeTrackStart,
		CreatedAt:  now,
	}})
	if err != nil {
		return err
	}
	logger.Info("employer added", "name", emp.Name, "source", emp.Source, "board", emp.BoardIdentifier)
	return nil
}

func runEmployersRemove(cmd *cobra.Command, args []string) error {
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

	admin, ok := st.(employerAdmin)
	if !ok {
		return fmt.Errorf("store backend does not support managing employers")
	}

	employers, err := st.ListActiveEmployers(ctx)
	if err != nil {
		return err
	}
	var target *model.Employer
	for i, e := range employers {
		if strings.EqualFold(e.Name, args[0]) || strings.EqualFold(e.BoardIdentifier, args[0]) {
			target = &employers[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("no active employer matches %q", args[0])
	}

	if err := admin.RetireEmployer(ctx, target.ID); err != nil {
		return err
	}
	err = st.InsertChanges(ctx, []model.JobChange{{
		ID:         uuid.NewString(),
		EmployerID: target.ID,
		Type:       model.ChangeTrackStop,
		CreatedAt:  time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	logger.Info("employer removed", "name", target.Name, "board", target.BoardIdentifier)
	return nil
}

func runEmployersList(cmd *cobra.Command, args []string) error {
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

	employers, err := st.ListActiveEmployers(ctx)
	if err != nil {
		return err
	}
	for _, e := range employers {
		updated := "never"
		if e.LastUpdated != nil {
			updated = e.LastUpdated.Local().Format("2006-01-02 15:04")
		}
		fmt.Printf("%-24s %-11s %-20s jobs=%-4d updated=%s\n",
			e.Name, e.Source, e.BoardIdentifier, e.TotalJobsCount, updated)
	}
	return nil
}
