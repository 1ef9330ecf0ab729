package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/roksva123/taskbridge/internal/model"
	"github.com/roksva123/taskbridge/internal/repository"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent job runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL not set, run history is disabled")
		}

		repo, err := repository.Open(cmd.Context(), cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer repo.Close()
		if err := repo.RunMigrations(cmd.Context()); err != nil {
			return err
		}

		rows, err := repo.GetSyncHistory(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if historyJSON {
			return printJSON(cmd.OutOrStdout(), rows)
		}
		if len(rows) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), historyTable(rows))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", repository.DefaultHistoryLimit, "number of runs to show")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(historyCmd)
}

func historyTable(rows []model.SyncHistory) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("STARTED", "JOB", "STATUS", "DURATION", "DETAILS")
	for _, h := range rows {
		t.Row(
			h.StartedAt.Local().Format(time.DateTime),
			h.Job,
			h.Status,
			(time.Duration(h.DurationMs) * time.Millisecond).String(),
			string(h.Details),
		)
	}
	return t.Render()
}
