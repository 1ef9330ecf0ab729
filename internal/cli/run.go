package cli

import (
	"github.com/spf13/cobra"

	"github.com/roksva123/taskbridge/internal/scheduler"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the Notion to ClickUp sync once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, func(a *app) *scheduler.Job { return a.syncJob })
	},
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Announce completed tasks on Teams once",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd, func(a *app) *scheduler.Job { return a.teamsJob })
	},
}

func init() {
	rootCmd.AddCommand(syncCmd, notifyCmd)
}

// runOnce runs a single job, prints its summary and fails when the run fails.
func runOnce(cmd *cobra.Command, pick func(*app) *scheduler.Job) error {
	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	summary, runErr := pick(a).Trigger(cmd.Context())
	if err := printJSON(cmd.OutOrStdout(), summary); err != nil {
		return err
	}
	return runErr
}
