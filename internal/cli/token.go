package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roksva123/taskbridge/internal/api/middleware"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the HTTP triggers",
	Long: `Issue an HS256 token signed with TRIGGER_JWT_SECRET, for callers such as
an external cron service. A zero --ttl issues a token that never expires.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, err := middleware.IssueToken(cfg.TriggerJWTSecret, tokenSubject, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "scheduler", "token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime, 0 for no expiry")
	rootCmd.AddCommand(tokenCmd)
}
