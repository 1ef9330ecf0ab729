package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roksva123/taskbridge/internal/api"
	"github.com/roksva123/taskbridge/internal/api/handlers"
	"github.com/roksva123/taskbridge/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and the HTTP trigger endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	entries := []scheduler.Entry{{
		Job:       a.syncJob,
		Cron:      cfg.SyncCron,
		Timezone:  cfg.SyncTimezone,
		RunOnBoot: cfg.SyncRunOnBoot,
	}}
	if cfg.TeamsSyncEnabled {
		entries = append(entries, scheduler.Entry{
			Job:       a.teamsJob,
			Cron:      cfg.TeamsCron,
			Timezone:  cfg.TeamsTimezone,
			RunOnBoot: cfg.TeamsRunOnBoot,
		})
	} else {
		slog.Info("TEAMS_SYNC_ENABLED=false, teams job not scheduled")
	}

	sched, err := scheduler.New(entries...)
	if err != nil {
		return err
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	h := handlers.NewSyncHandler(a.syncJob, a.teamsJob, a.history(), cfg.TeamsSyncEnabled, a.teams.Configured())
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(h, cfg.TriggerJWTSecret),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if err := sched.Start(gctx); err != nil {
		return err
	}

	g.Go(func() error {
		slog.Info("server running", "port", cfg.Port, "auth", cfg.TriggerJWTSecret != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), sched.Stop(shutdownCtx))
	})

	return g.Wait()
}
