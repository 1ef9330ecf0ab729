package cli

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/roksva123/taskbridge/internal/api/handlers"
	"github.com/roksva123/taskbridge/internal/config"
	"github.com/roksva123/taskbridge/internal/directory"
	"github.com/roksva123/taskbridge/internal/mapper"
	"github.com/roksva123/taskbridge/internal/model"
	"github.com/roksva123/taskbridge/internal/notify"
	"github.com/roksva123/taskbridge/internal/notion"
	"github.com/roksva123/taskbridge/internal/repository"
	"github.com/roksva123/taskbridge/internal/scheduler"
	"github.com/roksva123/taskbridge/internal/service"
)

// app holds the wired services shared by the commands.
type app struct {
	cfg      *config.Config
	repo     *repository.HistoryRepo
	teams    *notify.TeamsClient
	syncJob  *scheduler.Job
	teamsJob *scheduler.Job
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	users := directory.Default()
	if cfg.UserDirectoryFile != "" {
		d, err := directory.Load(cfg.UserDirectoryFile)
		if err != nil {
			return nil, err
		}
		users = d
	}

	a := &app{cfg: cfg}
	var recorder scheduler.Recorder
	if cfg.DatabaseURL != "" {
		repo, err := repository.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := repo.RunMigrations(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		a.repo = repo
		recorder = repo
	} else {
		slog.Info("DATABASE_URL not set, run history disabled")
	}

	source := notion.NewClient(cfg.NotionToken, cfg.NotionDatabaseID, &http.Client{Timeout: cfg.HTTPTimeout})
	m := mapper.New(users, cfg.TaskIDProperty, cfg.ErrorMessageProperty)

	a.teams = notify.NewTeamsClient(cfg.TeamsWebhookURL, cfg.HTTPTimeout)
	mailer := notify.NewMailer(cfg.ResendAPIKey, cfg.EmailFrom, cfg.EmailRecipients)
	dispatcher := notify.NewDispatcher(a.teams, mailer, cfg.NotifySyncEmail)

	syncSvc := &service.SyncService{
		Source:     source,
		Tasks:      service.NewClickUpService(cfg.ClickUpToken, cfg.ClickUpBaseURL, cfg.HTTPTimeout),
		Mapper:     m,
		Notifier:   dispatcher,
		DatabaseID: cfg.NotionDatabaseID,
		ListID:     cfg.ClickUpListID,
		Props: service.SyncProperties{
			Flag:         cfg.SyncFlagProperty,
			TaskID:       cfg.TaskIDProperty,
			ErrorFlag:    cfg.ErrorFlagProperty,
			ErrorMessage: cfg.ErrorMessageProperty,
		},
	}
	completion := &service.CompletionService{
		Source:     source,
		Composer:   notify.NewComposer(m, users, cfg.NotifyMentions),
		Chat:       a.teams,
		Email:      dispatcher,
		DatabaseID: cfg.NotionDatabaseID,
		NotifyFlag: cfg.NotifyFlagProperty,
		TaskIDProp: cfg.TaskIDProperty,
	}

	a.syncJob = scheduler.NewJob("sync", func(ctx context.Context) (model.RunSummary, error) {
		if err := cfg.ValidateSync(); err != nil {
			return model.RunSummary{Job: "sync"}, err
		}
		return syncSvc.RunSync(ctx)
	}, recorder)
	a.teamsJob = scheduler.NewJob("teams", func(ctx context.Context) (model.RunSummary, error) {
		if err := cfg.ValidateCompletion(); err != nil {
			return model.RunSummary{Job: "teams"}, err
		}
		return completion.RunCompletion(ctx)
	}, recorder)

	return a, nil
}

// history returns the history reader, or a nil interface when no database is configured.
func (a *app) history() handlers.HistoryReader {
	if a.repo == nil {
		return nil
	}
	return a.repo
}

func (a *app) Close() {
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			slog.Warn("closing history database", "error", err)
		}
	}
}
