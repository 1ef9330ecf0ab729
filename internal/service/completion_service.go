package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jomei/notionapi"

	"github.com/roksva123/taskbridge/internal/config"
	"github.com/roksva123/taskbridge/internal/mapper"
	"github.com/roksva123/taskbridge/internal/model"
	"github.com/roksva123/taskbridge/internal/notify"
	"github.com/roksva123/taskbridge/internal/notion"
)

// CompletionSource is the Notion side of the completion job.
type CompletionSource interface {
	QueryChecked(ctx context.Context, property string) ([]notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, props notionapi.Properties) error
}

// ChatPoster delivers a message to the team channel.
type ChatPoster interface {
	Configured() bool
	Post(ctx context.Context, payload any) error
}

// EmailNotifier emails the configured recipients.
type EmailNotifier interface {
	NotifyByEmail(ctx context.Context, n model.SyncOutcome)
}

// CompletionService announces completed tasks on Teams.
type CompletionService struct {
	Source     CompletionSource
	Composer   *notify.Composer
	Chat       ChatPoster
	Email      EmailNotifier
	DatabaseID string
	NotifyFlag string
	TaskIDProp string
}

// RunCompletion notifies every page with the notification flag set.
// A page whose Teams message fails keeps its flag and is retried next run.
func (s *CompletionService) RunCompletion(ctx context.Context) (model.RunSummary, error) {
	summary := model.RunSummary{Job: "teams"}

	if s.DatabaseID == "" {
		return summary, fmt.Errorf("%w: NOTION_DATABASE_ID", config.ErrMissingConfig)
	}
	if s.Chat == nil || !s.Chat.Configured() {
		slog.Warn("TEAMS_WEBHOOK_URL not configured, skipping teams sync")
		summary.Skipped = true
		summary.Reason = "TEAMS_WEBHOOK_URL not configured"
		return summary, nil
	}

	pages, err := s.Source.QueryChecked(ctx, s.NotifyFlag)
	if err != nil {
		return summary, err
	}
	if len(pages) == 0 {
		slog.Info("no pages flagged for notification")
		return summary, nil
	}
	slog.Info("pages flagged for notification", "count", len(pages))

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("teams sync interrupted: %w", err)
		}
		summary.Processed++
		if err := s.notifyPage(ctx, page); err != nil {
			summary.Failed++
			slog.Error("failed to notify teams", "page_id", string(page.ID), "error", err)
			continue
		}
		summary.Notified++
	}

	slog.Info("teams sync complete", "processed", summary.Processed, "notified", summary.Notified, "failed", summary.Failed)
	return summary, nil
}

func (s *CompletionService) notifyPage(ctx context.Context, page notionapi.Page) error {
	pageID := string(page.ID)
	slog.Info("composing teams notification", "page_id", pageID)

	msg := s.Composer.Compose(page)
	if err := s.Chat.Post(ctx, msg); err != nil {
		return err
	}
	slog.Info("teams notification sent", "page_id", pageID)

	// Posted; finish the page even if ctx is cancelled so the message is not sent twice.
	ctx = context.WithoutCancel(ctx)

	if taskID := notion.TaskID(page, s.TaskIDProp); taskID != "" {
		if s.Email != nil {
			s.Email.NotifyByEmail(ctx, model.SyncOutcome{
				TaskID:   taskID,
				TaskName: mapper.TaskName(page),
				Action:   model.ActionTeamsNotified,
			})
		}
	} else {
		slog.Warn("page notified on teams without a clickup task id, skipping email", "page_id", pageID)
	}

	err := s.Source.UpdatePage(ctx, pageID, notionapi.Properties{
		s.NotifyFlag: notionapi.CheckboxProperty{Checkbox: false},
	})
	if err != nil {
		return fmt.Errorf("clearing notification flag: %w", err)
	}
	return nil
}
