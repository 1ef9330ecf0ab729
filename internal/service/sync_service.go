package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jomei/notionapi"

	"github.com/roksva123/taskbridge/internal/config"
	"github.com/roksva123/taskbridge/internal/mapper"
	"github.com/roksva123/taskbridge/internal/model"
	"github.com/roksva123/taskbridge/internal/notion"
)

// maxErrorMessage bounds the error text written back to Notion.
const maxErrorMessage = 100

// Source is the Notion database holding the records to sync.
type Source interface {
	QueryChecked(ctx context.Context, property string) ([]notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, props notionapi.Properties) error
	EnsureProperties(ctx context.Context, want map[string]notionapi.PropertyConfigType) error
}

// TaskStore is the ClickUp side of the sync.
type TaskStore interface {
	CreateTask(ctx context.Context, listID string, task model.TaskPayload) (string, error)
	UpdateTask(ctx context.Context, taskID string, task model.TaskPayload) error
	AddComment(ctx context.Context, taskID, text string) error
}

// OutcomeNotifier receives the tasks synced during a run, after the loop ends.
type OutcomeNotifier interface {
	Dispatch(ctx context.Context, outcomes []model.SyncOutcome)
}

// SyncProperties names the Notion properties the sync reads and writes.
type SyncProperties struct {
	Flag         string
	TaskID       string
	ErrorFlag    string
	ErrorMessage string
}

// SyncService pushes flagged Notion pages to ClickUp.
type SyncService struct {
	Source     Source
	Tasks      TaskStore
	Mapper     *mapper.Mapper
	Notifier   OutcomeNotifier
	DatabaseID string
	ListID     string
	Props      SyncProperties
}

// RunSync processes every page with the sync flag set.
// Only configuration problems and a failed query abort the run;
// a page that fails is recorded on the page itself and the loop moves on.
func (s *SyncService) RunSync(ctx context.Context) (model.RunSummary, error) {
	summary := model.RunSummary{Job: "sync"}

	if s.DatabaseID == "" {
		return summary, fmt.Errorf("%w: NOTION_DATABASE_ID", config.ErrMissingConfig)
	}
	if s.ListID == "" {
		return summary, fmt.Errorf("%w: CLICKUP_LIST_ID", config.ErrMissingConfig)
	}

	errorFields := s.ensureErrorFields(ctx)

	slog.Info("querying notion for pages flagged for sync", "property", s.Props.Flag)
	pages, err := s.Source.QueryChecked(ctx, s.Props.Flag)
	if err != nil {
		return summary, err
	}
	if len(pages) == 0 {
		slog.Info("no pages flagged for sync")
		return summary, nil
	}

	var outcomes []model.SyncOutcome
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			slog.Warn("sync interrupted, remaining pages stay flagged", "processed", summary.Processed, "error", err)
			s.dispatch(ctx, outcomes)
			return summary, fmt.Errorf("sync interrupted: %w", err)
		}
		summary.Processed++

		outcome, err := s.syncPage(ctx, page, errorFields)
		if err != nil {
			summary.Failed++
			slog.Error("failed to sync page", "page_id", string(page.ID), "error", err)
			s.recordFailure(ctx, page, err, errorFields)
			continue
		}

		switch outcome.Action {
		case model.ActionCreated:
			summary.Created++
		case model.ActionUpdated:
			summary.Updated++
		}
		if outcome.TaskID != "" {
			outcomes = append(outcomes, outcome)
		}
	}

	slog.Info("sync complete",
		"processed", summary.Processed,
		"created", summary.Created,
		"updated", summary.Updated,
		"failed", summary.Failed,
	)

	s.dispatch(ctx, outcomes)
	return summary, nil
}

func (s *SyncService) dispatch(ctx context.Context, outcomes []model.SyncOutcome) {
	if s.Notifier != nil && len(outcomes) > 0 {
		s.Notifier.Dispatch(context.WithoutCancel(ctx), outcomes)
	}
}

// ensureErrorFields creates the error properties when missing.
// It reports whether they can be written during this run.
func (s *SyncService) ensureErrorFields(ctx context.Context) bool {
	if s.Props.ErrorFlag == "" || s.Props.ErrorMessage == "" {
		return false
	}
	err := s.Source.EnsureProperties(ctx, map[string]notionapi.PropertyConfigType{
		s.Props.ErrorFlag:    notionapi.PropertyConfigTypeCheckbox,
		s.Props.ErrorMessage: notionapi.PropertyConfigTypeRichText,
	})
	if err != nil {
		slog.Warn("could not prepare error properties, errors will only be logged", "error", err)
		return false
	}
	return true
}

func (s *SyncService) syncPage(ctx context.Context, page notionapi.Page, errorFields bool) (model.SyncOutcome, error) {
	pageID := string(page.ID)
	slog.Info("mapping page", "page_id", pageID)

	payload := s.Mapper.Map(page)
	description := s.Mapper.Description(page)
	outcome := model.SyncOutcome{TaskName: payload.Name}

	if existing := notion.TaskID(page, s.Props.TaskID); existing != "" {
		slog.Info("updating existing clickup task", "page_id", pageID, "task_id", existing, "name", payload.Name)
		if err := s.Tasks.UpdateTask(ctx, existing, payload); err != nil {
			return outcome, fmt.Errorf("updating clickup task %s: %w", existing, err)
		}
		outcome.TaskID = existing
		outcome.Action = model.ActionUpdated
	} else {
		slog.Info("creating clickup task", "page_id", pageID, "name", payload.Name)
		id, err := s.Tasks.CreateTask(ctx, s.ListID, payload)
		if err != nil {
			return outcome, fmt.Errorf("creating clickup task: %w", err)
		}
		if id == "" {
			slog.Warn("clickup did not return the created task id, check the payload and integration permissions", "page_id", pageID)
		}
		outcome.TaskID = id
		outcome.Action = model.ActionCreated
	}

	if outcome.TaskID != "" && description != "" {
		if err := s.Tasks.AddComment(ctx, outcome.TaskID, description); err != nil {
			slog.Error("failed to add description comment", "task_id", outcome.TaskID, "error", err)
		}
	}

	slog.Info("updating notion page", "page_id", pageID)
	props := notionapi.Properties{
		s.Props.Flag: notionapi.CheckboxProperty{Checkbox: false},
	}
	if errorFields {
		props[s.Props.ErrorFlag] = notionapi.CheckboxProperty{Checkbox: false}
		props[s.Props.ErrorMessage] = notionapi.RichTextProperty{RichText: notion.TextValue("")}
	}
	if outcome.TaskID != "" {
		if value, ok := notion.TaskIDUpdate(page, s.Props.TaskID, outcome.TaskID); ok {
			props[s.Props.TaskID] = value
		}
	}
	// The ClickUp side is done; the write-back must land even if ctx is cancelled
	// or the next run creates the task again.
	if err := s.Source.UpdatePage(context.WithoutCancel(ctx), pageID, props); err != nil {
		return outcome, err
	}
	return outcome, nil
}

// recordFailure clears the flag and stores the error on the page.
// A failure here is only logged.
func (s *SyncService) recordFailure(ctx context.Context, page notionapi.Page, cause error, errorFields bool) {
	props := notionapi.Properties{
		s.Props.Flag: notionapi.CheckboxProperty{Checkbox: false},
	}
	if errorFields {
		props[s.Props.ErrorFlag] = notionapi.CheckboxProperty{Checkbox: true}
		props[s.Props.ErrorMessage] = notionapi.RichTextProperty{RichText: notion.TextValue(truncate(cause.Error(), maxErrorMessage))}
	}
	if err := s.Source.UpdatePage(context.WithoutCancel(ctx), string(page.ID), props); err != nil {
		slog.Error("failed to record sync error on notion page", "page_id", string(page.ID), "error", err)
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
