package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/roksva123/taskbridge/internal/model"
	"github.com/roksva123/taskbridge/internal/scheduler"
)

// AllowedMethods lists the methods accepted by the trigger endpoints.
const AllowedMethods = "GET, POST"

// Trigger starts a job run and waits for it.
type Trigger interface {
	Trigger(ctx context.Context) (model.RunSummary, error)
}

// HistoryReader lists past runs.
type HistoryReader interface {
	GetSyncHistory(ctx context.Context, limit int) ([]model.SyncHistory, error)
}

// TriggerResponse is the body of every trigger answer.
type TriggerResponse struct {
	OK      bool              `json:"ok"`
	Skipped bool              `json:"skipped,omitempty"`
	Reason  string            `json:"reason,omitempty"`
	Message string            `json:"message,omitempty"`
	Summary *model.RunSummary `json:"summary,omitempty"`
}

type SyncHandler struct {
	Sync  Trigger
	Teams Trigger
	// Repo is nil when no database is configured.
	Repo HistoryReader

	TeamsEnabled      bool
	WebhookConfigured bool
}

func NewSyncHandler(sync, teams Trigger, repo HistoryReader, teamsEnabled, webhookConfigured bool) *SyncHandler {
	return &SyncHandler{
		Sync:              sync,
		Teams:             teams,
		Repo:              repo,
		TeamsEnabled:      teamsEnabled,
		WebhookConfigured: webhookConfigured,
	}
}

// TriggerSync runs the Notion to ClickUp sync.
// GET|POST /api/sync
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	slog.Info("sync triggered over http", "method", c.Request.Method)
	h.run(c, h.Sync, "unexpected error while syncing")
}

// TriggerTeams runs the completion notification job.
// GET|POST /api/sync-teams
func (h *SyncHandler) TriggerTeams(c *gin.Context) {
	if !h.TeamsEnabled {
		c.JSON(http.StatusOK, TriggerResponse{OK: true, Skipped: true, Reason: "TEAMS_SYNC_ENABLED=false"})
		return
	}
	if !h.WebhookConfigured {
		c.JSON(http.StatusOK, TriggerResponse{OK: true, Skipped: true, Reason: "TEAMS_WEBHOOK_URL ausente"})
		return
	}
	slog.Info("teams sync triggered over http", "method", c.Request.Method)
	h.run(c, h.Teams, "unexpected error while syncing teams")
}

func (h *SyncHandler) run(c *gin.Context, job Trigger, fallback string) {
	summary, err := job.Trigger(c.Request.Context())
	switch {
	case errors.Is(err, scheduler.ErrAlreadyRunning):
		c.JSON(http.StatusOK, TriggerResponse{OK: true, Skipped: true, Reason: "already running"})
	case errors.Is(err, scheduler.ErrStopped):
		c.JSON(http.StatusServiceUnavailable, TriggerResponse{OK: false, Message: "shutting down"})
	case err != nil:
		msg := err.Error()
		if msg == "" {
			msg = fallback
		}
		c.JSON(http.StatusInternalServerError, TriggerResponse{OK: false, Message: msg})
	default:
		c.JSON(http.StatusOK, TriggerResponse{
			OK:      true,
			Skipped: summary.Skipped,
			Reason:  summary.Reason,
			Summary: &summary,
		})
	}
}

// MethodNotAllowed answers any method other than GET and POST on the trigger routes.
func MethodNotAllowed(c *gin.Context) {
	c.Header("Allow", AllowedMethods)
	c.JSON(http.StatusMethodNotAllowed, TriggerResponse{OK: false, Message: "Method not allowed"})
}

// GetSyncHistory lists recent runs.
// GET /api/v1/sync/history
func (h *SyncHandler) GetSyncHistory(c *gin.Context) {
	if h.Repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sync history is not configured"})
		return
	}

	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}

	history, err := h.Repo.GetSyncHistory(c.Request.Context(), limit)
	if err != nil {
		slog.Error("failed to get sync history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get sync history"})
		return
	}

	c.JSON(http.StatusOK, history)
}

// Health reports liveness.
// GET /healthz
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
