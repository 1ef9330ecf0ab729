package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/roksva123/taskbridge/internal/model"
)

// APIError is a non-2xx answer from ClickUp.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("clickup api error %d: %s", e.StatusCode, e.Body)
}

// ClickUpService talks to the ClickUp v2 REST API.
type ClickUpService struct {
	Token   string
	BaseURL string
	Client  *http.Client
}

// NewClickUpService creates a new service instance.
func NewClickUpService(token, baseURL string, timeout time.Duration) *ClickUpService {
	return &ClickUpService{
		Token:   token,
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// doRequest does an authenticated JSON request to ClickUp and returns body bytes.
func (s *ClickUpService) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding clickup request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+"/"+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", s.Token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// CreateTask creates a task in the list and returns its id.
// An empty id with a nil error means ClickUp accepted the task without returning one.
func (s *ClickUpService) CreateTask(ctx context.Context, listID string, task model.TaskPayload) (string, error) {
	if strings.TrimSpace(listID) == "" {
		return "", errors.New("clickup list id not configured")
	}

	b, err := s.doRequest(ctx, http.MethodPost, "list/"+url.PathEscape(listID)+"/task", task)
	if err != nil {
		return "", err
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return "", fmt.Errorf("decoding clickup task: %w", err)
	}
	return out.ID, nil
}

// taskUpdate is the PUT body; ClickUp expects assignee changes instead of a list.
type taskUpdate struct {
	Name      string           `json:"name"`
	Status    string           `json:"status"`
	Priority  int              `json:"priority"`
	Assignees *assigneeChanges `json:"assignees,omitempty"`
}

type assigneeChanges struct {
	Add []int64 `json:"add"`
	Rem []int64 `json:"rem"`
}

// UpdateTask overwrites name, status and priority and adds the resolved assignees.
func (s *ClickUpService) UpdateTask(ctx context.Context, taskID string, task model.TaskPayload) error {
	body := taskUpdate{
		Name:     task.Name,
		Status:   task.Status,
		Priority: task.Priority,
	}
	if len(task.Assignees) > 0 {
		body.Assignees = &assigneeChanges{Add: task.Assignees, Rem: []int64{}}
	}

	_, err := s.doRequest(ctx, http.MethodPut, "task/"+url.PathEscape(taskID), body)
	return err
}

// AddComment posts a comment on the task.
func (s *ClickUpService) AddComment(ctx context.Context, taskID, text string) error {
	_, err := s.doRequest(ctx, http.MethodPost, "task/"+url.PathEscape(taskID)+"/comment", map[string]any{
		"comment_text": text,
		"notify_all":   false,
	})
	if err != nil {
		return err
	}
	slog.Info("comment added to clickup task", "task_id", taskID)
	return nil
}
