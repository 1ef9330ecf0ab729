package model

// Priority sent on every task created or updated by the sync.
const DefaultPriority = 3

// TaskPayload is the ClickUp task body built from a Notion page.
type TaskPayload struct {
	Name      string  `json:"name"`
	Status    string  `json:"status"`
	Assignees []int64 `json:"assignees,omitempty"`
	Priority  int     `json:"priority"`
}

// Action describes what happened to a ClickUp task.
type Action string

const (
	ActionCreated       Action = "created"
	ActionUpdated       Action = "updated"
	ActionTeamsNotified Action = "teams_notified"
)

// SyncOutcome is one successfully synced page, handed to the notifier after the run.
type SyncOutcome struct {
	TaskID   string `json:"task_id"`
	TaskName string `json:"task_name"`
	Action   Action `json:"action"`
}

// TaskURL links to the task in the ClickUp web app.
func TaskURL(taskID string) string {
	return "https://app.clickup.com/t/" + taskID
}
