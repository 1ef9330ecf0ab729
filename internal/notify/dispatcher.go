package notify

import (
	"context"
	"log/slog"

	"github.com/roksva123/taskbridge/internal/model"
)

type cardFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type cardSection struct {
	ActivityTitle string     `json:"activityTitle"`
	Facts         []cardFact `json:"facts"`
}

type cardTarget struct {
	OS  string `json:"os"`
	URI string `json:"uri"`
}

type cardAction struct {
	Type    string       `json:"@type"`
	Name    string       `json:"name"`
	Targets []cardTarget `json:"targets"`
}

// MessageCard is the legacy Office 365 connector card.
type MessageCard struct {
	Type            string        `json:"@type"`
	Context         string        `json:"@context"`
	Summary         string        `json:"summary"`
	ThemeColor      string        `json:"themeColor"`
	Title           string        `json:"title"`
	Sections        []cardSection `json:"sections"`
	PotentialAction []cardAction  `json:"potentialAction"`
}

// Card builds the Teams card announcing a created or updated task.
func Card(o model.SyncOutcome) MessageCard {
	word, label, color := "atualizada", "Atualizada", "FFA500"
	if o.Action == model.ActionCreated {
		word, label, color = "criada", "Criada", "00FF00"
	}

	return MessageCard{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		Summary:    "Tarefa " + word + " no ClickUp",
		ThemeColor: color,
		Title:      "✅ Tarefa " + word + " no ClickUp",
		Sections: []cardSection{{
			ActivityTitle: o.TaskName,
			Facts: []cardFact{
				{Name: "ID da Tarefa:", Value: o.TaskID},
				{Name: "Ação:", Value: label},
			},
		}},
		PotentialAction: []cardAction{{
			Type:    "OpenUri",
			Name:    "Ver no ClickUp",
			Targets: []cardTarget{{OS: "default", URI: model.TaskURL(o.TaskID)}},
		}},
	}
}

// Dispatcher fans sync outcomes out to Teams and, optionally, email.
type Dispatcher struct {
	teams     *TeamsClient
	mailer    *Mailer
	sendEmail bool
}

// NewDispatcher creates a dispatcher. sendEmail enables email for sync outcomes;
// NotifyByEmail always sends.
func NewDispatcher(teams *TeamsClient, mailer *Mailer, sendEmail bool) *Dispatcher {
	return &Dispatcher{teams: teams, mailer: mailer, sendEmail: sendEmail}
}

// Dispatch announces every outcome. Failures are logged and never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, outcomes []model.SyncOutcome) {
	if len(outcomes) == 0 {
		return
	}
	slog.Info("sending notifications", "tasks", len(outcomes))

	for _, o := range outcomes {
		d.sendCard(ctx, o)
		if d.sendEmail {
			d.NotifyByEmail(ctx, o)
		}
	}

	slog.Info("notifications sent", "tasks", len(outcomes))
}

func (d *Dispatcher) sendCard(ctx context.Context, o model.SyncOutcome) {
	if !d.teams.Configured() {
		slog.Warn("TEAMS_WEBHOOK_URL not configured, skipping teams notification", "task_id", o.TaskID)
		return
	}
	if err := d.teams.Post(ctx, Card(o)); err != nil {
		slog.Error("failed to send teams notification", "task_id", o.TaskID, "error", err)
		return
	}
	slog.Info("teams notification sent", "task_id", o.TaskID)
}

// NotifyByEmail emails every configured recipient about n.
func (d *Dispatcher) NotifyByEmail(ctx context.Context, n model.SyncOutcome) {
	if d.mailer == nil {
		slog.Warn("email not configured, skipping email notification", "task_id", n.TaskID)
		return
	}
	d.mailer.Notify(ctx, n)
}
