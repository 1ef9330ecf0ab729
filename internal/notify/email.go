package notify

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"

	"github.com/resend/resend-go/v2"

	"github.com/roksva123/taskbridge/internal/model"
)

type emailCopy struct {
	SubjectPrefix string
	ActionText    string
	Headline      string
}

var copies = map[model.Action]emailCopy{
	model.ActionCreated: {
		SubjectPrefix: "Tarefa criada no ClickUp",
		ActionText:    "criada no ClickUp",
		Headline:      "Uma nova tarefa foi criada no ClickUp",
	},
	model.ActionUpdated: {
		SubjectPrefix: "Tarefa atualizada no ClickUp",
		ActionText:    "atualizada no ClickUp",
		Headline:      "Uma tarefa foi atualizada no ClickUp",
	},
	model.ActionTeamsNotified: {
		SubjectPrefix: "Tarefa comunicada no Teams",
		ActionText:    "notificada no Microsoft Teams",
		Headline:      "Uma tarefa foi comunicada no Microsoft Teams",
	},
}

var emailTemplate = template.Must(template.New("email").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">{{.Copy.Headline}}</h2>
  <p><strong>Nome da tarefa:</strong> {{.TaskName}}</p>
  <p><strong>ID da tarefa:</strong> {{.TaskID}}</p>
  <p><strong>Ação:</strong> {{.Copy.ActionText}}</p>
  <p><a href="{{.URL}}" style="background-color: #7B68EE; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; display: inline-block;">Ver tarefa no ClickUp</a></p>
  <hr style="margin: 20px 0; border: none; border-top: 1px solid #ddd;">
  <p style="color: #666; font-size: 12px;">Esta é uma notificação automática da integração Notion-ClickUp.</p>
</div>
`))

// RenderEmail returns the subject and HTML body for a notification.
// Unknown actions use the "updated" copy.
func RenderEmail(n model.SyncOutcome) (string, string, error) {
	c, ok := copies[n.Action]
	if !ok {
		c = copies[model.ActionUpdated]
	}

	var buf bytes.Buffer
	err := emailTemplate.Execute(&buf, struct {
		model.SyncOutcome
		Copy emailCopy
		URL  string
	}{n, c, model.TaskURL(n.TaskID)})
	if err != nil {
		return "", "", err
	}
	return c.SubjectPrefix + ": " + n.TaskName, buf.String(), nil
}

type emailSender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Mailer sends notification emails through Resend.
type Mailer struct {
	emails     emailSender
	from       string
	recipients []string
}

// NewMailer creates a mailer. Without an API key every send is skipped with a warning.
func NewMailer(apiKey, from string, recipients []string) *Mailer {
	m := &Mailer{from: from, recipients: recipients}
	if apiKey != "" {
		m.emails = resend.NewClient(apiKey).Emails
	}
	return m
}

// Notify emails every recipient, one message each. Failures are logged only.
func (m *Mailer) Notify(ctx context.Context, n model.SyncOutcome) {
	if len(m.recipients) == 0 {
		slog.Warn("no email recipients configured, skipping email notification", "task_id", n.TaskID)
		return
	}
	if m.emails == nil {
		slog.Warn("RESEND_API_KEY not configured, skipping email notification", "task_id", n.TaskID)
		return
	}

	subject, html, err := RenderEmail(n)
	if err != nil {
		slog.Error("failed to render notification email", "task_id", n.TaskID, "error", err)
		return
	}

	for _, to := range m.recipients {
		_, err := m.emails.SendWithContext(ctx, &resend.SendEmailRequest{
			From:    m.from,
			To:      []string{to},
			Subject: subject,
			Html:    html,
		})
		if err != nil {
			slog.Error("failed to send notification email", "recipient", to, "task_id", n.TaskID, "error", err)
			continue
		}
		slog.Info("notification email sent", "recipient", to, "task_id", n.TaskID)
	}
}
