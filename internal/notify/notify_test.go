package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roksva123/taskbridge/internal/directory"
	"github.com/roksva123/taskbridge/internal/mapper"
	"github.com/roksva123/taskbridge/internal/model"
)

type webhook struct {
	mu     sync.Mutex
	bodies []map[string]any
}

func newWebhook(t *testing.T, status int) (*webhook, *TeamsClient) {
	t.Helper()
	wh := &webhook{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(b, &body))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		wh.mu.Lock()
		wh.bodies = append(wh.bodies, body)
		wh.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return wh, NewTeamsClient(srv.URL, 5*time.Second)
}

type fakeSender struct {
	fail map[string]error
	sent []*resend.SendEmailRequest
}

func (f *fakeSender) SendWithContext(_ context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.sent = append(f.sent, params)
	if err := f.fail[params.To[0]]; err != nil {
		return nil, err
	}
	return &resend.SendEmailResponse{Id: "email-1"}, nil
}

func newTestMailer(sender *fakeSender, recipients ...string) *Mailer {
	return &Mailer{emails: sender, from: "Notion-ClickUp <onboarding@resend.dev>", recipients: recipients}
}

func TestTeamsClient_Post(t *testing.T) {
	wh, client := newWebhook(t, http.StatusOK)

	require.NoError(t, client.Post(context.Background(), ChatMessage{Text: "hi"}))
	require.Len(t, wh.bodies, 1)
	assert.Equal(t, "hi", wh.bodies[0]["text"])
	assert.NotContains(t, wh.bodies[0], "entities")
}

func TestTeamsClient_Non2xxIsError(t *testing.T) {
	_, client := newWebhook(t, http.StatusBadRequest)

	err := client.Post(context.Background(), ChatMessage{Text: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestTeamsClient_NotConfigured(t *testing.T) {
	client := NewTeamsClient("", time.Second)

	assert.False(t, client.Configured())
	assert.ErrorIs(t, client.Post(context.Background(), nil), ErrWebhookNotConfigured)
}

func TestCard(t *testing.T) {
	created := Card(model.SyncOutcome{TaskID: "86abc", TaskName: "Task :: | Fix", Action: model.ActionCreated})
	assert.Equal(t, "MessageCard", created.Type)
	assert.Equal(t, "00FF00", created.ThemeColor)
	assert.Equal(t, "Tarefa criada no ClickUp", created.Summary)
	assert.Equal(t, "Task :: | Fix", created.Sections[0].ActivityTitle)
	assert.Equal(t, []cardFact{{"ID da Tarefa:", "86abc"}, {"Ação:", "Criada"}}, created.Sections[0].Facts)
	assert.Equal(t, "https://app.clickup.com/t/86abc", created.PotentialAction[0].Targets[0].URI)

	updated := Card(model.SyncOutcome{TaskID: "86abc", Action: model.ActionUpdated})
	assert.Equal(t, "FFA500", updated.ThemeColor)
	assert.Equal(t, "Atualizada", updated.Sections[0].Facts[1].Value)
}

func TestCard_JSONShape(t *testing.T) {
	b, err := json.Marshal(Card(model.SyncOutcome{TaskID: "1", Action: model.ActionCreated}))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, "MessageCard", raw["@type"])
	assert.Equal(t, "https://schema.org/extensions", raw["@context"])
	action := raw["potentialAction"].([]any)[0].(map[string]any)
	assert.Equal(t, "OpenUri", action["@type"])
	assert.Equal(t, "Ver no ClickUp", action["name"])
}

func TestRenderEmail(t *testing.T) {
	subject, html, err := RenderEmail(model.SyncOutcome{TaskID: "86abc", TaskName: "Fix <login>", Action: model.ActionTeamsNotified})
	require.NoError(t, err)

	assert.Equal(t, "Tarefa comunicada no Teams: Fix <login>", subject)
	assert.Contains(t, html, "Uma tarefa foi comunicada no Microsoft Teams")
	assert.Contains(t, html, "Fix &lt;login&gt;")
	assert.Contains(t, html, `href="https://app.clickup.com/t/86abc"`)
}

func TestRenderEmail_UnknownActionUsesUpdatedCopy(t *testing.T) {
	subject, _, err := RenderEmail(model.SyncOutcome{TaskName: "x", Action: "other"})
	require.NoError(t, err)
	assert.Equal(t, "Tarefa atualizada no ClickUp: x", subject)
}

func TestMailer_OneMessagePerRecipient(t *testing.T) {
	sender := &fakeSender{fail: map[string]error{"a@x.com": errors.New("rejected")}}
	m := newTestMailer(sender, "a@x.com", "b@x.com")

	m.Notify(context.Background(), model.SyncOutcome{TaskID: "1", TaskName: "n", Action: model.ActionCreated})

	require.Len(t, sender.sent, 2)
	assert.Equal(t, []string{"b@x.com"}, sender.sent[1].To)
	assert.Equal(t, "Tarefa criada no ClickUp: n", sender.sent[1].Subject)
	assert.Equal(t, "Notion-ClickUp <onboarding@resend.dev>", sender.sent[1].From)
}

func TestMailer_SkipsWithoutRecipientsOrKey(t *testing.T) {
	sender := &fakeSender{}
	newTestMailer(sender).Notify(context.Background(), model.SyncOutcome{TaskID: "1"})
	assert.Empty(t, sender.sent)

	noKey := NewMailer("", "from", []string{"a@x.com"})
	noKey.Notify(context.Background(), model.SyncOutcome{TaskID: "1"})
	assert.Nil(t, noKey.emails)
}

func TestDispatcher_Dispatch(t *testing.T) {
	wh, teams := newWebhook(t, http.StatusOK)
	sender := &fakeSender{}
	d := NewDispatcher(teams, newTestMailer(sender, "a@x.com"), true)

	d.Dispatch(context.Background(), []model.SyncOutcome{
		{TaskID: "1", TaskName: "one", Action: model.ActionCreated},
		{TaskID: "2", TaskName: "two", Action: model.ActionUpdated},
	})

	require.Len(t, wh.bodies, 2)
	assert.Equal(t, "00FF00", wh.bodies[0]["themeColor"])
	assert.Equal(t, "FFA500", wh.bodies[1]["themeColor"])
	assert.Len(t, sender.sent, 2)
}

func TestDispatcher_EmailDisabledAndTeamsFailure(t *testing.T) {
	wh, teams := newWebhook(t, http.StatusInternalServerError)
	sender := &fakeSender{}
	d := NewDispatcher(teams, newTestMailer(sender, "a@x.com"), false)

	d.Dispatch(context.Background(), []model.SyncOutcome{{TaskID: "1", Action: model.ActionCreated}})

	assert.Len(t, wh.bodies, 1)
	assert.Empty(t, sender.sent)
}

func TestDispatcher_NoWebhookStillEmails(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(NewTeamsClient("", time.Second), newTestMailer(sender, "a@x.com"), true)

	d.Dispatch(context.Background(), []model.SyncOutcome{{TaskID: "1", Action: model.ActionCreated}})
	assert.Len(t, sender.sent, 1)
}

func completedPage(props notionapi.Properties) notionapi.Page {
	base := notionapi.Properties{
		"Nome":    &notionapi.TitleProperty{Title: []notionapi.RichText{{PlainText: "Fix login"}}},
		"Projeto": &notionapi.SelectProperty{Select: notionapi.Option{Name: "Billing"}},
	}
	for k, v := range props {
		base[k] = v
	}
	return notionapi.Page{ID: "p1", Properties: base}
}

func newComposer(mentions ...string) *Composer {
	users := directory.Default()
	return NewComposer(mapper.New(users), users, mentions)
}

func TestCompose_HeadlineOnly(t *testing.T) {
	msg := newComposer().Compose(completedPage(nil))

	assert.Equal(t, "**Tarefa Concluída: Task :: Billing | Fix login**", msg.Text)
	assert.Nil(t, msg.Entities)
}

func TestCompose_DescriptionImageAndMentions(t *testing.T) {
	p := completedPage(notionapi.Properties{
		"Descrição": &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: " Corrigir\nfluxo "}}},
		"Arquivos e mídia": &notionapi.FilesProperty{Files: []notionapi.File{
			{Name: "print.png", External: &notionapi.FileObject{URL: "https://img.example/print.png"}},
		}},
	})

	msg := newComposer("Andreia Dias", "Gisele Almeida", "Ghost").Compose(p)

	lines := strings.Split(msg.Text, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "**Tarefa Concluída: Task :: Billing | Fix login [Corrigir fluxo]**", lines[0])
	assert.Equal(t, "Clique no link para visualizar o contexto da solicitação: [Visualizar imagem](https://img.example/print.png)", lines[1])

	require.Len(t, msg.Entities, 2)
	assert.Equal(t, Entity{
		Type:      "mention",
		Text:      "<at>Andreia Dias</at>",
		Mentioned: Mentioned{ID: "andreia.dias@cashforce.com.br", Name: "Andreia Dias"},
	}, msg.Entities[0])
	assert.Equal(t, "gisele.almeida@cashforce.com.br", msg.Entities[1].Mentioned.ID)
}

func TestImageURL(t *testing.T) {
	uploaded := completedPage(notionapi.Properties{
		"Anexos": &notionapi.FilesProperty{Files: []notionapi.File{
			{File: &notionapi.FileObject{URL: "https://s3.example/a.png"}},
		}},
	})
	assert.Equal(t, "https://s3.example/a.png", ImageURL(uploaded))

	empty := completedPage(notionapi.Properties{"Files & media": &notionapi.FilesProperty{}})
	assert.Equal(t, "", ImageURL(empty))

	assert.Equal(t, "", ImageURL(completedPage(nil)))
}
