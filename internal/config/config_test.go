package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8001", cfg.Port)
	assert.Equal(t, 20*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "[➡️ Enviar p/ ClickUp]", cfg.SyncFlagProperty)
	assert.Equal(t, "[✅ Notificado Teams]", cfg.NotifyFlagProperty)
	assert.Equal(t, "ClickUp Task ID", cfg.TaskIDProperty)
	assert.Equal(t, "https://api.clickup.com/api/v2", cfg.ClickUpBaseURL)
	assert.Equal(t, "*/10 * * * *", cfg.SyncCron)
	assert.True(t, cfg.SyncRunOnBoot)
	assert.True(t, cfg.TeamsSyncEnabled)
	assert.False(t, cfg.NotifySyncEmail)
	assert.Equal(t, []string{"Andreia Dias", "Gisele Almeida"}, cfg.NotifyMentions)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("NOTION_DATABASE_ID", " db-1 ")
	t.Setenv("CLICKUP_LIST_ID", "list-9")
	t.Setenv("CLICKUP_BASE_URL", "http://localhost:9999/api/v2/")
	t.Setenv("SYNC_RUN_ON_BOOT", "false")
	t.Setenv("TEAMS_SYNC_ENABLED", "FALSE")
	t.Setenv("HTTP_TIMEOUT", "5s")
	t.Setenv("EMAIL_RECIPIENTS", "a@x.com, b@x.com,")
	t.Setenv("EMAIL_FELIPE", "felipe@x.com")
	t.Setenv("EMAIL_ANDREIA", "A@x.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db-1", cfg.NotionDatabaseID)
	assert.Equal(t, "list-9", cfg.ClickUpListID)
	assert.Equal(t, "http://localhost:9999/api/v2", cfg.ClickUpBaseURL)
	assert.False(t, cfg.SyncRunOnBoot)
	assert.False(t, cfg.TeamsSyncEnabled)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, []string{"a@x.com", "b@x.com", "felipe@x.com"}, cfg.EmailRecipients)
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("HTTP_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateSync(t *testing.T) {
	cfg := &Config{NotionToken: "n", NotionDatabaseID: "db", ClickUpToken: "c"}

	err := cfg.ValidateSync()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingConfig))
	assert.Contains(t, err.Error(), "CLICKUP_LIST_ID")

	cfg.ClickUpListID = "list"
	assert.NoError(t, cfg.ValidateSync())
}

func TestValidateCompletion(t *testing.T) {
	cfg := &Config{NotionToken: "n"}

	err := cfg.ValidateCompletion()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTION_DATABASE_ID")

	cfg.NotionDatabaseID = "db"
	assert.NoError(t, cfg.ValidateCompletion())
}
