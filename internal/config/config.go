package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingConfig is returned when a required key is not set.
var ErrMissingConfig = errors.New("missing required configuration")

type Config struct {
	// APP
	AppEnv      string
	Port        string
	LogLevel    string
	LogFormat   string
	HTTPTimeout time.Duration

	// Notion
	NotionToken          string
	NotionDatabaseID     string
	SyncFlagProperty     string
	NotifyFlagProperty   string
	TaskIDProperty       string
	ErrorFlagProperty    string
	ErrorMessageProperty string
	UserDirectoryFile    string

	// ClickUp
	ClickUpToken   string
	ClickUpListID  string
	ClickUpBaseURL string

	// Teams
	TeamsWebhookURL  string
	TeamsSyncEnabled bool
	NotifyMentions   []string

	// Email
	ResendAPIKey    string
	EmailFrom       string
	EmailRecipients []string
	NotifySyncEmail bool

	// Scheduler
	SyncCron       string
	SyncTimezone   string
	SyncRunOnBoot  bool
	TeamsCron      string
	TeamsTimezone  string
	TeamsRunOnBoot bool

	// Run history
	DatabaseDriver string
	DatabaseURL    string

	// Trigger auth, disabled when empty
	TriggerJWTSecret string
}

// Load reads configuration from the environment.
// .env files are loaded by the caller before this runs.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	timeout := v.GetDuration("http_timeout")
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT %q", v.GetString("http_timeout"))
	}

	cfg := &Config{
		// App
		AppEnv:      v.GetString("app_env"),
		Port:        v.GetString("port"),
		LogLevel:    v.GetString("log_level"),
		LogFormat:   v.GetString("log_format"),
		HTTPTimeout: timeout,

		// Notion
		NotionToken:          strings.TrimSpace(v.GetString("notion_token")),
		NotionDatabaseID:     strings.TrimSpace(v.GetString("notion_database_id")),
		SyncFlagProperty:     v.GetString("notion_sync_flag_property"),
		NotifyFlagProperty:   v.GetString("notion_notify_flag_property"),
		TaskIDProperty:       v.GetString("notion_task_id_property"),
		ErrorFlagProperty:    v.GetString("notion_error_flag_property"),
		ErrorMessageProperty: v.GetString("notion_error_message_property"),
		UserDirectoryFile:    strings.TrimSpace(v.GetString("user_directory_file")),

		// ClickUp
		ClickUpToken:   strings.TrimSpace(v.GetString("clickup_api_token")),
		ClickUpListID:  strings.TrimSpace(v.GetString("clickup_list_id")),
		ClickUpBaseURL: strings.TrimRight(v.GetString("clickup_base_url"), "/"),

		// Teams
		TeamsWebhookURL:  strings.TrimSpace(v.GetString("teams_webhook_url")),
		TeamsSyncEnabled: v.GetBool("teams_sync_enabled"),
		NotifyMentions:   splitList(v.GetString("notify_mentions")),

		// Email
		ResendAPIKey:    strings.TrimSpace(v.GetString("resend_api_key")),
		EmailFrom:       v.GetString("email_from"),
		EmailRecipients: recipients(v),
		NotifySyncEmail: v.GetBool("notify_sync_email"),

		// Scheduler
		SyncCron:       strings.TrimSpace(v.GetString("sync_cron_expression")),
		SyncTimezone:   strings.TrimSpace(v.GetString("sync_timezone")),
		SyncRunOnBoot:  v.GetBool("sync_run_on_boot"),
		TeamsCron:      strings.TrimSpace(v.GetString("teams_cron_expression")),
		TeamsTimezone:  strings.TrimSpace(v.GetString("teams_timezone")),
		TeamsRunOnBoot: v.GetBool("teams_run_on_boot"),

		// History
		DatabaseDriver: v.GetString("database_driver"),
		DatabaseURL:    strings.TrimSpace(v.GetString("database_url")),

		TriggerJWTSecret: v.GetString("trigger_jwt_secret"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("port", "8001")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("http_timeout", "20s")

	v.SetDefault("notion_sync_flag_property", "[➡️ Enviar p/ ClickUp]")
	v.SetDefault("notion_notify_flag_property", "[✅ Notificado Teams]")
	v.SetDefault("notion_task_id_property", "ClickUp Task ID")
	v.SetDefault("notion_error_flag_property", "Erro de Sincronização")
	v.SetDefault("notion_error_message_property", "Mensagem de Erro")

	v.SetDefault("clickup_base_url", "https://api.clickup.com/api/v2")

	v.SetDefault("teams_sync_enabled", true)
	v.SetDefault("notify_mentions", "Andreia Dias,Gisele Almeida")

	v.SetDefault("email_from", "Notion-ClickUp <onboarding@resend.dev>")
	v.SetDefault("notify_sync_email", false)

	v.SetDefault("sync_cron_expression", "*/10 * * * *")
	v.SetDefault("sync_run_on_boot", true)
	v.SetDefault("teams_cron_expression", "*/5 * * * *")
	v.SetDefault("teams_run_on_boot", true)

	v.SetDefault("database_driver", "postgres")
}

// ValidateSync reports the first key the sync job cannot run without.
func (c *Config) ValidateSync() error {
	return requireKeys(map[string]string{
		"NOTION_TOKEN":       c.NotionToken,
		"NOTION_DATABASE_ID": c.NotionDatabaseID,
		"CLICKUP_API_TOKEN":  c.ClickUpToken,
		"CLICKUP_LIST_ID":    c.ClickUpListID,
	}, "NOTION_TOKEN", "NOTION_DATABASE_ID", "CLICKUP_API_TOKEN", "CLICKUP_LIST_ID")
}

// ValidateCompletion reports the first key the Teams completion job cannot run without.
// A missing webhook is not an error; the job skips itself.
func (c *Config) ValidateCompletion() error {
	return requireKeys(map[string]string{
		"NOTION_TOKEN":       c.NotionToken,
		"NOTION_DATABASE_ID": c.NotionDatabaseID,
	}, "NOTION_TOKEN", "NOTION_DATABASE_ID")
}

// IsDevelopment is true for the default local environment.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func requireKeys(values map[string]string, order ...string) error {
	for _, key := range order {
		if values[key] == "" {
			return fmt.Errorf("%w: %s", ErrMissingConfig, key)
		}
	}
	return nil
}

// recipients merges EMAIL_RECIPIENTS with the per-person variables of the first deployment.
func recipients(v *viper.Viper) []string {
	out := splitList(v.GetString("email_recipients"))
	seen := make(map[string]bool, len(out))
	for _, r := range out {
		seen[strings.ToLower(r)] = true
	}
	for _, key := range []string{"email_felipe", "email_andreia", "email_gisele"} {
		r := strings.TrimSpace(v.GetString(key))
		if r == "" || seen[strings.ToLower(r)] {
			continue
		}
		seen[strings.ToLower(r)] = true
		out = append(out, r)
	}
	return out
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
