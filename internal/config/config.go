package config

import (
	"errors"
	"log"
	"net/url"
	"time"

	"github.com/caarlos0/env/v6"
)

type RecordBackend string

const (
	BackendAppsScript RecordBackend = "appsscript"
	BackendSQLite     RecordBackend = "sqlite"
)

type RosterBackend string

const (
	RosterSheets RosterBackend = "sheets"
	RosterSQLite RosterBackend = "sqlite"
)

type Config struct {
	// Gateways
	TelegramBotToken       string `env:"TELEGRAM_BOT_TOKEN"`
	LineChannelSecret      string `env:"LINE_CHANNEL_SECRET"`
	LineChannelAccessToken string `env:"LINE_CHANNEL_ACCESS_TOKEN"`
	PublicBaseURL          string `env:"PUBLIC_BASE_URL"`
	Port                   int    `env:"PORT" envDefault:"10000"`

	// Records
	RecordBackend RecordBackend `env:"RECORD_BACKEND" envDefault:"appsscript"`
	AppsScriptURL string        `env:"APPS_SCRIPT_URL"`
	SQLitePath    string        `env:"SQLITE_PATH" envDefault:"data/records.db"`
	HTTPTimeout   time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`

	// Reminder roster
	RosterBackend         RosterBackend `env:"ROSTER_BACKEND" envDefault:"sheets"`
	GoogleCredentialsFile string        `env:"GOOGLE_CREDENTIALS_FILE" envDefault:"credentials.json"`
	SpreadsheetID         string        `env:"SPREADSHEET_ID"`
	SheetName             string        `env:"SHEET_NAME" envDefault:"Sheet1"`

	// Dialogue
	SessionTTL  time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	CatalogPath string        `env:"CATALOG_PATH"`
	Timezone    string        `env:"TIMEZONE" envDefault:"Asia/Bangkok"`

	// Jobs
	ReminderSchedule string `env:"REMINDER_SCHEDULE" envDefault:"0 7 * * *"`
	ReportSchedule   string `env:"REPORT_SCHEDULE" envDefault:"0 21 * * *"`
	AdminUserID      string `env:"ADMIN_USER_ID"`

	// Storage
	AuditLogPath string `env:"AUDIT_LOG_PATH" envDefault:"logs/audit.jsonl"`
}

func New() *Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

// Parse reads the environment and validates the result.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected gateways and backends are usable.
func (c *Config) Validate() error {
	if !c.TelegramEnabled() && !c.LineEnabled() {
		return errors.New("configure TELEGRAM_BOT_TOKEN or LINE_CHANNEL_SECRET and LINE_CHANNEL_ACCESS_TOKEN")
	}
	if c.LineEnabled() {
		u, err := url.Parse(c.PublicBaseURL)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return errors.New("PUBLIC_BASE_URL must be an absolute https URL when LINE is enabled")
		}
	}
	switch c.RecordBackend {
	case BackendAppsScript:
		if c.AppsScriptURL == "" {
			return errors.New("APPS_SCRIPT_URL is required for the appsscript backend")
		}
	case BackendSQLite:
	default:
		return errors.New("RECORD_BACKEND must be appsscript or sqlite")
	}
	switch c.RosterBackend {
	case RosterSheets, RosterSQLite:
	default:
		return errors.New("ROSTER_BACKEND must be sheets or sqlite")
	}
	if c.RosterBackend == RosterSQLite && c.RecordBackend != BackendSQLite {
		return errors.New("ROSTER_BACKEND=sqlite needs RECORD_BACKEND=sqlite")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return err
	}
	return nil
}

func (c *Config) TelegramEnabled() bool { return c.TelegramBotToken != "" }

func (c *Config) LineEnabled() bool {
	return c.LineChannelSecret != "" && c.LineChannelAccessToken != ""
}

// RemindersEnabled reports whether the roster source is configured.
func (c *Config) RemindersEnabled() bool {
	return c.RosterBackend == RosterSQLite || c.SpreadsheetID != ""
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
