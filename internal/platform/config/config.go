package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process configuration, read from the environment (and an optional .env file).
type Config struct {
	ServerConfig   `mapstructure:",squash"`
	StorageConfig  `mapstructure:",squash"`
	SessionConfig  `mapstructure:",squash"`
	SiteConfig     `mapstructure:",squash"`
	MailConfig     `mapstructure:",squash"`
	ReminderConfig `mapstructure:",squash"`
	DiscordConfig  `mapstructure:",squash"`
	AdminConfig    `mapstructure:",squash"`
	LogConfig      `mapstructure:",squash"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"PORT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

type StorageConfig struct {
	Backend     string `mapstructure:"STORAGE_BACKEND"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	SQLitePath  string `mapstructure:"SQLITE_PATH"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
}

type SessionConfig struct {
	SessionSecret       string        `mapstructure:"SESSION_SECRET"`
	SessionTTL          time.Duration `mapstructure:"SESSION_TTL"`
	SessionIssuer       string        `mapstructure:"SESSION_ISSUER"`
	SessionCookieSecure bool          `mapstructure:"SESSION_COOKIE_SECURE"`
}

type SiteConfig struct {
	SiteName string `mapstructure:"SITE_NAME"`
	TimeZone string `mapstructure:"TIME_ZONE"`
	HubCity  string `mapstructure:"HUB_CITY"`
}

type MailConfig struct {
	MailTransport     string  `mapstructure:"MAIL_TRANSPORT"`
	MailFrom          string  `mapstructure:"MAIL_FROM"`
	SMTPHost          string  `mapstructure:"SMTP_HOST"`
	SMTPPort          int     `mapstructure:"SMTP_PORT"`
	SMTPUsername      string  `mapstructure:"SMTP_USERNAME"`
	SMTPPassword      string  `mapstructure:"SMTP_PASSWORD"`
	SMTPTLS           string  `mapstructure:"SMTP_TLS"`
	MailLocale        string  `mapstructure:"MAIL_LOCALE"`
	MailTemplatesDir  string  `mapstructure:"MAIL_TEMPLATES_DIR"`
	MailRatePerSecond float64 `mapstructure:"MAIL_RATE_PER_SECOND"`
	MailBurst         int     `mapstructure:"MAIL_BURST"`
}

type ReminderConfig struct {
	RemindersEnabled bool          `mapstructure:"REMINDERS_ENABLED"`
	ReminderInterval time.Duration `mapstructure:"REMINDER_INTERVAL"`
	EventsEURRate    float64       `mapstructure:"EVENTS_EUR_RATE"`
}

type DiscordConfig struct {
	DiscordBotToken  string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordChannelID string `mapstructure:"DISCORD_CHANNEL_ID"`
}

type AdminConfig struct {
	AdminHandle   string `mapstructure:"ADMIN_HANDLE"`
	AdminEmail    string `mapstructure:"ADMIN_EMAIL"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`
}

type LogConfig struct {
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogFormat     string `mapstructure:"LOG_FORMAT"`
	LogOutput     string `mapstructure:"LOG_OUTPUT"`
	LogFilePath   string `mapstructure:"LOG_FILE_PATH"`
	LogMaxSizeMB  int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxBackups int    `mapstructure:"LOG_MAX_BACKUPS"`
	LogMaxAgeDays int    `mapstructure:"LOG_MAX_AGE_DAYS"`
	LogCompress   bool   `mapstructure:"LOG_COMPRESS"`
}

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

var defaults = map[string]any{
	"PORT":                  "8080",
	"SHUTDOWN_TIMEOUT":      "15s",
	"STORAGE_BACKEND":       BackendMemory,
	"DATABASE_URL":          "",
	"SQLITE_PATH":           "community.db",
	"DB_MAX_CONNS":          10,
	"SESSION_SECRET":        "",
	"SESSION_TTL":           "168h",
	"SESSION_ISSUER":        "community-api",
	"SESSION_COOKIE_SECURE": false,
	"SITE_NAME":             "LuxeLadies",
	"TIME_ZONE":             "Europe/Sofia",
	"HUB_CITY":              "Sofia",
	"MAIL_TRANSPORT":        "log",
	"MAIL_FROM":             "no-reply@luxeladies.bg",
	"SMTP_HOST":             "",
	"SMTP_PORT":             587,
	"SMTP_USERNAME":         "",
	"SMTP_PASSWORD":         "",
	"SMTP_TLS":              "mandatory",
	"MAIL_LOCALE":           "bg",
	"MAIL_TEMPLATES_DIR":    "",
	"MAIL_RATE_PER_SECOND":  5.0,
	"MAIL_BURST":            5,
	"REMINDERS_ENABLED":     true,
	"REMINDER_INTERVAL":     "60s",
	"EVENTS_EUR_RATE":       0.51,
	"DISCORD_BOT_TOKEN":     "",
	"DISCORD_CHANNEL_ID":    "",
	"ADMIN_HANDLE":          "",
	"ADMIN_EMAIL":           "",
	"ADMIN_PASSWORD":        "",
	"LOG_LEVEL":             "info",
	"LOG_FORMAT":            "json",
	"LOG_OUTPUT":            "stdout",
	"LOG_FILE_PATH":         "logs/community-api.log",
	"LOG_MAX_SIZE_MB":       100,
	"LOG_MAX_BACKUPS":       3,
	"LOG_MAX_AGE_DAYS":      28,
	"LOG_COMPRESS":          true,
}

// Load reads an optional .env file, then the environment, and validates the result.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv reads configuration from the process environment only.
func LoadFromEnv() (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of memory, postgres, sqlite (got %q)", c.Backend)
	}
	if c.SessionSecret == "" && c.Backend != BackendMemory {
		return errors.New("SESSION_SECRET is required")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	switch c.MailTransport {
	case "log":
	case "smtp":
		if c.SMTPHost == "" {
			return errors.New("SMTP_HOST is required for the smtp mail transport")
		}
	default:
		return fmt.Errorf("MAIL_TRANSPORT must be smtp or log (got %q)", c.MailTransport)
	}
	switch c.SMTPTLS {
	case "mandatory", "opportunistic", "none":
	default:
		return fmt.Errorf("SMTP_TLS must be mandatory, opportunistic or none (got %q)", c.SMTPTLS)
	}
	if c.MailRatePerSecond <= 0 || c.MailBurst < 1 {
		return errors.New("MAIL_RATE_PER_SECOND must be positive and MAIL_BURST at least 1")
	}
	if c.EventsEURRate <= 0 {
		return errors.New("EVENTS_EUR_RATE must be positive")
	}
	if c.RemindersEnabled && c.ReminderInterval <= 0 {
		return errors.New("REMINDER_INTERVAL must be positive")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("TIME_ZONE: %w", err)
	}
	return nil
}

// Location returns the site's time zone. Validate has already checked it loads.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

// HasSuperuserBootstrap reports whether ADMIN_* values ask for a superuser at startup.
func (c Config) HasSuperuserBootstrap() bool {
	return c.AdminHandle != "" && c.AdminPassword != ""
}
