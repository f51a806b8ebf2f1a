package config

import (
	"encoding/base64"
	"fmt"
	"time"
)

// Config holds runtime configuration for the apply-links bot.
type Config struct {
	AppEnv string `mapstructure:"-"`

	Logger   LoggerConfig   `mapstructure:"logger"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	Server   ServerConfig   `mapstructure:"server"`
	Bot      BotConfig      `mapstructure:"bot"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Search   SearchConfig   `mapstructure:"search"`
	Journal  JournalConfig  `mapstructure:"journal"`
	Sheet    SheetConfig    `mapstructure:"sheet"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
}

// LoggerConfig controls log output format, level, and rotation.
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=text json"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SentryConfig controls error reporting.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn" validate:"required_if=Enabled true"`
}

// ServerConfig describes the ops HTTP server exposing health and metrics.
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// BotConfig describes the Bot API side: token, polling, gating communities.
type BotConfig struct {
	Token         string        `mapstructure:"token" validate:"required"`
	PollTimeout   time.Duration `mapstructure:"poll_timeout"`
	Channel       string        `mapstructure:"channel" validate:"required"`
	Group         string        `mapstructure:"group" validate:"required"`
	OwnerUsername string        `mapstructure:"owner_username" validate:"required"`
}

// TelegramConfig describes the MTProto client used for channel history reads.
type TelegramConfig struct {
	APIID         int    `mapstructure:"api_id" validate:"required"`
	APIHash       string `mapstructure:"api_hash" validate:"required"`
	SessionString string `mapstructure:"session_string"`
	SessionFile   string `mapstructure:"session_file"`
}

// SearchConfig bounds the historical fan-out search.
type SearchConfig struct {
	SourcesFile      string `mapstructure:"sources_file" validate:"required"`
	LookbackDays     int    `mapstructure:"lookback_days" validate:"gt=0"`
	PerSourceCap     int    `mapstructure:"per_source_cap" validate:"gt=0"`
	PageSize         int    `mapstructure:"page_size" validate:"gt=0,lte=100"`
	DisplayTimezone  string `mapstructure:"display_timezone" validate:"required"`
	QueueConcurrency int    `mapstructure:"queue_concurrency" validate:"gt=0"`
}

// JournalConfig locates the local append-only journal file.
type JournalConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// SheetConfig describes the Google Sheets sink.
type SheetConfig struct {
	SpreadsheetID   string `mapstructure:"spreadsheet_id" validate:"required"`
	Worksheet       string `mapstructure:"worksheet" validate:"required"`
	CredentialsB64  string `mapstructure:"credentials_b64" validate:"required"`
	BootstrapHeader bool   `mapstructure:"bootstrap_header"`
}

// RedisConfig defines connection parameters for the Redis client.
type RedisConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	PoolTimeout     time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
}

// DatabaseConfig defines the PostgreSQL connection used for the user registry.
type DatabaseConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     string `mapstructure:"port" validate:"required"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
	Name     string `mapstructure:"name" validate:"required"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the PostgreSQL connection string based on config values.
func (c DatabaseConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		sslMode,
	)
}

// SheetCredentials decodes the base64-encoded service account key.
func (c SheetConfig) SheetCredentials() ([]byte, error) {
	creds, err := base64.StdEncoding.DecodeString(c.CredentialsB64)
	if err != nil {
		return nil, fmt.Errorf("decode sheet credentials: %w", err)
	}

	return creds, nil
}

// Lookback converts the configured lookback days into a duration.
func (c SearchConfig) Lookback() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}
