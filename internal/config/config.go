package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"remind/internal/invoice"
	"remind/internal/logger"
)

type Config struct {
	// Import
	ThresholdDays string // kept raw; invoice.ParseThreshold applies the default
	Database      string

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string

	// Notification endpoint (client side)
	EndpointURL   string
	EndpointToken string
	Template      string
	Subject       string

	// Notification endpoint (server side)
	ServerAddr   string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	RedisAddress string
	DryRun       bool

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Defaults registers every setting with its default value and environment
// variable. Keys are lower case; env names are the upper-cased key.
func Defaults(v *viper.Viper) {
	v.SetDefault("remind_threshold_days", fmt.Sprint(invoice.DefaultThresholdDays))
	v.SetDefault("remind_database", "remind.db")
	v.SetDefault("google_sheet_url", "")
	v.SetDefault("google_sheet_worksheet", "Invoices")
	v.SetDefault("remind_endpoint_url", "http://localhost:8080/api/send")
	v.SetDefault("remind_endpoint_token", "")
	v.SetDefault("remind_template", "")
	v.SetDefault("remind_subject", "Payment reminder: invoice {{invoice}}")
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_username", "")
	v.SetDefault("smtp_password", "")
	v.SetDefault("smtp_from", "")
	v.SetDefault("redis_address", "")
	v.SetDefault("remind_dry_run", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("log_time_format", "2006-01-02T15:04:05Z07:00")
	v.SetDefault("log_output", "stderr")

	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the global viper instance, which holds
// defaults, environment variables and any bound command flags.
func Load() *Config {
	return FromViper(viper.GetViper())
}

// FromViper builds a Config from v.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		ThresholdDays:        v.GetString("remind_threshold_days"),
		Database:             v.GetString("remind_database"),
		GoogleSheetURL:       v.GetString("google_sheet_url"),
		GoogleSheetWorksheet: v.GetString("google_sheet_worksheet"),
		EndpointURL:          v.GetString("remind_endpoint_url"),
		EndpointToken:        v.GetString("remind_endpoint_token"),
		Template:             v.GetString("remind_template"),
		Subject:              v.GetString("remind_subject"),
		ServerAddr:           v.GetString("server_addr"),
		SMTPHost:             v.GetString("smtp_host"),
		SMTPPort:             v.GetInt("smtp_port"),
		SMTPUsername:         v.GetString("smtp_username"),
		SMTPPassword:         v.GetString("smtp_password"),
		SMTPFrom:             v.GetString("smtp_from"),
		RedisAddress:         v.GetString("redis_address"),
		DryRun:               v.GetBool("remind_dry_run"),
		LogLevel:             v.GetString("log_level"),
		LogFormat:            v.GetString("log_format"),
		LogTimeFormat:        v.GetString("log_time_format"),
		LogOutput:            v.GetString("log_output"),
	}
}

// ValidateSend checks the settings needed to post reminders.
func (c *Config) ValidateSend() error {
	if c.EndpointURL == "" {
		return fmt.Errorf("REMIND_ENDPOINT_URL is required")
	}
	if !strings.HasPrefix(c.EndpointURL, "http://") && !strings.HasPrefix(c.EndpointURL, "https://") {
		return fmt.Errorf("REMIND_ENDPOINT_URL must be an http(s) URL, got %q", c.EndpointURL)
	}
	return nil
}

// ValidateServe checks the settings needed to run the notification endpoint.
// SMTP is only required when actually delivering mail.
func (c *Config) ValidateServe() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("SERVER_ADDR is required")
	}
	if c.DryRun {
		return nil
	}
	if c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST is required (or use --dry-run)")
	}
	if c.SMTPFrom == "" {
		return fmt.Errorf("SMTP_FROM is required (or use --dry-run)")
	}
	if c.SMTPPort <= 0 {
		return fmt.Errorf("SMTP_PORT must be positive")
	}
	return nil
}

// ValidateSheet checks the settings needed to talk to Google Sheets.
func (c *Config) ValidateSheet() error {
	if c.GoogleSheetURL == "" {
		return fmt.Errorf("GOOGLE_SHEET_URL is required")
	}
	if c.GoogleSheetWorksheet == "" {
		return fmt.Errorf("GOOGLE_SHEET_WORKSHEET is required")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}
