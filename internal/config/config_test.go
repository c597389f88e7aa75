package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T) *Config {
	t.Helper()
	for _, key := range []string{"GOOGLE_SHEET_URL", "SMTP_HOST", "SMTP_FROM", "SERVER_ADDR"} {
		t.Setenv(key, "")
	}
	v := viper.New()
	Defaults(v)
	return FromViper(v)
}

func TestDefaults(t *testing.T) {
	cfg := load(t)

	assert.Equal(t, "30", cfg.ThresholdDays)
	assert.Equal(t, "remind.db", cfg.Database)
	assert.Equal(t, "Invoices", cfg.GoogleSheetWorksheet)
	assert.Equal(t, "http://localhost:8080/api/send", cfg.EndpointURL)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, "stderr", cfg.LogOutput)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("REMIND_THRESHOLD_DAYS", "45")
	t.Setenv("REMIND_ENDPOINT_URL", "https://notify.example.test/api/send")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("REMIND_DRY_RUN", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := load(t)

	assert.Equal(t, "45", cfg.ThresholdDays)
	assert.Equal(t, "https://notify.example.test/api/send", cfg.EndpointURL)
	assert.Equal(t, 2525, cfg.SMTPPort)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, "debug", cfg.GetLoggerConfig().Level)
}

func TestValidateSend(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"default", "http://localhost:8080/api/send", false},
		{"https", "https://notify.example.test", false},
		{"empty", "", true},
		{"not http", "ftp://notify.example.test", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EndpointURL: tt.url}
			err := cfg.ValidateSend()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateServe(t *testing.T) {
	cfg := load(t)
	require.Error(t, cfg.ValidateServe(), "SMTP settings are required without dry run")

	cfg.DryRun = true
	assert.NoError(t, cfg.ValidateServe())

	cfg.DryRun = false
	cfg.SMTPHost = "smtp.example.test"
	cfg.SMTPFrom = "billing@example.test"
	assert.NoError(t, cfg.ValidateServe())

	cfg.ServerAddr = ""
	assert.Error(t, cfg.ValidateServe())
}

func TestValidateSheet(t *testing.T) {
	cfg := load(t)
	assert.Error(t, cfg.ValidateSheet())

	cfg.GoogleSheetURL = "https://docs.google.com/spreadsheets/d/abc/edit"
	assert.NoError(t, cfg.ValidateSheet())
}
