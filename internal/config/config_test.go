package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growly/resume-bot/internal/schemas"
)

var envKeys = []string{
	"TELEGRAM_BOT_TOKEN", "GEMINI_API_KEY", "GEMINI_MODEL", "DATABASE_URL",
	"REQUIRED_CHANNEL", "WEBHOOK_URL", "WEBHOOK_SECRET", "PORT", "LOG_LEVEL", "LOG_FORMAT",
	"RATE_LIMIT_DOCUMENTS", "RATE_LIMIT_WINDOW", "ANALYSIS_TIMEOUT",
	"MAX_DOCUMENT_BYTES", "MAX_MESSAGE_LENGTH", "WORKERS", "STATS_SCHEDULE",
	"RATE_LIMIT_EXEMPT_USERS",
}

// clearEnv unsets every recognised variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	return writeConfigFile(t, "config.json", content)
}

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	path := writeConfig(t, `{
		"gemini_model": "gemini-1.5-pro",
		"required_channel": "@growly_ir",
		"port": 8443,
		"rate_limit_window": "2m",
		"analysis_timeout": "90s",
		"workers": 8
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "gemini-1.5-pro", cfg.GeminiModel)
	assert.Equal(t, "@growly_ir", cfg.RequiredChannel)
	assert.Equal(t, 8443, cfg.Port)
	assert.Equal(t, 2*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, 90*time.Second, cfg.AnalysisTimeout)
	assert.Equal(t, 8, cfg.Workers)
	assert.Empty(t, cfg.LogLevel)
}

func TestLoadConfig_SchemaViolation(t *testing.T) {
	path := writeConfig(t, `{"port": 0, "verbose": true}`)

	cfg, err := LoadConfig(path)
	assert.Nil(t, cfg)

	var validationErr *schemas.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Len(t, validationErr.Errors, 2)
}

func TestLoadConfig_OtherFormats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "toml",
			file: "config.toml",
			content: `gemini_model = "gemini-1.5-pro"
required_channel = "@growly_ir"
workers = 6
analysis_timeout = "2m"
stats_schedule = "0 9 * * *"
rate_limit_exempt_users = [7, 9]
`,
		},
		{
			name: "yaml",
			file: "config.yml",
			content: `gemini_model: gemini-1.5-pro
required_channel: "@growly_ir"
workers: 6
analysis_timeout: 2m
stats_schedule: "0 9 * * *"
rate_limit_exempt_users: [7, 9]
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfigFile(t, tt.file, tt.content))
			require.NoError(t, err)

			assert.Equal(t, "gemini-1.5-pro", cfg.GeminiModel)
			assert.Equal(t, "@growly_ir", cfg.RequiredChannel)
			assert.Equal(t, 6, cfg.Workers)
			assert.Equal(t, 2*time.Minute, cfg.AnalysisTimeout)
			assert.Equal(t, "0 9 * * *", cfg.StatsSchedule)
			assert.Equal(t, []int64{7, 9}, cfg.RateLimitExemptUsers)
		})
	}
}

func TestLoadConfig_OtherFormatsUseSchema(t *testing.T) {
	path := writeConfigFile(t, "config.toml", "workers = 100\n")

	_, err := LoadConfig(path)

	var validationErr *schemas.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	_, err := LoadConfig(writeConfigFile(t, "config.toml", "workers = = 3"))
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := writeConfig(t, `{ invalid json }`)

	cfg, err := LoadConfig(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), *cfg)
	assert.False(t, cfg.WebhookMode())
	assert.Error(t, cfg.RequireServe())
	assert.Error(t, cfg.RequireDatabase())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `{"gemini_model": "from-file", "port": 9000, "workers": 2}`)
	t.Setenv("GEMINI_MODEL", "from-env")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("WEBHOOK_URL", "https://bot.example.com/hook")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("WORKERS", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.GeminiModel)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.RateLimitWindow)
	assert.Equal(t, 3*time.Minute, cfg.AnalysisTimeout)
	assert.True(t, cfg.WebhookMode())
	assert.NoError(t, cfg.RequireServe())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty model", func(c *Config) { c.GeminiModel = "" }, true},
		{"bad database url", func(c *Config) { c.DatabaseURL = "mysql://x" }, true},
		{"channel without at", func(c *Config) { c.RequiredChannel = "growly_ir" }, true},
		{"http webhook", func(c *Config) { c.WebhookURL = "http://example.com" }, true},
		{"zero window", func(c *Config) { c.RateLimitWindow = 0 }, true},
		{"message too long", func(c *Config) { c.MaxMessageLength = 5000 }, true},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"no workers", func(c *Config) { c.Workers = 0 }, true},
		{"rate limit disabled", func(c *Config) { c.RateLimitDocuments = 0 }, false},
		{"stats report off", func(c *Config) { c.StatsSchedule = "off" }, false},
		{"stats cron expression", func(c *Config) { c.StatsSchedule = "30 8 * * 1" }, false},
		{"bad stats schedule", func(c *Config) { c.StatsSchedule = "every day" }, true},
		{"webhook secret", func(c *Config) { c.WebhookSecret = "Abc_123-xyz" }, false},
		{"webhook secret with space", func(c *Config) { c.WebhookSecret = "not allowed" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	fileCfg := Config{GeminiModel: "custom", Workers: 12}

	merged := fileCfg.MergeWithDefaults(Default())

	assert.Equal(t, "custom", merged.GeminiModel)
	assert.Equal(t, 12, merged.Workers)
	assert.Equal(t, 8080, merged.Port)
	assert.Equal(t, "console", merged.LogFormat)
	assert.Equal(t, time.Minute, merged.RateLimitWindow)
	assert.Equal(t, "@every 6h", merged.StatsSchedule)
	assert.True(t, merged.StatsReportEnabled())
}

func TestRequire(t *testing.T) {
	cfg := Default()
	assert.EqualError(t, cfg.RequireAnalyze(), "config error: GEMINI_API_KEY is required")

	cfg.GeminiAPIKey = "key"
	assert.NoError(t, cfg.RequireAnalyze())
	assert.EqualError(t, cfg.RequireServe(), "config error: TELEGRAM_BOT_TOKEN is required")

	cfg.DatabaseURL = "postgres://localhost/db"
	assert.NoError(t, cfg.RequireDatabase())
}

func TestApplyEnv_WebhookSecretAndExemptUsers(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEBHOOK_SECRET", "from_env")
	t.Setenv("RATE_LIMIT_EXEMPT_USERS", "42, 1001,")

	cfg := ApplyEnv(Default())

	assert.Equal(t, "from_env", cfg.WebhookSecret)
	assert.Equal(t, []int64{42, 1001}, cfg.RateLimitExemptUsers)
}

func TestApplyEnv_BadExemptUsersKeepsDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("RATE_LIMIT_EXEMPT_USERS", "42,admin")

	cfg := ApplyEnv(Config{RateLimitExemptUsers: []int64{1}})

	assert.Equal(t, []int64{1}, cfg.RateLimitExemptUsers)
}
