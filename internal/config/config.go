// Package config provides configuration loading and validation for the bot.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/growly/resume-bot/internal/llm"
	"github.com/growly/resume-bot/internal/schemas"
)

// Config holds every runtime setting. Values come from defaults, then an
// optional JSON file, then environment variables, then CLI flags.
type Config struct {
	TelegramToken   string `json:"telegram_bot_token,omitempty"`
	GeminiAPIKey    string `json:"gemini_api_key,omitempty"`
	GeminiModel     string `json:"gemini_model,omitempty" validate:"required"`
	DatabaseURL     string `json:"database_url,omitempty" validate:"omitempty,startswith=postgres"`
	RequiredChannel string `json:"required_channel,omitempty" validate:"omitempty,startswith=@"`
	WebhookURL      string `json:"webhook_url,omitempty" validate:"omitempty,url,startswith=https://"`
	// WebhookSecret is registered with Telegram and checked on every webhook
	// request. A random one is used when unset.
	WebhookSecret string `json:"webhook_secret,omitempty" validate:"omitempty,secret_token"`
	Port          int    `json:"port,omitempty" validate:"min=1,max=65535"`

	LogLevel  string `json:"log_level,omitempty" validate:"oneof=trace debug info warn warning error"`
	LogFormat string `json:"log_format,omitempty" validate:"oneof=console json"`

	RateLimitDocuments int           `json:"rate_limit_documents,omitempty" validate:"min=0"`
	RateLimitWindow    time.Duration `json:"-" validate:"gt=0"`
	AnalysisTimeout    time.Duration `json:"-" validate:"gt=0"`
	MaxDocumentBytes   int64         `json:"max_document_bytes,omitempty" validate:"min=1"`
	MaxMessageLength   int           `json:"max_message_length,omitempty" validate:"min=64,max=4096"`
	Workers            int           `json:"workers,omitempty" validate:"min=1,max=64"`

	// RateLimitExemptUsers are chat user IDs that are never rate limited.
	RateLimitExemptUsers []int64 `json:"rate_limit_exempt_users,omitempty"`

	// StatsSchedule is a cron expression for the periodic quality report;
	// "off" disables it.
	StatsSchedule string `json:"stats_schedule,omitempty"`
}

// fileConfig mirrors Config with durations spelled as strings ("90s").
type fileConfig struct {
	Config
	RateLimitWindow string `json:"rate_limit_window,omitempty"`
	AnalysisTimeout string `json:"analysis_timeout,omitempty"`
}

// secretTokenPattern is the character set Telegram accepts for secret_token.
var secretTokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,256}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("secret_token", func(fl validator.FieldLevel) bool {
		return secretTokenPattern.MatchString(fl.Field().String())
	})
	return v
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		GeminiModel:        llm.DefaultModel,
		Port:               8080,
		LogLevel:           "info",
		LogFormat:          "console",
		RateLimitDocuments: 5,
		RateLimitWindow:    time.Minute,
		AnalysisTimeout:    3 * time.Minute,
		MaxDocumentBytes:   20 << 20,
		MaxMessageLength:   4096,
		Workers:            4,
		StatsSchedule:      "@every 6h",
	}
}

// Load builds the effective configuration: defaults, then the JSON file at
// path (if non-empty), then environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg.MergeWithDefaults(cfg)
	}

	cfg = ApplyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig loads configuration from a JSON, TOML or YAML file (chosen by
// extension) after checking it against the embedded schema. Fields absent
// from the file are left zero.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	data, err = toJSON(path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := schemas.ValidateConfig(data); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var raw fileConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	cfg := raw.Config
	if raw.RateLimitWindow != "" {
		if cfg.RateLimitWindow, err = time.ParseDuration(raw.RateLimitWindow); err != nil {
			return nil, fmt.Errorf("config error: rate_limit_window: %w", err)
		}
	}
	if raw.AnalysisTimeout != "" {
		if cfg.AnalysisTimeout, err = time.ParseDuration(raw.AnalysisTimeout); err != nil {
			return nil, fmt.Errorf("config error: analysis_timeout: %w", err)
		}
	}

	return &cfg, nil
}

// toJSON converts TOML and YAML documents to JSON so every format goes
// through the same schema. JSON is returned unchanged.
func toJSON(path string, data []byte) ([]byte, error) {
	var doc map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		return data, nil
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return json.Marshal(doc)
}

// Validate checks value ranges. Credentials are checked separately by
// RequireServe and RequireAnalyze since not every command needs them.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.StatsReportEnabled() {
		if _, err := cron.ParseStandard(c.StatsSchedule); err != nil {
			return fmt.Errorf("config error: stats_schedule: %w", err)
		}
	}
	return nil
}

// RequireServe checks the settings needed to run the bot.
func (c *Config) RequireServe() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("config error: TELEGRAM_BOT_TOKEN is required")
	}
	return c.RequireAnalyze()
}

// RequireAnalyze checks the settings needed to call the model.
func (c *Config) RequireAnalyze() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("config error: GEMINI_API_KEY is required")
	}
	return nil
}

// RequireDatabase checks that a database URL is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("config error: DATABASE_URL is required")
	}
	return nil
}

// StatsReportEnabled reports whether the periodic quality report runs.
func (c *Config) StatsReportEnabled() bool {
	return c.StatsSchedule != "" && c.StatsSchedule != "off"
}

// WebhookMode reports whether updates arrive by webhook rather than polling.
func (c *Config) WebhookMode() bool {
	return c.WebhookURL != ""
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.TelegramToken == "" {
		result.TelegramToken = defaults.TelegramToken
	}
	if result.GeminiAPIKey == "" {
		result.GeminiAPIKey = defaults.GeminiAPIKey
	}
	if result.GeminiModel == "" {
		result.GeminiModel = defaults.GeminiModel
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.RequiredChannel == "" {
		result.RequiredChannel = defaults.RequiredChannel
	}
	if result.WebhookURL == "" {
		result.WebhookURL = defaults.WebhookURL
	}
	if result.WebhookSecret == "" {
		result.WebhookSecret = defaults.WebhookSecret
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}
	if result.StatsSchedule == "" {
		result.StatsSchedule = defaults.StatsSchedule
	}

	// Numeric fields: use default if zero
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.RateLimitDocuments == 0 {
		result.RateLimitDocuments = defaults.RateLimitDocuments
	}
	if result.RateLimitWindow == 0 {
		result.RateLimitWindow = defaults.RateLimitWindow
	}
	if result.AnalysisTimeout == 0 {
		result.AnalysisTimeout = defaults.AnalysisTimeout
	}
	if result.MaxDocumentBytes == 0 {
		result.MaxDocumentBytes = defaults.MaxDocumentBytes
	}
	if result.MaxMessageLength == 0 {
		result.MaxMessageLength = defaults.MaxMessageLength
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}

	// Slice fields: use default if nil
	if result.RateLimitExemptUsers == nil {
		result.RateLimitExemptUsers = defaults.RateLimitExemptUsers
	}

	return result
}
