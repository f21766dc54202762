package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment variables read by LoadSettings.
const (
	EnvBaseURL       = "FLOWISE_BASE_URL"
	EnvAPIKey        = "FLOWISE_API_KEY"
	EnvTimeout       = "FLOWISE_TIMEOUT"
	EnvRetryAttempts = "FLOWISE_RETRY_ATTEMPTS"
	EnvLogLevel      = "FLOWISE_LOG_LEVEL"
	EnvLogFormat     = "FLOWISE_LOG_FORMAT"
	EnvTelemetry     = "FLOWISE_TELEMETRY"
	EnvConfigFile    = "FLOWISE_MCP_CONFIG"
)

// Config file keys.
const (
	KeyBaseURL       = "base_url"
	KeyAPIKey        = "api_key"
	KeyTimeout       = "timeout"
	KeyRetryAttempts = "retry_attempts"
	KeyLogLevel      = "log_level"
	KeyLogFormat     = "log_format"
	KeyTelemetry     = "telemetry"
)

// envKeys maps config keys to the environment variables that override them.
var envKeys = [][2]string{
	{KeyBaseURL, EnvBaseURL},
	{KeyAPIKey, EnvAPIKey},
	{KeyTimeout, EnvTimeout},
	{KeyRetryAttempts, EnvRetryAttempts},
	{KeyLogLevel, EnvLogLevel},
	{KeyLogFormat, EnvLogFormat},
	{KeyTelemetry, EnvTelemetry},
}

// Defaults.
const (
	DefaultBaseURL       = "http://localhost:3000"
	DefaultTimeout       = 60 * time.Second
	DefaultRetryAttempts = 3
)

// Settings is the resolved runtime configuration of the server and CLI.
type Settings struct {
	BaseURL       string        `validate:"required,url"`
	APIKey        string        `validate:"-"`
	Timeout       time.Duration `validate:"gt=0"`
	RetryAttempts int           `validate:"min=1,max=10"`
	LogLevel      string        `validate:"oneof=debug info warn error"`
	LogFormat     string        `validate:"oneof=text json"`
	Telemetry     bool
}

var settingsValidate = validator.New()

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		BaseURL:       DefaultBaseURL,
		Timeout:       DefaultTimeout,
		RetryAttempts: DefaultRetryAttempts,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// SettingsFrom resolves Settings from cfg, falling back to DefaultSettings.
func SettingsFrom(cfg Config) Settings {
	d := DefaultSettings()
	return Settings{
		BaseURL:       strings.TrimRight(cfg.String(KeyBaseURL, d.BaseURL), "/"),
		APIKey:        cfg.String(KeyAPIKey, d.APIKey),
		Timeout:       cfg.Duration(KeyTimeout, d.Timeout),
		RetryAttempts: cfg.Int(KeyRetryAttempts, d.RetryAttempts),
		LogLevel:      strings.ToLower(cfg.String(KeyLogLevel, d.LogLevel)),
		LogFormat:     strings.ToLower(cfg.String(KeyLogFormat, d.LogFormat)),
		Telemetry:     cfg.Bool(KeyTelemetry, d.Telemetry),
	}
}

// Validate reports the first invalid setting.
func (s Settings) Validate() error {
	if err := settingsValidate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// FromEnv builds a Config from the FLOWISE_* environment variables using
// lookup. Variables that are unset or empty are skipped.
func FromEnv(lookup func(string) (string, bool)) Config {
	data := make(map[string]any)
	for _, pair := range envKeys {
		if v, ok := lookup(pair[1]); ok && v != "" {
			data[pair[0]] = v
		}
	}
	return New(data)
}

// Merge returns a Config holding c's values overridden by other's.
func (c Config) Merge(other Config) Config {
	merged := c
	for k, v := range other.data {
		merged = merged.With(k, v)
	}
	return merged
}

// LoadSettings reads the optional config file at path, applies environment
// overrides and validates the result.
//
// An empty path falls back to $FLOWISE_MCP_CONFIG. With neither set only
// the environment and defaults apply.
func LoadSettings(path string) (Settings, error) {
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}

	cfg := New(nil)
	if path != "" {
		fileCfg, err := FromFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("load settings: %w", err)
		}
		cfg = fileCfg
	}

	settings := SettingsFrom(cfg.Merge(FromEnv(os.LookupEnv)))
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}
