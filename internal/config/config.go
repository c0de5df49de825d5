package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

// Environment keys. The service keys match the names used in the project's
// .env file.
const (
	EnvJotformAPIKey        = "JOTFORM_API_KEY"
	EnvJotformBaseURL       = "JOTFORM_BASE_URL"
	EnvJotformSignupFormID  = "JOTFORM_SIGNUP_FORM_ID"
	EnvJotformSetupFormID   = "JOTFORM_SETUP_FORM_ID"
	EnvGivebutterAPIKey     = "GIVEBUTTER_API_KEY"
	EnvGivebutterBaseURL    = "GIVEBUTTER_BASE_URL"
	EnvGivebutterCampaignID = "GIVEBUTTER_CAMPAIGN_ID"
	EnvSupabaseURL          = "SUPABASE_URL"
	EnvSupabaseKey          = "SUPABASE_KEY"
	EnvSupabaseDBURL        = "SUPABASE_DB_URL"
	EnvSupabaseTable        = "SUPABASE_TABLE"
	EnvHTTPTimeout          = "PREFLIGHT_HTTP_TIMEOUT"
	EnvLogLevel             = "PREFLIGHT_LOG_LEVEL"
	EnvOutput               = "PREFLIGHT_OUTPUT"
	EnvSampleLimit          = "PREFLIGHT_SAMPLE_LIMIT"
	EnvKeyring              = "PREFLIGHT_KEYRING"
	EnvHistoryFile          = "PREFLIGHT_HISTORY_FILE"
	EnvHistoryMaxSize       = "PREFLIGHT_HISTORY_MAX_SIZE"
	EnvWebhookURL           = "PREFLIGHT_WEBHOOK_URL"
	EnvWebhookHeaders       = "PREFLIGHT_WEBHOOK_HEADERS"
)

// Defaults for identifiers and settings that are not secrets.
const (
	DefaultJotformBaseURL    = "https://api.jotform.com"
	DefaultGivebutterBaseURL = "https://api.givebutter.com/v1"
	DefaultSignupFormID      = "250685983663169"
	DefaultSetupFormID       = "250754977634066"
	DefaultCampaignID        = "CQVG3W"
	DefaultTable             = "jotform_signups"
	DefaultHTTPTimeout       = 30 * time.Second
	DefaultSampleLimit       = 2
	DefaultEnvFile           = ".env"
	DefaultKeyringService    = "preflight"
	// DefaultLogLevel keeps routine progress lines off stderr; the report is
	// the output.
	DefaultLogLevel = "warn"
)

// SecretKeys are the keys that may be looked up in the OS keyring when the
// environment does not provide them.
var SecretKeys = []string{EnvJotformAPIKey, EnvGivebutterAPIKey, EnvSupabaseKey, EnvSupabaseDBURL, EnvWebhookURL, EnvWebhookHeaders}

// Config holds all preflight configuration. It is built once at process entry
// and treated as read-only afterwards.
type Config struct {
	FormService     FormServiceConfig
	CampaignService CampaignServiceConfig
	DataStore       DataStoreConfig
	HTTP            HTTPConfig
	Log             LogConfig
	Output          OutputConfig
}

// FormServiceConfig holds Jotform settings.
type FormServiceConfig struct {
	APIKey       string
	BaseURL      string
	SignupFormID string
	SetupFormID  string
}

// CampaignServiceConfig holds Givebutter settings.
type CampaignServiceConfig struct {
	APIKey     string
	BaseURL    string
	CampaignID string
}

// DataStoreConfig holds Supabase settings. DatabaseURL, when set, selects a
// direct Postgres connection instead of the REST API.
type DataStoreConfig struct {
	URL         string
	Key         string
	DatabaseURL string
	Table       string
}

// HTTPConfig holds transport settings shared by all HTTP services.
type HTTPConfig struct {
	Timeout time.Duration
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string // "debug", "info", "warn", "error"
}

// OutputConfig holds report rendering settings.
type OutputConfig struct {
	Format      string // "console", "json", "yaml", "csv"
	SampleLimit int
	// HistoryFile, when set, receives every connectivity report as one NDJSON
	// line.
	HistoryFile string
	// HistoryMaxSize is the size in bytes at which the history file is
	// rotated. 0 disables rotation.
	HistoryMaxSize int64
	// WebhookURL, when set, receives every report as a JSON POST.
	WebhookURL     string
	WebhookHeaders map[string]string
}

// Options controls where Load looks for values.
type Options struct {
	// EnvFile is a dotenv file read before the environment. A missing file is
	// not an error. "~" is expanded.
	EnvFile string
	// UseKeyring enables the OS keyring fallback for SecretKeys. It is also
	// enabled by PREFLIGHT_KEYRING=true.
	UseKeyring     bool
	KeyringService string
}

// Load reads configuration from the env file, the environment and, when
// enabled, the OS keyring. Environment values win over the env file.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	if opts.EnvFile != "" {
		path, err := homedir.Expand(opts.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("config: expand env file: %w", err)
		}
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
			slog.Debug("loaded env file", "path", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	if opts.UseKeyring || v.GetBool(EnvKeyring) {
		service := opts.KeyringService
		if service == "" {
			service = DefaultKeyringService
		}
		loadKeyring(v, service)
	}

	headers, err := ParseHeaders(v.GetString(EnvWebhookHeaders))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", EnvWebhookHeaders, err)
	}

	cfg := &Config{
		FormService: FormServiceConfig{
			APIKey:       getString(v, EnvJotformAPIKey, ""),
			BaseURL:      getString(v, EnvJotformBaseURL, DefaultJotformBaseURL),
			SignupFormID: getString(v, EnvJotformSignupFormID, DefaultSignupFormID),
			SetupFormID:  getString(v, EnvJotformSetupFormID, DefaultSetupFormID),
		},
		CampaignService: CampaignServiceConfig{
			APIKey:     getString(v, EnvGivebutterAPIKey, ""),
			BaseURL:    getString(v, EnvGivebutterBaseURL, DefaultGivebutterBaseURL),
			CampaignID: getString(v, EnvGivebutterCampaignID, DefaultCampaignID),
		},
		DataStore: DataStoreConfig{
			URL:         getString(v, EnvSupabaseURL, ""),
			Key:         getString(v, EnvSupabaseKey, ""),
			DatabaseURL: getString(v, EnvSupabaseDBURL, ""),
			Table:       getString(v, EnvSupabaseTable, DefaultTable),
		},
		HTTP: HTTPConfig{
			Timeout: getDuration(v, EnvHTTPTimeout, DefaultHTTPTimeout),
		},
		Log: LogConfig{
			Level: getString(v, EnvLogLevel, DefaultLogLevel),
		},
		Output: OutputConfig{
			Format:         getString(v, EnvOutput, "console"),
			SampleLimit:    getInt(v, EnvSampleLimit, DefaultSampleLimit),
			HistoryFile:    getString(v, EnvHistoryFile, ""),
			HistoryMaxSize: getInt64(v, EnvHistoryMaxSize, 0),
			WebhookURL:     getString(v, EnvWebhookURL, ""),
			WebhookHeaders: headers,
		},
	}
	return cfg, nil
}

// Validate checks the settings that are not credentials. Missing credentials
// are reported per service by the credential resolver instead.
func (c *Config) Validate() error {
	var errs []error
	switch c.Output.Format {
	case "console", "json", "yaml", "csv":
	default:
		errs = append(errs, fmt.Errorf("output format %q must be one of console, json, yaml, csv", c.Output.Format))
	}
	if c.Output.SampleLimit < 1 {
		errs = append(errs, fmt.Errorf("sample limit must be at least 1, got %d", c.Output.SampleLimit))
	}
	if c.Output.HistoryMaxSize < 0 {
		errs = append(errs, fmt.Errorf("history max size must not be negative, got %d", c.Output.HistoryMaxSize))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("http timeout must be positive, got %v", c.HTTP.Timeout))
	}
	if c.Output.WebhookURL != "" {
		if u, err := url.Parse(c.Output.WebhookURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, errors.New("webhook url must be an absolute http(s) url"))
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log level %q must be one of debug, info, warn, error", c.Log.Level))
	}
	return errors.Join(errs...)
}

// loadKeyring fills secrets the environment left empty. Lookup failures are
// logged and otherwise ignored.
func loadKeyring(v *viper.Viper, service string) {
	for _, key := range SecretKeys {
		if strings.TrimSpace(v.GetString(key)) != "" {
			continue
		}
		secret, err := keyring.Get(service, key)
		switch {
		case err == nil:
			v.Set(key, secret)
			slog.Debug("secret loaded from keyring", "key", key)
		case errors.Is(err, keyring.ErrNotFound):
		default:
			slog.Debug("keyring lookup failed", "key", key, "error", err)
		}
	}
}

func getString(v *viper.Viper, key, fallback string) string {
	if s := strings.TrimSpace(v.GetString(key)); s != "" {
		return s
	}
	return fallback
}

func getInt(v *viper.Viper, key string, fallback int) int {
	if !v.IsSet(key) || strings.TrimSpace(v.GetString(key)) == "" {
		return fallback
	}
	return v.GetInt(key)
}

func getInt64(v *viper.Viper, key string, fallback int64) int64 {
	if !v.IsSet(key) || strings.TrimSpace(v.GetString(key)) == "" {
		return fallback
	}
	return v.GetInt64(key)
}

// ParseHeaders parses comma-separated Name=value pairs. An empty string
// yields nil.
func ParseHeaders(raw string) (map[string]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	headers := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("header %q is not Name=value", strings.TrimSpace(entry))
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

func getDuration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
