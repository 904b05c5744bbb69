package utils

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. DEMOCHECK_BASE_URL
const EnvPrefix = "DEMOCHECK"

const (
	DefaultBaseURL        = "http://localhost:5000"
	DefaultReportPath     = "test_reports/backend_test_results.json"
	DefaultFormat         = "text"
	DefaultHealthTimeout  = 5 * time.Second
	DefaultRequestTimeout = 10 * time.Second
	DefaultValidPhone     = "+919876543210"
)

// DefaultInvalidPhones are the malformed samples the demo endpoint must reject:
// too short, too short with country code, missing country code, non-numeric.
var DefaultInvalidPhones = []string{"123456", "+1234", "9876543210", "invalid"}

// Config is the resolved run configuration
type Config struct {
	BaseURL        string        `mapstructure:"base_url"`
	ReportPath     string        `mapstructure:"report_path"`
	MetricsFile    string        `mapstructure:"metrics_file"`
	Format         string        `mapstructure:"format"`
	HealthTimeout  time.Duration `mapstructure:"health_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ValidPhone     string        `mapstructure:"valid_phone"`
	InvalidPhones  []string      `mapstructure:"invalid_phones"`
	Expect         ExpectConfig  `mapstructure:"expect"`
}

// ExpectConfig holds the substrings the server's error messages must contain
type ExpectConfig struct {
	NotConfigured string `mapstructure:"not_configured"`
	Invalid       string `mapstructure:"invalid"`
	Required      string `mapstructure:"required"`
}

// NewViper returns a viper instance with defaults and environment overrides registered
func NewViper() *viper.Viper {
	v := viper.New()
	SetConfigDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// SetConfigDefaults registers every configuration key with its default value
func SetConfigDefaults(v *viper.Viper) {
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("report_path", DefaultReportPath)
	v.SetDefault("metrics_file", "")
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("health_timeout", DefaultHealthTimeout)
	v.SetDefault("request_timeout", DefaultRequestTimeout)
	v.SetDefault("valid_phone", DefaultValidPhone)
	v.SetDefault("invalid_phones", DefaultInvalidPhones)
	v.SetDefault("expect.not_configured", "service is not configured")
	v.SetDefault("expect.invalid", "invalid")
	v.SetDefault("expect.required", "required")
}

// LoadConfig reads the optional config file into v and decodes the result.
// An empty configFile means defaults and environment only.
func LoadConfig(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.Format = strings.ToLower(cfg.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the runner cannot work with
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid base URL %q: scheme must be http or https", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid base URL %q: missing host", c.BaseURL)
	}

	if c.ReportPath == "" {
		return fmt.Errorf("report path cannot be empty")
	}

	switch c.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid output format: %s (supported: json, text)", c.Format)
	}

	if c.HealthTimeout <= 0 {
		return fmt.Errorf("health timeout must be positive, got %s", c.HealthTimeout)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}

	if c.ValidPhone == "" {
		return fmt.Errorf("valid phone sample cannot be empty")
	}
	if len(c.InvalidPhones) == 0 {
		return fmt.Errorf("at least one invalid phone sample is required")
	}

	if c.Expect.NotConfigured == "" || c.Expect.Invalid == "" || c.Expect.Required == "" {
		return fmt.Errorf("expected error substrings cannot be empty")
	}

	return nil
}
