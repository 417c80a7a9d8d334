package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"invoicedesk/internal/logger"
)

// ConfigFileEnv names the environment variable holding the optional YAML
// configuration file path.
const ConfigFileEnv = "INVOICEDESK_CONFIG"

// Defaults applied before the config file and the environment.
const (
	DefaultTimeout       = 15 * time.Second
	DefaultPageSize      = 10
	DefaultCurrency      = "NGN"
	DefaultLocale        = "en-NG"
	DefaultUploadWorkers = 4
	DefaultConsoleLog    = "invoicedesk.log"
)

type Config struct {
	// Invoice API Configuration
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`

	// Console Configuration
	PageSize      int    `yaml:"page_size"`
	Currency      string `yaml:"currency"`
	Locale        string `yaml:"locale"`
	UploadWorkers int    `yaml:"upload_workers"`
	ConsoleLog    string `yaml:"console_log"`

	// Logging Configuration
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
	LogTimeFormat string `yaml:"log_time_format"`
	LogOutput     string `yaml:"log_output"`
}

// Load resolves configuration from defaults, the YAML file named by
// INVOICEDESK_CONFIG (if set), and the environment, in that order.
//
// The invoice API base URL has no default; commands that talk to the API
// call RequireBaseURL after applying any --base-url flag.
func Load() (*Config, error) {
	config := defaults()

	if path := getEnv(ConfigFileEnv, ""); path != "" {
		if err := config.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func defaults() *Config {
	return &Config{
		Timeout:       DefaultTimeout,
		PageSize:      DefaultPageSize,
		Currency:      DefaultCurrency,
		Locale:        DefaultLocale,
		UploadWorkers: DefaultUploadWorkers,
		ConsoleLog:    DefaultConsoleLog,
		LogLevel:      "info",
		LogFormat:     "console",
		LogTimeFormat: time.RFC3339,
		LogOutput:     "stdout",
	}
}

// loadFile overlays the YAML file at path. Keys missing from the file keep
// their current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.BaseURL = getEnv("INVOICE_API_BASE_URL", c.BaseURL)
	c.Currency = getEnv("INVOICE_CURRENCY", c.Currency)
	c.Locale = getEnv("INVOICE_LOCALE", c.Locale)
	c.ConsoleLog = getEnv("INVOICE_CONSOLE_LOG", c.ConsoleLog)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
	c.LogTimeFormat = getEnv("LOG_TIME_FORMAT", c.LogTimeFormat)
	c.LogOutput = getEnv("LOG_OUTPUT", c.LogOutput)

	if value := getEnv("INVOICE_API_TIMEOUT", ""); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("INVOICE_API_TIMEOUT: %w", err)
		}
		c.Timeout = timeout
	}

	var err error
	if c.PageSize, err = getEnvInt("INVOICE_PAGE_SIZE", c.PageSize); err != nil {
		return err
	}
	if c.UploadWorkers, err = getEnvInt("INVOICE_UPLOAD_WORKERS", c.UploadWorkers); err != nil {
		return err
	}
	return nil
}

func (c *Config) validate() error {
	if c.BaseURL != "" {
		if err := validateBaseURL(c.BaseURL); err != nil {
			return err
		}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("INVOICE_API_TIMEOUT must be positive, got %s", c.Timeout)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("INVOICE_PAGE_SIZE must be at least 1, got %d", c.PageSize)
	}
	if c.UploadWorkers < 1 {
		return fmt.Errorf("INVOICE_UPLOAD_WORKERS must be at least 1, got %d", c.UploadWorkers)
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("INVOICE_CURRENCY must be an ISO 4217 code, got %q", c.Currency)
	}
	c.Currency = strings.ToUpper(c.Currency)
	return nil
}

// SetBaseURL overrides the configured base URL, e.g. from a command-line flag.
func (c *Config) SetBaseURL(baseURL string) error {
	if err := validateBaseURL(baseURL); err != nil {
		return err
	}
	c.BaseURL = baseURL
	return nil
}

// RequireBaseURL reports an error when no invoice API base URL is configured.
func (c *Config) RequireBaseURL() error {
	if c.BaseURL == "" {
		return fmt.Errorf("INVOICE_API_BASE_URL is required (or pass --base-url)")
	}
	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("INVOICE_API_BASE_URL is invalid: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("INVOICE_API_BASE_URL must be an absolute http or https URL, got %q", raw)
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

// GetConsoleLoggerConfig returns the logger configuration for the
// interactive console. Terminal outputs are redirected to ConsoleLog so
// log lines never draw over the screen.
func (c *Config) GetConsoleLoggerConfig() logger.LogConfig {
	cfg := c.GetLoggerConfig()
	if cfg.Output == "stdout" || cfg.Output == "stderr" {
		cfg.Output = c.ConsoleLog
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
