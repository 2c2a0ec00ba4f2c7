// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/elemkit/pkg/interact"
)

// Backend names accepted in browser.backend.
const (
	BackendCDP        = "cdp"
	BackendWebDriver  = "webdriver"
	BackendPlaywright = "playwright"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Helper  HelperConfig  `mapstructure:"helper" yaml:"helper"`
	Steps   StepsConfig   `mapstructure:"steps" yaml:"steps"`
}

type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig selects and configures the automation backend the CLI drives.
type BrowserConfig struct {
	Backend           string        `mapstructure:"backend" yaml:"backend"`
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath          string        `mapstructure:"exec_path" yaml:"exec_path"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	RemoteURL         string        `mapstructure:"remote_url" yaml:"remote_url"`
	WebDriverURL      string        `mapstructure:"webdriver_url" yaml:"webdriver_url"`
	BrowserName       string        `mapstructure:"browser_name" yaml:"browser_name"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// HelperConfig mirrors interact.Options.
type HelperConfig struct {
	MaxClickAttempts      int           `mapstructure:"max_click_attempts" yaml:"max_click_attempts"`
	PollInterval          time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	WaitTimeoutSeconds    int           `mapstructure:"wait_timeout_seconds" yaml:"wait_timeout_seconds"`
	ReportClickExhaustion bool          `mapstructure:"report_click_exhaustion" yaml:"report_click_exhaustion"`
	TransientPatterns     []string      `mapstructure:"transient_patterns" yaml:"transient_patterns"`
}

type StepsConfig struct {
	// RatePerSecond paces step execution. Zero means unlimited.
	RatePerSecond float64 `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	Burst         int     `mapstructure:"burst" yaml:"burst"`
}

// Options converts the helper section into interact.Options. Transient
// patterns replace the built-in "input area" match only when configured.
func (h HelperConfig) Options() interact.Options {
	opts := interact.Options{
		MaxClickAttempts:      h.MaxClickAttempts,
		PollInterval:          h.PollInterval,
		DefaultWaitTimeout:    h.WaitTimeoutSeconds,
		ReportClickExhaustion: h.ReportClickExhaustion,
	}
	if len(h.TransientPatterns) > 0 {
		opts.IsTransient = interact.MatchMessages(h.TransientPatterns...)
	}
	return opts
}

func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "elemkit")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.backend", BackendCDP)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.webdriver_url", "http://localhost:4444/wd/hub")
	v.SetDefault("browser.browser_name", "chrome")
	v.SetDefault("browser.navigation_timeout", "30s")

	// -- Helper --
	v.SetDefault("helper.max_click_attempts", interact.DefaultMaxClickAttempts)
	v.SetDefault("helper.poll_interval", interact.DefaultPollInterval)
	v.SetDefault("helper.wait_timeout_seconds", interact.DefaultWaitTimeout)
	v.SetDefault("helper.report_click_exhaustion", false)
	v.SetDefault("helper.transient_patterns", []string{"input area"})

	// -- Steps --
	v.SetDefault("steps.rate_per_second", 0.0)
	v.SetDefault("steps.burst", 1)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Browser.Backend = strings.ToLower(strings.TrimSpace(cfg.Browser.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Browser.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if err := c.Helper.Validate(); err != nil {
		return fmt.Errorf("helper configuration invalid: %w", err)
	}
	if c.Steps.RatePerSecond < 0 {
		return fmt.Errorf("steps.rate_per_second must not be negative")
	}
	if c.Steps.RatePerSecond > 0 && c.Steps.Burst <= 0 {
		return fmt.Errorf("steps.burst must be positive when a rate is set")
	}
	return nil
}

// Validate checks the browser backend selection.
func (b *BrowserConfig) Validate() error {
	switch b.Backend {
	case BackendCDP, BackendPlaywright:
	case BackendWebDriver:
		if b.WebDriverURL == "" {
			return fmt.Errorf("webdriver_url is required for the webdriver backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s, %s or %s)", b.Backend, BackendCDP, BackendWebDriver, BackendPlaywright)
	}
	if b.NavigationTimeout < 0 {
		return fmt.Errorf("navigation_timeout must not be negative")
	}
	return nil
}

// Validate rejects negative values. Zero values fall back to the helper defaults.
func (h *HelperConfig) Validate() error {
	if h.MaxClickAttempts < 0 {
		return fmt.Errorf("max_click_attempts must not be negative")
	}
	if h.PollInterval < 0 {
		return fmt.Errorf("poll_interval must not be negative")
	}
	if h.WaitTimeoutSeconds < 0 {
		return fmt.Errorf("wait_timeout_seconds must not be negative")
	}
	return nil
}
