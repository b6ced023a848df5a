// Package config loads and validates the YAML configuration shared by
// the pwkit command and scraping pipelines built on the pwkit packages.
//
// Files are applied on top of Default, so a config file only needs the
// fields it wants to change.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pwkit/pwkit/pkg/browser"
	"github.com/pwkit/pwkit/pkg/intercept"
)

// Config is the top-level configuration.
type Config struct {
	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Browser session defaults
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Interception run defaults
	Intercept InterceptConfig `yaml:"intercept" json:"intercept"`

	// Captcha solving service
	Captcha CaptchaConfig `yaml:"captcha" json:"captcha"`

	// Jobs to run in batch mode
	Jobs []JobConfig `yaml:"jobs" json:"jobs"`
}

// LoggingConfig defines logging configuration.
type LoggingConfig struct {
	// Level controls logging verbosity: debug, info, warn, error
	Level string `yaml:"level" json:"level"`

	// Development switches to the human-readable console encoder
	Development bool `yaml:"development" json:"development"`

	// File appends a copy of the log stream to the given path, empty
	// disables file logging
	File string `yaml:"file" json:"file"`
}

// ProxyConfig describes an upstream proxy for browser traffic.
type ProxyConfig struct {
	Server   string `yaml:"server" json:"server"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// BrowserConfig defines the defaults for new browser sessions.
type BrowserConfig struct {
	// Type selects the engine: chromium or firefox
	Type string `yaml:"type" json:"type"`

	// Headless controls whether the browser runs without a window
	Headless bool `yaml:"headless" json:"headless"`

	// Stealth enables the anti-webdriver init script
	Stealth bool `yaml:"stealth" json:"stealth"`

	// Proxy routes browser traffic through an upstream proxy
	Proxy ProxyConfig `yaml:"proxy" json:"proxy"`

	// Context fingerprint overrides, empty means browser default
	UserAgent string `yaml:"user_agent" json:"user_agent"`
	Locale    string `yaml:"locale" json:"locale"`
	Timezone  string `yaml:"timezone" json:"timezone"`

	// Viewport dimensions
	ViewportWidth  int `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int `yaml:"viewport_height" json:"viewport_height"`

	// Resource blocking
	BlockResources       bool     `yaml:"block_resources" json:"block_resources"`
	BlockedResourceTypes []string `yaml:"blocked_resource_types" json:"blocked_resource_types"`

	// DefaultTimeoutMs is the page-level timeout for actions and waits
	DefaultTimeoutMs float64 `yaml:"default_timeout_ms" json:"default_timeout_ms"`
}

// InterceptConfig defines the timing defaults for interception runs.
type InterceptConfig struct {
	// TimeoutMs is the poll budget per run
	TimeoutMs int `yaml:"timeout_ms" json:"timeout_ms"`

	// GotoTimeoutMs bounds the initial navigation
	GotoTimeoutMs int `yaml:"goto_timeout_ms" json:"goto_timeout_ms"`

	// RefreshTimeoutMs bounds solver-requested reloads
	RefreshTimeoutMs int `yaml:"refresh_timeout_ms" json:"refresh_timeout_ms"`

	// MaxRefresh caps solver-requested reloads per run
	MaxRefresh int `yaml:"max_refresh" json:"max_refresh"`

	// Parallel is the batch-mode concurrency limit
	Parallel int `yaml:"parallel" json:"parallel"`
}

// CaptchaConfig defines the captcha solving service.
type CaptchaConfig struct {
	// Provider names the solving service. Only 2captcha is supported.
	Provider string `yaml:"provider" json:"provider"`

	// APIKey authenticates against the service. A ${VAR} value is
	// resolved from the environment at use time.
	APIKey string `yaml:"api_key" json:"api_key"`

	// BaseURL overrides the service endpoint
	BaseURL string `yaml:"base_url" json:"base_url"`

	// PollIntervalMs is the delay between answer polls
	PollIntervalMs int `yaml:"poll_interval_ms" json:"poll_interval_ms"`

	// RefreshAfterSolve reloads the page once a token is injected
	RefreshAfterSolve bool `yaml:"refresh_after_solve" json:"refresh_after_solve"`
}

// JobConfig describes one batch-mode interception job.
type JobConfig struct {
	// Name labels the job in output, defaults to the URL
	Name string `yaml:"name" json:"name"`

	// URL is the page to load
	URL string `yaml:"url" json:"url"`

	// Match selects the hidden API response by URL substring
	Match string `yaml:"match" json:"match"`

	// Glob selects the hidden API response by URL glob, overriding Match
	Glob string `yaml:"glob" json:"glob"`
}

// DisplayName returns the job's name, falling back to its URL.
func (j JobConfig) DisplayName() string {
	if j.Name != "" {
		return j.Name
	}
	return j.URL
}

// APIKeyValue resolves the configured captcha API key, expanding a
// ${VAR} reference against the environment.
func (c CaptchaConfig) APIKeyValue() string {
	return expandEnvRef(c.APIKey)
}

func expandEnvRef(v string) string {
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		return os.Getenv(strings.TrimSuffix(strings.TrimPrefix(v, "${"), "}"))
	}
	return v
}

// Default returns a configuration suitable for most scraping runs.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Browser: BrowserConfig{
			Type:             browser.BrowserChromium,
			Headless:         true,
			Stealth:          true,
			ViewportWidth:    browser.DefaultViewportWidth,
			ViewportHeight:   browser.DefaultViewportHeight,
			BlockResources:   true,
			DefaultTimeoutMs: browser.DefaultTimeout,
		},
		Intercept: InterceptConfig{
			TimeoutMs:        int(intercept.DefaultTimeout / time.Millisecond),
			GotoTimeoutMs:    int(intercept.DefaultGotoTimeout / time.Millisecond),
			RefreshTimeoutMs: int(intercept.DefaultRefreshTimeout / time.Millisecond),
			MaxRefresh:       intercept.DefaultMaxRefresh,
			Parallel:         4,
		},
		Captcha: CaptchaConfig{
			Provider:       "2captcha",
			APIKey:         "${TWOCAPTCHA_API_KEY}",
			PollIntervalMs: 5000,
		},
	}
}

// Load reads a YAML configuration file, applying file values on top of
// the defaults. The result is not validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration, filling defaulted fields that
// were set to empty.
func (c *Config) Validate() error {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be 'debug', 'info', 'warn', or 'error')", c.Logging.Level)
	}

	if c.Browser.Type == "" {
		c.Browser.Type = browser.BrowserChromium
	}
	validBrowsers := map[string]bool{
		browser.BrowserChromium: true,
		browser.BrowserFirefox:  true,
	}
	if !validBrowsers[c.Browser.Type] {
		return fmt.Errorf("invalid browser type: %s (must be 'chromium' or 'firefox')", c.Browser.Type)
	}

	if c.Browser.DefaultTimeoutMs < 0 {
		return fmt.Errorf("default_timeout_ms cannot be negative")
	}
	if c.Browser.ViewportWidth < 0 || c.Browser.ViewportHeight < 0 {
		return fmt.Errorf("viewport dimensions cannot be negative")
	}

	if c.Intercept.TimeoutMs < 0 {
		return fmt.Errorf("timeout_ms cannot be negative")
	}
	if c.Intercept.GotoTimeoutMs < 0 {
		return fmt.Errorf("goto_timeout_ms cannot be negative")
	}
	if c.Intercept.RefreshTimeoutMs < 0 {
		return fmt.Errorf("refresh_timeout_ms cannot be negative")
	}
	if c.Intercept.MaxRefresh < 0 {
		return fmt.Errorf("max_refresh cannot be negative")
	}
	if c.Intercept.Parallel < 0 {
		return fmt.Errorf("parallel cannot be negative")
	}

	if c.Captcha.Provider != "" && c.Captcha.Provider != "2captcha" {
		return fmt.Errorf("unsupported captcha provider: %s (only '2captcha' is supported)", c.Captcha.Provider)
	}
	if c.Captcha.PollIntervalMs < 0 {
		return fmt.Errorf("poll_interval_ms cannot be negative")
	}

	for i, job := range c.Jobs {
		if job.URL == "" {
			return fmt.Errorf("job %d: url is required", i)
		}
		if job.Match == "" && job.Glob == "" {
			return fmt.Errorf("job %q: either match or glob is required", job.DisplayName())
		}
		if job.Glob != "" {
			if _, err := intercept.MatchGlob(job.Glob); err != nil {
				return fmt.Errorf("job %q: %w", job.DisplayName(), err)
			}
		}
	}

	return nil
}

// Redacted returns a copy safe for logging, with the proxy password and
// captcha API key masked. Unexpanded ${VAR} references stay visible.
func (c Config) Redacted() Config {
	out := c
	if out.Browser.Proxy.Password != "" {
		out.Browser.Proxy.Password = "***"
	}
	if out.Captcha.APIKey != "" && !strings.HasPrefix(out.Captcha.APIKey, "${") {
		out.Captcha.APIKey = "***"
	}
	return out
}
