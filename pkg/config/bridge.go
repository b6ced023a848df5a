package config

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pwkit/pwkit/pkg/browser"
	"github.com/pwkit/pwkit/pkg/captcha"
	"github.com/pwkit/pwkit/pkg/intercept"
)

// PageOptions converts the browser section into session options.
func (c *Config) PageOptions() browser.PageOptions {
	opts := browser.PageOptions{
		BrowserType:          c.Browser.Type,
		Headless:             playwright.Bool(c.Browser.Headless),
		BlockResources:       playwright.Bool(c.Browser.BlockResources),
		BlockedResourceTypes: c.Browser.BlockedResourceTypes,
		UserAgent:            c.Browser.UserAgent,
		Locale:               c.Browser.Locale,
		TimezoneID:           c.Browser.Timezone,
		DisableStealth:       !c.Browser.Stealth,
		DefaultTimeout:       c.Browser.DefaultTimeoutMs,
	}
	if c.Browser.ViewportWidth > 0 && c.Browser.ViewportHeight > 0 {
		opts.Viewport = &browser.Viewport{
			Width:  c.Browser.ViewportWidth,
			Height: c.Browser.ViewportHeight,
		}
	}
	if c.Browser.Proxy.Server != "" {
		opts.Proxy = &browser.ProxyConfig{
			Server:   c.Browser.Proxy.Server,
			Username: c.Browser.Proxy.Username,
			Password: c.Browser.Proxy.Password,
		}
	}
	return opts
}

// InterceptOptions converts the intercept section into run options.
// Per-run fields like the matcher, detector and solver are left for the
// caller.
func (c *Config) InterceptOptions() intercept.Options {
	return intercept.Options{
		Timeout:        time.Duration(c.Intercept.TimeoutMs) * time.Millisecond,
		GotoTimeout:    time.Duration(c.Intercept.GotoTimeoutMs) * time.Millisecond,
		RefreshTimeout: time.Duration(c.Intercept.RefreshTimeoutMs) * time.Millisecond,
		MaxRefresh:     c.Intercept.MaxRefresh,
		PageOptions:    c.PageOptions(),
	}
}

// Solver builds the captcha solver described by the captcha section, or
// nil when no API key is configured.
func (c *Config) Solver(logger *zap.Logger) captcha.Solver {
	apiKey := c.Captcha.APIKeyValue()
	if apiKey == "" {
		return nil
	}

	var clientOpts []captcha.ClientOption
	if c.Captcha.BaseURL != "" {
		clientOpts = append(clientOpts, captcha.WithBaseURL(c.Captcha.BaseURL))
	}
	if c.Captcha.PollIntervalMs > 0 {
		clientOpts = append(clientOpts,
			captcha.WithPollInterval(time.Duration(c.Captcha.PollIntervalMs)*time.Millisecond))
	}
	if logger != nil {
		clientOpts = append(clientOpts, captcha.WithLogger(logger))
	}

	client := captcha.NewClient(apiKey, clientOpts...)
	return captcha.NewPageSolver(client,
		captcha.WithRefreshAfterSolve(c.Captcha.RefreshAfterSolve))
}

// BatchJobs converts the configured jobs into batch interception jobs,
// all sharing the intercept section's options.
func (c *Config) BatchJobs() ([]intercept.Job, error) {
	base := c.InterceptOptions()
	jobs := make([]intercept.Job, 0, len(c.Jobs))
	for _, jc := range c.Jobs {
		match := intercept.MatchSubstring(jc.Match)
		if jc.Glob != "" {
			m, err := intercept.MatchGlob(jc.Glob)
			if err != nil {
				return nil, fmt.Errorf("job %q: %w", jc.DisplayName(), err)
			}
			match = m
		}
		jobs = append(jobs, intercept.Job{
			Name:    jc.DisplayName(),
			PageURL: jc.URL,
			Match:   match,
			Options: base,
		})
	}
	return jobs, nil
}

// BuildLogger constructs a zap logger per the logging section.
func (c *Config) BuildLogger() (*zap.Logger, error) {
	levelText := c.Logging.Level
	if levelText == "" {
		levelText = "info"
	}
	level, err := zapcore.ParseLevel(levelText)
	if err != nil {
		return nil, fmt.Errorf("invalid logging level: %w", err)
	}

	zapCfg := zap.NewProductionConfig()
	if c.Logging.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	if c.Logging.File != "" {
		// zap opens file sinks in append mode, so runs sharing a file
		// accumulate rather than truncate.
		zapCfg.OutputPaths = append(zapCfg.OutputPaths, c.Logging.File)
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
