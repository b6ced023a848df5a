package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pwkit/pwkit/pkg/browser"
	"github.com/pwkit/pwkit/pkg/captcha"
)

func TestPageOptionsBridge(t *testing.T) {
	cfg := Default()
	cfg.Browser.Type = browser.BrowserFirefox
	cfg.Browser.Headless = false
	cfg.Browser.Stealth = false
	cfg.Browser.UserAgent = "pwkit/1.0"
	cfg.Browser.Locale = "fr-FR"
	cfg.Browser.Timezone = "Europe/Paris"
	cfg.Browser.ViewportWidth = 800
	cfg.Browser.ViewportHeight = 600
	cfg.Browser.BlockedResourceTypes = []string{"image"}
	cfg.Browser.Proxy = ProxyConfig{Server: "http://proxy:8080", Username: "u", Password: "p"}

	opts := cfg.PageOptions()

	assert.Equal(t, browser.BrowserFirefox, opts.BrowserType)
	require.NotNil(t, opts.Headless)
	assert.False(t, *opts.Headless)
	assert.True(t, opts.DisableStealth)
	assert.Equal(t, "pwkit/1.0", opts.UserAgent)
	assert.Equal(t, "fr-FR", opts.Locale)
	assert.Equal(t, "Europe/Paris", opts.TimezoneID)
	require.NotNil(t, opts.Viewport)
	assert.Equal(t, 800, opts.Viewport.Width)
	assert.Equal(t, 600, opts.Viewport.Height)
	assert.Equal(t, []string{"image"}, opts.BlockedResourceTypes)
	require.NotNil(t, opts.Proxy)
	assert.Equal(t, "http://proxy:8080", opts.Proxy.Server)
	assert.Equal(t, "p", opts.Proxy.Password)
}

func TestPageOptionsBridgeDefaults(t *testing.T) {
	opts := Default().PageOptions()

	assert.Nil(t, opts.Proxy)
	require.NotNil(t, opts.Headless)
	assert.True(t, *opts.Headless)
	assert.False(t, opts.DisableStealth)
	require.NotNil(t, opts.BlockResources)
	assert.True(t, *opts.BlockResources)
	assert.Equal(t, browser.DefaultTimeout, opts.DefaultTimeout)
}

func TestInterceptOptionsBridge(t *testing.T) {
	cfg := Default()
	cfg.Intercept.TimeoutMs = 8000
	cfg.Intercept.GotoTimeoutMs = 15000
	cfg.Intercept.RefreshTimeoutMs = 2500
	cfg.Intercept.MaxRefresh = 3

	opts := cfg.InterceptOptions()

	assert.Equal(t, 8*time.Second, opts.Timeout)
	assert.Equal(t, 15*time.Second, opts.GotoTimeout)
	assert.Equal(t, 2500*time.Millisecond, opts.RefreshTimeout)
	assert.Equal(t, 3, opts.MaxRefresh)
	assert.Equal(t, browser.BrowserChromium, opts.PageOptions.BrowserType)
}

func TestSolverBridge(t *testing.T) {
	cfg := Default()
	cfg.Captcha.APIKey = ""
	assert.Nil(t, cfg.Solver(nil))

	cfg.Captcha.APIKey = "abc123"
	solver := cfg.Solver(nil)
	require.NotNil(t, solver)
	assert.IsType(t, &captcha.PageSolver{}, solver)
}

func TestSolverBridgeResolvesEnvReference(t *testing.T) {
	t.Setenv("PWKIT_TEST_SOLVER_KEY", "k")

	cfg := Default()
	cfg.Captcha.APIKey = "${PWKIT_TEST_SOLVER_KEY}"
	assert.NotNil(t, cfg.Solver(nil))

	cfg.Captcha.APIKey = "${PWKIT_TEST_SOLVER_KEY_ABSENT}"
	assert.Nil(t, cfg.Solver(nil))
}

func TestBatchJobs(t *testing.T) {
	cfg := Default()
	cfg.Intercept.TimeoutMs = 6000
	cfg.Jobs = []JobConfig{
		{Name: "products", URL: "https://shop.example.com", Match: "/api/products"},
		{URL: "https://news.example.com", Glob: "https://news.example.com/api/*"},
	}

	jobs, err := cfg.BatchJobs()
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "products", jobs[0].Name)
	assert.Equal(t, "https://shop.example.com", jobs[0].PageURL)
	assert.True(t, jobs[0].Match("https://shop.example.com/api/products?page=1"))
	assert.False(t, jobs[0].Match("https://shop.example.com/api/cart"))
	assert.Equal(t, 6*time.Second, jobs[0].Options.Timeout)

	assert.Equal(t, "https://news.example.com", jobs[1].Name)
	assert.True(t, jobs[1].Match("https://news.example.com/api/articles"))
	assert.False(t, jobs[1].Match("https://other.example.com/api/articles"))
}

func TestBatchJobsRejectsBadGlob(t *testing.T) {
	cfg := Default()
	cfg.Jobs = []JobConfig{{URL: "https://example.com", Glob: "["}}

	_, err := cfg.BatchJobs()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `job "https://example.com"`)
}

func TestBuildLogger(t *testing.T) {
	cfg := Default()
	logger, err := cfg.BuildLogger()
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	cfg.Logging.Level = "debug"
	cfg.Logging.Development = true
	logger, err = cfg.BuildLogger()
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	cfg.Logging.Level = "loud"
	_, err = cfg.BuildLogger()
	require.Error(t, err)
}

func TestBuildLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")

	cfg := Default()
	cfg.Logging.File = path

	logger, err := cfg.BuildLogger()
	require.NoError(t, err)
	logger.Info("interception started", zap.String("page_url", "https://example.com"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "interception started")
	assert.Contains(t, string(content), "https://example.com")
}
