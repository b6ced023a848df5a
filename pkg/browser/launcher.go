package browser

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Launcher owns the Playwright driver process. Start it once per process,
// open sessions from it, and Stop it on shutdown. Construct with New; the
// zero value has no logger or browser list.
type Launcher struct {
	mu       sync.Mutex
	pw       *playwright.Playwright
	browsers []string
	logger   *zap.Logger
}

// LauncherOption configures a Launcher at construction time.
type LauncherOption func(*Launcher)

// WithLogger sets the logger used by the launcher and every session it
// opens. The default is a no-op logger.
func WithLogger(logger *zap.Logger) LauncherOption {
	return func(l *Launcher) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithBrowsers overrides which browser bundles Start installs. The default
// installs chromium only.
func WithBrowsers(browsers ...string) LauncherOption {
	return func(l *Launcher) {
		if len(browsers) > 0 {
			l.browsers = append([]string(nil), browsers...)
		}
	}
}

// New creates a stopped Launcher.
func New(opts ...LauncherOption) *Launcher {
	l := &Launcher{
		browsers: []string{BrowserChromium},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start installs the driver and browser bundles if missing and boots the
// driver process. Calling Start on a started launcher is a no-op.
func (l *Launcher) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pw != nil {
		return nil
	}

	runOptions := &playwright.RunOptions{
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
		Browsers: l.browsers,
	}
	if err := playwright.Install(runOptions); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}
	pw, err := playwright.Run(runOptions)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	l.pw = pw
	l.logger.Info("playwright driver started", zap.Strings("browsers", l.browsers))
	return nil
}

// Stop shuts down the driver process. Close open sessions first; pages
// from a stopped driver are unusable.
func (l *Launcher) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pw == nil {
		return nil
	}
	err := l.pw.Stop()
	l.pw = nil
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	l.logger.Info("playwright driver stopped")
	return nil
}

// NewSession opens a browser, context and page configured by opts. The
// caller owns the session and must Close it.
func (l *Launcher) NewSession(opts PageOptions) (*Session, error) {
	opts = opts.withDefaults()

	if opts.BrowserType != BrowserChromium && opts.BrowserType != BrowserFirefox {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBrowserType, opts.BrowserType)
	}

	l.mu.Lock()
	pw := l.pw
	l.mu.Unlock()
	if pw == nil {
		return nil, ErrNotStarted
	}

	browserType := pw.Chromium
	if opts.BrowserType == BrowserFirefox {
		browserType = pw.Firefox
	}

	browser, err := browserType.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: opts.Headless,
		Proxy:    opts.Proxy.toPlaywright(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOptions := playwright.BrowserNewContextOptions{
		AcceptDownloads: opts.AcceptDownloads,
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	}
	if opts.UserAgent != "" {
		contextOptions.UserAgent = playwright.String(opts.UserAgent)
	}
	if opts.Locale != "" {
		contextOptions.Locale = playwright.String(opts.Locale)
	}
	if opts.TimezoneID != "" {
		contextOptions.TimezoneId = playwright.String(opts.TimezoneID)
	}

	context, err := browser.NewContext(contextOptions)
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	if !opts.DisableStealth {
		if err := applyStealth(context); err != nil {
			context.Close()
			browser.Close()
			return nil, fmt.Errorf("failed to add stealth script: %w", err)
		}
	}

	if len(opts.Cookies) > 0 {
		if err := context.AddCookies(toOptionalCookies(opts.Cookies)); err != nil {
			context.Close()
			browser.Close()
			return nil, fmt.Errorf("failed to add cookies: %w", err)
		}
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(opts.DefaultTimeout)

	if *opts.BlockResources {
		if err := blockRoutes(page, opts.BlockedResourceTypes, l.logger); err != nil {
			context.Close()
			browser.Close()
			return nil, fmt.Errorf("failed to install resource blocking: %w", err)
		}
	}

	now := time.Now()
	session := &Session{
		ID:         uuid.New().String(),
		Browser:    browser,
		Context:    context,
		Page:       page,
		Headless:   *opts.Headless,
		CreatedAt:  now,
		LastUsedAt: now,
		logger:     l.logger,
	}
	l.logger.Debug("session opened",
		zap.String("session_id", session.ID),
		zap.String("browser", opts.BrowserType),
		zap.Bool("headless", session.Headless),
	)
	return session, nil
}
