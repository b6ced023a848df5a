package browser

import (
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Supported browser engines.
const (
	BrowserChromium = "chromium"
	BrowserFirefox  = "firefox"
)

// Default values for sessions and waits.
const (
	DefaultTimeout        = 30000.0 // default page timeout in milliseconds
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
	DefaultMaxSessions    = 5
	DefaultIdleTimeout    = 300 // seconds
	DefaultWaitMs         = 2000
	DefaultMarkerTimeout  = 10000.0 // milliseconds
)

// DefaultBlockedResourceTypes lists the resource types blocked when
// PageOptions.BlockResources is enabled without an explicit list.
var DefaultBlockedResourceTypes = []string{"stylesheet", "image", "font", "svg"}

// ProxyConfig describes an upstream proxy for browser traffic.
type ProxyConfig struct {
	Server   string
	Username string
	Password string
}

func (p *ProxyConfig) toPlaywright() *playwright.Proxy {
	if p == nil {
		return nil
	}
	proxy := &playwright.Proxy{Server: p.Server}
	if p.Username != "" {
		proxy.Username = playwright.String(p.Username)
	}
	if p.Password != "" {
		proxy.Password = playwright.String(p.Password)
	}
	return proxy
}

// Cookie is a cookie to preload into a fresh browser context. Either URL
// or Domain+Path locate the cookie; empty fields are omitted.
type Cookie struct {
	Name   string
	Value  string
	URL    string
	Domain string
	Path   string
}

func toOptionalCookies(cookies []Cookie) []playwright.OptionalCookie {
	out := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		oc := playwright.OptionalCookie{Name: c.Name, Value: c.Value}
		if c.URL != "" {
			oc.URL = playwright.String(c.URL)
		}
		if c.Domain != "" {
			oc.Domain = playwright.String(c.Domain)
		}
		if c.Path != "" {
			oc.Path = playwright.String(c.Path)
		}
		out = append(out, oc)
	}
	return out
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

// PageOptions configures a new session. The zero value opens a headless
// chromium page that accepts downloads and blocks stylesheet, image, font
// and svg requests.
type PageOptions struct {
	// BrowserType selects the engine: "chromium" (default) or "firefox".
	BrowserType string

	// Headless controls whether the browser runs without a visible
	// window. Defaults to true.
	Headless *bool

	// AcceptDownloads controls whether downloads are accepted. Defaults
	// to true.
	AcceptDownloads *bool

	// Proxy routes browser traffic through an upstream proxy.
	Proxy *ProxyConfig

	// Cookies are added to the context before the page opens.
	Cookies []Cookie

	// BlockResources enables route-level blocking of the resource types
	// in BlockedResourceTypes. Defaults to true.
	BlockResources *bool

	// BlockedResourceTypes overrides the blocked set. Empty means
	// DefaultBlockedResourceTypes.
	BlockedResourceTypes []string

	// Viewport sets the initial viewport size. Defaults to 1280x720.
	Viewport *Viewport

	// UserAgent, Locale and TimezoneID override the context fingerprint
	// when non-empty.
	UserAgent  string
	Locale     string
	TimezoneID string

	// DisableStealth skips the anti-webdriver init script.
	DisableStealth bool

	// DefaultTimeout is the page-level timeout in milliseconds applied
	// to actions and waits. Defaults to 30000.
	DefaultTimeout float64
}

func (o PageOptions) withDefaults() PageOptions {
	if o.BrowserType == "" {
		o.BrowserType = BrowserChromium
	}
	if o.Headless == nil {
		o.Headless = playwright.Bool(true)
	}
	if o.AcceptDownloads == nil {
		o.AcceptDownloads = playwright.Bool(true)
	}
	if o.BlockResources == nil {
		o.BlockResources = playwright.Bool(true)
	}
	if len(o.BlockedResourceTypes) == 0 {
		o.BlockedResourceTypes = DefaultBlockedResourceTypes
	}
	if o.Viewport == nil {
		o.Viewport = &Viewport{Width: DefaultViewportWidth, Height: DefaultViewportHeight}
	}
	if o.DefaultTimeout == 0 {
		o.DefaultTimeout = DefaultTimeout
	}
	return o
}

// Session represents an open browser + context + page triple.
type Session struct {
	// ID is a generated unique identifier for this session.
	ID string

	// Name is the registry name when the session is managed, "" otherwise.
	Name string

	// Browser is the Playwright browser instance.
	Browser playwright.Browser

	// Context is the isolated browser context.
	Context playwright.BrowserContext

	// Page is the session's page.
	Page playwright.Page

	// Headless records the mode the browser was launched in.
	Headless bool

	// CreatedAt is when the session was opened.
	CreatedAt time.Time

	// LastUsedAt is the timestamp of the last operation on this session.
	LastUsedAt time.Time

	// CurrentURL tracks the page URL across navigations.
	CurrentURL string

	logger    *zap.Logger
	closeOnce sync.Once
	closeErr  error
}

// NavigateOptions configures page navigation behavior.
type NavigateOptions struct {
	// WaitUntil specifies when to consider navigation successful.
	// Valid values: "load", "domcontentloaded", "networkidle".
	WaitUntil string

	// Timeout in milliseconds (0 means the page default).
	Timeout float64
}

// WaitOptions configures Session.Wait.
type WaitOptions struct {
	// State to wait for: "attached", "detached", "visible" (default), "hidden".
	State string

	// Timeout in milliseconds (0 means the page default).
	Timeout float64
}

// SessionInfo contains metadata about a managed session.
type SessionInfo struct {
	Name       string
	ID         string
	CurrentURL string
	Headless   bool
	CreatedAt  time.Time
	LastUsedAt time.Time
}
