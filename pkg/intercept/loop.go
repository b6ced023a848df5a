// Package intercept captures JSON answers from the hidden APIs a page
// calls while it loads, instead of scraping the rendered DOM.
//
// Every run returns a Result envelope: the decoded payload on success, or
// an error kind and message. Detected captcha walls are handed to a
// captcha.Solver and the interception resumes once solved.
package intercept

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/pwkit/pwkit/pkg/browser"
	"github.com/pwkit/pwkit/pkg/captcha"
)

// Default budgets for an interception run.
const (
	DefaultTimeout        = 4 * time.Second
	DefaultGotoTimeout    = 30 * time.Second
	DefaultRefreshTimeout = 3 * time.Second
	DefaultMaxRefresh     = 1

	// minIteration pads each poll iteration so a hot loop does not
	// hammer the driver.
	minIteration = 500 * time.Millisecond
)

// DetectFunc inspects an envelope for domain-specific error shapes and
// returns the possibly rewritten envelope plus whether it is an error.
// Rewriting the kind to KindCaptcha asks the loop to run the solver.
type DetectFunc func(result Result) (Result, bool)

// ParseFunc post-processes a successful envelope, typically mapping the
// raw payload into caller types. It never sees failed envelopes.
type ParseFunc func(result Result) Result

// Options tunes one interception run. The zero value polls for 4 seconds,
// allows one captcha refresh and opens a default one-shot session.
type Options struct {
	// Timeout is the poll budget. Time spent in the initial navigation
	// counts against it.
	Timeout time.Duration

	// GotoTimeout bounds the initial navigation.
	GotoTimeout time.Duration

	// RefreshTimeout bounds reloads requested by the captcha solver.
	RefreshTimeout time.Duration

	// MaxRefresh caps how many solver-requested reloads are allowed.
	// Zero means DefaultMaxRefresh.
	MaxRefresh int

	// ExpectMore is how many detected-error payloads to outlast before
	// giving up, for pages that fire a doomed API call before the real
	// one.
	ExpectMore int

	// Detect scans each candidate envelope for in-band errors.
	Detect DetectFunc

	// Parse post-processes the successful envelope.
	Parse ParseFunc

	// Solver handles captcha walls flagged by Detect.
	Solver captcha.Solver

	// Page reuses an already-open page instead of a one-shot session.
	Page playwright.Page

	// PageOptions configures the one-shot session when Page is nil.
	PageOptions browser.PageOptions
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.GotoTimeout <= 0 {
		o.GotoTimeout = DefaultGotoTimeout
	}
	if o.RefreshTimeout <= 0 {
		o.RefreshTimeout = DefaultRefreshTimeout
	}
	if o.MaxRefresh == 0 {
		o.MaxRefresh = DefaultMaxRefresh
	}
	return o
}

// Interceptor runs hidden-API interceptions on pages opened from a
// launcher.
type Interceptor struct {
	launcher *browser.Launcher
	logger   *zap.Logger
	metrics  Metrics
}

// InterceptorOption configures an Interceptor.
type InterceptorOption func(*Interceptor)

// WithLogger sets the interceptor's logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) InterceptorOption {
	return func(ic *Interceptor) {
		if logger != nil {
			ic.logger = logger
		}
	}
}

// New creates an Interceptor opening one-shot sessions from launcher.
func New(launcher *browser.Launcher, opts ...InterceptorOption) *Interceptor {
	ic := &Interceptor{
		launcher: launcher,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ic)
	}
	return ic
}

// Metrics exposes the interceptor's counters.
func (ic *Interceptor) Metrics() *Metrics { return &ic.metrics }

// InterceptJSON loads pageURL and captures the JSON response whose URL the
// matcher selects, polling until a payload arrives or the budget expires.
// The outcome is always delivered as an envelope, never a Go error, so
// scraping pipelines handle every run uniformly.
func (ic *Interceptor) InterceptJSON(ctx context.Context, pageURL string, match URLMatcher, opts Options) Result {
	opts = opts.withDefaults()
	ic.metrics.runs.Add(1)

	page := opts.Page
	if page == nil {
		session, err := ic.launcher.NewSession(opts.PageOptions)
		if err != nil {
			return ic.finish(failure(KindNavigation,
				fmt.Sprintf("failed to open session: %v", err)))
		}
		defer session.Close()
		page = session.Page
	}

	captured := &capture{}
	captured.attach(page, match)

	// A failed navigation is not fatal on its own: the response may
	// already be captured, or a refresh may still deliver it. The error
	// is kept for classification in case nothing arrives.
	start := time.Now()
	_, gotoErr := page.Goto(pageURL, playwright.PageGotoOptions{
		Timeout: playwright.Float(float64(opts.GotoTimeout.Milliseconds())),
	})
	timeSpent := time.Since(start)
	if gotoErr != nil {
		ic.logger.Debug("initial navigation failed",
			zap.String("url", pageURL),
			zap.Error(gotoErr))
	}

	var (
		result     Result
		isError    bool
		nbRefresh  int
		expectMore = opts.ExpectMore
	)

loop:
	for timeSpent <= opts.Timeout && nbRefresh < opts.MaxRefresh {
		if err := ctx.Err(); err != nil {
			return ic.finish(contextFailure(err))
		}
		iterStart := time.Now()

		snap, seen := captured.snapshot()
		result = snap
		isError = result.Failed()
		if opts.Detect != nil && seen {
			result, isError = opts.Detect(result)
		}
		ic.logger.Debug("poll iteration",
			zap.Duration("time_spent", timeSpent),
			zap.Bool("captured", seen),
			zap.String("kind", result.Kind))

		switch {
		case !seen:
			// Nothing intercepted yet; keep waiting. The envelope
			// stays empty so expiry can classify the run.

		case result.Kind == KindCaptcha:
			if opts.Solver == nil {
				// Nothing can clear the wall; waiting longer
				// changes nothing.
				break loop
			}
			refresh, solved, err := opts.Solver.Solve(ctx, page)
			if err != nil {
				ic.logger.Warn("captcha solver failed", zap.Error(err))
			}
			if solved {
				ic.metrics.captchasSolved.Add(1)
				captured.reset()
				result = Result{}
				isError = false
			}
			if refresh {
				nbRefresh++
				ic.metrics.refreshes.Add(1)
				ic.logger.Debug("refreshing page after captcha",
					zap.Int("nb_refresh", nbRefresh))
				if _, err := page.Goto(pageURL, playwright.PageGotoOptions{
					Timeout: playwright.Float(float64(opts.RefreshTimeout.Milliseconds())),
				}); err != nil {
					ic.logger.Debug("refresh navigation failed", zap.Error(err))
				}
			}

		case isError && expectMore > 0:
			// The page fired a doomed API call first; outlast it
			// and wait for the next one.
			expectMore--

		default:
			// A payload, or an error no amount of waiting fixes.
			break loop
		}

		if elapsed := time.Since(iterStart); elapsed < minIteration {
			page.WaitForTimeout(float64((minIteration - elapsed).Milliseconds()))
		}
		timeSpent += time.Since(iterStart)
	}

	// Runs that produced nothing are classified here: a late capture
	// wins, then the recorded navigation error, then the empty-capture
	// envelope.
	if result.Empty() {
		if snap, seen := captured.snapshot(); seen {
			result = snap
			isError = result.Failed()
			if opts.Detect != nil {
				result, isError = opts.Detect(result)
			}
		} else if gotoErr != nil {
			result = classifyGotoError(pageURL, gotoErr)
			isError = true
		} else {
			result = failure(KindIntercept, emptyCaptureMessage)
			isError = true
		}
	}

	if !isError && opts.Parse != nil {
		result = opts.Parse(result)
	}
	return ic.finish(result)
}

// RequestJSON intercepts a JSON API that is itself the navigation target:
// the page URL and the URL to match are the same.
func (ic *Interceptor) RequestJSON(ctx context.Context, jsonURL string, opts Options) Result {
	return ic.InterceptJSON(ctx, jsonURL, MatchSubstring(jsonURL), opts)
}

func (ic *Interceptor) finish(result Result) Result {
	if result.Failed() {
		ic.metrics.failures.Add(1)
	} else {
		ic.metrics.successes.Add(1)
	}
	return result
}

func contextFailure(err error) Result {
	if errors.Is(err, context.DeadlineExceeded) {
		return failure(KindTimeout, fmt.Sprintf("interception cancelled: %v", err))
	}
	return failure(KindNavigation, fmt.Sprintf("interception cancelled: %v", err))
}

func classifyGotoError(pageURL string, err error) Result {
	msg := fmt.Sprintf("failed to reach %s: %v", pageURL, err)
	if browser.IsTimeout(err) {
		return failure(KindTimeout, msg)
	}
	return failure(KindNavigation, msg)
}
