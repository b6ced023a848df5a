package browser

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// Action is a unit of work against an open page. Helpers in this package
// compose actions rather than subclassing pages, so a scraping routine
// stays an ordinary function.
type Action func(page playwright.Page) error

// Middleware wraps an Action with behavior running before or after it.
type Middleware func(next Action) Action

// Chain composes middlewares around an action. The first middleware is the
// outermost wrapper, so
//
//	Chain(a, b)(action)
//
// runs a's post-work after b's, the same way stacked decorators unwind.
func Chain(middlewares ...Middleware) Middleware {
	return func(next Action) Action {
		wrapped := next
		for i := len(middlewares) - 1; i >= 0; i-- {
			wrapped = middlewares[i](wrapped)
		}
		return wrapped
	}
}

// WithPage opens a one-shot session, runs the action against its page and
// always closes the session afterwards.
func (l *Launcher) WithPage(opts PageOptions, action Action) error {
	session, err := l.NewSession(opts)
	if err != nil {
		return err
	}
	defer session.Close()
	return action(session.Page)
}

// WaitAfter returns a middleware that idles on the page after the wrapped
// action completes, giving late XHR and rendering a settle window. When
// randomized is true the wait is jittered to within ±15% of waitMs so
// repeated calls do not tick at a fixed cadence. waitMs <= 0 disables the
// wait.
func WaitAfter(waitMs int, randomized bool) Middleware {
	return func(next Action) Action {
		return func(page playwright.Page) error {
			if err := next(page); err != nil {
				return err
			}
			if ms := jitterMs(waitMs, randomized); ms > 0 {
				page.WaitForTimeout(float64(ms))
			}
			return nil
		}
	}
}

func jitterMs(waitMs int, randomized bool) int {
	if waitMs <= 0 {
		return 0
	}
	if !randomized {
		return waitMs
	}
	lo := int(float64(waitMs)*0.85 + 0.5)
	hi := int(float64(waitMs)*1.15 + 0.5)
	if hi <= lo {
		return lo
	}
	return lo + rand.Intn(hi-lo+1)
}

// MarkerOptions tunes the loaded-marker wait.
type MarkerOptions struct {
	// Strict uses the marker string as a raw selector instead of
	// treating it as a class name.
	Strict bool

	// Message replaces the debug line logged once the marker is visible.
	Message string

	// Timeout in milliseconds. Zero means DefaultMarkerTimeout.
	Timeout float64

	// Logger receives the visibility debug line. Nil stays silent.
	Logger *zap.Logger
}

// LoadedMarker returns a middleware that, after the wrapped action, waits
// for a marker element to become visible. The marker is interpreted as a
// class name unless opts.Strict is set or it already starts with a dot.
func LoadedMarker(marker string, opts MarkerOptions) Middleware {
	return func(next Action) Action {
		return func(page playwright.Page) error {
			if err := next(page); err != nil {
				return err
			}
			selector := normalizeMarker(marker, opts.Strict)
			return waitForLocator(page.Locator(selector), selector, opts)
		}
	}
}

// LoadedLocator is LoadedMarker for a pre-built locator, useful when the
// marker needs chaining or frame scoping that a bare selector cannot express.
func LoadedLocator(locator playwright.Locator, opts MarkerOptions) Middleware {
	return func(next Action) Action {
		return func(page playwright.Page) error {
			if err := next(page); err != nil {
				return err
			}
			return waitForLocator(locator, "locator", opts)
		}
	}
}

func normalizeMarker(marker string, strict bool) string {
	if strict || strings.HasPrefix(marker, ".") {
		return marker
	}
	return "." + marker
}

func waitForLocator(locator playwright.Locator, label string, opts MarkerOptions) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultMarkerTimeout
	}
	if err := locator.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(timeout),
	}); err != nil {
		return fmt.Errorf("loaded marker %s not visible: %w", label, err)
	}
	if opts.Logger != nil {
		msg := opts.Message
		if msg == "" {
			msg = "loaded marker visible."
		}
		opts.Logger.Debug(msg)
	}
	return nil
}
