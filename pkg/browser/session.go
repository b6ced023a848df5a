package browser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// UpdateLastUsed refreshes the session's last-used timestamp.
func (s *Session) UpdateLastUsed() {
	s.LastUsedAt = time.Now()
}

// Close tears down the page, context and browser. Close is idempotent;
// later calls return the first result. A nil session closes cleanly so
// teardown paths need no guard.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.closeOnce.Do(func() {
		var errs []error
		if s.Page != nil {
			if err := s.Page.Close(); err != nil && !isAlreadyClosed(err) {
				errs = append(errs, fmt.Errorf("failed to close page: %w", err))
			}
		}
		if s.Context != nil {
			if err := s.Context.Close(); err != nil && !isAlreadyClosed(err) {
				errs = append(errs, fmt.Errorf("failed to close context: %w", err))
			}
		}
		if s.Browser != nil {
			if err := s.Browser.Close(); err != nil && !isAlreadyClosed(err) {
				errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
			}
		}
		s.closeErr = errors.Join(errs...)
		s.log().Debug("session closed", zap.String("session_id", s.ID))
	})
	return s.closeErr
}

// isAlreadyClosed reports whether err is the driver complaining that a
// target was torn down before we got to it.
func isAlreadyClosed(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Target closed") ||
		strings.Contains(msg, "Context closed") ||
		strings.Contains(msg, "Browser closed") ||
		strings.Contains(msg, "has been closed")
}

// Navigate drives the page to url and records it as the current URL.
func (s *Session) Navigate(url string, opts NavigateOptions) error {
	s.UpdateLastUsed()

	gotoOptions := playwright.PageGotoOptions{}
	if opts.WaitUntil != "" {
		state := playwright.WaitUntilState(opts.WaitUntil)
		gotoOptions.WaitUntil = &state
	}
	if opts.Timeout > 0 {
		gotoOptions.Timeout = playwright.Float(opts.Timeout)
	}

	if _, err := s.Page.Goto(url, gotoOptions); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	s.CurrentURL = s.Page.URL()
	s.log().Debug("navigated", zap.String("url", s.CurrentURL))
	return nil
}

var waitStates = map[string]*playwright.WaitForSelectorState{
	"attached": playwright.WaitForSelectorStateAttached,
	"detached": playwright.WaitForSelectorStateDetached,
	"visible":  playwright.WaitForSelectorStateVisible,
	"hidden":   playwright.WaitForSelectorStateHidden,
}

// Wait blocks until selector reaches the requested state, visible by
// default.
func (s *Session) Wait(selector string, opts WaitOptions) error {
	s.UpdateLastUsed()

	state := opts.State
	if state == "" {
		state = "visible"
	}
	waitState, ok := waitStates[state]
	if !ok {
		return fmt.Errorf("invalid wait state %q (must be attached, detached, visible or hidden)", opts.State)
	}

	waitOptions := playwright.PageWaitForSelectorOptions{State: waitState}
	if opts.Timeout > 0 {
		waitOptions.Timeout = playwright.Float(opts.Timeout)
	}
	if _, err := s.Page.WaitForSelector(selector, waitOptions); err != nil {
		return fmt.Errorf("failed waiting for %s: %w", selector, err)
	}
	return nil
}

// Evaluate runs a JavaScript expression in the page and returns its result.
func (s *Session) Evaluate(expression string) (interface{}, error) {
	s.UpdateLastUsed()
	result, err := s.Page.Evaluate(expression)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate expression: %w", err)
	}
	return result, nil
}

// Content returns the page's full HTML.
func (s *Session) Content() (string, error) {
	s.UpdateLastUsed()
	html, err := s.Page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}
	return html, nil
}

// Info returns a point-in-time snapshot of session metadata.
func (s *Session) Info() SessionInfo {
	return SessionInfo{
		Name:       s.Name,
		ID:         s.ID,
		CurrentURL: s.CurrentURL,
		Headless:   s.Headless,
		CreatedAt:  s.CreatedAt,
		LastUsedAt: s.LastUsedAt,
	}
}

func (s *Session) log() *zap.Logger {
	if s.logger == nil {
		return zap.NewNop()
	}
	return s.logger
}
