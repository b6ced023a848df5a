package captcha

import (
	"context"
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// siteKeyFromFramesJS recovers a reCAPTCHA site key from the widget iframe
// when the marker element is missing or renamed.
const siteKeyFromFramesJS = `() => {
	const frame = document.querySelector('iframe[src*="recaptcha/api2/anchor"]');
	if (!frame) return "";
	try {
		return new URL(frame.src).searchParams.get("k") || "";
	} catch (e) {
		return "";
	}
}`

// injectTokenJS writes the token into every captcha response field and
// fires whatever completion callback the site registered with the widget.
// It returns the number of fields written.
const injectTokenJS = `(token) => {
	let injected = 0;
	const fields = document.querySelectorAll(
		'textarea[name="g-recaptcha-response"], textarea[name="h-captcha-response"]');
	for (const field of fields) {
		field.value = token;
		injected++;
	}
	const cfg = window.___grecaptcha_cfg;
	if (cfg && cfg.clients) {
		for (const client of Object.values(cfg.clients)) {
			for (const widget of Object.values(client)) {
				if (!widget || typeof widget !== "object") continue;
				for (const prop of Object.values(widget)) {
					if (prop && typeof prop.callback === "function") {
						try { prop.callback(token); } catch (e) {}
					}
				}
			}
		}
	}
	return injected;
}`

// challengeProbes maps widget marker selectors to the product they belong
// to. The site key rides on the marker element.
var challengeProbes = []struct {
	kind     ChallengeKind
	selector string
}{
	{KindRecaptchaV2, ".g-recaptcha[data-sitekey]"},
	{KindHCaptcha, ".h-captcha[data-sitekey]"},
}

// DetectChallenge scans the page for a supported captcha widget and
// returns its challenge parameters. The boolean reports whether anything
// was found.
func DetectChallenge(page playwright.Page) (*Challenge, bool, error) {
	for _, probe := range challengeProbes {
		elements, err := page.QuerySelectorAll(probe.selector)
		if err != nil {
			return nil, false, fmt.Errorf("failed to scan for captcha widget: %w", err)
		}
		for _, el := range elements {
			siteKey, err := el.GetAttribute("data-sitekey")
			if err != nil || siteKey == "" {
				continue
			}
			return &Challenge{
				Kind:    probe.kind,
				SiteKey: siteKey,
				PageURL: page.URL(),
			}, true, nil
		}
	}

	result, err := page.Evaluate(siteKeyFromFramesJS)
	if err != nil {
		return nil, false, fmt.Errorf("failed to scan frames for site key: %w", err)
	}
	if siteKey, ok := result.(string); ok && siteKey != "" {
		return &Challenge{
			Kind:    KindRecaptchaV2,
			SiteKey: siteKey,
			PageURL: page.URL(),
		}, true, nil
	}
	return nil, false, nil
}

// VisibleAny reports whether any of the selectors is currently visible on
// the page, which is how a captcha wall is told apart from page content.
func VisibleAny(page playwright.Page, selectors ...string) (bool, error) {
	for _, sel := range selectors {
		visible, err := page.Locator(sel).First().IsVisible()
		if err != nil {
			return false, fmt.Errorf("failed to check %s visibility: %w", sel, err)
		}
		if visible {
			return true, nil
		}
	}
	return false, nil
}

// InjectToken writes a solve token into the page's captcha response fields
// and triggers the site's completion callback.
func InjectToken(page playwright.Page, token string) error {
	result, err := page.Evaluate(injectTokenJS, token)
	if err != nil {
		return fmt.Errorf("failed to inject captcha token: %w", err)
	}

	injected := 0
	switch v := result.(type) {
	case int:
		injected = v
	case float64:
		injected = int(v)
	}
	if injected == 0 {
		return errors.New("no captcha response field found on the page")
	}
	return nil
}

// PageSolver is a Solver that detects the challenge on the page, has the
// solving service produce a token and injects it back into the page.
type PageSolver struct {
	client  *Client
	logger  *zap.Logger
	refresh bool
}

// PageSolverOption configures a PageSolver.
type PageSolverOption func(*PageSolver)

// WithRefreshAfterSolve makes the solver ask its caller to reload the page
// once the token is injected. Sites that only honor the captcha during
// document load need this.
func WithRefreshAfterSolve(refresh bool) PageSolverOption {
	return func(s *PageSolver) {
		s.refresh = refresh
	}
}

// NewPageSolver creates a PageSolver backed by client. The solver logs
// through the client's logger.
func NewPageSolver(client *Client, opts ...PageSolverOption) *PageSolver {
	s := &PageSolver{client: client, logger: client.logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Solve implements Solver. When no challenge is found on the page it asks
// for a refresh without claiming a solve, so the caller can retry the
// navigation.
func (s *PageSolver) Solve(ctx context.Context, page playwright.Page) (bool, bool, error) {
	challenge, found, err := DetectChallenge(page)
	if err != nil {
		return false, false, err
	}
	if !found {
		return true, false, nil
	}

	s.logger.Info("captcha detected",
		zap.String("kind", string(challenge.Kind)),
		zap.String("page_url", challenge.PageURL))

	token, err := s.client.SolveChallenge(ctx, *challenge)
	if err != nil {
		return false, false, err
	}
	if err := InjectToken(page, token); err != nil {
		return false, false, err
	}

	s.logger.Info("captcha token injected", zap.String("kind", string(challenge.Kind)))
	return s.refresh, true, nil
}
