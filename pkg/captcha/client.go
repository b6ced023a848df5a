package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// ChallengeKind identifies the captcha product on a page.
type ChallengeKind string

const (
	KindRecaptchaV2 ChallengeKind = "recaptcha-v2"
	KindHCaptcha    ChallengeKind = "hcaptcha"
)

// Challenge describes a captcha found on a page, in the terms the solving
// service needs to reproduce it.
type Challenge struct {
	Kind    ChallengeKind
	SiteKey string
	PageURL string
}

const (
	defaultBaseURL      = "https://2captcha.com"
	defaultPollInterval = 5 * time.Second

	// notReady is the in-band marker the service returns while a task
	// is still being worked on.
	notReady = "CAPCHA_NOT_READY"
)

// Client talks to a 2captcha-compatible solving service over its in.php /
// res.php HTTP API.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
	logger       *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different service endpoint, for
// self-hosted or API-compatible alternatives.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithPollInterval adjusts how often SolveChallenge asks for the result.
func WithPollInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithLogger sets the client's logger. The default is a no-op logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client authenticating with apiKey.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:       apiKey,
		baseURL:      defaultBaseURL,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: defaultPollInterval,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiResponse is the service's reply shape for both endpoints.
type apiResponse struct {
	Status  int    `json:"status"`
	Request string `json:"request"`
}

// Submit sends the challenge to the service and returns the task id to
// poll for the solution.
func (c *Client) Submit(ctx context.Context, ch Challenge) (string, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("json", "1")
	params.Set("pageurl", ch.PageURL)

	switch ch.Kind {
	case KindRecaptchaV2:
		params.Set("method", "userrecaptcha")
		params.Set("googlekey", ch.SiteKey)
	case KindHCaptcha:
		params.Set("method", "hcaptcha")
		params.Set("sitekey", ch.SiteKey)
	default:
		return "", fmt.Errorf("unsupported challenge kind %q", ch.Kind)
	}

	resp, err := c.call(ctx, "/in.php", params)
	if err != nil {
		return "", err
	}
	if resp.Status != 1 {
		return "", fmt.Errorf("captcha submit rejected: %s", resp.Request)
	}
	return resp.Request, nil
}

// Poll fetches the solve result once. An empty token with a nil error
// means the solution is not ready yet.
func (c *Client) Poll(ctx context.Context, id string) (string, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("action", "get")
	params.Set("id", id)
	params.Set("json", "1")

	resp, err := c.call(ctx, "/res.php", params)
	if err != nil {
		return "", err
	}
	if resp.Status != 1 {
		if resp.Request == notReady {
			return "", nil
		}
		return "", fmt.Errorf("captcha solve failed: %s", resp.Request)
	}
	return resp.Request, nil
}

// SolveChallenge submits the challenge and polls until a token arrives or
// ctx expires.
func (c *Client) SolveChallenge(ctx context.Context, ch Challenge) (string, error) {
	id, err := c.Submit(ctx, ch)
	if err != nil {
		return "", err
	}
	c.logger.Debug("captcha submitted",
		zap.String("task_id", id),
		zap.String("kind", string(ch.Kind)))

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("captcha solve cancelled: %w", ctx.Err())
		case <-ticker.C:
			token, err := c.Poll(ctx, id)
			if err != nil {
				return "", err
			}
			if token != "" {
				c.logger.Debug("captcha solved", zap.String("task_id", id))
				return token, nil
			}
		}
	}
}

func (c *Client) call(ctx context.Context, path string, params url.Values) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("captcha service unreachable: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("captcha service returned %s", httpResp.Status)
	}

	var resp apiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode captcha service reply: %w", err)
	}
	return &resp, nil
}
