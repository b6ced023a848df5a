package intercept

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// capture holds the most recent payload from a matching response. Driver
// callbacks write from the dispatch goroutine while the poll loop reads
// from its own, hence the mutex.
type capture struct {
	mu     sync.Mutex
	result Result
	seen   bool
}

// attach subscribes the capture to matching responses on page.
func (c *capture) attach(page playwright.Page, match URLMatcher) {
	page.OnResponse(func(response playwright.Response) {
		url := response.URL()
		if !match(url) {
			return
		}
		body, err := response.Body()
		c.record(url, body, err)
	})
}

// record classifies one matching response into the capture slot. Later
// responses overwrite earlier ones; the poll loop reads whatever arrived
// last.
func (c *capture) record(url string, body []byte, readErr error) {
	var res Result
	switch {
	case readErr != nil:
		res = failure(KindIntercept,
			fmt.Sprintf("failed to read intercepted response from %s: %v", url, readErr))
	default:
		var payload interface{}
		if err := json.Unmarshal(body, &payload); err != nil {
			res = failure(KindIntercept,
				fmt.Sprintf("failed to decode intercepted response: %v", err))
		} else if msg, found := errorValue(payload); found {
			res = failure(KindIntercept, msg)
		} else {
			res = success(payload)
		}
	}

	c.mu.Lock()
	c.result = res
	c.seen = true
	c.mu.Unlock()
}

// snapshot returns the latest capture and whether anything arrived yet.
func (c *capture) snapshot() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.seen
}

// reset clears the capture, typically after a captcha solve invalidated
// the previous payload.
func (c *capture) reset() {
	c.mu.Lock()
	c.result = Result{}
	c.seen = false
	c.mu.Unlock()
}

// errorValue extracts a meaningful "error" field from a decoded payload.
// APIs that report failures in-band put a truthy value there; an absent,
// null, empty, zero or false error does not count.
func errorValue(payload interface{}) (string, bool) {
	m, ok := payload.(map[string]interface{})
	if !ok {
		return "", false
	}
	v, ok := m["error"]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return "", false
		}
		return t, true
	case bool:
		if !t {
			return "", false
		}
		return "true", true
	case float64:
		if t == 0 {
			return "", false
		}
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", false
		}
		s := string(b)
		if s == "{}" || s == "[]" {
			return "", false
		}
		return s, true
	}
}
