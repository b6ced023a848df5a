package browser

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Sentinel errors returned by launcher and manager operations.
var (
	ErrNotStarted             = errors.New("launcher not started")
	ErrUnsupportedBrowserType = errors.New("unsupported browser type")
	ErrSessionExists          = errors.New("session already exists")
	ErrSessionNotFound        = errors.New("session not found")
	ErrTooManySessions        = errors.New("maximum number of sessions reached")
)

// IsTimeout reports whether err represents a timed-out operation. The
// driver reports timeouts as plain errors whose message carries "Timeout",
// so message matching is part of the classification alongside net.Error
// and context deadlines.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

// timeoutError re-labels a driver timeout as a caller-domain error while
// keeping the original cause on the unwrap chain.
type timeoutError struct {
	op     string
	target error
	cause  error
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("[%s] %v:\n%v", e.op, e.target, e.cause)
}

func (e *timeoutError) Unwrap() error { return e.cause }

func (e *timeoutError) Is(target error) bool { return target == e.target }

// TranslateTimeout converts a timeout from the underlying driver into the
// caller's own error value: the result satisfies errors.Is against target
// and its message is prefixed with the operation name. Non-timeout errors
// (and nil) pass through unchanged.
func TranslateTimeout(op string, err, target error) error {
	if err == nil || target == nil || !IsTimeout(err) {
		return err
	}
	return &timeoutError{op: op, target: target, cause: err}
}

// CatchTimeout wraps an action so that any timeout it returns is
// translated via TranslateTimeout.
func CatchTimeout(op string, target error) Middleware {
	return func(next Action) Action {
		return func(page playwright.Page) error {
			return TranslateTimeout(op, next(page), target)
		}
	}
}
