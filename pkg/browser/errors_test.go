package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetError struct{ timeout bool }

func (e *fakeNetError) Error() string   { return "connection reset by peer" }
func (e *fakeNetError) Timeout() bool   { return e.timeout }
func (e *fakeNetError) Temporary() bool { return false }

func TestIsTimeout(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"driver timeout message", errors.New("Timeout 4000ms exceeded."), true},
		{"context deadline", context.DeadlineExceeded, true},
		{"wrapped context deadline", fmt.Errorf("goto: %w", context.DeadlineExceeded), true},
		{"net error with timeout flag", &fakeNetError{timeout: true}, true},
		{"net error without timeout flag", &fakeNetError{timeout: false}, false},
		{"unrelated error", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTimeout(tt.err))
		})
	}
}

func TestTranslateTimeout(t *testing.T) {
	target := errors.New("data fetch timed out")

	t.Run("relabels driver timeouts", func(t *testing.T) {
		cause := errors.New("Timeout 4000ms exceeded.")
		got := TranslateTimeout("FetchData", cause, target)

		require.Error(t, got)
		assert.ErrorIs(t, got, target)
		assert.ErrorIs(t, got, cause)
		assert.Equal(t, "[FetchData] data fetch timed out:\nTimeout 4000ms exceeded.", got.Error())
	})

	t.Run("passes non-timeouts through", func(t *testing.T) {
		cause := errors.New("net::ERR_CONNECTION_REFUSED")
		assert.Same(t, cause, TranslateTimeout("FetchData", cause, target))
	})

	t.Run("nil in, nil out", func(t *testing.T) {
		assert.NoError(t, TranslateTimeout("FetchData", nil, target))
	})

	t.Run("nil target passes through", func(t *testing.T) {
		cause := errors.New("Timeout 4000ms exceeded.")
		assert.Same(t, cause, TranslateTimeout("FetchData", cause, nil))
	})
}

func TestCatchTimeout(t *testing.T) {
	target := errors.New("page never settled")

	t.Run("translates a timeout from the action", func(t *testing.T) {
		action := func(page playwright.Page) error {
			return errors.New("Timeout 10000ms exceeded.")
		}
		err := CatchTimeout("WaitForMarker", target)(action)(nil)
		assert.ErrorIs(t, err, target)
	})

	t.Run("leaves success alone", func(t *testing.T) {
		action := func(page playwright.Page) error { return nil }
		assert.NoError(t, CatchTimeout("WaitForMarker", target)(action)(nil))
	})
}
