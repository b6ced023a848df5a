package intercept

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureRecord(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		c := &capture{}
		c.record("https://x/api", []byte(`{"a": 1}`), nil)

		result, seen := c.snapshot()
		require.True(t, seen)
		require.False(t, result.Failed())
		data := result.Data.(map[string]interface{})
		assert.Equal(t, 1.0, data["a"])
	})

	t.Run("undecodable body", func(t *testing.T) {
		c := &capture{}
		c.record("https://x/api", []byte("<html>challenge</html>"), nil)

		result, seen := c.snapshot()
		require.True(t, seen)
		assert.Equal(t, KindIntercept, result.Kind)
		assert.Contains(t, result.Message, "failed to decode intercepted response")
	})

	t.Run("body read failure", func(t *testing.T) {
		c := &capture{}
		c.record("https://x/api", nil, errors.New("stream closed"))

		result, seen := c.snapshot()
		require.True(t, seen)
		assert.Equal(t, KindIntercept, result.Kind)
		assert.Contains(t, result.Message, "failed to read intercepted response from https://x/api")
	})

	t.Run("in-band error field", func(t *testing.T) {
		c := &capture{}
		c.record("https://x/api", []byte(`{"error": "quota exceeded", "data": null}`), nil)

		result, _ := c.snapshot()
		assert.Equal(t, KindIntercept, result.Kind)
		assert.Equal(t, "quota exceeded", result.Message)
		assert.Nil(t, result.Data)
	})

	t.Run("latest response wins", func(t *testing.T) {
		c := &capture{}
		c.record("https://x/api", []byte("garbage"), nil)
		c.record("https://x/api", []byte(`{"ok": true}`), nil)

		result, _ := c.snapshot()
		require.False(t, result.Failed())
		data := result.Data.(map[string]interface{})
		assert.Equal(t, true, data["ok"])
	})

	t.Run("reset clears the slot", func(t *testing.T) {
		c := &capture{}
		c.record("https://x/api", []byte(`{"ok": true}`), nil)
		c.reset()

		result, seen := c.snapshot()
		assert.False(t, seen)
		assert.True(t, result.Empty())
	})
}

func TestErrorValueTruthiness(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		wantMsg   string
		wantFound bool
	}{
		{"string error", `{"error": "boom"}`, "boom", true},
		{"empty string", `{"error": ""}`, "", false},
		{"null", `{"error": null}`, "", false},
		{"false", `{"error": false}`, "", false},
		{"true", `{"error": true}`, "true", true},
		{"zero", `{"error": 0}`, "", false},
		{"number", `{"error": 17}`, "17", true},
		{"empty object", `{"error": {}}`, "", false},
		{"object", `{"error": {"code": 401}}`, `{"code":401}`, true},
		{"empty array", `{"error": []}`, "", false},
		{"missing key", `{"status": "ok"}`, "", false},
		{"not an object", `[1, 2]`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var payload interface{}
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &payload))

			msg, found := errorValue(payload)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}
