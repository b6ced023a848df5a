package captcha

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwkit/pwkit/pkg/browser"
)

func TestPageFunctionsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping browser integration test in short mode")
	}

	pageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<!DOCTYPE html><html><body>
<div class="g-recaptcha" data-sitekey="sk-123" style="width:300px;height:80px">captcha</div>
<textarea name="g-recaptcha-response"></textarea>
</body></html>`)
	}))
	defer pageServer.Close()

	solveServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/in.php":
			assert.Equal(t, "sk-123", r.URL.Query().Get("googlekey"))
			fmt.Fprint(w, `{"status": 1, "request": "task-1"}`)
		case "/res.php":
			fmt.Fprint(w, `{"status": 1, "request": "service-token"}`)
		}
	}))
	defer solveServer.Close()

	launcher := browser.New()
	require.NoError(t, launcher.Start())
	defer launcher.Stop()

	session, err := launcher.NewSession(browser.PageOptions{})
	require.NoError(t, err)
	defer session.Close()
	require.NoError(t, session.Navigate(pageServer.URL, browser.NavigateOptions{}))

	challenge, found, err := DetectChallenge(session.Page)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, KindRecaptchaV2, challenge.Kind)
	assert.Equal(t, "sk-123", challenge.SiteKey)

	visible, err := VisibleAny(session.Page, ".g-recaptcha", ".h-captcha")
	require.NoError(t, err)
	assert.True(t, visible)

	require.NoError(t, InjectToken(session.Page, "manual-token"))
	value, err := session.Evaluate(`document.querySelector('textarea[name="g-recaptcha-response"]').value`)
	require.NoError(t, err)
	assert.Equal(t, "manual-token", value)

	client := NewClient("test-key",
		WithBaseURL(solveServer.URL),
		WithPollInterval(5*time.Millisecond))
	solver := NewPageSolver(client)

	refresh, solved, err := solver.Solve(context.Background(), session.Page)
	require.NoError(t, err)
	assert.False(t, refresh)
	assert.True(t, solved)

	value, err = session.Evaluate(`document.querySelector('textarea[name="g-recaptcha-response"]').value`)
	require.NoError(t, err)
	assert.Equal(t, "service-token", value)
}
