package intercept

import "sync/atomic"

// Metrics counts interception outcomes across an Interceptor's lifetime.
// All updates are atomic; read a consistent view with Snapshot.
type Metrics struct {
	runs           atomic.Int64
	successes      atomic.Int64
	failures       atomic.Int64
	captchasSolved atomic.Int64
	refreshes      atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	Runs           int64
	Successes      int64
	Failures       int64
	CaptchasSolved int64
	Refreshes      int64
}

// Snapshot copies the current counter values.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Runs:           m.runs.Load(),
		Successes:      m.successes.Load(),
		Failures:       m.failures.Load(),
		CaptchasSolved: m.captchasSolved.Load(),
		Refreshes:      m.refreshes.Load(),
	}
}
