package intercept

// Error kinds recorded in Result.Kind. Detectors and callers match on
// these strings, so they are part of the package contract.
const (
	// KindIntercept marks failures of the interception itself: nothing
	// captured, an undecodable body, or an in-band API error.
	KindIntercept = "InterceptError"

	// KindTimeout marks navigations that timed out before anything was
	// captured.
	KindTimeout = "TimeoutError"

	// KindNavigation marks navigations that failed outright, and
	// cancelled runs.
	KindNavigation = "NavigationError"

	// KindCaptcha is set by detectors when the captured payload shows a
	// captcha wall. The interception loop reacts to it by invoking the
	// configured solver.
	KindCaptcha = "CaptchaRaisedError"
)

// emptyCaptureMessage is reported when the poll budget expires without the
// hidden API ever answering.
const emptyCaptureMessage = "An empty json was collected after calling the hidden API."

// Result is the uniform envelope every interception returns: either a
// payload in Data, or a kind and message describing the failure. All three
// keys are always present when marshalled, so downstream consumers can
// index them unconditionally.
type Result struct {
	Kind    string      `json:"error"`
	Message string      `json:"error_message"`
	Data    interface{} `json:"data"`
}

// Failed reports whether the envelope carries an error.
func (r Result) Failed() bool { return r.Kind != "" }

// Empty reports whether the envelope carries neither payload nor error.
func (r Result) Empty() bool { return !r.Failed() && r.Data == nil }

func failure(kind, message string) Result {
	return Result{Kind: kind, Message: message}
}

func success(data interface{}) Result {
	return Result{Data: data}
}
