package call

import "errors"

var (
	// ErrMalformedSignal means a signal payload failed to decode. The
	// dispatcher skips the message and keeps processing; it never reaches
	// the user.
	ErrMalformedSignal = errors.New("malformed signal payload")

	// ErrMediaAccess means camera/microphone/display capture was denied or
	// unavailable. Blocking and user-visible; not retried automatically.
	ErrMediaAccess = errors.New("camera or microphone unavailable")

	// ErrCallNotFound and ErrCallEnded are distinct terminal join states.
	ErrCallNotFound = errors.New("call not found")
	ErrCallEnded    = errors.New("call ended")

	// ErrNotAuthorized is propagated from the call directory when a
	// non-starter tries to end a call.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrAuth means the signaling server rejected our credentials.
	ErrAuth = errors.New("authentication failed")

	// ErrConnectionFailed is the retryable terminal state of a call attempt:
	// negotiation or transport failed and an ICE restart did not recover it.
	ErrConnectionFailed = errors.New("connection failed")

	ErrSessionClosed = errors.New("session closed")
	ErrNotInCall     = errors.New("not in a call")
	ErrBusy          = errors.New("operation already in progress")
)
