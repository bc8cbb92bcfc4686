package filter

import "errors"

// Protocol errors: a host-originated line failed to parse or referenced an
// event the extension never registered for. These are always fatal — the
// host and the extension must stay in lock-step, and recovery from a
// corrupted stream is not meaningful.
var (
	ErrUnsupportedVersion = errors.New("osmtpd: unsupported protocol version")
	ErrMalformedLine      = errors.New("osmtpd: malformed input line")
	ErrUnknownEvent       = errors.New("osmtpd: event not registered")
	ErrUnknownSession     = errors.New("osmtpd: unknown session")
	ErrUnknownMessage     = errors.New("osmtpd: unknown message id")
	ErrOutOfRange         = errors.New("osmtpd: numeric field out of range")
)

// Usage errors: the extension misused the registration or verdict API.
// These are also fatal, but stem from programmer error rather than a
// corrupted wire stream.
var (
	ErrAlreadyRunning     = errors.New("osmtpd: register called after run")
	ErrUnknownRegistrable = errors.New("osmtpd: no such registrable event")
	ErrDuplicateCallback  = errors.New("osmtpd: event already registered")
	ErrNoCallbacks        = errors.New("osmtpd: no events registered")
)
