package filter

import (
	"bufio"
	"fmt"
)

// verdictTokens returns the two hex tokens in wire order for this protocol
// version: reqid-then-token from minor 5 on, token-then-reqid before that.
func verdictTokens(versionMajor, versionMinor int, reqid, token uint64) (a, b uint64) {
	if versionMajor == 0 && versionMinor < 5 {
		return token, reqid
	}
	return reqid, token
}

// writeVerdict writes a filter-result line. It does no validation itself:
// each verdict method range-checks its numeric fields before calling it, so
// a malformed verdict never leaves a partial line on the wire.
func writeVerdict(w *bufio.Writer, versionMajor, versionMinor int, reqid, token uint64, verdict string) error {
	a, b := verdictTokens(versionMajor, versionMinor, reqid, token)
	_, err := fmt.Fprintf(w, "filter-result|%016x|%016x|%s\n", a, b, verdict)
	return err
}

// Proceed accepts the current event with no further comment.
func (e *Engine) Proceed(s *Session) error {
	e.metrics.VerdictEmitted("proceed")
	return writeVerdict(e.out, s.VersionMajor, s.VersionMinor, s.ReqID, s.token, "proceed")
}

// Reject rejects the current event with an SMTP reply code and reason.
// code must be in [200, 599].
func (e *Engine) Reject(s *Session, code int, reason string) error {
	if code < 200 || code > 599 {
		return fmt.Errorf("%w: reject code %d", ErrOutOfRange, code)
	}
	e.metrics.VerdictEmitted("reject")
	return writeVerdict(e.out, s.VersionMajor, s.VersionMinor, s.ReqID, s.token,
		fmt.Sprintf("reject|%d %s", code, reason))
}

// RejectEnhanced rejects with an RFC 3463 enhanced status code in addition
// to the SMTP reply code.
func (e *Engine) RejectEnhanced(s *Session, code, class, subject, detail int, reason string) error {
	if code < 200 || code > 599 {
		return fmt.Errorf("%w: reject code %d", ErrOutOfRange, code)
	}
	if class < 2 || class > 5 {
		return fmt.Errorf("%w: enhanced status class %d", ErrOutOfRange, class)
	}
	if subject < 0 || subject > 999 {
		return fmt.Errorf("%w: enhanced status subject %d", ErrOutOfRange, subject)
	}
	if detail < 0 || detail > 999 {
		return fmt.Errorf("%w: enhanced status detail %d", ErrOutOfRange, detail)
	}
	e.metrics.VerdictEmitted("reject")
	return writeVerdict(e.out, s.VersionMajor, s.VersionMinor, s.ReqID, s.token,
		fmt.Sprintf("reject|%d %d.%d.%d %s", code, class, subject, detail, reason))
}

// Disconnect rejects the event and tears down the connection with a 421.
func (e *Engine) Disconnect(s *Session, reason string) error {
	e.metrics.VerdictEmitted("disconnect")
	return writeVerdict(e.out, s.VersionMajor, s.VersionMinor, s.ReqID, s.token,
		fmt.Sprintf("disconnect|421 %s", reason))
}

// DisconnectEnhanced is Disconnect with an enhanced status code. The
// reference implementation validates the class with "class <= 2 ||
// class >= 5", which rejects every legal class (2, 3, 4, 5 are all valid
// per RFC 3463); the corrected bound used here is "class < 2 || class > 5".
func (e *Engine) DisconnectEnhanced(s *Session, class, subject, detail int, reason string) error {
	if class < 2 || class > 5 {
		return fmt.Errorf("%w: enhanced status class %d", ErrOutOfRange, class)
	}
	if subject < 0 || subject > 999 {
		return fmt.Errorf("%w: enhanced status subject %d", ErrOutOfRange, subject)
	}
	if detail < 0 || detail > 999 {
		return fmt.Errorf("%w: enhanced status detail %d", ErrOutOfRange, detail)
	}
	e.metrics.VerdictEmitted("disconnect")
	return writeVerdict(e.out, s.VersionMajor, s.VersionMinor, s.ReqID, s.token,
		fmt.Sprintf("disconnect|421 %d.%d.%d %s", class, subject, detail, reason))
}

// Rewrite accepts the event but substitutes a new value for the field the
// current phase carries (e.g. a rewritten MAIL FROM address).
func (e *Engine) Rewrite(s *Session, value string) error {
	e.metrics.VerdictEmitted("rewrite")
	return writeVerdict(e.out, s.VersionMajor, s.VersionMinor, s.ReqID, s.token,
		"rewrite|"+value)
}

// DataLine emits one rewritten line of message body during the data-line
// filter phase. Unlike the other verdict forms this can be called more
// than once per invocation. The engine does not track whether a data-line
// event has been answered, and DataLine is not counted by the Collector.
func (e *Engine) DataLine(s *Session, line string) error {
	a, b := verdictTokens(s.VersionMajor, s.VersionMinor, s.ReqID, s.token)
	_, err := fmt.Fprintf(e.out, "filter-dataline|%016x|%016x|%s\n", a, b, line)
	return err
}
