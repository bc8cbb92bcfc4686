package filter

import (
	"fmt"
	"math"
	"strconv"
)

// parseClampedInt parses a decimal integer constrained to [0, INT_MAX], the
// range the reference implementation accepts for smtp-session-timeout.
func parseClampedInt(s string) (int, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 || v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q", ErrOutOfRange, s)
	}
	return int(v), nil
}

// SessionTimeout returns the current smtp-session-timeout, defaulting to
// 300 seconds until a config line updates it.
func (e *Engine) SessionTimeout() int {
	return e.sessionTimeout
}
