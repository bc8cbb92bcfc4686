package filter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// rawEvent is one fully-parsed header off the wire, payload left unparsed
// for the catalog-selected shape parser to consume.
type rawEvent struct {
	kind         EventType
	versionMajor int
	versionMinor int
	when         time.Time
	incoming     bool
	phase        Phase
	reqid        uint64
	token        uint64
	hasToken     bool
	payload      string
}

// configLine is a parsed "config|..." record.
type configLine struct {
	ready bool
	key   string
	value string
}

// parseConfigLine parses the config grammar: "config|ready" or
// "config|key|value".
func parseConfigLine(rest, linedup string) (configLine, error) {
	if rest == "ready" {
		return configLine{ready: true}, nil
	}
	key, value, ok := cut(rest)
	if !ok {
		return configLine{}, fmt.Errorf("%w: missing key: %q", ErrMalformedLine, linedup)
	}
	return configLine{key: key, value: value}, nil
}

// parseLine parses one newline-stripped wire record into its header
// fields. The payload substring is left for the catalog-selected parser.
//
// Unlike the destructive in-place splitting of the reference
// implementation, this operates on borrowed slices of the input line; the
// caller is responsible for keeping linedup (the original, for error
// messages) alive as long as needed.
func parseLine(line, linedup string) (rawEvent, *configLine, error) {
	kindStr, rest, ok := cut(line)
	if !ok {
		return rawEvent{}, nil, fmt.Errorf("%w: missing version: %q", ErrMalformedLine, linedup)
	}

	var kind EventType
	switch kindStr {
	case "filter":
		kind = Filter
	case "report":
		kind = Report
	case "config":
		cl, err := parseConfigLine(rest, linedup)
		if err != nil {
			return rawEvent{}, nil, err
		}
		return rawEvent{}, &cl, nil
	default:
		return rawEvent{}, nil, fmt.Errorf("%w: unknown message type: %q", ErrMalformedLine, linedup)
	}

	versionField, rest, ok := cut(rest)
	if !ok {
		return rawEvent{}, nil, fmt.Errorf("%w: missing time: %q", ErrMalformedLine, linedup)
	}
	major, minor, err := parseVersion(versionField, linedup)
	if err != nil {
		return rawEvent{}, nil, err
	}
	if major != 0 {
		return rawEvent{}, nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, linedup)
	}

	tsField, rest, ok := cut(rest)
	if !ok {
		return rawEvent{}, nil, fmt.Errorf("%w: missing direction: %q", ErrMalformedLine, linedup)
	}
	when, err := parseTimestamp(tsField, linedup)
	if err != nil {
		return rawEvent{}, nil, err
	}

	dirField, rest, ok := cut(rest)
	if !ok {
		return rawEvent{}, nil, fmt.Errorf("%w: missing phase: %q", ErrMalformedLine, linedup)
	}
	var incoming bool
	switch dirField {
	case "smtp-in":
		incoming = true
	case "smtp-out":
		incoming = false
	default:
		return rawEvent{}, nil, fmt.Errorf("%w: invalid direction: %q", ErrMalformedLine, linedup)
	}

	phaseField, rest, ok := cut(rest)
	if !ok {
		return rawEvent{}, nil, fmt.Errorf("%w: missing reqid: %q", ErrMalformedLine, linedup)
	}
	phase, ok := parsePhase(phaseField)
	if !ok {
		return rawEvent{}, nil, fmt.Errorf("%w: invalid phase: %q", ErrMalformedLine, linedup)
	}

	reqidField, afterReqid, hasAfterReqid := cut(rest)
	if !hasAfterReqid {
		reqidField = rest
	}
	reqid, err := strconv.ParseUint(reqidField, 16, 64)
	if err != nil {
		return rawEvent{}, nil, fmt.Errorf("%w: invalid reqid: %q", ErrMalformedLine, linedup)
	}

	ev := rawEvent{
		kind:         kind,
		versionMajor: major,
		versionMinor: minor,
		when:         when,
		incoming:     incoming,
		phase:        phase,
		reqid:        reqid,
	}

	if kind == Filter {
		if !hasAfterReqid {
			return rawEvent{}, nil, fmt.Errorf("%w: invalid token: %q", ErrMalformedLine, linedup)
		}
		tokenField, payload, hasPayload := cut(afterReqid)
		if !hasPayload {
			tokenField = afterReqid
			payload = ""
		}
		token, err := strconv.ParseUint(tokenField, 16, 64)
		if err != nil {
			return rawEvent{}, nil, fmt.Errorf("%w: invalid token: %q", ErrMalformedLine, linedup)
		}
		ev.token = token
		ev.hasToken = true
		ev.payload = payload
	} else if hasAfterReqid {
		ev.payload = afterReqid
	}

	return ev, nil, nil
}

// cut splits s at the first '|', with the same results as strings.Cut(s,
// "|"). Callers treat found == false as a protocol error wherever a
// separator is mandatory, rather than taking s as the rest of the line.
func cut(s string) (before, after string, found bool) {
	idx := strings.IndexByte(s, '|')
	if idx < 0 {
		return s, "", false
	}
	return s[:idx], s[idx+1:], true
}

func parseVersion(field, linedup string) (int, int, error) {
	dot := strings.IndexByte(field, '.')
	if dot < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedLine, linedup)
	}
	major, err := strconv.Atoi(field[:dot])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedLine, linedup)
	}
	minor, err := strconv.Atoi(field[dot+1:])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrMalformedLine, linedup)
	}
	return major, minor, nil
}

func parseTimestamp(field, linedup string) (time.Time, error) {
	dot := strings.IndexByte(field, '.')
	if dot < 0 {
		return time.Time{}, fmt.Errorf("%w: invalid timestamp: %q", ErrMalformedLine, linedup)
	}
	secStr, fracStr := field[:dot], field[dot+1:]
	sec, err := strconv.ParseInt(secStr, 10, 64)
	if err != nil || sec < 0 {
		return time.Time{}, fmt.Errorf("%w: invalid timestamp: %q", ErrMalformedLine, linedup)
	}
	frac, err := strconv.ParseInt(fracStr, 10, 64)
	if err != nil || frac < 0 {
		return time.Time{}, fmt.Errorf("%w: invalid timestamp: %q", ErrMalformedLine, linedup)
	}
	// The reference implementation scales the fractional part by
	// "10 * (9 - digits)" (additive), which produces nanosecond values
	// with the wrong magnitude for anything but exactly eight digits. The
	// correct normalization multiplies by a power of ten for the number
	// of digits actually supplied.
	digits := len(fracStr)
	var nsec int64
	if digits > 0 && digits <= 9 {
		nsec = frac
		for i := 0; i < 9-digits; i++ {
			nsec *= 10
		}
	}
	return time.Unix(sec, nsec), nil
}
