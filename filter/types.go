package filter

import "fmt"

// EventType distinguishes a notification (Report) from a verdict request
// (Filter).
type EventType int

const (
	// Report is a fire-and-forget notification; no verdict is expected.
	Report EventType = iota
	// Filter demands exactly one verdict from the registered callback.
	Filter
)

func (t EventType) String() string {
	switch t {
	case Report:
		return "report"
	case Filter:
		return "filter"
	default:
		return fmt.Sprintf("eventtype(%d)", int(t))
	}
}

// Phase is the stage of the SMTP conversation that generated an event.
type Phase int

const (
	PhaseConnect Phase = iota
	PhaseHelo
	PhaseEhlo
	PhaseStartTLS
	PhaseAuth
	PhaseMailFrom
	PhaseRcptTo
	PhaseData
	PhaseDataLine
	PhaseRset
	PhaseQuit
	PhaseNoop
	PhaseHelp
	PhaseWiz
	PhaseCommit
	PhaseLinkAuth
	PhaseLinkConnect
	PhaseLinkDisconnect
	PhaseLinkGreeting
	PhaseLinkIdentify
	PhaseLinkTLS
	PhaseTxBegin
	PhaseTxMail
	PhaseTxRcpt
	PhaseTxEnvelope
	PhaseTxData
	PhaseTxCommit
	PhaseTxRollback
	PhaseProtocolClient
	PhaseProtocolServer
	PhaseFilterResponse
	PhaseTimeout

	phaseCount
)

var phaseNames = [phaseCount]string{
	PhaseConnect:        "connect",
	PhaseHelo:           "helo",
	PhaseEhlo:           "ehlo",
	PhaseStartTLS:       "starttls",
	PhaseAuth:           "auth",
	PhaseMailFrom:       "mail-from",
	PhaseRcptTo:         "rcpt-to",
	PhaseData:           "data",
	PhaseDataLine:       "data-line",
	PhaseRset:           "rset",
	PhaseQuit:           "quit",
	PhaseNoop:           "noop",
	PhaseHelp:           "help",
	PhaseWiz:            "wiz",
	PhaseCommit:         "commit",
	PhaseLinkAuth:       "link-auth",
	PhaseLinkConnect:    "link-connect",
	PhaseLinkDisconnect: "link-disconnect",
	PhaseLinkGreeting:   "link-greeting",
	PhaseLinkIdentify:   "link-identify",
	PhaseLinkTLS:        "link-tls",
	PhaseTxBegin:        "tx-begin",
	PhaseTxMail:         "tx-mail",
	PhaseTxRcpt:         "tx-rcpt",
	PhaseTxEnvelope:     "tx-envelope",
	PhaseTxData:         "tx-data",
	PhaseTxCommit:       "tx-commit",
	PhaseTxRollback:     "tx-rollback",
	PhaseProtocolClient: "protocol-client",
	PhaseProtocolServer: "protocol-server",
	PhaseFilterResponse: "filter-response",
	PhaseTimeout:        "timeout",
}

var phaseByName map[string]Phase

func init() {
	phaseByName = make(map[string]Phase, len(phaseNames))
	for p, name := range phaseNames {
		phaseByName[name] = Phase(p)
	}
}

// String returns the canonical lowercase wire spelling of the phase.
func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// parsePhase looks up a phase by its wire spelling.
func parsePhase(s string) (Phase, bool) {
	p, ok := phaseByName[s]
	return p, ok
}

// Status is a tri-value SMTP outcome.
type Status int

const (
	StatusOK Status = iota
	StatusTempfail
	StatusPermfail
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTempfail:
		return "tempfail"
	case StatusPermfail:
		return "permfail"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func parseStatus(s string) (Status, error) {
	switch s {
	case "ok":
		return StatusOK, nil
	case "tempfail":
		return StatusTempfail, nil
	case "permfail":
		return StatusPermfail, nil
	default:
		return 0, fmt.Errorf("%w: invalid status: %q", ErrMalformedLine, s)
	}
}

// AuthResult is a tri-value outcome of a client AUTH exchange.
type AuthResult int

const (
	AuthPass AuthResult = iota
	AuthFail
	AuthError
)

func (a AuthResult) String() string {
	switch a {
	case AuthPass:
		return "pass"
	case AuthFail:
		return "fail"
	case AuthError:
		return "error"
	default:
		return fmt.Sprintf("authresult(%d)", int(a))
	}
}

func parseAuthResult(s string) (AuthResult, error) {
	switch s {
	case "pass":
		return AuthPass, nil
	case "fail":
		return AuthFail, nil
	case "error":
		return AuthError, nil
	default:
		return 0, fmt.Errorf("%w: invalid auth result: %q", ErrMalformedLine, s)
	}
}

// parseFCrDNS decodes the link-connect fcrdns field, which is carried on
// the wire as pass/fail/error but means something different from an
// AuthResult: pass means the forward-confirmed reverse DNS check
// succeeded (ok), fail means it was confirmed negative (permfail), and
// error means the check could not complete (tempfail).
func parseFCrDNS(s string) (Status, error) {
	switch s {
	case "pass":
		return StatusOK, nil
	case "fail":
		return StatusPermfail, nil
	case "error":
		return StatusTempfail, nil
	default:
		return 0, fmt.Errorf("%w: invalid fcrdns: %q", ErrMalformedLine, s)
	}
}
