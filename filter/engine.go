package filter

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
)

// LineSource supplies newline-terminated protocol records. It abstracts the
// Engine away from stdin so tests can drive it from an in-memory reader.
type LineSource interface {
	ReadLine() (string, error)
}

// LineSink accepts newline-terminated protocol records written by the
// Engine. It abstracts the Engine away from stdout.
type LineSink interface {
	io.Writer
}

type scannerSource struct {
	sc *bufio.Scanner
}

func newScannerSource(r io.Reader) *scannerSource {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return &scannerSource{sc: sc}
}

func (s *scannerSource) ReadLine() (string, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.sc.Text(), nil
}

// Engine is a client for the out-of-process filter protocol: it owns
// registration, the session store, line decoding and dispatch, and verdict
// encoding. Callbacks supply only the business decisions.
type Engine struct {
	reg   *registry
	store *sessionStore

	in  LineSource
	out *bufio.Writer

	logger  *slog.Logger
	metrics Collector

	confCB func(key, value string)

	onCreateSession func(*Session) any
	onDeleteSession func(*Session, any)
	onCreateMessage func(*Session) any
	onDeleteMessage func(*Session, any)

	callbacks map[catalogKey]any

	sessionTimeout int

	exitFunc func(int)
}

// NewEngine constructs an Engine reading the wire protocol from r and
// writing verdicts to w. Use Options to customize logging and metrics.
func NewEngine(r io.Reader, w io.Writer, opts ...Option) *Engine {
	e := &Engine{
		reg:            newRegistry(),
		store:          newSessionStore(),
		in:             newScannerSource(r),
		out:            bufio.NewWriter(w),
		logger:         slog.New(slog.NewTextHandler(os.Stderr, nil)),
		metrics:        NoopCollector{},
		callbacks:      make(map[catalogKey]any),
		sessionTimeout: 300,
		exitFunc:       os.Exit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger overrides the Engine's structured logger. The default logs
// text-formatted records to stderr, which never shares a stream with the
// wire protocol on stdout.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithCollector attaches a metrics Collector. The default is a no-op.
func WithCollector(c Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// WithLineSource overrides how input lines are obtained, primarily for
// tests.
func WithLineSource(src LineSource) Option {
	return func(e *Engine) { e.in = src }
}

// WithExitFunc overrides the function called on a fatal protocol or usage
// error, primarily for tests. The default is os.Exit.
func WithExitFunc(f func(int)) Option {
	return func(e *Engine) { e.exitFunc = f }
}

// RegisterConf attaches a callback invoked once per "config|key|value"
// line, and once more with ("", "") when the host signals "config|ready".
func (e *Engine) RegisterConf(cb func(key, value string)) {
	e.confCB = cb
}

// LocalSession attaches constructor/destructor hooks for an
// extension-defined value threaded through Session.Local for the lifetime
// of one connection.
func (e *Engine) LocalSession(onCreate func(*Session) any, onDelete func(*Session, any)) {
	e.onCreateSession = onCreate
	e.onDeleteSession = onDelete
}

// LocalMessage attaches constructor/destructor hooks for an
// extension-defined value live between tx-begin and tx-commit/tx-rollback.
func (e *Engine) LocalMessage(onCreate func(*Session) any, onDelete func(*Session, any)) {
	e.onCreateMessage = onCreate
	e.onDeleteMessage = onDelete
	e.reg.hasLocalMessage = true
}

// Need declares that the extension wants the library to cache the session
// attributes named by mask, expanding into implicit registrations at Run.
func (e *Engine) Need(mask Need) {
	e.reg.addNeed(mask)
}

// hasCallback reports whether cb, boxed as any by a typed Register*
// wrapper, actually holds a non-nil function. A typed nil func boxed into
// an interface is itself a non-nil interface, so a plain "cb != nil" check
// would wrongly treat a caller's explicit nil as a real callback.
func hasCallback(cb any) bool {
	if cb == nil {
		return false
	}
	return !reflect.ValueOf(cb).IsNil()
}

func (e *Engine) registerFilter(phase Phase, cb any) error {
	has := hasCallback(cb)
	if err := e.reg.register(Filter, phase, true, false, has); err != nil {
		return err
	}
	e.reg.mustRegister(Report, PhaseLinkDisconnect, true, false, false)
	if has {
		e.callbacks[catalogKey{Filter, phase, true}] = cb
	}
	return nil
}

func (e *Engine) registerReport(phase Phase, incoming bool, cb any) error {
	has := hasCallback(cb)
	if err := e.reg.register(Report, phase, incoming, false, has); err != nil {
		return err
	}
	if phase != PhaseLinkDisconnect {
		e.reg.mustRegister(Report, PhaseLinkDisconnect, incoming, false, false)
	}
	if has {
		e.callbacks[catalogKey{Report, phase, incoming}] = cb
	}
	return nil
}

// RegisterFilterConnect registers the filter connect phase.
func (e *Engine) RegisterFilterConnect(cb func(*Session, ConnectPayload)) error {
	return e.registerFilter(PhaseConnect, cb)
}

// RegisterFilterHelo registers the filter helo phase.
func (e *Engine) RegisterFilterHelo(cb func(*Session, string)) error {
	return e.registerFilter(PhaseHelo, cb)
}

// RegisterFilterEhlo registers the filter ehlo phase.
func (e *Engine) RegisterFilterEhlo(cb func(*Session, string)) error {
	return e.registerFilter(PhaseEhlo, cb)
}

// RegisterFilterStartTLS registers the filter starttls phase.
func (e *Engine) RegisterFilterStartTLS(cb func(*Session)) error {
	return e.registerFilter(PhaseStartTLS, cb)
}

// RegisterFilterAuth registers the filter auth phase.
func (e *Engine) RegisterFilterAuth(cb func(*Session, string)) error {
	return e.registerFilter(PhaseAuth, cb)
}

// RegisterFilterMailFrom registers the filter mail-from phase.
func (e *Engine) RegisterFilterMailFrom(cb func(*Session, string)) error {
	return e.registerFilter(PhaseMailFrom, cb)
}

// RegisterFilterRcptTo registers the filter rcpt-to phase.
func (e *Engine) RegisterFilterRcptTo(cb func(*Session, string)) error {
	return e.registerFilter(PhaseRcptTo, cb)
}

// RegisterFilterData registers the filter data phase.
func (e *Engine) RegisterFilterData(cb func(*Session)) error {
	return e.registerFilter(PhaseData, cb)
}

// RegisterFilterDataLine registers the filter data-line phase.
func (e *Engine) RegisterFilterDataLine(cb func(*Session, string)) error {
	return e.registerFilter(PhaseDataLine, cb)
}

// RegisterFilterRset registers the filter rset phase.
func (e *Engine) RegisterFilterRset(cb func(*Session)) error {
	return e.registerFilter(PhaseRset, cb)
}

// RegisterFilterQuit registers the filter quit phase.
func (e *Engine) RegisterFilterQuit(cb func(*Session)) error {
	return e.registerFilter(PhaseQuit, cb)
}

// RegisterFilterNoop registers the filter noop phase.
func (e *Engine) RegisterFilterNoop(cb func(*Session)) error {
	return e.registerFilter(PhaseNoop, cb)
}

// RegisterFilterHelp registers the filter help phase.
func (e *Engine) RegisterFilterHelp(cb func(*Session)) error {
	return e.registerFilter(PhaseHelp, cb)
}

// RegisterFilterWiz registers the filter wiz phase.
func (e *Engine) RegisterFilterWiz(cb func(*Session)) error {
	return e.registerFilter(PhaseWiz, cb)
}

// RegisterFilterCommit registers the filter commit phase.
func (e *Engine) RegisterFilterCommit(cb func(*Session)) error {
	return e.registerFilter(PhaseCommit, cb)
}

// RegisterReportConnect registers report link-connect for one direction.
func (e *Engine) RegisterReportConnect(incoming bool, cb func(*Session, LinkConnectPayload)) error {
	return e.registerReport(PhaseLinkConnect, incoming, cb)
}

// RegisterReportDisconnect registers report link-disconnect for one
// direction. The callback runs before the session is removed from the
// store and its destructor invoked.
func (e *Engine) RegisterReportDisconnect(incoming bool, cb func(*Session)) error {
	return e.registerReport(PhaseLinkDisconnect, incoming, cb)
}

// RegisterReportGreeting registers report link-greeting for one direction.
func (e *Engine) RegisterReportGreeting(incoming bool, cb func(*Session, string)) error {
	return e.registerReport(PhaseLinkGreeting, incoming, cb)
}

// RegisterReportIdentify registers report link-identify for one direction.
func (e *Engine) RegisterReportIdentify(incoming bool, cb func(*Session, string)) error {
	return e.registerReport(PhaseLinkIdentify, incoming, cb)
}

// RegisterReportTLS registers report link-tls for one direction.
func (e *Engine) RegisterReportTLS(incoming bool, cb func(*Session, string)) error {
	return e.registerReport(PhaseLinkTLS, incoming, cb)
}

// RegisterReportAuth registers report link-auth. Only incoming=true is a
// legal combination; passing false fails with ErrUnknownRegistrable.
func (e *Engine) RegisterReportAuth(incoming bool, cb func(*Session, LinkAuthPayload)) error {
	return e.registerReport(PhaseLinkAuth, incoming, cb)
}

// RegisterReportBegin registers report tx-begin for one direction.
func (e *Engine) RegisterReportBegin(incoming bool, cb func(*Session, uint32)) error {
	return e.registerReport(PhaseTxBegin, incoming, cb)
}

// RegisterReportMail registers report tx-mail for one direction.
func (e *Engine) RegisterReportMail(incoming bool, cb func(*Session, TxAddrPayload)) error {
	return e.registerReport(PhaseTxMail, incoming, cb)
}

// RegisterReportRcpt registers report tx-rcpt for one direction.
func (e *Engine) RegisterReportRcpt(incoming bool, cb func(*Session, TxAddrPayload)) error {
	return e.registerReport(PhaseTxRcpt, incoming, cb)
}

// RegisterReportEnvelope registers report tx-envelope for one direction.
func (e *Engine) RegisterReportEnvelope(incoming bool, cb func(*Session, TxEnvelopePayload)) error {
	return e.registerReport(PhaseTxEnvelope, incoming, cb)
}

// RegisterReportData registers report tx-data for one direction.
func (e *Engine) RegisterReportData(incoming bool, cb func(*Session, TxDataPayload)) error {
	return e.registerReport(PhaseTxData, incoming, cb)
}

// RegisterReportCommit registers report tx-commit for one direction.
func (e *Engine) RegisterReportCommit(incoming bool, cb func(*Session, TxCommitPayload)) error {
	return e.registerReport(PhaseTxCommit, incoming, cb)
}

// RegisterReportRollback registers report tx-rollback for one direction.
func (e *Engine) RegisterReportRollback(incoming bool, cb func(*Session, uint32)) error {
	return e.registerReport(PhaseTxRollback, incoming, cb)
}

// RegisterReportClient registers report protocol-client for one direction.
func (e *Engine) RegisterReportClient(incoming bool, cb func(*Session, string)) error {
	return e.registerReport(PhaseProtocolClient, incoming, cb)
}

// RegisterReportServer registers report protocol-server for one direction.
func (e *Engine) RegisterReportServer(incoming bool, cb func(*Session, string)) error {
	return e.registerReport(PhaseProtocolServer, incoming, cb)
}

// RegisterReportResponse registers report filter-response for one
// direction.
func (e *Engine) RegisterReportResponse(incoming bool, cb func(*Session, string)) error {
	return e.registerReport(PhaseFilterResponse, incoming, cb)
}

// RegisterReportTimeout registers report timeout for one direction.
func (e *Engine) RegisterReportTimeout(incoming bool, cb func(*Session)) error {
	return e.registerReport(PhaseTimeout, incoming, cb)
}

// fatal logs err and terminates the process. Protocol and usage errors are
// always fatal: once the host and the extension disagree about the wire
// state, there is nothing safe left to do but stop.
func (e *Engine) fatal(err error) {
	e.logger.Error("fatal", "error", err)
	e.metrics.FatalExit()
	e.exitFunc(1)
}

// Run emits the registration handshake, then processes input lines until
// ctx is cancelled or the input is exhausted. ctx is checked between lines,
// not mid-line.
func (e *Engine) Run(ctx context.Context) error {
	keys, err := e.reg.finalize()
	if err != nil {
		e.fatal(err)
		return err
	}
	for _, k := range keys {
		if _, err := fmt.Fprintf(e.out, "register|%s|smtp-%s|%s\n", k.typ, dirString(k.incoming), k.phase); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(e.out, "register|ready\n"); err != nil {
		return err
	}
	if err := e.out.Flush(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := e.in.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := e.dispatchLine(line); err != nil {
			e.fatal(err)
			return err
		}
		if err := e.out.Flush(); err != nil {
			return err
		}
	}
}

func dirString(incoming bool) string {
	if incoming {
		return "in"
	}
	return "out"
}

func (e *Engine) dispatchLine(line string) error {
	ev, cfg, err := parseLine(line, line)
	if err != nil {
		return err
	}
	if cfg != nil {
		e.handleConfig(*cfg, line)
		return nil
	}
	return e.dispatchEvent(ev, line)
}

func (e *Engine) handleConfig(cfg configLine, linedup string) {
	if cfg.ready {
		if e.confCB != nil {
			e.confCB("", "")
		}
		return
	}
	if e.confCB != nil {
		e.confCB(cfg.key, cfg.value)
	}
	if cfg.key == "smtp-session-timeout" {
		n, err := parseClampedInt(cfg.value)
		if err != nil {
			e.fatal(fmt.Errorf("%w: invalid smtp-session-timeout: %q", ErrMalformedLine, linedup))
			return
		}
		e.sessionTimeout = n
	}
}

func (e *Engine) dispatchEvent(ev rawEvent, linedup string) error {
	entry, ok := lookupCatalog(ev.kind, ev.phase, ev.incoming)
	if !ok {
		return fmt.Errorf("%w: received unregistered line: %q", ErrUnknownEvent, linedup)
	}
	if re, ok := e.reg.entries[catalogKey{ev.kind, ev.phase, ev.incoming}]; !ok || !re.doRegister {
		return fmt.Errorf("%w: received unregistered line: %q", ErrUnknownEvent, linedup)
	}

	sess, created := e.store.lookup(ev.reqid, func() any {
		if e.onCreateSession != nil {
			return e.onCreateSession(&Session{ReqID: ev.reqid})
		}
		return nil
	})
	if created {
		e.metrics.SessionOpened()
	}
	e.metrics.EventDispatched(ev.phase)
	sess.VersionMajor = ev.versionMajor
	sess.VersionMinor = ev.versionMinor
	sess.token = ev.token

	key := catalogKey{ev.kind, ev.phase, ev.incoming}
	store := e.reg.storeReportFor(ev.kind, ev.phase, ev.incoming)
	cb, hasCB := e.callbacks[key]

	switch entry.shape {
	case shapeNone:
		if hasCB {
			cb.(func(*Session))(sess)
		}
	case shapeOneArg:
		if hasCB {
			cb.(func(*Session, string))(sess, ev.payload)
		}
	case shapeConnect:
		p, err := parseConnectPayload(ev.payload, linedup)
		if err != nil {
			return err
		}
		if hasCB {
			cb.(func(*Session, ConnectPayload))(sess, p)
		}
	case shapeIdentifier:
		if store {
			switch ev.phase {
			case PhaseLinkGreeting:
				sess.Greeting = ev.payload
			default:
				sess.Identity = ev.payload
			}
		}
		if hasCB {
			cb.(func(*Session, string))(sess, ev.payload)
		}
	case shapeLinkConnect:
		p, err := parseLinkConnectPayload(ev.payload, linedup)
		if err != nil {
			return err
		}
		if store {
			sess.RDNS = p.RDNS
			sess.FCrDNS = p.FCrDNS
			sess.Src = p.Src
			sess.Dst = p.Dst
		}
		if hasCB {
			cb.(func(*Session, LinkConnectPayload))(sess, p)
		}
	case shapeLinkAuth:
		p, err := parseLinkAuthPayload(ev.payload, linedup)
		if err != nil {
			return err
		}
		if hasCB {
			cb.(func(*Session, LinkAuthPayload))(sess, p)
		}
	case shapeLinkTLS:
		if store {
			sess.Ciphers = ev.payload
		}
		if hasCB {
			cb.(func(*Session, string))(sess, ev.payload)
		}
	case shapeTxBegin:
		msgid, err := parseTxBeginPayload(ev.payload, linedup)
		if err != nil {
			return err
		}
		if store {
			sess.MsgID = msgid
		}
		if e.onCreateMessage != nil {
			sess.message = e.onCreateMessage(sess)
		}
		if hasCB {
			cb.(func(*Session, uint32))(sess, msgid)
		}
	case shapeTxMailRcpt:
		p, err := parseTxAddrPayload(ev.payload, linedup, ev.versionMajor, ev.versionMinor)
		if err != nil {
			return err
		}
		if store {
			if ev.phase == PhaseTxMail {
				sess.MailFrom = p.Address
			} else {
				sess.RcptTo = append(sess.RcptTo, p.Address)
			}
		}
		if hasCB {
			cb.(func(*Session, TxAddrPayload))(sess, p)
		}
	case shapeTxEnvelope:
		p, err := parseTxEnvelopePayload(ev.payload, linedup)
		if err != nil {
			return err
		}
		if store {
			sess.EvpID = p.EvpID
		}
		if hasCB {
			cb.(func(*Session, TxEnvelopePayload))(sess, p)
		}
	case shapeTxData:
		p, err := parseTxDataPayload(ev.payload, linedup)
		if err != nil {
			return err
		}
		if hasCB {
			cb.(func(*Session, TxDataPayload))(sess, p)
		}
	case shapeTxCommit:
		p, err := parseTxCommitPayload(ev.payload, linedup)
		if err != nil {
			return err
		}
		if hasCB {
			cb.(func(*Session, TxCommitPayload))(sess, p)
		}
		e.endMessage(sess)
	case shapeTxRollback:
		msgid, err := parseTxRollbackPayload(ev.payload, linedup)
		if err != nil {
			return err
		}
		if hasCB {
			cb.(func(*Session, uint32))(sess, msgid)
		}
		e.endMessage(sess)
	}

	if ev.phase == PhaseLinkDisconnect {
		e.endSession(sess)
	}

	return nil
}

// endMessage runs the user-message destructor and clears per-message
// session state, mirroring tx-commit/tx-rollback cleanup.
func (e *Engine) endMessage(sess *Session) {
	if e.onDeleteMessage != nil {
		e.onDeleteMessage(sess, sess.message)
		sess.message = nil
	}
	sess.MailFrom = ""
	sess.RcptTo = sess.RcptTo[:0]
	sess.EvpID = 0
	sess.MsgID = 0
}

// endSession removes the session from the store and runs its destructor.
// The record is unlinked before the destructor runs so a destructor that
// re-enters the store can never observe a half-torn-down session.
func (e *Engine) endSession(sess *Session) {
	e.store.remove(sess.ReqID)
	if e.onDeleteSession != nil {
		e.onDeleteSession(sess, sess.Local)
	}
	e.metrics.SessionClosed()
}

// Sessions returns every currently open session, ordered by reqid. It is
// intended for instrumentation (metrics, admin introspection) rather than
// the event-driven callbacks, which already receive the relevant *Session
// directly.
func (e *Engine) Sessions() []*Session {
	var out []*Session
	e.store.ascend(func(s *Session) bool {
		out = append(out, s)
		return true
	})
	return out
}
