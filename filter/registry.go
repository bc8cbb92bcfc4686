package filter

import "fmt"

// registryEntry tracks the mutable registration state for one catalog
// triple: whether the extension wants the line emitted at handshake time,
// whether its payload should be cached into session state, and whether a
// user callback has already claimed this slot.
type registryEntry struct {
	doRegister  bool
	storeReport bool
	hasCallback bool
}

// registry is the mutable table described by the registration registry:
// which catalog triples the extension has opted into, and how.
type registry struct {
	entries map[catalogKey]*registryEntry
	need    Need
	running bool

	hasLocalMessage bool
}

func newRegistry() *registry {
	return &registry{entries: make(map[catalogKey]*registryEntry)}
}

// register locates the matching catalog entry and updates its registration
// state. hasCallback indicates the caller is attaching a user callback (as
// opposed to an implicit registration driven by Need, which passes false).
func (r *registry) register(typ EventType, phase Phase, incoming bool, storeReport, hasCallback bool) error {
	if r.running {
		return fmt.Errorf("%w: %s/%s", ErrAlreadyRunning, typ, phase)
	}
	if _, ok := lookupCatalog(typ, phase, incoming); !ok {
		return fmt.Errorf("%w: %s/%s/incoming=%v", ErrUnknownRegistrable, typ, phase, incoming)
	}
	key := catalogKey{typ, phase, incoming}
	e := r.entries[key]
	if e == nil {
		e = &registryEntry{}
		r.entries[key] = e
	}
	if hasCallback {
		if e.hasCallback {
			return fmt.Errorf("%w: %s/%s/incoming=%v", ErrDuplicateCallback, typ, phase, incoming)
		}
		e.hasCallback = true
	}
	e.doRegister = true
	if storeReport {
		e.storeReport = true
	}
	return nil
}

// addNeed accumulates the declarative Need mask. It is cumulative across
// calls and takes effect once at handshake time.
func (r *registry) addNeed(mask Need) {
	r.need |= mask
}

// expandNeed applies the Need mask as implicit registrations for one
// traffic direction, mirroring the per-direction expansion the reference
// implementation performs for every direction it has already registered an
// entry in.
func (r *registry) expandNeed(incoming bool) {
	if r.need.has(NeedSrc) || r.need.has(NeedDst) || r.need.has(NeedRDNS) || r.need.has(NeedFCrDNS) {
		r.mustRegister(Report, PhaseLinkConnect, incoming, true, false)
	}
	if r.need.has(NeedGreeting) {
		r.mustRegister(Report, PhaseLinkGreeting, incoming, true, false)
	}
	if r.need.has(NeedIdentity) {
		r.mustRegister(Report, PhaseLinkIdentify, incoming, true, false)
	}
	if r.need.has(NeedCiphers) {
		r.mustRegister(Report, PhaseLinkTLS, incoming, true, false)
	}
	if r.need.has(NeedMsgID) {
		r.registerTxLifecycle(incoming, PhaseTxBegin)
	}
	if r.need.has(NeedMailFrom) {
		r.registerTxLifecycle(incoming, PhaseTxMail)
	}
	if r.need.has(NeedRcptTo) {
		r.registerTxLifecycle(incoming, PhaseTxRcpt)
	}
	if r.need.has(NeedEvpID) {
		r.registerTxLifecycle(incoming, PhaseTxEnvelope)
	}
	r.mustRegister(Report, PhaseLinkDisconnect, incoming, false, false)
}

// registerTxLifecycle registers the triggering tx-* phase with caching, plus
// tx-rollback and tx-commit without caching, to drive per-message cleanup.
func (r *registry) registerTxLifecycle(incoming bool, trigger Phase) {
	r.mustRegister(Report, trigger, incoming, true, false)
	r.mustRegister(Report, PhaseTxRollback, incoming, false, false)
	r.mustRegister(Report, PhaseTxCommit, incoming, false, false)
}

// mustRegister performs an implicit registration. These always target
// catalog entries already known to be legal, so a failure here indicates a
// programming error in the table above, not extension misuse.
func (r *registry) mustRegister(typ EventType, phase Phase, incoming, storeReport, hasCallback bool) {
	if err := r.register(typ, phase, incoming, storeReport, hasCallback); err != nil {
		panic(fmt.Sprintf("osmtpd: implicit registration failed: %v", err))
	}
}

// directions returns the set of traffic directions among currently
// registered entries, snapshotted before implicit expansion runs.
func (r *registry) directions() []bool {
	seen := map[bool]bool{}
	var dirs []bool
	for key, e := range r.entries {
		if !e.doRegister {
			continue
		}
		if !seen[key.incoming] {
			seen[key.incoming] = true
			dirs = append(dirs, key.incoming)
		}
	}
	return dirs
}

// finalize runs implicit registration expansion, local-message-driven tx
// lifecycle registration, and the identify-promotion rule, then freezes the
// registry against further explicit registration. It returns the list of
// (type, phase, incoming) triples to emit as "register|..." handshake
// lines, in a stable order.
func (r *registry) finalize() ([]catalogKey, error) {
	for _, incoming := range r.directions() {
		r.expandNeed(incoming)
		if r.hasLocalMessage {
			r.mustRegister(Report, PhaseTxBegin, incoming, false, false)
			r.mustRegister(Report, PhaseTxRollback, incoming, false, false)
			r.mustRegister(Report, PhaseTxCommit, incoming, false, false)
		}
	}

	if e, ok := r.entries[catalogKey{Report, PhaseLinkIdentify, true}]; ok && e.doRegister && e.storeReport {
		if helo, ok := r.entries[catalogKey{Filter, PhaseHelo, true}]; ok && helo.doRegister {
			helo.storeReport = true
		}
		if ehlo, ok := r.entries[catalogKey{Filter, PhaseEhlo, true}]; ok && ehlo.doRegister {
			ehlo.storeReport = true
		}
	}

	var out []catalogKey
	registered := false
	for p := Phase(0); p < phaseCount; p++ {
		for _, incoming := range [...]bool{true, false} {
			for _, typ := range [...]EventType{Report, Filter} {
				key := catalogKey{typ, p, incoming}
				e, ok := r.entries[key]
				if !ok || !e.doRegister {
					continue
				}
				if e.hasCallback {
					registered = true
				}
				out = append(out, key)
			}
		}
	}
	if !registered {
		return nil, ErrNoCallbacks
	}
	r.running = true
	return out, nil
}

// storeReportFor reports whether the given triple has caching enabled. It
// is consulted by the dispatcher after finalize has run.
func (r *registry) storeReportFor(typ EventType, phase Phase, incoming bool) bool {
	e, ok := r.entries[catalogKey{typ, phase, incoming}]
	return ok && e.storeReport
}

// hasCallbackFor reports whether a user callback is attached to a triple.
func (r *registry) hasCallbackFor(typ EventType, phase Phase, incoming bool) bool {
	e, ok := r.entries[catalogKey{typ, phase, incoming}]
	return ok && e.hasCallback
}
