package filter

import (
	"github.com/google/btree"
)

// Session is the per-connection state the dispatcher threads through every
// event for one reqid. Fields are populated opportunistically: a field is
// only kept up to date if some registered entry's store_report caches it.
type Session struct {
	ReqID uint64

	VersionMajor int
	VersionMinor int

	Src      Addr
	Dst      Addr
	RDNS     string
	FCrDNS   Status
	Identity string
	Greeting string
	Ciphers  string

	MsgID    uint32
	MailFrom string
	RcptTo   []string
	EvpID    uint64

	// Local is the extension-supplied per-session value returned by the
	// OnCreateSession hook, opaque to the engine.
	Local any

	// message is the extension-supplied per-message value returned by
	// the OnCreateMessage hook, live between tx-begin and tx-commit or
	// tx-rollback.
	message any

	// token is the verdict token of the filter event currently being
	// processed for this session; only meaningful inside a filter
	// callback.
	token uint64
}

// Message returns the extension-supplied per-message value set by the
// OnCreateMessage hook passed to LocalMessage, or nil between messages or
// when no hook is registered.
func (s *Session) Message() any {
	return s.message
}

// sessionItem adapts *Session to btree.Item by reqid ordering.
type sessionItem struct {
	session *Session
}

func (a sessionItem) Less(than btree.Item) bool {
	return a.session.ReqID < than.(sessionItem).session.ReqID
}

// sessionStore is an ordered associative container keyed by reqid,
// providing logarithmic find/insert/erase as required by sessions that can
// number in the thousands under a busy mail server.
type sessionStore struct {
	tree *btree.BTree
}

func newSessionStore() *sessionStore {
	return &sessionStore{tree: btree.New(32)}
}

// lookup returns the existing session for reqid, or creates and inserts a
// fresh one with fcrdns defaulted to tempfail per the wire protocol's
// "unknown until proven otherwise" convention.
func (s *sessionStore) lookup(reqid uint64, onCreate func() any) (*Session, bool) {
	probe := sessionItem{session: &Session{ReqID: reqid}}
	if item := s.tree.Get(probe); item != nil {
		return item.(sessionItem).session, false
	}
	sess := &Session{
		ReqID:  reqid,
		FCrDNS: StatusTempfail,
	}
	if onCreate != nil {
		sess.Local = onCreate()
	}
	s.tree.ReplaceOrInsert(sessionItem{session: sess})
	return sess, true
}

// remove erases the session for reqid, if present.
func (s *sessionStore) remove(reqid uint64) {
	probe := sessionItem{session: &Session{ReqID: reqid}}
	s.tree.Delete(probe)
}

func (s *sessionStore) len() int {
	return s.tree.Len()
}

// ascend walks every session in ascending reqid order, stopping early if fn
// returns false.
func (s *sessionStore) ascend(fn func(*Session) bool) {
	s.tree.Ascend(func(item btree.Item) bool {
		return fn(item.(sessionItem).session)
	})
}
