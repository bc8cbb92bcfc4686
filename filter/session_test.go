package filter

import "testing"

func TestSessionStoreLookupCreatesOnce(t *testing.T) {
	s := newSessionStore()
	creates := 0
	onCreate := func() any {
		creates++
		return "local"
	}

	sess1, created1 := s.lookup(1, onCreate)
	if !created1 {
		t.Fatalf("lookup: created = false on first lookup, want true")
	}
	if sess1.FCrDNS != StatusTempfail {
		t.Errorf("FCrDNS = %v, want StatusTempfail default", sess1.FCrDNS)
	}
	if sess1.Local != "local" {
		t.Errorf("Local = %v, want %q", sess1.Local, "local")
	}

	sess2, created2 := s.lookup(1, onCreate)
	if created2 {
		t.Fatalf("lookup: created = true on second lookup, want false")
	}
	if sess2 != sess1 {
		t.Fatalf("lookup: returned a different *Session on second lookup")
	}
	if creates != 1 {
		t.Errorf("onCreate called %d times, want 1", creates)
	}
}

func TestSessionStoreRemoveThenLookupRecreates(t *testing.T) {
	s := newSessionStore()
	creates := 0
	onCreate := func() any {
		creates++
		return nil
	}

	first, _ := s.lookup(1, onCreate)
	s.remove(1)
	second, created := s.lookup(1, onCreate)
	if !created {
		t.Fatalf("lookup after remove: created = false, want true")
	}
	if second == first {
		t.Fatalf("lookup after remove: returned the same *Session instance")
	}
	if creates != 2 {
		t.Errorf("onCreate called %d times across remove+relookup, want 2", creates)
	}
}

func TestSessionStoreLen(t *testing.T) {
	s := newSessionStore()
	s.lookup(1, nil)
	s.lookup(2, nil)
	s.lookup(1, nil)
	if s.len() != 2 {
		t.Errorf("len() = %d, want 2", s.len())
	}
	s.remove(1)
	if s.len() != 1 {
		t.Errorf("len() after remove = %d, want 1", s.len())
	}
}

func TestSessionMessageAccessor(t *testing.T) {
	sess := &Session{ReqID: 1}
	if sess.Message() != nil {
		t.Errorf("Message() on fresh session = %v, want nil", sess.Message())
	}
	sess.message = "active"
	if sess.Message() != "active" {
		t.Errorf("Message() = %v, want %q", sess.Message(), "active")
	}
}
