package filter

import (
	"errors"
	"testing"
)

func TestRegistryRegisterUnknownRegistrable(t *testing.T) {
	r := newRegistry()
	// link-auth is incoming=true only in the catalog.
	if err := r.register(Report, PhaseLinkAuth, false, false, true); !errors.Is(err, ErrUnknownRegistrable) {
		t.Fatalf("register: err = %v, want ErrUnknownRegistrable", err)
	}
}

func TestRegistryDuplicateCallback(t *testing.T) {
	r := newRegistry()
	if err := r.register(Filter, PhaseMailFrom, true, false, true); err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}
	if err := r.register(Filter, PhaseMailFrom, true, false, true); !errors.Is(err, ErrDuplicateCallback) {
		t.Fatalf("register: err = %v, want ErrDuplicateCallback", err)
	}
}

func TestRegistryAlreadyRunning(t *testing.T) {
	r := newRegistry()
	if err := r.register(Filter, PhaseMailFrom, true, false, true); err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}
	if _, err := r.finalize(); err != nil {
		t.Fatalf("finalize: unexpected error: %v", err)
	}
	if err := r.register(Filter, PhaseRcptTo, true, false, true); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("register: err = %v, want ErrAlreadyRunning", err)
	}
}

func TestRegistryNoCallbacks(t *testing.T) {
	r := newRegistry()
	r.addNeed(NeedMailFrom)
	if _, err := r.finalize(); !errors.Is(err, ErrNoCallbacks) {
		t.Fatalf("finalize: err = %v, want ErrNoCallbacks", err)
	}
}

func TestRegistryRegistrationMinimal(t *testing.T) {
	r := newRegistry()
	if err := r.register(Filter, PhaseMailFrom, true, false, true); err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}
	r.mustRegister(Report, PhaseLinkDisconnect, true, false, false)

	out, err := r.finalize()
	if err != nil {
		t.Fatalf("finalize: unexpected error: %v", err)
	}
	want := []catalogKey{
		{Filter, PhaseMailFrom, true},
		{Report, PhaseLinkDisconnect, true},
	}
	if len(out) != len(want) {
		t.Fatalf("finalize: got %d keys, want %d: %+v", len(out), len(want), out)
	}
	for i, k := range want {
		if out[i] != k {
			t.Errorf("finalize: out[%d] = %+v, want %+v", i, out[i], k)
		}
	}
}

func TestRegistryNeedExpansionPerDirection(t *testing.T) {
	r := newRegistry()
	if err := r.register(Filter, PhaseMailFrom, true, false, true); err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}
	if err := r.register(Report, PhaseTxMail, false, false, true); err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}
	r.mustRegister(Report, PhaseLinkDisconnect, true, false, false)
	r.mustRegister(Report, PhaseLinkDisconnect, false, false, false)
	r.addNeed(NeedMailFrom)

	if _, err := r.finalize(); err != nil {
		t.Fatalf("finalize: unexpected error: %v", err)
	}
	if !r.storeReportFor(Report, PhaseTxMail, true) {
		t.Errorf("storeReportFor(tx-mail, in) = false, want true (Need expansion for inbound direction)")
	}
	if !r.storeReportFor(Report, PhaseTxMail, false) {
		t.Errorf("storeReportFor(tx-mail, out) = false, want true (Need expansion for outbound direction)")
	}
}

func TestRegistryIdentifyPromotion(t *testing.T) {
	r := newRegistry()
	if err := r.register(Report, PhaseLinkIdentify, true, true, true); err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}
	if err := r.register(Filter, PhaseHelo, true, false, true); err != nil {
		t.Fatalf("register: unexpected error: %v", err)
	}
	r.mustRegister(Report, PhaseLinkDisconnect, true, false, false)

	if _, err := r.finalize(); err != nil {
		t.Fatalf("finalize: unexpected error: %v", err)
	}
	if !r.storeReportFor(Filter, PhaseHelo, true) {
		t.Errorf("storeReportFor(helo, in) = false, want true (identify promotion)")
	}
}
