package filter

import "testing"

func TestLookupCatalog(t *testing.T) {
	if _, ok := lookupCatalog(Filter, PhaseMailFrom, true); !ok {
		t.Errorf("lookupCatalog(filter, mail-from, in) = not found, want found")
	}
	if _, ok := lookupCatalog(Filter, PhaseMailFrom, false); ok {
		t.Errorf("lookupCatalog(filter, mail-from, out) = found, want not found (filter events are inbound-only)")
	}
	if _, ok := lookupCatalog(Report, PhaseLinkAuth, false); ok {
		t.Errorf("lookupCatalog(report, link-auth, out) = found, want not found (link-auth is inbound-only)")
	}
	if _, ok := lookupCatalog(Report, PhaseLinkAuth, true); !ok {
		t.Errorf("lookupCatalog(report, link-auth, in) = not found, want found")
	}
}
