package filter

import "testing"

func TestNeedHas(t *testing.T) {
	n := NeedMailFrom | NeedRcptTo
	if !n.has(NeedMailFrom) {
		t.Errorf("has(NeedMailFrom) = false, want true")
	}
	if !n.has(NeedRcptTo) {
		t.Errorf("has(NeedRcptTo) = false, want true")
	}
	if n.has(NeedSrc) {
		t.Errorf("has(NeedSrc) = true, want false")
	}
}
