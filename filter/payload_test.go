package filter

import (
	"errors"
	"testing"
)

func TestParseTxAddrPayloadVersionOrdering(t *testing.T) {
	tests := []struct {
		name         string
		payload      string
		versionMajor int
		versionMinor int
		wantAddress  string
		wantStatus   Status
	}{
		{
			name:         "legacy order (status before address)",
			payload:      "00000001|ok|<a@b>",
			versionMajor: 0,
			versionMinor: 4,
			wantAddress:  "<a@b>",
			wantStatus:   StatusOK,
		},
		{
			name:         "current order (address before status)",
			payload:      "00000001|<a@b>|ok",
			versionMajor: 0,
			versionMinor: 7,
			wantAddress:  "<a@b>",
			wantStatus:   StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTxAddrPayload(tt.payload, tt.payload, tt.versionMajor, tt.versionMinor)
			if err != nil {
				t.Fatalf("parseTxAddrPayload: unexpected error: %v", err)
			}
			if got.MsgID != 1 || got.Address != tt.wantAddress || got.Status != tt.wantStatus {
				t.Errorf("got %+v, want msgid=1 address=%q status=%v", got, tt.wantAddress, tt.wantStatus)
			}
		})
	}
}

func TestParseMsgIDOverflow(t *testing.T) {
	_, err := parseMsgID("100000000", "100000000")
	if !errors.Is(err, ErrMalformedLine) {
		t.Fatalf("parseMsgID: err = %v, want ErrMalformedLine", err)
	}
}

func TestParseTxCommitPayload(t *testing.T) {
	got, err := parseTxCommitPayload("00000001|4096", "00000001|4096")
	if err != nil {
		t.Fatalf("parseTxCommitPayload: unexpected error: %v", err)
	}
	if got.MsgID != 1 || got.Size != 4096 {
		t.Errorf("got %+v, want msgid=1 size=4096", got)
	}
}

func TestParseConnectPayload(t *testing.T) {
	got, err := parseConnectPayload("mail.example.com|192.0.2.1", "")
	if err != nil {
		t.Fatalf("parseConnectPayload: unexpected error: %v", err)
	}
	want := ConnectPayload{Hostname: "mail.example.com", Addr: Addr{Family: FamilyInet, IP: "192.0.2.1"}}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestParseLinkConnectPayload(t *testing.T) {
	got, err := parseLinkConnectPayload("mail.example.com|pass|[2001:db8::1]:587|[2001:db8::2]:25", "")
	if err != nil {
		t.Fatalf("parseLinkConnectPayload: unexpected error: %v", err)
	}
	if got.RDNS != "mail.example.com" || got.FCrDNS != StatusOK {
		t.Errorf("got rdns=%q fcrdns=%v", got.RDNS, got.FCrDNS)
	}
	if got.Src.IP != "2001:db8::1" || got.Src.Port != 587 {
		t.Errorf("got src=%+v", got.Src)
	}
	if got.Dst.IP != "2001:db8::2" || got.Dst.Port != 25 {
		t.Errorf("got dst=%+v", got.Dst)
	}
}

func TestParseLinkAuthPayload(t *testing.T) {
	got, err := parseLinkAuthPayload("alice|fail", "")
	if err != nil {
		t.Fatalf("parseLinkAuthPayload: unexpected error: %v", err)
	}
	if got.Username != "alice" || got.Result != AuthFail {
		t.Errorf("got %+v", got)
	}
}
