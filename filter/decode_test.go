package filter

import (
	"errors"
	"testing"
	"time"
)

func TestParseLineFilterMailFrom(t *testing.T) {
	line := "filter|0.7|1700000000.000000000|smtp-in|mail-from|0000000000000001|0000000000000002|ok|<a@b>"
	ev, cfg, err := parseLine(line, line)
	if err != nil {
		t.Fatalf("parseLine: unexpected error: %v", err)
	}
	if cfg != nil {
		t.Fatalf("parseLine: expected event, got config line")
	}
	if ev.kind != Filter {
		t.Errorf("kind = %v, want Filter", ev.kind)
	}
	if ev.versionMajor != 0 || ev.versionMinor != 7 {
		t.Errorf("version = %d.%d, want 0.7", ev.versionMajor, ev.versionMinor)
	}
	if !ev.incoming {
		t.Errorf("incoming = false, want true")
	}
	if ev.phase != PhaseMailFrom {
		t.Errorf("phase = %v, want PhaseMailFrom", ev.phase)
	}
	if ev.reqid != 1 {
		t.Errorf("reqid = %d, want 1", ev.reqid)
	}
	if !ev.hasToken || ev.token != 2 {
		t.Errorf("token = %d (hasToken=%v), want 2 (true)", ev.token, ev.hasToken)
	}
	if ev.payload != "ok|<a@b>" {
		t.Errorf("payload = %q, want %q", ev.payload, "ok|<a@b>")
	}
}

func TestParseLineReportNoPayload(t *testing.T) {
	line := "report|0.7|1700000000.000000000|smtp-in|link-disconnect|0000000000000001"
	ev, cfg, err := parseLine(line, line)
	if err != nil {
		t.Fatalf("parseLine: unexpected error: %v", err)
	}
	if cfg != nil {
		t.Fatalf("parseLine: expected event, got config line")
	}
	if ev.kind != Report {
		t.Errorf("kind = %v, want Report", ev.kind)
	}
	if ev.phase != PhaseLinkDisconnect {
		t.Errorf("phase = %v, want PhaseLinkDisconnect", ev.phase)
	}
	if ev.payload != "" {
		t.Errorf("payload = %q, want empty", ev.payload)
	}
}

func TestParseLineConfig(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		wantReady bool
		wantKey   string
		wantValue string
	}{
		{"ready", "config|ready", true, "", ""},
		{"key value", "config|smtp-session-timeout|300", false, "smtp-session-timeout", "300"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, cfg, err := parseLine(tt.line, tt.line)
			if err != nil {
				t.Fatalf("parseLine: unexpected error: %v", err)
			}
			if cfg == nil {
				t.Fatalf("parseLine: expected config line, got event")
			}
			if cfg.ready != tt.wantReady || cfg.key != tt.wantKey || cfg.value != tt.wantValue {
				t.Errorf("got %+v, want ready=%v key=%q value=%q", cfg, tt.wantReady, tt.wantKey, tt.wantValue)
			}
		})
	}
}

func TestParseLineUnsupportedVersion(t *testing.T) {
	line := "filter|1.0|1700000000.000000000|smtp-in|mail-from|0000000000000001|0000000000000002|ok|<a@b>"
	_, _, err := parseLine(line, line)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("parseLine: err = %v, want ErrUnsupportedVersion", err)
	}
}

func TestParseLineInvalidDirection(t *testing.T) {
	line := "report|0.7|1700000000.000000000|smtp-foo|link-disconnect|0000000000000001"
	_, _, err := parseLine(line, line)
	if !errors.Is(err, ErrMalformedLine) {
		t.Fatalf("parseLine: err = %v, want ErrMalformedLine", err)
	}
}

func TestParseLineMissingFields(t *testing.T) {
	tests := []string{
		"filter",
		"filter|0.7",
		"filter|0.7|1700000000.000000000",
		"filter|0.7|1700000000.000000000|smtp-in",
		"filter|0.7|1700000000.000000000|smtp-in|mail-from",
		"filter|0.7|1700000000.000000000|smtp-in|mail-from|0000000000000001",
	}
	for _, line := range tests {
		if _, _, err := parseLine(line, line); !errors.Is(err, ErrMalformedLine) {
			t.Errorf("parseLine(%q): err = %v, want ErrMalformedLine", line, err)
		}
	}
}

func TestParseTimestampFractionScaling(t *testing.T) {
	tests := []struct {
		field   string
		wantSec int64
		wantNS  int64
	}{
		{"1700000000.5", 1700000000, 500000000},
		{"1700000000.000000001", 1700000000, 1},
		{"1700000000.123456789", 1700000000, 123456789},
	}
	for _, tt := range tests {
		got, err := parseTimestamp(tt.field, tt.field)
		if err != nil {
			t.Fatalf("parseTimestamp(%q): unexpected error: %v", tt.field, err)
		}
		want := time.Unix(tt.wantSec, tt.wantNS)
		if !got.Equal(want) {
			t.Errorf("parseTimestamp(%q) = %v, want %v", tt.field, got, want)
		}
	}
}

func TestCut(t *testing.T) {
	tests := []struct {
		in         string
		wantBefore string
		wantAfter  string
		wantFound  bool
	}{
		{"a|b|c", "a", "b|c", true},
		{"a", "a", "", false},
		{"", "", "", false},
		{"|a", "", "a", true},
	}
	for _, tt := range tests {
		before, after, found := cut(tt.in)
		if before != tt.wantBefore || after != tt.wantAfter || found != tt.wantFound {
			t.Errorf("cut(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.in, before, after, found, tt.wantBefore, tt.wantAfter, tt.wantFound)
		}
	}
}
