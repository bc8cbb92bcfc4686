package filter

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Family identifies the address family of a parsed socket address.
type Family int

const (
	FamilyUnspec Family = iota
	FamilyInet
	FamilyInet6
	FamilyUnix
)

func (f Family) String() string {
	switch f {
	case FamilyInet:
		return "inet"
	case FamilyInet6:
		return "inet6"
	case FamilyUnix:
		return "unix"
	default:
		return "unspec"
	}
}

// Addr is a socket address as carried on the wire: a bracketed IPv6
// literal optionally followed by ":port", a "unix:/path" socket path, or
// a dotted IPv4 address optionally followed by ":port".
type Addr struct {
	Family Family
	IP     string // dotted/colon textual address; empty for FamilyUnix
	Port   uint16 // 0 if no port was present
	Path   string // full "unix:/path" text; only set for FamilyUnix
}

// String reformats the address in its canonical wire form.
func (a Addr) String() string {
	switch a.Family {
	case FamilyUnix:
		return a.Path
	case FamilyInet6:
		if a.Port != 0 {
			return fmt.Sprintf("[%s]:%d", a.IP, a.Port)
		}
		return fmt.Sprintf("[%s]", a.IP)
	case FamilyInet:
		if a.Port != 0 {
			return fmt.Sprintf("%s:%d", a.IP, a.Port)
		}
		return a.IP
	default:
		return ""
	}
}

// parseAddr parses one address field. hasPort indicates whether the field
// is expected to carry a trailing ":port" (link-connect's src/dst do;
// connect's bare address does not).
func parseAddr(field string, hasPort bool) (Addr, error) {
	switch {
	case strings.HasPrefix(field, "["):
		return parseInet6Addr(field, hasPort)
	case strings.HasPrefix(strings.ToLower(field), "unix:"):
		return Addr{Family: FamilyUnix, Path: field}, nil
	default:
		return parseInet4Addr(field, hasPort)
	}
}

func parseInet6Addr(field string, hasPort bool) (Addr, error) {
	var ip, portStr string
	if hasPort {
		idx := strings.LastIndex(field, ":")
		if idx < 1 || field[idx-1] != ']' {
			return Addr{}, fmt.Errorf("%w: invalid address: %q", ErrMalformedLine, field)
		}
		ip = field[1 : idx-1]
		portStr = field[idx+1:]
	} else {
		if !strings.HasSuffix(field, "]") {
			return Addr{}, fmt.Errorf("%w: invalid address: %q", ErrMalformedLine, field)
		}
		ip = field[1 : len(field)-1]
	}
	addr := Addr{Family: FamilyInet6, IP: ip}
	if hasPort {
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return Addr{}, fmt.Errorf("%w: invalid port: %q", ErrMalformedLine, field)
		}
		addr.Port = uint16(port)
	}
	return addr, nil
}

func parseInet4Addr(field string, hasPort bool) (Addr, error) {
	ip := field
	var portStr string
	if hasPort {
		idx := strings.LastIndex(field, ":")
		if idx < 0 {
			return Addr{}, fmt.Errorf("%w: invalid address: %q", ErrMalformedLine, field)
		}
		ip = field[:idx]
		portStr = field[idx+1:]
	}
	if parsed := net.ParseIP(ip); parsed == nil || parsed.To4() == nil {
		return Addr{}, fmt.Errorf("%w: invalid address: %q", ErrMalformedLine, field)
	}
	addr := Addr{Family: FamilyInet, IP: ip}
	if hasPort {
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return Addr{}, fmt.Errorf("%w: invalid port: %q", ErrMalformedLine, field)
		}
		addr.Port = uint16(port)
	}
	return addr, nil
}
