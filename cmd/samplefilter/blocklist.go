package main

import "strings"

// domainOf extracts the domain portion of an address, trimming an
// OpenSMTPD-style enclosing "<...>" if present. It returns false if no "@"
// is found.
func domainOf(address string) (string, bool) {
	addr := strings.Trim(address, "<>")
	_, domain, found := strings.Cut(addr, "@")
	if !found || domain == "" {
		return "", false
	}
	return strings.ToLower(domain), true
}

// blocklist is a case-insensitive set of hostnames and domains rejected at
// HELO/EHLO and at MAIL FROM/RCPT TO.
type blocklist struct {
	set map[string]struct{}
}

func newBlocklist(entries []string) *blocklist {
	b := &blocklist{set: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		b.set[strings.ToLower(e)] = struct{}{}
	}
	return b
}

func (b *blocklist) blocks(hostname string) bool {
	_, blocked := b.set[strings.ToLower(hostname)]
	return blocked
}
