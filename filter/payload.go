package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// ConnectPayload is the parsed payload for the filter connect phase.
type ConnectPayload struct {
	Hostname string
	Addr     Addr
}

// LinkConnectPayload is the parsed payload for report link-connect.
type LinkConnectPayload struct {
	RDNS   string
	FCrDNS Status
	Src    Addr
	Dst    Addr
}

// LinkAuthPayload is the parsed payload for report link-auth.
type LinkAuthPayload struct {
	Username string
	Result   AuthResult
}

// TxAddrPayload is the parsed payload shared by tx-mail and tx-rcpt.
type TxAddrPayload struct {
	MsgID   uint32
	Address string
	Status  Status
}

// TxEnvelopePayload is the parsed payload for report tx-envelope.
type TxEnvelopePayload struct {
	MsgID uint32
	EvpID uint64
}

// TxDataPayload is the parsed payload for report tx-data.
type TxDataPayload struct {
	MsgID  uint32
	Status Status
}

// TxCommitPayload is the parsed payload for report tx-commit.
type TxCommitPayload struct {
	MsgID uint32
	Size  uint32
}

// splitOnce splits s at the first '|', failing with errTag if absent.
func splitOnce(s, errTag, linedup string) (string, string, error) {
	idx := strings.IndexByte(s, '|')
	if idx < 0 {
		return "", "", fmt.Errorf("%w: missing %s: %q", ErrMalformedLine, errTag, linedup)
	}
	return s[:idx], s[idx+1:], nil
}

func parseMsgID(s, linedup string) (uint32, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid msgid: %q", ErrMalformedLine, linedup)
	}
	return uint32(v), nil
}

func parseEvpID(s, linedup string) (uint64, error) {
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid evpid: %q", ErrMalformedLine, linedup)
	}
	return v, nil
}

func parseConnectPayload(payload, linedup string) (ConnectPayload, error) {
	hostname, rest, err := splitOnce(payload, "address", linedup)
	if err != nil {
		return ConnectPayload{}, err
	}
	addr, err := parseAddr(rest, false)
	if err != nil {
		return ConnectPayload{}, err
	}
	return ConnectPayload{Hostname: hostname, Addr: addr}, nil
}

func parseLinkConnectPayload(payload, linedup string) (LinkConnectPayload, error) {
	rdns, rest, err := splitOnce(payload, "fcrdns", linedup)
	if err != nil {
		return LinkConnectPayload{}, err
	}
	fcrdnsStr, rest, err := splitOnce(rest, "src", linedup)
	if err != nil {
		return LinkConnectPayload{}, err
	}
	fcrdns, err := parseFCrDNS(fcrdnsStr)
	if err != nil {
		return LinkConnectPayload{}, err
	}
	srcStr, dstStr, err := splitOnce(rest, "dst", linedup)
	if err != nil {
		return LinkConnectPayload{}, err
	}
	src, err := parseAddr(srcStr, true)
	if err != nil {
		return LinkConnectPayload{}, err
	}
	dst, err := parseAddr(dstStr, true)
	if err != nil {
		return LinkConnectPayload{}, err
	}
	return LinkConnectPayload{RDNS: rdns, FCrDNS: fcrdns, Src: src, Dst: dst}, nil
}

func parseLinkAuthPayload(payload, linedup string) (LinkAuthPayload, error) {
	username, resultStr, err := splitOnce(payload, "username", linedup)
	if err != nil {
		return LinkAuthPayload{}, err
	}
	result, err := parseAuthResult(resultStr)
	if err != nil {
		return LinkAuthPayload{}, err
	}
	return LinkAuthPayload{Username: username, Result: result}, nil
}

func parseTxBeginPayload(payload, linedup string) (uint32, error) {
	return parseMsgID(payload, linedup)
}

// parseTxAddrPayload parses the shared tx-mail/tx-rcpt shape. Field order
// swapped between protocol versions: before 0.6, status precedes the
// address; from 0.6 on, the address precedes status.
func parseTxAddrPayload(payload, linedup string, versionMajor, versionMinor int) (TxAddrPayload, error) {
	msgidStr, rest, err := splitOnce(payload, "address", linedup)
	if err != nil {
		return TxAddrPayload{}, err
	}
	msgid, err := parseMsgID(msgidStr, linedup)
	if err != nil {
		return TxAddrPayload{}, err
	}
	first, second, err := splitOnce(rest, "status", linedup)
	if err != nil {
		return TxAddrPayload{}, err
	}
	var address, statusStr string
	if versionMajor == 0 && versionMinor < 6 {
		statusStr, address = first, second
	} else {
		address, statusStr = first, second
	}
	status, err := parseStatus(statusStr)
	if err != nil {
		return TxAddrPayload{}, err
	}
	return TxAddrPayload{MsgID: msgid, Address: address, Status: status}, nil
}

func parseTxEnvelopePayload(payload, linedup string) (TxEnvelopePayload, error) {
	msgidStr, evpidStr, err := splitOnce(payload, "evpid", linedup)
	if err != nil {
		return TxEnvelopePayload{}, err
	}
	msgid, err := parseMsgID(msgidStr, linedup)
	if err != nil {
		return TxEnvelopePayload{}, err
	}
	evpid, err := parseEvpID(evpidStr, linedup)
	if err != nil {
		return TxEnvelopePayload{}, err
	}
	return TxEnvelopePayload{MsgID: msgid, EvpID: evpid}, nil
}

func parseTxDataPayload(payload, linedup string) (TxDataPayload, error) {
	msgidStr, statusStr, err := splitOnce(payload, "status", linedup)
	if err != nil {
		return TxDataPayload{}, err
	}
	msgid, err := parseMsgID(msgidStr, linedup)
	if err != nil {
		return TxDataPayload{}, err
	}
	status, err := parseStatus(statusStr)
	if err != nil {
		return TxDataPayload{}, err
	}
	return TxDataPayload{MsgID: msgid, Status: status}, nil
}

func parseTxCommitPayload(payload, linedup string) (TxCommitPayload, error) {
	msgidStr, sizeStr, err := splitOnce(payload, "size", linedup)
	if err != nil {
		return TxCommitPayload{}, err
	}
	msgid, err := parseMsgID(msgidStr, linedup)
	if err != nil {
		return TxCommitPayload{}, err
	}
	size, err := strconv.ParseUint(sizeStr, 10, 32)
	if err != nil {
		return TxCommitPayload{}, fmt.Errorf("%w: invalid msg size: %q", ErrMalformedLine, linedup)
	}
	return TxCommitPayload{MsgID: msgid, Size: uint32(size)}, nil
}

func parseTxRollbackPayload(payload, linedup string) (uint32, error) {
	return parseMsgID(payload, linedup)
}
