package main

// messageState is the per-message value threaded through Session.Message
// between tx-begin and tx-commit/tx-rollback.
type messageState struct {
	inHeader    bool
	headerAdded bool
}

func newMessageState() any {
	return &messageState{inHeader: true}
}

// filterDataLine appends the configured header once the end of the header
// block is reached, and passes every other line through unchanged.
func filterDataLine(ms *messageState, header, line string) []string {
	if !ms.inHeader {
		return []string{line}
	}
	if line != "" {
		return []string{line}
	}
	ms.inHeader = false
	if ms.headerAdded || header == "" {
		return []string{line}
	}
	ms.headerAdded = true
	return []string{header, line}
}
