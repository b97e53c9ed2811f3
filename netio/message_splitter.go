package netio

// MessageSplitter decides whether the accumulated inbound bytes contain one
// complete message. The engine never inspects message content, only this
// boundary decision.
type MessageSplitter interface {
	// Split examines the buffered bytes.
	//
	// Parameters:
	//   - buffered: All bytes accumulated so far, starting at a message
	//     boundary
	//
	// Returns:
	//   - The length in bytes of one complete message, and true; or 0 and
	//     false when more bytes are needed
	Split(buffered []byte) (int, bool)
}

// TransferSplitter is the default splitter: any non-empty buffer is one
// complete message. It performs no framing at all, which suits transparent
// byte relays and tests.
type TransferSplitter struct{}

// Split implements MessageSplitter.
func (TransferSplitter) Split(buffered []byte) (int, bool) {
	if len(buffered) == 0 {
		return 0, false
	}

	return len(buffered), true
}
