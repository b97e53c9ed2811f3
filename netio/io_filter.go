package netio

import "sync"

// Filter is one decode/encode transform applied around message delivery.
// Decode turns raw inbound data into a message before OnReceive; Encode turns
// an outbound message into raw data before the transport write.
type Filter interface {
	// Decode transforms inbound data one step toward a message.
	//
	// Parameters:
	//   - session: The session the data arrived on
	//   - in: The value produced by the previous filter, or the framed bytes
	//     for the first filter
	//
	// Returns:
	//   - The decoded value, or an error that aborts delivery
	Decode(session *Session, in any) (any, error)

	// Encode transforms an outbound message one step toward raw bytes.
	//
	// Parameters:
	//   - session: The session the message will be written to
	//   - in: The value produced by the previous filter, or the message for
	//     the first filter
	//
	// Returns:
	//   - The encoded value, or an error that aborts the write
	Encode(session *Session, in any) (any, error)
}

// FilterChain is an ordered, mutable sequence of filters. Decode applies the
// filters in order; Encode applies them in reverse order, so the outermost
// decode step is the innermost encode step. A chain is shared by reference
// between a listening context and its accepted children.
type FilterChain struct {
	mu      sync.RWMutex
	filters []Filter
}

// NewFilterChain creates an empty filter chain.
//
// Returns:
//   - A new FilterChain
func NewFilterChain() *FilterChain {
	return &FilterChain{}
}

// Add appends a filter to the end of the chain.
//
// Parameters:
//   - f: The filter to append
func (c *FilterChain) Add(f Filter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = append(c.filters, f)
}

// Len returns the number of filters in the chain.
//
// Returns:
//   - The chain length
func (c *FilterChain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.filters)
}

// Decode runs the chain's decode steps in order.
//
// Parameters:
//   - session: The session the data arrived on
//   - in: The framed inbound bytes
//
// Returns:
//   - The fully decoded message, or the first filter error
func (c *FilterChain) Decode(session *Session, in any) (any, error) {
	c.mu.RLock()
	filters := c.filters
	c.mu.RUnlock()

	var err error
	for _, f := range filters {
		in, err = f.Decode(session, in)
		if err != nil {
			return nil, err
		}
	}

	return in, nil
}

// Encode runs the chain's encode steps in reverse order.
//
// Parameters:
//   - session: The session the message will be written to
//   - in: The outbound message
//
// Returns:
//   - The fully encoded value, or the first filter error
func (c *FilterChain) Encode(session *Session, in any) (any, error) {
	c.mu.RLock()
	filters := c.filters
	c.mu.RUnlock()

	var err error
	for i := len(filters) - 1; i >= 0; i-- {
		in, err = filters[i].Encode(session, in)
		if err != nil {
			return nil, err
		}
	}

	return in, nil
}
