package httpclient

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/cyberinferno/netengine/netio"
)

// ClientFilter is the protocol filter of the HTTP client. Before the
// upgrade it encodes *Request values and decodes framed bytes into
// *Response values; once the session kind is WebSocket it works on frames
// instead. Raw []byte passes through the encode path untouched.
type ClientFilter struct{}

// Decode implements netio.Filter.
func (ClientFilter) Decode(session *netio.Session, in any) (any, error) {
	raw, ok := in.([]byte)
	if !ok {
		return in, nil
	}

	if session.Kind() == netio.WebSocketSession {
		return DecodeFrame(raw)
	}

	return ParseResponse(raw)
}

// Encode implements netio.Filter.
func (ClientFilter) Encode(_ *netio.Session, in any) (any, error) {
	switch v := in.(type) {
	case []byte:
		return v, nil
	case *Request:
		return v.Bytes(), nil
	case *Frame:
		return EncodeFrame(v), nil
	default:
		return nil, fmt.Errorf("unsupported outbound message type %T", in)
	}
}

var (
	headerTerminator = []byte("\r\n\r\n")
	chunkTerminator  = []byte("\r\n0\r\n\r\n")
)

// ResponseSplitter frames HTTP/1.1 responses: the boundary is the header
// terminator plus the Content-Length body, or the terminating zero chunk for
// chunked transfer encoding.
type ResponseSplitter struct{}

// Split implements netio.MessageSplitter.
func (ResponseSplitter) Split(buffered []byte) (int, bool) {
	headerEnd := bytes.Index(buffered, headerTerminator)
	if headerEnd < 0 {
		return 0, false
	}

	header := buffered[:headerEnd]
	bodyStart := headerEnd + len(headerTerminator)

	if headerValueContains(header, "Transfer-Encoding", "chunked") {
		end := bytes.Index(buffered[bodyStart:], chunkTerminator)
		if end < 0 {
			return 0, false
		}

		return bodyStart + end + len(chunkTerminator), true
	}

	length := contentLength(header)
	if bodyStart+length > len(buffered) {
		return 0, false
	}

	return bodyStart + length, true
}

// contentLength extracts the Content-Length value from raw headers, 0 when
// absent or malformed.
func contentLength(header []byte) int {
	value, ok := headerValue(header, "Content-Length")
	if !ok {
		return 0
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0
	}

	return n
}

// headerValue scans raw header lines for the named header,
// case-insensitively.
func headerValue(header []byte, name string) (string, bool) {
	for _, line := range bytes.Split(header, []byte("\r\n")) {
		idx := bytes.IndexByte(line, ':')
		if idx < 0 {
			continue
		}

		if bytes.EqualFold(bytes.TrimSpace(line[:idx]), []byte(name)) {
			return string(bytes.TrimSpace(line[idx+1:])), true
		}
	}

	return "", false
}

func headerValueContains(header []byte, name, token string) bool {
	value, ok := headerValue(header, name)
	if !ok {
		return false
	}

	return bytes.Contains(bytes.ToLower([]byte(value)), bytes.ToLower([]byte(token)))
}
