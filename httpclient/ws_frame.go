package httpclient

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
)

// WebSocket opcodes (RFC 6455).
const (
	OpcodeText   byte = 0x1
	OpcodeBinary byte = 0x2
	OpcodeClose  byte = 0x8
	OpcodePing   byte = 0x9
	OpcodePong   byte = 0xA
)

// websocketGUID is the fixed GUID appended to the client key when deriving
// the Sec-WebSocket-Accept value (RFC 6455 section 1.3).
const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// maxFramePayload bounds a single inbound frame.
const maxFramePayload = 1 << 20

// Frame is one WebSocket frame. Client-sent frames are masked on encode;
// server frames arrive unmasked.
type Frame struct {
	Fin     bool
	Opcode  byte
	Payload []byte
}

// NewTextFrame builds a final text frame with the given payload.
func NewTextFrame(payload []byte) *Frame {
	return &Frame{Fin: true, Opcode: OpcodeText, Payload: payload}
}

// EncodeFrame serializes a frame in client form: FIN/opcode, masked length,
// a random mask key, and the masked payload.
//
// Parameters:
//   - f: The frame to serialize
//
// Returns:
//   - The wire form of the frame
func EncodeFrame(f *Frame) []byte {
	b0 := f.Opcode & 0x0F
	if f.Fin {
		b0 |= 0x80
	}

	length := len(f.Payload)
	var header []byte
	switch {
	case length <= 125:
		header = []byte{b0, 0x80 | byte(length)}
	case length <= 0xFFFF:
		header = make([]byte, 4)
		header[0] = b0
		header[1] = 0x80 | 126
		binary.BigEndian.PutUint16(header[2:], uint16(length))
	default:
		header = make([]byte, 10)
		header[0] = b0
		header[1] = 0x80 | 127
		binary.BigEndian.PutUint64(header[2:], uint64(length))
	}

	var mask [4]byte
	_, _ = rand.Read(mask[:])

	buf := make([]byte, len(header)+4+length)
	copy(buf, header)
	copy(buf[len(header):], mask[:])
	for i, b := range f.Payload {
		buf[len(header)+4+i] = b ^ mask[i%4]
	}

	return buf
}

// DecodeFrame parses one complete frame from its wire form, unmasking when
// needed.
//
// Parameters:
//   - raw: Exactly one framed message, as delimited by FrameSplitter
//
// Returns:
//   - The parsed frame, or an error for truncated or oversized input
func DecodeFrame(raw []byte) (*Frame, error) {
	total, headerLen, payloadLen, masked, ok := frameLayout(raw)
	if !ok || total > len(raw) {
		return nil, errors.New("truncated websocket frame")
	}
	if payloadLen > maxFramePayload {
		return nil, fmt.Errorf("frame payload %d exceeds limit", payloadLen)
	}

	payload := make([]byte, payloadLen)
	if masked {
		var mask [4]byte
		copy(mask[:], raw[headerLen-4:headerLen])
		for i := 0; i < payloadLen; i++ {
			payload[i] = raw[headerLen+i] ^ mask[i%4]
		}
	} else {
		copy(payload, raw[headerLen:headerLen+payloadLen])
	}

	return &Frame{
		Fin:     raw[0]&0x80 != 0,
		Opcode:  raw[0] & 0x0F,
		Payload: payload,
	}, nil
}

// frameLayout computes the total frame size and header length from a
// possibly partial buffer.
func frameLayout(raw []byte) (total, headerLen, payloadLen int, masked, ok bool) {
	if len(raw) < 2 {
		return 0, 0, 0, false, false
	}

	masked = raw[1]&0x80 != 0
	length := int(raw[1] & 0x7F)
	headerLen = 2

	switch length {
	case 126:
		if len(raw) < headerLen+2 {
			return 0, 0, 0, false, false
		}
		length = int(binary.BigEndian.Uint16(raw[headerLen:]))
		headerLen += 2
	case 127:
		if len(raw) < headerLen+8 {
			return 0, 0, 0, false, false
		}
		length = int(binary.BigEndian.Uint64(raw[headerLen:]))
		headerLen += 8
	}

	if masked {
		headerLen += 4
		if len(raw) < headerLen {
			return 0, 0, 0, false, false
		}
	}

	return headerLen + length, headerLen, length, masked, true
}

// FrameSplitter frames WebSocket messages: one frame per message, using the
// header's payload length.
type FrameSplitter struct{}

// Split implements netio.MessageSplitter.
func (FrameSplitter) Split(buffered []byte) (int, bool) {
	total, _, _, _, ok := frameLayout(buffered)
	if !ok || total > len(buffered) {
		return 0, false
	}

	return total, true
}

// newWebSocketKey generates a random Sec-WebSocket-Key value.
func newWebSocketKey() string {
	var key [16]byte
	_, _ = rand.Read(key[:])
	return base64.StdEncoding.EncodeToString(key[:])
}

// acceptValueFor derives the Sec-WebSocket-Accept value the server must
// return for a given key.
func acceptValueFor(key string) string {
	h := sha1.New()
	h.Write([]byte(key + websocketGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
