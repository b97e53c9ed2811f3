// Package httpclient is a request/response HTTP client built on the engine:
// it installs an HTTP splitter and filter on a client socket, performs
// synchronous exchanges with typed send/read errors, and supports a one-way
// WebSocket upgrade after which the session permanently speaks frames.
package httpclient

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Request is an outbound HTTP request under construction. Headers and
// cookies persist across exchanges on the same client; path, parameters,
// and body are per-exchange.
type Request struct {
	Method  string
	Path    string
	Header  http.Header
	Cookies []*http.Cookie
	Body    []byte
}

// NewRequest creates a GET request with the client's default headers.
//
// Parameters:
//   - host: Value for the Host header
//
// Returns:
//   - A new Request
func NewRequest(host string) *Request {
	header := make(http.Header)
	header.Set("Host", host)
	header.Set("Accept", "*/*")
	header.Set("User-Agent", "netengine-httpclient")
	header.Set("Connection", "keep-alive")

	return &Request{
		Method: http.MethodGet,
		Path:   "/",
		Header: header,
	}
}

// Bytes serializes the request into HTTP/1.1 wire form.
//
// Returns:
//   - The serialized request
func (r *Request) Bytes() []byte {
	var buf bytes.Buffer

	path := r.Path
	if path == "" {
		path = "/"
	}

	fmt.Fprintf(&buf, "%s %s HTTP/1.1\r\n", r.Method, path)

	names := make([]string, 0, len(r.Header))
	for name := range r.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, value := range r.Header[name] {
			fmt.Fprintf(&buf, "%s: %s\r\n", name, value)
		}
	}

	if len(r.Cookies) > 0 {
		pairs := make([]string, 0, len(r.Cookies))
		for _, c := range r.Cookies {
			pairs = append(pairs, c.Name+"="+c.Value)
		}
		fmt.Fprintf(&buf, "Cookie: %s\r\n", strings.Join(pairs, "; "))
	}

	if len(r.Body) > 0 {
		fmt.Fprintf(&buf, "Content-Length: %d\r\n", len(r.Body))
	}

	buf.WriteString("\r\n")
	buf.Write(r.Body)
	return buf.Bytes()
}

// Response is one parsed HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Cookies    []*http.Cookie
	Body       []byte
}

// ParseResponse parses one complete serialized HTTP response.
//
// Parameters:
//   - raw: The framed response bytes, exactly one message
//
// Returns:
//   - The parsed Response, or a parse error
func ParseResponse(raw []byte) (*Response, error) {
	parsed, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(raw)), nil)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	defer parsed.Body.Close()

	body, err := io.ReadAll(parsed.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: parsed.StatusCode,
		Status:     parsed.Status,
		Header:     parsed.Header,
		Cookies:    parsed.Cookies(),
		Body:       body,
	}, nil
}

// buildQueryString converts parameters into an encoded query string.
func buildQueryString(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}

	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}

	return values.Encode()
}
