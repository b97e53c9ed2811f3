package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cyberinferno/netengine/dnscache"
	"github.com/cyberinferno/netengine/eventpool"
	"github.com/cyberinferno/netengine/logger"
	"github.com/cyberinferno/netengine/netio"
	"github.com/cyberinferno/netengine/tcpsocket"
)

// defaultResolver caches host resolution across clients in this process.
var defaultResolver = dnscache.NewMemoryResolver(dnscache.DefaultTTL, nil)

// HttpClient performs synchronous HTTP exchanges over one engine-managed
// connection. Construction resolves and connects; Send then performs
// write-one-request, read-one-response exchanges. Cookies from responses
// carry over to subsequent requests. A WebSocket upgrade permanently
// converts the connection.
type HttpClient struct {
	socket   *tcpsocket.TCPSocket
	request  *Request
	params   map[string]string
	rawURL   string
	upgraded atomic.Bool
	log      logger.Logger
}

// NewHttpClient creates a client and connects it to the URL's endpoint. The
// scheme selects plaintext (http, ws) or TLS (https, wss) and the default
// port (80 or 443). Host resolution goes through the process-wide memory
// resolver.
//
// Parameters:
//   - rawURL: Target URL; only scheme, host, and port are used here
//   - timeout: Connect and synchronous-read bound
//   - pool: Shared worker pool for event dispatch
//   - log: Logger; nil for no logging
//
// Returns:
//   - A connected client, or an error on URL, resolution, or connect failure
func NewHttpClient(rawURL string, timeout time.Duration, pool *eventpool.Pool, log logger.Logger) (*HttpClient, error) {
	return NewHttpClientWithResolver(rawURL, timeout, pool, log, defaultResolver)
}

// NewHttpClientWithResolver is NewHttpClient with an explicit resolver, e.g.
// a Redis-backed one shared by a process group.
//
// Parameters:
//   - rawURL: Target URL
//   - timeout: Connect and synchronous-read bound
//   - pool: Shared worker pool for event dispatch
//   - log: Logger; nil for no logging
//   - resolver: Host resolver; nil uses the process-wide memory resolver
//
// Returns:
//   - A connected client, or an error on URL, resolution, or connect failure
func NewHttpClientWithResolver(rawURL string, timeout time.Duration, pool *eventpool.Pool, log logger.Logger, resolver dnscache.Resolver) (*HttpClient, error) {
	if resolver == nil {
		resolver = defaultResolver
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", rawURL, err)
	}

	secure := u.Scheme == "https" || u.Scheme == "wss"
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("url %q has no host", rawURL)
	}

	port := 80
	if secure {
		port = 443
	}
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("url %q has invalid port: %w", rawURL, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	addr, err := resolver.Lookup(ctx, host)
	if err != nil {
		return nil, err
	}

	socket := tcpsocket.NewTCPSocket(addr, port, timeout, pool, log)
	socket.Context().FilterChain().Add(ClientFilter{})
	socket.Context().SetMessageSplitter(ResponseSplitter{})

	if secure {
		socket.Context().SetSSLManager(tcpsocket.NewTLSManager(&tls.Config{ServerName: host}))
	}

	if err := socket.SyncStart(); err != nil {
		return nil, err
	}

	return &HttpClient{
		socket:  socket,
		request: NewRequest(host),
		params:  make(map[string]string),
		rawURL:  rawURL,
		log:     socket.Context().Logger(),
	}, nil
}

// SetMethod sets the HTTP method of the next exchange.
//
// Parameters:
//   - method: e.g. "GET", "POST"
//
// Returns:
//   - The client, for chaining
func (c *HttpClient) SetMethod(method string) *HttpClient {
	c.request.Method = method
	return c
}

// PutHeader sets a request header carried on subsequent exchanges.
//
// Parameters:
//   - name: Header name
//   - value: Header value
//
// Returns:
//   - The client, for chaining
func (c *HttpClient) PutHeader(name, value string) *HttpClient {
	c.request.Header.Set(name, value)
	return c
}

// PutParameter sets a request parameter for the next exchange: appended to
// the query string for bodyless methods, form-encoded into the body for
// POST.
//
// Parameters:
//   - name: Parameter name
//   - value: Parameter value
//
// Returns:
//   - The client, for chaining
func (c *HttpClient) PutParameter(name, value string) *HttpClient {
	c.params[name] = value
	return c
}

// SetData sets the raw body of the next exchange.
//
// Parameters:
//   - data: Body bytes
//
// Returns:
//   - The client, for chaining
func (c *HttpClient) SetData(data []byte) *HttpClient {
	c.request.Body = data
	return c
}

// Cookies returns the cookies that will accompany the next request,
// including ones collected from earlier responses.
func (c *HttpClient) Cookies() []*http.Cookie {
	return c.request.Cookies
}

// Send performs one synchronous exchange against the given path.
//
// Parameters:
//   - path: Request path; empty means "/"
//
// Returns:
//   - The parsed response
//   - A *netio.SendError on write failure or after a WebSocket upgrade, or a
//     *netio.ReadError on read timeout, session error, or parse failure
func (c *HttpClient) Send(path string) (*Response, error) {
	if c.upgraded.Load() {
		return nil, &netio.SendError{Reason: "connection has been upgraded to WebSocket"}
	}

	c.buildRequest(path)

	if err := c.socket.Session().Send(c.request); err != nil {
		return nil, err
	}

	message, err := c.socket.SynchronousRead()
	if err != nil {
		return nil, err
	}

	response, ok := message.(*Response)
	if !ok {
		return nil, &netio.ReadError{Reason: fmt.Sprintf("unexpected message type %T", message)}
	}

	c.finished(response)
	return response, nil
}

// buildRequest folds the per-exchange parameters and body into the request.
func (c *HttpClient) buildRequest(path string) {
	if path == "" {
		path = "/"
	}
	c.request.Path = path

	query := buildQueryString(c.params)
	if query == "" {
		return
	}

	if c.request.Method == http.MethodPost && len(c.request.Body) == 0 {
		c.request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		c.request.Body = []byte(query)
		return
	}

	sep := "?"
	if containsQuery(path) {
		sep = "&"
	}
	c.request.Path = path + sep + query
}

// finished carries response cookies over and clears per-exchange state.
func (c *HttpClient) finished(response *Response) {
	c.request.Cookies = append(c.request.Cookies, response.Cookies...)
	c.request.Body = nil
	c.request.Header.Del("Content-Type")
	clear(c.params)
}

func containsQuery(path string) bool {
	for i := 0; i < len(path); i++ {
		if path[i] == '?' {
			return true
		}
	}

	return false
}

// WebSocket upgrades the connection to WebSocket and blocks the calling
// goroutine until the session closes. The upgrade is one-directional: the
// handler and splitter are swapped and the session kind becomes WebSocket
// for the rest of its life; Send returns a SendError afterwards.
//
// Parameters:
//   - path: Upgrade request path
//   - router: Receiver for open/message/close callbacks
//
// Returns:
//   - A *netio.ReadError if the server rejects the upgrade, or the error of
//     the upgrade exchange itself
func (c *HttpClient) WebSocket(path string, router WebSocketRouter) error {
	if c.upgraded.Load() {
		return &netio.SendError{Reason: "connection has been upgraded to WebSocket"}
	}

	key := newWebSocketKey()
	c.PutHeader("Connection", "Upgrade").
		PutHeader("Upgrade", "websocket").
		PutHeader("Origin", c.rawURL).
		PutHeader("Sec-WebSocket-Version", "13").
		PutHeader("Sec-WebSocket-Key", key)

	response, err := c.Send(path)
	if err != nil {
		return err
	}

	if response.StatusCode != http.StatusSwitchingProtocols ||
		response.Header.Get("Sec-WebSocket-Accept") != acceptValueFor(key) {
		_ = c.socket.Session().Send(&Frame{Fin: true, Opcode: OpcodeClose})
		return &netio.ReadError{Reason: "websocket upgrade rejected"}
	}

	session := c.socket.Session()
	c.socket.Context().SetHandler(newWebSocketHandler(router))
	c.socket.Context().SetMessageSplitter(FrameSplitter{})
	if err := session.Upgrade(netio.WebSocketSession); err != nil {
		return err
	}
	c.upgraded.Store(true)

	if first := router.OnOpen(session); first != nil {
		if err := session.Send(NewTextFrame(first)); err != nil {
			return err
		}
	}

	// Frames that arrived between the 101 response and the swap are still
	// buffered on the session; deliver them now.
	c.socket.Context().Trigger().FireReceive(session, netio.Inline)

	for c.socket.IsOpen() {
		time.Sleep(time.Millisecond)
	}

	return nil
}

// Close tears the connection down.
func (c *HttpClient) Close() {
	c.socket.Session().Close()
}

// IsConnected reports whether the underlying connection is established.
func (c *HttpClient) IsConnected() bool {
	return c.socket.IsConnected()
}
