package httpclient

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestBytes(t *testing.T) {
	t.Run("serializes the request line and headers", func(t *testing.T) {
		r := NewRequest("example.com")
		raw := string(r.Bytes())

		assert.True(t, strings.HasPrefix(raw, "GET / HTTP/1.1\r\n"))
		assert.Contains(t, raw, "Host: example.com\r\n")
		assert.Contains(t, raw, "Accept: */*\r\n")
		assert.Contains(t, raw, "Connection: keep-alive\r\n")
		assert.True(t, strings.HasSuffix(raw, "\r\n\r\n"))
	})

	t.Run("empty path defaults to root", func(t *testing.T) {
		r := NewRequest("example.com")
		r.Path = ""
		assert.True(t, strings.HasPrefix(string(r.Bytes()), "GET / HTTP/1.1\r\n"))
	})

	t.Run("body adds a content length", func(t *testing.T) {
		r := NewRequest("example.com")
		r.Method = http.MethodPost
		r.Path = "/submit"
		r.Body = []byte("payload")

		raw := string(r.Bytes())
		assert.True(t, strings.HasPrefix(raw, "POST /submit HTTP/1.1\r\n"))
		assert.Contains(t, raw, "Content-Length: 7\r\n")
		assert.True(t, strings.HasSuffix(raw, "\r\n\r\npayload"))
	})

	t.Run("cookies collapse into one header line", func(t *testing.T) {
		r := NewRequest("example.com")
		r.Cookies = []*http.Cookie{
			{Name: "session", Value: "abc"},
			{Name: "theme", Value: "dark"},
		}

		assert.Contains(t, string(r.Bytes()), "Cookie: session=abc; theme=dark\r\n")
	})
}

func TestParseResponse(t *testing.T) {
	t.Run("parses status, headers, cookies, and body", func(t *testing.T) {
		raw := []byte("HTTP/1.1 200 OK\r\n" +
			"Content-Type: text/plain\r\n" +
			"Set-Cookie: session=abc\r\n" +
			"Content-Length: 5\r\n" +
			"\r\n" +
			"hello")

		resp, err := ParseResponse(raw)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
		assert.Equal(t, []byte("hello"), resp.Body)
		require.Len(t, resp.Cookies, 1)
		assert.Equal(t, "session", resp.Cookies[0].Name)
		assert.Equal(t, "abc", resp.Cookies[0].Value)
	})

	t.Run("garbage fails to parse", func(t *testing.T) {
		_, err := ParseResponse([]byte("not an http response"))
		assert.Error(t, err)
	})
}

func TestBuildQueryString(t *testing.T) {
	assert.Empty(t, buildQueryString(nil))
	assert.Equal(t, "a=1", buildQueryString(map[string]string{"a": "1"}))
	assert.Equal(t, "a=1&b=two+words", buildQueryString(map[string]string{
		"a": "1",
		"b": "two words",
	}))
}
