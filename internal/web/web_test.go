package web

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtocol(t *testing.T) {
	rt := NewRouter("")

	plain := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	assert.Equal(t, "http", rt.Protocol(plain))

	secure := httptest.NewRequest(http.MethodGet, "https://example.com/", nil)
	secure.TLS = &tls.ConnectionState{}
	assert.Equal(t, "https", rt.Protocol(secure))

	forwarded := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	forwarded.Header.Set("X-Forwarded-Proto", "HTTPS")
	assert.Equal(t, "https", rt.Protocol(forwarded))
}

func TestBaseURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com:8080/page", nil)

	tests := []struct {
		name       string
		configured string
		expected   string
	}{
		{name: "derived from request", configured: "", expected: "http://example.com:8080"},
		{name: "configured", configured: "https://site.example.org/blog", expected: "https://site.example.org/blog"},
		{name: "configured trailing slash", configured: "https://site.example.org/blog/", expected: "https://site.example.org/blog"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewRouter(tt.configured).BaseURL(req))
		})
	}
}

func TestInstallPath(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)

	assert.Equal(t, "", NewRouter("").InstallPath(req))
	assert.Equal(t, "blog", NewRouter("https://example.com/blog/").InstallPath(req))
	assert.Equal(t, "sites/blog", NewRouter("https://example.com/sites/blog").InstallPath(req))
}

func TestURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	rt := NewRouter("https://example.com/blog")

	assert.Equal(t, "https://example.com/blog/about", rt.URL(req, "/about"))
	assert.Equal(t, "https://example.com/blog/about", rt.URL(req, "about"))
}
