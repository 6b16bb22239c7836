// Package web derives request-dependent site URLs.
package web

import (
	"net/http"
	"net/url"
	"strings"
)

// Router resolves protocol and base URL for incoming requests.
// A configured base URL always wins over values derived from the request.
type Router struct {
	baseURL string
}

// NewRouter creates a Router. baseURL may be empty to derive it per request.
func NewRouter(baseURL string) *Router {
	return &Router{baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Protocol returns "https" for TLS requests or requests forwarded as https,
// "http" otherwise
func (rt *Router) Protocol(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		return "https"
	}
	return "http"
}

// BaseURL returns the site base URL without trailing slash
func (rt *Router) BaseURL(r *http.Request) string {
	if rt.baseURL != "" {
		return rt.baseURL
	}
	return rt.Protocol(r) + "://" + r.Host
}

// InstallPath returns the path the site is installed under, without leading
// slash: "blog" for https://example.com/blog
func (rt *Router) InstallPath(r *http.Request) string {
	u, err := url.Parse(rt.BaseURL(r))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// URL joins path onto the base URL
func (rt *Router) URL(r *http.Request, path string) string {
	return rt.BaseURL(r) + "/" + strings.TrimPrefix(path, "/")
}
