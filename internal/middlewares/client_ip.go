package middlewares

import (
	"net"
	"net/http"
	"strings"
)

// forwardingHeaders are consulted in order; the first non-empty value wins
var forwardingHeaders = []string{"X-Forwarded-For", "X-Real-IP", "CF-Connecting-IP"}

// ForwardedIP returns the requester address reported by proxy headers.
// For X-Forwarded-For only the first entry is used. Returns "" when no header is set.
func ForwardedIP(r *http.Request) string {
	for _, header := range forwardingHeaders {
		value := r.Header.Get(header)
		if value == "" {
			continue
		}
		first, _, _ := strings.Cut(value, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return ""
}

// ClientIP is ForwardedIP with a fallback to the connection's remote address
func ClientIP(r *http.Request) string {
	if ip := ForwardedIP(r); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
