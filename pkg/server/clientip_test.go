package server

import (
	"log/slog"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

var discard = slog.New(slog.DiscardHandler)

func TestClientIPUntrustedProxyIgnoresForwarded(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com", nil)
	req.RemoteAddr = "198.51.100.10:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.5")

	got := clientIP(req, newProxyMatcher([]string{"203.0.113.1"}, discard))
	assert.Equal(t, netip.MustParseAddr("198.51.100.10"), got)
}

func TestClientIPTrustedProxyRightMostUntrusted(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com", nil)
	req.RemoteAddr = "203.0.113.10:1234"
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 203.0.113.11, 192.0.2.20")

	got := clientIP(req, newProxyMatcher([]string{"203.0.113.10", "203.0.113.11"}, discard))
	assert.Equal(t, netip.MustParseAddr("192.0.2.20"), got)
}

func TestClientIPAllTrustedUsesLeftmost(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com", nil)
	req.RemoteAddr = "203.0.113.10:1234"
	req.Header.Set("Forwarded", `for=192.0.2.1, for="192.0.2.2:8080";proto=https`)

	got := clientIP(req, newProxyMatcher([]string{"203.0.113.10", "192.0.2.0/24"}, discard))
	assert.Equal(t, netip.MustParseAddr("192.0.2.1"), got)
}

func TestClientIPForwardedIPv6(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com", nil)
	req.RemoteAddr = "[::1]:4321"
	req.Header.Set("Forwarded", `for="[2001:db8::7]:443"`)

	got := clientIP(req, newProxyMatcher([]string{"::1"}, discard))
	assert.Equal(t, netip.MustParseAddr("2001:db8::7"), got)
}

func TestClientIPNoProxies(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com", nil)
	req.RemoteAddr = "192.0.2.33:1"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, netip.MustParseAddr("192.0.2.33"), clientIP(req, nil))

	req.RemoteAddr = "not-an-address"
	assert.False(t, clientIP(req, nil).IsValid())
}

func TestNewProxyMatcher(t *testing.T) {
	assert.Nil(t, newProxyMatcher(nil, discard))
	assert.Nil(t, newProxyMatcher([]string{"", "bogus", "10.0.0.0/99"}, discard))

	m := newProxyMatcher([]string{"10.0.0.0/8", " 192.0.2.1 "}, discard)
	assert.True(t, m.trusted(netip.MustParseAddr("10.20.30.40")))
	assert.True(t, m.trusted(netip.MustParseAddr("::ffff:192.0.2.1")))
	assert.False(t, m.trusted(netip.MustParseAddr("192.0.2.2")))
	assert.False(t, m.trusted(netip.Addr{}))
}
