package server

import (
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
)

// proxyMatcher holds the proxies whose forwarding headers are trusted.
type proxyMatcher struct {
	addrs    map[netip.Addr]struct{}
	prefixes []netip.Prefix
}

func newProxyMatcher(entries []string, logger *slog.Logger) *proxyMatcher {
	m := &proxyMatcher{addrs: make(map[netip.Addr]struct{})}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			p, err := netip.ParsePrefix(entry)
			if err != nil {
				logger.Warn("invalid trusted proxy CIDR", "entry", entry, "error", err)
				continue
			}
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(entry)
		if err != nil {
			logger.Warn("invalid trusted proxy IP", "entry", entry, "error", err)
			continue
		}
		m.addrs[a.Unmap()] = struct{}{}
	}
	if len(m.addrs) == 0 && len(m.prefixes) == 0 {
		return nil
	}
	return m
}

func (m *proxyMatcher) trusted(a netip.Addr) bool {
	if m == nil || !a.IsValid() {
		return false
	}
	a = a.Unmap()
	if _, ok := m.addrs[a]; ok {
		return true
	}
	for _, p := range m.prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// clientIP returns the address of the client, walking forwarding headers
// from the right while hops are trusted proxies.
func clientIP(r *http.Request, proxies *proxyMatcher) netip.Addr {
	remote, err := netip.ParseAddrPort(r.RemoteAddr)
	var addr netip.Addr
	if err == nil {
		addr = remote.Addr().Unmap()
	} else if a, err := netip.ParseAddr(r.RemoteAddr); err == nil {
		addr = a.Unmap()
	}
	if !proxies.trusted(addr) {
		return addr
	}

	hops := forwardedFor(r.Header.Get("Forwarded"))
	if len(hops) == 0 {
		hops = xForwardedFor(r.Header.Get("X-Forwarded-For"))
	}
	if len(hops) == 0 {
		return addr
	}
	for i := len(hops) - 1; i >= 0; i-- {
		if !proxies.trusted(hops[i]) {
			return hops[i]
		}
	}
	return hops[0]
}

// forwardedFor extracts the for= values of an RFC 7239 Forwarded header.
func forwardedFor(header string) []netip.Addr {
	var out []netip.Addr
	for _, elem := range strings.Split(header, ",") {
		for _, pair := range strings.Split(elem, ";") {
			key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok || !strings.EqualFold(key, "for") {
				continue
			}
			if a, ok := parseHop(value); ok {
				out = append(out, a)
			}
		}
	}
	return out
}

func xForwardedFor(header string) []netip.Addr {
	var out []netip.Addr
	for _, part := range strings.Split(header, ",") {
		if a, ok := parseHop(part); ok {
			out = append(out, a)
		}
	}
	return out
}

// parseHop accepts "1.2.3.4", "1.2.3.4:80", "[::1]:80" and quoted forms.
func parseHop(v string) (netip.Addr, bool) {
	v = strings.Trim(strings.TrimSpace(v), `"`)
	if v == "" || strings.EqualFold(v, "unknown") {
		return netip.Addr{}, false
	}
	if ap, err := netip.ParseAddrPort(v); err == nil {
		return ap.Addr().Unmap(), true
	}
	v = strings.TrimSuffix(strings.TrimPrefix(v, "["), "]")
	if a, err := netip.ParseAddr(v); err == nil {
		return a.WithZone("").Unmap(), true
	}
	return netip.Addr{}, false
}
