package api

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// gateSettings is the immutable snapshot read per request; UpdateGate swaps
// the whole struct so reloads never race handlers.
type gateSettings struct {
	apiKey  string
	lanOnly bool
}

// gated wraps a handler with the access gate: a shared-secret header check
// (401) followed by a private-network source check (403). Violations never
// reach the wrapped handler.
func (s *Server) gated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		settings := s.gate.Load()

		if settings.apiKey != "" {
			received := strings.TrimSpace(r.Header.Get("X-API-Key"))
			if received != settings.apiKey {
				s.logger.Warnf("rejected key from %s (received=%s)", r.RemoteAddr, maskKey(received))
				s.writeError(w, http.StatusUnauthorized, "Unauthorized", "Invalid API key")
				return
			}
		}

		if settings.lanOnly && !isPrivateRemote(r.RemoteAddr) {
			s.logger.Warnf("rejected non-LAN caller %s", r.RemoteAddr)
			s.writeError(w, http.StatusForbidden, "Forbidden", "LAN only")
			return
		}

		next(w, r)
	})
}

// isPrivateRemote reports whether remoteAddr (host:port) is a loopback or
// RFC1918/ULA address. Unparseable addresses are rejected.
func isPrivateRemote(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	return addr.IsLoopback() || addr.IsPrivate()
}

// maskKey renders a key safe for logs: first/last characters plus length.
func maskKey(k string) string {
	k = strings.TrimSpace(k)
	if k == "" {
		return "none"
	}
	n := len(k)
	if n > 8 {
		return fmt.Sprintf("%s***%s(len=%d)", k[:4], k[n-4:], n)
	}
	if n > 4 {
		return fmt.Sprintf("%s***%s(len=%d)", k[:2], k[n-2:], n)
	}
	return fmt.Sprintf("***(len=%d)", n)
}
