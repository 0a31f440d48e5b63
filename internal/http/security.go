package http

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// trustedProxies defines networks that are trusted to set forwarding headers.
var trustedProxies = []*net.IPNet{
	parsecidr("127.0.0.0/8"),    // localhost
	parsecidr("10.0.0.0/8"),     // private networks
	parsecidr("172.16.0.0/12"),  // private networks
	parsecidr("192.168.0.0/16"), // private networks
}

func parsecidr(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("failed to parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

func isTrustedProxy(ip net.IP) bool {
	for _, network := range trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// extractClientIP resolves the client address for rate limiting and logging.
// Forwarding headers are honored only when the direct peer is a trusted
// proxy; otherwise a spoofed X-Forwarded-For would defeat the rate limiter.
func extractClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	peer := net.ParseIP(host)
	if peer == nil || !isTrustedProxy(peer) {
		return host
	}

	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop in the chain is the original client.
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip.String()
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		if ip := net.ParseIP(real); ip != nil {
			return ip.String()
		}
	}
	return host
}
