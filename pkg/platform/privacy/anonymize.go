// Package privacy masks client addresses before they reach logs or audit
// events.
package privacy

import (
	"net"
	"net/http"
	"net/netip"
)

// AnonymizeIP keeps the network part of an address: IPv4 is cut to /24 and
// IPv6 to /48. Empty input yields "unknown" and unparseable input "invalid".
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "invalid"
	}
	addr = addr.Unmap()

	bits := 48
	if addr.Is4() {
		bits = 24
	}
	prefix, err := addr.Prefix(bits)
	if err != nil {
		return "invalid"
	}
	return prefix.Addr().String()
}

// ClientIP returns the anonymized remote address of r. Forwarding headers
// are ignored; a proxy in front of the server is expected to rewrite
// RemoteAddr.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return AnonymizeIP(host)
}
