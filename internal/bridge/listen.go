package bridge

import (
	"fmt"
	"net"
	"strings"
)

var loopbackHosts = map[string]struct{}{
	"127.0.0.1": {},
	"::1":       {},
	"localhost": {},
}

// ValidateListenAddr accepts host:port addresses on loopback, or on a host
// named in allowedHosts. An empty host (all interfaces) needs an explicit
// "0.0.0.0" or "::" entry.
func ValidateListenAddr(addr string, allowedHosts []string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return fmt.Errorf("invalid listen address: empty")
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	if port == "" {
		return fmt.Errorf("invalid listen address %q: port is required", addr)
	}
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		host = "0.0.0.0"
	}
	if _, ok := loopbackHosts[host]; ok {
		return nil
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return nil
	}
	if _, ok := normalizeAllowedHosts(allowedHosts)[host]; ok {
		return nil
	}
	return fmt.Errorf("invalid listen address %q: host %q is not loopback and not in server.allowed_hosts", addr, host)
}

func normalizeAllowedHosts(allowedHosts []string) map[string]struct{} {
	out := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "http://")
		v = strings.TrimPrefix(v, "https://")
		v = strings.Trim(v, "/")
		if v == "" {
			continue
		}
		if host, _, err := net.SplitHostPort(v); err == nil {
			v = host
		}
		v = strings.TrimSuffix(strings.TrimPrefix(v, "["), "]")
		out[v] = struct{}{}
	}
	return out
}
