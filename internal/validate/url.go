// Package validate checks externally supplied URLs before they reach a
// subprocess or an outbound HTTP client.
package validate

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/vidsink/vidsink/internal/constants"
)

// URL rejects empty, malformed, non-http(s), and private-network targets.
// Hostnames that resolve to private ranges at connect time are out of scope
// here; this guards what the user typed.
func URL(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fmt.Errorf("url cannot be empty")
	}
	if len(trimmed) < constants.MinURLLength {
		return fmt.Errorf("url too short")
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("url has no host")
	}
	if isPrivateHost(host) {
		return fmt.Errorf("host %q is not allowed", host)
	}
	return nil
}

func isPrivateHost(host string) bool {
	lower := strings.ToLower(host)
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") {
		return true
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}
