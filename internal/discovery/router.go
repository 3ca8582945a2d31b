package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Router represents an HTTP service discovered on the network that may be
// an OpenWrt router
type Router struct {
	// Instance is the advertised service instance name (e.g., "OpenWrt")
	Instance string

	// Hostname is the mDNS hostname (e.g., "OpenWrt.local.")
	Hostname string

	// IP is the address, IPv4 when one was advertised
	IP string

	// Port is the HTTP port (typically 80)
	Port int

	// Metadata contains the mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the service was seen
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the router
func (r *Router) String() string {
	return fmt.Sprintf("%s (%s) at %s", r.Instance, r.Hostname, net.JoinHostPort(r.IP, strconv.Itoa(r.Port)))
}

// BaseURL returns the HTTP base URL, suitable as a router host
func (r *Router) BaseURL() string {
	return "http://" + net.JoinHostPort(r.IP, strconv.Itoa(r.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (r *Router) GetMetadata(key string) string {
	if r.Metadata == nil {
		return ""
	}
	return r.Metadata[key]
}

// LikelyOpenWrt reports whether the advertisement looks like an OpenWrt
// web interface. It is a display hint only; every HTTP service is returned.
func (r *Router) LikelyOpenWrt() bool {
	for _, s := range []string{r.Instance, r.Hostname, r.GetMetadata("path")} {
		l := strings.ToLower(s)
		if strings.Contains(l, "openwrt") || strings.Contains(l, "luci") {
			return true
		}
	}
	return false
}
