package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type browsed for. OpenWrt's umdns
	// announces the LuCI web interface as a plain HTTP service.
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is used when an entry carries no port
	DefaultPort = 80
)

// Scanner handles mDNS router discovery
type Scanner struct {
	// Timeout is the maximum time to wait for advertisements
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan browses for HTTP services until the timeout and returns every
// entry with a hostname and an address. Likely OpenWrt routers sort
// first, the rest by hostname.
func (s *Scanner) Scan(ctx context.Context) ([]*Router, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})
	seen := make(map[string]bool)

	var mu sync.Mutex
	routers := make([]*Router, 0)

	go func() {
		defer close(done)
		for entry := range entries {
			router := s.parseServiceEntry(entry)
			if router == nil {
				continue
			}
			key := router.BaseURL()
			if seen[key] {
				continue
			}
			seen[key] = true
			mu.Lock()
			routers = append(routers, router)
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	// zeroconf closes entries once the browse context ends
	select {
	case <-done:
	case <-time.After(time.Second):
	}

	mu.Lock()
	found := append([]*Router(nil), routers...)
	mu.Unlock()

	sortRouters(found)
	return found, nil
}

func sortRouters(routers []*Router) {
	sort.SliceStable(routers, func(i, j int) bool {
		a, b := routers[i].LikelyOpenWrt(), routers[j].LikelyOpenWrt()
		if a != b {
			return a
		}
		return routers[i].Hostname < routers[j].Hostname
	})
}

// parseServiceEntry converts a zeroconf service entry to a Router.
// Returns nil when the entry has no hostname or no address.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Router {
	hostname := entry.HostName
	if hostname == "" {
		return nil
	}

	// Prefer IPv4
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	instance := entry.Instance
	if instance == "" {
		instance = strings.TrimSuffix(strings.TrimSuffix(hostname, "."), ".local")
	}

	return &Router{
		Instance:     instance,
		Hostname:     hostname,
		IP:           ip,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// Scan is a convenience function to scan with a custom timeout
func Scan(ctx context.Context, timeout time.Duration) ([]*Router, error) {
	scanner := NewScanner()
	if timeout > 0 {
		scanner.Timeout = timeout
	}
	return scanner.Scan(ctx)
}
