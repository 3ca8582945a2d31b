// Package discovery provides mDNS-based discovery of OpenWrt routers.
//
// OpenWrt's umdns daemon announces the LuCI web interface as an
// "_http._tcp" service. Scan browses for that service type and returns
// every advertisement with a hostname and an address; entries that look
// like OpenWrt are sorted first.
//
// # Usage Example
//
//	routers, err := discovery.Scan(ctx, 5*time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, r := range routers {
//	    fmt.Printf("%s -> %s\n", r, r.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Routers must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
