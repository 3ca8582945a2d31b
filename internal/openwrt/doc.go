// Package openwrt provides a client for an OpenWrt router's ubus JSON-RPC
// endpoint (uhttpd-mod-ubus, served at /ubus).
//
// The client reads board information, the UCI wireless configuration and
// interface status into a wireless.Snapshot, and applies radio and SSID
// enable/disable changes and router-wide commands.
//
// # Sessions
//
// Every call carries a session token obtained from "session login". The
// token is reused for a fixed lease of SessionLease; concurrent callers
// that find it expired share one login round trip.
//
// # Single-flight gate
//
// Refresh and every mutation run through one Gate. An operation that
// arrives while another is running is dropped, not queued: Connect
// returns (nil, nil) and Send returns (false, nil).
//
// # Usage Example
//
//	client := openwrt.NewClient("192.168.1.1", "root", "secret")
//	client.SetLogger(logging.ForDevice("office", client.Host))
//
//	snap, err := client.Connect(ctx)
//	if err != nil {
//	    fmt.Println(openwrt.Hint(err))
//	    return err
//	}
//
//	_, err = client.Send(ctx, openwrt.Command{
//	    Kind:   openwrt.KindSSID,
//	    Device: "radio0",
//	    SSID:   "guest",
//	    Enable: false,
//	})
//
// # Error Handling
//
// All errors are *Error values with a Type of ErrTypeAuth, ErrTypeRPC,
// ErrTypeNotFound or ErrTypeConnect. Use IsAuthError, IsRPCError,
// IsNotFoundError and IsConnectError to inspect them; a ConnectError keeps
// its cause in the chain.
package openwrt
