package urls

// Documentation URLs for setup and troubleshooting.
// All URLs point to the OpenWrt documentation at https://openwrt.org/docs/

// Ubus is the ubus reference, including the JSON-RPC over HTTP interface
// and its session and ACL model.
const Ubus = "https://openwrt.org/docs/techref/ubus"

// Rpcd covers rpcd logins and the ACL files in /usr/share/rpcd/acl.d.
const Rpcd = "https://openwrt.org/docs/techref/rpcd"

// Uhttpd covers the web server that exposes /ubus (uhttpd-mod-ubus).
const Uhttpd = "https://openwrt.org/docs/guide-user/services/webserver/uhttpd"

// WirelessConfig is the /etc/config/wireless reference.
const WirelessConfig = "https://openwrt.org/docs/guide-user/network/wifi/basic"
