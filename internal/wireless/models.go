package wireless

import "time"

// Band is the frequency band of a radio.
type Band string

const (
	Band24GHz   Band = "2.4GHz"
	Band5GHz    Band = "5GHz"
	BandUnknown Band = "unknown"
)

// UCI section types for the wireless config.
const (
	TypeDevice    = "wifi-device"
	TypeInterface = "wifi-iface"
)

// Radio is a physical wireless device on the router.
type Radio struct {
	Device   string `json:"device"`
	Band     Band   `json:"band"`
	Disabled bool   `json:"disabled"`
}

// Ssid is one configured wireless network bound to a radio.
// Disabled is true when either the interface or its radio is disabled.
type Ssid struct {
	Ifname   string `json:"ifname"`
	Device   string `json:"device"`
	Band     Band   `json:"band"`
	Name     string `json:"name"`
	Mode     string `json:"mode"`
	Hidden   bool   `json:"hidden"`
	Disabled bool   `json:"disabled"`
}

// Release describes the firmware release as reported by "system board".
type Release struct {
	Distribution string `json:"distribution"`
	Version      string `json:"version"`
	Revision     string `json:"revision"`
	Target       string `json:"target"`
	Description  string `json:"description"`
}

// SystemInfo is the "system board" payload.
type SystemInfo struct {
	Kernel    string  `json:"kernel"`
	Hostname  string  `json:"hostname"`
	System    string  `json:"system"`
	Model     string  `json:"model"`
	BoardName string  `json:"board_name"`
	Release   Release `json:"release"`
}

// Snapshot is one atomically produced view of router state.
// Snapshots are never modified after they are emitted; the next refresh
// cycle produces a new one.
type Snapshot struct {
	State      bool       `json:"state"`
	Info       string     `json:"info"`
	LinkUp     bool       `json:"linkUp"`
	SystemInfo SystemInfo `json:"systemInfo"`
	Radios     []Radio    `json:"radios"`
	Ssids      []Ssid     `json:"ssids"`
	Time       time.Time  `json:"time"`
}

// Radio returns the radio with the given device name.
func (s *Snapshot) Radio(device string) (Radio, bool) {
	for _, r := range s.Radios {
		if r.Device == device {
			return r, true
		}
	}
	return Radio{}, false
}

// SsidsOn returns the networks bound to a radio, in snapshot order.
func (s *Snapshot) SsidsOn(device string) []Ssid {
	var out []Ssid
	for _, n := range s.Ssids {
		if n.Device == device {
			out = append(out, n)
		}
	}
	return out
}
