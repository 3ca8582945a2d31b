package openwrt

import "encoding/json"

// ACLPath is where rpcd picks up the access list for the wrtsync user.
const ACLPath = "/usr/share/rpcd/acl.d/wrtsyncacl.json"

// ACLUser is the rpcd ACL group name.
const ACLUser = "wrtsync"

// ACLScope lists the ubus objects and methods a group may call.
type ACLScope struct {
	Ubus map[string][]string `json:"ubus"`
}

// ACLEntry is one rpcd ACL group.
type ACLEntry struct {
	Description string   `json:"description"`
	Read        ACLScope `json:"read"`
	Write       ACLScope `json:"write"`
}

// DefaultACL returns the narrowest ACL that still covers every call the
// client makes.
func DefaultACL() map[string]ACLEntry {
	return map[string]ACLEntry{
		ACLUser: {
			Description: "Limited user for wireless, network control and interface status",
			Read: ACLScope{Ubus: map[string][]string{
				"network.wireless":  {"*"},
				"network.interface": {"*"},
				"system":            {"*"},
			}},
			Write: ACLScope{Ubus: map[string][]string{
				"uci":              {"get", "set", "commit"},
				"network.wireless": {"down", "up", "reload"},
				"network":          {"reload"},
				"system":           {"reboot"},
				"service":          {"restart"},
				"file":             {"write"},
			}},
		},
	}
}

// ACLJSON renders DefaultACL ready to be written to ACLPath.
func ACLJSON() ([]byte, error) {
	data, err := json.MarshalIndent(DefaultACL(), "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
