package wireless

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Section is one UCI section from a "uci get" dump.
// Options holds every option, including the dotted metadata keys
// (".type", ".name", ".anonymous", ".index").
type Section struct {
	Name    string         `json:"name"`
	Type    string         `json:"type"`
	Options map[string]any `json:"options"`
}

// String returns a string option, or "" when absent or not a string.
func (s Section) String(key string) string {
	v, _ := s.Options[key].(string)
	return v
}

// Flag reports whether an option carries the UCI "1" sentinel.
// UCI booleans arrive as strings; anything other than "1" is false.
func (s Section) Flag(key string) bool {
	return s.String(key) == "1"
}

// Sections is an ordered list of UCI sections. It decodes from the
// JSON object ubus returns while keeping the object's key order, which
// is the order the sections appear in the config file.
type Sections []Section

// UnmarshalJSON implements json.Unmarshaler.
func (s *Sections) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("uci sections: %w", err)
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("uci sections: expected object, got %v", tok)
	}

	var out Sections
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("uci sections: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("uci sections: unexpected key %v", keyTok)
		}

		var opts map[string]any
		if err := dec.Decode(&opts); err != nil {
			return fmt.Errorf("uci section %q: %w", key, err)
		}

		sec := Section{Name: key, Options: opts}
		if name, ok := opts[".name"].(string); ok && name != "" {
			sec.Name = name
		}
		sec.Type, _ = opts[".type"].(string)
		out = append(out, sec)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("uci sections: %w", err)
	}

	*s = out
	return nil
}

// OfType returns the sections with the given type, in order.
func (s Sections) OfType(typ string) Sections {
	var out Sections
	for _, sec := range s {
		if sec.Type == typ {
			out = append(out, sec)
		}
	}
	return out
}

// Dump is the payload of `uci get {"config": "wireless"}`.
type Dump struct {
	Values Sections `json:"values"`
}

// ParseDump decodes a raw uci get payload.
func ParseDump(data []byte) (*Dump, error) {
	var d Dump
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
