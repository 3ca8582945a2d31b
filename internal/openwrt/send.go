package openwrt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/wrtsync/internal/wireless"
)

// Kind selects what a Command mutates.
type Kind string

const (
	KindRadio  Kind = "radio"
	KindSSID   Kind = "ssid"
	KindButton Kind = "button"
)

// ButtonCommand is one of the fixed router-wide actions.
type ButtonCommand int

const (
	ButtonReboot ButtonCommand = iota
	ButtonNetworkReload
	ButtonWirelessReload
)

type ubusCall struct {
	service string
	method  string
}

var buttonCalls = map[ButtonCommand]ubusCall{
	ButtonReboot:         {"system", "reboot"},
	ButtonNetworkReload:  {"network", "reload"},
	ButtonWirelessReload: {"network.wireless", "reload"},
}

func (b ButtonCommand) String() string {
	switch b {
	case ButtonReboot:
		return "reboot"
	case ButtonNetworkReload:
		return "network-reload"
	case ButtonWirelessReload:
		return "wifi-reload"
	default:
		return fmt.Sprintf("button(%d)", int(b))
	}
}

// ParseButton maps a name accepted by String back to its command
func ParseButton(name string) (ButtonCommand, error) {
	for b := range buttonCalls {
		if b.String() == name {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown button %q (want reboot, network-reload or wifi-reload)", name)
}

// Command is a mutation request.
type Command struct {
	Kind Kind

	// Device is the radio section name, e.g. "radio0"
	Device string

	// SSID matches the wifi-iface by its current network name
	SSID string

	// NewName renames the matched SSID when non-empty
	NewName string

	Enable  bool
	Button  ButtonCommand
	Restart bool
}

func (c Command) validate() error {
	switch c.Kind {
	case KindRadio:
		if c.Device == "" {
			return fmt.Errorf("radio command needs a device")
		}
	case KindSSID:
		if c.Device == "" || c.SSID == "" {
			return fmt.Errorf("ssid command needs a device and an ssid")
		}
	case KindButton:
		if _, ok := buttonCalls[c.Button]; !ok {
			return fmt.Errorf("unknown button command %d", int(c.Button))
		}
	default:
		return fmt.Errorf("unknown command kind %q", c.Kind)
	}
	return nil
}

// Send applies cmd to the router. It returns false without error when
// another gated operation was in flight and the command was dropped.
// Nothing is retried; the next refresh reports the confirmed state.
func (c *Client) Send(ctx context.Context, cmd Command) (bool, error) {
	if err := cmd.validate(); err != nil {
		return false, err
	}
	ctx = context.WithoutCancel(ctx)

	return c.gate.Run("send:"+string(cmd.Kind), func() error {
		if cmd.Kind == KindButton {
			call := buttonCalls[cmd.Button]
			c.logger.Info("Running router command",
				zap.String("button", cmd.Button.String()),
				zap.String("service", call.service),
				zap.String("method", call.method),
			)
			_, err := c.rpc.Call(ctx, call.service, call.method, nil)
			return err
		}
		return c.applyWireless(ctx, cmd)
	})
}

func (c *Client) applyWireless(ctx context.Context, cmd Command) error {
	dump, err := c.wirelessDump(ctx)
	if err != nil {
		return err
	}

	matches := matchSections(dump.Values, cmd)
	if len(matches) == 0 {
		if cmd.Kind == KindRadio {
			return NewNotFoundError(fmt.Sprintf("radio %q not found", cmd.Device))
		}
		return NewNotFoundError(fmt.Sprintf("ssid %q not found on %s", cmd.SSID, cmd.Device))
	}

	disabled := "1"
	if cmd.Enable {
		disabled = "0"
	}

	var devices []string
	seen := make(map[string]bool)
	for _, sec := range matches {
		values := map[string]string{"disabled": disabled}
		if cmd.Kind == KindSSID && cmd.NewName != "" && cmd.NewName != sec.String("ssid") {
			values["ssid"] = cmd.NewName
		}

		c.logger.Debug("Setting wireless section",
			zap.String("section", sec.Name),
			zap.Any("values", values),
		)
		if _, err := c.rpc.Call(ctx, "uci", "set", map[string]any{
			"config":  "wireless",
			"section": sec.Name,
			"values":  values,
		}); err != nil {
			return err
		}

		device := sec.Name
		if sec.Type == wireless.TypeInterface {
			device = sec.String("device")
		}
		if !seen[device] {
			seen[device] = true
			devices = append(devices, device)
		}
	}

	if _, err := c.rpc.Call(ctx, "uci", "commit", map[string]string{"config": "wireless"}); err != nil {
		return err
	}

	for _, device := range devices {
		if err := c.cycle(ctx, device); err != nil {
			return err
		}
	}

	if cmd.Restart {
		if _, err := c.rpc.Call(ctx, "network", "reload", nil); err != nil {
			return err
		}
	}

	c.logger.Info("Wireless change applied",
		zap.String("kind", string(cmd.Kind)),
		zap.String("device", cmd.Device),
		zap.Bool("enabled", cmd.Enable),
		zap.Int("sections", len(matches)),
	)
	return nil
}

// cycle takes a radio down and brings it back up so the committed
// configuration is picked up.
func (c *Client) cycle(ctx context.Context, device string) error {
	args := map[string]string{"device": device}
	if _, err := c.rpc.Call(ctx, "network.wireless", "down", args); err != nil {
		return err
	}
	if c.ToggleDelay > 0 {
		c.sleep(c.ToggleDelay)
	}
	_, err := c.rpc.Call(ctx, "network.wireless", "up", args)
	return err
}

func matchSections(sections wireless.Sections, cmd Command) []wireless.Section {
	var out []wireless.Section
	for _, sec := range sections {
		switch cmd.Kind {
		case KindRadio:
			if sec.Type == wireless.TypeDevice && sec.Name == cmd.Device {
				out = append(out, sec)
			}
		case KindSSID:
			if sec.Type == wireless.TypeInterface &&
				sec.String("ssid") == cmd.SSID &&
				sec.String("device") == cmd.Device {
				out = append(out, sec)
			}
		}
	}
	return out
}
