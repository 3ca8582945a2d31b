package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/wrtsync/internal/openwrt"
	"github.com/muurk/wrtsync/internal/reconcile"
	"github.com/muurk/wrtsync/internal/ui"
	"github.com/muurk/wrtsync/internal/wireless"
)

// Command flags
var (
	setRename  string
	setRestart bool
	assumeYes  bool
)

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(buttonCmd)
	rootCmd.AddCommand(aclCmd)

	setCmd.AddCommand(setRadioCmd)
	setCmd.AddCommand(setSSIDCmd)
	setCmd.PersistentFlags().BoolVar(&setRestart, "restart", false, "Reload the network after applying")
	setSSIDCmd.Flags().StringVar(&setRename, "rename", "", "Rename the network")

	buttonCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation prompt")
}

// printJSON writes v as indented JSON to stdout
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseOnOff accepts on/off and the usual boolean spellings.
func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "enable", "enabled", "true", "1":
		return true, nil
	case "off", "disable", "disabled", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid state %q (want on or off)", s)
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show radios and wireless networks",
	Long: `Connect to the router once and display its radios and wireless
networks, each network listed under the radio it runs on.`,
	Example: `  # Show the only configured router
  wrtsync show

  # Show an ad hoc router as JSON
  wrtsync show --host 192.168.1.1 --format json`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	client, err := t.client()
	if err != nil {
		return err
	}

	snap, err := client.Connect(cmd.Context())
	if err != nil {
		if outputFormat == "json" {
			return err
		}
		fmt.Println(ui.NewFailureResult("Could not read "+t.name, err))
		return fmt.Errorf("show failed")
	}
	if snap == nil {
		return fmt.Errorf("router %s is busy, try again", t.name)
	}
	t.remember(snap.SystemInfo.Model)

	if outputFormat == "json" {
		return printJSON(struct {
			Device   string             `json:"device"`
			Keys     []string           `json:"keys"`
			Snapshot *wireless.Snapshot `json:"snapshot"`
		}{t.name, reconcile.Keys(snap), snap})
	}

	fmt.Println(ui.RenderSnapshot(t.name, snap, ui.GetTerminalWidth()))
	return nil
}

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Enable, disable or rename radios and networks",
}

var setRadioCmd = &cobra.Command{
	Use:   "radio <device> <on|off>",
	Short: "Enable or disable a radio",
	Long: `Enable or disable a radio and every network on it.

The change is committed to the wireless config and the radio is cycled
down and up so it takes effect.`,
	Example: `  wrtsync set radio radio1 off
  wrtsync set radio radio1 on --restart`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		enable, err := parseOnOff(args[1])
		if err != nil {
			return err
		}
		return sendCommand(cmd.Context(), openwrt.Command{
			Kind:    openwrt.KindRadio,
			Device:  args[0],
			Enable:  enable,
			Restart: setRestart,
		}, fmt.Sprintf("Radio %s %s", args[0], args[1]))
	},
}

var setSSIDCmd = &cobra.Command{
	Use:   "ssid <device> <ssid> <on|off>",
	Short: "Enable, disable or rename a wireless network",
	Long: `Enable or disable a wireless network by its current name on a radio,
optionally renaming it.`,
	Example: `  wrtsync set ssid radio0 guest off
  wrtsync set ssid radio0 guest on --rename visitors`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		enable, err := parseOnOff(args[2])
		if err != nil {
			return err
		}
		return sendCommand(cmd.Context(), openwrt.Command{
			Kind:    openwrt.KindSSID,
			Device:  args[0],
			SSID:    args[1],
			NewName: setRename,
			Enable:  enable,
			Restart: setRestart,
		}, fmt.Sprintf("Network %s on %s %s", args[1], args[0], args[2]))
	},
}

var buttonCmd = &cobra.Command{
	Use:   "button <reboot|network-reload|wifi-reload>",
	Short: "Reboot the router or reload its network",
	Example: `  wrtsync button wifi-reload
  wrtsync button reboot --yes`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"reboot", "network-reload", "wifi-reload"},
	RunE: func(cmd *cobra.Command, args []string) error {
		button, err := openwrt.ParseButton(args[0])
		if err != nil {
			return err
		}

		t, err := resolveTarget()
		if err != nil {
			return err
		}
		if !assumeYes && !ui.ConfirmButton(os.Stdin, os.Stdout, button.String(), t.router.Host) {
			return nil
		}

		return sendTo(cmd.Context(), t, openwrt.Command{
			Kind:   openwrt.KindButton,
			Button: button,
		}, "Sent "+button.String())
	},
}

func sendCommand(ctx context.Context, cmd openwrt.Command, title string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	return sendTo(ctx, t, cmd, title)
}

func sendTo(ctx context.Context, t *target, cmd openwrt.Command, title string) error {
	client, err := t.client()
	if err != nil {
		return err
	}

	ran, err := client.Send(ctx, cmd)
	if err != nil {
		fmt.Println(ui.NewFailureResult(title, err))
		return fmt.Errorf("command failed")
	}
	if !ran {
		fmt.Println(ui.NewWarningResult("Router busy, command dropped").AddDetail("Router", t.name))
		return nil
	}

	res := ui.NewSuccessResult(title).AddDetail("Router", t.name)
	if cmd.Kind != openwrt.KindButton && cmd.Device != "" {
		res.AddDetail("Device", cmd.Device)
	}
	if cmd.NewName != "" {
		res.AddDetail("New name", cmd.NewName)
	}
	fmt.Println(res)
	return nil
}

var aclCmd = &cobra.Command{
	Use:   "acl",
	Short: "Print the rpcd ACL for a restricted wrtsync user",
	Long: `Print an rpcd ACL granting exactly the ubus calls wrtsync makes.

Save it on the router as ` + openwrt.ACLPath + `, add an rpcd login for
user "` + openwrt.ACLUser + `" and restart rpcd.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := openwrt.ACLJSON()
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "# %s\n", openwrt.ACLPath)
		fmt.Println(string(data))
		return nil
	},
}
