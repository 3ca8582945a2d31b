// Wrtsync keeps an OpenWrt router's wireless state in sync with the
// outside world.
//
// It talks to the router over ubus (JSON-RPC on /ubus), polls radios and
// networks, and exposes them through a REST bridge, a WebSocket event
// stream and optionally NATS. One-shot commands show state and toggle
// radios and networks from the terminal.
//
// Usage:
//
//	wrtsync [command] [flags]
//
// See 'wrtsync --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/wrtsync/internal/logging"
	"github.com/muurk/wrtsync/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath   string
	routerName   string
	routerHost   string
	routerUser   string
	logLevel     string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "wrtsync",
	Short: "OpenWrt wireless sync daemon and CLI",
	Long: `Keep an OpenWrt router's radios and wireless networks in sync.

wrtsync logs in to the router's ubus endpoint, polls the wireless
configuration and interface status, and reports every change. 'wrtsync run'
serves the state over REST, WebSocket and NATS; the other commands act on
the router directly.

Routers are read from the config file, or given ad hoc with --host.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is the user config dir)")
	rootCmd.PersistentFlags().StringVarP(&routerName, "router", "r", "", "Router name from the config file")
	rootCmd.PersistentFlags().StringVar(&routerHost, "host", "", "Router address, bypasses the config file")
	rootCmd.PersistentFlags().StringVarP(&routerUser, "user", "u", "", "rpcd user (default root)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to $WRTSYNC_LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "pretty", "Output format (pretty, json)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("wrtsync %s\n", version.Full())
	},
}
