package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/wrtsync/internal/bridge"
	"github.com/muurk/wrtsync/internal/config"
	"github.com/muurk/wrtsync/internal/discovery"
	"github.com/muurk/wrtsync/internal/logging"
	"github.com/muurk/wrtsync/internal/syncer"
	"github.com/muurk/wrtsync/internal/ui"
)

// Daemon flags
var (
	listenHost  string
	listenPort  int
	natsURL     string
	scanTimeout int
)

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(scanCmd)

	runCmd.Flags().StringVar(&listenHost, "listen-host", "", "REST bridge host (overrides config, default 127.0.0.1)")
	runCmd.Flags().IntVar(&listenPort, "listen-port", 0, "REST bridge port (overrides config, default 8080)")
	runCmd.Flags().StringVar(&natsURL, "nats", "", "NATS server URL (overrides config)")

	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 0, "Scan timeout in seconds (default from config)")
}

// newEngine builds a client and engine for the target
func newEngine(t *target) (*syncer.Engine, error) {
	client, err := t.client()
	if err != nil {
		return nil, err
	}
	return syncer.New(t.name, client, syncer.Options{
		StartupInterval: t.router.StartupInterval,
		RefreshInterval: t.router.RefreshInterval,
		Logger:          logging.ForDevice(t.name, t.router.Host),
	}), nil
}

// bridgeConfig merges the config file bridge section with flags
func bridgeConfig(t *target) (*bridge.Config, *config.NATSBridge) {
	cfg := &bridge.Config{Host: "127.0.0.1", Port: 8080}
	var nc *config.NATSBridge

	if t.registry != nil && t.registry.Bridge != nil {
		if h := t.registry.Bridge.HTTP; h != nil {
			cfg.Host, cfg.Port = h.Host, h.Port
		}
		nc = t.registry.Bridge.NATS
	}
	if listenHost != "" {
		cfg.Host = listenHost
	}
	if listenPort != 0 {
		cfg.Port = listenPort
	}
	if natsURL != "" {
		nc = &config.NATSBridge{URL: natsURL, Name: "wrtsync", Prefix: "wrtsync"}
	}
	return cfg, nc
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync daemon",
	Long: `Run the sync engine for one router and serve its state.

The engine retries the first connection on the startup schedule, then
polls on the refresh schedule. Every refresh is published to WebSocket
clients on /events and, when configured, to NATS. The REST bridge
accepts intents and radio/network commands.`,
	Example: `  # Serve the configured router on 127.0.0.1:8080
  wrtsync run

  # Listen on all interfaces and publish to NATS
  wrtsync run --listen-host 0.0.0.0 --nats nats://127.0.0.1:4222`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	t, err := resolveTarget()
	if err != nil {
		return err
	}
	engine, err := newEngine(t)
	if err != nil {
		return err
	}

	logger := logging.GetLogger()
	httpCfg, natsCfg := bridgeConfig(t)

	srv := bridge.NewServer(httpCfg, engine, logger.Named("rest"))
	engine.AddSink(srv.Hub())

	if natsCfg != nil && natsCfg.URL != "" {
		nb, err := bridge.NewNATSBridge(natsCfg.URL, natsCfg.Name, natsCfg.Prefix, engine, logger.Named("nats"))
		if err != nil {
			return err
		}
		defer nb.Close()
		engine.AddSink(nb)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := engine.Start(); err != nil {
		return err
	}
	defer engine.Stop()

	logger.Info("Sync engine started",
		zap.String("device", t.name),
		zap.String("host", t.router.Host),
		zap.Duration("refresh", t.router.RefreshInterval))

	// Blocks until a signal arrives
	err = srv.Start(ctx)
	logger.Info("Shutting down", zap.String("device", t.name))
	return err
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a router's wireless state live",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := resolveTarget()
		if err != nil {
			return err
		}
		engine, err := newEngine(t)
		if err != nil {
			return err
		}

		updates := make(ui.ChannelSink, 4)
		engine.AddSink(updates)
		if err := engine.Start(); err != nil {
			return err
		}
		defer engine.Stop()

		return ui.RunWatch(t.name, updates)
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for OpenWrt routers on the network",
	Long: `Browse mDNS for HTTP services. Entries that look like OpenWrt's
web interface are marked and listed first.`,
	Example: `  wrtsync scan
  wrtsync scan --timeout 10`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout := time.Duration(scanTimeout) * time.Second
		if timeout <= 0 {
			reg, err := loadRegistry()
			if err != nil {
				return err
			}
			timeout = time.Duration(reg.Preferences.DiscoverTimeout) * time.Second
		}

		if outputFormat != "json" {
			fmt.Printf("Scanning for routers (timeout: %s)...\n\n", timeout)
		}

		routers, err := discovery.Scan(cmd.Context(), timeout)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		if outputFormat == "json" {
			return printJSON(routers)
		}
		fmt.Println(ui.RenderRouters(routers, ui.GetTerminalWidth()))
		if len(routers) > 0 {
			fmt.Println("\nUse 'wrtsync show --host <url>' to read a router")
		}
		return nil
	},
}
