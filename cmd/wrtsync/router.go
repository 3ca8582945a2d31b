package main

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/wrtsync/internal/config"
	"github.com/muurk/wrtsync/internal/logging"
	"github.com/muurk/wrtsync/internal/openwrt"
)

// passwordEnvVar is read when neither the config nor the flags carry a
// password.
const passwordEnvVar = "WRTSYNC_PASSWORD"

// target is the router a command acts on.
type target struct {
	name     string
	router   *config.Router
	registry *config.Registry // nil for ad hoc --host targets
}

// loadRegistry reads the config file. A missing file yields defaults.
func loadRegistry() (*config.Registry, error) {
	reg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if reg.Preferences != nil && logLevel == "" && os.Getenv(logging.LogLevelEnvVar) == "" && reg.Preferences.LogLevel != "" {
		if err := logging.Initialize(reg.Preferences.LogLevel); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// resolveTarget picks the router from --host, or from the config by
// --router.
func resolveTarget() (*target, error) {
	if routerHost != "" {
		rt := &config.Router{Host: routerHost, Username: routerUser}
		reg := config.NewRegistry()
		reg.Routers[routerHost] = rt
		reg.ApplyDefaults()
		return &target{name: routerHost, router: rt}, nil
	}

	reg, err := loadRegistry()
	if err != nil {
		return nil, err
	}
	name, rt, err := reg.Resolve(routerName)
	if err != nil {
		return nil, fmt.Errorf("%w (add one to the config file or pass --host)", err)
	}
	if routerUser != "" {
		rt.Username = routerUser
	}
	return &target{name: name, router: rt, registry: reg}, nil
}

// password returns the router password, prompting on a terminal as a
// last resort.
func (t *target) password() (string, error) {
	if p := t.router.ResolvePassword(); p != "" {
		return p, nil
	}
	if p, ok := os.LookupEnv(passwordEnvVar); ok {
		return p, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no password for router %q: set password_env in the config or $%s", t.name, passwordEnvVar)
	}

	fmt.Fprintf(os.Stderr, "Password for %s@%s: ", t.router.Username, t.router.Host)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(string(raw), "\r\n"), nil
}

// client builds a ubus client for the target.
func (t *target) client() (*openwrt.Client, error) {
	pass, err := t.password()
	if err != nil {
		return nil, err
	}

	c := openwrt.NewClient(t.router.Host, t.router.Username, pass)
	c.ToggleDelay = t.router.ToggleDelay
	c.SetLogger(logging.ForDevice(t.name, t.router.Host))
	return c, nil
}

// remember records a successful connect in the config file. Failures are
// logged, never returned.
func (t *target) remember(model string) {
	if t.registry == nil {
		return
	}
	t.registry.UpdateRouterLastSeen(t.name, model)
	if err := t.registry.Save(configPath); err != nil {
		logging.Warn("Failed to update config", zap.Error(err))
	}
}
