// Package config provides user configuration management for wrtsync.
//
// This package manages a YAML-based configuration file that lists the
// routers to keep in sync, how often to poll them, and which bridges
// "wrtsync run" should start. The configuration follows OS-specific
// conventions for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/wrtsync/config.yaml or $HOME/.config/wrtsync/config.yaml
//   - macOS: $HOME/.config/wrtsync/config.yaml
//   - Windows: %LOCALAPPDATA%\wrtsync\config.yaml
//
// # Example
//
//	version: 1
//	routers:
//	  office:
//	    host: 192.168.1.1
//	    password_env: OFFICE_ROUTER_PASSWORD
//	    refresh_interval: 5s
//	bridge:
//	  http:
//	    host: 127.0.0.1
//	    port: 8080
//
// # Secrets
//
// A router password may be stored in the file, but password_env is
// preferred. Use Registry.Redacted before logging a registry.
//
// # Thread Safety
//
// File writes are protected by a mutex and are atomic (write then rename).
package config
