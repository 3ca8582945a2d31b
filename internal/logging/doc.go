// Package logging provides structured logging for wrtsync.
//
// This package wraps a zap logger with convenience functions for the
// logging patterns used across the router client, the scheduler and the
// bridges. Lifecycle events that the router client used to broadcast
// (success, info, debug, warn, error) map onto zap levels; "success" is
// an info line carrying event=success.
//
// # Log Levels
//
//   - Debug: ubus calls, raw payloads, dropped gate acquisitions
//   - Info: connect success, scheduler state changes, applied commands
//   - Warn: failed refresh cycles that will be retried on the next tick
//   - Error: failed commands, bridge failures
//
// # Configuration
//
// Initialize logging once at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// With an empty level the WRTSYNC_LOG_LEVEL environment variable is
// consulted; if that is unset too the logger is silent.
//
// Components receive a *zap.Logger explicitly; ForDevice returns one
// tagged with the router name and host.
package logging
