// Package bridge exposes a running sync engine to the outside world.
//
// Two bridges are provided. The REST bridge serves the current snapshot,
// accepts radio, SSID and intent changes over HTTP and streams every
// update to WebSocket clients on /events. The NATS bridge publishes
// updates on <prefix>.snapshot and accepts {key, value} intents on
// <prefix>.set.
//
// Both only forward: matching, mutation and reconciliation all happen in
// the engine.
package bridge
