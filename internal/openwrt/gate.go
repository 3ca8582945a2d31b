package openwrt

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Gate lets one exclusive operation run at a time and drops the rest.
//
// It is not a queue: an operation arriving while another is in flight
// is discarded, not deferred. Overlapping poll ticks and rapid toggles
// therefore never pile up against the router's config store.
type Gate struct {
	busy   atomic.Bool
	logger *zap.Logger
}

// NewGate creates an open gate.
func NewGate(logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{logger: logger}
}

// Run executes fn if the gate is free. ran is false when fn was dropped.
// Errors from fn are logged and returned; the gate is released on every
// exit path, including a panic.
func (g *Gate) Run(op string, fn func() error) (ran bool, err error) {
	if !g.busy.CompareAndSwap(false, true) {
		g.logger.Debug("Operation dropped, another one is in flight", zap.String("op", op))
		return false, nil
	}
	defer g.busy.Store(false)

	if err := fn(); err != nil {
		g.logger.Error("Operation failed", zap.String("op", op), zap.Error(err))
		return true, err
	}
	return true, nil
}

// Busy reports whether an operation currently holds the gate.
func (g *Gate) Busy() bool {
	return g.busy.Load()
}
