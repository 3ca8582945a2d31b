package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wrtsync/internal/impulse"
	"github.com/muurk/wrtsync/internal/logging"
	"github.com/muurk/wrtsync/internal/openwrt"
	"github.com/muurk/wrtsync/internal/reconcile"
	"github.com/muurk/wrtsync/internal/wireless"
)

const (
	// DefaultStartupInterval is how often a failed first connect is retried
	DefaultStartupInterval = 120 * time.Second

	// DefaultRefreshInterval is the poll period once connected
	DefaultRefreshInterval = 5 * time.Second

	taskStart   = "start"
	taskConnect = "connect"
)

// Intent keys accepted by Engine.Intent.
const (
	IntentSystemReboot  = "SystemReboot"
	IntentNetworkReload = "NetworkReload"
	IntentWiFiReload    = "WiFiReload"
)

var intentButtons = map[string]openwrt.ButtonCommand{
	IntentSystemReboot:  openwrt.ButtonReboot,
	IntentNetworkReload: openwrt.ButtonNetworkReload,
	IntentWiFiReload:    openwrt.ButtonWirelessReload,
}

// Router is the part of openwrt.Client the engine drives.
type Router interface {
	Connect(ctx context.Context) (*wireless.Snapshot, error)
	Send(ctx context.Context, cmd openwrt.Command) (bool, error)
	OnSnapshot(fn func(*wireless.Snapshot))
	Current() *wireless.Snapshot
}

// Update is what sinks receive after every refresh.
type Update struct {
	Device   string             `json:"device"`
	Snapshot *wireless.Snapshot `json:"snapshot"`
	Plan     reconcile.Plan     `json:"plan"`
}

// Sink consumes updates. Publish runs while the router's gate is held and
// must not call back into the engine's Send or Intent synchronously.
type Sink interface {
	Publish(ctx context.Context, u Update) error
}

// Options tunes an Engine. Zero values select the defaults.
type Options struct {
	StartupInterval time.Duration
	RefreshInterval time.Duration
	Logger          *zap.Logger
}

// Engine keeps external state in step with one router.
//
// It starts by retrying Connect on the startup schedule until the router
// answers, then switches to the poll schedule. Every snapshot the router
// produces is reconciled against the previous one and published.
type Engine struct {
	name    string
	router  Router
	opts    Options
	logger  *zap.Logger
	tracker *reconcile.Tracker
	startup *impulse.Generator
	poll    *impulse.Generator

	mu    sync.RWMutex
	sinks []Sink
	last  reconcile.Plan
}

// New creates an engine for the named router. Nothing runs until Start.
func New(name string, router Router, opts Options) *Engine {
	if opts.StartupInterval <= 0 {
		opts.StartupInterval = DefaultStartupInterval
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.GetLogger()
	}

	e := &Engine{
		name:    name,
		router:  router,
		opts:    opts,
		logger:  logger,
		tracker: reconcile.NewTracker(),
		startup: impulse.New(logger.Named("startup")),
		poll:    impulse.New(logger.Named("poll")),
	}

	e.startup.Handle(taskStart, e.onStartTick)
	e.poll.Handle(taskConnect, e.onPollTick)
	e.startup.OnState(func(active bool) {
		if active {
			e.logger.Info("Connecting", zap.String("device", e.name))
		}
	})
	router.OnSnapshot(e.onSnapshot)
	return e
}

// AddSink registers a consumer for updates.
func (e *Engine) AddSink(s Sink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, s)
}

// Start begins the startup schedule. The first attempt runs immediately.
func (e *Engine) Start() error {
	return e.startup.SetState(true, []impulse.Task{
		{Name: taskStart, Interval: e.opts.StartupInterval},
	}, true)
}

func (e *Engine) onStartTick(ctx context.Context) {
	snap, err := e.router.Connect(ctx)
	if err != nil {
		e.logger.Warn("Router not reachable yet, retrying",
			zap.String("device", e.name),
			zap.Duration("retry_in", e.opts.StartupInterval),
			zap.Error(err),
		)
		return
	}
	if snap == nil {
		return
	}

	if err := e.poll.SetState(true, []impulse.Task{
		{Name: taskConnect, Interval: e.opts.RefreshInterval},
	}, false); err != nil {
		e.logger.Error("Failed to start polling", zap.String("device", e.name), zap.Error(err))
		return
	}
	_ = e.startup.SetState(false, nil, false)

	logging.Success(e.logger, "Router connected",
		zap.String("device", e.name),
		zap.Duration("refresh", e.opts.RefreshInterval),
	)
}

func (e *Engine) onPollTick(ctx context.Context) {
	if _, err := e.router.Connect(ctx); err != nil {
		e.logger.Warn("Refresh failed, keeping last known state",
			zap.String("device", e.name),
			zap.Error(err),
		)
	}
}

func (e *Engine) onSnapshot(snap *wireless.Snapshot) {
	plan := e.tracker.Apply(snap)

	e.mu.Lock()
	e.last = plan
	sinks := append([]Sink(nil), e.sinks...)
	e.mu.Unlock()

	if !plan.Empty() {
		e.logger.Debug("Reconciled snapshot",
			zap.String("device", e.name),
			zap.Int("add", len(plan.ToAdd)),
			zap.Int("update", len(plan.ToUpdate)),
			zap.Int("remove", len(plan.ToRemove)),
		)
	}

	u := Update{Device: e.name, Snapshot: snap, Plan: plan}
	for _, s := range sinks {
		if err := s.Publish(context.Background(), u); err != nil {
			e.logger.Warn("Sink rejected update", zap.String("device", e.name), zap.Error(err))
		}
	}
}

// Send forwards a mutation to the router.
func (e *Engine) Send(ctx context.Context, cmd openwrt.Command) (bool, error) {
	return e.router.Send(ctx, cmd)
}

// Intent handles an external key/value request. Only a true value for a
// known key triggers the matching router command.
func (e *Engine) Intent(ctx context.Context, key string, value bool) (bool, error) {
	button, ok := intentButtons[key]
	if !ok {
		return false, fmt.Errorf("unknown intent %q", key)
	}
	if !value {
		return false, nil
	}
	e.logger.Info("Intent received", zap.String("device", e.name), zap.String("key", key))
	return e.router.Send(ctx, openwrt.Command{Kind: openwrt.KindButton, Button: button})
}

// Name returns the router name the engine was created with.
func (e *Engine) Name() string {
	return e.name
}

// Current returns the last snapshot, or nil before the first refresh.
func (e *Engine) Current() *wireless.Snapshot {
	return e.router.Current()
}

// LastPlan returns the plan produced by the most recent refresh.
func (e *Engine) LastPlan() reconcile.Plan {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last
}

// Connected reports whether the engine has moved to the poll schedule.
func (e *Engine) Connected() bool {
	return e.poll.Active()
}

// Tasks reports both schedules.
func (e *Engine) Tasks() []impulse.ScheduledTask {
	return append(e.startup.Tasks(), e.poll.Tasks()...)
}

// Stop halts both schedules and waits for in-flight handlers.
// It must not be called from a Sink.
func (e *Engine) Stop() {
	e.startup.Close()
	e.poll.Close()
	e.logger.Debug("Engine stopped", zap.String("device", e.name))
}
