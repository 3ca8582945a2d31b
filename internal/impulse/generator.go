package impulse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task names one periodic job and how often it fires.
type Task struct {
	Name     string
	Interval time.Duration
}

// ScheduledTask reports the state of a task known to a Generator.
type ScheduledTask struct {
	Name     string        `json:"name"`
	Interval time.Duration `json:"interval"`
	Running  bool          `json:"running"`
}

// Handler is invoked once per tick of its task.
type Handler func(ctx context.Context)

// Generator runs named tasks on independent tickers.
//
// Each running task owns one goroutine that invokes its handler
// synchronously, so a task never overlaps itself: a handler that takes
// longer than the interval delays the next tick instead of stacking a
// second invocation.
type Generator struct {
	logger *zap.Logger

	mu        sync.Mutex
	handlers  map[string]Handler
	observers []func(active bool)
	tasks     []Task
	active    bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates an idle generator.
func New(logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		logger:   logger,
		handlers: make(map[string]Handler),
	}
}

// Handle registers the handler for a task name, replacing any previous one.
func (g *Generator) Handle(name string, fn Handler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers[name] = fn
}

// OnState registers an observer for activation changes.
func (g *Generator) OnState(fn func(active bool)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.observers = append(g.observers, fn)
}

// SetState activates or deactivates the generator.
//
// Activating with a task list replaces whatever was running. When
// emitImmediately is set every task fires once right away instead of
// waiting for its first interval. Deactivating clears all timers; it
// does not wait for a handler that is mid-flight, so a handler may
// deactivate its own generator. Observers are notified on every call.
func (g *Generator) SetState(active bool, tasks []Task, emitImmediately bool) error {
	g.mu.Lock()

	if active {
		if err := g.validate(tasks); err != nil {
			g.mu.Unlock()
			return err
		}
	}

	g.stopLocked()

	if active {
		ctx, cancel := context.WithCancel(context.Background())
		g.cancel = cancel
		g.tasks = append([]Task(nil), tasks...)
		for _, task := range g.tasks {
			g.wg.Add(1)
			go g.run(ctx, task, g.handlers[task.Name], emitImmediately)
		}
	}
	g.active = active

	observers := append([]func(bool){}, g.observers...)
	g.mu.Unlock()

	g.logger.Debug("Impulse generator state changed",
		zap.Bool("active", active),
		zap.Int("tasks", len(tasks)),
	)
	for _, fn := range observers {
		fn(active)
	}
	return nil
}

func (g *Generator) validate(tasks []Task) error {
	if len(tasks) == 0 {
		return errors.New("impulse: no tasks to run")
	}
	seen := make(map[string]bool, len(tasks))
	for _, task := range tasks {
		if _, ok := g.handlers[task.Name]; !ok {
			return fmt.Errorf("impulse: no handler registered for task %q", task.Name)
		}
		if task.Interval <= 0 {
			return fmt.Errorf("impulse: task %q has non-positive interval %v", task.Name, task.Interval)
		}
		if seen[task.Name] {
			return fmt.Errorf("impulse: task %q listed twice", task.Name)
		}
		seen[task.Name] = true
	}
	return nil
}

// stopLocked cancels the running task set. Caller holds g.mu.
func (g *Generator) stopLocked() {
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.tasks = nil
}

func (g *Generator) run(ctx context.Context, task Task, fn Handler, emitImmediately bool) {
	defer g.wg.Done()

	fire := func() {
		defer func() {
			if r := recover(); r != nil {
				g.logger.Error("Impulse handler panicked",
					zap.String("task", task.Name),
					zap.Any("panic", r),
				)
			}
		}()
		fn(ctx)
	}

	if emitImmediately {
		fire()
	}

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A deactivation racing with a tick must win.
			if ctx.Err() != nil {
				return
			}
			fire()
		}
	}
}

// Active reports whether a task set is running.
func (g *Generator) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Tasks reports every registered handler and whether it is scheduled.
func (g *Generator) Tasks() []ScheduledTask {
	g.mu.Lock()
	defer g.mu.Unlock()

	running := make(map[string]time.Duration, len(g.tasks))
	for _, t := range g.tasks {
		running[t.Name] = t.Interval
	}

	out := make([]ScheduledTask, 0, len(g.handlers))
	for _, t := range g.tasks {
		out = append(out, ScheduledTask{Name: t.Name, Interval: t.Interval, Running: true})
	}
	for name := range g.handlers {
		if _, ok := running[name]; !ok {
			out = append(out, ScheduledTask{Name: name})
		}
	}
	return out
}

// Close deactivates the generator and waits for in-flight handlers.
// It must not be called from inside a handler.
func (g *Generator) Close() {
	g.mu.Lock()
	wasActive := g.active
	g.stopLocked()
	g.active = false
	g.mu.Unlock()

	g.wg.Wait()

	if wasActive {
		g.logger.Debug("Impulse generator closed")
	}
}
