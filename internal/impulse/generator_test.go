package impulse

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestSetState_FiresPeriodically(t *testing.T) {
	g := New(nil)
	defer g.Close()

	var count atomic.Int32
	g.Handle("connect", func(ctx context.Context) { count.Add(1) })

	if err := g.SetState(true, []Task{{Name: "connect", Interval: 10 * time.Millisecond}}, false); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}

	waitFor(t, time.Second, func() bool { return count.Load() >= 3 })
}

func TestSetState_EmitImmediately(t *testing.T) {
	g := New(nil)
	defer g.Close()

	fired := make(chan struct{}, 1)
	g.Handle("start", func(ctx context.Context) {
		select {
		case fired <- struct{}{}:
		default:
		}
	})

	if err := g.SetState(true, []Task{{Name: "start", Interval: time.Hour}}, true); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("task did not fire immediately")
	}
}

func TestSetState_Deactivate(t *testing.T) {
	g := New(nil)
	defer g.Close()

	var count atomic.Int32
	g.Handle("connect", func(ctx context.Context) { count.Add(1) })

	_ = g.SetState(true, []Task{{Name: "connect", Interval: 5 * time.Millisecond}}, false)
	waitFor(t, time.Second, func() bool { return count.Load() >= 1 })

	if err := g.SetState(false, nil, false); err != nil {
		t.Fatalf("SetState(false) error = %v", err)
	}
	if g.Active() {
		t.Error("generator should be inactive")
	}

	// allow an in-flight tick to finish
	time.Sleep(20 * time.Millisecond)
	after := count.Load()
	time.Sleep(50 * time.Millisecond)
	if count.Load() != after {
		t.Errorf("handler fired after deactivation: %d -> %d", after, count.Load())
	}
}

func TestSetState_NoOverlap(t *testing.T) {
	g := New(nil)
	defer g.Close()

	var running, maxRunning, calls atomic.Int32
	g.Handle("slow", func(ctx context.Context) {
		n := running.Add(1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		running.Add(-1)
		calls.Add(1)
	})

	_ = g.SetState(true, []Task{{Name: "slow", Interval: 2 * time.Millisecond}}, true)
	waitFor(t, 2*time.Second, func() bool { return calls.Load() >= 3 })

	if maxRunning.Load() != 1 {
		t.Errorf("handler overlapped itself: max concurrency %d", maxRunning.Load())
	}
}

func TestSetState_ObserversNotified(t *testing.T) {
	g := New(nil)
	defer g.Close()
	g.Handle("connect", func(ctx context.Context) {})

	var mu sync.Mutex
	var states []bool
	g.OnState(func(active bool) {
		mu.Lock()
		states = append(states, active)
		mu.Unlock()
	})

	_ = g.SetState(true, []Task{{Name: "connect", Interval: time.Hour}}, false)
	_ = g.SetState(false, nil, false)

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || !states[0] || states[1] {
		t.Errorf("states = %v, want [true false]", states)
	}
}

func TestSetState_Validation(t *testing.T) {
	g := New(nil)
	defer g.Close()
	g.Handle("connect", func(ctx context.Context) {})

	tests := []struct {
		name  string
		tasks []Task
	}{
		{"no tasks", nil},
		{"unknown handler", []Task{{Name: "missing", Interval: time.Second}}},
		{"zero interval", []Task{{Name: "connect"}}},
		{"duplicate", []Task{{Name: "connect", Interval: time.Second}, {Name: "connect", Interval: time.Second}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.SetState(true, tt.tasks, false); err == nil {
				t.Error("expected validation error")
			}
			if g.Active() {
				t.Error("generator should stay inactive after a rejected activation")
			}
		})
	}
}

func TestSetState_DeactivateFromHandler(t *testing.T) {
	g := New(nil)
	defer g.Close()

	var calls atomic.Int32
	g.Handle("start", func(ctx context.Context) {
		calls.Add(1)
		_ = g.SetState(false, nil, false)
	})

	_ = g.SetState(true, []Task{{Name: "start", Interval: 5 * time.Millisecond}}, true)
	waitFor(t, time.Second, func() bool { return !g.Active() })

	time.Sleep(30 * time.Millisecond)
	if calls.Load() != 1 {
		t.Errorf("handler ran %d times, want 1", calls.Load())
	}
}

func TestSetState_IndependentTasks(t *testing.T) {
	g := New(nil)
	defer g.Close()

	var fast, slow atomic.Int32
	g.Handle("fast", func(ctx context.Context) { fast.Add(1) })
	g.Handle("slow", func(ctx context.Context) { slow.Add(1) })

	_ = g.SetState(true, []Task{
		{Name: "fast", Interval: 5 * time.Millisecond},
		{Name: "slow", Interval: time.Hour},
	}, false)

	waitFor(t, time.Second, func() bool { return fast.Load() >= 3 })
	if slow.Load() != 0 {
		t.Errorf("slow task fired %d times, want 0", slow.Load())
	}
}

func TestTasks(t *testing.T) {
	g := New(nil)
	defer g.Close()
	g.Handle("connect", func(ctx context.Context) {})
	g.Handle("start", func(ctx context.Context) {})

	_ = g.SetState(true, []Task{{Name: "connect", Interval: time.Minute}}, false)

	got := make(map[string]ScheduledTask)
	for _, st := range g.Tasks() {
		got[st.Name] = st
	}
	if !got["connect"].Running || got["connect"].Interval != time.Minute {
		t.Errorf("connect = %+v, want running every minute", got["connect"])
	}
	if got["start"].Running {
		t.Error("start should not be running")
	}
}

func TestHandlerPanicDoesNotKillTask(t *testing.T) {
	g := New(nil)
	defer g.Close()

	var calls atomic.Int32
	g.Handle("flaky", func(ctx context.Context) {
		if calls.Add(1) == 1 {
			panic("boom")
		}
	})

	_ = g.SetState(true, []Task{{Name: "flaky", Interval: 5 * time.Millisecond}}, true)
	waitFor(t, time.Second, func() bool { return calls.Load() >= 2 })
}
