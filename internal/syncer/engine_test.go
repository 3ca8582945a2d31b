package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/muurk/wrtsync/internal/openwrt"
	"github.com/muurk/wrtsync/internal/wireless"
)

// fakeRouter fails the first failures Connect calls, then succeeds.
type fakeRouter struct {
	mu        sync.Mutex
	failures  int
	connects  int
	sent      []openwrt.Command
	current   *wireless.Snapshot
	listeners []func(*wireless.Snapshot)
	snap      func() *wireless.Snapshot
}

func (r *fakeRouter) Connect(ctx context.Context) (*wireless.Snapshot, error) {
	r.mu.Lock()
	r.connects++
	if r.connects <= r.failures {
		r.mu.Unlock()
		return nil, openwrt.NewConnectError(errors.New("connection refused"))
	}
	s := r.snap()
	r.current = s
	listeners := append([]func(*wireless.Snapshot){}, r.listeners...)
	r.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
	return s, nil
}

func (r *fakeRouter) Send(ctx context.Context, cmd openwrt.Command) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, cmd)
	return true, nil
}

func (r *fakeRouter) OnSnapshot(fn func(*wireless.Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *fakeRouter) Current() *wireless.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *fakeRouter) Connects() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connects
}

func (r *fakeRouter) Sent() []openwrt.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]openwrt.Command(nil), r.sent...)
}

func oneRadio() *wireless.Snapshot {
	return &wireless.Snapshot{
		State:  true,
		Info:   "Connect success",
		Radios: []wireless.Radio{{Device: "radio0", Band: wireless.Band24GHz}},
		Ssids:  []wireless.Ssid{{Ifname: "wlan0", Device: "radio0", Band: wireless.Band24GHz, Name: "home", Mode: "ap"}},
	}
}

// recordingSink keeps every update it receives.
type recordingSink struct {
	mu      sync.Mutex
	updates []Update
}

func (s *recordingSink) Publish(ctx context.Context, u Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, u)
	return nil
}

func (s *recordingSink) Updates() []Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Update(nil), s.updates...)
}

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

func TestEngine_StartupRetriesThenPolls(t *testing.T) {
	router := &fakeRouter{failures: 2, snap: oneRadio}
	sink := &recordingSink{}

	e := New("office", router, Options{
		StartupInterval: 10 * time.Millisecond,
		RefreshInterval: 10 * time.Millisecond,
	})
	e.AddSink(sink)
	defer e.Stop()

	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	waitFor(t, 2*time.Second, e.Connected)
	waitFor(t, 2*time.Second, func() bool { return len(sink.Updates()) >= 3 })

	if router.Connects() < 3 {
		t.Errorf("Connect called %d times, want at least 3", router.Connects())
	}

	updates := sink.Updates()
	first := updates[0]
	if first.Device != "office" {
		t.Errorf("Device = %q, want office", first.Device)
	}
	if len(first.Plan.ToAdd) != 2 || len(first.Plan.ToUpdate) != 0 || len(first.Plan.ToRemove) != 0 {
		t.Errorf("first plan = %+v, want two adds", first.Plan)
	}

	second := updates[1]
	if len(second.Plan.ToAdd) != 0 || len(second.Plan.ToUpdate) != 2 {
		t.Errorf("second plan = %+v, want two updates", second.Plan)
	}

	for _, task := range e.Tasks() {
		if task.Name == taskStart && task.Running {
			t.Error("startup task should stop once polling starts")
		}
	}
}

func TestEngine_RemovalsPublished(t *testing.T) {
	var mu sync.Mutex
	withGuest := true
	router := &fakeRouter{snap: func() *wireless.Snapshot {
		mu.Lock()
		defer mu.Unlock()
		s := oneRadio()
		if withGuest {
			s.Ssids = append(s.Ssids, wireless.Ssid{Device: "radio0", Band: wireless.Band24GHz, Name: "guest"})
		}
		return s
	}}
	sink := &recordingSink{}

	e := New("office", router, Options{StartupInterval: time.Hour, RefreshInterval: 10 * time.Millisecond})
	e.AddSink(sink)
	defer e.Stop()

	if err := e.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	waitFor(t, 2*time.Second, e.Connected)

	mu.Lock()
	withGuest = false
	mu.Unlock()

	waitFor(t, 2*time.Second, func() bool {
		for _, u := range sink.Updates() {
			if len(u.Plan.ToRemove) == 1 && u.Plan.ToRemove[0] == "ssid:guest:radio0:2.4GHz" {
				return true
			}
		}
		return false
	})
}

func TestEngine_Intent(t *testing.T) {
	tests := []struct {
		key    string
		value  bool
		want   openwrt.ButtonCommand
		sends  bool
		errors bool
	}{
		{IntentSystemReboot, true, openwrt.ButtonReboot, true, false},
		{IntentNetworkReload, true, openwrt.ButtonNetworkReload, true, false},
		{IntentWiFiReload, true, openwrt.ButtonWirelessReload, true, false},
		{IntentWiFiReload, false, 0, false, false},
		{"Selfdestruct", true, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			router := &fakeRouter{snap: oneRadio}
			e := New("office", router, Options{})

			ran, err := e.Intent(context.Background(), tt.key, tt.value)
			if (err != nil) != tt.errors {
				t.Fatalf("Intent() error = %v, want error %v", err, tt.errors)
			}
			if ran != tt.sends {
				t.Errorf("Intent() ran = %v, want %v", ran, tt.sends)
			}

			sent := router.Sent()
			if !tt.sends {
				if len(sent) != 0 {
					t.Errorf("sent %d commands, want 0", len(sent))
				}
				return
			}
			if len(sent) != 1 || sent[0].Kind != openwrt.KindButton || sent[0].Button != tt.want {
				t.Errorf("sent = %+v, want button %v", sent, tt.want)
			}
		})
	}
}

func TestEngine_SendForwards(t *testing.T) {
	router := &fakeRouter{snap: oneRadio}
	e := New("office", router, Options{})

	cmd := openwrt.Command{Kind: openwrt.KindSSID, Device: "radio0", SSID: "home", Enable: true}
	if _, err := e.Send(context.Background(), cmd); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if sent := router.Sent(); len(sent) != 1 || sent[0] != cmd {
		t.Errorf("sent = %+v, want %+v", sent, cmd)
	}
}

func TestEngine_Defaults(t *testing.T) {
	e := New("office", &fakeRouter{snap: oneRadio}, Options{})

	if e.opts.StartupInterval != DefaultStartupInterval {
		t.Errorf("StartupInterval = %v, want %v", e.opts.StartupInterval, DefaultStartupInterval)
	}
	if e.opts.RefreshInterval != DefaultRefreshInterval {
		t.Errorf("RefreshInterval = %v, want %v", e.opts.RefreshInterval, DefaultRefreshInterval)
	}
	if e.Current() != nil {
		t.Error("Current() should be nil before the first refresh")
	}
}
