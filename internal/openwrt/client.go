package openwrt

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wrtsync/internal/logging"
	"github.com/muurk/wrtsync/internal/wireless"
)

const (
	// DefaultTimeout is the fixed per-call HTTP timeout
	DefaultTimeout = 5 * time.Second

	// DefaultToggleDelay is the pause between bringing a radio down and up again
	DefaultToggleDelay = 2 * time.Second

	// DefaultUsername is the rpcd user most routers ship with
	DefaultUsername = "root"
)

// Client talks to one router's ubus endpoint.
//
// Every operation that touches router state, including the refresh
// cycle, runs through a single Gate: while one is in flight any other
// is dropped.
type Client struct {
	// Host is the router base URL (e.g., "http://192.168.1.1")
	Host string

	// ToggleDelay is the pause between "down" and "up" when cycling a radio
	ToggleDelay time.Duration

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	sessions *SessionManager
	rpc      *Invoker
	gate     *Gate
	logger   *zap.Logger

	// sleep waits between down and up; replaced in tests
	sleep func(time.Duration)

	mu        sync.RWMutex
	current   *wireless.Snapshot
	listeners []func(*wireless.Snapshot)
	connected atomic.Bool
}

// NewClient creates a client for the router at host.
// host may omit the scheme, in which case http is assumed.
func NewClient(host, username, password string) *Client {
	base := normalizeHost(host)
	httpClient := &http.Client{Timeout: DefaultTimeout}
	logger := zap.NewNop()

	t := &transport{
		endpoint: base + "/ubus",
		client:   httpClient,
	}
	sessions := &SessionManager{
		transport: t,
		username:  username,
		password:  password,
		lease:     SessionLease,
		now:       time.Now,
		logger:    logger,
	}

	return &Client{
		Host:        base,
		ToggleDelay: DefaultToggleDelay,
		HTTPClient:  httpClient,
		sessions:    sessions,
		rpc:         &Invoker{sessions: sessions, transport: t, logger: logger},
		gate:        NewGate(logger),
		logger:      logger,
		sleep:       time.Sleep,
	}
}

func normalizeHost(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return host
}

// SetLogger sets the logger used by the client and its components
func (c *Client) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger
	c.sessions.logger = logger
	c.rpc.logger = logger
	c.gate.logger = logger
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// Sessions exposes the session manager
func (c *Client) Sessions() *SessionManager {
	return c.sessions
}

// RPC exposes the invoker for read-only calls outside the refresh cycle
func (c *Client) RPC() *Invoker {
	return c.rpc
}

// Busy reports whether a gated operation is in flight
func (c *Client) Busy() bool {
	return c.gate.Busy()
}

// OnSnapshot registers a listener called with every snapshot Connect
// produces. Listeners run while the gate is held, so they must not call
// Send or Connect synchronously; such calls would be dropped.
func (c *Client) OnSnapshot(fn func(*wireless.Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Current returns the last snapshot produced, or nil before the first
// successful refresh. The returned snapshot must not be modified.
func (c *Client) Current() *wireless.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Connect runs one refresh cycle: board info, wireless config and
// interface status are read, normalized into a snapshot, stored and
// handed to listeners.
//
// A failed cycle returns a ConnectError and leaves the previous snapshot
// in place. When another gated operation is in flight the cycle is
// dropped and Connect returns (nil, nil).
func (c *Client) Connect(ctx context.Context) (*wireless.Snapshot, error) {
	ctx = context.WithoutCancel(ctx)

	var snap *wireless.Snapshot
	ran, err := c.gate.Run("connect", func() error {
		s, err := c.refresh(ctx)
		if err != nil {
			return NewConnectError(err)
		}
		snap = s

		c.mu.Lock()
		c.current = s
		listeners := append([]func(*wireless.Snapshot){}, c.listeners...)
		c.mu.Unlock()

		for _, fn := range listeners {
			fn(s)
		}
		return nil
	})
	if err != nil {
		if isConnRefused(err) {
			c.logger.Info("Router refused connection, it may be restarting")
		}
		return nil, err
	}
	if !ran {
		return nil, nil
	}
	return snap, nil
}

func (c *Client) refresh(ctx context.Context) (*wireless.Snapshot, error) {
	var info wireless.SystemInfo
	if err := c.rpc.CallInto(ctx, "system", "board", nil, &info); err != nil {
		return nil, err
	}

	dump, err := c.wirelessDump(ctx)
	if err != nil {
		return nil, err
	}
	logging.LogPayload(c.logger, "Wireless config", dump.Values)

	var ifaces interfaceDump
	if err := c.rpc.CallInto(ctx, "network.interface", "dump", nil, &ifaces); err != nil {
		return nil, err
	}

	radios, ssids := wireless.Normalize(dump)
	snap := &wireless.Snapshot{
		State:      true,
		Info:       "Connect success",
		LinkUp:     ifaces.LinkUp(),
		SystemInfo: info,
		Radios:     radios,
		Ssids:      ssids,
		Time:       time.Now(),
	}

	if c.connected.CompareAndSwap(false, true) {
		logging.Success(c.logger, "Connect success",
			zap.String("model", info.Model),
			zap.Int("radios", len(radios)),
			zap.Int("ssids", len(ssids)),
		)
	}
	return snap, nil
}

func (c *Client) wirelessDump(ctx context.Context) (*wireless.Dump, error) {
	var dump wireless.Dump
	if err := c.rpc.CallInto(ctx, "uci", "get", map[string]string{"config": "wireless"}, &dump); err != nil {
		return nil, err
	}
	return &dump, nil
}

// Close releases idle HTTP connections
func (c *Client) Close() {
	c.HTTPClient.CloseIdleConnections()
}

type address struct {
	Address string `json:"address"`
	Mask    int    `json:"mask"`
}

type networkInterface struct {
	Interface string    `json:"interface"`
	Up        bool      `json:"up"`
	IPv4      []address `json:"ipv4-address"`
	IPv6      []address `json:"ipv6-address"`
}

// interfaceDump is the payload of "network.interface dump".
type interfaceDump struct {
	Interfaces []networkInterface `json:"interface"`
}

// LinkUp reports whether any interface is up and carries an address.
func (d interfaceDump) LinkUp() bool {
	for _, iface := range d.Interfaces {
		if !iface.Up {
			continue
		}
		if hasAddress(iface.IPv4) || hasAddress(iface.IPv6) {
			return true
		}
	}
	return false
}

func hasAddress(addrs []address) bool {
	for _, a := range addrs {
		if a.Address != "" {
			return true
		}
	}
	return false
}
