package openwrt

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionLease is how long a login token is reused. The router's own
// session timeout is longer; the lease is fixed, not negotiated.
const SessionLease = 240 * time.Second

// Session is a cached ubus login token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the session can still be used at now.
func (s Session) Valid(now time.Time) bool {
	return s.Token != "" && now.Before(s.ExpiresAt)
}

// SessionManager owns the login token for one router.
//
// The mutex is held across the login round trip, so concurrent callers
// with an expired token share a single login request.
type SessionManager struct {
	transport *transport
	username  string
	password  string
	lease     time.Duration
	now       func() time.Time
	logger    *zap.Logger

	mu      sync.Mutex
	session Session
}

type loginResult struct {
	Session string `json:"ubus_rpc_session"`
	Timeout int    `json:"timeout"`
}

// Login returns a valid token, logging in only when the cached one has expired.
func (m *SessionManager) Login(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.session.Valid(now) {
		return m.session.Token, nil
	}

	payload, err := m.transport.do(ctx, AnonymousSession, "session", "login", map[string]string{
		"username": m.username,
		"password": m.password,
	})
	if err != nil {
		if e, ok := err.(*Error); ok && (e.Cause == CauseStatus || e.Cause == CauseProtocol) {
			return "", NewAuthError("login rejected", err)
		}
		return "", err
	}

	var result loginResult
	if err := json.Unmarshal(payload, &result); err != nil || result.Session == "" {
		return "", NewAuthError("ubus login failed: no session id in response", err)
	}

	m.session = Session{
		Token:     result.Session,
		ExpiresAt: now.Add(m.lease),
	}

	m.logger.Debug("Ubus login OK", zap.Time("expires_at", m.session.ExpiresAt))
	return m.session.Token, nil
}

// Invalidate drops the cached token.
func (m *SessionManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = Session{}
}

// Current returns the cached session, valid or not.
func (m *SessionManager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}
