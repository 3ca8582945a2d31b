package openwrt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/wrtsync/internal/logging"
	"github.com/muurk/wrtsync/internal/version"
)

// AnonymousSession is the session id used for the login call itself.
const AnonymousSession = "00000000000000000000000000000000"

// ubus status codes carried in result[0].
const (
	ubusOK               = 0
	ubusNotFound         = 4
	ubusPermissionDenied = 6
)

// request is a JSON-RPC 2.0 envelope for one ubus call.
type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type envelopeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type response struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      uint64            `json:"id"`
	Result  []json.RawMessage `json:"result"`
	Error   *envelopeError    `json:"error"`
}

// transport posts ubus envelopes to one router endpoint.
type transport struct {
	endpoint string
	client   *http.Client
	nextID   atomic.Uint64
}

// do issues one call and returns result[1]. Any failure is an RPC error.
func (t *transport) do(ctx context.Context, session, service, method string, args any) (json.RawMessage, error) {
	if args == nil {
		args = map[string]any{}
	}

	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		ID:      t.nextID.Add(1),
		Method:  "call",
		Params:  []any{session, service, method, args},
	})
	if err != nil {
		return nil, NewRPCError(CauseProtocol, service, method, 0, fmt.Sprintf("failed to encode request: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, NewTransportError(service, method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, NewTransportError(service, method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, NewRPCError(CauseHTTPStatus, service, method, resp.StatusCode,
			fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewTransportError(service, method, err)
	}

	var env response
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, NewRPCError(CauseProtocol, service, method, 0, fmt.Sprintf("malformed response: %v", err))
	}

	if env.Error != nil {
		msg := env.Error.Message
		if msg == "" {
			msg = "ubus call error"
		}
		return nil, NewRPCError(CauseProtocol, service, method, env.Error.Code, msg)
	}

	if len(env.Result) == 0 {
		return nil, NewRPCError(CauseProtocol, service, method, 0, "response has no result")
	}

	var status int
	if err := json.Unmarshal(env.Result[0], &status); err != nil {
		return nil, NewRPCError(CauseProtocol, service, method, 0, "response has no status code")
	}
	if status != ubusOK {
		return nil, NewRPCError(CauseStatus, service, method, status, fmt.Sprintf("ubus status %d", status))
	}

	if len(env.Result) < 2 {
		return json.RawMessage("{}"), nil
	}
	return env.Result[1], nil
}

// Invoker performs authenticated ubus calls.
// It never retries; a failed call surfaces to the caller as an RPC error
// (or an auth error when the login underneath it failed).
type Invoker struct {
	sessions  *SessionManager
	transport *transport
	logger    *zap.Logger
}

// Call invokes service/method with params and returns the raw result payload.
func (inv *Invoker) Call(ctx context.Context, service, method string, params any) (json.RawMessage, error) {
	token, err := inv.sessions.Login(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := inv.transport.do(ctx, token, service, method, params)
	logging.LogRPCCall(inv.logger, service, method, time.Since(start), err)

	if err != nil {
		// The router forgets sessions on restart; drop ours so the next
		// call logs in again.
		if e, ok := err.(*Error); ok && e.Cause == CauseStatus && e.Code == ubusPermissionDenied {
			inv.sessions.Invalidate()
		}
		return nil, err
	}
	return result, nil
}

// CallInto invokes a call and decodes its payload into out.
func (inv *Invoker) CallInto(ctx context.Context, service, method string, params, out any) error {
	result, err := inv.Call(ctx, service, method, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(result, out); err != nil {
		return NewRPCError(CauseProtocol, service, method, 0, fmt.Sprintf("unexpected payload: %v", err))
	}
	return nil
}
