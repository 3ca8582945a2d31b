package openwrt

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"syscall"
	"testing"
)

// timeoutError is a net.Error that reports a timeout
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }

func TestNewTransportError_Classification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want RPCCause
	}{
		{"timeout", &net.OpError{Op: "dial", Net: "tcp", Err: &timeoutError{}}, CauseTimeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "router.invalid"}, CauseDNS},
		{"refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, CauseTransport},
		{"plain", errors.New("boom"), CauseTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewTransportError("system", "board", tt.err)
			if e.Type != ErrTypeRPC {
				t.Errorf("Type = %v, want RPC", e.Type)
			}
			if e.Cause != tt.want {
				t.Errorf("Cause = %v, want %v", e.Cause, tt.want)
			}
			if !errors.Is(e, tt.err) {
				t.Error("transport error should unwrap to its cause")
			}
		})
	}
}

func TestIsTimeout(t *testing.T) {
	inner := NewTransportError("uci", "get", &net.OpError{Op: "read", Err: &timeoutError{}})
	if !IsTimeout(NewConnectError(inner)) {
		t.Error("IsTimeout should see a timeout wrapped in a connect error")
	}
	if IsTimeout(NewRPCError(CauseStatus, "uci", "get", 4, "ubus status 4")) {
		t.Error("status error is not a timeout")
	}
}

func TestIsHelpers_WalkChain(t *testing.T) {
	auth := NewAuthError("login rejected", nil)
	connect := NewConnectError(auth)
	wrapped := fmt.Errorf("startup: %w", connect)

	if !IsAuthError(wrapped) || !IsConnectError(wrapped) {
		t.Error("helpers should see both layers through fmt wrapping")
	}
	if IsRPCError(wrapped) || IsNotFoundError(wrapped) {
		t.Error("helpers should not match types absent from the chain")
	}
	if IsAuthError(errors.New("plain")) || IsAuthError(nil) {
		t.Error("non-package errors never match")
	}
}

func TestErrorString(t *testing.T) {
	err := NewRPCError(CauseStatus, "uci", "set", 6, "ubus status 6")
	msg := err.Error()

	for _, want := range []string{"RPC Error", "ubus status 6", "[uci set]"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestErrorTypeString(t *testing.T) {
	tests := []struct {
		typ  ErrorType
		want string
	}{
		{ErrTypeAuth, "Authentication Error"},
		{ErrTypeRPC, "RPC Error"},
		{ErrTypeNotFound, "Not Found"},
		{ErrTypeConnect, "Connect Error"},
		{ErrorType(42), "ErrorType(42)"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("ErrorType(%d).String() = %q, want %q", int(tt.typ), got, tt.want)
		}
	}
}

func TestHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"auth", NewConnectError(NewAuthError("login rejected", nil)), ACLPath},
		{"timeout", NewTransportError("system", "board", &timeoutError{}), "timeout"},
		{"missing endpoint", NewRPCError(CauseHTTPStatus, "system", "board", 404, "unexpected status code: 404"), "uhttpd-mod-ubus"},
		{"permission", NewRPCError(CauseStatus, "uci", "set", ubusPermissionDenied, "ubus status 6"), "uci set"},
		{"not found", NewNotFoundError("radio \"radio9\" not found"), "renamed or removed"},
		{"foreign", errors.New("boom"), "unexpected error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Hint(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("Hint() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestInvoker_HTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client := NewClient(server.URL, "root", "")
	_, err := client.Connect(context.Background())

	if !IsConnectError(err) {
		t.Fatalf("expected connect error, got %v", err)
	}
	root := rootCause(err)
	if root == nil || root.Cause != CauseHTTPStatus || root.Code != http.StatusNotFound {
		t.Errorf("root cause = %+v, want HTTP 404", root)
	}
}

func TestInvoker_EnvelopeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32002,"message":"Access denied"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "root", "")
	_, err := client.Sessions().Login(context.Background())

	if !IsAuthError(err) {
		t.Fatalf("envelope error during login should be an auth error, got %v", err)
	}
	root := rootCause(err)
	if root.Cause != CauseProtocol || root.Code != -32002 {
		t.Errorf("root cause = %+v, want protocol -32002", root)
	}
}

func TestInvoker_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(url, "root", "")
	_, err := client.RPC().Call(context.Background(), "system", "board", nil)

	if !IsRPCError(err) {
		t.Fatalf("expected RPC error, got %v", err)
	}
	if IsAuthError(err) {
		t.Error("a transport failure during login is not an auth error")
	}
}
