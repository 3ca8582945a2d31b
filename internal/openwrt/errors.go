package openwrt

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"

	"github.com/muurk/wrtsync/internal/urls"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeAuth indicates a login failure (bad credentials or no session id in the reply)
	ErrTypeAuth ErrorType = iota
	// ErrTypeRPC indicates a failed ubus call (transport, timeout or protocol error)
	ErrTypeRPC
	// ErrTypeNotFound indicates a mutation target absent from the current configuration
	ErrTypeNotFound
	// ErrTypeConnect indicates a failed refresh cycle
	ErrTypeConnect
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeRPC:
		return "RPC Error"
	case ErrTypeNotFound:
		return "Not Found"
	case ErrTypeConnect:
		return "Connect Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// RPCCause narrows down why an RPC call failed.
type RPCCause int

const (
	CauseNone RPCCause = iota
	// CauseTransport is a network-level failure (refused, unreachable, reset)
	CauseTransport
	// CauseTimeout is a request that exceeded the per-call timeout
	CauseTimeout
	// CauseDNS is a hostname resolution failure
	CauseDNS
	// CauseHTTPStatus is a non-200 reply from the ubus endpoint
	CauseHTTPStatus
	// CauseProtocol is an undecodable envelope or an envelope error field
	CauseProtocol
	// CauseStatus is a non-zero ubus status code in the result
	CauseStatus
)

func (c RPCCause) String() string {
	switch c {
	case CauseTransport:
		return "transport"
	case CauseTimeout:
		return "timeout"
	case CauseDNS:
		return "dns"
	case CauseHTTPStatus:
		return "http status"
	case CauseProtocol:
		return "protocol"
	case CauseStatus:
		return "ubus status"
	default:
		return "none"
	}
}

// Error is the error type returned by every operation in this package.
type Error struct {
	Type    ErrorType // Category of error
	Cause   RPCCause  // Narrower classification for RPC errors
	Message string    // Human-readable error message
	Service string    // ubus object of the failed call (if any)
	Method  string    // ubus method of the failed call (if any)
	Code    int       // HTTP status, JSON-RPC error code or ubus status (if any)
	Err     error     // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Type.String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Service != "" {
		fmt.Fprintf(&b, " [%s %s]", e.Service, e.Method)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, " (caused by: %v)", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// classifyTransport maps a transport failure onto an RPC cause.
func classifyTransport(err error) RPCCause {
	if os.IsTimeout(err) || errors.Is(err, os.ErrDeadlineExceeded) {
		return CauseTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CauseDNS
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return CauseTimeout
	}

	return CauseTransport
}

// NewAuthError creates an authentication error
func NewAuthError(message string, err error) *Error {
	return &Error{
		Type:    ErrTypeAuth,
		Message: message,
		Service: "session",
		Method:  "login",
		Err:     err,
	}
}

// NewTransportError creates an RPC error for a failed HTTP round trip
func NewTransportError(service, method string, err error) *Error {
	cause := classifyTransport(err)
	msg := "request failed"
	if cause == CauseTimeout {
		msg = "request timed out"
	}
	return &Error{
		Type:    ErrTypeRPC,
		Cause:   cause,
		Message: msg,
		Service: service,
		Method:  method,
		Err:     err,
	}
}

// NewRPCError creates an RPC error with an explicit cause
func NewRPCError(cause RPCCause, service, method string, code int, message string) *Error {
	return &Error{
		Type:    ErrTypeRPC,
		Cause:   cause,
		Message: message,
		Service: service,
		Method:  method,
		Code:    code,
	}
}

// NewNotFoundError creates an error for a missing mutation target
func NewNotFoundError(message string) *Error {
	return &Error{
		Type:    ErrTypeNotFound,
		Message: message,
	}
}

// NewConnectError wraps a failed refresh cycle
func NewConnectError(err error) *Error {
	return &Error{
		Type:    ErrTypeConnect,
		Message: "refresh failed, router state unknown",
		Err:     err,
	}
}

// hasType walks the wrap chain looking for an *Error of the given type.
// A ConnectError wrapping an AuthError matches both.
func hasType(err error, t ErrorType) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Type == t {
			return true
		}
		err = e.Err
	}
	return false
}

// IsAuthError checks if an error is, or wraps, an authentication error
func IsAuthError(err error) bool { return hasType(err, ErrTypeAuth) }

// IsRPCError checks if an error is, or wraps, an RPC error
func IsRPCError(err error) bool { return hasType(err, ErrTypeRPC) }

// IsNotFoundError checks if an error is, or wraps, a not-found error
func IsNotFoundError(err error) bool { return hasType(err, ErrTypeNotFound) }

// IsConnectError checks if an error is, or wraps, a connect error
func IsConnectError(err error) bool { return hasType(err, ErrTypeConnect) }

// IsTimeout reports whether an RPC error in the chain was a timeout
func IsTimeout(err error) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Type == ErrTypeRPC && e.Cause == CauseTimeout {
			return true
		}
		err = e.Err
	}
	return false
}

// rootCause returns the innermost *Error in the chain.
func rootCause(err error) *Error {
	var last *Error
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}
		last = e
		err = e.Err
	}
	return last
}

// Hint returns user-facing troubleshooting advice for an error
func Hint(err error) string {
	e := rootCause(err)
	if e == nil {
		return "An unexpected error occurred. Please try again."
	}

	switch e.Type {
	case ErrTypeAuth:
		return strings.Join([]string{
			"Login to the router failed.",
			"Troubleshooting:",
			"  • Check the username and password",
			"  • Make sure rpcd and uhttpd-mod-ubus are installed",
			"  • Install the ACL printed by 'wrtsync acl' at " + ACLPath,
			"  • See " + urls.Rpcd,
		}, "\n")

	case ErrTypeRPC:
		switch e.Cause {
		case CauseTimeout:
			return strings.Join([]string{
				"The router did not answer within the request timeout.",
				"Troubleshooting:",
				"  • Check that the router is powered on and reachable",
				"  • Verify the host URL (e.g. http://192.168.1.1)",
			}, "\n")
		case CauseDNS:
			return "Could not resolve the router hostname. Use its IP address instead."
		case CauseHTTPStatus:
			if e.Code == 404 {
				return "The router has no /ubus endpoint. Install uhttpd-mod-ubus, see " + urls.Uhttpd
			}
			return fmt.Sprintf("The router returned HTTP %d.", e.Code)
		case CauseStatus:
			if e.Code == ubusPermissionDenied {
				return "Permission denied. The ACL for this user does not allow " + e.Service + " " + e.Method + ". See " + urls.Ubus
			}
			if e.Code == ubusNotFound {
				return "The router does not provide " + e.Service + " " + e.Method + ". A package may be missing."
			}
			return fmt.Sprintf("ubus returned status %d for %s %s.", e.Code, e.Service, e.Method)
		default:
			return "Communication with the router failed. Check the connection and try again."
		}

	case ErrTypeNotFound:
		return "The radio or network was not found in the router configuration. It may have been renamed or removed."

	case ErrTypeConnect:
		return "The router state could not be read. The last known state is kept."

	default:
		return e.Message
	}
}

// isConnRefused reports a refused connection, used to tone down log levels
// while a router is rebooting.
func isConnRefused(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED)
}
