package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// Kind represents the category of a relay failure
type Kind int

const (
	// KindServerUnreachable: the controller is not connected to the relay (code 0)
	KindServerUnreachable Kind = iota
	// KindInvalidCredentials: login details incorrect (code 1)
	KindInvalidCredentials
	// KindIdentifierInUse: the chosen ID is already in use (code 2)
	KindIdentifierInUse
	// KindInvalidIdentifier: invalid ID (code 4)
	KindInvalidIdentifier
	// KindAccountConflict: the account is in use by another user (code 9)
	KindAccountConflict
	// KindUpdateRequired: automatic software update needed (code 201)
	KindUpdateRequired
	// KindServiceInspection: relay under maintenance (code 202)
	KindServiceInspection
	// KindServiceShuttingDown: the service is being shut down (code 203)
	KindServiceShuttingDown
	// KindClientVersionTooOld: client version rejected (code 210)
	KindClientVersionTooOld
	// KindTransientServer: generic "try again later" (code 999)
	KindTransientServer
	// KindMalformedResponse: a success envelope without its payload
	KindMalformedResponse
	// KindNetwork: connection refused, DNS, unreachable, ...
	KindNetwork
	// KindTimeout: the request deadline expired
	KindTimeout
	// KindHTTP: the relay answered with a non-200 status
	KindHTTP
)

var kindNames = map[Kind]string{
	KindServerUnreachable:   "Server Unreachable",
	KindInvalidCredentials:  "Invalid Credentials",
	KindIdentifierInUse:     "Identifier In Use",
	KindInvalidIdentifier:   "Invalid Identifier",
	KindAccountConflict:     "Account Conflict",
	KindUpdateRequired:      "Update Required",
	KindServiceInspection:   "Service Inspection",
	KindServiceShuttingDown: "Service Shutting Down",
	KindClientVersionTooOld: "Client Version Too Old",
	KindTransientServer:     "Transient Server Error",
	KindMalformedResponse:   "Malformed Response",
	KindNetwork:             "Network Error",
	KindTimeout:             "Timeout",
	KindHTTP:                "HTTP Error",
}

// String returns a human-readable name for the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Advisory reports whether the condition may clear on its own, so a caller
// may try again later. Everything else is fatal for the current inputs.
func (k Kind) Advisory() bool {
	switch k {
	case KindServerUnreachable, KindAccountConflict, KindServiceInspection,
		KindTransientServer, KindNetwork, KindTimeout:
		return true
	}
	return false
}

// Error is a classified relay failure
type Error struct {
	Kind       Kind   // Category of error
	Code       string // Relay response code, empty for transport failures
	Message    string // Human-readable error message
	Detail     string // Extra data, e.g. the inspection window for KindServiceInspection
	StatusCode int    // HTTP status code (KindHTTP only)
	Err        error  // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if e.Detail != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Detail)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same Kind, so callers can write
// errors.Is(err, &relay.Error{Kind: relay.KindInvalidCredentials})
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// classifyTransportError turns an HTTP client error into a KindNetwork or
// KindTimeout error
func classifyTransportError(message string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return &Error{Kind: KindTimeout, Message: message + ": request timed out", Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: message + ": request timed out", Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &Error{Kind: KindNetwork, Message: fmt.Sprintf("%s: DNS resolution failed for %s", message, dnsErr.Name), Err: err}
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return &Error{Kind: KindNetwork, Message: message + ": connection refused", Err: err}
	case errors.Is(err, syscall.EHOSTUNREACH):
		return &Error{Kind: KindNetwork, Message: message + ": host unreachable", Err: err}
	case errors.Is(err, syscall.ENETUNREACH):
		return &Error{Kind: KindNetwork, Message: message + ": network unreachable", Err: err}
	}

	return &Error{Kind: KindNetwork, Message: message, Err: err}
}

// KindOf returns the Kind of a relay error
func KindOf(err error) (Kind, bool) {
	var relayErr *Error
	if errors.As(err, &relayErr) {
		return relayErr.Kind, true
	}
	return 0, false
}

// IsRetryable reports whether err is an advisory relay error. The client
// never retries by itself; this is for callers that want to.
func IsRetryable(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind.Advisory()
}

// Hint returns user-facing troubleshooting advice for an error
func Hint(err error) string {
	var relayErr *Error
	if !errors.As(err, &relayErr) {
		return "An unexpected error occurred. Please try again."
	}

	switch relayErr.Kind {
	case KindServerUnreachable:
		return strings.Join([]string{
			"The controller is not connected to the Navien server.",
			"Troubleshooting:",
			"  • Check the controller's Wi-Fi network",
			"  • Wait until the connection to the server is restored automatically",
		}, "\n")

	case KindInvalidCredentials:
		return strings.Join([]string{
			"Login failed.",
			"Troubleshooting:",
			"  • User ID and password are case-sensitive",
			"  • Check the account in the NaviLink app",
		}, "\n")

	case KindAccountConflict:
		return "The account is in use by another user. Try again later."

	case KindServiceInspection:
		if relayErr.Detail != "" {
			return fmt.Sprintf("The service is under inspection (hours: %s). Wait until it is done and try again.", relayErr.Detail)
		}
		return "The service is under inspection. Wait until it is done and try again."

	case KindUpdateRequired, KindClientVersionTooOld:
		return "The relay rejected this client version."

	case KindServiceShuttingDown:
		return "The relay reports the service is shutting down."

	case KindTransientServer:
		return "The relay asked to try again later."

	case KindTimeout:
		return strings.Join([]string{
			"The relay did not respond in time.",
			"Troubleshooting:",
			"  • Check your internet connection",
			"  • Try increasing --timeout",
		}, "\n")

	case KindNetwork:
		return strings.Join([]string{
			"Could not reach the relay.",
			"Troubleshooting:",
			"  • Check your internet connection and DNS",
			"  • Verify --relay-url / --address if overridden",
		}, "\n")

	case KindHTTP:
		return fmt.Sprintf("The relay returned HTTP %d.", relayErr.StatusCode)

	case KindMalformedResponse:
		return "The relay returned a response this client does not understand."

	default:
		return relayErr.Message
	}
}
