// Package errors classifies Flowise transport failures and renders them for
// tool callers.
//
// Every failure maps to exactly one Kind, and every Kind has exactly one
// rendering rule in Format. Retry decisions are derived from the Kind through
// Categorize, and WithRetryContext applies them with exponential backoff.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Kind is the closed set of transport failure kinds.
type Kind int

const (
	// KindUnknown is any error not produced by the Flowise client.
	KindUnknown Kind = iota

	// KindAuthentication is HTTP 401.
	KindAuthentication

	// KindPermission is HTTP 403.
	KindPermission

	// KindNotFound is HTTP 404.
	KindNotFound

	// KindRateLimited is HTTP 429.
	KindRateLimited

	// KindServer is any HTTP status >= 500.
	KindServer

	// KindStatus is any other non-2xx status.
	KindStatus

	// KindTimeout is a request that exceeded its deadline.
	KindTimeout

	// KindConnect is a failure to reach the server at all.
	KindConnect

	// KindInvalidInput is a tool argument rejected before any request was made.
	KindInvalidInput
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	case KindStatus:
		return "status"
	case KindTimeout:
		return "timeout"
	case KindConnect:
		return "connect"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "unknown"
	}
}

// KindForStatus maps a non-2xx HTTP status code to its Kind.
func KindForStatus(status int) Kind {
	switch {
	case status == 401:
		return KindAuthentication
	case status == 403:
		return KindPermission
	case status == 404:
		return KindNotFound
	case status == 429:
		return KindRateLimited
	case status >= 500:
		return KindServer
	default:
		return KindStatus
	}
}

// KindOf classifies err. Wrapped errors are unwrapped.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return KindForStatus(statusErr.StatusCode)
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return KindTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var connectErr *ConnectError
	if errors.As(err, &connectErr) {
		return KindConnect
	}

	var inputErr *InputError
	if errors.As(err, &inputErr) {
		return KindInvalidInput
	}

	return KindUnknown
}

// Format renders err as a single user-facing line.
func Format(err error) string {
	if err == nil {
		return ""
	}

	switch KindOf(err) {
	case KindAuthentication:
		return "Error: Authentication failed. Please check your FLOWISE_API_KEY environment variable."
	case KindPermission:
		return "Error: Permission denied. Your API key may not have access to this resource."
	case KindNotFound:
		return "Error: Resource not found. Please verify the flow ID is correct."
	case KindRateLimited:
		return "Error: Rate limit exceeded. Please wait before making more requests."
	case KindServer:
		var statusErr *StatusError
		errors.As(err, &statusErr)
		return fmt.Sprintf("Error: Flowise server error (status %d). Check if Flowise is running.", statusErr.StatusCode)
	case KindStatus:
		var statusErr *StatusError
		errors.As(err, &statusErr)
		return fmt.Sprintf("Error: API request failed with status %d: %s", statusErr.StatusCode, statusErr.Body)
	case KindTimeout:
		return "Error: Request timed out. The Flowise server may be overloaded or unreachable."
	case KindConnect:
		return "Error: Could not connect to Flowise. Verify FLOWISE_BASE_URL and that Flowise is running."
	case KindInvalidInput:
		var inputErr *InputError
		errors.As(err, &inputErr)
		return "Error: " + inputErr.Message
	default:
		return "Error: " + err.Error()
	}
}
