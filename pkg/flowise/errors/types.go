package errors

import "fmt"

// StatusError is a non-2xx response from the Flowise API.
type StatusError struct {
	StatusCode int
	Body       string
	Method     string
	Endpoint   string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// TimeoutError indicates a request exceeded its deadline.
type TimeoutError struct {
	Endpoint string
	Err      error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// ConnectError indicates the Flowise server could not be reached.
type ConnectError struct {
	BaseURL string
	Err     error
}

// Error implements the error interface.
func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to Flowise at %s: %v", e.BaseURL, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *ConnectError) Unwrap() error {
	return e.Err
}

// InputError is a tool argument that failed validation.
type InputError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid input %s: %s", e.Field, e.Message)
	}
	return "invalid input: " + e.Message
}

// InvalidInput creates an InputError.
func InvalidInput(field, format string, args ...any) *InputError {
	return &InputError{Field: field, Message: fmt.Sprintf(format, args...)}
}
