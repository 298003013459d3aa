package univerify

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Standard errors returned by the SDK.
var (
	// ErrValidation indicates invalid input parameters.
	ErrValidation = errors.New("validation error")
	// ErrAuthRequired indicates an authenticated call was attempted without a token.
	ErrAuthRequired = errors.New("authentication required")
	// ErrAuthentication indicates the backend rejected the credentials.
	ErrAuthentication = errors.New("authentication failed")
	// ErrForbidden indicates the caller may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = errors.New("not found")
	// ErrRateLimit indicates too many requests.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrFileTooLarge indicates the file exceeds size limits.
	ErrFileTooLarge = errors.New("file too large")
	// ErrUnsupportedType indicates the file type is not in the allow-list.
	ErrUnsupportedType = errors.New("file type not supported")
	// ErrServer indicates the backend failed with a 5xx status.
	ErrServer = errors.New("server error")
	// ErrNetwork indicates the request never produced an HTTP response.
	ErrNetwork = errors.New("network error")
	// ErrRejected indicates the backend answered 2xx but reported success=false.
	ErrRejected = errors.New("request rejected")
	// ErrMalformedResponse indicates the backend answered with an unexpected payload.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrConfirmationTimeout indicates the transaction was not confirmed within the retry budget.
	ErrConfirmationTimeout = errors.New("transaction confirmation timeout")
)

// APIError represents an error returned by the HTTP request layer.
// StatusCode is 0 for failures that never produced an HTTP response.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Message is the error message.
	Message string
	// Payload is the parsed error body, when the backend sent JSON.
	Payload map[string]any
	// Err is the underlying error type.
	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (status %d)", e.Err.Error(), e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for errors.Is.
func (e *APIError) Is(target error) bool {
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// ValidationError represents an input validation failure.
type ValidationError struct {
	// Field is the name of the invalid field.
	Field string
	// Message describes what's wrong.
	Message string
	// Err optionally narrows the failure (ErrFileTooLarge, ErrUnsupportedType).
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Is implements error comparison.
func (e *ValidationError) Is(target error) bool {
	if errors.Is(ErrValidation, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// Unwrap returns ErrValidation for errors.Is support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ConfirmationTimeoutError is returned when a transaction never reached the
// confirmed status within the poller's retry budget.
type ConfirmationTimeoutError struct {
	// Hash is the transaction hash that was polled.
	Hash string
	// Attempts is the number of status fetches performed.
	Attempts int
	// LastStatus is the last status observed, empty if none was observed.
	LastStatus string
}

// Error implements the error interface.
func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("transaction confirmation timeout (hash=%s, attempts=%d, last_status=%q)", e.Hash, e.Attempts, e.LastStatus)
}

// StatusCode mirrors the HTTP Request Timeout code used for this condition.
func (e *ConfirmationTimeoutError) StatusCode() int {
	return http.StatusRequestTimeout
}

// Unwrap returns ErrConfirmationTimeout for errors.Is support.
func (e *ConfirmationTimeoutError) Unwrap() error {
	return ErrConfirmationTimeout
}

// newAPIError creates an APIError from an HTTP response.
func newAPIError(statusCode int, message string, payload map[string]any) *APIError {
	err := &APIError{
		StatusCode: statusCode,
		Message:    sanitizeErrorMessage(message),
		Payload:    payload,
	}

	// Map status codes to error types
	switch {
	case statusCode == http.StatusBadRequest:
		err.Err = ErrValidation
	case statusCode == http.StatusUnauthorized:
		err.Err = ErrAuthentication
	case statusCode == http.StatusForbidden:
		err.Err = ErrForbidden
	case statusCode == http.StatusNotFound:
		err.Err = ErrNotFound
	case statusCode == http.StatusRequestEntityTooLarge:
		err.Err = ErrFileTooLarge
	case statusCode == http.StatusUnsupportedMediaType:
		err.Err = ErrUnsupportedType
	case statusCode == http.StatusTooManyRequests:
		err.Err = ErrRateLimit
	case statusCode >= 500:
		err.Err = ErrServer
	}

	return err
}

// authRequiredError is the local precondition failure raised before any
// network call when an authenticated operation has no token.
func authRequiredError(operation string) *APIError {
	return &APIError{
		StatusCode: http.StatusUnauthorized,
		Message:    fmt.Sprintf("Authentication token is required for %s", operation),
		Err:        ErrAuthRequired,
	}
}

// networkError wraps a transport failure as a status-0 APIError.
func networkError(err error) *APIError {
	return &APIError{
		StatusCode: 0,
		Message:    fmt.Sprintf("Network error: %v", err),
		Err:        ErrNetwork,
	}
}

// malformedError reports a payload that did not match the expected envelope.
func malformedError(statusCode int, detail string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Message:    detail,
		Err:        ErrMalformedResponse,
	}
}

// sanitizeErrorMessage removes potentially sensitive information from error messages.
func sanitizeErrorMessage(msg string) string {
	sensitivePatterns := []string{
		"password",
		"secret",
		"private key",
		"authorization",
		"cookie",
		"credential",
		"bearer",
	}

	if containsAny(msg, sensitivePatterns...) {
		return "request failed"
	}
	return msg
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
