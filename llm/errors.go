package llm

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType is the category of a gateway error.
type ErrorType string

const (
	ErrorTypeProviderNotConfigured ErrorType = "provider_not_configured"
	ErrorTypeRateLimited           ErrorType = "rate_limited"
	ErrorTypeQuotaExceeded         ErrorType = "quota_exceeded"
	ErrorTypeBackend               ErrorType = "backend"
	ErrorTypeStructuredOutput      ErrorType = "structured_output"
	ErrorTypeAborted               ErrorType = "aborted"
	ErrorTypeStreamDecode          ErrorType = "stream_decode"
)

// Error is the provider-neutral error type raised by adapters and propagated
// by the dispatcher without reinterpretation.
type Error struct {
	Type       ErrorType
	Provider   string
	Message    string
	StatusCode int
	Retryable  bool
	RetryAfter *time.Duration
	Cause      error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Provider != "" {
		msg = fmt.Sprintf("%s: %s", e.Provider, msg)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewProviderNotConfigured creates the fatal error returned when a requested
// or default provider has no configuration entry.
func NewProviderNotConfigured(provider string) *Error {
	return &Error{
		Type:     ErrorTypeProviderNotConfigured,
		Provider: provider,
		Message:  fmt.Sprintf("provider %q is not configured", provider),
	}
}

// NewRateLimited creates a retryable HTTP 429-equivalent error.
func NewRateLimited(provider, message string, retryAfter *time.Duration, cause error) *Error {
	return &Error{
		Type:       ErrorTypeRateLimited,
		Provider:   provider,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
		Retryable:  true,
		RetryAfter: retryAfter,
		Cause:      cause,
	}
}

// NewQuotaExceeded creates the payment/credit-required error. Fatal for the
// current request.
func NewQuotaExceeded(provider, message string, cause error) *Error {
	return &Error{
		Type:       ErrorTypeQuotaExceeded,
		Provider:   provider,
		Message:    message,
		StatusCode: http.StatusPaymentRequired,
		Cause:      cause,
	}
}

// NewBackendError creates a typed failure for any other non-success HTTP
// status, carrying status and backend-provided message.
func NewBackendError(provider string, status int, message string, cause error) *Error {
	return &Error{
		Type:       ErrorTypeBackend,
		Provider:   provider,
		Message:    message,
		StatusCode: status,
		Retryable:  status >= http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewStructuredOutputError creates the error returned when model output is
// not valid JSON or fails schema validation.
func NewStructuredOutputError(message string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeStructuredOutput,
		Message: message,
		Cause:   cause,
	}
}

// NewAborted creates the error returned when a cancellation signal is
// observed.
func NewAborted(cause error) *Error {
	return &Error{
		Type:    ErrorTypeAborted,
		Message: "run aborted",
		Cause:   cause,
	}
}

// NewStreamDecodeError creates the error raised when a buffered stream
// payload never becomes parsable.
func NewStreamDecodeError(provider, message string, cause error) *Error {
	return &Error{
		Type:     ErrorTypeStreamDecode,
		Provider: provider,
		Message:  message,
		Cause:    cause,
	}
}

// ErrorFromStatus classifies a non-2xx HTTP status into the taxonomy so
// callers can apply different retry/backoff policies per category.
func ErrorFromStatus(provider string, status int, message string) *Error {
	switch status {
	case http.StatusTooManyRequests:
		return NewRateLimited(provider, message, nil, nil)
	case http.StatusPaymentRequired:
		return NewQuotaExceeded(provider, message, nil)
	default:
		return NewBackendError(provider, status, message, nil)
	}
}

func isType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsProviderNotConfigured reports whether err is a missing-provider error.
func IsProviderNotConfigured(err error) bool {
	return isType(err, ErrorTypeProviderNotConfigured)
}

// IsRateLimited reports whether err is an HTTP 429-equivalent error.
func IsRateLimited(err error) bool { return isType(err, ErrorTypeRateLimited) }

// IsQuotaExceeded reports whether err is a payment/credit-required error.
func IsQuotaExceeded(err error) bool { return isType(err, ErrorTypeQuotaExceeded) }

// IsBackendError reports whether err is a generic backend failure.
func IsBackendError(err error) bool { return isType(err, ErrorTypeBackend) }

// IsStructuredOutputError reports whether err is a structured-output parse or
// validation failure.
func IsStructuredOutputError(err error) bool { return isType(err, ErrorTypeStructuredOutput) }

// IsAborted reports whether err is a cancellation error.
func IsAborted(err error) bool { return isType(err, ErrorTypeAborted) }

// IsRetryable reports whether a caller-side retry with backoff is sensible.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// RetryAfterHint extracts the backend-suggested retry delay, if any.
func RetryAfterHint(err error) *time.Duration {
	var e *Error
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return nil
}
