package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrExternalAPI   = errors.New("external api error")
	ErrConversion    = errors.New("conversion error")

	ErrEmptyScript  = errors.New("empty script")
	ErrMissingTitle = errors.New("missing title")
)

// ConfigError reports missing or invalid settings. It is fatal at startup.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	var sb strings.Builder
	sb.WriteString("config")
	if e.Field != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Field)
	}
	if e.Reason != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Reason)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}

// APIError is a failed call to the document database or the language model.
type APIError struct {
	Service    string
	Operation  string
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Service, e.Operation)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) Is(target error) bool {
	return target == ErrExternalAPI
}

// Retryable reports whether repeating the call may succeed.
// Transport failures, rate limits and server errors qualify.
func (e *APIError) Retryable() bool {
	if e.StatusCode == 0 {
		return e.Err != nil
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

// IsRateLimited reports whether err carries a 429 response. The server rejected
// such a request without applying it.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// IsRetryable reports whether err carries a retryable APIError.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}
