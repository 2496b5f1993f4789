package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	// Fetch failures.
	ErrCodeNetwork    = "NETWORK_ERROR"
	ErrCodeHTTPStatus = "HTTP_STATUS"

	// Parse failures.
	ErrCodeNoTables      = "NO_TABLES"
	ErrCodeTableNotFound = "TABLE_NOT_FOUND"

	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string

	// StatusCode is the upstream HTTP status for ErrCodeHTTPStatus, else 0.
	StatusCode int

	Err error // wrapped original error
}

func (e *ScrapeError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// NewStatusError reports an upstream response with a 4xx/5xx status.
func NewStatusError(url string, status int) *ScrapeError {
	return &ScrapeError{
		Code:       ErrCodeHTTPStatus,
		Message:    "unexpected status for " + url,
		StatusCode: status,
	}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message, StatusCode: e.StatusCode}
}

// AsScrapeError finds the first ScrapeError in err's chain.
func AsScrapeError(err error) (*ScrapeError, bool) {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// ErrorCode returns the code of the first ScrapeError in err's chain,
// or "" if there is none.
func ErrorCode(err error) string {
	if se, ok := AsScrapeError(err); ok {
		return se.Code
	}
	return ""
}
