package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode categorizes application errors. Handlers map codes to HTTP
// statuses through HTTPStatus; everything the transport layer returns to a
// client goes through one of these.
type ErrorCode string

const (
	CodeInvalidJSON         ErrorCode = "invalid_json"
	CodeInvalidRegion       ErrorCode = "invalid_region"
	CodeInvalidWindow       ErrorCode = "invalid_window"
	CodeNoDataAvailable     ErrorCode = "no_data_available"
	CodeExportFailed        ErrorCode = "export_failed"
	CodeProviderTimeout     ErrorCode = "provider_timeout"
	CodeProviderUnavailable ErrorCode = "provider_unavailable"
	CodeInternal            ErrorCode = "internal_error"
)

// HTTPStatus maps an error code to its response status. Validation failures
// are the caller's fault; provider failures are upstream problems.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case CodeInvalidJSON, CodeInvalidRegion, CodeInvalidWindow:
		return http.StatusBadRequest
	case CodeProviderTimeout:
		return http.StatusGatewayTimeout
	case CodeProviderUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is the standard application error: a code, a client-safe message and
// an optional wrapped cause that never leaves the process.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the response status for this error.
func (e *Error) HTTPStatus() int { return e.Code.HTTPStatus() }

// E builds an *Error. err may be nil.
func E(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf extracts the ErrorCode from an error chain, or CodeInternal if the
// chain carries no *Error.
func CodeOf(err error) ErrorCode {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}
