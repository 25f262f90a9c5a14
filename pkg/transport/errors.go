// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package transport

import (
	"errors"
	"fmt"

	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
)

// ErrorCode represents transport-level error classifications
type ErrorCode string

const (
	ErrorCodeNone             ErrorCode = "NONE"
	ErrorCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrorCodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	ErrorCodeResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"
	ErrorCodeAlreadyExists    ErrorCode = "ALREADY_EXISTS"
	ErrorCodeThrottling       ErrorCode = "THROTTLING"
	ErrorCodeInternalError    ErrorCode = "INTERNAL_ERROR"
	ErrorCodeUnknown          ErrorCode = "UNKNOWN"
)

// Error represents a transport layer error with classification.
// HTTPCode is zero when the request never produced a response.
type Error struct {
	Code       ErrorCode
	Message    string
	HTTPCode   int
	Body       string
	Underlying error
}

func (e *Error) Error() string {
	if e.HTTPCode != 0 {
		return fmt.Sprintf("REST endpoint responded with HTTP %d: %q", e.HTTPCode, e.Body)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// ClassifyHTTPStatus maps HTTP status codes to error codes
func ClassifyHTTPStatus(statusCode int) ErrorCode {
	switch statusCode {
	case 200, 201, 204:
		return ErrorCodeNone
	case 400, 422:
		return ErrorCodeInvalidInput
	case 401, 403:
		return ErrorCodeUnauthorized
	case 404:
		return ErrorCodeResourceNotFound
	case 409:
		return ErrorCodeAlreadyExists
	case 429:
		return ErrorCodeThrottling
	case 500, 502, 503:
		return ErrorCodeInternalError
	default:
		if statusCode >= 200 && statusCode < 300 {
			return ErrorCodeNone
		}
		return ErrorCodeUnknown
	}
}

// IsSuccess reports whether the status is in the 2xx range
func IsSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// ToResourceErrorCode converts transport error code to formae resource error code
func ToResourceErrorCode(code ErrorCode) resource.OperationErrorCode {
	switch code {
	case ErrorCodeInvalidInput:
		return resource.OperationErrorCodeInvalidRequest
	case ErrorCodeUnauthorized:
		return resource.OperationErrorCodeAccessDenied
	case ErrorCodeResourceNotFound:
		return resource.OperationErrorCodeNotFound
	case ErrorCodeAlreadyExists:
		return resource.OperationErrorCodeAlreadyExists
	case ErrorCodeThrottling:
		return resource.OperationErrorCodeThrottling
	case ErrorCodeInternalError:
		return resource.OperationErrorCodeServiceInternalError
	default:
		return resource.OperationErrorCodeServiceInternalError
	}
}

// ErrorCodeOf returns the formae error code for any error returned by a transport
func ErrorCodeOf(err error) resource.OperationErrorCode {
	var transportErr *Error
	if errors.As(err, &transportErr) {
		return ToResourceErrorCode(transportErr.Code)
	}
	return resource.OperationErrorCodeServiceInternalError
}

// IsNotFound reports whether err is a transport error for a missing resource
func IsNotFound(err error) bool {
	var transportErr *Error
	return errors.As(err, &transportErr) && transportErr.Code == ErrorCodeResourceNotFound
}

// NewError creates a new transport error
func NewError(code ErrorCode, message string, underlying error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: underlying,
	}
}

// NewHTTPError creates a transport error for an unsuccessful HTTP response
func NewHTTPError(statusCode int, body string, underlying error) *Error {
	return &Error{
		Code:       ClassifyHTTPStatus(statusCode),
		Message:    body,
		HTTPCode:   statusCode,
		Body:       body,
		Underlying: underlying,
	}
}
