// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package resources

import (
	"encoding/json"
	"fmt"

	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"

	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/transport"
)

// ParseProperties unmarshals JSON properties from a request into a map.
// Returns an error if the properties cannot be parsed.
func ParseProperties(data []byte) (map[string]interface{}, error) {
	var props map[string]interface{}
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("failed to parse resource properties: %w", err)
	}
	return props, nil
}

// MarshalProperties marshals a properties map to a JSON string.
func MarshalProperties(props map[string]interface{}) (string, error) {
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("failed to marshal properties: %w", err)
	}
	return string(propsJSON), nil
}

// NewFailureResult creates a standardized failure ProgressResult.
func NewFailureResult(op resource.Operation, errCode resource.OperationErrorCode, nativeID string) *resource.ProgressResult {
	result := &resource.ProgressResult{
		Operation:       op,
		OperationStatus: resource.OperationStatusFailure,
		ErrorCode:       errCode,
	}
	if nativeID != "" {
		result.NativeID = nativeID
	}
	return result
}

// NewFailureResultWithMessage creates a standardized failure ProgressResult with a status message.
func NewFailureResultWithMessage(op resource.Operation, errCode resource.OperationErrorCode, nativeID string, message string) *resource.ProgressResult {
	result := NewFailureResult(op, errCode, nativeID)
	result.StatusMessage = message
	return result
}

// NewSuccessResult creates a ProgressResult for an operation that completed synchronously
func NewSuccessResult(op resource.Operation, nativeID string, propsJSON string) *resource.ProgressResult {
	result := &resource.ProgressResult{
		Operation:       op,
		OperationStatus: resource.OperationStatusSuccess,
		NativeID:        nativeID,
	}
	if propsJSON != "" {
		result.ResourceProperties = []byte(propsJSON)
	}
	return result
}

// MapErrorToOperationErrorCode maps entity API errors to standard operation error codes
func MapErrorToOperationErrorCode(err error) resource.OperationErrorCode {
	if err == nil {
		return ""
	}
	return transport.ErrorCodeOf(err)
}
