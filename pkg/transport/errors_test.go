package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
	"github.com/stretchr/testify/assert"
)

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		statusCode int
		want       ErrorCode
	}{
		{400, ErrorCodeInvalidInput},
		{401, ErrorCodeUnauthorized},
		{403, ErrorCodeUnauthorized},
		{404, ErrorCodeResourceNotFound},
		{409, ErrorCodeAlreadyExists},
		{422, ErrorCodeInvalidInput},
		{429, ErrorCodeThrottling},
		{500, ErrorCodeInternalError},
		{200, ErrorCodeNone},
		{202, ErrorCodeNone},
		{418, ErrorCodeUnknown},
	}

	for _, tt := range tests {
		got := ClassifyHTTPStatus(tt.statusCode)
		if got != tt.want {
			t.Errorf("ClassifyHTTPStatus(%d) = %v, want %v", tt.statusCode, got, tt.want)
		}
	}
}

func TestToResourceErrorCode(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want resource.OperationErrorCode
	}{
		{ErrorCodeInvalidInput, resource.OperationErrorCodeInvalidRequest},
		{ErrorCodeUnauthorized, resource.OperationErrorCodeAccessDenied},
		{ErrorCodeResourceNotFound, resource.OperationErrorCodeNotFound},
		{ErrorCodeAlreadyExists, resource.OperationErrorCodeAlreadyExists},
		{ErrorCodeUnknown, resource.OperationErrorCodeServiceInternalError},
	}

	for _, tt := range tests {
		got := ToResourceErrorCode(tt.code)
		if got != tt.want {
			t.Errorf("ToResourceErrorCode(%v) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestHTTPErrorMessage(t *testing.T) {
	err := NewHTTPError(500, "boom", nil)
	assert.Equal(t, `REST endpoint responded with HTTP 500: "boom"`, err.Error())

	err = NewError(ErrorCodeUnknown, "connection refused", nil)
	assert.Equal(t, "UNKNOWN: connection refused", err.Error())
}

func TestIsNotFoundThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("failed to delete entity web: %w", NewHTTPError(404, "", nil))

	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, resource.OperationErrorCodeNotFound, ErrorCodeOf(wrapped))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.Equal(t, resource.OperationErrorCodeServiceInternalError, ErrorCodeOf(errors.New("plain")))
}

func TestParseResponse(t *testing.T) {
	resp, err := ParseResponse(200, []byte(`{"id": 1, "name": "web"}`))
	assert.NoError(t, err)
	assert.Equal(t, "web", resp.Body["name"])
	assert.Nil(t, resp.BodyArray)

	resp, err = ParseResponse(200, []byte(`[{"id": 1}, {"id": 2}]`))
	assert.NoError(t, err)
	assert.Len(t, resp.BodyArray, 2)

	resp, err = ParseResponse(204, nil)
	assert.NoError(t, err)
	assert.True(t, resp.IsEmpty())

	resp, err = ParseResponse(200, []byte("null"))
	assert.NoError(t, err)
	assert.True(t, resp.IsEmpty())

	_, err = ParseResponse(200, []byte("<html>"))
	assert.Error(t, err)

	_, err = ParseResponse(200, []byte(`"just a string"`))
	assert.Error(t, err)

	_, err = ParseResponse(200, []byte(`{"id": 1} {"id": 2}`))
	assert.Error(t, err)
}

func TestParseResponse_KeepsExactNumbers(t *testing.T) {
	resp, err := ParseResponse(200, []byte(`[{"id": 9007199254740993, "attributes": {"ratio": 0.5}}]`))
	assert.NoError(t, err)
	assert.Len(t, resp.BodyArray, 1)

	doc := resp.BodyArray[0].(map[string]interface{})
	assert.Equal(t, json.Number("9007199254740993"), doc["id"])
	assert.Equal(t, map[string]interface{}{"ratio": json.Number("0.5")}, doc["attributes"])
}
