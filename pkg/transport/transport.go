// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Client is implemented by every transport backend
type Client interface {
	Do(ctx context.Context, opts RequestOptions) (*Response, error)
}

// RequestOptions defines options for an API request
type RequestOptions struct {
	Method string
	Path   string
	Body   interface{} // Can be map[string]interface{} or []interface{} for array bodies
}

// Response represents an API response
type Response struct {
	StatusCode int
	Body       map[string]interface{}
	BodyArray  []interface{}
	Raw        json.RawMessage
}

// IsEmpty reports whether the API answered without a document (204, empty body or JSON null)
func (r *Response) IsEmpty() bool {
	return r.Body == nil && r.BodyArray == nil
}

// Get issues a GET against the endpoint
func Get(ctx context.Context, c Client, endpoint string) (*Response, error) {
	return c.Do(ctx, RequestOptions{Method: http.MethodGet, Path: endpoint})
}

// Post issues a POST with a JSON document
func Post(ctx context.Context, c Client, endpoint string, body interface{}) (*Response, error) {
	return c.Do(ctx, RequestOptions{Method: http.MethodPost, Path: endpoint, Body: body})
}

// Put issues a PUT with a JSON document
func Put(ctx context.Context, c Client, endpoint string, body interface{}) (*Response, error) {
	return c.Do(ctx, RequestOptions{Method: http.MethodPut, Path: endpoint, Body: body})
}

// Delete issues a DELETE against the endpoint
func Delete(ctx context.Context, c Client, endpoint string) (*Response, error) {
	return c.Do(ctx, RequestOptions{Method: http.MethodDelete, Path: endpoint})
}

// ParseResponse converts a raw JSON document to a Response.
// An empty document or JSON null yields an empty response. Numbers are kept
// as json.Number so large identifiers survive decoding exactly.
func ParseResponse(statusCode int, raw []byte) (*Response, error) {
	resp := &Response{StatusCode: statusCode}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return resp, nil
	}
	resp.Raw = json.RawMessage(raw)

	var doc interface{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse response: %s", string(raw))
	}
	if decoder.More() {
		return nil, fmt.Errorf("failed to parse response: trailing data after JSON document: %s", string(raw))
	}

	switch v := doc.(type) {
	case nil:
	case map[string]interface{}:
		resp.Body = v
	case []interface{}:
		resp.BodyArray = v
	default:
		return nil, fmt.Errorf("unexpected JSON document in response: %s", string(raw))
	}
	return resp, nil
}
