// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package ovh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ovh/go-ovh/ovh"
	"go.uber.org/zap"

	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/transport"
)

// Client sends entity API requests through the OVH API gateway.
// Every call is signed with the application credentials by go-ovh.
type Client struct {
	ovh      *ovh.Client
	basePath string
	logger   *zap.Logger
}

var _ transport.Client = &Client{}

// OVHConfig holds OVH REST API credentials
type OVHConfig struct {
	Endpoint          string
	BasePath          string // entity collection path below the endpoint, e.g. /me/entities
	ApplicationKey    string
	ApplicationSecret string
	ConsumerKey       string
	Timeout           time.Duration // zero keeps the go-ovh default
}

// NewClient creates a new OVH API client from config
func NewClient(cfg *OVHConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "ovh-eu" // default
	}

	ovhClient, err := ovh.NewClient(endpoint, cfg.ApplicationKey, cfg.ApplicationSecret, cfg.ConsumerKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create OVH client: %w", err)
	}
	if cfg.Timeout > 0 {
		if ovhClient.Client == nil {
			ovhClient.Client = &http.Client{}
		}
		ovhClient.Client.Timeout = cfg.Timeout
	}
	return &Client{ovh: ovhClient, basePath: cfg.BasePath, logger: logger}, nil
}

// Do executes an API request
func (c *Client) Do(ctx context.Context, opts transport.RequestOptions) (*transport.Response, error) {
	var result json.RawMessage
	var err error

	path := c.basePath + opts.Path
	c.logger.Debug("sending signed request", zap.String("method", opts.Method), zap.String("path", path))

	switch opts.Method {
	case http.MethodGet:
		err = c.ovh.GetWithContext(ctx, path, &result)
	case http.MethodPost:
		err = c.ovh.PostWithContext(ctx, path, opts.Body, &result)
	case http.MethodPut:
		err = c.ovh.PutWithContext(ctx, path, opts.Body, &result)
	case http.MethodDelete:
		err = c.ovh.DeleteWithContext(ctx, path, &result)
	default:
		return nil, fmt.Errorf("unsupported method: %s", opts.Method)
	}

	if err != nil {
		return nil, classifyError(err)
	}

	// go-ovh only returns successful responses without an error
	return transport.ParseResponse(http.StatusOK, result)
}

// classifyError converts OVH errors to transport errors
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	// go-ovh returns APIError for HTTP errors
	var apiErr *ovh.APIError
	if errors.As(err, &apiErr) {
		return transport.NewHTTPError(apiErr.Code, apiErr.Message, err)
	}

	return transport.NewError(transport.ErrorCodeUnknown, err.Error(), err)
}
