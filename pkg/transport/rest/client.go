// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package rest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gophercloud/gophercloud/v2"
	"go.uber.org/zap"

	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/transport"
)

const userAgent = "formae-plugin-restful"

// successCodes is every 2xx status; anything else is an error
var successCodes = func() []int {
	codes := make([]int, 0, 100)
	for code := 200; code < 300; code++ {
		codes = append(codes, code)
	}
	return codes
}()

// BasicConfig holds what is needed to reach an entity API with basic authentication
type BasicConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// Client performs synchronous JSON requests against a base URL through a
// gophercloud provider client. With basic authentication the provider holds
// no token and never reauthenticates.
type Client struct {
	baseURL       string
	authorization string
	provider      *gophercloud.ProviderClient
	logger        *zap.Logger
}

var _ transport.Client = &Client{}

// NewClient creates a REST client from config
func NewClient(cfg *BasicConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	provider := &gophercloud.ProviderClient{
		HTTPClient: http.Client{Timeout: cfg.Timeout},
	}
	provider.UseTokenLock()
	provider.UserAgent.Prepend(userAgent)

	credentials := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))

	return &Client{
		baseURL:       cfg.BaseURL,
		authorization: "Basic " + credentials,
		provider:      provider,
		logger:        logger,
	}, nil
}

// NewClientWithProvider creates a REST client on top of a provider client that
// already carries its own authentication, such as a Keystone token
func NewClientWithProvider(baseURL string, provider *gophercloud.ProviderClient, logger *zap.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("provider client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	provider.UserAgent.Prepend(userAgent)

	return &Client{
		baseURL:  baseURL,
		provider: provider,
		logger:   logger,
	}, nil
}

// URL returns the request URI for an endpoint suffix
func (c *Client) URL(endpoint string) string {
	return c.baseURL + endpoint
}

// Do executes an API request
func (c *Client) Do(ctx context.Context, opts transport.RequestOptions) (*transport.Response, error) {
	switch opts.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return nil, fmt.Errorf("unsupported method: %s", opts.Method)
	}

	url := c.URL(opts.Path)
	requestID := uuid.NewString()
	log := c.logger.With(
		zap.String("method", opts.Method),
		zap.String("url", url),
		zap.String("request_id", requestID),
	)

	reqOpts := &gophercloud.RequestOpts{
		OkCodes:          successCodes,
		KeepResponseBody: true,
		MoreHeaders: map[string]string{
			"Accept":       "application/json",
			"X-Request-Id": requestID,
		},
	}
	if c.authorization != "" {
		reqOpts.MoreHeaders["Authorization"] = c.authorization
	}
	if opts.Body != nil {
		reqOpts.JSONBody = opts.Body
	}

	log.Debug("sending request")
	started := time.Now()

	resp, err := c.provider.Request(ctx, opts.Method, url, reqOpts)
	if err != nil {
		log.Debug("request failed", zap.Duration("elapsed", time.Since(started)), zap.Error(err))
		return nil, classifyError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transport.NewError(transport.ErrorCodeUnknown, "failed to read response body", err)
	}

	log.Debug("received response",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
		zap.Duration("elapsed", time.Since(started)),
	)

	return transport.ParseResponse(resp.StatusCode, raw)
}

// classifyError converts gophercloud errors to transport errors
func classifyError(err error) error {
	var unexpected gophercloud.ErrUnexpectedResponseCode
	if errors.As(err, &unexpected) {
		return transport.NewHTTPError(unexpected.Actual, string(unexpected.Body), err)
	}

	return transport.NewError(transport.ErrorCodeUnknown, err.Error(), err)
}
