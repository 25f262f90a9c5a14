// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package client

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/config"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/transport"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/transport/openstack"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/transport/ovh"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/transport/rest"
)

// Client wraps the transport selected by the configuration
type Client struct {
	Config *config.Config

	// Transport used for every entity API call (basic auth, OVH signed or Keystone token)
	Transport transport.Client

	Logger *zap.Logger
}

// NewClient creates a new entity API client for the configured auth mode
func NewClient(cfg *config.Config, logger *zap.Logger) (*Client, error) {
	return NewClientWithContext(context.Background(), cfg, logger)
}

// NewClientWithContext is NewClient with a context bounding the Keystone
// authentication round trip
func NewClientWithContext(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		t   transport.Client
		err error
	)
	switch cfg.Auth {
	case config.AuthOVH:
		t, err = ovh.NewClient(&ovh.OVHConfig{
			Endpoint:          cfg.OVHEndpoint,
			BasePath:          cfg.URL,
			ApplicationKey:    cfg.ApplicationKey,
			ApplicationSecret: cfg.ApplicationSecret,
			ConsumerKey:       cfg.ConsumerKey,
			Timeout:           cfg.RequestTimeout(),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create OVH transport: %w", err)
		}
	case config.AuthKeystone:
		t, err = openstack.NewClient(ctx, &openstack.Config{
			BaseURL:        cfg.URL,
			AuthURL:        cfg.Keystone.AuthURL,
			Username:       cfg.Keystone.Username,
			Password:       cfg.Keystone.Password,
			ProjectID:      cfg.Keystone.ProjectID,
			UserDomainName: cfg.Keystone.UserDomainName,
			Timeout:        cfg.RequestTimeout(),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Keystone transport: %w", err)
		}
	case config.AuthBasic, "":
		t, err = rest.NewClient(&rest.BasicConfig{
			BaseURL:  cfg.URL,
			Username: cfg.Username,
			Password: cfg.Password,
			Timeout:  cfg.RequestTimeout(),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create REST transport: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported auth %q", cfg.Auth)
	}

	return &Client{
		Config:    cfg,
		Transport: t,
		Logger:    logger,
	}, nil
}

// Do forwards the request to the configured transport
func (c *Client) Do(ctx context.Context, opts transport.RequestOptions) (*transport.Response, error) {
	return c.Transport.Do(ctx, opts)
}
