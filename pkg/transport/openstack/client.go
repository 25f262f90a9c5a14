// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package openstack

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack"
	"go.uber.org/zap"

	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/transport/rest"
)

// Config holds OpenStack authentication configuration for an entity API
// protected by a Keystone token
type Config struct {
	BaseURL        string
	AuthURL        string
	Username       string
	Password       string
	ProjectID      string
	UserDomainName string
	Timeout        time.Duration
}

// NewClient authenticates against Keystone and returns a REST client that
// sends the token with every entity API request. Expired tokens are renewed
// by gophercloud.
func NewClient(ctx context.Context, cfg *Config, logger *zap.Logger) (*rest.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	opts := gophercloud.AuthOptions{
		IdentityEndpoint: cfg.AuthURL,
		Username:         cfg.Username,
		Password:         cfg.Password,
		TenantID:         cfg.ProjectID,
		DomainName:       cfg.UserDomainName,
		AllowReauth:      true,
	}

	provider, err := openstack.NewClient(cfg.AuthURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity client: %w", err)
	}
	provider.HTTPClient = http.Client{Timeout: cfg.Timeout}

	if err := openstack.Authenticate(ctx, provider, opts); err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	return rest.NewClientWithProvider(cfg.BaseURL, provider, logger)
}
