// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/platform-engineering-labs/formae/pkg/plugin"
	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
	"go.uber.org/zap"

	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/client"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/config"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/logging"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/prov"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/registry"

	// Import resources to trigger init() registration
	_ "github.com/platform-engineering-labs/formae-plugin-restful/pkg/resources/api"
)

// Plugin implements the Formae ResourcePlugin interface.
// The SDK automatically provides identity methods (Name, Version, Namespace)
// and schema methods (SupportedResources, SchemaForResourceType) by reading
// formae-plugin.pkl and schema/pkl/ at startup.
type Plugin struct {
	Logger *zap.Logger
}

// Compile-time check: Plugin must satisfy ResourcePlugin interface.
var _ plugin.ResourcePlugin = &Plugin{}

// RateLimit returns the rate limit configuration for this plugin
func (p *Plugin) RateLimit() plugin.RateLimitConfig {
	return plugin.RateLimitConfig{
		Scope:                            plugin.RateLimitScopeNamespace,
		MaxRequestsPerSecondForNamespace: 5,
	}
}

// DiscoveryFilters returns declarative filters for discovery.
// Every entity returned by the API is a candidate.
func (p *Plugin) DiscoveryFilters() []plugin.MatchFilter {
	return nil
}

// LabelConfig returns the label extraction configuration for discovered entities.
func (p *Plugin) LabelConfig() plugin.LabelConfig {
	return plugin.LabelConfig{
		DefaultQuery: "$.name",
	}
}

// provisioner resolves the target config into an API client and returns the
// provisioner registered for resourceType
func (p *Plugin) provisioner(ctx context.Context, resourceType string, targetConfig json.RawMessage) (prov.Provisioner, error) {
	if !registry.HasProvisioner(resourceType) {
		return nil, fmt.Errorf("unsupported resource type: %s", resourceType)
	}

	cfg, err := config.FromTargetConfig(targetConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to extract config from target: %w", err)
	}

	apiClient, err := client.NewClientWithContext(ctx, cfg, logging.OrNop(p.Logger).With(zap.String("resource_type", resourceType)))
	if err != nil {
		return nil, fmt.Errorf("failed to create entity API client: %w", err)
	}

	return registry.Get(resourceType, apiClient, cfg), nil
}

func (p *Plugin) Create(ctx context.Context, request *resource.CreateRequest) (*resource.CreateResult, error) {
	provisioner, err := p.provisioner(ctx, request.ResourceType, request.TargetConfig)
	if err != nil {
		return nil, err
	}
	return provisioner.Create(ctx, request)
}

func (p *Plugin) Read(ctx context.Context, request *resource.ReadRequest) (*resource.ReadResult, error) {
	provisioner, err := p.provisioner(ctx, request.ResourceType, request.TargetConfig)
	if err != nil {
		return nil, err
	}
	return provisioner.Read(ctx, request)
}

func (p *Plugin) Update(ctx context.Context, request *resource.UpdateRequest) (*resource.UpdateResult, error) {
	provisioner, err := p.provisioner(ctx, request.ResourceType, request.TargetConfig)
	if err != nil {
		return nil, err
	}
	return provisioner.Update(ctx, request)
}

func (p *Plugin) Delete(ctx context.Context, request *resource.DeleteRequest) (*resource.DeleteResult, error) {
	provisioner, err := p.provisioner(ctx, request.ResourceType, request.TargetConfig)
	if err != nil {
		return nil, err
	}
	return provisioner.Delete(ctx, request)
}

func (p *Plugin) Status(ctx context.Context, request *resource.StatusRequest) (*resource.StatusResult, error) {
	provisioner, err := p.provisioner(ctx, request.ResourceType, request.TargetConfig)
	if err != nil {
		return nil, err
	}
	return provisioner.Status(ctx, request)
}

func (p *Plugin) List(ctx context.Context, request *resource.ListRequest) (*resource.ListResult, error) {
	provisioner, err := p.provisioner(ctx, request.ResourceType, request.TargetConfig)
	if err != nil {
		return nil, err
	}
	return provisioner.List(ctx, request)
}
