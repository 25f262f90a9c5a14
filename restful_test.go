package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/resources/api"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/testutil"
)

func newTestPlugin(t *testing.T) (*Plugin, *testutil.FakeAPI, json.RawMessage) {
	t.Helper()
	fake := testutil.NewFakeAPI(t)

	t.Setenv("RESTFUL_CONFDIR", t.TempDir())
	t.Setenv("RESTFUL_URL", "")
	t.Setenv("RESTFUL_AUTH", "")
	t.Setenv("RESTFUL_USERNAME", testutil.FakeUsername)
	t.Setenv("RESTFUL_PASSWORD", testutil.FakePassword)

	return &Plugin{}, fake, testutil.TargetConfig(t, fake.URL())
}

func TestPluginLabelConfig(t *testing.T) {
	p := &Plugin{}
	assert.Equal(t, "$.name", p.LabelConfig().DefaultQuery)
	assert.Nil(t, p.DiscoveryFilters())
	assert.Positive(t, p.RateLimit().MaxRequestsPerSecondForNamespace)
}

func TestPluginUnsupportedResourceType(t *testing.T) {
	p, _, target := newTestPlugin(t)

	_, err := p.Create(context.Background(), &resource.CreateRequest{
		ResourceType: "Restful::API::Widget",
		Properties:   json.RawMessage(`{"name": "x"}`),
		TargetConfig: target,
	})
	assert.EqualError(t, err, "unsupported resource type: Restful::API::Widget")
}

func TestPluginMissingCredentials(t *testing.T) {
	p, _, target := newTestPlugin(t)
	t.Setenv("RESTFUL_PASSWORD", "")

	_, err := p.List(context.Background(), &resource.ListRequest{
		ResourceType: api.ResourceTypeEntity,
		TargetConfig: target,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to extract config from target")
}

func TestPluginLifecycle(t *testing.T) {
	p, fake, target := newTestPlugin(t)
	ctx := context.Background()

	created, err := p.Create(ctx, &resource.CreateRequest{
		ResourceType: api.ResourceTypeEntity,
		Label:        "web",
		Properties:   json.RawMessage(`{"name": "web", "attributes": {"replicas": 2}}`),
		TargetConfig: target,
	})
	require.NoError(t, err)
	require.Equal(t, resource.OperationStatusSuccess, created.ProgressResult.OperationStatus, created.ProgressResult.StatusMessage)
	nativeID := created.ProgressResult.NativeID

	testutil.RequireStatusSuccess(t, ctx, p, nativeID, target, api.ResourceTypeEntity)

	read, err := p.Read(ctx, &resource.ReadRequest{NativeID: nativeID, ResourceType: api.ResourceTypeEntity, TargetConfig: target})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 1, "name": "web", "attributes": {"replicas": 2}}`, read.Properties)

	listed, err := p.List(ctx, &resource.ListRequest{ResourceType: api.ResourceTypeEntity, TargetConfig: target})
	require.NoError(t, err)
	assert.Equal(t, []string{nativeID}, listed.NativeIDs)

	updated, err := p.Update(ctx, &resource.UpdateRequest{NativeID: nativeID, DesiredProperties: json.RawMessage(`{"name": "web"}`), TargetConfig: target})
	require.NoError(t, err)
	assert.Equal(t, resource.OperationErrorCodeNotUpdatable, updated.ProgressResult.ErrorCode)

	deleted, err := p.Delete(ctx, &resource.DeleteRequest{NativeID: nativeID, ResourceType: api.ResourceTypeEntity, TargetConfig: target})
	require.NoError(t, err)
	assert.Equal(t, resource.OperationStatusSuccess, deleted.ProgressResult.OperationStatus)
	assert.Zero(t, fake.Count())

	read, err = p.Read(ctx, &resource.ReadRequest{NativeID: nativeID, ResourceType: api.ResourceTypeEntity, TargetConfig: target})
	require.NoError(t, err)
	assert.Equal(t, resource.OperationErrorCodeNotFound, read.ErrorCode)
}
