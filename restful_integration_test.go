// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

//go:build integration

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/resources/api"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/testutil"
)

// Runs the full entity lifecycle against a real API:
//
//	RESTFUL_TEST_URL=https://api.example.com/entities \
//	RESTFUL_TEST_USERNAME=... RESTFUL_TEST_PASSWORD=... \
//	go test -tags integration -run TestEntityLifecycle_Integration .
func TestEntityLifecycle_Integration(t *testing.T) {
	testutil.SkipIfAPINotConfigured(t)
	testutil.UseIntegrationCredentials(t)

	ctx := context.Background()
	p := &Plugin{}
	target := testutil.TargetConfig(t, testutil.APIURL)
	name := fmt.Sprintf("%s%d", testutil.EntityNamePrefix, time.Now().Unix())

	props, err := json.Marshal(map[string]interface{}{
		"name":       name,
		"attributes": map[string]interface{}{"created_by": "integration-test"},
	})
	require.NoError(t, err)

	created, err := p.Create(ctx, &resource.CreateRequest{
		ResourceType: api.ResourceTypeEntity,
		Label:        name,
		Properties:   props,
		TargetConfig: target,
	})
	require.NoError(t, err)
	require.Equal(t, resource.OperationStatusSuccess, created.ProgressResult.OperationStatus, created.ProgressResult.StatusMessage)
	nativeID := created.ProgressResult.NativeID
	t.Logf("Created entity %s with native ID %s", name, nativeID)

	t.Cleanup(func() {
		_, _ = p.Delete(context.Background(), &resource.DeleteRequest{NativeID: nativeID, ResourceType: api.ResourceTypeEntity, TargetConfig: target})
	})

	read, err := p.Read(ctx, &resource.ReadRequest{NativeID: nativeID, ResourceType: api.ResourceTypeEntity, TargetConfig: target})
	require.NoError(t, err)
	var readProps map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(read.Properties), &readProps))
	assert.Equal(t, name, readProps["name"])

	listed, err := p.List(ctx, &resource.ListRequest{ResourceType: api.ResourceTypeEntity, TargetConfig: target})
	require.NoError(t, err)
	assert.Contains(t, listed.NativeIDs, nativeID)

	deleted, err := p.Delete(ctx, &resource.DeleteRequest{NativeID: nativeID, ResourceType: api.ResourceTypeEntity, TargetConfig: target})
	require.NoError(t, err)
	assert.Equal(t, resource.OperationStatusSuccess, deleted.ProgressResult.OperationStatus)

	read, err = p.Read(ctx, &resource.ReadRequest{NativeID: nativeID, ResourceType: api.ResourceTypeEntity, TargetConfig: target})
	require.NoError(t, err)
	assert.Equal(t, resource.OperationErrorCodeNotFound, read.ErrorCode)
}
