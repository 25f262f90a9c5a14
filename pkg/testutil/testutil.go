// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package testutil

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
	"github.com/stretchr/testify/require"
)

var (
	// Entity API configuration for integration tests - read from environment variables
	APIURL      = os.Getenv("RESTFUL_TEST_URL")
	APIUsername = os.Getenv("RESTFUL_TEST_USERNAME")
	APIPassword = os.Getenv("RESTFUL_TEST_PASSWORD")

	// Prefix for entities created by integration tests, so leftovers are easy to spot
	EntityNamePrefix = getEnvOrDefault("RESTFUL_TEST_NAME_PREFIX", "formae-test-")
)

// getEnvOrDefault returns the environment variable value or the default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsAPIConfigured returns true if the entity API environment variables are set
func IsAPIConfigured() bool {
	return APIURL != "" && APIUsername != "" && APIPassword != ""
}

// SkipIfAPINotConfigured skips the test if the entity API environment variables are not set
func SkipIfAPINotConfigured(t interface{ Skip(...any) }) {
	if !IsAPIConfigured() {
		t.Skip("Skipping test: entity API not configured. Set RESTFUL_TEST_URL, RESTFUL_TEST_USERNAME and RESTFUL_TEST_PASSWORD environment variables.")
	}
}

// UseIntegrationCredentials exports the integration credentials under the
// names the plugin reads them from
func UseIntegrationCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("RESTFUL_USERNAME", APIUsername)
	t.Setenv("RESTFUL_PASSWORD", APIPassword)
	t.Setenv("RESTFUL_CONFDIR", t.TempDir())
}

// TargetConfig builds a formae target config pointing at url
func TargetConfig(t *testing.T, url string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{"url": url})
	require.NoError(t, err)
	return raw
}

// StatusChecker defines the interface for checking operation status
type StatusChecker interface {
	Status(ctx context.Context, request *resource.StatusRequest) (*resource.StatusResult, error)
}

// RequireStatusSuccess checks that the status of a finished operation is reported as successful.
// The entity API is synchronous, so a single check is enough.
func RequireStatusSuccess(
	t *testing.T,
	ctx context.Context,
	checker StatusChecker,
	nativeID string,
	targetConfig json.RawMessage,
	resourceType string,
) *resource.StatusResult {
	t.Helper()

	statusResult, err := checker.Status(ctx, &resource.StatusRequest{
		NativeID:     nativeID,
		ResourceType: resourceType,
		TargetConfig: targetConfig,
	})
	require.NoError(t, err, "status check should not return error")
	require.NotNil(t, statusResult, "status result should not be nil")
	require.NotNil(t, statusResult.ProgressResult, "progress result should not be nil")
	require.Equal(t, resource.OperationStatusSuccess, statusResult.ProgressResult.OperationStatus,
		"status should be success: %s", statusResult.ProgressResult.StatusMessage)

	return statusResult
}
