package entity

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/testutil"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/transport"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/transport/rest"
)

func newTestProvider(t *testing.T) (*Provider, *testutil.FakeAPI) {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	client, err := rest.NewClient(&rest.BasicConfig{
		BaseURL:  api.URL(),
		Username: testutil.FakeUsername,
		Password: testutil.FakePassword,
		Timeout:  5 * time.Second,
	}, nil)
	require.NoError(t, err)
	return NewProvider(client, nil), api
}

func TestInstances(t *testing.T) {
	provider, api := newTestProvider(t)
	webID := api.Seed("web", map[string]interface{}{"port": float64(80)})
	dbID := api.Seed("db", nil)

	entities, err := provider.Instances(context.Background())
	require.NoError(t, err)
	require.Len(t, entities, 2)

	assert.Equal(t, webID, entities[0].ID)
	assert.Equal(t, "web", entities[0].Name)
	assert.Equal(t, EnsurePresent, entities[0].Ensure)
	assert.Equal(t, json.Number("80"), entities[0].Attributes["port"])

	assert.Equal(t, dbID, entities[1].ID)
	assert.Nil(t, entities[1].Attributes)
}

func TestInstances_LargeIDKeepsPrecision(t *testing.T) {
	provider, api := newTestProvider(t)
	api.Respond(http.MethodGet, "/", http.StatusOK, `[{"id": 9007199254740993, "name": "web"}]`)

	entities, err := provider.Instances(context.Background())
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, int64(9007199254740993), entities[0].ID)
	assert.Equal(t, "9007199254740993", entities[0].NativeID())
	assert.Equal(t, "/9007199254740993", entities[0].Endpoint())
}

func TestInstances_EmptyAndNull(t *testing.T) {
	provider, api := newTestProvider(t)

	entities, err := provider.Instances(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entities)

	api.Respond(http.MethodGet, "/", http.StatusOK, "null")
	entities, err = provider.Instances(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entities)
}

func TestInstances_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"server error", http.StatusInternalServerError, "down", `failed to query endpoint for entity list: REST endpoint responded with HTTP 500: "down"`},
		{"object instead of array", http.StatusOK, `{"id": 1}`, "failed to query endpoint for entity list: expected a JSON array"},
		{"element not an object", http.StatusOK, `[1]`, "entity list element 0 is not an object"},
		{"element without id", http.StatusOK, `[{"name": "web"}]`, "entity document has no id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, api := newTestProvider(t)
			api.Respond(http.MethodGet, "/", tt.status, tt.body)

			_, err := provider.Instances(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPrefetch(t *testing.T) {
	provider, api := newTestProvider(t)
	firstID := api.Seed("web", nil)
	api.Seed("web", nil)
	api.Seed("unmanaged", nil)

	managed := map[string]*Resource{
		"web":   {Name: "web", Ensure: EnsurePresent},
		"cache": {Name: "cache", Ensure: EnsurePresent},
	}
	require.NoError(t, provider.Prefetch(context.Background(), managed))

	require.NotNil(t, managed["web"].Current)
	assert.Equal(t, firstID, managed["web"].Current.ID, "first listed entity wins")
	assert.Nil(t, managed["cache"].Current)
	assert.True(t, provider.Exists(managed["web"]))
	assert.False(t, provider.Exists(managed["cache"]))
}

func TestGet(t *testing.T) {
	provider, api := newTestProvider(t)
	id := api.Seed("web", map[string]interface{}{"tier": "front"})

	e, err := provider.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "web", e.Name)
	assert.Equal(t, "front", e.Attributes["tier"])

	_, err = provider.Get(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, transport.IsNotFound(err))
}

func TestCreate(t *testing.T) {
	provider, api := newTestProvider(t)

	r := &Resource{Name: "web", Ensure: EnsurePresent, Attributes: map[string]interface{}{"port": float64(80)}}
	created, err := provider.Create(context.Background(), r)
	require.NoError(t, err)

	assert.NotZero(t, created.ID)
	assert.True(t, api.Has(created.ID))
	assert.Same(t, created, r.Current)
	assert.True(t, provider.Exists(r))

	requests := api.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPost, requests[0].Method)
	assert.Equal(t, testutil.FakeBasePath+"/", requests[0].Path)
	assert.Equal(t, map[string]interface{}{"name": "web", "attributes": map[string]interface{}{"port": float64(80)}}, requests[0].Body)
}

func TestCreate_OmitsNilAttributes(t *testing.T) {
	provider, api := newTestProvider(t)

	_, err := provider.Create(context.Background(), &Resource{Name: "db"})
	require.NoError(t, err)

	requests := api.Requests()
	require.Len(t, requests, 1)
	assert.NotContains(t, requests[0].Body, "attributes")
}

func TestCreate_ResponseWithoutID(t *testing.T) {
	provider, api := newTestProvider(t)
	api.OmitIDOnCreate = true

	created, err := provider.Create(context.Background(), &Resource{Name: "db"})
	require.NoError(t, err)
	assert.Zero(t, created.ID)
	assert.Equal(t, "db", created.Name)
}

func TestCreate_Failure(t *testing.T) {
	provider, api := newTestProvider(t)
	api.Respond(http.MethodPost, "/", http.StatusConflict, "duplicate")

	r := &Resource{Name: "web"}
	_, err := provider.Create(context.Background(), r)
	require.Error(t, err)
	assert.Equal(t, `failed to create entity web: REST endpoint responded with HTTP 409: "duplicate"`, err.Error())
	assert.Nil(t, r.Current)
}

func TestDestroy(t *testing.T) {
	provider, api := newTestProvider(t)
	id := api.Seed("web", nil)

	r := &Resource{Name: "web", Ensure: EnsureAbsent, Current: &Entity{ID: id, Name: "web", Ensure: EnsurePresent}}
	require.NoError(t, provider.Destroy(context.Background(), r))

	assert.False(t, api.Has(id))
	assert.False(t, provider.Exists(r))
}

func TestDestroy_Failures(t *testing.T) {
	provider, _ := newTestProvider(t)

	err := provider.Destroy(context.Background(), &Resource{Name: "ghost"})
	assert.EqualError(t, err, "failed to delete entity ghost: entity was not discovered, its ID is unknown")

	r := &Resource{Name: "web", Current: &Entity{ID: 404, Ensure: EnsurePresent}}
	err = provider.Destroy(context.Background(), r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete entity web: REST endpoint responded with HTTP 404")
	assert.True(t, transport.IsNotFound(err))
}

func TestApply(t *testing.T) {
	provider, api := newTestProvider(t)
	keepID := api.Seed("keep", nil)
	dropID := api.Seed("drop", nil)

	declared := []*Resource{
		{Name: "keep", Ensure: EnsurePresent},
		{Name: "drop", Ensure: EnsureAbsent},
		{Name: "new", Ensure: EnsurePresent, Attributes: map[string]interface{}{"a": "b"}},
		{Name: "never", Ensure: EnsureAbsent},
	}

	changes, err := provider.Apply(context.Background(), declared, false)
	require.NoError(t, err)
	require.Len(t, changes, 4)

	assert.Equal(t, Change{Name: "keep", Action: ActionUnchanged, ID: keepID}, changes[0])
	assert.Equal(t, Change{Name: "drop", Action: ActionDestroyed, ID: dropID}, changes[1])
	assert.Equal(t, ActionCreated, changes[2].Action)
	assert.NotZero(t, changes[2].ID)
	assert.Equal(t, Change{Name: "never", Action: ActionUnchanged}, changes[3])

	assert.True(t, api.Has(keepID))
	assert.False(t, api.Has(dropID))
	assert.True(t, api.Has(changes[2].ID))
}

func TestApply_DryRun(t *testing.T) {
	provider, api := newTestProvider(t)
	id := api.Seed("drop", nil)

	changes, err := provider.Apply(context.Background(), []*Resource{
		{Name: "drop", Ensure: EnsureAbsent},
		{Name: "new", Ensure: EnsurePresent},
	}, true)
	require.NoError(t, err)

	assert.Equal(t, ActionDestroyed, changes[0].Action)
	assert.Equal(t, ActionCreated, changes[1].Action)
	assert.True(t, api.Has(id))
	assert.Equal(t, 1, api.Count())
	assert.Zero(t, api.RequestCount(http.MethodPost))
	assert.Zero(t, api.RequestCount(http.MethodDelete))
}

func TestApply_StopsAtFirstFailure(t *testing.T) {
	provider, api := newTestProvider(t)
	api.Respond(http.MethodPost, "/", http.StatusInternalServerError, "boom")

	changes, err := provider.Apply(context.Background(), []*Resource{
		{Name: "first", Ensure: EnsurePresent},
		{Name: "second", Ensure: EnsurePresent},
	}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create entity first")
	assert.Empty(t, changes)
	assert.Equal(t, 1, api.RequestCount(http.MethodPost))
}

func TestApply_DuplicateDeclaration(t *testing.T) {
	provider, _ := newTestProvider(t)

	_, err := provider.Apply(context.Background(), []*Resource{{Name: "web"}, {Name: "web"}}, false)
	assert.EqualError(t, err, "entity web is declared more than once")
}
