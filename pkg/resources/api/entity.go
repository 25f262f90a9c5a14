// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package api

import (
	"context"
	"fmt"

	"github.com/platform-engineering-labs/formae/pkg/model"
	"github.com/platform-engineering-labs/formae/pkg/plugin"
	"github.com/platform-engineering-labs/formae/pkg/plugin/resource"
	"go.uber.org/zap"

	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/client"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/config"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/entity"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/prov"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/registry"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/resources"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/transport"
)

const (
	ResourceTypeEntity = "Restful::API::Entity"
)

// Entity schema and descriptor
var (
	EntityDescriptor = plugin.ResourceDescriptor{
		Type:         ResourceTypeEntity,
		Discoverable: true,
	}

	EntitySchema = model.Schema{
		Identifier:   "name",
		Discoverable: true,
		Fields:       []string{"name", "attributes", "id"},
		Hints: map[string]model.FieldHint{
			"name": {
				Required:   true,
				CreateOnly: true,
			},
			"attributes": {
				CreateOnly: true,
			},
		},
	}
)

// Entity provisioner
type Entity struct {
	Client   *client.Client
	Config   *config.Config
	provider *entity.Provider
}

// Register the Entity resource type
func init() {
	registry.Register(
		ResourceTypeEntity,
		EntityDescriptor,
		EntitySchema,
		func(client *client.Client, cfg *config.Config) prov.Provisioner {
			return NewEntity(client, cfg)
		},
	)
}

// NewEntity creates an Entity provisioner on top of an API client
func NewEntity(client *client.Client, cfg *config.Config) *Entity {
	return &Entity{
		Client:   client,
		Config:   cfg,
		provider: entity.NewProvider(client.Transport, client.Logger),
	}
}

func (e *Entity) logger() *zap.Logger {
	if e.Client.Logger == nil {
		return zap.NewNop()
	}
	return e.Client.Logger
}

// Create creates a new entity
func (e *Entity) Create(ctx context.Context, request *resource.CreateRequest) (*resource.CreateResult, error) {
	props, err := resources.ParseProperties(request.Properties)
	if err != nil {
		return &resource.CreateResult{
			ProgressResult: resources.NewFailureResultWithMessage(resource.OperationCreate, resource.OperationErrorCodeInvalidRequest, "", err.Error()),
		}, nil
	}

	declared, err := resourceFromProperties(props)
	if err != nil {
		return &resource.CreateResult{
			ProgressResult: resources.NewFailureResultWithMessage(resource.OperationCreate, resource.OperationErrorCodeInvalidRequest, "", err.Error()),
		}, nil
	}

	created, err := e.provider.Create(ctx, declared)
	if err != nil {
		return &resource.CreateResult{
			ProgressResult: resources.NewFailureResultWithMessage(resource.OperationCreate, resources.MapErrorToOperationErrorCode(err), "", err.Error()),
		}, nil
	}

	// Some APIs answer create without the new document; look the ID up by name
	if created.ID == 0 {
		discovered, err := e.discoverByName(ctx, declared.Name)
		if err != nil {
			return &resource.CreateResult{
				ProgressResult: resources.NewFailureResultWithMessage(resource.OperationCreate, resources.MapErrorToOperationErrorCode(err), "", err.Error()),
			}, nil
		}
		created = discovered
	}

	propsJSON, err := resources.MarshalProperties(created.Properties())
	if err != nil {
		return &resource.CreateResult{
			ProgressResult: resources.NewFailureResultWithMessage(resource.OperationCreate, resource.OperationErrorCodeGeneralServiceException, created.NativeID(), err.Error()),
		}, nil
	}

	return &resource.CreateResult{
		ProgressResult: resources.NewSuccessResult(resource.OperationCreate, created.NativeID(), propsJSON),
	}, nil
}

// discoverByName returns the most recently listed entity with the given name
func (e *Entity) discoverByName(ctx context.Context, name string) (*entity.Entity, error) {
	discovered, err := e.provider.Instances(ctx)
	if err != nil {
		return nil, err
	}

	var found *entity.Entity
	for _, candidate := range discovered {
		if candidate.Name == name {
			found = candidate
		}
	}
	if found == nil {
		return nil, fmt.Errorf("entity %s was created but is not listed by the API", name)
	}

	e.logger().Debug("resolved entity id by name", zap.String("name", name), zap.Int64("id", found.ID))
	return found, nil
}

// Read retrieves the current state of an entity
func (e *Entity) Read(ctx context.Context, request *resource.ReadRequest) (*resource.ReadResult, error) {
	id, err := entity.ParseNativeID(request.NativeID)
	if err != nil {
		return &resource.ReadResult{
			ErrorCode: resource.OperationErrorCodeInvalidRequest,
		}, err
	}

	current, err := e.provider.Get(ctx, id)
	if err != nil {
		// A missing entity is an answer, not a failure
		if transport.IsNotFound(err) {
			return &resource.ReadResult{
				ErrorCode: resource.OperationErrorCodeNotFound,
			}, nil
		}
		return &resource.ReadResult{
			ErrorCode: resources.MapErrorToOperationErrorCode(err),
		}, fmt.Errorf("failed to read entity %d: %w", id, err)
	}

	propsJSON, err := resources.MarshalProperties(current.Properties())
	if err != nil {
		return &resource.ReadResult{
			ErrorCode: resource.OperationErrorCodeGeneralServiceException,
		}, err
	}

	return &resource.ReadResult{
		Properties: propsJSON,
	}, nil
}

// Update is not supported for entities (name and attributes are create-only)
func (e *Entity) Update(ctx context.Context, request *resource.UpdateRequest) (*resource.UpdateResult, error) {
	return &resource.UpdateResult{
		ProgressResult: resources.NewFailureResultWithMessage(resource.OperationUpdate, resource.OperationErrorCodeNotUpdatable, request.NativeID,
			"entities cannot be updated in place, replace the entity instead"),
	}, nil
}

// Delete removes an entity
func (e *Entity) Delete(ctx context.Context, request *resource.DeleteRequest) (*resource.DeleteResult, error) {
	id, err := entity.ParseNativeID(request.NativeID)
	if err != nil {
		return &resource.DeleteResult{
			ProgressResult: resources.NewFailureResultWithMessage(resource.OperationDelete, resource.OperationErrorCodeInvalidRequest, "", err.Error()),
		}, nil
	}

	if err := e.provider.DestroyByID(ctx, id); err != nil {
		// Already gone counts as deleted
		if transport.IsNotFound(err) {
			return &resource.DeleteResult{
				ProgressResult: resources.NewSuccessResult(resource.OperationDelete, request.NativeID, ""),
			}, nil
		}

		return &resource.DeleteResult{
			ProgressResult: resources.NewFailureResultWithMessage(resource.OperationDelete, resources.MapErrorToOperationErrorCode(err), request.NativeID,
				fmt.Sprintf("failed to delete entity %d: %v", id, err)),
		}, nil
	}

	return &resource.DeleteResult{
		ProgressResult: resources.NewSuccessResult(resource.OperationDelete, request.NativeID, ""),
	}, nil
}

// Status reports the outcome of an operation. Every entity API call completes
// synchronously, so there is never an operation in progress.
func (e *Entity) Status(ctx context.Context, request *resource.StatusRequest) (*resource.StatusResult, error) {
	result := resources.NewSuccessResult(resource.OperationCheckStatus, request.NativeID, "")
	result.RequestID = request.RequestID

	if request.NativeID == "" {
		return &resource.StatusResult{ProgressResult: result}, nil
	}

	id, err := entity.ParseNativeID(request.NativeID)
	if err != nil {
		return &resource.StatusResult{
			ProgressResult: resources.NewFailureResultWithMessage(resource.OperationCheckStatus, resource.OperationErrorCodeInvalidRequest, request.NativeID, err.Error()),
		}, nil
	}

	current, err := e.provider.Get(ctx, id)
	switch {
	case transport.IsNotFound(err):
		// deleted
	case err != nil:
		return &resource.StatusResult{
			ProgressResult: resources.NewFailureResultWithMessage(resource.OperationCheckStatus, resources.MapErrorToOperationErrorCode(err), request.NativeID,
				fmt.Sprintf("failed to read entity %d: %v", id, err)),
		}, nil
	default:
		if propsJSON, err := resources.MarshalProperties(current.Properties()); err == nil {
			result.ResourceProperties = []byte(propsJSON)
		}
	}

	return &resource.StatusResult{ProgressResult: result}, nil
}

// List discovers entities
func (e *Entity) List(ctx context.Context, request *resource.ListRequest) (*resource.ListResult, error) {
	discovered, err := e.provider.Instances(ctx)
	if err != nil {
		return &resource.ListResult{}, err
	}

	nativeIDs := make([]string, 0, len(discovered))
	for _, item := range discovered {
		nativeIDs = append(nativeIDs, item.NativeID())
	}

	return &resource.ListResult{
		NativeIDs: nativeIDs,
	}, nil
}

// resourceFromProperties builds the declared entity from formae properties
func resourceFromProperties(props map[string]interface{}) (*entity.Resource, error) {
	name, ok := props["name"].(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("name is required")
	}

	declared := &entity.Resource{Name: name, Ensure: entity.EnsurePresent}

	switch attrs := props["attributes"].(type) {
	case map[string]interface{}:
		declared.Attributes = attrs
	case nil:
	default:
		return nil, fmt.Errorf("attributes must be an object")
	}

	return declared, nil
}
