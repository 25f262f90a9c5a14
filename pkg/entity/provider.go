// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package entity

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/transport"
)

// CollectionEndpoint lists and creates entities
const CollectionEndpoint = "/"

// Provider reconciles declared entities against the API
type Provider struct {
	client transport.Client
	logger *zap.Logger
}

// NewProvider creates a provider on top of a transport
func NewProvider(client transport.Client, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{client: client, logger: logger}
}

// Instances discovers every entity that currently exists in the API
func (p *Provider) Instances(ctx context.Context) ([]*Entity, error) {
	entities, err := p.instances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query endpoint for entity list: %w", err)
	}
	p.logger.Debug("discovered entities", zap.Int("count", len(entities)))
	return entities, nil
}

func (p *Provider) instances(ctx context.Context) ([]*Entity, error) {
	response, err := transport.Get(ctx, p.client, CollectionEndpoint)
	if err != nil {
		return nil, err
	}

	// null or no content: nothing exists yet
	if response.IsEmpty() {
		return []*Entity{}, nil
	}
	if response.Body != nil {
		return nil, fmt.Errorf("expected a JSON array of entities, got an object")
	}

	entities := make([]*Entity, 0, len(response.BodyArray))
	for i, item := range response.BodyArray {
		doc, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("entity list element %d is not an object", i)
		}
		e, err := FromDocument(doc)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// Prefetch matches declared resources against discovered entities by name.
// Resources without a match keep a nil Current. When the API holds several
// entities with the same name the first one listed wins.
func (p *Provider) Prefetch(ctx context.Context, managed map[string]*Resource) error {
	discovered, err := p.Instances(ctx)
	if err != nil {
		return err
	}

	byName := make(map[string]*Entity, len(discovered))
	for _, e := range discovered {
		if _, seen := byName[e.Name]; seen {
			p.logger.Warn("duplicate entity name in API", zap.String("name", e.Name), zap.Int64("id", e.ID))
			continue
		}
		byName[e.Name] = e
	}

	for name, r := range managed {
		if e, ok := byName[name]; ok {
			r.Current = e
		}
	}
	return nil
}

// Get reads a single entity by ID
func (p *Provider) Get(ctx context.Context, id int64) (*Entity, error) {
	response, err := transport.Get(ctx, p.client, Endpoint(id))
	if err != nil {
		return nil, err
	}
	if response.Body == nil {
		return nil, fmt.Errorf("entity %d: expected a JSON object in response", id)
	}
	return FromDocument(response.Body)
}

// Create posts the declared resource to the API. The returned entity carries
// the ID assigned by the API when the response includes one, zero otherwise.
func (p *Provider) Create(ctx context.Context, r *Resource) (*Entity, error) {
	created, err := p.create(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to create entity %s: %w", r.Name, err)
	}
	r.Current = created
	p.logger.Info("created entity", zap.String("name", r.Name), zap.Int64("id", created.ID))
	return created, nil
}

func (p *Provider) create(ctx context.Context, r *Resource) (*Entity, error) {
	if r.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	response, err := transport.Post(ctx, p.client, CollectionEndpoint, r.Document())
	if err != nil {
		return nil, err
	}

	created := &Entity{Name: r.Name, Attributes: r.Attributes, Ensure: EnsurePresent}
	if response.Body != nil && response.Body["id"] != nil {
		fromAPI, err := FromDocument(response.Body)
		if err != nil {
			return nil, err
		}
		created.ID = fromAPI.ID
		if fromAPI.Name != "" {
			created.Name = fromAPI.Name
		}
		if fromAPI.Attributes != nil {
			created.Attributes = fromAPI.Attributes
		}
	}
	return created, nil
}

// Exists reports whether prefetch found the resource present in the API
func (p *Provider) Exists(r *Resource) bool {
	return r.Current != nil && r.Current.Ensure == EnsurePresent
}

// Destroy deletes the entity matched during prefetch
func (p *Provider) Destroy(ctx context.Context, r *Resource) error {
	if err := p.destroy(ctx, r); err != nil {
		return fmt.Errorf("failed to delete entity %s: %w", r.Name, err)
	}
	p.logger.Info("deleted entity", zap.String("name", r.Name), zap.Int64("id", r.Current.ID))
	r.Current.Ensure = EnsureAbsent
	return nil
}

func (p *Provider) destroy(ctx context.Context, r *Resource) error {
	if r.Current == nil {
		return fmt.Errorf("entity was not discovered, its ID is unknown")
	}
	_, err := transport.Delete(ctx, p.client, r.Current.Endpoint())
	return err
}

// DestroyByID deletes an entity known only by its ID
func (p *Provider) DestroyByID(ctx context.Context, id int64) error {
	_, err := transport.Delete(ctx, p.client, Endpoint(id))
	return err
}

// Action is what Apply did, or would do, to a declared resource
type Action string

const (
	ActionCreated   Action = "created"
	ActionDestroyed Action = "destroyed"
	ActionUnchanged Action = "unchanged"
)

// Change records the outcome for one declared resource
type Change struct {
	Name   string
	Action Action
	ID     int64
}

// Apply brings the API in line with the declared resources: present
// resources that do not exist are created, absent resources that exist are
// destroyed. Resources are processed in order and Apply stops at the first
// failure, returning the changes made so far. With dryRun set no create or
// delete call is made.
func (p *Provider) Apply(ctx context.Context, declared []*Resource, dryRun bool) ([]Change, error) {
	managed := make(map[string]*Resource, len(declared))
	for _, r := range declared {
		if _, dup := managed[r.Name]; dup {
			return nil, fmt.Errorf("entity %s is declared more than once", r.Name)
		}
		managed[r.Name] = r
	}

	if err := p.Prefetch(ctx, managed); err != nil {
		return nil, err
	}

	changes := make([]Change, 0, len(declared))
	for _, r := range declared {
		change := Change{Name: r.Name, Action: ActionUnchanged}
		if r.Current != nil {
			change.ID = r.Current.ID
		}

		exists := p.Exists(r)
		switch {
		case r.Ensure != EnsureAbsent && !exists:
			change.Action = ActionCreated
			if !dryRun {
				created, err := p.Create(ctx, r)
				if err != nil {
					return changes, err
				}
				change.ID = created.ID
			}
		case r.Ensure == EnsureAbsent && exists:
			change.Action = ActionDestroyed
			if !dryRun {
				if err := p.Destroy(ctx, r); err != nil {
					return changes, err
				}
			}
		}

		p.logger.Debug("reconciled entity", zap.String("name", r.Name), zap.String("action", string(change.Action)), zap.Bool("dry_run", dryRun))
		changes = append(changes, change)
	}
	return changes, nil
}
