// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/platform-engineering-labs/formae/pkg/model"
	"github.com/platform-engineering-labs/formae/pkg/plugin"

	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/client"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/config"
	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/prov"
)

// Factory builds a provisioner bound to one entity API client
type Factory func(*client.Client, *config.Config) prov.Provisioner

type entry struct {
	factory    Factory
	descriptor plugin.ResourceDescriptor
	schema     model.Schema
}

// Registry maps resource types to their provisioner factory, descriptor and schema
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New creates an empty registry
func New() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

var defaultRegistry = New()

// Register adds a resource type to the default registry.
// Called by resource packages in their init() functions.
func Register(name string, descriptor plugin.ResourceDescriptor, schema model.Schema, factory Factory) {
	defaultRegistry.Register(name, descriptor, schema, factory)
}

// Register adds a resource type. Registering the same type twice is a
// programming error and panics.
func (r *Registry) Register(name string, descriptor plugin.ResourceDescriptor, schema model.Schema, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		panic(fmt.Sprintf("resource type %s registered twice", name))
	}
	r.entries[name] = entry{factory: factory, descriptor: descriptor, schema: schema}
}

// Get returns a provisioner for the resource type, or nil when it is not registered
func (r *Registry) Get(name string, apiClient *client.Client, cfg *config.Config) prov.Provisioner {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil
	}
	return e.factory(apiClient, cfg)
}

// HasProvisioner reports whether the resource type is registered
func (r *Registry) HasProvisioner(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[name]
	return ok
}

// GetDescriptor returns the descriptor of a resource type
func (r *Registry) GetDescriptor(name string) (plugin.ResourceDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	return e.descriptor, ok
}

// GetSchema returns the schema of a resource type
func (r *Registry) GetSchema(name string) (model.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	return e.schema, ok
}

// ListResourceTypes returns the registered resource types in sorted order
func (r *Registry) ListResourceTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.entries))
	for name := range r.entries {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// GetAllDescriptors returns every registered descriptor, sorted by type
func (r *Registry) GetAllDescriptors() []plugin.ResourceDescriptor {
	types := r.ListResourceTypes()

	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]plugin.ResourceDescriptor, 0, len(types))
	for _, name := range types {
		descriptors = append(descriptors, r.entries[name].descriptor)
	}
	return descriptors
}

// Get returns a provisioner from the default registry
func Get(name string, apiClient *client.Client, cfg *config.Config) prov.Provisioner {
	return defaultRegistry.Get(name, apiClient, cfg)
}

// HasProvisioner checks the default registry
func HasProvisioner(name string) bool {
	return defaultRegistry.HasProvisioner(name)
}

// GetDescriptor reads from the default registry
func GetDescriptor(name string) (plugin.ResourceDescriptor, bool) {
	return defaultRegistry.GetDescriptor(name)
}

// GetSchema reads from the default registry
func GetSchema(name string) (model.Schema, bool) {
	return defaultRegistry.GetSchema(name)
}

// ListResourceTypes lists the default registry
func ListResourceTypes() []string {
	return defaultRegistry.ListResourceTypes()
}

// GetAllDescriptors lists the default registry's descriptors
func GetAllDescriptors() []plugin.ResourceDescriptor {
	return defaultRegistry.GetAllDescriptors()
}
