// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package entity

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Ensure is the desired or observed presence of an entity
type Ensure string

const (
	EnsurePresent Ensure = "present"
	EnsureAbsent  Ensure = "absent"
)

// ParseEnsure accepts present or absent; an empty value means present
func ParseEnsure(s string) (Ensure, error) {
	switch Ensure(s) {
	case "", EnsurePresent:
		return EnsurePresent, nil
	case EnsureAbsent:
		return EnsureAbsent, nil
	default:
		return "", fmt.Errorf("invalid ensure value %q (expected %s or %s)", s, EnsurePresent, EnsureAbsent)
	}
}

// Entity is an item as known to the API. The API identifies entities by ID,
// while declarations identify them by Name.
type Entity struct {
	ID         int64
	Name       string
	Attributes map[string]interface{}
	Ensure     Ensure
}

// FromDocument builds an entity from the JSON document returned by the API
func FromDocument(doc map[string]interface{}) (*Entity, error) {
	if doc == nil {
		return nil, fmt.Errorf("entity document is empty")
	}

	id, err := parseID(doc["id"])
	if err != nil {
		return nil, err
	}

	e := &Entity{ID: id, Ensure: EnsurePresent}

	switch name := doc["name"].(type) {
	case string:
		e.Name = name
	case nil:
	default:
		return nil, fmt.Errorf("entity %d has a non-string name: %v", id, name)
	}

	switch attrs := doc["attributes"].(type) {
	case map[string]interface{}:
		e.Attributes = attrs
	case nil:
	default:
		return nil, fmt.Errorf("entity %d has attributes that are not an object: %v", id, attrs)
	}

	return e, nil
}

// Properties returns the entity as a property map, one key per resource property.
// Presence is not a property: an entity that can be read exists.
func (e *Entity) Properties() map[string]interface{} {
	props := map[string]interface{}{
		"id":   e.ID,
		"name": e.Name,
	}
	if e.Attributes != nil {
		props["attributes"] = e.Attributes
	}
	return props
}

// NativeID is the decimal form of the API identifier
func (e *Entity) NativeID() string {
	return strconv.FormatInt(e.ID, 10)
}

// Endpoint is the API path of this entity relative to the base URL
func (e *Entity) Endpoint() string {
	return Endpoint(e.ID)
}

// Endpoint returns the API path of the entity with the given ID
func Endpoint(id int64) string {
	return fmt.Sprintf("/%d", id)
}

// ParseNativeID parses a native ID produced by NativeID
func ParseNativeID(nativeID string) (int64, error) {
	if nativeID == "" {
		return 0, fmt.Errorf("nativeID is required")
	}
	id, err := strconv.ParseInt(nativeID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid native ID %q: entity IDs are integers", nativeID)
	}
	return id, nil
}

// maxExactFloat is the largest magnitude below which every integer has an
// exact float64 representation.
const maxExactFloat = 1 << 53

// parseID accepts JSON numbers and numeric strings
func parseID(v interface{}) (int64, error) {
	switch id := v.(type) {
	case json.Number:
		parsed, err := id.Int64()
		if err != nil {
			return 0, fmt.Errorf("entity id %s is not an integer in the int64 range", id)
		}
		return parsed, nil
	case float64:
		if id != math.Trunc(id) {
			return 0, fmt.Errorf("entity id %v is not an integer", id)
		}
		if math.Abs(id) > maxExactFloat {
			return 0, fmt.Errorf("entity id %v cannot be represented exactly", id)
		}
		return int64(id), nil
	case int64:
		return id, nil
	case int:
		return int64(id), nil
	case string:
		parsed, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("entity id %q is not an integer", id)
		}
		return parsed, nil
	case nil:
		return 0, fmt.Errorf("entity document has no id")
	default:
		return 0, fmt.Errorf("entity id %v has unsupported type %T", id, id)
	}
}

// Resource is a declared entity: what the configuration wants to exist or not.
// Current is the matching entity found during prefetch, nil when none matched.
type Resource struct {
	Name       string
	Ensure     Ensure
	Attributes map[string]interface{}
	Current    *Entity
}

// Document is the JSON document sent to the API to create the resource.
// attributes is omitted when the declaration has none.
func (r *Resource) Document() map[string]interface{} {
	doc := map[string]interface{}{
		"name": r.Name,
	}
	if r.Attributes != nil {
		doc["attributes"] = r.Attributes
	}
	return doc
}
