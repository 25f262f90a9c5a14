// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/platform-engineering-labs/formae-plugin-restful/pkg/entity"
)

// Manifest declares the entities that should or should not exist
type Manifest struct {
	Entities []Declaration `yaml:"entities"`
}

// Declaration is one entity in a manifest
type Declaration struct {
	Name       string                 `yaml:"name"`
	Ensure     string                 `yaml:"ensure,omitempty"`
	Attributes map[string]interface{} `yaml:"attributes,omitempty"`
}

// Load reads and validates a manifest file
func Load(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	m, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates a YAML manifest. Unknown keys are rejected.
func Parse(r io.Reader) (*Manifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var m Manifest
	if err := decoder.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return &m, nil
		}
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that names are present and unique and ensure values are known
func (m *Manifest) Validate() error {
	seen := make(map[string]int, len(m.Entities))
	for i, d := range m.Entities {
		if d.Name == "" {
			return fmt.Errorf("entities[%d]: name is required", i)
		}
		if prev, dup := seen[d.Name]; dup {
			return fmt.Errorf("entities[%d]: name %q already declared at entities[%d]", i, d.Name, prev)
		}
		seen[d.Name] = i

		if _, err := entity.ParseEnsure(d.Ensure); err != nil {
			return fmt.Errorf("entities[%d]: %w", i, err)
		}
	}
	return nil
}

// Resources converts the manifest into declared resources, in manifest order
func (m *Manifest) Resources() []*entity.Resource {
	resources := make([]*entity.Resource, 0, len(m.Entities))
	for _, d := range m.Entities {
		// validated by Parse
		ensure, _ := entity.ParseEnsure(d.Ensure)
		resources = append(resources, &entity.Resource{
			Name:       d.Name,
			Ensure:     ensure,
			Attributes: normalize(d.Attributes),
		})
	}
	return resources
}

// normalize turns yaml.v3's decoded values into the shapes encoding/json
// produces, so attributes compare equal to what the API returns
func normalize(attrs map[string]interface{}) map[string]interface{} {
	if attrs == nil {
		return nil
	}
	out := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return normalize(val)
	case []interface{}:
		items := make([]interface{}, len(val))
		for i, item := range val {
			items[i] = normalizeValue(item)
		}
		return items
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case uint64:
		return float64(val)
	default:
		return val
	}
}
