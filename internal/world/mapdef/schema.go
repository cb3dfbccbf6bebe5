// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Atrium Contributors

package mapdef

import (
	"encoding/json"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/samber/oops"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// SchemaID is the $id embedded in generated schema documents.
const SchemaID = "https://atrium.dev/schemas/mapdef.schema.json"

var (
	schemaOnce sync.Once
	schemaCmp  *jschema.Schema
	schemaErr  error
)

// GenerateSchema generates the JSON Schema for map skeleton documents from
// the Skeleton struct.
func GenerateSchema() ([]byte, error) {
	r := jsonschema.Reflector{
		DoNotReference: true,
	}
	schema := r.Reflect(&Skeleton{})
	schema.ID = jsonschema.ID(SchemaID)
	schema.Title = "Atrium Map Skeleton"
	schema.Description = "Schema for map skeleton documents consumed by world building"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Wrapf(err, "marshal mapdef schema")
	}
	return data, nil
}

// ValidateSchema validates YAML data against the skeleton schema.
func ValidateSchema(data []byte) error {
	var yamlData any
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return oops.Hint("invalid YAML").Wrapf(ErrInvalidSkeleton, "%v", err)
	}

	sch, err := compiledSchema()
	if err != nil {
		return err
	}

	if err := sch.Validate(toJSONTypes(yamlData)); err != nil {
		return oops.With("validation", err.Error()).Wrap(ErrInvalidSkeleton)
	}
	return nil
}

// compiledSchema compiles the generated schema once.
func compiledSchema() (*jschema.Schema, error) {
	schemaOnce.Do(func() {
		raw, err := GenerateSchema()
		if err != nil {
			schemaErr = err
			return
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			schemaErr = oops.Wrapf(err, "parse mapdef schema")
			return
		}
		c := jschema.NewCompiler()
		if err := c.AddResource("mapdef.schema.json", doc); err != nil {
			schemaErr = oops.Wrapf(err, "add mapdef schema resource")
			return
		}
		schemaCmp, schemaErr = c.Compile("mapdef.schema.json")
	})
	return schemaCmp, schemaErr
}

// toJSONTypes converts YAML-parsed values into the JSON-compatible shapes
// the schema validator expects.
func toJSONTypes(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = toJSONTypes(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = toJSONTypes(item)
		}
		return out
	default:
		return val
	}
}
