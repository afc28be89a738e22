// Package schema reflects Go tool input structs into provider input schemas.
package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/armatrix/claude-agent-runtime/provider"
)

// reflector inlines nested types so every property schema is self-contained.
var reflector = jsonschema.Reflector{
	DoNotReference: true,
	ExpandedStruct: true,
	Anonymous:      true,
}

// Generate produces a provider.InputSchema from a Go struct type T.
// It uses struct tags (json, jsonschema) to derive the JSON Schema.
func Generate[T any]() provider.InputSchema {
	var zero T
	root := reflector.Reflect(&zero)

	in := provider.InputSchema{Required: root.Required}
	if root.Properties == nil || root.Properties.Len() == 0 {
		return in
	}
	in.Properties = make(map[string]any, root.Properties.Len())
	for pair := root.Properties.Oldest(); pair != nil; pair = pair.Next() {
		in.Properties[pair.Key] = propertyMap(pair.Value)
	}
	return in
}

// propertyMap renders one property schema as a plain JSON object.
func propertyMap(s *jsonschema.Schema) map[string]any {
	m := map[string]any{}
	data, err := json.Marshal(s)
	if err != nil {
		return m
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{}
	}
	collapseNullable(m)
	return m
}

// collapseNullable folds an anyOf of a concrete type and null into the
// concrete type.
func collapseNullable(m map[string]any) {
	anyOf, ok := m["anyOf"].([]any)
	if !ok {
		return
	}
	for _, v := range anyOf {
		sub, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := sub["type"].(string); t != "" && t != "null" {
			delete(m, "anyOf")
			for k, v := range sub {
				if _, exists := m[k]; !exists {
					m[k] = v
				}
			}
			return
		}
	}
}

// GenerateJSON returns the schema as a JSON Schema object document.
func GenerateJSON[T any]() (json.RawMessage, error) {
	in := Generate[T]()
	return json.Marshal(map[string]any{
		"type":       "object",
		"properties": in.Properties,
		"required":   in.Required,
	})
}
