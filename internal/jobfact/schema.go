package jobfact

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildJobJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic
// map. It is used locally to validate the de-fenced model payload; "found" is
// the only hard requirement so a bare {"found": false} stays valid.
func BuildJobJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"found": map[string]any{"type": "boolean"},
			"current_job": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties": map[string]any{
					"company":    map[string]any{"type": "string"},
					"position":   map[string]any{"type": "string"},
					"period":     map[string]any{"type": "string"},
					"is_current": map[string]any{"type": "boolean"},
				},
			},
		},
		"required": []string{"found"},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
