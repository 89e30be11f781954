package docai

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ledgerflow/ledgerflow/constants"
)

// BuildClassificationJSONSchema returns the JSON-Schema (draft 2020-12
// subset) the remote service's classification response must satisfy. We
// validate locally before trusting anything it says.
func BuildClassificationJSONSchema() map[string]any {
	types := make([]string, 0, len(constants.ClassifiableTypes)+1)
	for _, t := range constants.ClassifiableTypes {
		types = append(types, string(t))
	}
	types = append(types, string(constants.Other))

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"document_type": map[string]any{"type": "string", "enum": types},
			"confidence":    map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
			"reasoning":     map[string]any{"type": "string"},
			"key_indicators": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"potential_misclassification": map[string]any{"type": "boolean"},
		},
		"required": []string{"document_type", "confidence"},
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
