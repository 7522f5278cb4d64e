package extract

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Recognizer is one row of the declarative extraction table: the value
// following one of a set of synonymous labels, within Window characters,
// interpreted according to Kind. Table order is priority order; a later
// recognizer never overwrites a field an earlier one already set.
type Recognizer struct {
	Field  string      `json:"field"`
	Labels []string    `json:"labels"`
	Kind   FieldKind   `json:"kind"`
	Policy MatchPolicy `json:"policy,omitempty"`
	Window int         `json:"window,omitempty"`
}

//go:embed recognizers.json
var defaultTableJSON []byte

// BuildTableSchema returns the JSON-Schema the recognizer table must satisfy.
// Validating the table at startup turns a malformed config into a hard error
// instead of silently-dead recognizers.
func BuildTableSchema() map[string]any {
	return map[string]any{
		"type":     "array",
		"minItems": 1,
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"field": map[string]any{"type": "string", "minLength": 1},
				"labels": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items":    map[string]any{"type": "string", "minLength": 2},
				},
				"kind": map[string]any{
					"type": "string",
					"enum": []string{"TEXT", "ID", "AMOUNT", "DATE", "CPF", "CNPJ", "CEP"},
				},
				"policy": map[string]any{
					"type": "string",
					"enum": []string{"FIRST", "LAST"},
				},
				"window": map[string]any{"type": "integer", "minimum": 8, "maximum": 512},
			},
			"required": []string{"field", "labels", "kind"},
		},
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

// LoadTable parses and validates a recognizer table, applying defaults.
func LoadTable(raw []byte) ([]Recognizer, error) {
	if err := ValidateJSONAgainstSchema(BuildTableSchema(), raw); err != nil {
		return nil, fmt.Errorf("recognizer table: %w", err)
	}
	var table []Recognizer
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("recognizer table: decode: %w", err)
	}
	for i := range table {
		if table[i].Policy == "" {
			table[i].Policy = PolicyFirst
		}
		if table[i].Window <= 0 {
			table[i].Window = 64
		}
	}
	return table, nil
}

// DefaultTable returns the embedded recognizer table.
func DefaultTable() ([]Recognizer, error) {
	return LoadTable(defaultTableJSON)
}
