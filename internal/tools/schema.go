package tools

import (
	"bytes"
	"encoding/json"
	"fmt"

	genschema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// GenerateSchema derives a JSON-Schema document for the shape of v (typically
// a pointer to a zero-value parameter struct) using reflection, instead of a
// hand-written schema literal. The result is suitable for both advertising a
// tool's parameters() to a model and for Validate below.
func GenerateSchema(v any) (json.RawMessage, error) {
	reflector := &genschema.Reflector{
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	schema := reflector.Reflect(v)
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("tools: marshal generated schema: %w", err)
	}
	return data, nil
}

// Validate checks data against schema, compiled fresh each call. Tool
// parameter sets are small and validated once per call, so recompiling here
// trades a little CPU for not having to thread a compiled-schema cache
// through every Tool implementation.
func Validate(schema json.RawMessage, data json.RawMessage) error {
	compiler := jsonschema.NewCompiler()
	const resourceName = "tool-params.json"
	if err := compiler.AddResource(resourceName, bytes.NewReader(schema)); err != nil {
		return fmt.Errorf("tools: load schema: %w", err)
	}
	compiled, err := compiler.Compile(resourceName)
	if err != nil {
		return fmt.Errorf("tools: compile schema: %w", err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("tools: arguments are not valid JSON: %w", err)
	}
	if err := compiled.Validate(v); err != nil {
		return fmt.Errorf("tools: arguments do not match schema: %w", err)
	}
	return nil
}
