package validate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidateAgainstSchema validates JSON data against a JSON schema. The name
// keys the schema resource; ref optionally selects a sub-schema.
func ValidateAgainstSchema(name string, schema []byte, data []byte, ref string) error {
	compiler := jsonschema.NewCompiler()

	resource := name + ".json"
	if err := compiler.AddResource(resource, bytes.NewReader(schema)); err != nil {
		return fmt.Errorf("adding schema %s: %w", name, err)
	}

	target := resource
	if ref != "" {
		target = resource + ref
	}
	sch, err := compiler.Compile(target)
	if err != nil {
		return fmt.Errorf("compiling schema %s: %w", name, err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing document: %w", err)
	}

	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// configSchema is the shape of reqsmith.yaml after YAML-to-JSON conversion.
const configSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"workers": {"type": "integer", "minimum": 1, "maximum": 64},
		"cacheDir": {"type": "string", "minLength": 1},
		"indexUrl": {"type": "string", "minLength": 1},
		"reportDir": {"type": "string", "minLength": 1},
		"logging": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"level": {"type": "string", "enum": ["debug", "info", "warn", "error"]},
				"file": {"type": "string"}
			}
		}
	}
}`

// ValidateConfigJSON validates tool configuration in JSON form.
func ValidateConfigJSON(data []byte) error {
	return ValidateAgainstSchema("reqsmith-config", []byte(configSchema), data, "")
}
