package converter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// compileSchema turns a JSON-schema map into a compiled validator. The same
// map is sent to the model backend as the structured-output constraint.
func compileSchema(reportID string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	resource := reportID + ".schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resource, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func readMarkdownFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read markdown file: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("markdown file %q is not valid UTF-8", path)
	}
	return string(raw), nil
}
