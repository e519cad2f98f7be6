package discovery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// metaSchema is the shape check applied to fetched documents before they
// reach the generator. It covers only the fields the generator consumes;
// the generator itself asserts the semantic invariants.
const metaSchema = `{
  "type": "object",
  "required": ["name", "title", "rootUrl"],
  "properties": {
    "kind": { "type": "string" },
    "id": { "type": "string" },
    "name": { "type": "string" },
    "version": { "type": "string" },
    "title": { "type": "string" },
    "description": { "type": "string" },
    "documentationLink": { "type": "string" },
    "rootUrl": { "type": "string" },
    "servicePath": { "type": "string" },
    "resources": { "type": "object" },
    "schemas": { "type": "object" }
  }
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func documentSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("discovery.json", bytes.NewReader([]byte(metaSchema))); err != nil {
			compileErr = err
			return
		}
		compiled, compileErr = compiler.Compile("discovery.json")
	})
	return compiled, compileErr
}

// ValidateDocument checks that raw is shaped like a Discovery document.
// This is a gateway-side check; documents loaded from trusted files may
// skip it.
func ValidateDocument(raw []byte) error {
	schema, err := documentSchema()
	if err != nil {
		return fmt.Errorf("discovery: compile meta schema: %w", err)
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("discovery: parse failed: %w", err)
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("discovery: not a discovery document: %w", err)
	}
	return nil
}
