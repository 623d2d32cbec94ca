package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validator checks payloads against JSON Schema documents. Compiled
// schemas are cached by document text.
type Validator struct {
	compiled sync.Map // string -> *jsonschema.Schema
}

// NewValidator creates a Validator with the built-in schemas precompiled.
func NewValidator() *Validator {
	v := &Validator{}
	for _, doc := range []json.RawMessage{DiagnosticDumpSchema, IconOverrideSchema} {
		if _, err := v.schema(doc); err != nil {
			panic(fmt.Sprintf("built-in schema does not compile: %v", err))
		}
	}
	return v
}

// Validate checks payload against schemaDoc. An empty document accepts
// everything.
func (v *Validator) Validate(schemaDoc json.RawMessage, payload any) error {
	switch string(bytes.TrimSpace(schemaDoc)) {
	case "", "{}", "null":
		return nil
	}

	s, err := v.schema(schemaDoc)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}
	return s.Validate(payload)
}

// ValidateDump checks that raw diagnostic output has the connected /
// not-connected device taxonomy the extractor relies on.
func (v *Validator) ValidateDump(raw []byte) error {
	payload, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("decode diagnostic dump: %w", err)
	}
	return v.Validate(DiagnosticDumpSchema, payload)
}

func (v *Validator) schema(doc json.RawMessage) (*jsonschema.Schema, error) {
	key := string(doc)
	if s, ok := v.compiled.Load(key); ok {
		return s.(*jsonschema.Schema), nil
	}

	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", parsed); err != nil {
		return nil, fmt.Errorf("failed to add resource: %w", err)
	}
	s, err := c.Compile("schema.json")
	if err != nil {
		return nil, err
	}

	actual, _ := v.compiled.LoadOrStore(key, s)
	return actual.(*jsonschema.Schema), nil
}
