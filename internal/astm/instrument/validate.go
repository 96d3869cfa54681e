package instrument

import (
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// metadataValidator validates an instrument's metadata-enrichment output
// against an optional, per-entry JSON Schema document, adapted from
// urmzd-homai/pkg/device/schema.Validator's compile-and-cache shape.
type metadataValidator struct {
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

var defaultMetadataValidator = &metadataValidator{cache: make(map[string]*jsonschema.Schema)}

// validate reports whether meta satisfies schemaDoc. An empty, "{}", or
// "null" schemaDoc always validates (no schema declared = no check),
// mirroring pkg/device/schema.Validator.Validate.
func (v *metadataValidator) validate(schemaDoc json.RawMessage, meta map[string]any) error {
	if len(schemaDoc) == 0 || string(schemaDoc) == "{}" || string(schemaDoc) == "null" {
		return nil
	}
	compiled, err := v.compile(schemaDoc)
	if err != nil {
		return err
	}
	// Round-trip through JSON so Go-typed values such as []string reach the
	// validator in the generic []any/map[string]any shapes it accepts.
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return compiled.Validate(doc)
}

func (v *metadataValidator) compile(schemaDoc json.RawMessage) (*jsonschema.Schema, error) {
	key := string(schemaDoc)

	v.mu.RLock()
	if s, ok := v.cache[key]; ok {
		v.mu.RUnlock()
		return s, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.cache[key]; ok {
		return s, nil
	}

	var doc any
	if err := json.Unmarshal(schemaDoc, &doc); err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("metadata.json", doc); err != nil {
		return nil, err
	}
	compiled, err := c.Compile("metadata.json")
	if err != nil {
		return nil, err
	}
	v.cache[key] = compiled
	return compiled, nil
}
