package reports

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ConfigValidator validates element configuration payloads against the palette schema of their kind.
type ConfigValidator interface {
	Validate(entry PaletteEntry, config map[string]any) error
}

// ConfigValidationError reports a config payload rejected by its kind's schema.
type ConfigValidationError struct {
	Kind ElementKind
	Err  error
}

func (e *ConfigValidationError) Error() string {
	return fmt.Sprintf("reports: configuration for %s failed validation: %v", e.Kind, e.Err)
}

func (e *ConfigValidationError) Unwrap() error { return e.Err }

// JSONSchemaValidator compiles palette schemas once per kind and validates config maps.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[ElementKind]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{compiled: make(map[ElementKind]*jsonschema.Schema)}
}

// Validate checks config against entry.Schema. Entries without a schema accept anything.
func (v *JSONSchemaValidator) Validate(entry PaletteEntry, config map[string]any) error {
	if len(entry.Schema) == 0 {
		return nil
	}
	schema, err := v.schemaFor(entry)
	if err != nil {
		return err
	}
	payload := map[string]any{}
	if config != nil {
		// jsonschema expects JSON-decoded values (float64, []any)
		data, err := json.Marshal(config)
		if err != nil {
			return fmt.Errorf("reports: marshal config for %s: %w", entry.Kind, err)
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("reports: normalize config for %s: %w", entry.Kind, err)
		}
	}
	if err := schema.Validate(payload); err != nil {
		return &ConfigValidationError{Kind: entry.Kind, Err: err}
	}
	return nil
}

// Forget drops the compiled schema for kind so a re-registered entry is recompiled.
func (v *JSONSchemaValidator) Forget(kind ElementKind) {
	v.mu.Lock()
	delete(v.compiled, kind)
	v.mu.Unlock()
}

func (v *JSONSchemaValidator) schemaFor(entry PaletteEntry) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[entry.Kind]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	data, err := json.Marshal(entry.Schema)
	if err != nil {
		return nil, fmt.Errorf("reports: marshal schema %s: %w", entry.Kind, err)
	}
	compiler := jsonschema.NewCompiler()
	name := string(entry.Kind) + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("reports: load schema %s: %w", entry.Kind, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("reports: compile schema %s: %w", entry.Kind, err)
	}
	v.mu.Lock()
	v.compiled[entry.Kind] = compiled
	v.mu.Unlock()
	return compiled, nil
}

type noopConfigValidator struct{}

func (noopConfigValidator) Validate(PaletteEntry, map[string]any) error { return nil }

// ValidateTemplate checks the structural invariants of a stored template:
// unique element ids, known kinds, non-negative positions, sizes of at least 1x1,
// valid page settings and schedule. Overlap and off-page placement are allowed.
func ValidateTemplate(tpl Template) error {
	seen := make(map[string]struct{}, len(tpl.Elements))
	for idx, el := range tpl.Elements {
		if el.ID == "" {
			return fmt.Errorf("element at index %d: %w", idx, errMissingElementID)
		}
		if _, dup := seen[el.ID]; dup {
			return fmt.Errorf("%w: %s", errDuplicateElementID, el.ID)
		}
		seen[el.ID] = struct{}{}
		if !el.Kind.Valid() {
			return fmt.Errorf("element %s: %w: %q", el.ID, ErrUnknownKind, el.Kind)
		}
		if err := el.Position.Validate(); err != nil {
			return fmt.Errorf("element %s: %w", el.ID, err)
		}
		if err := el.Size.Validate(); err != nil {
			return fmt.Errorf("element %s: %w", el.ID, err)
		}
	}
	if err := tpl.PageSettings.Normalize().Validate(); err != nil {
		return err
	}
	if tpl.Schedule != nil {
		if err := tpl.Schedule.Validate(); err != nil {
			return err
		}
	}
	return nil
}
