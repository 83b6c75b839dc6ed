package message

import (
	"fmt"

	"github.com/mvishiu11/WIND/value"
)

// Schema describes the expected shape of a V for a given schema ID. This is
// a library-only validation facility: spec.md §9 is explicit that no runtime
// path in the registry/publisher/RPC server enforces it. schema_id on the
// wire (Subscribe.SchemaID, Publish.SchemaID, RpcCall/RpcResponse.SchemaID)
// is advisory and callers may use SchemaRegistry to validate values
// themselves before or after they cross the wire.
type Schema struct {
	ID   string
	Kind value.Kind
	// Fields, when Kind == value.KindMap, names the required keys and their
	// expected kinds. A map value satisfies the schema if every named field
	// is present with a matching kind; extra fields are permitted.
	Fields map[string]value.Kind
}

// SchemaRegistry is an in-memory catalogue of named schemas.
type SchemaRegistry struct {
	schemas map[string]Schema
}

func NewSchemaRegistry() *SchemaRegistry {
	return &SchemaRegistry{schemas: make(map[string]Schema)}
}

// Define registers (or replaces) a schema under its ID.
func (r *SchemaRegistry) Define(s Schema) {
	r.schemas[s.ID] = s
}

// Validate checks v against the schema registered under id. A missing id
// is not an error — it simply means there is nothing to validate against,
// matching the advisory nature of schema_id (spec.md §9).
func (r *SchemaRegistry) Validate(id string, v value.V) error {
	if id == "" {
		return nil
	}
	schema, ok := r.schemas[id]
	if !ok {
		return nil
	}
	if v.Kind != schema.Kind {
		return fmt.Errorf("schema %q: expected kind %s, got %s", id, schema.Kind, v.Kind)
	}
	if schema.Kind != value.KindMap {
		return nil
	}
	for field, kind := range schema.Fields {
		fv, present := v.MapGet(field)
		if !present {
			return fmt.Errorf("schema %q: missing field %q", id, field)
		}
		if fv.Kind != kind {
			return fmt.Errorf("schema %q: field %q expected kind %s, got %s", id, field, kind, fv.Kind)
		}
	}
	return nil
}
