package evidence

import (
	"fmt"

	"github.com/kaptinlin/jsonschema"
)

// manifestSchemaJSON is the structural schema for EvidenceManifest, used by
// EvidenceValidator's SCHEMA_VALIDATION_ERROR check. Kept inline rather
// than loaded from a file because the manifest shape is fixed by this
// package, not configurable per deployment.
const manifestSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["manifestVersion", "intentId", "runId", "jobType", "createdAt", "artifacts", "policyDecision", "executionSummary", "solver"],
  "properties": {
    "manifestVersion": {"type": "string"},
    "intentId": {"type": "string"},
    "runId": {"type": "string"},
    "jobType": {"type": "string"},
    "createdAt": {"type": "string"},
    "artifacts": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["path", "sha256", "bytes", "contentType"],
        "properties": {
          "path": {"type": "string"},
          "sha256": {"type": "string", "pattern": "^[a-f0-9]{64}$"},
          "bytes": {"type": "integer", "minimum": 0},
          "contentType": {"type": "string"}
        }
      }
    },
    "policyDecision": {
      "type": "object",
      "required": ["allowed", "reasons"],
      "properties": {
        "allowed": {"type": "boolean"},
        "reasons": {"type": "array", "items": {"type": "string"}}
      }
    },
    "executionSummary": {
      "type": "object",
      "required": ["status"],
      "properties": {
        "status": {"enum": ["SUCCESS", "FAILED", "REFUSED"]},
        "error": {"type": "string"}
      }
    },
    "solver": {
      "type": "object",
      "required": ["service", "serviceVersion"],
      "properties": {
        "service": {"type": "string"},
        "serviceVersion": {"type": "string"},
        "gitCommit": {"type": "string"}
      }
    }
  }
}`

// CompiledSchema wraps a compiled jsonschema.Schema so callers pay the
// compile cost once (at startup) rather than per validation call.
type CompiledSchema struct {
	schema *jsonschema.Schema
}

// CompileManifestSchema compiles the fixed manifest schema above.
func CompileManifestSchema() (*CompiledSchema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile([]byte(manifestSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}
	return &CompiledSchema{schema: schema}, nil
}

// Validate returns a list of human-readable messages; empty means valid.
func (c *CompiledSchema) Validate(data []byte) []string {
	result := c.schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return []string{fmt.Sprintf("%v", result.Errors)}
}
