package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// dslSchema is the structural contract of a compiled Dify DSL document.
// The schema is additive: unknown keys never fail validation, only the
// required shape is enforced.
const dslSchema = `{
  "$id": "https://difygen.dev/schemas/dsl.json",
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "Dify DSL Schema",
  "type": "object",
  "required": ["version", "kind", "workflow"],
  "properties": {
    "version": {
      "type": "string",
      "pattern": "^\\d+\\.\\d+\\.\\d+$"
    },
    "kind": {"type": "string"},
    "metadata": {"type": "object", "additionalProperties": true},
    "app": {"type": "object", "additionalProperties": true},
    "workflow": {
      "type": "object",
      "required": ["graph"],
      "properties": {
        "graph": {
          "type": "object",
          "required": ["nodes", "edges"],
          "properties": {
            "nodes": {
              "type": "array",
              "minItems": 1,
              "items": {
                "type": "object",
                "required": ["id", "data"],
                "properties": {
                  "id": {"type": "string"},
                  "position": {
                    "type": "object",
                    "properties": {
                      "x": {"type": "number"},
                      "y": {"type": "number"}
                    },
                    "additionalProperties": true
                  },
                  "data": {
                    "type": "object",
                    "required": ["type"],
                    "properties": {
                      "type": {"type": "string"},
                      "title": {"type": "string"},
                      "desc": {"type": "string"}
                    },
                    "additionalProperties": true
                  }
                },
                "additionalProperties": true
              }
            },
            "edges": {
              "type": "array",
              "items": {
                "type": "object",
                "required": ["id", "source", "target"],
                "properties": {
                  "id": {"type": "string"},
                  "source": {"type": "string"},
                  "target": {"type": "string"}
                },
                "additionalProperties": true
              }
            }
          },
          "additionalProperties": true
        }
      },
      "additionalProperties": true
    }
  },
  "additionalProperties": true
}`

var compiledSchema = jsonschema.MustCompileString("dsl.json", dslSchema)

// validateStructure checks the document against the schema and returns one
// message per violation, sorted by location. Violations are collected
// exhaustively, not fail-fast.
func validateStructure(content interface{}) []string {
	err := compiledSchema.Validate(content)
	if err == nil {
		return nil
	}

	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{err.Error()}
	}

	var messages []string
	for _, leaf := range leafCauses(validationErr) {
		messages = append(messages, fmt.Sprintf("location: [%s], reason: %s",
			formatLocation(leaf.InstanceLocation), leaf.Message))
	}
	sort.Strings(messages)
	return messages
}

// leafCauses flattens the cause tree to its most specific violations
func leafCauses(err *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(err.Causes) == 0 {
		return []*jsonschema.ValidationError{err}
	}
	var leaves []*jsonschema.ValidationError
	for _, cause := range err.Causes {
		leaves = append(leaves, leafCauses(cause)...)
	}
	return leaves
}

// formatLocation renders a JSON pointer as a readable path
func formatLocation(pointer string) string {
	parts := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	return strings.Join(parts, " -> ")
}
