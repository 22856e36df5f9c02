package validator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/difygen/difygen/utils/config"
)

// Validator checks a compiled Dify DSL document in two phases: structural
// conformance against the DSL schema, then graph-level business rules.
// Phases are fail-fast relative to each other but exhaustive internally.
type Validator struct {
	checkReferences bool
	content         map[string]interface{}
}

// NewValidator creates a validator. With checkReferences set, the logical
// phase additionally verifies that every variable reference points at a
// node present in the graph.
func NewValidator(checkReferences bool) *Validator {
	return &Validator{checkReferences: checkReferences}
}

// LoadFromFile parses the DSL document from a YAML file
func (v *Validator) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading DSL file: %w", err)
	}
	return v.LoadFromString(string(data))
}

// LoadFromString parses the DSL document from YAML text
func (v *Validator) LoadFromString(yamlText string) error {
	var raw interface{}
	if err := yaml.Unmarshal([]byte(yamlText), &raw); err != nil {
		return fmt.Errorf("error parsing DSL YAML: %w", err)
	}

	normalized, err := normalize(raw)
	if err != nil {
		return fmt.Errorf("error normalizing DSL document: %w", err)
	}
	content, ok := normalized.(map[string]interface{})
	if !ok {
		return fmt.Errorf("DSL document must be a mapping at the top level")
	}

	v.content = content
	return nil
}

// ValidateStructure runs the schema phase
func (v *Validator) ValidateStructure() (bool, []string) {
	if v.content == nil {
		return false, []string{"no DSL content loaded"}
	}
	errors := validateStructure(v.content)
	return len(errors) == 0, errors
}

// ValidateLogic runs the graph phase; callers should run it only after the
// structure phase passes
func (v *Validator) ValidateLogic() (bool, []string) {
	if v.content == nil {
		return false, []string{"no DSL content loaded"}
	}
	errors := validateLogic(v.content, v.checkReferences)
	return len(errors) == 0, errors
}

// Validate runs both phases
func (v *Validator) Validate() (bool, []string) {
	ok, errors := v.ValidateStructure()
	if !ok {
		config.DebugLog("structural validation failed with %d errors", len(errors))
		return false, errors
	}

	ok, errors = v.ValidateLogic()
	if !ok {
		config.DebugLog("logical validation failed with %d errors", len(errors))
		return false, errors
	}

	return true, nil
}

// normalize round-trips the YAML tree through JSON so the schema library
// sees the value kinds it expects (string-keyed maps, float64 numbers)
func normalize(v interface{}) (interface{}, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.NewDecoder(&buf).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
