package blueprint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// DefaultTitle is assigned to nodes that declare no title
const DefaultTitle = "Untitled Node"

// DefaultSystemPrompt is assigned to LLM nodes that declare no system prompt
const DefaultSystemPrompt = "You are a helpful assistant."

var validHTTPMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"DELETE": true,
	"PATCH":  true,
	"HEAD":   true,
}

// Parse decodes a JSON blob into a Blueprint. Shape errors here are fatal
// to compilation; the caller decides whether to abort or regenerate.
func Parse(data []byte) (*Blueprint, error) {
	var bp Blueprint
	if err := json.Unmarshal(data, &bp); err != nil {
		return nil, err
	}
	return &bp, nil
}

// UnmarshalJSON decodes the blueprint root, dispatching each node to its
// concrete variant by the type tag
func (bp *Blueprint) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name         string            `json:"name"`
		Description  string            `json:"description"`
		Dependencies []Dependency      `json:"dependencies"`
		Nodes        []json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Name == "" {
		return fmt.Errorf("blueprint name is required")
	}
	if len(raw.Nodes) == 0 {
		return fmt.Errorf("blueprint must declare at least one node")
	}

	bp.Name = raw.Name
	bp.Description = raw.Description
	bp.Dependencies = raw.Dependencies
	for i := range bp.Dependencies {
		if bp.Dependencies[i].Kind == "" {
			bp.Dependencies[i].Kind = "marketplace"
		}
	}

	bp.Nodes = make([]Node, 0, len(raw.Nodes))
	for i, rawNode := range raw.Nodes {
		node, err := decodeNode(rawNode)
		if err != nil {
			return fmt.Errorf("node %d: %w", i, err)
		}
		bp.Nodes = append(bp.Nodes, node)
	}
	return nil
}

// decodeNode peeks at the type discriminator and decodes the matching
// variant. Unrecognized types are a shape error, not a silent no-op.
func decodeNode(data []byte) (Node, error) {
	var head struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	if head.ID == "" {
		return nil, fmt.Errorf("node id is required")
	}

	var node Node
	switch head.Type {
	case TypeStart:
		node = &StartNode{}
	case TypeEnd:
		node = &EndNode{}
	case TypeLLM:
		node = &LLMNode{}
	case TypeCode:
		node = &CodeNode{}
	case TypeTemplate:
		node = &TemplateNode{}
	case TypeHTTP:
		node = &HTTPNode{}
	case TypeIfElse:
		node = &IfElseNode{}
	case TypeQuestionClassifier:
		node = &QuestionClassifierNode{}
	default:
		return nil, fmt.Errorf("unrecognized node type %q (id %s)", head.Type, head.ID)
	}

	if err := json.Unmarshal(data, node); err != nil {
		return nil, fmt.Errorf("node %s: %w", head.ID, err)
	}
	if err := applyDefaults(node); err != nil {
		return nil, fmt.Errorf("node %s: %w", head.ID, err)
	}
	return node, nil
}

// applyDefaults fills variant defaults and rejects out-of-range enums
func applyDefaults(node Node) error {
	base := baseOf(node)
	if base.Title == "" {
		base.Title = DefaultTitle
	}

	switch n := node.(type) {
	case *StartNode:
		for i := range n.Variables {
			if n.Variables[i].Type == "" {
				n.Variables[i].Type = "string"
			}
		}
	case *LLMNode:
		if n.SystemPrompt == "" {
			n.SystemPrompt = DefaultSystemPrompt
		}
	case *CodeNode:
		if n.CodeLanguage == "" {
			n.CodeLanguage = "python3"
		}
		if n.CodeLanguage != "python3" {
			return fmt.Errorf("unsupported code language %q", n.CodeLanguage)
		}
	case *HTTPNode:
		if n.Method == "" {
			n.Method = "GET"
		}
		if !validHTTPMethods[n.Method] {
			return fmt.Errorf("unsupported HTTP method %q", n.Method)
		}
	case *IfElseNode:
		if n.LogicalOperator == "" {
			n.LogicalOperator = "and"
		}
		if n.LogicalOperator != "and" && n.LogicalOperator != "or" {
			return fmt.Errorf("logical_operator must be \"and\" or \"or\", got %q", n.LogicalOperator)
		}
		for i := range n.Branches {
			if n.Branches[i].Operator == "" {
				n.Branches[i].Operator = "contains"
			}
		}
	}
	return nil
}

func baseOf(node Node) *BaseNode {
	switch n := node.(type) {
	case *StartNode:
		return &n.BaseNode
	case *EndNode:
		return &n.BaseNode
	case *LLMNode:
		return &n.BaseNode
	case *CodeNode:
		return &n.BaseNode
	case *TemplateNode:
		return &n.BaseNode
	case *HTTPNode:
		return &n.BaseNode
	case *IfElseNode:
		return &n.BaseNode
	case *QuestionClassifierNode:
		return &n.BaseNode
	}
	return nil
}

// StepList holds the ids of a node's successors. Blueprint JSON may write
// it as a single string, a list of strings, or null.
type StepList []string

// UnmarshalJSON accepts string, list-of-string, or null forms
func (s *StepList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	if data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*s = StepList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("next_step must be a string or list of strings: %w", err)
	}
	*s = StepList(many)
	return nil
}

// OutputList holds an End node's output declarations. The canonical form is
// an ordered list of {var, value} objects; a bare map is tolerated as a
// legacy fallback and normalized with keys in sorted order.
type OutputList []EndOutput

// UnmarshalJSON accepts the list form or the legacy map fallback
func (o *OutputList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = nil
		return nil
	}
	if data[0] == '[' {
		var entries []EndOutput
		if err := json.Unmarshal(data, &entries); err != nil {
			return err
		}
		*o = OutputList(entries)
		return nil
	}

	var legacy map[string]interface{}
	if err := json.Unmarshal(data, &legacy); err != nil {
		return fmt.Errorf("outputs must be a list or map: %w", err)
	}
	keys := make([]string, 0, len(legacy))
	for k := range legacy {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]EndOutput, 0, len(keys))
	for _, k := range keys {
		value, _ := legacy[k].(string)
		entries = append(entries, EndOutput{Var: k, Value: value})
	}
	*o = OutputList(entries)
	return nil
}
