package builder

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/difygen/difygen/utils/blueprint"
)

// DSLVersion is the Dify DSL version the builder targets
const DSLVersion = "0.5.0"

// Text is a string that serializes multi-line values in literal block
// style. Using a value type keeps the formatting choice local to the field
// instead of hanging a representer hook on the encoder globally.
type Text string

// MarshalYAML emits literal block style when the text spans lines
func (t Text) MarshalYAML() (interface{}, error) {
	if strings.Contains(string(t), "\n") {
		return &yaml.Node{
			Kind:  yaml.ScalarNode,
			Style: yaml.LiteralStyle,
			Value: string(t),
		}, nil
	}
	return string(t), nil
}

// Document is the root of a compiled Dify DSL tree
type Document struct {
	Kind         string                 `yaml:"kind"`
	Version      string                 `yaml:"version"`
	App          App                    `yaml:"app"`
	Dependencies []blueprint.Dependency `yaml:"dependencies"`
	Workflow     Workflow               `yaml:"workflow"`
}

// App holds the application metadata block
type App struct {
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	Mode           string `yaml:"mode"`
	Icon           string `yaml:"icon"`
	IconBackground string `yaml:"icon_background"`
}

// Workflow wraps the node/edge graph
type Workflow struct {
	Graph Graph `yaml:"graph"`
}

// Graph holds the compiled nodes and edges
type Graph struct {
	Nodes []*GraphNode `yaml:"nodes"`
	Edges []*GraphEdge `yaml:"edges"`
}

// GraphNode is the generic envelope Dify wraps every node in; the semantic
// type lives under data.type
type GraphNode struct {
	ID       string      `yaml:"id"`
	Type     string      `yaml:"type"`
	Position Position    `yaml:"position"`
	Data     interface{} `yaml:"data"`
}

// Position is the canvas position of a node
type Position struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// GraphEdge connects a source handle to a target node
type GraphEdge struct {
	ID           string `yaml:"id"`
	Source       string `yaml:"source"`
	Target       string `yaml:"target"`
	SourceHandle string `yaml:"sourceHandle"`
	TargetHandle string `yaml:"targetHandle"`
	Type         string `yaml:"type"`
}

// EncodeOptions control YAML serialization of a compiled document
type EncodeOptions struct {
	Indent int
}

// Serialize renders the document as YAML. Struct field order fixes the key
// order; no reordering happens at encode time.
func Serialize(doc *Document, opts EncodeOptions) (string, error) {
	indent := opts.Indent
	if indent <= 0 {
		indent = 2
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
