package blueprint

// Node type discriminators used in blueprint JSON and in the compiled DSL
const (
	TypeStart              = "start"
	TypeEnd                = "end"
	TypeLLM                = "llm"
	TypeCode               = "code"
	TypeTemplate           = "template-transform"
	TypeHTTP               = "http-request"
	TypeIfElse             = "if-else"
	TypeQuestionClassifier = "question-classifier"
)

// Blueprint is the root of the intermediate workflow description produced
// by the architect stage and consumed by the builder
type Blueprint struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Dependencies []Dependency `json:"dependencies"`
	Nodes        []Node       `json:"nodes"`
}

// Dependency declares an external plugin the compiled workflow requires.
// Duplicates are preserved in order; the builder serializes them verbatim.
type Dependency struct {
	Kind  string                 `json:"kind" yaml:"kind"`
	Value map[string]interface{} `json:"value" yaml:"value"`
}

// Node is the common interface over all blueprint node variants
type Node interface {
	NodeID() string
	NodeType() string
	NodeTitle() string
	NodeDesc() string
	NextSteps() []string
}

// BaseNode carries the fields shared by every node variant
type BaseNode struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Title    string   `json:"title"`
	Desc     string   `json:"description"`
	NextStep StepList `json:"next_step"`
}

// NodeID returns the node's unique identifier
func (b *BaseNode) NodeID() string { return b.ID }

// NodeType returns the node's type discriminator
func (b *BaseNode) NodeType() string { return b.Type }

// NodeTitle returns the node's display title
func (b *BaseNode) NodeTitle() string { return b.Title }

// NodeDesc returns the node's description
func (b *BaseNode) NodeDesc() string { return b.Desc }

// NextSteps returns the ids of the node's declared successors
func (b *BaseNode) NextSteps() []string { return b.NextStep }

// VariableDefinition declares a named, loosely typed variable
type VariableDefinition struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// StartNode is the workflow entry point and declares its input variables
type StartNode struct {
	BaseNode
	Variables []VariableDefinition `json:"variables"`
}

// EndOutput is one output declaration of an End node
type EndOutput struct {
	Var   string `json:"var"`
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}

// EndNode terminates the workflow and maps node outputs to workflow outputs
type EndNode struct {
	BaseNode
	Outputs OutputList `json:"outputs"`
}

// ModelConfig selects the model an LLM node runs on
type ModelConfig struct {
	Provider         string                 `json:"provider"`
	Name             string                 `json:"name"`
	Mode             string                 `json:"mode"`
	CompletionParams map[string]interface{} `json:"completion_params,omitempty"`
}

// LLMNode invokes a language model with a system and user prompt
type LLMNode struct {
	BaseNode
	Model        *ModelConfig `json:"model,omitempty"`
	SystemPrompt string       `json:"system_prompt"`
	UserPrompt   string       `json:"user_prompt"`
}

// CodeNode runs a Python snippet over resolved input references
type CodeNode struct {
	BaseNode
	CodeLanguage string               `json:"code_language"`
	Code         string               `json:"code"`
	Inputs       map[string]string    `json:"inputs"`
	Outputs      []VariableDefinition `json:"outputs"`
}

// TemplateNode renders a text template containing reference placeholders
type TemplateNode struct {
	BaseNode
	Template string `json:"template"`
}

// HTTPTimeout holds per-phase timeouts in seconds for an HTTP node
type HTTPTimeout struct {
	Connect int `json:"connect" yaml:"connect"`
	Read    int `json:"read" yaml:"read"`
	Write   int `json:"write" yaml:"write"`
}

// HTTPNode performs an HTTP request
type HTTPNode struct {
	BaseNode
	URL     string       `json:"url"`
	Method  string       `json:"method"`
	Headers string       `json:"headers"`
	Params  string       `json:"params"`
	Body    string       `json:"body"`
	Timeout *HTTPTimeout `json:"timeout,omitempty"`
}

// BranchCondition is one branch of an IfElse node. A branch with operator
// "default" is the else path.
type BranchCondition struct {
	Operator string `json:"operator"`
	Variable string `json:"variable"`
	Value    string `json:"value"`
	NextStep string `json:"next_step"`
}

// IfElseNode routes the workflow down a true or false path
type IfElseNode struct {
	BaseNode
	LogicalOperator string            `json:"logical_operator"`
	Branches        []BranchCondition `json:"branches"`
}

// ClassDefinition is one routing class of a QuestionClassifier node
type ClassDefinition struct {
	Name     string `json:"name"`
	NextStep string `json:"next_step"`
}

// QuestionClassifierNode routes the workflow based on a classified query
type QuestionClassifierNode struct {
	BaseNode
	QueryVariable string            `json:"query_variable"`
	Classes       []ClassDefinition `json:"classes"`
}
