package builder

import (
	"sort"
	"strings"

	"github.com/difygen/difygen/utils/blueprint"
	"github.com/difygen/difygen/utils/refs"
)

// nodeCommon is the head of every compiled node's data block
type nodeCommon struct {
	Title string `yaml:"title"`
	Desc  string `yaml:"desc"`
	Type  string `yaml:"type"`
}

type startVariable struct {
	Variable  string   `yaml:"variable"`
	Label     string   `yaml:"label"`
	Type      string   `yaml:"type"`
	Required  bool     `yaml:"required"`
	Options   []string `yaml:"options"`
	MaxLength int      `yaml:"max_length,omitempty"`
}

type startData struct {
	nodeCommon `yaml:",inline"`
	Variables  []startVariable `yaml:"variables"`
}

type endOutput struct {
	Variable      string   `yaml:"variable"`
	ValueSelector []string `yaml:"value_selector"`
	ValueType     string   `yaml:"value_type"`
}

type endData struct {
	nodeCommon `yaml:",inline"`
	Outputs    []endOutput `yaml:"outputs"`
}

type modelBlock struct {
	Provider         string                 `yaml:"provider"`
	Name             string                 `yaml:"name"`
	Mode             string                 `yaml:"mode"`
	CompletionParams map[string]interface{} `yaml:"completion_params,omitempty"`
}

type visionBlock struct {
	Enabled bool `yaml:"enabled"`
}

type memoryWindow struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

type memoryBlock struct {
	Window memoryWindow `yaml:"window"`
}

type contextBlock struct {
	Enabled          bool     `yaml:"enabled"`
	VariableSelector []string `yaml:"variable_selector"`
}

type promptMessage struct {
	Role string `yaml:"role"`
	Text Text   `yaml:"text"`
}

type llmData struct {
	nodeCommon     `yaml:",inline"`
	Model          modelBlock      `yaml:"model"`
	Vision         visionBlock     `yaml:"vision"`
	Memory         memoryBlock     `yaml:"memory"`
	Context        contextBlock    `yaml:"context"`
	PromptTemplate []promptMessage `yaml:"prompt_template"`
}

type authBlock struct {
	Type string `yaml:"type"`
}

type bodyBlock struct {
	Type string `yaml:"type"`
	Data Text   `yaml:"data"`
}

type httpData struct {
	nodeCommon    `yaml:",inline"`
	Method        string                `yaml:"method"`
	URL           string                `yaml:"url"`
	Authorization authBlock             `yaml:"authorization"`
	Headers       string                `yaml:"headers"`
	Params        string                `yaml:"params"`
	Body          bodyBlock             `yaml:"body"`
	Timeout       blueprint.HTTPTimeout `yaml:"timeout"`
}

type valueBinding struct {
	Variable      string   `yaml:"variable"`
	ValueSelector []string `yaml:"value_selector"`
}

type codeOutput struct {
	Type     string      `yaml:"type"`
	Children interface{} `yaml:"children"`
}

type codeData struct {
	nodeCommon   `yaml:",inline"`
	Code         Text                  `yaml:"code"`
	CodeLanguage string                `yaml:"code_language"`
	Variables    []valueBinding        `yaml:"variables"`
	Outputs      map[string]codeOutput `yaml:"outputs"`
}

type templateData struct {
	nodeCommon `yaml:",inline"`
	Template   Text           `yaml:"template"`
	Variables  []valueBinding `yaml:"variables"`
}

type ifElseCondition struct {
	ID                 string   `yaml:"id"`
	VariableSelector   []string `yaml:"variable_selector"`
	ComparisonOperator string   `yaml:"comparison_operator"`
	Value              string   `yaml:"value"`
	VarType            string   `yaml:"varType"`
}

type ifElseData struct {
	nodeCommon      `yaml:",inline"`
	LogicalOperator string            `yaml:"logical_operator"`
	Conditions      []ifElseCondition `yaml:"conditions"`
}

type classifierClass struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

type classifierData struct {
	nodeCommon            `yaml:",inline"`
	QueryVariableSelector []string          `yaml:"query_variable_selector"`
	Model                 modelBlock        `yaml:"model"`
	Classes               []classifierClass `yaml:"classes"`
}

// mapSemanticType normalizes a loose blueprint type to the Dify value type
func mapSemanticType(t string) string {
	switch strings.ToLower(t) {
	case "integer", "int", "float", "number":
		return "number"
	case "boolean", "bool":
		return "boolean"
	case "object", "dict":
		return "object"
	case "array", "list":
		return "array"
	default:
		return "string"
	}
}

// widgetType maps a normalized value type to the Dify input widget
func widgetType(semanticType string) string {
	switch semanticType {
	case "number":
		return "number"
	case "boolean":
		return "select"
	default:
		return "text-input"
	}
}

func common(node blueprint.Node) nodeCommon {
	return nodeCommon{
		Title: node.NodeTitle(),
		Desc:  node.NodeDesc(),
		Type:  node.NodeType(),
	}
}

func defaultModel() modelBlock {
	return modelBlock{Provider: "openai", Name: "gpt-4o", Mode: "chat"}
}

func buildStartData(node *blueprint.StartNode) *startData {
	data := &startData{
		nodeCommon: common(node),
		Variables:  []startVariable{},
	}
	for _, v := range node.Variables {
		widget := widgetType(mapSemanticType(v.Type))
		sv := startVariable{
			Variable: v.Name,
			Label:    v.Name,
			Type:     widget,
			Required: true,
			Options:  []string{},
		}
		// Only free-text inputs carry a length limit.
		if widget == "text-input" {
			sv.MaxLength = 48
		}
		data.Variables = append(data.Variables, sv)
	}
	return data
}

func buildEndData(node *blueprint.EndNode) *endData {
	data := &endData{
		nodeCommon: common(node),
		Outputs:    []endOutput{},
	}
	for _, out := range node.Outputs {
		selector := []string{}
		resolved := refs.Resolve(out.Value)
		if sel, ok := refs.ExtractSelector(resolved); ok {
			selector = sel.Slice()
		}

		valueType := out.Type
		if valueType == "" {
			valueType = "string"
		}
		data.Outputs = append(data.Outputs, endOutput{
			Variable:      out.Var,
			ValueSelector: selector,
			ValueType:     valueType,
		})
	}
	return data
}

func buildLLMData(node *blueprint.LLMNode) *llmData {
	model := defaultModel()
	if node.Model != nil {
		model = modelBlock{
			Provider:         node.Model.Provider,
			Name:             node.Model.Name,
			Mode:             node.Model.Mode,
			CompletionParams: node.Model.CompletionParams,
		}
	}

	return &llmData{
		nodeCommon: common(node),
		Model:      model,
		Vision:     visionBlock{Enabled: false},
		Memory:     memoryBlock{Window: memoryWindow{Enabled: false, Size: 10}},
		Context:    contextBlock{Enabled: false, VariableSelector: []string{}},
		PromptTemplate: []promptMessage{
			{Role: "system", Text: Text(node.SystemPrompt)},
			{Role: "user", Text: Text(refs.Resolve(node.UserPrompt))},
		},
	}
}

func buildHTTPData(node *blueprint.HTTPNode) *httpData {
	body := bodyBlock{Type: "none", Data: Text(node.Body)}
	if node.Body != "" {
		// Non-empty bodies are assumed to be JSON; the builder does no
		// content-type negotiation.
		body.Type = "json"
	}

	timeout := blueprint.HTTPTimeout{Connect: 5, Read: 60, Write: 60}
	if node.Timeout != nil {
		timeout = *node.Timeout
	}

	return &httpData{
		nodeCommon:    common(node),
		Method:        node.Method,
		URL:           node.URL,
		Authorization: authBlock{Type: "no-auth"},
		Headers:       node.Headers,
		Params:        node.Params,
		Body:          body,
		Timeout:       timeout,
	}
}

func buildCodeData(node *blueprint.CodeNode) *codeData {
	data := &codeData{
		nodeCommon:   common(node),
		Code:         Text(node.Code),
		CodeLanguage: node.CodeLanguage,
		Variables:    []valueBinding{},
		Outputs:      map[string]codeOutput{},
	}

	// Inputs whose value carries no reference are dropped; the downstream
	// validators surface any structural fallout.
	names := make([]string, 0, len(node.Inputs))
	for name := range node.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		resolved := refs.Resolve(node.Inputs[name])
		if sel, ok := refs.ExtractSelector(resolved); ok {
			data.Variables = append(data.Variables, valueBinding{
				Variable:      name,
				ValueSelector: sel.Slice(),
			})
		}
	}

	for _, out := range node.Outputs {
		data.Outputs[out.Name] = codeOutput{
			Type:     mapSemanticType(out.Type),
			Children: nil,
		}
	}
	return data
}

func buildTemplateData(node *blueprint.TemplateNode) *templateData {
	resolved := refs.Resolve(node.Template)
	data := &templateData{
		nodeCommon: common(node),
		Template:   Text(resolved),
		Variables:  []valueBinding{},
	}
	// Re-scan the resolved text so the declared variable list matches what
	// the template actually references.
	for _, tv := range refs.ExtractTemplateVariables(resolved) {
		data.Variables = append(data.Variables, valueBinding{
			Variable:      tv.Name,
			ValueSelector: tv.Selector.Slice(),
		})
	}
	return data
}

func buildIfElseData(node *blueprint.IfElseNode) *ifElseData {
	data := &ifElseData{
		nodeCommon:      common(node),
		LogicalOperator: "and",
		Conditions:      []ifElseCondition{},
	}

	// The 0.5.x DSL only has the binary conditional: one condition group on
	// the "true" handle and an implicit "false" path. The first non-default
	// branch supplies the condition.
	for _, branch := range node.Branches {
		if branch.Operator == "default" {
			continue
		}

		selector := []string{}
		if sel, ok := refs.ExtractSelector(refs.Resolve(branch.Variable)); ok {
			selector = sel.Slice()
		}

		op := branch.Operator
		if op == "==" {
			op = "="
		}

		data.Conditions = append(data.Conditions, ifElseCondition{
			ID:                 "true",
			VariableSelector:   selector,
			ComparisonOperator: op,
			Value:              branch.Value,
			VarType:            "string",
		})
		break
	}
	return data
}

func buildClassifierData(node *blueprint.QuestionClassifierNode) *classifierData {
	selector := []string{}
	if sel, ok := refs.ExtractSelector(refs.Resolve(node.QueryVariable)); ok {
		selector = sel.Slice()
	}

	data := &classifierData{
		nodeCommon:            common(node),
		QueryVariableSelector: selector,
		Model:                 defaultModel(),
		Classes:               []classifierClass{},
	}
	for i, class := range node.Classes {
		data.Classes = append(data.Classes, classifierClass{
			ID:   classHandle(i),
			Name: class.Name,
		})
	}
	return data
}
