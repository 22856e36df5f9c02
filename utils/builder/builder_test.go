package builder

import (
	"reflect"
	"strings"
	"testing"

	"github.com/difygen/difygen/utils/blueprint"
)

func startNode(id string, next ...string) *blueprint.StartNode {
	return &blueprint.StartNode{
		BaseNode: blueprint.BaseNode{ID: id, Type: blueprint.TypeStart, Title: "Start", NextStep: next},
		Variables: []blueprint.VariableDefinition{
			{Name: "query", Type: "string"},
		},
	}
}

func endNode(id string) *blueprint.EndNode {
	return &blueprint.EndNode{
		BaseNode: blueprint.BaseNode{ID: id, Type: blueprint.TypeEnd, Title: "End"},
		Outputs: blueprint.OutputList{
			{Var: "answer", Value: "@{start.query}"},
		},
	}
}

func TestCompileMinimalWorkflow(t *testing.T) {
	bp := &blueprint.Blueprint{
		Name:        "Echo",
		Description: "Echoes the input",
		Nodes:       []blueprint.Node{startNode("start", "end"), endNode("end")},
	}

	doc, err := NewBuilder(false).Compile(bp)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if doc.Kind != "app" || doc.Version != DSLVersion {
		t.Errorf("Root = kind %q version %q, want app %s", doc.Kind, doc.Version, DSLVersion)
	}
	if doc.App.Name != "Echo" || doc.App.Mode != "workflow" {
		t.Errorf("App = %+v, want name Echo mode workflow", doc.App)
	}
	if doc.App.Icon != "🤖" || doc.App.IconBackground != "#FFEAD5" {
		t.Errorf("App icon = %q/%q, want the fixed defaults", doc.App.Icon, doc.App.IconBackground)
	}
	if doc.Dependencies == nil {
		t.Error("Dependencies should serialize as an empty list, not null")
	}

	nodes := doc.Workflow.Graph.Nodes
	if len(nodes) != 2 {
		t.Fatalf("Expected 2 graph nodes, got %d", len(nodes))
	}
	for _, n := range nodes {
		if n.Type != "custom" {
			t.Errorf("Node %s envelope type = %q, want custom", n.ID, n.Type)
		}
	}

	start := nodes[0].Data.(*startData)
	if start.Type != "start" {
		t.Errorf("Start data.type = %q, want start", start.Type)
	}

	end := nodes[1].Data.(*endData)
	if len(end.Outputs) != 1 {
		t.Fatalf("Expected 1 end output, got %d", len(end.Outputs))
	}
	out := end.Outputs[0]
	if out.Variable != "answer" || !reflect.DeepEqual(out.ValueSelector, []string{"start", "query"}) {
		t.Errorf("End output = %+v, want answer -> [start query]", out)
	}
	if out.ValueType != "string" {
		t.Errorf("End output value_type = %q, want string", out.ValueType)
	}

	edges := doc.Workflow.Graph.Edges
	if len(edges) != 1 {
		t.Fatalf("Expected 1 edge, got %d", len(edges))
	}
	edge := edges[0]
	if edge.ID != "edge_0" || edge.Source != "start" || edge.Target != "end" {
		t.Errorf("Edge = %+v, want edge_0 start->end", edge)
	}
	if edge.SourceHandle != "source" || edge.TargetHandle != "target" || edge.Type != "custom" {
		t.Errorf("Edge handles = %s/%s type %s, want source/target custom", edge.SourceHandle, edge.TargetHandle, edge.Type)
	}
}

func TestGridPositions(t *testing.T) {
	bp := &blueprint.Blueprint{
		Name: "Grid",
		Nodes: []blueprint.Node{
			startNode("start", "a"),
			&blueprint.TemplateNode{BaseNode: blueprint.BaseNode{ID: "a", Type: blueprint.TypeTemplate, NextStep: blueprint.StepList{"b"}}},
			&blueprint.TemplateNode{BaseNode: blueprint.BaseNode{ID: "b", Type: blueprint.TypeTemplate, NextStep: blueprint.StepList{"c"}}},
			&blueprint.TemplateNode{BaseNode: blueprint.BaseNode{ID: "c", Type: blueprint.TypeTemplate, NextStep: blueprint.StepList{"end"}}},
			endNode("end"),
		},
	}

	doc, err := NewBuilder(false).Compile(bp)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	expected := []Position{
		{X: 0, Y: 0},
		{X: 200, Y: 0},
		{X: 400, Y: 0},
		{X: 0, Y: 200},
		{X: 200, Y: 200},
	}
	for i, n := range doc.Workflow.Graph.Nodes {
		if n.Position != expected[i] {
			t.Errorf("Node %d position = %+v, want %+v", i, n.Position, expected[i])
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	bp := &blueprint.Blueprint{
		Name: "Stable",
		Nodes: []blueprint.Node{
			startNode("start", "code_1"),
			&blueprint.CodeNode{
				BaseNode:     blueprint.BaseNode{ID: "code_1", Type: blueprint.TypeCode, NextStep: blueprint.StepList{"end"}},
				CodeLanguage: "python3",
				Code:         "def main(a, b):\n    return {\"out\": a + b}",
				Inputs: map[string]string{
					"b": "@{start.query}",
					"a": "@{start.query}",
					"c": "@{start.query}",
				},
				Outputs: []blueprint.VariableDefinition{{Name: "out", Type: "string"}},
			},
			endNode("end"),
		},
	}

	b := NewBuilder(false)
	first, err := b.Build(bp)
	if err != nil {
		t.Fatalf("First build failed: %v", err)
	}
	second, err := b.Build(bp)
	if err != nil {
		t.Fatalf("Second build failed: %v", err)
	}
	if first != second {
		t.Error("Repeated builds of the same blueprint should be byte-identical")
	}
}

func TestIfElseBranchCollapse(t *testing.T) {
	bp := &blueprint.Blueprint{
		Name: "Router",
		Nodes: []blueprint.Node{
			startNode("start", "router"),
			&blueprint.IfElseNode{
				BaseNode:        blueprint.BaseNode{ID: "router", Type: blueprint.TypeIfElse},
				LogicalOperator: "and",
				Branches: []blueprint.BranchCondition{
					{Operator: "==", Variable: "@{start.query}", Value: "yes", NextStep: "end_a"},
					{Operator: "contains", Variable: "@{start.query}", Value: "maybe", NextStep: "end_b"},
					{Operator: "contains", Variable: "@{start.query}", Value: "never", NextStep: "end_b"},
					{Operator: "default", NextStep: "end_b"},
				},
			},
			endNode("end_a"),
			endNode("end_b"),
		},
	}

	doc, err := NewBuilder(false).Compile(bp)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	data := doc.Workflow.Graph.Nodes[1].Data.(*ifElseData)
	if len(data.Conditions) != 1 {
		t.Fatalf("Expected 1 condition after collapse, got %d", len(data.Conditions))
	}
	cond := data.Conditions[0]
	if cond.ID != "true" {
		t.Errorf("Condition id = %q, want true", cond.ID)
	}
	if cond.ComparisonOperator != "=" {
		t.Errorf("Operator = %q, want = (normalized from ==)", cond.ComparisonOperator)
	}
	if !reflect.DeepEqual(cond.VariableSelector, []string{"start", "query"}) {
		t.Errorf("Variable selector = %v, want [start query]", cond.VariableSelector)
	}
	if cond.Value != "yes" || cond.VarType != "string" {
		t.Errorf("Condition = %+v, want value yes varType string", cond)
	}

	var trueEdges, falseEdges []*GraphEdge
	for _, e := range doc.Workflow.Graph.Edges {
		if e.Source != "router" {
			continue
		}
		switch e.SourceHandle {
		case "true":
			trueEdges = append(trueEdges, e)
		case "false":
			falseEdges = append(falseEdges, e)
		}
	}
	if len(trueEdges) != 1 || trueEdges[0].Target != "end_a" {
		t.Errorf("Expected exactly one true edge to end_a, got %d", len(trueEdges))
	}
	if len(falseEdges) != 1 || falseEdges[0].Target != "end_b" {
		t.Errorf("Expected exactly one false edge to end_b, got %d", len(falseEdges))
	}
}

func TestStrictModeRejectsExtraBranches(t *testing.T) {
	bp := &blueprint.Blueprint{
		Name: "Router",
		Nodes: []blueprint.Node{
			&blueprint.IfElseNode{
				BaseNode: blueprint.BaseNode{ID: "router", Type: blueprint.TypeIfElse},
				Branches: []blueprint.BranchCondition{
					{Operator: "contains", Variable: "@{s.x}", Value: "a", NextStep: "a"},
					{Operator: "contains", Variable: "@{s.x}", Value: "b", NextStep: "b"},
				},
			},
		},
	}

	if _, err := NewBuilder(true).Compile(bp); err == nil {
		t.Error("Strict mode should reject multiple conditional branches")
	}
	if _, err := NewBuilder(false).Compile(bp); err != nil {
		t.Errorf("Default mode should collapse instead of failing: %v", err)
	}
}

func TestMultipleDefaultBranchesRejected(t *testing.T) {
	bp := &blueprint.Blueprint{
		Name: "Router",
		Nodes: []blueprint.Node{
			&blueprint.IfElseNode{
				BaseNode: blueprint.BaseNode{ID: "router", Type: blueprint.TypeIfElse},
				Branches: []blueprint.BranchCondition{
					{Operator: "default", NextStep: "a"},
					{Operator: "default", NextStep: "b"},
				},
			},
		},
	}

	if _, err := NewBuilder(false).Compile(bp); err == nil {
		t.Error("More than one default branch should be rejected in every mode")
	}
}

func TestClassifierEdges(t *testing.T) {
	bp := &blueprint.Blueprint{
		Name: "Triage",
		Nodes: []blueprint.Node{
			startNode("start", "classifier"),
			&blueprint.QuestionClassifierNode{
				BaseNode:      blueprint.BaseNode{ID: "classifier", Type: blueprint.TypeQuestionClassifier},
				QueryVariable: "@{start.query}",
				Classes: []blueprint.ClassDefinition{
					{Name: "billing", NextStep: "end_a"},
					{Name: "technical", NextStep: "end_b"},
				},
			},
			endNode("end_a"),
			endNode("end_b"),
		},
	}

	doc, err := NewBuilder(false).Compile(bp)
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	data := doc.Workflow.Graph.Nodes[1].Data.(*classifierData)
	if !reflect.DeepEqual(data.QueryVariableSelector, []string{"start", "query"}) {
		t.Errorf("Query selector = %v, want [start query]", data.QueryVariableSelector)
	}
	if len(data.Classes) != 2 || data.Classes[0].ID != "1" || data.Classes[1].ID != "2" {
		t.Errorf("Classes = %+v, want ids 1 and 2", data.Classes)
	}

	handles := map[string]string{}
	for _, e := range doc.Workflow.Graph.Edges {
		if e.Source == "classifier" {
			handles[e.SourceHandle] = e.Target
		}
	}
	if handles["1"] != "end_a" || handles["2"] != "end_b" {
		t.Errorf("Classifier edges = %v, want 1->end_a 2->end_b", handles)
	}
}

func TestSerializePreservesLiteralStyle(t *testing.T) {
	bp := &blueprint.Blueprint{
		Name: "Code",
		Nodes: []blueprint.Node{
			&blueprint.CodeNode{
				BaseNode:     blueprint.BaseNode{ID: "code_1", Type: blueprint.TypeCode},
				CodeLanguage: "python3",
				Code:         "def main():\n    return {\"out\": 1}",
			},
		},
	}

	yamlText, err := NewBuilder(false).Build(bp)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !strings.Contains(yamlText, "code: |-") {
		t.Error("Multi-line code should serialize in literal block style")
	}
}

func TestSerializeEdgeKeyCasing(t *testing.T) {
	bp := &blueprint.Blueprint{
		Name:  "Edges",
		Nodes: []blueprint.Node{startNode("start", "end"), endNode("end")},
	}

	yamlText, err := NewBuilder(false).Build(bp)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !strings.Contains(yamlText, "sourceHandle: source") || !strings.Contains(yamlText, "targetHandle: target") {
		t.Error("Edge handle keys should keep their camelCase spelling")
	}
}

func TestUnhandledNodeTypeFailsCompilation(t *testing.T) {
	bp := &blueprint.Blueprint{
		Name:  "Broken",
		Nodes: []blueprint.Node{&fakeNode{}},
	}
	if _, err := NewBuilder(false).Compile(bp); err == nil {
		t.Error("A node variant outside the known set should fail the build")
	}
}

type fakeNode struct{}

func (f *fakeNode) NodeID() string      { return "fake" }
func (f *fakeNode) NodeType() string    { return "fake" }
func (f *fakeNode) NodeTitle() string   { return "Fake" }
func (f *fakeNode) NodeDesc() string    { return "" }
func (f *fakeNode) NextSteps() []string { return nil }
