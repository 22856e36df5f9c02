package builder

import (
	"fmt"
	"strconv"

	"github.com/difygen/difygen/utils/blueprint"
	"github.com/difygen/difygen/utils/config"
)

// Builder compiles a workflow blueprint into a Dify DSL document. A Builder
// holds no external resources and may be reused; each Build call starts from
// a clean graph.
type Builder struct {
	strict    bool
	nodes     []*GraphNode
	edges     []*GraphEdge
	nodeMap   map[string]*GraphNode
	edgeCount int
}

// NewBuilder creates a builder. In strict mode a blueprint whose IfElse
// nodes carry more than one non-default branch is rejected instead of being
// collapsed to the binary conditional.
func NewBuilder(strict bool) *Builder {
	return &Builder{strict: strict}
}

// Build compiles the blueprint and returns the serialized YAML document
func (b *Builder) Build(bp *blueprint.Blueprint) (string, error) {
	doc, err := b.Compile(bp)
	if err != nil {
		return "", err
	}
	return Serialize(doc, EncodeOptions{})
}

// Compile produces the document tree without serializing it
func (b *Builder) Compile(bp *blueprint.Blueprint) (*Document, error) {
	b.nodes = []*GraphNode{}
	b.edges = []*GraphEdge{}
	b.nodeMap = make(map[string]*GraphNode)
	b.edgeCount = 0

	// First pass: compile every node so edges can be derived against the
	// complete id set.
	for i, node := range bp.Nodes {
		compiled, err := b.compileNode(node, i)
		if err != nil {
			return nil, err
		}
		b.nodes = append(b.nodes, compiled)
		b.nodeMap[node.NodeID()] = compiled
	}

	// Second pass: derive edges from successor declarations.
	for _, node := range bp.Nodes {
		b.compileEdges(node)
	}

	dependencies := bp.Dependencies
	if dependencies == nil {
		dependencies = []blueprint.Dependency{}
	}

	return &Document{
		Kind:    "app",
		Version: DSLVersion,
		App: App{
			Name:           bp.Name,
			Description:    bp.Description,
			Mode:           "workflow",
			Icon:           "🤖",
			IconBackground: "#FFEAD5",
		},
		Dependencies: dependencies,
		Workflow: Workflow{
			Graph: Graph{Nodes: b.nodes, Edges: b.edges},
		},
	}, nil
}

// compileNode dispatches on the node variant. The switch is exhaustive over
// the blueprint node kinds; a new kind that is not handled here fails the
// build instead of degrading silently.
func (b *Builder) compileNode(node blueprint.Node, index int) (*GraphNode, error) {
	var data interface{}
	switch n := node.(type) {
	case *blueprint.StartNode:
		data = buildStartData(n)
	case *blueprint.EndNode:
		data = buildEndData(n)
	case *blueprint.LLMNode:
		data = buildLLMData(n)
	case *blueprint.CodeNode:
		data = buildCodeData(n)
	case *blueprint.TemplateNode:
		data = buildTemplateData(n)
	case *blueprint.HTTPNode:
		data = buildHTTPData(n)
	case *blueprint.IfElseNode:
		if err := b.checkBranches(n); err != nil {
			return nil, err
		}
		data = buildIfElseData(n)
	case *blueprint.QuestionClassifierNode:
		data = buildClassifierData(n)
	default:
		return nil, fmt.Errorf("unhandled node type %q (id %s)", node.NodeType(), node.NodeID())
	}

	return &GraphNode{
		ID:   node.NodeID(),
		Type: "custom",
		// Simple grid layout; cosmetic only, but derived from the index so
		// repeated builds are byte-identical.
		Position: Position{X: 200 * (index % 3), Y: 200 * (index / 3)},
		Data:     data,
	}, nil
}

// checkBranches enforces the binary-conditional limit of the target DSL
// version. The default mode keeps the first non-default branch and warns;
// strict mode refuses to drop data.
func (b *Builder) checkBranches(node *blueprint.IfElseNode) error {
	conditional := 0
	defaults := 0
	for _, branch := range node.Branches {
		if branch.Operator == "default" {
			defaults++
		} else {
			conditional++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("if-else node %s declares %d default branches, at most one is allowed", node.ID, defaults)
	}
	if conditional > 1 {
		if b.strict {
			return fmt.Errorf("if-else node %s declares %d conditional branches, the target DSL supports one", node.ID, conditional)
		}
		config.VerboseLog("if-else node %s: keeping first of %d conditional branches, dropping the rest", node.ID, conditional)
	}
	return nil
}

// compileEdges emits the outgoing edges of a single node
func (b *Builder) compileEdges(node blueprint.Node) {
	// Linear and parallel fan-out. Every successor leaves through the plain
	// "source" handle; parallel targets are not distinguished by role.
	for _, target := range node.NextSteps() {
		if target == "" {
			continue
		}
		b.addEdge(node.NodeID(), target, "source")
	}

	switch n := node.(type) {
	case *blueprint.IfElseNode:
		trueTaken := false
		for _, branch := range n.Branches {
			if branch.NextStep == "" {
				continue
			}
			if branch.Operator == "default" {
				b.addEdge(n.ID, branch.NextStep, "false")
				continue
			}
			// Only the branch that supplied the condition gets the true
			// edge; surplus branches were already dropped from the data.
			if !trueTaken {
				b.addEdge(n.ID, branch.NextStep, "true")
				trueTaken = true
			}
		}
	case *blueprint.QuestionClassifierNode:
		for i, class := range n.Classes {
			if class.NextStep == "" {
				continue
			}
			b.addEdge(n.ID, class.NextStep, classHandle(i))
		}
	}
}

func (b *Builder) addEdge(source, target, sourceHandle string) {
	b.edges = append(b.edges, &GraphEdge{
		ID:           fmt.Sprintf("edge_%d", b.edgeCount),
		Source:       source,
		Target:       target,
		SourceHandle: sourceHandle,
		TargetHandle: "target",
		Type:         "custom",
	})
	b.edgeCount++
}

// classHandle names the source handle of a classifier class by position
func classHandle(index int) string {
	return strconv.Itoa(index + 1)
}
