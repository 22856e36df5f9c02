package validator

import (
	"fmt"
	"sort"

	"github.com/difygen/difygen/utils/config"
	"github.com/difygen/difygen/utils/refs"
)

// validateLogic runs the graph-level checks over a structurally valid
// document: entry-point presence, edge endpoint integrity and, optionally,
// cross-reference integrity. Orphan nodes are logged, never returned.
func validateLogic(content map[string]interface{}, checkReferences bool) []string {
	workflow, _ := content["workflow"].(map[string]interface{})
	graph, _ := workflow["graph"].(map[string]interface{})
	nodes, _ := graph["nodes"].([]interface{})
	edges, _ := graph["edges"].([]interface{})

	var errors []string

	nodeIDs := make(map[string]bool)
	hasStart := false
	for _, n := range nodes {
		node, _ := n.(map[string]interface{})
		if id, ok := node["id"].(string); ok && id != "" {
			nodeIDs[id] = true
		}
		data, _ := node["data"].(map[string]interface{})
		if t, _ := data["type"].(string); t == "start" {
			hasStart = true
		}
	}

	if !hasStart {
		errors = append(errors, "workflow has no 'start' node and cannot run")
	}

	connected := make(map[string]bool)
	for _, e := range edges {
		edge, _ := e.(map[string]interface{})
		edgeID, _ := edge["id"].(string)
		source, _ := edge["source"].(string)
		target, _ := edge["target"].(string)

		if !nodeIDs[source] {
			errors = append(errors, fmt.Sprintf("edge %s source '%s' does not exist", edgeID, source))
		}
		if !nodeIDs[target] {
			errors = append(errors, fmt.Sprintf("edge %s target '%s' does not exist", edgeID, target))
		}
		connected[source] = true
		connected[target] = true
	}

	// Orphans are suspicious but not fatal; a single-node workflow has no
	// edges at all.
	if len(nodes) > 1 {
		for _, n := range nodes {
			node, _ := n.(map[string]interface{})
			id, _ := node["id"].(string)
			if id != "" && !connected[id] {
				data, _ := node["data"].(map[string]interface{})
				nodeType, _ := data["type"].(string)
				config.VerboseLog("orphan node detected: %s (type: %s)", id, nodeType)
			}
		}
	}

	if checkReferences {
		errors = append(errors, validateReferences(nodes, nodeIDs)...)
	}
	return errors
}

var selectorKeys = map[string]bool{
	"value_selector":          true,
	"variable_selector":       true,
	"query_variable_selector": true,
}

// validateReferences flags selectors and native references that point at
// node ids absent from the graph. This is stricter than the compiler, which
// never checks cross-references, so it runs only on request.
func validateReferences(nodes []interface{}, nodeIDs map[string]bool) []string {
	var errors []string
	for _, n := range nodes {
		node, _ := n.(map[string]interface{})
		id, _ := node["id"].(string)
		data, _ := node["data"].(map[string]interface{})
		seen := make(map[string]bool)
		walkReferences(data, func(target string) {
			if !nodeIDs[target] && !seen[target] {
				seen[target] = true
				errors = append(errors, fmt.Sprintf("node %s references unknown node '%s'", id, target))
			}
		})
	}
	// Map traversal order is not stable; sort so reports are deterministic.
	sort.Strings(errors)
	return errors
}

// walkReferences visits every selector and every native reference embedded
// in string values, reporting the referenced node id
func walkReferences(value interface{}, visit func(target string)) {
	switch v := value.(type) {
	case map[string]interface{}:
		for key, child := range v {
			if selectorKeys[key] {
				if sel, ok := child.([]interface{}); ok && len(sel) >= 1 {
					if target, ok := sel[0].(string); ok && target != "" {
						visit(target)
					}
					continue
				}
			}
			walkReferences(child, visit)
		}
	case []interface{}:
		for _, child := range v {
			walkReferences(child, visit)
		}
	case string:
		for _, sel := range refs.ExtractAllSelectors(v) {
			visit(sel.NodeID)
		}
	}
}
