package refs

import (
	"fmt"
	"regexp"
)

// Reference syntax: blueprints use the compact form @{node_id.var_name},
// the Dify DSL uses {{#node_id.var_name#}}. Identifiers are limited to
// [a-zA-Z0-9_] on both sides of the dot; anything else is left untouched.
var (
	compactRefPattern = regexp.MustCompile(`@\{([a-zA-Z0-9_]+)\.([a-zA-Z0-9_]+)\}`)
	nativeRefPattern  = regexp.MustCompile(`\{\{#([a-zA-Z0-9_]+)\.([a-zA-Z0-9_]+)#\}\}`)
)

// Selector identifies a node output as a [node id, variable name] pair
type Selector struct {
	NodeID   string
	Variable string
}

// Slice returns the selector in the list form the Dify DSL expects
func (s Selector) Slice() []string {
	return []string{s.NodeID, s.Variable}
}

// TemplateVariable is a variable declaration synthesized from a reference
// found in template text
type TemplateVariable struct {
	Name     string
	Selector Selector
}

// Resolve replaces every compact reference in text with its native form.
// Text without references passes through unchanged; empty input yields an
// empty string.
func Resolve(text string) string {
	if text == "" {
		return ""
	}
	return compactRefPattern.ReplaceAllString(text, "{{#$1.$2#}}")
}

// ExtractSelector returns the first native reference found in text as a
// selector. The second return value reports whether a reference was found.
func ExtractSelector(text string) (Selector, bool) {
	match := nativeRefPattern.FindStringSubmatch(text)
	if match == nil {
		return Selector{}, false
	}
	return Selector{NodeID: match[1], Variable: match[2]}, true
}

// ExtractAllSelectors returns every native reference found in text, in
// order of appearance, without deduplication.
func ExtractAllSelectors(text string) []Selector {
	matches := nativeRefPattern.FindAllStringSubmatch(text, -1)
	selectors := make([]Selector, 0, len(matches))
	for _, match := range matches {
		selectors = append(selectors, Selector{NodeID: match[1], Variable: match[2]})
	}
	return selectors
}

// ExtractTemplateVariables scans text for native references and produces
// one variable declaration per distinct reference, preserving first-seen
// order. Each variable gets a flat name of the form nodeID_varName.
func ExtractTemplateVariables(text string) []TemplateVariable {
	seen := make(map[Selector]bool)
	var vars []TemplateVariable
	for _, sel := range ExtractAllSelectors(text) {
		if seen[sel] {
			continue
		}
		seen[sel] = true
		vars = append(vars, TemplateVariable{
			Name:     fmt.Sprintf("%s_%s", sel.NodeID, sel.Variable),
			Selector: sel,
		})
	}
	return vars
}
