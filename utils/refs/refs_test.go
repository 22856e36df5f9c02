package refs

import (
	"reflect"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single reference",
			input:    "@{start.query}",
			expected: "{{#start.query#}}",
		},
		{
			name:     "reference embedded in text",
			input:    "Answer the question: @{start.query} please",
			expected: "Answer the question: {{#start.query#}} please",
		},
		{
			name:     "multiple references",
			input:    "@{a.x} and @{b.y}",
			expected: "{{#a.x#}} and {{#b.y#}}",
		},
		{
			name:     "no references",
			input:    "plain text",
			expected: "plain text",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "malformed identifier is left untouched",
			input:    "@{my-node.value}",
			expected: "@{my-node.value}",
		},
		{
			name:     "missing variable part is left untouched",
			input:    "@{start}",
			expected: "@{start}",
		},
		{
			name:     "unclosed reference is left untouched",
			input:    "@{start.query",
			expected: "@{start.query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.input); got != tt.expected {
				t.Errorf("Resolve(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestExtractSelector(t *testing.T) {
	sel, ok := ExtractSelector("{{#start.query#}}")
	if !ok {
		t.Fatal("Expected a selector to be found")
	}
	if sel.NodeID != "start" || sel.Variable != "query" {
		t.Errorf("Got selector %+v, want {start query}", sel)
	}
	if got := sel.Slice(); !reflect.DeepEqual(got, []string{"start", "query"}) {
		t.Errorf("Slice() = %v, want [start query]", got)
	}

	if _, ok := ExtractSelector("no references here"); ok {
		t.Error("Expected no selector in plain text")
	}

	// Compact references are not native references.
	if _, ok := ExtractSelector("@{start.query}"); ok {
		t.Error("Compact form should not match the native pattern")
	}
}

func TestExtractAllSelectors(t *testing.T) {
	selectors := ExtractAllSelectors("{{#a.x#}} then {{#b.y#}} then {{#a.x#}}")
	expected := []Selector{
		{NodeID: "a", Variable: "x"},
		{NodeID: "b", Variable: "y"},
		{NodeID: "a", Variable: "x"},
	}
	if !reflect.DeepEqual(selectors, expected) {
		t.Errorf("Got %v, want %v", selectors, expected)
	}
}

func TestExtractTemplateVariables(t *testing.T) {
	vars := ExtractTemplateVariables("{{#llm_1.text#}} / {{#start.query#}} / {{#llm_1.text#}}")

	if len(vars) != 2 {
		t.Fatalf("Expected 2 distinct variables, got %d", len(vars))
	}

	// First-seen order, compound names.
	if vars[0].Name != "llm_1_text" {
		t.Errorf("First variable name = %q, want llm_1_text", vars[0].Name)
	}
	if vars[1].Name != "start_query" {
		t.Errorf("Second variable name = %q, want start_query", vars[1].Name)
	}
	if vars[0].Selector.NodeID != "llm_1" || vars[0].Selector.Variable != "text" {
		t.Errorf("First selector = %+v, want {llm_1 text}", vars[0].Selector)
	}
}

func TestResolveThenExtractRoundTrip(t *testing.T) {
	resolved := Resolve("result: @{code_1.output}")
	sel, ok := ExtractSelector(resolved)
	if !ok {
		t.Fatal("Resolved reference should be extractable")
	}
	if sel.NodeID != "code_1" || sel.Variable != "output" {
		t.Errorf("Round-trip selector = %+v, want {code_1 output}", sel)
	}
}
