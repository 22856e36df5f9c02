package pipeline

import (
	"errors"
	"strings"
	"testing"
)

// stubProvider scripts one response per pipeline stage, keyed off the
// instruction text at the head of each prompt.
type stubProvider struct {
	plannerResponse   string
	architectResponse string
	expertResponse    string
	fixerResponse     string
	architectErr      error

	fixerCalls int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) SupportsModel(modelName string) bool { return true }

func (s *stubProvider) Configure(apiKey string) error { return nil }

func (s *stubProvider) SetVerbose(verbose bool) {}

func (s *stubProvider) SendPrompt(modelName, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, "workflow planning assistant"):
		return s.plannerResponse, nil
	case strings.Contains(prompt, "workflow architect"):
		return s.architectResponse, s.architectErr
	case strings.Contains(prompt, "prompt engineering expert"):
		return s.expertResponse, nil
	case strings.Contains(prompt, "failed validation"):
		s.fixerCalls++
		return s.fixerResponse, nil
	}
	return "", errors.New("unexpected prompt")
}

const validBlueprint = `{
	"name": "Echo",
	"description": "Echoes the input",
	"nodes": [
		{"id": "start", "type": "start", "next_step": "llm_1",
		 "variables": [{"name": "query", "type": "string"}]},
		{"id": "llm_1", "type": "llm", "title": "Answer", "next_step": "end",
		 "system_prompt": "draft", "user_prompt": "@{start.query}"},
		{"id": "end", "type": "end",
		 "outputs": [{"var": "answer", "value": "@{llm_1.text}"}]}
	]
}`

func TestGenerateSuccess(t *testing.T) {
	provider := &stubProvider{
		plannerResponse:   `{"plan": ["design the workflow blueprint", "assemble the YAML"]}`,
		architectResponse: "```json\n" + validBlueprint + "\n```",
		expertResponse:    "You are a precise echo assistant.",
	}

	var messages []string
	p := NewPipeline(provider, "stub-model")
	p.SetStatusCallback(func(message string) {
		messages = append(messages, message)
	})

	result, err := p.Generate("echo my input", "")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(result.Errors) != 0 {
		t.Errorf("Expected a clean document, got errors: %v", result.Errors)
	}
	if result.Attempts != 0 {
		t.Errorf("Attempts = %d, want 0 for a first-pass success", result.Attempts)
	}
	if len(result.Plan) != 2 {
		t.Errorf("Plan length = %d, want 2", len(result.Plan))
	}
	if !strings.Contains(result.YAML, "kind: app") {
		t.Error("Result YAML is not a DSL document")
	}
	// The refined prompt replaces the architect's draft.
	if !strings.Contains(result.YAML, "You are a precise echo assistant.") {
		t.Error("Refined system prompt did not make it into the document")
	}
	if strings.Contains(result.YAML, "# [error]") {
		t.Error("Clean documents should not carry error annotations")
	}
	if len(messages) == 0 {
		t.Error("Status callback was never invoked")
	}
}

func TestGenerateRepairLoopIsBounded(t *testing.T) {
	// A blueprint without a start node compiles but never validates, and the
	// fixer keeps returning an equally broken document.
	provider := &stubProvider{
		plannerResponse:   "not json",
		architectResponse: `{"name": "Broken", "nodes": [{"id": "end", "type": "end"}]}`,
		fixerResponse:     "kind: app",
	}

	result, err := NewPipeline(provider, "stub-model").Generate("do something", "")
	if err != nil {
		t.Fatalf("Generate should deliver best-effort output, got: %v", err)
	}

	if provider.fixerCalls != maxRepairAttempts {
		t.Errorf("Fixer was called %d times, want %d", provider.fixerCalls, maxRepairAttempts)
	}
	if result.Attempts != maxRepairAttempts {
		t.Errorf("Attempts = %d, want %d", result.Attempts, maxRepairAttempts)
	}
	if len(result.Errors) == 0 {
		t.Error("Unresolved errors should be reported")
	}
	if !strings.HasPrefix(result.YAML, "# Validation did not pass:") {
		t.Error("Best-effort output should start with the error annotation header")
	}
	if !strings.Contains(result.YAML, "# [error]") {
		t.Error("Each unresolved error should be annotated as a comment")
	}
}

func TestGenerateArchitectFailureIsFatal(t *testing.T) {
	provider := &stubProvider{
		plannerResponse: `{"plan": []}`,
		architectErr:    errors.New("model unavailable"),
	}

	if _, err := NewPipeline(provider, "stub-model").Generate("do something", ""); err == nil {
		t.Error("An architect stage failure should abort generation")
	}
}

func TestGenerateUnparsableBlueprintIsFatal(t *testing.T) {
	provider := &stubProvider{
		plannerResponse:   `{"plan": []}`,
		architectResponse: "this is not a blueprint",
	}

	if _, err := NewPipeline(provider, "stub-model").Generate("do something", ""); err == nil {
		t.Error("A blueprint that never parses should abort generation")
	}
}

func TestCleanCodeBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json fence",
			input:    "```json\n{\"a\": 1}\n```",
			expected: `{"a": 1}`,
		},
		{
			name:     "yaml fence",
			input:    "```yaml\nkind: app\n```",
			expected: "kind: app",
		},
		{
			name:     "bare fence",
			input:    "```\ntext\n```",
			expected: "text",
		},
		{
			name:     "no fence",
			input:    "  plain text  ",
			expected: "plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanCodeBlock(tt.input); got != tt.expected {
				t.Errorf("cleanCodeBlock(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAnnotateErrors(t *testing.T) {
	annotated := annotateErrors("kind: app\n", []string{"first problem", "second problem"})
	if !strings.HasPrefix(annotated, "# Validation did not pass:\n") {
		t.Error("Missing annotation header")
	}
	if !strings.Contains(annotated, "# [error] first problem\n") || !strings.Contains(annotated, "# [error] second problem\n") {
		t.Error("Each error should appear as its own comment line")
	}
	if !strings.HasSuffix(annotated, "kind: app\n") {
		t.Error("The original document should follow the annotations unchanged")
	}
}
