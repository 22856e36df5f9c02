package pipeline

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/difygen/difygen/utils/blueprint"
	"github.com/difygen/difygen/utils/builder"
	"github.com/difygen/difygen/utils/config"
	"github.com/difygen/difygen/utils/models"
	"github.com/difygen/difygen/utils/validator"
)

// maxRepairAttempts bounds the validate/repair loop. After the last attempt
// the best-effort document is delivered with its errors annotated.
const maxRepairAttempts = 3

var codeFencePattern = regexp.MustCompile("```[a-zA-Z0-9]*\n?")

// Pipeline turns a natural-language request into a validated Dify DSL
// document through staged model calls: plan, design the blueprint, refine
// prompts, assemble, then repair until valid or out of attempts.
type Pipeline struct {
	provider models.Provider
	model    string
	status   func(message string)
}

// Result is the outcome of one generation run
type Result struct {
	YAML     string
	Plan     []string
	Errors   []string
	Attempts int
}

// NewPipeline creates a pipeline running on the given provider and model
func NewPipeline(provider models.Provider, model string) *Pipeline {
	return &Pipeline{provider: provider, model: model}
}

// SetStatusCallback registers a function that receives progress messages,
// e.g. for relaying to a UI. It may be nil.
func (p *Pipeline) SetStatusCallback(fn func(message string)) {
	p.status = fn
}

func (p *Pipeline) notify(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	config.VerboseLog("%s", message)
	if p.status != nil {
		p.status(message)
	}
}

// Generate runs the full pipeline. The returned Result always carries a
// document; residual validation errors are listed in Result.Errors and
// annotated as comments in the YAML.
func (p *Pipeline) Generate(request, context string) (*Result, error) {
	result := &Result{}

	p.notify("Planning workflow steps...")
	result.Plan = p.plan(request, context)

	p.notify("Designing workflow blueprint...")
	skeleton, err := p.architect(request, context)
	if err != nil {
		return nil, err
	}

	p.notify("Refining LLM node prompts...")
	skeleton = p.refinePrompts(skeleton, context)

	p.notify("Assembling Dify DSL document...")
	yamlText, errors, err := p.assemble(skeleton)
	if err != nil {
		return nil, err
	}

	for attempt := 1; len(errors) > 0 && attempt <= maxRepairAttempts; attempt++ {
		p.notify("Validation found %d errors, repair attempt %d of %d...", len(errors), attempt, maxRepairAttempts)
		result.Attempts = attempt

		repaired, repairErr := p.repair(yamlText, errors)
		if repairErr != nil {
			config.DebugLog("repair attempt %d failed: %v", attempt, repairErr)
			continue
		}
		yamlText = repaired
		errors = p.validate(yamlText)
	}

	if len(errors) > 0 {
		p.notify("Delivering best-effort document with %d unresolved errors", len(errors))
		yamlText = annotateErrors(yamlText, errors)
	} else {
		p.notify("Workflow document assembled and validated")
	}

	result.YAML = yamlText
	result.Errors = errors
	return result, nil
}

// plan asks the model for an ordered build plan. Failures here degrade to
// an empty plan; planning is advisory, not load-bearing.
func (p *Pipeline) plan(request, context string) []string {
	response, err := p.provider.SendPrompt(p.model, fmt.Sprintf(plannerPrompt, request, context))
	if err != nil {
		config.DebugLog("planner stage failed: %v", err)
		return nil
	}

	var parsed struct {
		Plan []string `json:"plan"`
	}
	if err := json.Unmarshal([]byte(cleanCodeBlock(response)), &parsed); err != nil {
		config.DebugLog("planner response was not valid JSON: %v", err)
		return nil
	}

	p.notify("Plan ready: %d steps", len(parsed.Plan))
	return parsed.Plan
}

// architect asks the model for the blueprint JSON
func (p *Pipeline) architect(request, context string) (string, error) {
	response, err := p.provider.SendPrompt(p.model, fmt.Sprintf(architectPrompt, request, context))
	if err != nil {
		return "", fmt.Errorf("architect stage failed: %w", err)
	}

	skeleton := cleanCodeBlock(response)
	if _, err := blueprint.Parse([]byte(skeleton)); err != nil {
		// Not fatal yet: the assembler parses again and the repair loop can
		// still rescue a near-miss.
		p.notify("Blueprint check warning: %v", err)
	} else {
		p.notify("Blueprint structure verified")
	}
	return skeleton, nil
}

// refinePrompts rewrites the system prompt of every LLM node in place. The
// skeleton is handled as generic JSON so a malformed blueprint passes
// through untouched.
func (p *Pipeline) refinePrompts(skeleton, context string) string {
	var bp map[string]interface{}
	if err := json.Unmarshal([]byte(skeleton), &bp); err != nil {
		return skeleton
	}
	nodes, ok := bp["nodes"].([]interface{})
	if !ok {
		return skeleton
	}

	updated := 0
	for _, n := range nodes {
		node, ok := n.(map[string]interface{})
		if !ok || node["type"] != blueprint.TypeLLM {
			continue
		}

		title, _ := node["title"].(string)
		draft, _ := node["system_prompt"].(string)
		task := fmt.Sprintf("Title: %s\nDraft: %s", title, draft)

		response, err := p.provider.SendPrompt(p.model, fmt.Sprintf(promptExpertPrompt, task, context))
		if err != nil {
			config.DebugLog("prompt refinement failed for node %v: %v", node["id"], err)
			continue
		}
		node["system_prompt"] = cleanCodeBlock(response)
		updated++
	}

	if updated == 0 {
		return skeleton
	}
	p.notify("Refined prompts on %d LLM nodes", updated)

	out, err := json.Marshal(bp)
	if err != nil {
		return skeleton
	}
	return string(out)
}

// assemble compiles the blueprint and runs the first validation pass
func (p *Pipeline) assemble(skeleton string) (string, []string, error) {
	bp, err := blueprint.Parse([]byte(skeleton))
	if err != nil {
		return "", nil, fmt.Errorf("blueprint does not parse: %w", err)
	}

	yamlText, err := builder.NewBuilder(false).Build(bp)
	if err != nil {
		return "", nil, fmt.Errorf("blueprint compilation failed: %w", err)
	}

	return yamlText, p.validate(yamlText), nil
}

// validate returns the document's validation errors, if any
func (p *Pipeline) validate(yamlText string) []string {
	v := validator.NewValidator(false)
	if err := v.LoadFromString(yamlText); err != nil {
		return []string{err.Error()}
	}
	_, errors := v.Validate()
	return errors
}

// repair asks the model to fix the document given the validator's findings
func (p *Pipeline) repair(yamlText string, errors []string) (string, error) {
	response, err := p.provider.SendPrompt(p.model, fmt.Sprintf(fixerPrompt, yamlText, strings.Join(errors, "\n")))
	if err != nil {
		return "", fmt.Errorf("repair stage failed: %w", err)
	}
	return cleanCodeBlock(response), nil
}

// cleanCodeBlock strips Markdown code fences from model output
func cleanCodeBlock(text string) string {
	text = strings.TrimSpace(text)
	if strings.Contains(text, "```") {
		text = codeFencePattern.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(text)
}

// annotateErrors prepends the unresolved errors as comments so the
// delivered file explains its own state
func annotateErrors(yamlText string, errors []string) string {
	var sb strings.Builder
	sb.WriteString("# Validation did not pass:\n")
	for _, e := range errors {
		sb.WriteString(fmt.Sprintf("# [error] %s\n", e))
	}
	sb.WriteString("\n")
	sb.WriteString(yamlText)
	return sb.String()
}
