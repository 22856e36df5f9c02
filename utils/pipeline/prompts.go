package pipeline

// Prompt templates for the generation stages. Each is filled in with
// fmt.Sprintf; the %s placeholders are documented per template.

// plannerPrompt takes (request, context)
const plannerPrompt = `You are a workflow planning assistant. Break the user's automation request
into an ordered list of build steps. Valid step kinds are: design the
workflow blueprint, refine prompts, assemble the YAML.

Respond with JSON only, in the form {"plan": ["step 1", "step 2", ...]}.

User request:
%s

Reference context:
%s`

// architectPrompt takes (request, context)
const architectPrompt = `You are a workflow architect for a low-code automation platform. Design a
workflow blueprint for the user's request and respond with JSON only.

The blueprint has this shape:
{
  "name": "workflow name",
  "description": "one sentence",
  "dependencies": [],
  "nodes": [ ... ]
}

Every node has "id", "type", "title", "description" and "next_step" (a node
id, a list of node ids for parallel branches, or omitted on the final node).
Node types and their extra fields:
- "start": "variables": [{"name": ..., "type": "string|number|boolean"}]
- "end": "outputs": [{"var": ..., "value": "@{node_id.var_name}"}]
- "llm": "system_prompt", "user_prompt", optional "model"
- "code": "code" (python3), "inputs": {name: "@{node_id.var}"}, "outputs": [{"name":..., "type":...}]
- "template-transform": "template"
- "http-request": "url", "method", optional "headers"/"params"/"body"
- "if-else": "branches": [{"operator":..., "variable": "@{...}", "value":..., "next_step":...},
  {"operator": "default", "next_step": ...}] with at most one conditional branch
- "question-classifier": "query_variable", "classes": [{"name":..., "next_step":...}]

Reference other node outputs with the @{node_id.var_name} syntax. The first
node must be a "start" node and the workflow must reach an "end" node.

User request:
%s

Reference context:
%s`

// promptExpertPrompt takes (taskDescription, context)
const promptExpertPrompt = `You are a prompt engineering expert. Rewrite the draft system prompt below
so it is precise, complete and self-contained for its task. Respond with the
improved prompt text only, no commentary and no code fences.

Task:
%s

Reference context:
%s`

// fixerPrompt takes (yaml, errors)
const fixerPrompt = `The following workflow DSL document failed validation. Fix every listed
error while changing as little as possible. Respond with the complete
corrected YAML only, no commentary and no code fences.

Document:
%s

Validation errors:
%s`
