// Package planformat validates persisted plan documents (spec.md §6.6)
// against a JSON Schema before they are loaded into a Graph, and offers
// ValidateToolArgs to check a DecisionAction's tool_args against a
// registered per-tool schema, using santhosh-tekuri/jsonschema/v6 — the
// same validator the teacher pulls in for its own request/response schema
// checks. The executor loop does not call ValidateToolArgs; tool_args are
// not validated on the dispatch path.
package planformat

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/goadesign/webagent/core"
)

// planSchema is the JSON Schema a persisted plan document must satisfy
// (spec.md §6.6): a top-level execution_plan array of nodes, each requiring
// only node_id — every action field is optional and defaults per §6.6 when
// absent (see defaultAction in load.go).
const planSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["execution_plan"],
  "properties": {
    "execution_plan": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["node_id"],
        "properties": {
          "node_id":   {"type": "string", "minLength": 1},
          "parent_id": {"type": "string"},
          "execution_order_priority": {"type": "integer"},
          "current_status": {"type": "string"},
          "child_ids": {"type": "array", "items": {"type": "string"}},
          "action": {
            "type": "object",
            "properties": {
              "tool_name": {"type": "string"},
              "tool_args": {"type": "object"},
              "reasoning": {"type": "string"},
              "expected_outcome": {"type": "string"},
              "confidence_score": {"type": "number"},
              "max_attempts": {"type": "integer"},
              "execution_timeout_seconds": {"type": "integer"},
              "on_failure_action": {"type": "string", "enum": ["RE_EVALUATE", "STOP_TASK", "TRY_ALTERNATE"]}
            }
          }
        }
      }
    }
  }
}`

// Validator validates plan documents and, optionally, per-tool argument
// schemas registered via RegisterToolSchema.
type Validator struct {
	planSchema  *jsonschema.Schema
	toolSchemas map[string]*jsonschema.Schema
}

// New compiles the built-in plan schema. It panics only if planSchema
// itself is malformed, which would be a programming error in this package.
func New() *Validator {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("plan.json", mustUnmarshal(planSchema)); err != nil {
		panic(fmt.Sprintf("planformat: invalid built-in schema: %v", err))
	}
	schema, err := c.Compile("plan.json")
	if err != nil {
		panic(fmt.Sprintf("planformat: compiling built-in schema: %v", err))
	}
	return &Validator{planSchema: schema, toolSchemas: map[string]*jsonschema.Schema{}}
}

// RegisterToolSchema compiles and registers schemaJSON as the tool_args
// validator for toolName, used by ValidateToolArgs.
func (v *Validator) RegisterToolSchema(toolName, schemaJSON string) error {
	c := jsonschema.NewCompiler()
	res := "tool/" + toolName + ".json"
	if err := c.AddResource(res, mustUnmarshal(schemaJSON)); err != nil {
		return err
	}
	schema, err := c.Compile(res)
	if err != nil {
		return err
	}
	v.toolSchemas[toolName] = schema
	return nil
}

// ValidatePlanDocument validates raw plan JSON against the built-in schema.
func (v *Validator) ValidatePlanDocument(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("plan document is not valid JSON: %w", err)
	}
	return v.planSchema.Validate(doc)
}

// ValidateToolArgs validates action.ToolArgs against the schema registered
// for action.ToolName. Unregistered tool names are not validated (core
// treats tool argument shape as a concern of the ToolExecutor collaborator,
// not a structural invariant).
func (v *Validator) ValidateToolArgs(action core.DecisionAction) error {
	schema, ok := v.toolSchemas[action.ToolName]
	if !ok {
		return nil
	}
	return schema.Validate(map[string]any(action.ToolArgs))
}

func mustUnmarshal(s string) any {
	var v any
	if err := json.NewDecoder(bytes.NewReader([]byte(s))).Decode(&v); err != nil {
		panic(err)
	}
	return v
}
