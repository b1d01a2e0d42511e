package planformat

import (
	"encoding/json"
	"fmt"

	"github.com/goadesign/webagent/core"
)

// wireAction is the on-disk shape of one node's action (spec.md §6.6). Every
// field is optional; absent fields fall back to defaultAction.
type wireAction struct {
	ToolName                string         `json:"tool_name"`
	ToolArgs                map[string]any `json:"tool_args"`
	Reasoning               string         `json:"reasoning"`
	ExpectedOutcome         string         `json:"expected_outcome"`
	ConfidenceScore         *float64       `json:"confidence_score"`
	MaxAttempts             *int           `json:"max_attempts"`
	ExecutionTimeoutSeconds *int           `json:"execution_timeout_seconds"`
	OnFailureAction         string         `json:"on_failure_action"`
}

// wireNode is the on-disk shape of one plan node (spec.md §6.6).
type wireNode struct {
	NodeID                 string      `json:"node_id"`
	ParentID               string      `json:"parent_id"`
	ExecutionOrderPriority int         `json:"execution_order_priority"`
	CurrentStatus          string      `json:"current_status"`
	ChildIDs               []string    `json:"child_ids"`
	Action                 *wireAction `json:"action"`
}

type wireDocument struct {
	ExecutionPlan []wireNode `json:"execution_plan"`
}

// defaultAction is the benign placeholder spec.md §6.6 specifies for a node
// whose action object is missing entirely or omits individual fields.
var defaultAction = wireAction{
	ToolName:        "default_tool",
	OnFailureAction: string(core.OnFailureStopTask),
}

// LoadPlan validates raw against the built-in plan schema and, on success,
// decodes it into ExecutionNodes ready for Graph.AddNode, in document
// order (callers must add them in that order so parents exist before
// children reference them). Missing action fields are filled with the
// spec's documented defaults rather than left zero-valued.
func (v *Validator) LoadPlan(raw []byte) ([]*core.ExecutionNode, error) {
	if err := v.ValidatePlanDocument(raw); err != nil {
		return nil, fmt.Errorf("plan document failed schema validation: %w", err)
	}
	var doc wireDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding plan document: %w", err)
	}
	out := make([]*core.ExecutionNode, 0, len(doc.ExecutionPlan))
	for _, wn := range doc.ExecutionPlan {
		action := fillDefaults(wn.Action)
		status := core.StatusPending
		if wn.CurrentStatus != "" {
			status = core.Status(wn.CurrentStatus)
		}
		confidence := 0.95
		if action.ConfidenceScore != nil {
			confidence = *action.ConfidenceScore
		}
		maxAttempts := 1
		if action.MaxAttempts != nil {
			maxAttempts = *action.MaxAttempts
		}
		timeout := 10
		if action.ExecutionTimeoutSeconds != nil {
			timeout = *action.ExecutionTimeoutSeconds
		}
		out = append(out, &core.ExecutionNode{
			NodeID:                 wn.NodeID,
			ParentID:               wn.ParentID,
			ExecutionOrderPriority: wn.ExecutionOrderPriority,
			CurrentStatus:          status,
			Action: core.DecisionAction{
				ToolName:                action.ToolName,
				ToolArgs:                action.ToolArgs,
				Reasoning:               action.Reasoning,
				ExpectedOutcome:         action.ExpectedOutcome,
				ConfidenceScore:         confidence,
				MaxAttempts:             maxAttempts,
				ExecutionTimeoutSeconds: timeout,
				OnFailureAction:         core.FailureAction(action.OnFailureAction),
			},
		})
	}
	return out, nil
}

// fillDefaults returns wa (or the all-defaults action if wa is nil) with
// every absent field replaced by its spec.md §6.6 default.
func fillDefaults(wa *wireAction) wireAction {
	if wa == nil {
		return defaultAction
	}
	filled := *wa
	if filled.ToolName == "" {
		filled.ToolName = defaultAction.ToolName
	}
	if filled.OnFailureAction == "" {
		filled.OnFailureAction = defaultAction.OnFailureAction
	}
	return filled
}
