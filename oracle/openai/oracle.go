// Package openai implements core.PlannerOracle against the OpenAI chat
// completions API, grounded on the teacher's own collaborator pattern of
// wrapping a chat client behind a small Generate-style method
// (agents/runtime pulls both openai-go and anthropic-sdk-go as alternative
// LLM transports; we standardize on sashabaranov/go-openai, the single
// client used consistently across the rest of the retrieval pack).
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/goadesign/webagent/core"
	"github.com/goadesign/webagent/core/ids"
	"github.com/goadesign/webagent/telemetry"
)

// planNode is the wire shape the model is asked to emit for one node of a
// plan fragment; ExecutionNode itself is never exposed to the prompt so the
// internal insertionSeq/ParentID bookkeeping can't leak into the model's
// output contract.
type planNode struct {
	ParentRef               string         `json:"parent_ref"`
	ToolName                string         `json:"tool_name"`
	ToolArgs                map[string]any `json:"tool_args"`
	Reasoning               string         `json:"reasoning"`
	ExpectedOutcome         string         `json:"expected_outcome"`
	ConfidenceScore         float64        `json:"confidence_score"`
	MaxAttempts             int            `json:"max_attempts"`
	ExecutionTimeoutSeconds int            `json:"execution_timeout_seconds"`
	OnFailureAction         string         `json:"on_failure_action"`
	ExecutionOrderPriority  int            `json:"execution_order_priority"`
}

type planResponse struct {
	Nodes []planNode `json:"nodes"`
}

// Oracle is a core.PlannerOracle backed by an OpenAI chat completion model.
type Oracle struct {
	client *openai.Client
	model  string
	logger telemetry.Logger
}

// New returns an Oracle using apiKey and model (e.g. "gpt-4o-mini"). A
// non-empty baseURL overrides the default endpoint, for self-hosted or
// proxy deployments.
func New(apiKey, baseURL, model string, logger telemetry.Logger) *Oracle {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if logger == nil {
		logger = telemetry.Noop{}
	}
	return &Oracle{client: openai.NewClientWithConfig(cfg), model: model, logger: logger}
}

// Generate implements core.PlannerOracle. Transport and decode failures are
// logged and reported as an empty fragment rather than an error, per the
// contract documented on core.PlannerOracle.Generate: the executor loop
// treats an empty fragment from a correction request as "stop the task",
// which is the safe default when the oracle is unreachable.
func (o *Oracle) Generate(ctx context.Context, goal core.TaskGoal, observation *core.WebObservation, history []core.FailureRecord) ([]*core.ExecutionNode, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: o.userPrompt(goal, observation, history)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		o.logger.Warn(ctx, "planner oracle transport error", "err", err)
		return nil, nil
	}
	if len(resp.Choices) == 0 {
		o.logger.Warn(ctx, "planner oracle returned no choices")
		return nil, nil
	}

	var parsed planResponse
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		o.logger.Warn(ctx, "planner oracle returned unparsable plan", "err", err)
		return nil, nil
	}
	return buildFragment(parsed.Nodes), nil
}

// buildFragment assigns fresh node ids and resolves parent_ref strings
// (either "" for the fragment root, or "node_<index>" naming a previously
// emitted node by its position) into real NodeID/ParentID links.
func buildFragment(nodes []planNode) []*core.ExecutionNode {
	refToID := make(map[string]string, len(nodes))
	out := make([]*core.ExecutionNode, 0, len(nodes))
	for i, pn := range nodes {
		id := ids.NewNodeID()
		ref := fmt.Sprintf("node_%d", i)
		refToID[ref] = id
		parentID := ""
		if pn.ParentRef != "" {
			parentID = refToID[pn.ParentRef]
		}
		out = append(out, &core.ExecutionNode{
			NodeID:                 id,
			ParentID:               parentID,
			ExecutionOrderPriority: pn.ExecutionOrderPriority,
			CurrentStatus:          core.StatusPending,
			Action: core.DecisionAction{
				ToolName:                pn.ToolName,
				ToolArgs:                pn.ToolArgs,
				Reasoning:               pn.Reasoning,
				ExpectedOutcome:         pn.ExpectedOutcome,
				ConfidenceScore:         pn.ConfidenceScore,
				MaxAttempts:             pn.MaxAttempts,
				ExecutionTimeoutSeconds: pn.ExecutionTimeoutSeconds,
				OnFailureAction:         core.FailureAction(pn.OnFailureAction),
			},
		})
	}
	return out
}

const systemPrompt = `You are the planning oracle for a browser automation agent.
Respond with a JSON object {"nodes": [...]} describing a plan fragment.
Each node has parent_ref (empty string for the fragment's own root, or a
prior node's implicit reference "node_<index>"), tool_name, tool_args,
reasoning, expected_outcome, confidence_score, max_attempts,
execution_timeout_seconds, on_failure_action (one of RE_EVALUATE, STOP_TASK,
TRY_ALTERNATE), and execution_order_priority. Arguments may reference a
prior sibling's output with the string "{result_of:<node_id>}" once that
node id is known from the task history, or shared context with
"{shared:<key>}". Return an empty nodes array if no further action is safe
or necessary.`

func (o *Oracle) userPrompt(goal core.TaskGoal, observation *core.WebObservation, history []core.FailureRecord) string {
	b, _ := json.Marshal(struct {
		Goal        core.TaskGoal          `json:"goal"`
		Observation *core.WebObservation   `json:"observation,omitempty"`
		History     []core.FailureRecord   `json:"failure_history,omitempty"`
	}{Goal: goal, Observation: observation, History: history})
	return string(b)
}
