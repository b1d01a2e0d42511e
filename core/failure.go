package core

import "context"

// Outcome tells the executor loop whether to continue scheduling or halt
// after a failure has been handled.
type Outcome int

const (
	OutcomeContinue Outcome = iota
	OutcomeStop
)

// FailureHandler implements the cascade-prune / re-plan / splice algorithm
// of spec.md §4.5.
type FailureHandler struct {
	graph   *Graph
	oracle  PlannerOracle
	history *[]FailureRecord
}

// NewFailureHandler returns a FailureHandler operating on g, delegating
// RE_EVALUATE re-plans to oracle, and appending to the session's shared
// failure history slice.
func NewFailureHandler(g *Graph, oracle PlannerOracle, history *[]FailureRecord) *FailureHandler {
	return &FailureHandler{graph: g, oracle: oracle, history: history}
}

// Handle records the feedback on node, cascades PRUNED status onto its
// PENDING/SKIPPED descendants, appends a FailureRecord, and branches on
// node.Action.OnFailureAction. For RE_EVALUATE it calls the oracle with a
// rewritten goal and, on a non-empty fragment, splices the correction chain
// under node. Returns OutcomeStop if the workflow should halt.
func (h *FailureHandler) Handle(ctx context.Context, goal TaskGoal, node *ExecutionNode, obs WebObservation) (Outcome, error) {
	node.LastObservation = &obs
	node.CurrentStatus = StatusFailed
	node.FailureReason = obs.LastActionFeedback.Message

	h.cascadePrune(node.NodeID, node.NodeID)

	*h.history = append(*h.history, FailureRecord{
		NodeID:       node.NodeID,
		ToolName:     node.Action.ToolName,
		ToolArgs:     node.Action.ToolArgs,
		ErrorMessage: obs.LastActionFeedback.Message,
		Reasoning:    node.Action.Reasoning,
	})

	switch node.Action.OnFailureAction {
	case OnFailureStopTask:
		return OutcomeStop, nil
	case OnFailureReEvaluate, OnFailureTryAlternate:
		if h.oracle == nil {
			return OutcomeStop, nil
		}
		rewritten := goal.WithErrorContext(node.Action.ToolName, obs.LastActionFeedback.Message)
		fragment, err := h.oracle.Generate(ctx, rewritten, &obs, *h.history)
		if err != nil || len(fragment) == 0 {
			return OutcomeStop, nil
		}
		if err := h.injectCorrectionPlan(node.NodeID, fragment); err != nil {
			return OutcomeStop, err
		}
		return OutcomeContinue, nil
	default:
		return OutcomeStop, nil
	}
}

// cascadePrune walks descendants of nodeID breadth-first, marking any
// PENDING or SKIPPED node PRUNED. Nodes already SUCCESS, FAILED, or PRUNED
// are left untouched.
func (h *FailureHandler) cascadePrune(nodeID, ancestorID string) {
	n := h.graph.Get(nodeID)
	if n == nil {
		return
	}
	queue := append([]string(nil), n.ChildIDs...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		child := h.graph.Get(id)
		if child == nil {
			continue
		}
		if child.CurrentStatus == StatusPending || child.CurrentStatus == StatusSkipped {
			child.CurrentStatus = StatusPruned
			child.FailureReason = "pruned due to ancestor failure: " + ancestorID
		}
		queue = append(queue, child.ChildIDs...)
	}
}

// injectCorrectionPlan implements the splice algorithm of spec.md §4.5:
// the failed node's pre-existing children are re-parented onto the tail of
// the newly spliced fragment, which itself chains from failedID.
func (h *FailureHandler) injectCorrectionPlan(failedID string, fragment []*ExecutionNode) error {
	priorChildren := append([]string(nil), h.graph.Get(failedID).ChildIDs...)

	prevID := failedID
	for _, n := range fragment {
		n.ParentID = prevID
		n.CurrentStatus = StatusPending
		if err := h.graph.AddNode(n); err != nil {
			return err
		}
		prevID = n.NodeID
	}

	for _, childID := range priorChildren {
		if err := h.graph.Reparent(childID, prevID); err != nil {
			return err
		}
	}
	return nil
}
