package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOracle struct {
	fragment []*ExecutionNode
	err      error
	calls    int
}

func (f *fakeOracle) Generate(ctx context.Context, goal TaskGoal, obs *WebObservation, history []FailureRecord) ([]*ExecutionNode, error) {
	f.calls++
	return f.fragment, f.err
}

func TestFailureHandler_Handle(t *testing.T) {
	t.Run("STOP_TASK halts and cascades prune to descendants", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		require.NoError(t, g.AddNode(node("child", "root", 0)))

		var history []FailureRecord
		h := NewFailureHandler(g, &fakeOracle{}, &history)
		root := g.Get("root")
		root.Action.OnFailureAction = OnFailureStopTask

		outcome, err := h.Handle(context.Background(), TaskGoal{}, root, WebObservation{
			LastActionFeedback: ActionFeedback{Status: FeedbackFailed, Message: "boom"},
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeStop, outcome)
		assert.Equal(t, StatusFailed, root.CurrentStatus)
		assert.Equal(t, StatusPruned, g.Get("child").CurrentStatus)
		assert.Len(t, history, 1)
	})

	t.Run("RE_EVALUATE splices a correction fragment under the failed node", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		require.NoError(t, g.AddNode(node("oldchild", "root", 0)))

		fragment := []*ExecutionNode{{NodeID: "fix1", CurrentStatus: StatusPending}}
		var history []FailureRecord
		oracle := &fakeOracle{fragment: fragment}
		h := NewFailureHandler(g, oracle, &history)

		root := g.Get("root")
		root.Action.OnFailureAction = OnFailureReEvaluate

		outcome, err := h.Handle(context.Background(), TaskGoal{TargetDescription: "do thing"}, root, WebObservation{
			LastActionFeedback: ActionFeedback{Status: FeedbackFailed, Message: "boom"},
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeContinue, outcome)
		assert.Equal(t, 1, oracle.calls)

		assert.Equal(t, []string{"fix1"}, g.Children("root"))
		assert.Equal(t, []string{"oldchild"}, g.Children("fix1"))
		assert.Equal(t, StatusFailed, root.CurrentStatus, "failed node identity/status must survive the splice")
	})

	t.Run("RE_EVALUATE with empty fragment stops", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		var history []FailureRecord
		h := NewFailureHandler(g, &fakeOracle{}, &history)
		root := g.Get("root")
		root.Action.OnFailureAction = OnFailureReEvaluate

		outcome, err := h.Handle(context.Background(), TaskGoal{}, root, WebObservation{
			LastActionFeedback: ActionFeedback{Status: FeedbackFailed},
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeStop, outcome)
	})

	t.Run("nil oracle on RE_EVALUATE stops instead of panicking", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		var history []FailureRecord
		h := NewFailureHandler(g, nil, &history)
		root := g.Get("root")
		root.Action.OnFailureAction = OnFailureReEvaluate

		outcome, err := h.Handle(context.Background(), TaskGoal{}, root, WebObservation{
			LastActionFeedback: ActionFeedback{Status: FeedbackFailed},
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeStop, outcome)
	})
}
