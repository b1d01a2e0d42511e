package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedExecutor replays one WebObservation per call, in order, so an
// end-to-end test can drive a whole session deterministically.
type scriptedExecutor struct {
	observations []WebObservation
	i            int
	closed       bool
}

func (s *scriptedExecutor) Execute(ctx context.Context, action DecisionAction) (WebObservation, error) {
	if s.i >= len(s.observations) {
		return WebObservation{LastActionFeedback: ActionFeedback{Status: FeedbackSuccess}}, nil
	}
	obs := s.observations[s.i]
	s.i++
	return obs, nil
}

func (s *scriptedExecutor) Close() error {
	s.closed = true
	return nil
}

func TestSession_S1_HappyPath(t *testing.T) {
	oracle := &fakeOracle{fragment: []*ExecutionNode{
		{NodeID: "n1", CurrentStatus: StatusPending, Action: DecisionAction{ToolName: "browser.navigate"}},
	}}
	executor := &scriptedExecutor{observations: []WebObservation{
		{LastActionFeedback: ActionFeedback{Status: FeedbackSuccess, Message: "done"}},
	}}

	session := NewSession(SessionOptions{
		Goal:     TaskGoal{TaskUUID: "t1", TargetDescription: "go to example.com"},
		Oracle:   oracle,
		Executor: executor,
		MaxTicks: 10,
	})

	session.Run(context.Background())

	snap := session.Snapshot()
	assert.Equal(t, SessionCompleted, snap.State)
	root := snap.Nodes[snap.RootID]
	assert.Equal(t, StatusSuccess, root.CurrentStatus)
	assert.Equal(t, "done", root.ResolvedOutput)
}

func TestSession_S2_FailureStopsTask(t *testing.T) {
	oracle := &fakeOracle{fragment: []*ExecutionNode{
		{NodeID: "n1", CurrentStatus: StatusPending, Action: DecisionAction{ToolName: "browser.navigate", OnFailureAction: OnFailureStopTask}},
	}}
	executor := &scriptedExecutor{observations: []WebObservation{
		{LastActionFeedback: ActionFeedback{Status: FeedbackFailed, ErrorCode: ErrCodeSystemException, Message: "network down"}},
	}}

	session := NewSession(SessionOptions{
		Goal:     TaskGoal{TaskUUID: "t2", TargetDescription: "go to example.com"},
		Oracle:   oracle,
		Executor: executor,
		MaxTicks: 10,
	})

	session.Run(context.Background())

	snap := session.Snapshot()
	assert.Equal(t, SessionFailed, snap.State)
}

func TestSession_Stop_IsCooperative(t *testing.T) {
	oracle := &fakeOracle{fragment: []*ExecutionNode{
		{NodeID: "n1", CurrentStatus: StatusPending, Action: DecisionAction{ToolName: "browser.navigate"}},
	}}
	executor := &scriptedExecutor{}

	session := NewSession(SessionOptions{
		Goal:     TaskGoal{TaskUUID: "t3", TargetDescription: "stop me"},
		Oracle:   oracle,
		Executor: executor,
		MaxTicks: 10,
	})

	session.Start(context.Background())
	session.Stop()

	require.Eventually(t, func() bool {
		return session.Snapshot().State == SessionStopped || session.Snapshot().State == SessionCompleted
	}, time.Second, 5*time.Millisecond)
}
