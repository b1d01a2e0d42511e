package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfirmer struct {
	approve bool
	err     error
}

func (f fakeConfirmer) Confirm(ctx context.Context, toolName, reason string) (bool, error) {
	return f.approve, f.err
}

type fakeExecutor struct {
	obs   WebObservation
	err   error
	panic bool
}

func (f fakeExecutor) Execute(ctx context.Context, action DecisionAction) (WebObservation, error) {
	if f.panic {
		panic("boom")
	}
	return f.obs, f.err
}

func (f fakeExecutor) Close() error { return nil }

func TestScratchClassifier(t *testing.T) {
	classify := NewScratchClassifier("/scratch")

	t.Run("plain read is benign", func(t *testing.T) {
		c := classify("browser.navigate", map[string]any{"url": "https://x"})
		assert.Equal(t, RiskBenign, c.Class)
	})

	t.Run("delete verb is dangerous", func(t *testing.T) {
		c := classify("fs.delete_file", map[string]any{"path": "x"})
		assert.Equal(t, RiskDangerous, c.Class)
	})

	t.Run("write outside scratch is storage", func(t *testing.T) {
		c := classify("fs.write_file", map[string]any{"path": "/etc/passwd"})
		assert.Equal(t, RiskStorage, c.Class)
	})

	t.Run("write inside scratch is benign", func(t *testing.T) {
		c := classify("fs.write_file", map[string]any{"path": "/scratch/out.txt"})
		assert.Equal(t, RiskBenign, c.Class)
	})
}

func TestConfirmationGate_ConfirmThenExecute(t *testing.T) {
	classify := func(string, map[string]any) Classification { return Classification{Class: RiskDangerous, Reason: "test"} }

	t.Run("approved dangerous action dispatches", func(t *testing.T) {
		gate := NewConfirmationGate(classify, fakeConfirmer{approve: true}, fakeExecutor{obs: WebObservation{LastActionFeedback: ActionFeedback{Status: FeedbackSuccess}}})
		obs, err := gate.ConfirmThenExecute(context.Background(), DecisionAction{ToolName: "fs.delete_file"})
		require.NoError(t, err)
		assert.Equal(t, FeedbackSuccess, obs.LastActionFeedback.Status)
	})

	t.Run("denied dangerous action never dispatches", func(t *testing.T) {
		gate := NewConfirmationGate(classify, fakeConfirmer{approve: false}, fakeExecutor{})
		obs, err := gate.ConfirmThenExecute(context.Background(), DecisionAction{ToolName: "fs.delete_file"})
		require.NoError(t, err)
		assert.Equal(t, ErrCodeUserCancelled, obs.LastActionFeedback.ErrorCode)
	})

	t.Run("dangerous action with no confirmer fails closed", func(t *testing.T) {
		gate := NewConfirmationGate(classify, nil, fakeExecutor{})
		obs, err := gate.ConfirmThenExecute(context.Background(), DecisionAction{ToolName: "fs.delete_file"})
		require.NoError(t, err)
		assert.Equal(t, ErrCodeNoConfirmCallback, obs.LastActionFeedback.ErrorCode)
	})

	t.Run("confirmer error is treated as a system exception, not a panic", func(t *testing.T) {
		gate := NewConfirmationGate(classify, fakeConfirmer{err: errors.New("transport down")}, fakeExecutor{})
		obs, err := gate.ConfirmThenExecute(context.Background(), DecisionAction{ToolName: "fs.delete_file"})
		require.NoError(t, err)
		assert.Equal(t, ErrCodeSystemException, obs.LastActionFeedback.ErrorCode)
	})

	t.Run("benign action never consults the confirmer", func(t *testing.T) {
		benign := func(string, map[string]any) Classification { return Classification{Class: RiskBenign} }
		gate := NewConfirmationGate(benign, nil, fakeExecutor{obs: WebObservation{LastActionFeedback: ActionFeedback{Status: FeedbackSuccess}}})
		obs, err := gate.ConfirmThenExecute(context.Background(), DecisionAction{ToolName: "browser.navigate"})
		require.NoError(t, err)
		assert.Equal(t, FeedbackSuccess, obs.LastActionFeedback.Status)
	})

	t.Run("executor panic becomes a SYSTEM_EXCEPTION observation", func(t *testing.T) {
		benign := func(string, map[string]any) Classification { return Classification{Class: RiskBenign} }
		gate := NewConfirmationGate(benign, nil, fakeExecutor{panic: true})
		obs, err := gate.ConfirmThenExecute(context.Background(), DecisionAction{ToolName: "browser.navigate"})
		require.NoError(t, err)
		assert.Equal(t, ErrCodeSystemException, obs.LastActionFeedback.ErrorCode)
	})
}
