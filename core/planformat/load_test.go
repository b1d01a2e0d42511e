package planformat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_LoadPlan(t *testing.T) {
	t.Run("valid plan with partial action fields gets numeric defaults", func(t *testing.T) {
		raw := []byte(`{
			"execution_plan": [
				{"node_id": "root", "action": {"tool_name": "browser.navigate", "tool_args": {"url": "https://example.com"}}}
			]
		}`)
		nodes, err := New().LoadPlan(raw)
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, "browser.navigate", nodes[0].Action.ToolName)
		assert.Equal(t, 0.95, nodes[0].Action.ConfidenceScore)
		assert.Equal(t, 1, nodes[0].Action.MaxAttempts)
		assert.Equal(t, 10, nodes[0].Action.ExecutionTimeoutSeconds)
	})

	t.Run("missing action object defaults per spec.md §6.6", func(t *testing.T) {
		raw := []byte(`{"execution_plan": [{"node_id": "root"}]}`)
		nodes, err := New().LoadPlan(raw)
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, "default_tool", nodes[0].Action.ToolName)
		assert.Equal(t, "STOP_TASK", string(nodes[0].Action.OnFailureAction))
	})

	t.Run("rejects a document with no execution_plan", func(t *testing.T) {
		_, err := New().LoadPlan([]byte(`{}`))
		assert.Error(t, err)
	})

	t.Run("rejects a node missing node_id", func(t *testing.T) {
		_, err := New().LoadPlan([]byte(`{"execution_plan": [{"action": {}}]}`))
		assert.Error(t, err)
	})
}
