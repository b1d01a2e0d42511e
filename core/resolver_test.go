package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	t.Run("passes through non-placeholder args untouched", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		n := g.Get("root")
		n.Action.ToolArgs = map[string]any{"url": "https://example.com"}

		r := NewResolver(g, NewSharedContext())
		resolved, err := r.Resolve(n)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", resolved.ToolArgs["url"])
	})

	t.Run("substitutes result_of from a SUCCESS ancestor", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		require.NoError(t, g.AddNode(node("child", "root", 0)))
		root := g.Get("root")
		root.CurrentStatus = StatusSuccess
		root.ResolvedOutput = "42"

		child := g.Get("child")
		child.Action.ToolArgs = map[string]any{"amount": "{result_of:root}"}

		r := NewResolver(g, NewSharedContext())
		resolved, err := r.Resolve(child)
		require.NoError(t, err)
		assert.Equal(t, "42", resolved.ToolArgs["amount"])
		assert.Equal(t, "{result_of:root}", child.Action.ToolArgs["amount"], "original action must not be mutated")
	})

	t.Run("errors when the referenced node is not SUCCESS", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		require.NoError(t, g.AddNode(node("child", "root", 0)))
		child := g.Get("child")
		child.Action.ToolArgs = map[string]any{"amount": "{result_of:root}"}

		r := NewResolver(g, NewSharedContext())
		_, err := r.Resolve(child)
		require.Error(t, err)
	})

	t.Run("substitutes shared context fallback", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		n := g.Get("root")
		n.Action.ToolArgs = map[string]any{"rows": "{shared:last_extracted_items}"}

		shared := NewSharedContext()
		shared.Set("last_extracted_items", []string{"a", "b"})

		r := NewResolver(g, shared)
		resolved, err := r.Resolve(n)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, resolved.ToolArgs["rows"])
	})

	t.Run("errors when shared key is absent", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		n := g.Get("root")
		n.Action.ToolArgs = map[string]any{"rows": "{shared:missing}"}

		r := NewResolver(g, NewSharedContext())
		_, err := r.Resolve(n)
		assert.Error(t, err)
	})
}
