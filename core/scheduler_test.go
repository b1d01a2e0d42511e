package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_NextRunnable(t *testing.T) {
	t.Run("empty graph returns nil", func(t *testing.T) {
		s := NewScheduler(NewGraph())
		assert.Nil(t, s.NextRunnable())
	})

	t.Run("picks lowest priority pending node across the whole tree", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		require.NoError(t, g.AddNode(node("a", "root", 5)))
		require.NoError(t, g.AddNode(node("b", "a", 1)))
		g.Get("root").CurrentStatus = StatusSuccess
		g.Get("a").CurrentStatus = StatusSuccess

		s := NewScheduler(g)
		next := s.NextRunnable()
		require.NotNil(t, next)
		assert.Equal(t, "b", next.NodeID)
	})

	t.Run("descends through FAILED nodes to reach a spliced correction", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		g.Get("root").CurrentStatus = StatusFailed
		require.NoError(t, g.AddNode(node("fix", "root", 0)))

		s := NewScheduler(g)
		next := s.NextRunnable()
		require.NotNil(t, next)
		assert.Equal(t, "fix", next.NodeID)
	})

	t.Run("ties broken by insertion order", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		require.NoError(t, g.AddNode(node("first", "root", 0)))
		require.NoError(t, g.AddNode(node("second", "root", 0)))
		g.Get("root").CurrentStatus = StatusSuccess

		s := NewScheduler(g)
		assert.Equal(t, "first", s.NextRunnable().NodeID)
	})
}
