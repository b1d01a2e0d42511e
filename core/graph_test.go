package core

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id, parent string, priority int) *ExecutionNode {
	return &ExecutionNode{NodeID: id, ParentID: parent, ExecutionOrderPriority: priority, CurrentStatus: StatusPending}
}

func TestGraph_AddNode(t *testing.T) {
	t.Run("first node becomes root", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		assert.Equal(t, "root", g.RootID())
	})

	t.Run("second rootless node errors", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		err := g.AddNode(node("root2", "", 0))
		require.Error(t, err)
		var gerr *GraphError
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, ErrSecondRoot, gerr.Kind)
	})

	t.Run("duplicate id errors", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		err := g.AddNode(node("root", "", 0))
		require.Error(t, err)
		var gerr *GraphError
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, ErrDuplicateNode, gerr.Kind)
	})

	t.Run("missing parent errors", func(t *testing.T) {
		g := NewGraph()
		err := g.AddNode(node("child", "missing", 0))
		require.Error(t, err)
		var gerr *GraphError
		require.ErrorAs(t, err, &gerr)
		assert.Equal(t, ErrMissingParent, gerr.Kind)
	})

	t.Run("children sorted by priority then insertion order", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		require.NoError(t, g.AddNode(node("b", "root", 5)))
		require.NoError(t, g.AddNode(node("a", "root", 1)))
		require.NoError(t, g.AddNode(node("c", "root", 1)))
		assert.Equal(t, []string{"a", "c", "b"}, g.Children("root"))
	})
}

func TestGraph_Reparent(t *testing.T) {
	t.Run("moves node between parents", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		require.NoError(t, g.AddNode(node("a", "root", 0)))
		require.NoError(t, g.AddNode(node("b", "root", 1)))
		require.NoError(t, g.AddNode(node("c", "a", 0)))

		require.NoError(t, g.Reparent("c", "b"))
		assert.Empty(t, g.Children("a"))
		assert.Equal(t, []string{"c"}, g.Children("b"))
		assert.Equal(t, "b", g.Get("c").ParentID)
	})

	t.Run("rejects self-parenting", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		err := g.Reparent("root", "root")
		assert.Error(t, err)
	})

	t.Run("rejects cycle-forming reparent", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.AddNode(node("root", "", 0)))
		require.NoError(t, g.AddNode(node("a", "root", 0)))
		require.NoError(t, g.AddNode(node("b", "a", 0)))

		err := g.Reparent("a", "b")
		assert.Error(t, err)
		require.NoError(t, g.CheckInvariants())
	})
}

func TestGraph_CheckInvariants(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddNode(node("root", "", 0)))
	require.NoError(t, g.AddNode(node("a", "root", 0)))
	require.NoError(t, g.CheckInvariants())

	t.Run("SUCCESS without successful observation is invalid", func(t *testing.T) {
		n := g.Get("a")
		n.CurrentStatus = StatusSuccess
		err := g.CheckInvariants()
		assert.Error(t, err)
		n.LastObservation = &WebObservation{LastActionFeedback: ActionFeedback{Status: FeedbackSuccess}}
		assert.NoError(t, g.CheckInvariants())
	})

	t.Run("ResolvedOutput requires SUCCESS", func(t *testing.T) {
		n := g.Get("a")
		n.CurrentStatus = StatusPending
		n.ResolvedOutput = "leftover"
		err := g.CheckInvariants()
		assert.Error(t, err)
		n.ResolvedOutput = ""
	})
}

// TestGraph_SiblingOrderingProperty is the property-based check for spec.md
// §8's sorted-sibling-list invariant: for any sequence of priorities
// assigned to children of one parent, the stored child list is always
// sorted ascending by priority (ties broken by insertion order).
func TestGraph_SiblingOrderingProperty(t *testing.T) {
	props := gopter.NewProperties(nil)

	props.Property("children stay priority-sorted for any insertion sequence", prop.ForAll(
		func(priorities []int) bool {
			g := NewGraph()
			if err := g.AddNode(node("root", "", 0)); err != nil {
				return false
			}
			for i, p := range priorities {
				if err := g.AddNode(node(idFor(i), "root", p)); err != nil {
					return false
				}
			}
			return g.CheckInvariants() == nil
		},
		gen.SliceOf(gen.IntRange(-50, 50)),
	))

	props.TestingRun(t)
}

func idFor(i int) string {
	return fmt.Sprintf("n%d", i)
}
