package core

import (
	"fmt"
	"sort"
)

// Graph-store error kinds (spec.md §4.1, §7).
const (
	ErrDuplicateNode = "DUPLICATE_NODE"
	ErrSecondRoot    = "SECOND_ROOT"
	ErrMissingParent = "MISSING_PARENT"
)

// GraphError wraps one of the graph-store error kinds above with the node id
// that triggered it.
type GraphError struct {
	Kind   string
	NodeID string
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("%s: node %q", e.Kind, e.NodeID)
}

// Graph holds the Dynamic Execution Graph: nodes by id, parent/child links,
// an insertion-order list, and the root id. It enforces the structural
// invariants listed in spec.md §3 at every mutating call.
//
// Graph is not safe for concurrent use by itself; the Session (C9) owns a
// Graph and guards every read and write of it with the session's mutex,
// handing out copies for snapshots (spec.md §5).
type Graph struct {
	nodes          map[string]*ExecutionNode
	rootID         string
	insertionOrder []string
	seq            int
}

// NewGraph returns an empty graph store.
func NewGraph() *Graph {
	return &Graph{nodes: make(map[string]*ExecutionNode)}
}

// AddNode inserts n into the graph. It fails with ErrDuplicateNode if the id
// is already present, ErrSecondRoot if n has no parent but a root already
// exists, or ErrMissingParent if n.ParentID is set but not yet in the graph.
//
// On success it stores the node, appends it to its parent's ChildIDs
// (re-sorted ascending by ExecutionOrderPriority, ties broken by insertion
// order), and appends the id to the insertion-order list.
func (g *Graph) AddNode(n *ExecutionNode) error {
	if _, exists := g.nodes[n.NodeID]; exists {
		return &GraphError{Kind: ErrDuplicateNode, NodeID: n.NodeID}
	}
	if n.ParentID == "" {
		if g.rootID != "" {
			return &GraphError{Kind: ErrSecondRoot, NodeID: n.NodeID}
		}
	} else if _, ok := g.nodes[n.ParentID]; !ok {
		return &GraphError{Kind: ErrMissingParent, NodeID: n.NodeID}
	}

	n.insertionSeq = g.seq
	g.seq++
	g.nodes[n.NodeID] = n
	g.insertionOrder = append(g.insertionOrder, n.NodeID)

	if n.ParentID == "" {
		g.rootID = n.NodeID
	} else {
		parent := g.nodes[n.ParentID]
		parent.ChildIDs = append(parent.ChildIDs, n.NodeID)
		g.sortChildren(parent)
	}
	return nil
}

// Reparent moves nodeID from its current parent's ChildIDs to newParentID's,
// re-sorting both sibling lists. It does not mutate nodeID's insertion
// order or priority. Used by the re-planner's splice algorithm (§4.5).
func (g *Graph) Reparent(nodeID, newParentID string) error {
	n, ok := g.nodes[nodeID]
	if !ok {
		return &GraphError{Kind: ErrMissingParent, NodeID: nodeID}
	}
	if _, ok := g.nodes[newParentID]; !ok {
		return &GraphError{Kind: ErrMissingParent, NodeID: newParentID}
	}
	if newParentID == nodeID || g.isDescendant(newParentID, nodeID) {
		return fmt.Errorf("reparenting %q under %q would create a cycle", nodeID, newParentID)
	}
	if old, ok := g.nodes[n.ParentID]; ok {
		old.ChildIDs = removeID(old.ChildIDs, nodeID)
	}
	n.ParentID = newParentID
	newParent := g.nodes[newParentID]
	newParent.ChildIDs = append(newParent.ChildIDs, nodeID)
	g.sortChildren(newParent)
	return nil
}

func (g *Graph) sortChildren(n *ExecutionNode) {
	ids := n.ChildIDs
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := g.nodes[ids[i]], g.nodes[ids[j]]
		if a.ExecutionOrderPriority != b.ExecutionOrderPriority {
			return a.ExecutionOrderPriority < b.ExecutionOrderPriority
		}
		return a.insertionSeq < b.insertionSeq
	})
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// Get returns the node with the given id, or nil if absent.
func (g *Graph) Get(id string) *ExecutionNode {
	return g.nodes[id]
}

// Children returns the (already priority-sorted) child ids of id.
func (g *Graph) Children(id string) []string {
	n := g.nodes[id]
	if n == nil {
		return nil
	}
	return n.ChildIDs
}

// Root returns the root node, or nil if the graph is empty.
func (g *Graph) Root() *ExecutionNode {
	if g.rootID == "" {
		return nil
	}
	return g.nodes[g.rootID]
}

// RootID returns the id of the root node, or "" if the graph is empty.
func (g *Graph) RootID() string {
	return g.rootID
}

// All returns every node in the graph, in no particular order.
func (g *Graph) All() []*ExecutionNode {
	out := make([]*ExecutionNode, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// InsertionOrder returns node ids in the order they were added.
func (g *Graph) InsertionOrder() []string {
	out := make([]string, len(g.insertionOrder))
	copy(out, g.insertionOrder)
	return out
}

// Len reports the number of nodes currently in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// CheckInvariants validates the structural invariants from spec.md §3
// against the current graph state. It is used by tests and may be called
// defensively at any public entry/exit point.
func (g *Graph) CheckInvariants() error {
	rootCount := 0
	for id, n := range g.nodes {
		if id != n.NodeID {
			return fmt.Errorf("node stored under key %q has NodeID %q", id, n.NodeID)
		}
		if n.ParentID == "" {
			rootCount++
			if id != g.rootID {
				return fmt.Errorf("node %q has no parent but is not the recorded root %q", id, g.rootID)
			}
			continue
		}
		parent, ok := g.nodes[n.ParentID]
		if !ok {
			return fmt.Errorf("node %q has missing parent %q", id, n.ParentID)
		}
		count := 0
		for _, c := range parent.ChildIDs {
			if c == id {
				count++
			}
		}
		if count != 1 {
			return fmt.Errorf("node %q appears %d times in parent %q's child list", id, count, n.ParentID)
		}
		if err := g.ancestorCycleCheck(id); err != nil {
			return err
		}
		if n.CurrentStatus == StatusSuccess {
			if n.LastObservation == nil || n.LastObservation.LastActionFeedback.Status != FeedbackSuccess {
				return fmt.Errorf("node %q is SUCCESS without a successful last observation", id)
			}
		}
		if n.ResolvedOutput != "" && n.CurrentStatus != StatusSuccess {
			return fmt.Errorf("node %q has ResolvedOutput set but status %q", id, n.CurrentStatus)
		}
	}
	if rootCount > 1 {
		return fmt.Errorf("graph has %d root nodes, expected at most 1", rootCount)
	}
	if rootCount == 0 && g.rootID != "" {
		return fmt.Errorf("recorded root %q is not present in the graph", g.rootID)
	}
	for _, n := range g.nodes {
		sorted := append([]string(nil), n.ChildIDs...)
		g.sortChildren(&ExecutionNode{NodeID: n.NodeID, ChildIDs: sorted})
		for i, c := range sorted {
			if c != n.ChildIDs[i] {
				return fmt.Errorf("node %q's child list is not priority-sorted", n.NodeID)
			}
		}
	}
	return nil
}

// isDescendant reports whether candidate appears anywhere in ancestor's
// subtree (breadth-first), used to reject cycle-forming reparents.
func (g *Graph) isDescendant(candidate, ancestor string) bool {
	queue := []string{ancestor}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := g.nodes[id]
		if n == nil {
			continue
		}
		for _, c := range n.ChildIDs {
			if c == candidate {
				return true
			}
			queue = append(queue, c)
		}
	}
	return false
}

func (g *Graph) ancestorCycleCheck(start string) error {
	seen := map[string]struct{}{}
	cur := start
	for {
		n := g.nodes[cur]
		if n == nil || n.ParentID == "" {
			return nil
		}
		if _, ok := seen[n.ParentID]; ok {
			return fmt.Errorf("cycle detected: node %q's ancestor chain revisits %q", start, n.ParentID)
		}
		seen[cur] = struct{}{}
		cur = n.ParentID
		if cur == start {
			return fmt.Errorf("cycle detected: node %q is its own ancestor", start)
		}
	}
}
