// Package graphviz renders a core.Graph snapshot into the small node/edge
// JSON shape a front-end visualizer consumes, grounded on
// original_source/backend/src/agent/VisualizationAdapter.py (despite the
// package name, nothing here depends on Graphviz the tool; the name matches
// the original adapter's domain, not an external binary).
package graphviz

import "github.com/goadesign/webagent/core"

// Node is one rendered graph node.
type Node struct {
	ID     string `json:"id"`
	Parent string `json:"parent,omitempty"`
	Tool   string `json:"tool"`
	Status string `json:"status"`
}

// Edge is one rendered parent-to-child link.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Snapshot is the full rendered payload published on the "visualization"
// event.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Render converts every node in g into the Snapshot shape. g is read without
// any locking, so callers must own it outright: use this from the executor
// loop's own goroutine (e.g. after Session.Run has returned) or on a
// core.Graph no other goroutine can still be mutating. Any caller racing the
// running executor loop — a WS subscriber, an HTTP handler — must use
// RenderSnapshot over a core.Session.Snapshot() instead.
func Render(g *core.Graph) Snapshot {
	var snap Snapshot
	for _, n := range g.All() {
		snap.Nodes = append(snap.Nodes, Node{
			ID:     n.NodeID,
			Parent: n.ParentID,
			Tool:   n.Action.ToolName,
			Status: string(n.CurrentStatus),
		})
		if n.ParentID != "" {
			snap.Edges = append(snap.Edges, Edge{From: n.ParentID, To: n.NodeID})
		}
	}
	return snap
}

// RenderSnapshot builds the same Node/Edge shape from a core.Session.Snapshot
// deep copy, so a subscriber on a different goroutine than the executor loop
// can render a task_update's graph without touching the live *core.Graph.
func RenderSnapshot(snap core.Snapshot) Snapshot {
	var out Snapshot
	for id, n := range snap.Nodes {
		out.Nodes = append(out.Nodes, Node{
			ID:     id,
			Parent: n.ParentID,
			Tool:   n.Action.ToolName,
			Status: string(n.CurrentStatus),
		})
		if n.ParentID != "" {
			out.Edges = append(out.Edges, Edge{From: n.ParentID, To: id})
		}
	}
	return out
}
