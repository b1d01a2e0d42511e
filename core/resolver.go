package core

import (
	"fmt"
	"regexp"
)

var placeholderRe = regexp.MustCompile(`^\{result_of:(.+)\}$`)
var sharedPlaceholderRe = regexp.MustCompile(`^\{shared:(.+)\}$`)

// ResolveError reports why argument resolution failed for a node, before
// dispatch (spec.md §4.4).
type ResolveError struct {
	NodeID    string
	Reference string
	Reason    string
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("arg resolve error for node %q referencing %q: %s", e.NodeID, e.Reference, e.Reason)
}

// Resolver substitutes {result_of:ID} and {shared:KEY} placeholders in a
// node's action arguments with captured outputs of prior nodes, or values
// from the session's SharedContext, without mutating the node's stored
// action (spec.md §4.4, §8 property 3, and the SPEC_FULL §C.1 extension
// for shared-context fallback args).
type Resolver struct {
	graph  *Graph
	shared *SharedContext
}

// NewResolver returns a Resolver reading node outputs from g and fallback
// values from shared.
func NewResolver(g *Graph, shared *SharedContext) *Resolver {
	return &Resolver{graph: g, shared: shared}
}

// Resolve returns a new DecisionAction with every {result_of:ID} and
// {shared:KEY} string value substituted. It never mutates n.Action. It
// returns a *ResolveError if any referenced node does not exist, is not in
// SUCCESS state, or has no ResolvedOutput.
func (r *Resolver) Resolve(n *ExecutionNode) (DecisionAction, error) {
	resolved := n.Action
	if len(n.Action.ToolArgs) == 0 {
		return resolved, nil
	}
	args := make(map[string]any, len(n.Action.ToolArgs))
	for k, v := range n.Action.ToolArgs {
		s, ok := v.(string)
		if !ok {
			args[k] = v
			continue
		}
		if m := placeholderRe.FindStringSubmatch(s); m != nil {
			refID := m[1]
			val, err := r.resolveResultOf(n.NodeID, refID)
			if err != nil {
				return DecisionAction{}, err
			}
			args[k] = val
			continue
		}
		if m := sharedPlaceholderRe.FindStringSubmatch(s); m != nil {
			key := m[1]
			val, ok := r.shared.Get(key)
			if !ok {
				return DecisionAction{}, &ResolveError{NodeID: n.NodeID, Reference: s, Reason: "shared context key not set"}
			}
			args[k] = val
			continue
		}
		args[k] = s
	}
	resolved.ToolArgs = args
	return resolved, nil
}

func (r *Resolver) resolveResultOf(nodeID, refID string) (string, error) {
	ref := r.graph.Get(refID)
	if ref == nil {
		return "", &ResolveError{NodeID: nodeID, Reference: refID, Reason: "referenced node does not exist"}
	}
	if ref.CurrentStatus != StatusSuccess {
		return "", &ResolveError{NodeID: nodeID, Reference: refID, Reason: "referenced node is not in SUCCESS state"}
	}
	if ref.ResolvedOutput == "" {
		return "", &ResolveError{NodeID: nodeID, Reference: refID, Reason: "referenced node has no resolved output"}
	}
	return ref.ResolvedOutput, nil
}
