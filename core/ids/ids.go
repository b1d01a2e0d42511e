// Package ids generates opaque identifiers for tasks and nodes.
package ids

import "github.com/google/uuid"

// NewTaskUUID returns a fresh opaque identifier for a TaskGoal.
func NewTaskUUID() string {
	return uuid.NewString()
}

// NewNodeID returns a fresh opaque identifier for an ExecutionNode.
func NewNodeID() string {
	return uuid.NewString()
}

// NewRunID returns a fresh opaque identifier for a session run.
func NewRunID() string {
	return uuid.NewString()
}
