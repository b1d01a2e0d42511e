// Package core implements the Dynamic Execution Graph orchestrator: the
// scheduler, the self-correcting re-planner, the node lifecycle state
// machine, the dynamic-argument resolver, and the concurrency layer that
// lets long-running executions coexist with an event-bus fanout and
// user-confirmation callbacks.
//
// Everything else an automation agent needs — the LLM transport, the
// browser/OCR/filesystem tool implementations, the HTTP/WebSocket framing —
// is a pluggable collaborator satisfying the PlannerOracle, ToolExecutor and
// Confirmer interfaces declared here. The core never imports a concrete
// collaborator package.
package core

import "time"

// Status enumerates the lifecycle states of an ExecutionNode.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusRunning Status = "RUNNING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusPruned  Status = "PRUNED"
	StatusSkipped Status = "SKIPPED"
)

// FailureAction enumerates what should happen when a DecisionAction's tool
// invocation fails.
type FailureAction string

const (
	OnFailureReEvaluate  FailureAction = "RE_EVALUATE"
	OnFailureStopTask    FailureAction = "STOP_TASK"
	OnFailureTryAlternate FailureAction = "TRY_ALTERNATE"
)

// FeedbackStatus is the outcome of a single tool invocation.
type FeedbackStatus string

const (
	FeedbackSuccess FeedbackStatus = "SUCCESS"
	FeedbackFailed  FeedbackStatus = "FAILED"
)

// Well-known error codes surfaced by the core. Collaborators may introduce
// their own; these are the ones the core itself assigns.
const (
	ErrCodeNone               = "0"
	ErrCodeArgResolve         = "ARG_RESOLVE_ERROR"
	ErrCodeUserCancelled      = "USER_CANCELLED"
	ErrCodeNoConfirmCallback  = "NO_CONFIRM_CALLBACK"
	ErrCodeSystemException   = "SYSTEM_EXCEPTION"
)

type (
	// TaskGoal describes what the agent is trying to accomplish. It is
	// immutable for the duration of one session except that the re-planner
	// constructs a shallow copy with a rewritten TargetDescription carrying
	// error context (see WithErrorContext).
	TaskGoal struct {
		TaskUUID               string
		TargetDescription      string
		AllowedTools           map[string]struct{}
		PriorityLevel          int
		MaxExecutionTimeSeconds int
		RequiredData           map[string]any
	}

	// DecisionAction is a single tool invocation proposed by the planner
	// oracle or loaded from a persisted plan.
	DecisionAction struct {
		ToolName                string
		ToolArgs                map[string]any
		Reasoning                string
		ExpectedOutcome          string
		ConfidenceScore          float64
		MaxAttempts              int
		ExecutionTimeoutSeconds  int
		OnFailureAction          FailureAction
		WaitForConditionAfter    string
	}

	// ActionFeedback is the result of one tool invocation.
	ActionFeedback struct {
		Status    FeedbackStatus
		ErrorCode string
		Message   string
	}

	// KeyElement describes one visible interactive element on the page at
	// the moment of observation.
	KeyElement struct {
		ID          string
		Tag         string
		XPath       string
		TextExcerpt string
		BoundingBox [4]float64 // x, y, width, height
		Visible     bool
	}

	// WebObservation is the environment snapshot captured immediately after
	// an action executes.
	WebObservation struct {
		CurrentURL        string
		HTTPStatusCode    int
		PageLoadTimeMS    int64
		IsAuthenticated   bool
		KeyElements       []KeyElement
		LastActionFeedback ActionFeedback
		MemoryContext     map[string]any
	}

	// ExecutionNode is the central entity of the Dynamic Execution Graph.
	ExecutionNode struct {
		NodeID                  string
		ParentID                string // empty only for the root
		ChildIDs                []string
		ExecutionOrderPriority  int
		Action                  DecisionAction
		CurrentStatus           Status
		FailureReason           string
		RequiredPrecondition    string
		ExpectedCostUnits       float64
		LastObservation         *WebObservation
		ResolvedOutput          string

		insertionSeq int // internal tiebreak for sibling sort stability
	}

	// FailureRecord is appended to the session's failure history so the
	// re-planner can avoid repeating a mistake.
	FailureRecord struct {
		NodeID       string
		ToolName     string
		ToolArgs     map[string]any
		ErrorMessage string
		Reasoning    string
	}

	// SharedContext is a small, non-authoritative mapping from well-known
	// keys to last-seen structured values, consulted by specific tools as a
	// fallback data source when their own argument is absent.
	SharedContext struct {
		values map[string]any
	}
)

// NewSharedContext returns an empty SharedContext.
func NewSharedContext() *SharedContext {
	return &SharedContext{values: make(map[string]any)}
}

// Set stores a value under key, replacing any previous value.
func (s *SharedContext) Set(key string, v any) {
	s.values[key] = v
}

// Clear removes key from the context.
func (s *SharedContext) Clear(key string) {
	delete(s.values, key)
}

// Get returns the value stored under key, and whether it was present.
func (s *SharedContext) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// WithErrorContext returns a shallow copy of the goal with TargetDescription
// rewritten to carry the failed tool name and error message, for use as the
// goal passed to the planner oracle during RE_EVALUATE re-planning.
func (g TaskGoal) WithErrorContext(failedTool, errMessage string) TaskGoal {
	cp := g
	cp.TargetDescription = g.TargetDescription +
		"\n\n[correction context] tool " + failedTool + " failed: " + errMessage
	return cp
}

// timeNow is overridable in tests; production code always uses time.Now.
var timeNow = time.Now
