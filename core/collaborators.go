package core

import "context"

type (
	// PlannerOracle is the external planning service the core delegates to
	// for both the initial plan and self-correction fragments (spec.md §6.1).
	// Implementations are the LLM transport; the core treats this as an
	// opaque collaborator and never constructs prompts itself.
	PlannerOracle interface {
		// Generate returns a plan fragment for goal. observation and
		// history are nil/empty for the initial plan; for a correction
		// splice they carry the failing observation and the accumulated
		// failure history. When the graph is empty, the first returned
		// node must have no parent. An empty slice (not an error) signals
		// "no plan available" and must not be treated as a failure by the
		// oracle itself — ordinary transport failures are caught by the
		// implementation and surfaced as an empty slice.
		Generate(ctx context.Context, goal TaskGoal, observation *WebObservation, history []FailureRecord) ([]*ExecutionNode, error)
	}

	// ToolExecutor is the external collaborator that actually performs an
	// action — against a browser, the filesystem, an OCR engine, or an
	// Office document writer (spec.md §6.2). Which backend handles a given
	// tool name is invisible to the core.
	ToolExecutor interface {
		Execute(ctx context.Context, action DecisionAction) (WebObservation, error)
		Close() error
	}

	// Confirmer is the synchronous external collaborator asked to approve a
	// dangerous or storage action before it dispatches (spec.md §6.3). It
	// may block indefinitely; implementations should apply their own
	// timeout.
	Confirmer interface {
		Confirm(ctx context.Context, toolName, reason string) (bool, error)
	}
)
