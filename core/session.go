package core

import (
	"context"
	"sync"
	"time"
)

// SessionState enumerates the lifecycle of a Session as a whole (spec.md
// §4.9).
type SessionState string

const (
	SessionIdle      SessionState = "idle"
	SessionRunning   SessionState = "running"
	SessionCompleted SessionState = "completed"
	SessionFailed    SessionState = "failed"
	SessionStopped   SessionState = "stopped"
)

// DefaultMaxTicks is the suggested hard safety bound on scheduler iterations
// (spec.md §4.6).
const DefaultMaxTicks = 50

// DefaultTeardownGrace is the suggested grace period before the tool
// executor is closed after a session terminates, so late observers can
// still fetch the final screenshot (spec.md §4.9).
const DefaultTeardownGrace = 5 * time.Second

// Snapshot is a point-in-time copy of a session's state, safe to read
// without holding the session's lock.
type Snapshot struct {
	Goal   TaskGoal
	RootID string
	Nodes  map[string]ExecutionNode
	State  SessionState
}

// SessionOptions configures a new Session.
type SessionOptions struct {
	Goal         TaskGoal
	Oracle       PlannerOracle
	Executor     ToolExecutor
	Confirmer    Confirmer
	Classifier   Classifier      // defaults to NewScratchClassifier(".") if nil
	MaxTicks     int             // defaults to DefaultMaxTicks if zero
	BusQueue     int             // per-subscriber mailbox depth; 0 uses the Bus default
	InitialPlan  []*ExecutionNode // pre-parsed plan (e.g. via core/planformat); skips the oracle's initial Generate call when non-empty
}

// Session binds one TaskGoal to one orchestrator instance: the graph, the
// executor loop, the event bus, and the collaborators it drives (spec.md
// §4.9, §C9). A Session runs at most one active plan and is not reused
// after it reaches a terminal state.
type Session struct {
	mu    sync.RWMutex
	goal  TaskGoal
	graph *Graph
	bus   *Bus
	state SessionState

	oracle   PlannerOracle
	gate     *ConfirmationGate
	executor ToolExecutor
	shared   *SharedContext
	history  []FailureRecord
	maxTicks int

	stopped  chan struct{}
	doneOnce sync.Once
}

// NewSession constructs an idle Session from opts. Call Start to launch the
// executor loop.
func NewSession(opts SessionOptions) *Session {
	classifier := opts.Classifier
	if classifier == nil {
		classifier = NewScratchClassifier(".")
	}
	maxTicks := opts.MaxTicks
	if maxTicks <= 0 {
		maxTicks = DefaultMaxTicks
	}
	s := &Session{
		goal:     opts.Goal,
		graph:    NewGraph(),
		bus:      NewBus(opts.BusQueue),
		state:    SessionIdle,
		oracle:   opts.Oracle,
		executor: opts.Executor,
		shared:   NewSharedContext(),
		maxTicks: maxTicks,
		stopped:  make(chan struct{}),
	}
	s.gate = NewConfirmationGate(classifier, opts.Confirmer, opts.Executor)
	for _, n := range opts.InitialPlan {
		n.CurrentStatus = StatusPending
		if err := s.graph.AddNode(n); err != nil {
			break
		}
	}
	return s
}

// Subscribe registers an asynchronous subscriber on the session's event
// bus. Future events are published to it until the returned Subscription is
// closed.
func (s *Session) Subscribe(sub Subscriber) Subscription {
	return s.bus.Register(sub)
}

// Stop requests cooperative cancellation. The loop finishes its current
// tool call (which is not interruptible) and exits before the next
// scheduling pass. Idempotent.
func (s *Session) Stop() {
	s.doneOnce.Do(func() { close(s.stopped) })
}

// BusStats reports the event bus's current subscriber count and configured
// per-subscriber mailbox depth, for collaborators that report queue gauges.
func (s *Session) BusStats() (subscribers, queueDepth int) {
	return s.bus.SubscriberCount(), s.bus.QueueDepth()
}

// Graph exposes the session's underlying graph store for read-only use by
// collaborators such as a visualization renderer. Callers must not mutate
// the returned graph. It is returned without the session lock, so reading
// it is only safe while the executor loop is not running (for example after
// Run has returned); use Snapshot while the loop may still be running.
func (s *Session) Graph() *Graph {
	return s.graph
}

// Snapshot returns the current goal, root id, and a deep copy of the graph
// nodes.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes := make(map[string]ExecutionNode, s.graph.Len())
	for _, n := range s.graph.All() {
		nodes[n.NodeID] = *cloneNode(n)
	}
	return Snapshot{Goal: s.goal, RootID: s.graph.RootID(), Nodes: nodes, State: s.state}
}

// Start launches the executor loop on a background goroutine and returns
// immediately with the task id. The loop runs to completion exactly once.
func (s *Session) Start(ctx context.Context) string {
	s.mu.Lock()
	s.state = SessionRunning
	s.mu.Unlock()
	go s.run(ctx)
	return s.goal.TaskUUID
}

// Run drives the loop synchronously to completion; Start is a thin
// goroutine wrapper around this for the async API surface.
func (s *Session) Run(ctx context.Context) {
	s.mu.Lock()
	s.state = SessionRunning
	s.mu.Unlock()
	s.run(ctx)
}

func (s *Session) run(ctx context.Context) {
	loop := &executorLoop{session: s}
	finalState := loop.Run(ctx)

	s.mu.Lock()
	s.state = finalState
	s.mu.Unlock()

	s.bus.Publish(Event{Kind: EventStatus, Level: LevelReport, Message: "run complete: " + string(finalState)})

	if s.executor == nil {
		return
	}
	go func() {
		time.Sleep(DefaultTeardownGrace)
		_ = s.executor.Close()
	}()
}
