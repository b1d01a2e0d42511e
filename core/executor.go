package core

import (
	"context"
	"strings"
)

// executorLoop drives the overall lifecycle of a Session: initial plan,
// main scheduling loop, result capture, safety circuit-breakers, and final
// summary (spec.md §4.6). It is single-shot: Run drives it to completion
// exactly once.
type executorLoop struct {
	session *Session
}

func (l *executorLoop) Run(ctx context.Context) SessionState {
	s := l.session

	if s.graph.Len() == 0 {
		fragment, err := s.oracle.Generate(ctx, s.goal, nil, s.history)
		if err != nil || len(fragment) == 0 {
			s.bus.Publish(Event{Kind: EventStatus, Level: LevelError, Message: "initial plan is empty"})
			return SessionFailed
		}
		s.mu.Lock()
		loadErr := error(nil)
		for _, n := range fragment {
			n.CurrentStatus = StatusPending
			if loadErr = s.graph.AddNode(n); loadErr != nil {
				break
			}
		}
		s.mu.Unlock()
		if loadErr != nil {
			s.bus.Publish(Event{Kind: EventStatus, Level: LevelError, Message: "failed to load initial plan: " + loadErr.Error()})
			return SessionFailed
		}
	}
	l.emitSnapshot("initial")

	scheduler := NewScheduler(s.graph)
	failureHandler := NewFailureHandler(s.graph, s.oracle, &s.history)

	ticks := 0
	for {
		select {
		case <-s.stopped:
			return SessionStopped
		default:
		}

		// Every read or write that touches s.graph or a node hanging off it
		// runs under s.mu so that Session.Snapshot's RLock actually excludes
		// this loop (spec.md §5). The lock is released across confirmation
		// and tool dispatch so a long-running tool call doesn't stall
		// snapshot reads; the re-plan oracle call inside FailureHandler.Handle
		// runs under the lock (see below).
		s.mu.Lock()
		node := scheduler.NextRunnable()
		if node == nil {
			s.mu.Unlock()
			break
		}
		node.CurrentStatus = StatusRunning
		runningClone := cloneNode(node)
		s.mu.Unlock()
		s.bus.Publish(Event{Kind: EventNodeUpdate, Node: runningClone})

		s.mu.Lock()
		resolver := NewResolver(s.graph, s.shared)
		resolved, resolveErr := resolver.Resolve(node)
		if resolveErr == nil {
			node.Action = resolved
		}
		s.mu.Unlock()

		var obs WebObservation
		var dispatchErr error
		if resolveErr != nil {
			obs = WebObservation{
				LastActionFeedback: ActionFeedback{
					Status:    FeedbackFailed,
					ErrorCode: ErrCodeArgResolve,
					Message:   resolveErr.Error(),
				},
			}
		} else {
			obs, dispatchErr = s.gate.ConfirmThenExecute(ctx, resolved)
			if dispatchErr != nil {
				obs = WebObservation{LastActionFeedback: ActionFeedback{Status: FeedbackFailed, ErrorCode: ErrCodeSystemException, Message: dispatchErr.Error()}}
			}
		}

		var outcome Outcome
		if obs.LastActionFeedback.Status == FeedbackSuccess {
			s.mu.Lock()
			node.LastObservation = &obs
			node.CurrentStatus = StatusSuccess
			if obs.LastActionFeedback.Message != "" {
				node.ResolvedOutput = obs.LastActionFeedback.Message
			}
			l.updateSharedContext(node, obs)
			s.mu.Unlock()
			outcome = OutcomeContinue
		} else {
			var err error
			// Handle mutates the graph (cascade prune, splice) and, for
			// RE_EVALUATE/TRY_ALTERNATE, calls the oracle in between; the
			// whole call runs under the lock so the splice is atomic with
			// respect to Snapshot.
			s.mu.Lock()
			outcome, err = failureHandler.Handle(ctx, s.goal, node, obs)
			s.mu.Unlock()
			if err != nil {
				s.bus.Publish(Event{Kind: EventStatus, Level: LevelError, Message: "failure handler error: " + err.Error()})
				return SessionFailed
			}
		}

		s.mu.Lock()
		terminalClone := cloneNode(node)
		s.mu.Unlock()
		s.bus.Publish(Event{Kind: EventNodeUpdate, Node: terminalClone})
		l.emitSnapshot("tick")

		ticks++
		if outcome == OutcomeStop {
			break
		}
		if ticks >= s.maxTicks {
			s.bus.Publish(Event{Kind: EventStatus, Level: LevelWarning, Message: "MAX_TICKS_EXCEEDED"})
			return SessionFailed
		}
	}

	s.bus.Publish(Event{Kind: EventStatus, Level: LevelReport, Message: "execution finished"})
	return l.finalState()
}

func (l *executorLoop) finalState() SessionState {
	s := l.session
	s.mu.Lock()
	defer s.mu.Unlock()
	root := s.graph.Root()
	if root == nil {
		return SessionFailed
	}
	for _, n := range s.graph.All() {
		if n.CurrentStatus == StatusFailed {
			return SessionFailed
		}
	}
	return SessionCompleted
}

func (l *executorLoop) emitSnapshot(label string) {
	l.session.bus.Publish(Event{Kind: EventTaskUpdate, Snapshot: snapshotOf(l.session, label)})
}

func snapshotOf(s *Session, _ string) *Snapshot {
	snap := s.Snapshot()
	return &snap
}

// updateSharedContext implements spec.md §4.7: after a successful
// extract_data call (bare, or namespaced such as "browser.extract_data"),
// cache a cleaned link list under last_extracted_items; any other successful
// extract_data clears it.
func (l *executorLoop) updateSharedContext(node *ExecutionNode, obs WebObservation) {
	name := node.Action.ToolName
	if name != "extract_data" && !strings.HasSuffix(name, ".extract_data") {
		return
	}
	items, ok := parseLinkList(obs.LastActionFeedback.Message)
	if !ok {
		l.session.shared.Clear("last_extracted_items")
		return
	}
	l.session.shared.Set("last_extracted_items", items)
}

func cloneNode(n *ExecutionNode) *ExecutionNode {
	cp := *n
	cp.ChildIDs = append([]string(nil), n.ChildIDs...)
	return &cp
}
