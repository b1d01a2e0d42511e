package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// RiskClass is the outcome of classifying a pending action (spec.md §4.8).
type RiskClass int

const (
	RiskBenign RiskClass = iota
	RiskDangerous
	RiskStorage
)

// Classification carries the risk class and, for DANGEROUS/STORAGE, the
// human-readable reason rendered to the confirmer.
type Classification struct {
	Class  RiskClass
	Reason string
}

// dangerousVerbs lists tool-name / argument substrings that always classify
// an action as DANGEROUS, grounded directly on original_source's
// path_utils.py scratch-root containment check and the blocklist implied by
// file_operations.py's destructive helpers (delete/format/drop/truncate).
var dangerousVerbs = []string{"delete", "remove", "rm", "format", "drop", "truncate", "registry_write", "shutdown", "kill_process"}

// Classifier is a pure function from (tool name, tool args) to a
// Classification. NewScratchClassifier builds the policy described in
// spec.md §4.8 plus the SPEC_FULL §C.2 scratch-directory containment rule;
// callers may substitute their own via SessionOptions.Classifier.
type Classifier func(toolName string, args map[string]any) Classification

// NewScratchClassifier returns a Classifier that treats any write-shaped
// tool targeting a path outside scratchRoot as STORAGE, any tool name or
// string argument value (paths included) containing a dangerous-verb
// blocklist entry as DANGEROUS, and everything else
// as BENIGN.
func NewScratchClassifier(scratchRoot string) Classifier {
	abs, err := filepath.Abs(scratchRoot)
	if err != nil {
		abs = scratchRoot
	}
	return func(toolName string, args map[string]any) Classification {
		lname := strings.ToLower(toolName)
		for _, verb := range dangerousVerbs {
			if strings.Contains(lname, verb) {
				return Classification{Class: RiskDangerous, Reason: fmt.Sprintf("tool %q matches dangerous verb %q", toolName, verb)}
			}
		}
		for key, v := range args {
			s, ok := v.(string)
			if !ok {
				continue
			}
			ls := strings.ToLower(s)
			for _, verb := range dangerousVerbs {
				if strings.Contains(ls, verb) {
					return Classification{Class: RiskDangerous, Reason: fmt.Sprintf("argument %q of tool %q matches dangerous verb %q", key, toolName, verb)}
				}
			}
		}
		path, writes := writeTarget(toolName, args)
		if !writes {
			return Classification{Class: RiskBenign}
		}
		if outsideScratch(abs, path) {
			return Classification{Class: RiskStorage, Reason: fmt.Sprintf("tool %q writes %q outside the scratch area %q", toolName, path, abs)}
		}
		return Classification{Class: RiskBenign}
	}
}

// writeTargetKeys lists the argument keys that, when present, identify the
// filesystem path a tool is about to create or overwrite.
var writeTargetKeys = []string{"path", "file_path", "output_path", "destination", "target_path"}

func writeTarget(toolName string, args map[string]any) (string, bool) {
	lname := strings.ToLower(toolName)
	writeShaped := strings.Contains(lname, "write") || strings.Contains(lname, "save") ||
		strings.Contains(lname, "create") || strings.Contains(lname, "export") ||
		strings.Contains(lname, "download")
	if !writeShaped {
		return "", false
	}
	for _, key := range writeTargetKeys {
		if v, ok := args[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}

func outsideScratch(scratchRoot, path string) bool {
	if path == "" {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return true
	}
	rel, err := filepath.Rel(scratchRoot, abs)
	if err != nil {
		return true
	}
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ConfirmationGate classifies a pending action and blocks execution until an
// injected Confirmer approves dangerous/storage actions (spec.md §4.8). It
// is deliberately outside the failure handler: a cancellation produces an
// ordinary FAILED observation that flows through the standard failure path.
type ConfirmationGate struct {
	classify  Classifier
	confirmer Confirmer // nil means no confirmer is injected
	executor  ToolExecutor
}

// NewConfirmationGate wires a Classifier, an optional Confirmer (nil is
// valid — see spec.md §4.8's NO_CONFIRM_CALLBACK behavior), and the
// ToolExecutor actions ultimately dispatch to.
func NewConfirmationGate(classify Classifier, confirmer Confirmer, executor ToolExecutor) *ConfirmationGate {
	return &ConfirmationGate{classify: classify, confirmer: confirmer, executor: executor}
}

// ConfirmThenExecute classifies action and, if BENIGN, dispatches
// immediately. If DANGEROUS or STORAGE it asks the confirmer; a denial (or
// a DANGEROUS action with no confirmer injected) synthesizes a FAILED
// observation without ever calling the tool executor.
func (g *ConfirmationGate) ConfirmThenExecute(ctx context.Context, action DecisionAction) (WebObservation, error) {
	c := g.classify(action.ToolName, action.ToolArgs)
	switch c.Class {
	case RiskBenign:
		return g.dispatch(ctx, action)
	case RiskStorage:
		if g.confirmer == nil {
			return g.dispatch(ctx, action)
		}
		return g.gate(ctx, action, c.Reason)
	case RiskDangerous:
		if g.confirmer == nil {
			return deniedObservation(ErrCodeNoConfirmCallback, "dangerous action rejected: no confirmer configured ("+c.Reason+")"), nil
		}
		return g.gate(ctx, action, c.Reason)
	default:
		return g.dispatch(ctx, action)
	}
}

func (g *ConfirmationGate) gate(ctx context.Context, action DecisionAction, reason string) (WebObservation, error) {
	ok, err := g.confirmer.Confirm(ctx, action.ToolName, reason)
	if err != nil {
		return deniedObservation(ErrCodeSystemException, "confirmer error: "+err.Error()), nil
	}
	if !ok {
		return deniedObservation(ErrCodeUserCancelled, "user declined: "+reason), nil
	}
	return g.dispatch(ctx, action)
}

func (g *ConfirmationGate) dispatch(ctx context.Context, action DecisionAction) (obs WebObservation, err error) {
	defer func() {
		if r := recover(); r != nil {
			obs = deniedObservation(ErrCodeSystemException, fmt.Sprintf("tool executor panicked: %v", r))
			err = nil
		}
	}()
	o, execErr := g.executor.Execute(ctx, action)
	if execErr != nil {
		return deniedObservation(ErrCodeSystemException, execErr.Error()), nil
	}
	return o, nil
}

func deniedObservation(code, message string) WebObservation {
	return WebObservation{
		HTTPStatusCode: httpStatusFor(code),
		LastActionFeedback: ActionFeedback{
			Status:    FeedbackFailed,
			ErrorCode: code,
			Message:   message,
		},
	}
}

func httpStatusFor(code string) int {
	switch code {
	case ErrCodeUserCancelled, ErrCodeNoConfirmCallback:
		return 403
	case ErrCodeSystemException:
		return 500
	default:
		return 500
	}
}
