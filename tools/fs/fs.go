// Package fs implements the "fs.*" tool family (read/write/delete files
// under the scratch root), grounded on original_source's file_operations.py
// and path_utils.py's scratch-root containment check. This handler never
// opts itself out of the confirmation gate: core.NewScratchClassifier
// classifies any delete-shaped call as DANGEROUS, and a write as STORAGE
// only when its path resolves outside the classifier's own scratch root,
// before Execute is ever reached.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goadesign/webagent/core"
)

// Handler performs plain filesystem operations rooted at scratchDir.
type Handler struct {
	scratchDir string
}

// New returns a Handler confined to scratchDir.
func New(scratchDir string) *Handler {
	return &Handler{scratchDir: scratchDir}
}

// Handles implements tools.Handler.
func (h *Handler) Handles(toolName string) bool {
	return strings.HasPrefix(toolName, "fs.")
}

// Execute implements tools.Handler: fs.read_file, fs.write_file,
// fs.delete_file, each taking tool_args["path"] relative to the scratch
// root (and ["content"] for write_file).
func (h *Handler) Execute(ctx context.Context, action core.DecisionAction) (core.WebObservation, error) {
	rel, _ := action.ToolArgs["path"].(string)
	if rel == "" {
		return fail("fs tool requires path"), nil
	}
	full, err := h.resolve(rel)
	if err != nil {
		return fail(err.Error()), nil
	}

	switch strings.TrimPrefix(action.ToolName, "fs.") {
	case "read_file":
		data, err := os.ReadFile(full)
		if err != nil {
			return fail(err.Error()), nil
		}
		return ok(string(data)), nil
	case "write_file":
		content, _ := action.ToolArgs["content"].(string)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return fail(err.Error()), nil
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			return fail(err.Error()), nil
		}
		return ok(full), nil
	case "delete_file":
		if err := os.Remove(full); err != nil {
			return fail(err.Error()), nil
		}
		return ok(full), nil
	default:
		return fail(fmt.Sprintf("unknown fs tool %q", action.ToolName)), nil
	}
}

func (h *Handler) resolve(rel string) (string, error) {
	root, err := filepath.Abs(h.scratchDir)
	if err != nil {
		return "", err
	}
	full := filepath.Join(root, rel)
	relCheck, err := filepath.Rel(root, full)
	if err != nil || relCheck == ".." || strings.HasPrefix(relCheck, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes scratch root", rel)
	}
	return full, nil
}

func ok(message string) core.WebObservation {
	return core.WebObservation{HTTPStatusCode: 200, LastActionFeedback: core.ActionFeedback{Status: core.FeedbackSuccess, Message: message}}
}

func fail(message string) core.WebObservation {
	return core.WebObservation{HTTPStatusCode: 500, LastActionFeedback: core.ActionFeedback{Status: core.FeedbackFailed, ErrorCode: core.ErrCodeSystemException, Message: message}}
}

// Close is a no-op: no persistent resources are held between calls.
func (h *Handler) Close() error {
	return nil
}
