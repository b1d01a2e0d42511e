// Package ocr implements the "ocr.*" tool family on top of gosseract,
// grounded on original_source's ocr_tool.py (text extraction from a
// screenshot or arbitrary image path).
package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/goadesign/webagent/core"
)

// Handler runs Tesseract over an image path supplied in tool_args.
type Handler struct {
	client *gosseract.Client
}

// New returns a Handler with a fresh Tesseract client.
func New() *Handler {
	return &Handler{client: gosseract.NewClient()}
}

// Handles implements tools.Handler.
func (h *Handler) Handles(toolName string) bool {
	return strings.HasPrefix(toolName, "ocr.")
}

// Execute implements tools.Handler. The only tool name served today is
// "ocr.read_text", taking tool_args["image_path"].
func (h *Handler) Execute(ctx context.Context, action core.DecisionAction) (core.WebObservation, error) {
	path, _ := action.ToolArgs["image_path"].(string)
	if path == "" {
		return core.WebObservation{LastActionFeedback: core.ActionFeedback{
			Status: core.FeedbackFailed, ErrorCode: core.ErrCodeSystemException, Message: "ocr.read_text requires image_path",
		}}, nil
	}
	if err := h.client.SetImage(path); err != nil {
		return errObservation(err), nil
	}
	text, err := h.client.Text()
	if err != nil {
		return errObservation(err), nil
	}
	return core.WebObservation{
		HTTPStatusCode:     200,
		LastActionFeedback: core.ActionFeedback{Status: core.FeedbackSuccess, Message: text},
	}, nil
}

func errObservation(err error) core.WebObservation {
	return core.WebObservation{
		HTTPStatusCode: 500,
		LastActionFeedback: core.ActionFeedback{
			Status: core.FeedbackFailed, ErrorCode: core.ErrCodeSystemException, Message: fmt.Sprintf("ocr: %v", err),
		},
	}
}

// Close releases the underlying Tesseract client.
func (h *Handler) Close() error {
	return h.client.Close()
}
