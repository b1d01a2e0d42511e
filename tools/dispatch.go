// Package tools composes the concrete backends (browser, OCR, office
// document writers, filesystem) into a single core.ToolExecutor, grounded on
// the teacher's tool-registry dispatch pattern
// (runtime/agent/toolregistry) generalized from an agent-tool lookup table
// to a flat tool-name prefix dispatch, since this repository has no
// multi-tenant tool registry to serve.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/goadesign/webagent/core"
	"github.com/goadesign/webagent/telemetry"
)

// Handler executes one family of tool names (e.g. every "browser.*" tool).
type Handler interface {
	// Handles reports whether this handler owns toolName.
	Handles(toolName string) bool
	Execute(ctx context.Context, action core.DecisionAction) (core.WebObservation, error)
	Close() error
}

// Dispatcher implements core.ToolExecutor by routing each action to the
// first registered Handler that claims its tool name.
type Dispatcher struct {
	handlers []Handler
	logger   telemetry.Logger
}

// New returns a Dispatcher trying handlers in order.
func New(logger telemetry.Logger, handlers ...Handler) *Dispatcher {
	if logger == nil {
		logger = telemetry.Noop{}
	}
	return &Dispatcher{handlers: handlers, logger: logger}
}

// Execute implements core.ToolExecutor.
func (d *Dispatcher) Execute(ctx context.Context, action core.DecisionAction) (core.WebObservation, error) {
	for _, h := range d.handlers {
		if h.Handles(action.ToolName) {
			return h.Execute(ctx, action)
		}
	}
	return core.WebObservation{}, fmt.Errorf("no tool handler registered for %q", action.ToolName)
}

// Close shuts down every registered handler, returning the first error
// encountered after attempting all of them.
func (d *Dispatcher) Close() error {
	var first error
	for _, h := range d.handlers {
		if err := h.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Screenshotter is implemented by handlers that can capture a visual
// snapshot of their current state (only tools/browser today).
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// Screenshot returns the first registered handler's screenshot, or an error
// if none of them implement Screenshotter.
func (d *Dispatcher) Screenshot(ctx context.Context) ([]byte, error) {
	for _, h := range d.handlers {
		if s, ok := h.(Screenshotter); ok {
			return s.Screenshot(ctx)
		}
	}
	return nil, fmt.Errorf("no registered tool handler supports screenshots")
}

// hasPrefix reports whether toolName starts with a tool-family prefix such
// as "browser.". The handler packages implement Handles with their own
// strings.HasPrefix call; no allow-list is consulted.
func hasPrefix(toolName, prefix string) bool {
	return strings.HasPrefix(toolName, prefix)
}
