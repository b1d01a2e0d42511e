package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goadesign/webagent/confirm/autoapprove"
	"github.com/goadesign/webagent/confirm/cliconfirm"
	"github.com/goadesign/webagent/core"
	"github.com/goadesign/webagent/oracle/openai"
	"github.com/goadesign/webagent/telemetry"
	"github.com/goadesign/webagent/tools"
	"github.com/goadesign/webagent/tools/browser"
	"github.com/goadesign/webagent/tools/fs"
	"github.com/goadesign/webagent/tools/ocr"
	"github.com/goadesign/webagent/tools/office"
)

// shared bundles the collaborators that are safe to reuse across every
// task a binary instance runs: the logger, metrics registry, and the
// planner oracle's HTTP client. Stateful, per-task collaborators (the
// browser handler above all) are built fresh per task by newTaskExecutor.
type shared struct {
	logger  telemetry.Logger
	metrics telemetry.Metrics
	oracle  core.PlannerOracle
}

// buildShared is the single bootstrap point SPEC_FULL §C.5 calls for:
// every long-lived collaborator is constructed exactly once per binary
// invocation, here, never as a package-level singleton.
func buildShared(cfg *Config) (*shared, error) {
	if err := os.MkdirAll(cfg.ScratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("preparing scratch dir: %w", err)
	}
	logger, err := telemetry.NewZap()
	if err != nil {
		return nil, fmt.Errorf("constructing logger: %w", err)
	}
	metrics := telemetry.NewPrometheus(prometheus.DefaultRegisterer)

	if cfg.OracleAPIKey == "" {
		return nil, fmt.Errorf("missing planner oracle credentials: set --oracle-api-key or AGENTCTL_ORACLE_API_KEY")
	}
	oracleClient := openai.New(cfg.OracleAPIKey, cfg.OracleBaseURL, cfg.OracleModel, logger)

	return &shared{logger: logger, metrics: metrics, oracle: oracleClient}, nil
}

// newTaskExecutor constructs a fresh tool Dispatcher (and, above all, a
// fresh browser instance) for one task. Each running task owns its own
// browser since the core forbids concurrent calls into one ToolExecutor
// (spec.md §5).
func newTaskExecutor(cfg *Config, sh *shared, headless bool) (*tools.Dispatcher, error) {
	browserHandler, err := browser.New(headless)
	if err != nil {
		return nil, fmt.Errorf("launching browser collaborator: %w", err)
	}
	ocrHandler := ocr.New()
	officeHandler := office.New(cfg.ScratchDir, cfg.DocTemplate)
	fsHandler := fs.New(cfg.ScratchDir)
	return tools.New(sh.logger, browserHandler, ocrHandler, officeHandler, fsHandler), nil
}

// buildConfirmer returns a terminal confirmer for interactive runs, or an
// auto-approving one for headless/unattended runs.
func buildConfirmer(headless bool) core.Confirmer {
	if headless {
		return autoapprove.New()
	}
	return cliconfirm.New(os.Stdin, os.Stdout)
}

// buildLoggerOnly constructs just the logger, for subcommands (plan) that
// may legitimately run without planner oracle credentials.
func buildLoggerOnly() (telemetry.Logger, error) {
	logger, err := telemetry.NewZap()
	if err != nil {
		return nil, fmt.Errorf("constructing logger: %w", err)
	}
	return logger, nil
}

// newTaskExecutorWithLogger builds the same tool Dispatcher as
// newTaskExecutor, for callers that have not built a full shared bundle.
func newTaskExecutorWithLogger(cfg *Config, logger telemetry.Logger, headless bool) (*tools.Dispatcher, error) {
	return newTaskExecutor(cfg, &shared{logger: logger}, headless)
}

// metricsSubscriber turns a session's own event stream into Prometheus
// observations, per the design notes' "callback into event loop -> message
// passing" re-architecture (spec.md §9): the executor loop never calls into
// telemetry directly, it only publishes events, and this subscriber is the
// one place that translates node_update terminal transitions into counters.
func metricsSubscriber(m telemetry.Metrics) core.SubscriberFunc {
	return func(ctx context.Context, e core.Event) error {
		if e.Kind != core.EventNodeUpdate || e.Node == nil {
			return nil
		}
		switch e.Node.CurrentStatus {
		case core.StatusSuccess, core.StatusFailed, core.StatusPruned, core.StatusSkipped:
			m.NodeStatus(string(e.Node.CurrentStatus))
			m.TickProcessed()
		}
		return nil
	}
}

func allowedToolSet(names []string) map[string]struct{} {
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}
