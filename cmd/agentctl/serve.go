package main

import (
	"context"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/goadesign/webagent/api"
	"github.com/goadesign/webagent/api/ws"
	"github.com/goadesign/webagent/core"
)

func newServeCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP/WebSocket API surface (spec.md §6.5).",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg)
		},
	}
}

func runServe(cfg *Config) error {
	sh, err := buildShared(cfg)
	if err != nil {
		return err
	}

	factory := func(goal core.TaskGoal, headless bool) (*core.Session, api.ScreenshotSource) {
		goal.AllowedTools = allowedToolSet(cfg.AllowedTools)
		executor, err := newTaskExecutor(cfg, sh, headless)
		if err != nil {
			sh.logger.Error(context.Background(), "failed to build task executor", "err", err)
			session := core.NewSession(core.SessionOptions{Goal: goal, Oracle: sh.oracle})
			return session, nil
		}
		session := core.NewSession(core.SessionOptions{
			Goal:      goal,
			Oracle:    sh.oracle,
			Executor:  executor,
			Confirmer: buildConfirmer(headless),
			MaxTicks:  cfg.MaxTicks,
		})
		session.Subscribe(metricsSubscriber(sh.metrics))
		subs, depth := session.BusStats()
		sh.metrics.EventBusQueueDepth(subs, depth)
		return session, executor
	}

	server := api.New(factory, sh.logger)
	wsHandler := ws.New(server.Session, sh.logger)

	mux := http.NewServeMux()
	server.Routes(mux)
	mux.Handle("/ws", wsHandler)
	mux.Handle("/metrics", promhttp.Handler())

	log.Printf("agentctl serve listening on %s", cfg.BindAddr)
	return http.ListenAndServe(cfg.BindAddr, mux)
}
