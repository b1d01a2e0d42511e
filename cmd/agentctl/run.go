package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goadesign/webagent/core"
	"github.com/goadesign/webagent/core/ids"
	"github.com/goadesign/webagent/viz/graphviz"
)

func newRunCmd(cfg *Config) *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Runs a single task to completion in this process, printing its events and the final node/edge count.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cfg, description)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "natural-language task goal")
	cmd.MarkFlagRequired("description")
	return cmd
}

func runOnce(cfg *Config, description string) error {
	sh, err := buildShared(cfg)
	if err != nil {
		return err
	}
	executor, err := newTaskExecutor(cfg, sh, cfg.Headless)
	if err != nil {
		return err
	}

	goal := core.TaskGoal{
		TaskUUID:          ids.NewTaskUUID(),
		TargetDescription: description,
		AllowedTools:      allowedToolSet(cfg.AllowedTools),
	}
	session := core.NewSession(core.SessionOptions{
		Goal:      goal,
		Oracle:    sh.oracle,
		Executor:  executor,
		Confirmer: buildConfirmer(cfg.Headless),
		MaxTicks:  cfg.MaxTicks,
	})

	session.Subscribe(metricsSubscriber(sh.metrics))
	subs, depth := session.BusStats()
	sh.metrics.EventBusQueueDepth(subs, depth)

	sub := session.Subscribe(core.SubscriberFunc(func(ctx context.Context, e core.Event) error {
		switch e.Kind {
		case core.EventStatus:
			fmt.Printf("[%s] %s\n", e.Level, e.Message)
		case core.EventNodeUpdate:
			fmt.Printf("node %s -> %s (%s)\n", e.Node.NodeID, e.Node.CurrentStatus, e.Node.Action.ToolName)
		}
		return nil
	}))
	defer sub.Close()

	session.Run(context.Background())

	snap := graphviz.Render(session.Graph())
	fmt.Printf("finished with %d nodes, %d edges\n", len(snap.Nodes), len(snap.Edges))
	return nil
}
