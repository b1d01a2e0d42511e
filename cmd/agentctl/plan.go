package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goadesign/webagent/core"
	"github.com/goadesign/webagent/core/ids"
	"github.com/goadesign/webagent/core/planformat"
)

func newPlanCmd(cfg *Config) *cobra.Command {
	var planPath string
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Runs a pre-loaded plan file (spec.md §6.6) without requiring planner oracle credentials.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cfg, planPath)
		},
	}
	cmd.Flags().StringVar(&planPath, "plan-file", "", "path to a persisted plan JSON document")
	cmd.MarkFlagRequired("plan-file")
	return cmd
}

func runPlan(cfg *Config, planPath string) error {
	raw, err := os.ReadFile(planPath)
	if err != nil {
		return fmt.Errorf("reading plan file: %w", err)
	}
	nodes, err := planformat.New().LoadPlan(raw)
	if err != nil {
		return fmt.Errorf("invalid plan file: %w", err)
	}

	// The plan subcommand is exactly the case spec.md §6.5's exit-code rule
	// carves out: a pre-loaded plan needs no planner oracle credentials, so
	// we build collaborators without requiring --oracle-api-key.
	logger, err := buildLoggerOnly()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.ScratchDir, 0o755); err != nil {
		return fmt.Errorf("preparing scratch dir: %w", err)
	}
	executor, err := newTaskExecutorWithLogger(cfg, logger, cfg.Headless)
	if err != nil {
		return err
	}

	goal := core.TaskGoal{
		TaskUUID:          ids.NewTaskUUID(),
		TargetDescription: "(pre-loaded plan: " + planPath + ")",
		AllowedTools:      allowedToolSet(cfg.AllowedTools),
	}
	session := core.NewSession(core.SessionOptions{
		Goal:        goal,
		Executor:    executor,
		Confirmer:   buildConfirmer(cfg.Headless),
		MaxTicks:    cfg.MaxTicks,
		InitialPlan: nodes,
	})

	sub := session.Subscribe(core.SubscriberFunc(func(ctx context.Context, e core.Event) error {
		if e.Kind == core.EventStatus {
			fmt.Printf("[%s] %s\n", e.Level, e.Message)
		}
		return nil
	}))
	defer sub.Close()

	session.Run(context.Background())
	return nil
}
