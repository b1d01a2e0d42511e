// Command agentctl is the reference binary wiring the core orchestrator to
// its collaborators, grounded on the teacher's cmd/demo and
// example/cmd conventions (a root cobra.Command plus flag-populated config
// struct) and on SPEC_FULL §C.5's explicit bootstrap requirement: every
// collaborator is constructed once here and injected into the session
// factory, with no process-wide singletons.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &Config{}
	root := &cobra.Command{
		Use:   "agentctl",
		Short: "Runs the browser automation agent orchestrator.",
	}
	root.PersistentFlags().StringVar(&cfg.OracleAPIKey, "oracle-api-key", os.Getenv("AGENTCTL_ORACLE_API_KEY"), "API key for the planner oracle's LLM endpoint")
	root.PersistentFlags().StringVar(&cfg.OracleBaseURL, "oracle-base-url", os.Getenv("AGENTCTL_ORACLE_BASE_URL"), "override base URL for the planner oracle's LLM endpoint")
	root.PersistentFlags().StringVar(&cfg.OracleModel, "oracle-model", "gpt-4o-mini", "chat completion model used by the planner oracle")
	root.PersistentFlags().BoolVar(&cfg.Headless, "headless", true, "run the browser collaborator headless")
	root.PersistentFlags().StringVar(&cfg.ScratchDir, "scratch-dir", "./scratch", "directory fs/office tool writes are confined to")
	root.PersistentFlags().StringVar(&cfg.DocTemplate, "doc-template", "", "path to a .docx template containing a {{ROWS}} placeholder")
	root.PersistentFlags().StringVar(&cfg.BindAddr, "bind", ":8080", "HTTP/WebSocket bind address for the serve subcommand")
	root.PersistentFlags().IntVar(&cfg.MaxTicks, "max-ticks", 0, "override the scheduler's MAX_TICKS safety cap (0 uses the default)")
	root.PersistentFlags().StringSliceVar(&cfg.AllowedTools, "allowed-tool", nil, "restrict the task goal's allowed tool list (repeatable; empty allows all)")

	root.AddCommand(newServeCmd(cfg))
	root.AddCommand(newRunCmd(cfg))
	root.AddCommand(newPlanCmd(cfg))
	return root
}

// Config holds every flag-derived setting (SPEC_FULL §A.2).
type Config struct {
	OracleAPIKey  string
	OracleBaseURL string
	OracleModel   string
	Headless      bool
	ScratchDir    string
	DocTemplate   string
	BindAddr      string
	MaxTicks      int
	AllowedTools  []string
}
