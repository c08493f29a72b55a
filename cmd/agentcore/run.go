package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/agentcore/internal/agentactor"
	"github.com/haasonsaas/agentcore/pkg/models"
)

func newRunCmd(flags *globalFlags) *cobra.Command {
	var agentName string

	cmd := &cobra.Command{
		Use:   "run [task description]",
		Short: "Run a one-shot agent task to completion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent(flags, agentName, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringVar(&agentName, "name", "agent", "name reported in the agent's start message")
	return cmd
}

func runAgent(flags *globalFlags, agentName, task string) error {
	rt, err := loadRuntime(flags, "agent-run")
	if err != nil {
		return err
	}
	defer rt.Close()

	runner := agentactor.NewRunner(rt.dir, rt.ctxName, rt.llm.URI(), rt.toolActor, rt.registry, agentactor.Config{
		Model:                    rt.cfg.Model,
		CompactionTokenThreshold: rt.cfg.CompactionTokenThreshold,
		ContextWindowTokens:      rt.cfg.ContextWindowTokens,
	})

	desc := models.AgentDescription{
		Name:  agentName,
		Model: rt.cfg.Model,
	}

	state, err := runner.Run(context.Background(), desc, task, agentactor.Hooks{
		OnAssistantMessage: func(m models.Message) {
			if m.Content != "" {
				fmt.Println(m.Content)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("run agent: %w", err)
	}
	if state.Output != nil {
		fmt.Println("---")
		fmt.Println(state.Output.Result)
	}
	return nil
}
