package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/agentcore/internal/chatactor"
	"github.com/haasonsaas/agentcore/internal/history"
	"github.com/haasonsaas/agentcore/internal/useractor"
)

func newChatCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(flags)
		},
	}
}

func runChat(flags *globalFlags) error {
	rt, err := loadRuntime(flags, "chat-session")
	if err != nil {
		return err
	}
	defer rt.Close()

	h, err := history.LoadOrchestratorHistory(rt.cfg.WorkingDir)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	chat := chatactor.New(rt.dir, rt.ctxName, rt.llm.URI(), rt.toolActor, rt.registry, h, chatactor.Config{
		Model: rt.cfg.Model,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		chat.Interrupt()
	}()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("agentcore chat — type /help for commands")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "" {
			continue
		}

		out, err := chat.HandleLine(context.Background(), line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}
		if out.NeedUserInput {
			fmt.Println("(interrupted — awaiting your next message)")
			continue
		}
		if out.Text != "" {
			fmt.Println(out.Text)
		}
		if out.Exit {
			if chat.History().Len() > 0 {
				confirmed, err := useractor.Confirm(context.Background(), rt.dir, rt.ctxName, rt.user.URI(), "end chat session?")
				if err != nil {
					fmt.Fprintln(os.Stderr, "warning: could not confirm exit:", err)
				} else if !confirmed {
					continue
				}
			}
			break
		}

		if err := history.SaveOrchestratorHistory(rt.cfg.WorkingDir, chat.History()); err != nil {
			fmt.Fprintln(os.Stderr, "warning: could not persist history:", err)
		}
	}
	return nil
}

// terminalInteractor implements useractor.Interactor against stdin/stdout.
// loadRuntime registers one as the session's User Actor; runChat uses it to
// confirm /exit. Any Ask/Confirm/Prompt sent to that actor is served one at
// a time, so prompts never interleave on the terminal.
type terminalInteractor struct {
	reader *bufio.Reader
}

func newTerminalInteractor() *terminalInteractor {
	return &terminalInteractor{reader: bufio.NewReader(os.Stdin)}
}

func (t *terminalInteractor) Ask(_ context.Context, question string, options []string) (string, error) {
	fmt.Printf("%s %v\n> ", question, options)
	line, err := t.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return trimNewline(line), nil
}

func (t *terminalInteractor) Confirm(_ context.Context, message string) (bool, error) {
	fmt.Printf("%s [y/N] ", message)
	line, err := t.reader.ReadString('\n')
	if err != nil {
		return false, err
	}
	line = trimNewline(line)
	return line == "y" || line == "Y" || line == "yes", nil
}

func (t *terminalInteractor) Prompt(_ context.Context, message string) (string, error) {
	fmt.Printf("%s\n> ", message)
	line, err := t.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return trimNewline(line), nil
}

func (t *terminalInteractor) Notify(_ context.Context, reason string) {
	fmt.Println("[agent yielded to user]", reason)
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
