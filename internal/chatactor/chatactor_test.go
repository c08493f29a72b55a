package chatactor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/haasonsaas/agentcore/internal/actor"
	"github.com/haasonsaas/agentcore/internal/history"
	"github.com/haasonsaas/agentcore/internal/llmactor"
	"github.com/haasonsaas/agentcore/internal/toolactor"
	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

type scriptedCompleter struct {
	steps []llmactor.CompletionResult
	delay time.Duration
	i     int
}

func (s *scriptedCompleter) Complete(ctx context.Context, _ llmactor.CompletionRequest, _ llmactor.StreamCallback) (llmactor.CompletionResult, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return llmactor.CompletionResult{}, ctx.Err()
		}
	}
	if s.i >= len(s.steps) {
		return llmactor.CompletionResult{}, nil
	}
	r := s.steps[s.i]
	s.i++
	return r, nil
}

func newChat(t *testing.T, completer llmactor.Completer) (*Chat, func()) {
	t.Helper()
	dir := actor.NewDirectory()
	llm := llmactor.New(dir, "session-1", "main", completer)
	llm.Register()
	llm.Start()

	registry := tools.NewRegistry()
	tools.RegisterBuiltins(registry)
	toolActor := toolactor.New(registry, 0)

	chat := New(dir, "session-1", llm.URI(), toolActor, registry, history.New(), Config{Model: "test-model"})
	return chat, func() { llm.Stop(); llm.Wait() }
}

func TestChatPlainTextTurnEndsWithoutFinishTask(t *testing.T) {
	chat, cleanup := newChat(t, &scriptedCompleter{steps: []llmactor.CompletionResult{
		{Message: models.NewAssistantMessage("hello there", "", nil)},
	}})
	defer cleanup()

	out, err := chat.HandleLine(context.Background(), "hi")
	if err != nil {
		t.Fatalf("HandleLine: %v", err)
	}
	if out.Text != "hello there" || out.Exit || out.NeedUserInput {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestChatSlashHelp(t *testing.T) {
	chat, cleanup := newChat(t, &scriptedCompleter{})
	defer cleanup()

	out, err := chat.HandleLine(context.Background(), "/help")
	if err != nil {
		t.Fatalf("HandleLine: %v", err)
	}
	if out.Text == "" {
		t.Fatal("expected help text")
	}
}

func TestChatSlashExit(t *testing.T) {
	chat, cleanup := newChat(t, &scriptedCompleter{})
	defer cleanup()

	out, err := chat.HandleLine(context.Background(), "/exit")
	if err != nil {
		t.Fatalf("HandleLine: %v", err)
	}
	if !out.Exit {
		t.Fatal("expected Exit to be true")
	}
}

func TestChatSlashClear(t *testing.T) {
	chat, cleanup := newChat(t, &scriptedCompleter{steps: []llmactor.CompletionResult{
		{Message: models.NewAssistantMessage("hi", "", nil)},
	}})
	defer cleanup()

	chat.HandleLine(context.Background(), "hello")
	before := chat.History().Len()
	if before < 2 {
		t.Fatalf("expected some history before /clear, got %d", before)
	}
	chat.HandleLine(context.Background(), "/clear")
	if chat.History().Len() != 1 {
		t.Fatalf("expected only the first message to survive /clear, got %d", chat.History().Len())
	}
}

func TestChatSlashCompactShrinksHistory(t *testing.T) {
	chat, cleanup := newChat(t, &scriptedCompleter{})
	defer cleanup()

	for i := 0; i < 10; i++ {
		_ = chat.History().Append(models.NewUserMessage("message number many"))
	}
	before := chat.History().Len()
	out, err := chat.HandleLine(context.Background(), "/compact")
	if err != nil {
		t.Fatalf("HandleLine: %v", err)
	}
	if chat.History().Len() >= before {
		t.Fatalf("expected /compact to shrink history: before=%d after=%d", before, chat.History().Len())
	}
	if out.Text == "" {
		t.Fatal("expected a confirmation message")
	}
}

func TestChatInterruptMidToolBatchSetsNeedUserInput(t *testing.T) {
	registry := tools.NewRegistry()
	tools.RegisterBuiltins(registry)
	registry.Register(slowEchoTool{delay: 200 * time.Millisecond})

	dir := actor.NewDirectory()
	completer := &scriptedCompleter{steps: []llmactor.CompletionResult{
		{Message: models.NewAssistantMessage("", "", []models.ToolCall{
			{ID: "call_1", Name: "slow_echo", Arguments: json.RawMessage(`{}`)},
		})},
	}}
	llm := llmactor.New(dir, "session-1", "main", completer)
	llm.Register()
	llm.Start()
	defer func() { llm.Stop(); llm.Wait() }()

	toolActor := toolactor.New(registry, 0)
	chat := New(dir, "session-1", llm.URI(), toolActor, registry, history.New(), Config{Model: "test-model"})

	go func() {
		time.Sleep(20 * time.Millisecond)
		chat.Interrupt()
	}()

	out, err := chat.HandleLine(context.Background(), "run the slow tool")
	if err != nil {
		t.Fatalf("HandleLine: %v", err)
	}
	if !out.NeedUserInput {
		t.Fatalf("expected NeedUserInput after mid-batch interrupt, got %+v", out)
	}
}

type slowEchoTool struct{ delay time.Duration }

func (slowEchoTool) Name() string               { return "slow_echo" }
func (slowEchoTool) Description() string        { return "echoes slowly" }
func (slowEchoTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (s slowEchoTool) Execute(ctx context.Context, _ json.RawMessage) (models.ToolResult, error) {
	select {
	case <-time.After(s.delay):
		return models.TextResult("done"), nil
	case <-ctx.Done():
		return models.ToolResult{}, ctx.Err()
	}
}
