package agentactor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/haasonsaas/agentcore/internal/actor"
	"github.com/haasonsaas/agentcore/internal/llmactor"
	"github.com/haasonsaas/agentcore/internal/toolactor"
	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// scriptedCompleter returns one scripted CompletionResult per call, in order.
type scriptedCompleter struct {
	steps []llmactor.CompletionResult
	i     int
}

func (s *scriptedCompleter) Complete(_ context.Context, _ llmactor.CompletionRequest, _ llmactor.StreamCallback) (llmactor.CompletionResult, error) {
	if s.i >= len(s.steps) {
		return llmactor.CompletionResult{}, nil
	}
	r := s.steps[s.i]
	s.i++
	return r, nil
}

func setup(t *testing.T, steps []llmactor.CompletionResult) (*Runner, func()) {
	t.Helper()
	dir := actor.NewDirectory()
	llm := llmactor.New(dir, "session-1", "main", &scriptedCompleter{steps: steps})
	llm.Register()
	llm.Start()

	registry := tools.NewRegistry()
	tools.RegisterBuiltins(registry)
	toolActor := toolactor.New(registry, 0)

	runner := NewRunner(dir, "session-1", llm.URI(), toolActor, registry, Config{Model: "test-model"})
	return runner, func() { llm.Stop(); llm.Wait() }
}

func finishArgs(t *testing.T) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(map[string]string{"result": "42", "summary": "done"})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestRunAgentLoopFinishPath(t *testing.T) {
	runner, cleanup := setup(t, []llmactor.CompletionResult{
		{
			Message: models.NewAssistantMessage("", "", []models.ToolCall{
				{ID: "call_1", Name: tools.FinishTaskName, Arguments: finishArgs(t)},
			}),
			Usage: models.Usage{Tokens: 10},
		},
	})
	defer cleanup()

	state, err := runner.Run(context.Background(), models.AgentDescription{Name: "agent-1"}, "do the task", Hooks{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Output == nil || state.Output.Result != "42" {
		t.Fatalf("expected Output set from finish_task, got %+v", state.Output)
	}
	if state.TotalUsage.Tokens != 10 {
		t.Fatalf("expected usage accumulated, got %+v", state.TotalUsage)
	}
}

func TestRunAgentLoopCorrectsNoToolCalls(t *testing.T) {
	runner, cleanup := setup(t, []llmactor.CompletionResult{
		{Message: models.NewAssistantMessage("just thinking out loud", "", nil)},
		{
			Message: models.NewAssistantMessage("", "", []models.ToolCall{
				{ID: "call_1", Name: tools.FinishTaskName, Arguments: finishArgs(t)},
			}),
		},
	})
	defer cleanup()

	state, err := runner.Run(context.Background(), models.AgentDescription{Name: "agent-1"}, "do the task", Hooks{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Output == nil {
		t.Fatal("expected eventual finish after corrective nudge")
	}
}

func TestRunAgentLoopGivesUpAfterRepeatedNoToolCalls(t *testing.T) {
	var steps []llmactor.CompletionResult
	for i := 0; i < maxConsecutiveNoToolCalls+2; i++ {
		steps = append(steps, llmactor.CompletionResult{Message: models.NewAssistantMessage("rambling", "", nil)})
	}
	runner, cleanup := setup(t, steps)
	defer cleanup()

	state, err := runner.Run(context.Background(), models.AgentDescription{Name: "agent-1"}, "do the task", Hooks{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Output == nil {
		t.Fatal("expected a fallback Output after giving up")
	}
}

func TestRunAgentLoopExecutesPlainTextTool(t *testing.T) {
	dir := actor.NewDirectory()
	llm := llmactor.New(dir, "session-1", "main", &scriptedCompleter{steps: []llmactor.CompletionResult{
		{Message: models.NewAssistantMessage("", "", []models.ToolCall{
			{ID: "call_1", Name: "echo", Arguments: json.RawMessage(`{"text":"hi"}`)},
		})},
		{Message: models.NewAssistantMessage("", "", []models.ToolCall{
			{ID: "call_2", Name: tools.FinishTaskName, Arguments: finishArgs(t)},
		})},
	}})
	llm.Register()
	llm.Start()
	defer func() { llm.Stop(); llm.Wait() }()

	registry := tools.NewRegistry()
	tools.RegisterBuiltins(registry)
	registry.Register(echoTool{})
	toolActor := toolactor.New(registry, 0)
	runner := NewRunner(dir, "session-1", llm.URI(), toolActor, registry, Config{Model: "test-model"})

	state, err := runner.Run(context.Background(), models.AgentDescription{Name: "agent-1"}, "echo hi", Hooks{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Output == nil {
		t.Fatal("expected finish after the echo step")
	}
	foundEcho := false
	for _, m := range state.History {
		if m.ToolCallID == "call_1" && m.Content == "hi" {
			foundEcho = true
		}
	}
	if !foundEcho {
		t.Fatalf("expected the echo tool result recorded in history: %+v", state.History)
	}
}

type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "echoes its input" }
func (echoTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`)
}
func (echoTool) Execute(_ context.Context, args json.RawMessage) (models.ToolResult, error) {
	var p struct {
		Text string `json:"text"`
	}
	_ = json.Unmarshal(args, &p)
	return models.TextResult(p.Text), nil
}
