package toolactor

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

type sleepyTool struct {
	delay time.Duration
}

func (sleepyTool) Name() string        { return "sleepy" }
func (sleepyTool) Description() string { return "sleeps then echoes" }
func (sleepyTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`)
}
func (s sleepyTool) Execute(ctx context.Context, args json.RawMessage) (models.ToolResult, error) {
	var p struct {
		Text string `json:"text"`
	}
	_ = json.Unmarshal(args, &p)
	select {
	case <-time.After(s.delay):
		return models.TextResult(p.Text), nil
	case <-ctx.Done():
		return models.ToolResult{}, ctx.Err()
	}
}

func newRegistry() *tools.Registry {
	r := tools.NewRegistry()
	r.Register(sleepyTool{})
	return r
}

func callArgs(text string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"text": text})
	return b
}

func outcomeFor(outcomes []Outcome, id string) (Outcome, bool) {
	for _, o := range outcomes {
		if o.Call.ID == id {
			return o, true
		}
	}
	return Outcome{}, false
}

func TestExecuteAllReturnsOneOutcomePerCall(t *testing.T) {
	a := New(newRegistry(), 0)
	calls := []models.ToolCall{
		{ID: "c1", Name: "sleepy", Arguments: callArgs("one")},
		{ID: "c2", Name: "sleepy", Arguments: callArgs("two")},
		{ID: "c3", Name: "sleepy", Arguments: callArgs("three")},
	}
	batch := a.ExecuteAll(context.Background(), calls, Hooks{})
	if len(batch.Outcomes) != len(calls) {
		t.Fatalf("want %d outcomes, got %d", len(calls), len(batch.Outcomes))
	}
	if batch.Cancelled {
		t.Fatal("did not expect Cancelled")
	}
	one, ok := outcomeFor(batch.Outcomes, "c1")
	if !ok || one.Err != nil || one.Result.Text != "one" {
		t.Fatalf("unexpected outcome for c1: %+v", one)
	}
	three, ok := outcomeFor(batch.Outcomes, "c3")
	if !ok || three.Err != nil || three.Result.Text != "three" {
		t.Fatalf("unexpected outcome for c3: %+v", three)
	}
}

func TestExecuteAllReturnsOutcomesInCompletionOrder(t *testing.T) {
	// Two distinct tool names with different delays, fanned out in one
	// batch, so completion order is observably different from submission
	// order (a single tool can't have a per-call delay).
	r := tools.NewRegistry()
	r.Register(namedSleepyTool{name: "slow_tool", delay: 30 * time.Millisecond})
	r.Register(namedSleepyTool{name: "fast_tool", delay: 0})
	a := New(r, 0)
	calls := []models.ToolCall{
		{ID: "slow", Name: "slow_tool", Arguments: callArgs("slow")},
		{ID: "fast", Name: "fast_tool", Arguments: callArgs("fast")},
	}

	var mu sync.Mutex
	var completedIDs []string
	batch := a.ExecuteAll(context.Background(), calls, Hooks{
		OnToolComplete: func(call models.ToolCall, _ models.ToolResult, _ error) {
			mu.Lock()
			completedIDs = append(completedIDs, call.ID)
			mu.Unlock()
		},
	})
	if len(batch.Outcomes) != 2 {
		t.Fatalf("want 2 outcomes, got %d", len(batch.Outcomes))
	}
	if batch.Outcomes[0].Call.ID != "fast" || batch.Outcomes[1].Call.ID != "slow" {
		t.Fatalf("want completion order [fast, slow], got %v", []string{batch.Outcomes[0].Call.ID, batch.Outcomes[1].Call.ID})
	}
	if len(completedIDs) != 2 || completedIDs[0] != "fast" || completedIDs[1] != "slow" {
		t.Fatalf("want OnToolComplete in completion order, got %v", completedIDs)
	}
}

type namedSleepyTool struct {
	name  string
	delay time.Duration
}

func (n namedSleepyTool) Name() string      { return n.name }
func (namedSleepyTool) Description() string { return "sleeps then echoes" }
func (namedSleepyTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`)
}
func (n namedSleepyTool) Execute(ctx context.Context, args json.RawMessage) (models.ToolResult, error) {
	var p struct {
		Text string `json:"text"`
	}
	_ = json.Unmarshal(args, &p)
	select {
	case <-time.After(n.delay):
		return models.TextResult(p.Text), nil
	case <-ctx.Done():
		return models.ToolResult{}, ctx.Err()
	}
}

func TestExecuteAllOuterCancelMarksBatchCancelledWithSyntheticResults(t *testing.T) {
	r := tools.NewRegistry()
	r.Register(sleepyTool{delay: time.Second})
	a := New(r, 0)

	ctx, cancel := context.WithCancel(context.Background())
	calls := []models.ToolCall{
		{ID: "c1", Name: "sleepy", Arguments: callArgs("one")},
		{ID: "c2", Name: "sleepy", Arguments: callArgs("two")},
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	batch := a.ExecuteAll(ctx, calls, Hooks{})
	if !batch.Cancelled {
		t.Fatal("expected Batch.Cancelled")
	}
	for _, o := range batch.Outcomes {
		if o.Err != nil {
			t.Fatalf("expected a synthetic result, not an error, for %s: %v", o.Call.ID, o.Err)
		}
		if o.Result.Kind != models.ToolResultText || o.Result.Text != cancelledText {
			t.Fatalf("expected cancelledText result for %s, got %+v", o.Call.ID, o.Result)
		}
	}
}

func TestExecuteAllUnknownTool(t *testing.T) {
	a := New(newRegistry(), 0)
	batch := a.ExecuteAll(context.Background(), []models.ToolCall{
		{ID: "c1", Name: "missing", Arguments: json.RawMessage(`{}`)},
	}, Hooks{})
	if batch.Outcomes[0].Err == nil {
		t.Fatal("expected unknown-tool error")
	}
	if _, ok := batch.Outcomes[0].Err.(*tools.ErrUnknownTool); !ok {
		t.Fatalf("want *tools.ErrUnknownTool, got %T", batch.Outcomes[0].Err)
	}
}

func TestExecuteAllBeforeExecutionSubstitutesResultWithoutRunningTool(t *testing.T) {
	a := New(newRegistry(), 0)
	batch := a.ExecuteAll(context.Background(), []models.ToolCall{
		{ID: "c1", Name: "sleepy", Arguments: callArgs("one")},
	}, Hooks{
		BeforeExecution: func(call models.ToolCall) (models.ToolResult, bool) {
			return models.TextResult("denied"), true
		},
	})
	if batch.Outcomes[0].Err != nil {
		t.Fatalf("unexpected error: %v", batch.Outcomes[0].Err)
	}
	if batch.Outcomes[0].Result.Text != "denied" {
		t.Fatalf("want substituted result, got %+v", batch.Outcomes[0].Result)
	}
}

func TestExecuteAllBeforeExecutionPassThroughRunsTool(t *testing.T) {
	a := New(newRegistry(), 0)
	batch := a.ExecuteAll(context.Background(), []models.ToolCall{
		{ID: "c1", Name: "sleepy", Arguments: callArgs("one")},
	}, Hooks{
		BeforeExecution: func(call models.ToolCall) (models.ToolResult, bool) {
			return models.ToolResult{}, false
		},
	})
	if batch.Outcomes[0].Err != nil || batch.Outcomes[0].Result.Text != "one" {
		t.Fatalf("expected tool to run normally, got %+v err=%v", batch.Outcomes[0].Result, batch.Outcomes[0].Err)
	}
}

func TestOutcomesToMessages(t *testing.T) {
	outcomes := []Outcome{
		{Call: models.ToolCall{ID: "c1", Name: "sleepy"}, Result: models.TextResult("hi")},
		{Call: models.ToolCall{ID: "c2", Name: "finish_task"}, Result: models.FinishResult("r", "s")},
		{Call: models.ToolCall{ID: "c3", Name: "compact_conversation"}, Result: models.CompactResult("summary")},
	}
	msgs := OutcomesToMessages(outcomes)
	if len(msgs) != 3 || msgs[0].ToolCallID != "c1" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	if msgs[1].Content != "Agent output set." {
		t.Fatalf("want literal finish confirmation text, got %q", msgs[1].Content)
	}
	if msgs[2].Content != "Conversation compacted and history reset." {
		t.Fatalf("want literal compact confirmation text, got %q", msgs[2].Content)
	}
}

func TestCancelSingleCallDoesNotAffectSiblings(t *testing.T) {
	r := tools.NewRegistry()
	r.Register(sleepyTool{delay: 200 * time.Millisecond})
	a := New(r, 0)

	calls := []models.ToolCall{
		{ID: "victim", Name: "sleepy", Arguments: callArgs("v")},
		{ID: "survivor", Name: "sleepy", Arguments: callArgs("s")},
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		a.Cancel("victim")
	}()

	batch := a.ExecuteAll(context.Background(), calls, Hooks{})
	if batch.Cancelled {
		t.Fatal("did not expect the outer batch to be marked Cancelled from a single targeted Cancel")
	}
	victim, _ := outcomeFor(batch.Outcomes, "victim")
	survivor, _ := outcomeFor(batch.Outcomes, "survivor")
	if victim.Err != nil || victim.Result.Text != cancelledText {
		t.Fatalf("expected victim call to settle as cancelledText, got %+v err=%v", victim.Result, victim.Err)
	}
	if survivor.Err != nil || survivor.Result.Text != "s" {
		t.Fatalf("expected survivor call to complete normally, got %+v err=%v", survivor.Result, survivor.Err)
	}
}
