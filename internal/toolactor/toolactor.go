// Package toolactor implements the Tool-Call Actor and Tool-Capability Actor
// (spec.md §4.5): argument decode/validate, per-call execution with
// cancellation, and parallel fan-out with completion-ordered results.
package toolactor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// cancelledText is the synthetic Text result recorded for a call that never
// ran to completion because its context was cancelled, either via the outer
// ctx passed to ExecuteAll or a targeted Cancel(call.ID).
const cancelledText = "Tool execution was cancelled."

// OnToolStart is invoked once a call has been decoded, validated, and passed
// before_tool_execution, just before it begins executing (spec.md §4.5
// "on_tool_start emit").
type OnToolStart func(call models.ToolCall)

// BeforeExecution lets a caller short-circuit a call with a substitute
// ToolResult — a denied confirmation, a dry-run stub, a synthetic finish —
// instead of letting it reach the tool (spec.md §4.5 step 1.d, §7). Returning
// ok=true uses result without invoking the tool at all; ok=false executes
// call normally.
type BeforeExecution func(call models.ToolCall) (result models.ToolResult, ok bool)

// OnToolComplete is invoked in the order calls actually finish, matching the
// order Outcomes are returned in (spec.md §4.5 "first-completed-first-
// processed delivery").
type OnToolComplete func(call models.ToolCall, result models.ToolResult, err error)

// Hooks bundles the optional callbacks ExecuteAll drives.
type Hooks struct {
	OnToolStart     OnToolStart
	BeforeExecution BeforeExecution
	OnToolComplete  OnToolComplete
}

// Outcome is one call's settled result, keyed back to its ToolCall so the
// Agent Actor can build a Tool message per spec.md §3 invariant 1.
type Outcome struct {
	Call   models.ToolCall
	Result models.ToolResult
	Err    error
}

// Batch is ExecuteAll's result: Outcomes in the order calls actually
// completed, and whether the batch was cut short by context cancellation
// (spec.md §4.5 step 3, §5).
type Batch struct {
	Outcomes  []Outcome
	Cancelled bool
}

// ToolCapabilityActor executes tool calls against a Registry, with
// per-call cancellation and bounded concurrency.
type ToolCapabilityActor struct {
	registry    *tools.Registry
	concurrency int

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// New constructs a ToolCapabilityActor backed by registry. concurrency
// bounds how many calls of one ExecuteAll batch run simultaneously; <= 0
// means unbounded (one goroutine per call).
func New(registry *tools.Registry, concurrency int) *ToolCapabilityActor {
	return &ToolCapabilityActor{
		registry:    registry,
		concurrency: concurrency,
		cancels:     make(map[string]context.CancelFunc),
	}
}

// Cancel cancels the in-flight call identified by toolCallID, if any. A call
// that has already completed or was never started is a no-op.
func (a *ToolCapabilityActor) Cancel(toolCallID string) {
	a.mu.Lock()
	cancel, ok := a.cancels[toolCallID]
	a.mu.Unlock()
	if ok {
		cancel()
	}
}

// ExecuteAll runs every call in calls concurrently (bounded by
// a.concurrency) and cancels all of them if outer ctx is cancelled. Outcomes
// are returned in completion order, not calls' submission order (spec.md
// §4.5 step 2, §4.6 step b, §5: "results are appended to history in the
// order the Tool-Call Actor returns them"). A call aborted by cancellation
// — whether outer ctx or a targeted Cancel(call.ID) — settles as a Text
// result of cancelledText rather than an error, and Batch.Cancelled reports
// whether the outer ctx itself was the cause.
func (a *ToolCapabilityActor) ExecuteAll(ctx context.Context, calls []models.ToolCall, hooks Hooks) Batch {
	var (
		mu       sync.Mutex
		outcomes = make([]Outcome, 0, len(calls))
	)
	record := func(o Outcome) {
		mu.Lock()
		outcomes = append(outcomes, o)
		mu.Unlock()
		if hooks.OnToolComplete != nil {
			hooks.OnToolComplete(o.Call, o.Result, o.Err)
		}
	}

	var sem chan struct{}
	if a.concurrency > 0 {
		sem = make(chan struct{}, a.concurrency)
	}

	var wg sync.WaitGroup
	for _, call := range calls {
		wg.Add(1)
		go func(call models.ToolCall) {
			defer wg.Done()
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					record(Outcome{Call: call, Result: models.TextResult(cancelledText)})
					return
				}
			}
			result, err := a.executeOne(ctx, call, hooks)
			if err != nil && errors.Is(err, context.Canceled) {
				result, err = models.TextResult(cancelledText), nil
			}
			record(Outcome{Call: call, Result: result, Err: err})
		}(call)
	}
	wg.Wait()

	return Batch{Outcomes: outcomes, Cancelled: ctx.Err() != nil}
}

// executeOne decodes/validates one call, runs before_tool_execution
// substitution, executes it under a per-call cancellable context registered
// so Cancel(call.ID) can abort it independently of its siblings, and
// truncates Text results to MaxResultBytes.
func (a *ToolCapabilityActor) executeOne(ctx context.Context, call models.ToolCall, hooks Hooks) (models.ToolResult, error) {
	tool, ok := a.registry.Get(call.Name)
	if !ok {
		return models.ToolResult{}, &tools.ErrUnknownTool{Name: call.Name}
	}

	if err := tools.Validate(tool.Parameters(), normalizeArgs(call.Arguments)); err != nil {
		return models.ToolResult{}, fmt.Errorf("tool %q: %w", call.Name, err)
	}

	if hooks.BeforeExecution != nil {
		if result, ok := hooks.BeforeExecution(call); ok {
			if result.Kind == models.ToolResultText {
				result.Text = Truncate(result.Text)
			}
			return result, nil
		}
	}

	if hooks.OnToolStart != nil {
		hooks.OnToolStart(call)
	}

	callCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.cancels[call.ID] = cancel
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		delete(a.cancels, call.ID)
		a.mu.Unlock()
		cancel()
	}()

	result, err := tool.Execute(callCtx, normalizeArgs(call.Arguments))
	if err != nil {
		return models.ToolResult{}, err
	}
	if result.Kind == models.ToolResultText {
		result.Text = Truncate(result.Text)
	}
	return result, nil
}

// normalizeArgs ensures a tool always receives a JSON object, even when the
// model emitted an empty arguments string for a zero-parameter call.
func normalizeArgs(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("{}")
	}
	return raw
}

// OutcomesToMessages converts ExecuteAll's outcomes into Tool messages ready
// for History.Append, in the same order outcomes is given in. Finish and
// Compact results carry the fixed confirmation text spec.md §4.6 scenarios 1
// and 4 require, independent of whatever the tool's Summary/CompactSummary
// payload says.
func OutcomesToMessages(outcomes []Outcome) []models.Message {
	msgs := make([]models.Message, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			msgs = append(msgs, models.NewToolMessage(o.Call.ID, o.Call.Name, "error: "+o.Err.Error()))
			continue
		}
		switch o.Result.Kind {
		case models.ToolResultText:
			msgs = append(msgs, models.NewToolMessage(o.Call.ID, o.Call.Name, o.Result.Text))
		case models.ToolResultFinish:
			msgs = append(msgs, models.NewToolMessage(o.Call.ID, o.Call.Name, "Agent output set."))
		case models.ToolResultCompact:
			msgs = append(msgs, models.NewToolMessage(o.Call.ID, o.Call.Name, "Conversation compacted and history reset."))
		}
	}
	return msgs
}
