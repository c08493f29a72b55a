// Package agentactor implements the Agent Actor (spec.md §4.6): the
// run_agent_loop state machine that drives an LLM Actor and a
// Tool-Capability Actor to completion, classifying each tool result as
// Finish, Compact, or plain Text.
package agentactor

import (
	"context"
	"fmt"
	"strings"

	"github.com/haasonsaas/agentcore/internal/actor"
	"github.com/haasonsaas/agentcore/internal/history"
	"github.com/haasonsaas/agentcore/internal/llmactor"
	"github.com/haasonsaas/agentcore/internal/toolactor"
	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// startMessageTemplate builds the turn log's mandatory first message: a
// User message carrying the agent's brief (spec.md §3 "the first message of
// a turn log is always a User 'start' message whose text is the agent
// brief"), built and emitted per spec.md §4.6 step 2.
const startMessageTemplate = `You are %s, running model %s.

%s

Call %s exactly once when the task is complete, passing your final result.
Call %s if you judge the conversation has grown too large to continue productively.
%s`

// noToolCallCorrection is appended as a User message whenever the model
// responds with no tool calls at all: run_agent_loop never terminates on
// plain text alone, only on an explicit finish_task call.
const noToolCallCorrection = "You did not call any tool. Call a tool to make progress, or call finish_task if the task is already complete."

// maxConsecutiveNoToolCalls bounds how many corrective nudges the loop sends
// before giving up, so a model that never calls a tool cannot spin forever.
const maxConsecutiveNoToolCalls = 3

// compactNudge is appended as a User message once accumulated usage crosses
// CompactionTokenThreshold (spec.md §4.6 step d): it asks the model to call
// compact_conversation on its next turn rather than silently rewriting
// history out from under it.
const compactNudge = "This conversation has grown large. Call %s on your next turn to free up context before continuing."

// Config tunes one agent run.
type Config struct {
	Model                    string
	CompactionTokenThreshold int
	ContextWindowTokens      int
	MaxIterations            int
}

// sanitize fills unset fields with conservative defaults.
func (c Config) sanitize() Config {
	if c.CompactionTokenThreshold <= 0 {
		c.CompactionTokenThreshold = 100000
	}
	if c.ContextWindowTokens <= 0 {
		c.ContextWindowTokens = 200000
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 50
	}
	return c
}

// Runner drives one Agent Actor's run_agent_loop. It is not itself an
// actor.Actor: it is a plain-Go state machine whose Run the caller (in this
// repo, cmd/agentcore's run command) invokes directly, matching the
// teacher's AgenticLoop shape (internal/agent/loop.go) generalized to
// spec.md §4.6's contract.
type Runner struct {
	dir       *actor.Directory
	ctxName   string
	llmURI    string
	toolActor *toolactor.ToolCapabilityActor
	registry  *tools.Registry
	cfg       Config
}

// NewRunner constructs a Runner. llmURI must resolve, in dir, to an
// llmactor.LLMActor registered under ctxName.
func NewRunner(dir *actor.Directory, ctxName, llmURI string, toolActor *toolactor.ToolCapabilityActor, registry *tools.Registry, cfg Config) *Runner {
	return &Runner{
		dir:       dir,
		ctxName:   ctxName,
		llmURI:    llmURI,
		toolActor: toolActor,
		registry:  registry,
		cfg:       cfg.sanitize(),
	}
}

// Hooks lets the caller of Run observe run_agent_loop's
// progress without changing its control flow.
type Hooks struct {
	OnAssistantMessage func(models.Message)
	ToolHooks          toolactor.Hooks
}

// Run executes run_agent_loop to completion: it seeds history with the
// User start message carrying desc and initialUser, then alternates
// completion steps and tool-call batches until a finish_task call settles
// state.Output, ctx is cancelled, or cfg.MaxIterations is exceeded. The
// returned error is nil whenever Output was set, even if set via the
// fallback taken after maxConsecutiveNoToolCalls corrective nudges. Running
// out of iterations returns an error and leaves Output unset.
func (r *Runner) Run(ctx context.Context, desc models.AgentDescription, initialUser string, hooks Hooks) (*models.AgentState, error) {
	state := &models.AgentState{}
	h := history.New()

	_ = h.Append(models.NewUserMessage(r.startMessage(desc, initialUser)))
	state.History = h.Messages()

	noToolCallStreak := 0
	compactionNudgeSent := false

	for iter := 0; iter < r.cfg.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		completion, err := llmactor.CompleteStep(ctx, r.dir, r.ctxName, r.llmURI, llmactor.CompletionRequest{
			Model:    r.cfg.Model,
			Messages: h.Messages(),
			Tools:    r.registry.Descriptors(),
		}, nil)
		if err != nil {
			return state, fmt.Errorf("agentactor: completion step: %w", err)
		}

		state.AddUsage(completion.Usage)
		if err := h.Append(completion.Message); err != nil {
			return state, fmt.Errorf("agentactor: append assistant message: %w", err)
		}
		state.History = h.Messages()
		if hooks.OnAssistantMessage != nil {
			hooks.OnAssistantMessage(completion.Message)
		}

		if !completion.Message.HasToolCalls() {
			noToolCallStreak++
			if noToolCallStreak > maxConsecutiveNoToolCalls {
				state.SetOutput(models.Output{
					Result:  completion.Message.Content,
					Summary: "ended without an explicit finish_task call after repeated corrective prompts",
				})
				return state, nil
			}
			_ = h.Append(models.NewUserMessage(noToolCallCorrection))
			state.History = h.Messages()
			continue
		}
		noToolCallStreak = 0

		batch := r.toolActor.ExecuteAll(ctx, completion.Message.ToolCalls, hooks.ToolHooks)
		finished, compacted, err := r.applyOutcomes(h, state, batch.Outcomes)
		if err != nil {
			return state, err
		}
		state.History = h.Messages()
		if finished {
			return state, nil
		}
		if compacted {
			compactionNudgeSent = false
		}

		if !compactionNudgeSent && state.TotalUsage.Tokens >= r.cfg.CompactionTokenThreshold {
			_ = h.Append(models.NewUserMessage(fmt.Sprintf(compactNudge, tools.CompactConversationName)))
			state.History = h.Messages()
			compactionNudgeSent = true
		}
	}

	return state, fmt.Errorf("agentactor: exceeded %d iterations without finish_task", r.cfg.MaxIterations)
}

// applyOutcomes appends one Tool message per outcome and classifies each
// result: a Finish result settles state.Output and reports finished=true; a
// Compact result resets history via applyCompact and reports compacted=true;
// a Text result (or error) is just recorded.
func (r *Runner) applyOutcomes(h *history.History, state *models.AgentState, outcomes []toolactor.Outcome) (finished, compacted bool, err error) {
	msgs := toolactor.OutcomesToMessages(outcomes)
	for i, o := range outcomes {
		if o.Err == nil && o.Result.Kind == models.ToolResultCompact {
			applyCompact(h, o.Result.CompactSummary, msgs[i])
			compacted = true
			continue
		}
		if err := h.Append(msgs[i]); err != nil {
			return false, compacted, fmt.Errorf("agentactor: append tool message: %w", err)
		}
		if o.Err != nil {
			continue
		}
		if o.Result.Kind == models.ToolResultFinish {
			state.SetOutput(models.Output{Result: o.Result.Result, Summary: o.Result.Summary})
			finished = true
		}
	}
	return finished, compacted, nil
}

// applyCompact implements the compact_conversation contract (spec.md §4.6
// scenario 4): discard every message but the first (the agent's original
// brief), append a synthetic User message carrying the model's summary, then
// the Tool message answering the call.
func applyCompact(h *history.History, summary string, toolMsg models.Message) {
	msgs := h.Messages()
	if len(msgs) == 0 {
		return
	}
	first := msgs[0]
	userMsg := models.NewUserMessage(fmt.Sprintf(
		"A summary of your conversation with the client until now: %s\nPlease continue your work.", summary))
	*h = *history.FromMessages([]models.Message{first, userMsg, toolMsg})
}

func (r *Runner) startMessage(desc models.AgentDescription, brief string) string {
	var params strings.Builder
	for _, p := range desc.Parameters {
		fmt.Fprintf(&params, "- %s: %s\n", p.Name, p.Value)
	}
	return fmt.Sprintf(startMessageTemplate, desc.Name, r.cfg.Model, brief, tools.FinishTaskName, tools.CompactConversationName, params.String())
}
