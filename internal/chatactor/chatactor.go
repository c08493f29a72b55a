// Package chatactor implements the Chat Actor (spec.md §4.7): the
// interactive turn loop, its slash-command grammar, and the single
// interrupt-and-resume path a mid-flight SIGINT collapses onto (spec.md §9
// Open Question, resolved in DESIGN.md).
package chatactor

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/haasonsaas/agentcore/internal/actor"
	"github.com/haasonsaas/agentcore/internal/history"
	"github.com/haasonsaas/agentcore/internal/llmactor"
	"github.com/haasonsaas/agentcore/internal/toolactor"
	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

const helpText = `Commands:
  /exit     end the chat session
  /compact  summarize the conversation so far to free up context
  /clear    discard the conversation history and start fresh
  /image <path>  attach an image to your next message
  /help     show this message`

// Config tunes one Chat Actor session.
type Config struct {
	Model         string
	MaxIterations int
}

func (c Config) sanitize() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 25
	}
	return c
}

// Outcome is what HandleLine reports back to the caller driving the
// terminal loop.
type Outcome struct {
	// Text is the assistant's reply, or a command's confirmation text.
	Text string
	// Exit is true once /exit has been processed: the caller should stop
	// reading further lines.
	Exit bool
	// NeedUserInput is true when the in-flight turn was interrupted, during
	// the completion step or mid-tool-batch: the turn produced no final
	// assistant text and chat
	// should simply return to the prompt, per the single collapsed
	// cancel-path decision (DESIGN.md Open Question).
	NeedUserInput bool
}

// Chat drives one interactive session: a persistent History, a pending
// attached image path set by /image, and the in-flight turn's cancel
// function that Interrupt (the Ctrl-C path) calls.
type Chat struct {
	dir       *actor.Directory
	ctxName   string
	llmURI    string
	toolActor *toolactor.ToolCapabilityActor
	registry  *tools.Registry
	cfg       Config

	h *history.History

	mu           sync.Mutex
	pendingImage string
	cancelTurn   context.CancelFunc
}

// New constructs a Chat backed by h (use history.New() for a fresh session,
// or a History loaded via history.LoadOrchestratorHistory to resume one).
func New(dir *actor.Directory, ctxName, llmURI string, toolActor *toolactor.ToolCapabilityActor, registry *tools.Registry, h *history.History, cfg Config) *Chat {
	return &Chat{
		dir:       dir,
		ctxName:   ctxName,
		llmURI:    llmURI,
		toolActor: toolActor,
		registry:  registry,
		cfg:       cfg.sanitize(),
		h:         h,
	}
}

// History exposes the session's turn log, e.g. for SaveOrchestratorHistory.
func (c *Chat) History() *history.History { return c.h }

// Interrupt cancels the currently in-flight turn, if any, implementing the
// SIGINT "interrupt scope" of spec.md §4.7. It is a no-op between turns.
func (c *Chat) Interrupt() {
	c.mu.Lock()
	cancel := c.cancelTurn
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// HandleLine processes one line of user input: a slash command, or plain
// text that drives one turn of the underlying completion/tool loop.
func (c *Chat) HandleLine(ctx context.Context, line string) (Outcome, error) {
	if cmd, arg, ok := parseSlash(line); ok {
		return c.handleCommand(ctx, cmd, arg)
	}
	return c.turn(ctx, line)
}

func parseSlash(line string) (cmd, arg string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		return "", "", false
	}
	fields := strings.SplitN(trimmed, " ", 2)
	cmd = fields[0]
	if len(fields) == 2 {
		arg = strings.TrimSpace(fields[1])
	}
	return cmd, arg, true
}

func (c *Chat) handleCommand(_ context.Context, cmd, arg string) (Outcome, error) {
	switch cmd {
	case "/exit":
		return Outcome{Text: "goodbye", Exit: true}, nil
	case "/help":
		return Outcome{Text: helpText}, nil
	case "/clear":
		c.h.Clear()
		return Outcome{Text: "history cleared"}, nil
	case "/compact":
		before := c.h.Len()
		compactNow(c.h)
		return Outcome{Text: fmt.Sprintf("compacted %d messages down to %d", before, c.h.Len())}, nil
	case "/image":
		if arg == "" {
			return Outcome{Text: "usage: /image <path>"}, nil
		}
		c.mu.Lock()
		c.pendingImage = arg
		c.mu.Unlock()
		return Outcome{Text: fmt.Sprintf("attached %s to your next message", arg)}, nil
	default:
		return Outcome{Text: fmt.Sprintf("unknown command %q, try /help", cmd)}, nil
	}
}

// turn runs exactly one completion-and-tool-calls round for userText. Unlike
// the Agent Actor's run_agent_loop, a plain-text assistant response is a
// valid, non-terminal way to end a chat turn: chat never forces compaction
// or requires finish_task per turn (spec.md §9's "chat-compact-not-forced").
func (c *Chat) turn(ctx context.Context, userText string) (Outcome, error) {
	turnCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelTurn = cancel
	image := c.pendingImage
	c.pendingImage = ""
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancelTurn = nil
		c.mu.Unlock()
		cancel()
	}()

	if image != "" {
		_ = c.h.Append(models.NewUserPartsMessage([]models.Part{
			{Kind: models.PartKindText, Text: userText},
			{Kind: models.PartKindImageURL, ImageURL: image},
		}))
	} else {
		_ = c.h.Append(models.NewUserMessage(userText))
	}

	for i := 0; i < c.cfg.MaxIterations; i++ {
		completion, err := llmactor.CompleteStep(turnCtx, c.dir, c.ctxName, c.llmURI, llmactor.CompletionRequest{
			Model:    c.cfg.Model,
			Messages: c.h.Messages(),
			Tools:    c.registry.Descriptors(),
		}, nil)
		if err != nil {
			if turnCtx.Err() != nil {
				return Outcome{NeedUserInput: true}, nil
			}
			return Outcome{}, fmt.Errorf("chatactor: completion step: %w", err)
		}
		if err := c.h.Append(completion.Message); err != nil {
			return Outcome{}, fmt.Errorf("chatactor: append assistant message: %w", err)
		}

		if !completion.Message.HasToolCalls() {
			return Outcome{Text: completion.Message.Content}, nil
		}

		batch := c.toolActor.ExecuteAll(turnCtx, completion.Message.ToolCalls, toolactor.Hooks{})
		finishText, finished := c.applyToolOutcomes(batch.Outcomes)
		if batch.Cancelled {
			// Mid-batch interruption: whatever outcomes did settle (including
			// the synthetic "cancelled" results for the ones that didn't) are
			// already recorded above; collapse straight to the single
			// documented path instead of also raising a cancellation error.
			return Outcome{NeedUserInput: true}, nil
		}
		if finished {
			return Outcome{Text: finishText}, nil
		}
	}

	return Outcome{Text: "reached the per-turn step limit without a final answer"}, nil
}

// applyToolOutcomes appends one Tool message per outcome, folds any Compact
// result into history via compactWithSummary, and reports the first Finish
// result's text, if any.
func (c *Chat) applyToolOutcomes(outcomes []toolactor.Outcome) (finishText string, finished bool) {
	msgs := toolactor.OutcomesToMessages(outcomes)
	for i, o := range outcomes {
		if o.Err == nil && o.Result.Kind == models.ToolResultCompact {
			compactWithSummary(c.h, o.Result.CompactSummary, msgs[i])
			continue
		}
		_ = c.h.Append(msgs[i])
		if o.Err != nil {
			continue
		}
		if o.Result.Kind == models.ToolResultFinish && !finished {
			finishText = o.Result.Summary
			finished = true
		}
	}
	return finishText, finished
}

// compactWithSummary implements the compact_conversation contract shared
// with the Agent Actor (spec.md §4.6 scenario 4): discard everything but the
// first message, append a synthetic User message carrying the summary, then
// the Tool message answering the call.
func compactWithSummary(h *history.History, summary string, toolMsg models.Message) {
	msgs := h.Messages()
	if len(msgs) == 0 {
		return
	}
	first := msgs[0]
	userMsg := models.NewUserMessage(fmt.Sprintf(
		"A summary of your conversation with the client until now: %s\nPlease continue your work.", summary))
	*h = *history.FromMessages([]models.Message{first, userMsg, toolMsg})
}

// compactNow implements /compact's programmatic (non-model) fallback: it
// folds older messages into a short placeholder without asking the model
// for a summary, since a user-issued /compact should return immediately.
func compactNow(h *history.History) {
	const keepTrailing = 4
	msgs := h.Messages()
	if len(msgs) <= keepTrailing {
		return
	}
	var b strings.Builder
	for _, m := range msgs[:len(msgs)-keepTrailing] {
		fmt.Fprintf(&b, "[%s] %s\n", m.Role, firstLine(m.Content))
	}
	compacted := make([]models.Message, 0, keepTrailing+1)
	compacted = append(compacted, models.NewSystemMessage("Earlier conversation compacted:\n"+b.String()))
	compacted = append(compacted, msgs[len(msgs)-keepTrailing:]...)
	*h = *history.FromMessages(compacted)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
