// Package llmactor implements the LLM Actor (spec.md §4.4): a single-actor
// front for an external Completer, serializing completion requests FIFO per
// actor instance. No retry logic lives here; that is delegated entirely to
// the Completer implementation wired in.
package llmactor

import (
	"context"
	"fmt"

	"github.com/haasonsaas/agentcore/internal/actor"
	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// CompletionRequest is one step's worth of input to a Completer: the model
// name, the full message history, and the tool descriptors currently
// available to the agent.
type CompletionRequest struct {
	Model    string
	Messages []models.Message
	Tools    []tools.ToolDescriptor
}

// StreamCallback receives incremental assistant text as a Completer streams
// a response. It is optional; nil disables streaming callbacks for a call.
type StreamCallback func(delta string)

// CompletionResult is a completed step: the assistant message it produced
// (content, reasoning, and any tool calls) plus the Usage it cost.
type CompletionResult struct {
	Message models.Message
	Usage   models.Usage
}

// Completer is the external LLM contract (spec.md §6). Implementations
// translate CompletionRequest into a specific provider's API and back;
// neither this package nor any actor above it depends on which
// implementation is wired in.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest, onChunk StreamCallback) (CompletionResult, error)
}

// completeStep is the payload of a Request sent to an Actor, carrying the
// CompletionRequest and optional stream callback for one step.
type completeStep struct {
	req     CompletionRequest
	onChunk StreamCallback
}

// LLMActor wraps a Completer behind an actor mailbox so steps are served
// strictly one at a time, in send order, even when multiple callers race to
// request a completion concurrently.
type LLMActor struct {
	*actor.Actor
	dir       *actor.Directory
	completer Completer
}

// New constructs an LLMActor identified by (ctxName, id) that serves
// completions from completer. Call Start to launch its worker and Register
// it in dir under its URI before sending it requests.
func New(dir *actor.Directory, ctxName, id string, completer Completer, opts ...actor.Option) *LLMActor {
	a := &LLMActor{dir: dir, completer: completer}
	a.Actor = actor.New("llm", fmt.Sprintf("%s/%s", ctxName, id), a.handle, opts...)
	return a
}

// Register binds this actor's URI in its Directory. Call after New, before
// Start, so requests sent immediately after Start cannot race registration.
func (a *LLMActor) Register() {
	a.dir.Register(a.URI(), a.Actor)
}

func (a *LLMActor) handle(ctx context.Context, msg any) {
	req, ok := msg.(actor.Request)
	if !ok {
		return
	}
	step, ok := req.Payload.(completeStep)
	if !ok {
		_ = actor.Deliver(ctx, a.dir, req, nil, fmt.Errorf("llmactor: unexpected payload %T", req.Payload))
		return
	}

	result, err := a.completer.Complete(ctx, step.req, step.onChunk)
	_ = actor.Deliver(ctx, a.dir, req, result, err)
}

// CompleteStep sends req to the LLMActor at target and blocks for its
// CompletionResult. onChunk, if non-nil, is invoked by the Completer as text
// streams in; it runs on the LLMActor's worker goroutine, so it must not
// block or call back into the same actor.
func CompleteStep(ctx context.Context, dir *actor.Directory, ctxName, target string, req CompletionRequest, onChunk StreamCallback) (CompletionResult, error) {
	promise, err := actor.Send(ctx, dir, ctxName, target, completeStep{req: req, onChunk: onChunk})
	if err != nil {
		return CompletionResult{}, err
	}
	reply, err := promise.Wait(ctx)
	if err != nil {
		return CompletionResult{}, err
	}
	if reply.Err != nil {
		return CompletionResult{}, reply.Err
	}
	result, ok := reply.Payload.(CompletionResult)
	if !ok {
		return CompletionResult{}, fmt.Errorf("llmactor: unexpected reply payload %T", reply.Payload)
	}
	return result, nil
}
