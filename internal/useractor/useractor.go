// Package useractor implements the User Actor (spec.md §4.8): serialized
// Ask/Confirm/Prompt interactions plus the AgentYieldedToUser notification,
// all funneled through a single mailbox so concurrent callers never
// interleave prompts on the terminal.
package useractor

import (
	"context"
	"fmt"

	"github.com/haasonsaas/agentcore/internal/actor"
)

// Interactor is the external collaborator a UserActor delegates to. A
// terminal-backed implementation lives in cmd/agentcore; tests use a fake.
type Interactor interface {
	Ask(ctx context.Context, question string, options []string) (string, error)
	Confirm(ctx context.Context, message string) (bool, error)
	Prompt(ctx context.Context, message string) (string, error)
	Notify(ctx context.Context, reason string)
}

// AskRequest is the payload of an Ask call (spec.md §4.8).
type AskRequest struct {
	Question string
	Options  []string
}

// ConfirmRequest is the payload of a Confirm call.
type ConfirmRequest struct {
	Message string
}

// PromptRequest is the payload of a free-text Prompt call.
type PromptRequest struct {
	Message string
}

// AgentYieldedToUser is a fire-and-forget notification: an agent run is
// pausing for the user's attention, with no reply expected.
type AgentYieldedToUser struct {
	Reason string
}

// UserActor serializes every Ask/Confirm/Prompt/AgentYieldedToUser against
// one Interactor, one at a time, via a single-goroutine mailbox.
type UserActor struct {
	*actor.Actor
	dir        *actor.Directory
	interactor Interactor
}

// New constructs a UserActor identified by (ctxName, id) delegating to
// interactor. Register it in dir and Start it before sending requests.
func New(dir *actor.Directory, ctxName, id string, interactor Interactor, opts ...actor.Option) *UserActor {
	u := &UserActor{dir: dir, interactor: interactor}
	u.Actor = actor.New("user", fmt.Sprintf("%s/%s", ctxName, id), u.handle, opts...)
	return u
}

// Register binds this actor's URI in its Directory.
func (u *UserActor) Register() {
	u.dir.Register(u.URI(), u.Actor)
}

func (u *UserActor) handle(ctx context.Context, msg any) {
	switch m := msg.(type) {
	case AgentYieldedToUser:
		u.interactor.Notify(ctx, m.Reason)
		return
	case actor.Request:
		u.handleRequest(ctx, m)
	}
}

func (u *UserActor) handleRequest(ctx context.Context, req actor.Request) {
	switch p := req.Payload.(type) {
	case AskRequest:
		answer, err := u.interactor.Ask(ctx, p.Question, p.Options)
		_ = actor.Deliver(ctx, u.dir, req, answer, err)
	case ConfirmRequest:
		approved, err := u.interactor.Confirm(ctx, p.Message)
		_ = actor.Deliver(ctx, u.dir, req, approved, err)
	case PromptRequest:
		text, err := u.interactor.Prompt(ctx, p.Message)
		_ = actor.Deliver(ctx, u.dir, req, text, err)
	default:
		_ = actor.Deliver(ctx, u.dir, req, nil, fmt.Errorf("useractor: unexpected payload %T", req.Payload))
	}
}

// Ask sends an AskRequest to target and waits for the chosen answer.
func Ask(ctx context.Context, dir *actor.Directory, ctxName, target, question string, options []string) (string, error) {
	promise, err := actor.Send(ctx, dir, ctxName, target, AskRequest{Question: question, Options: options})
	if err != nil {
		return "", err
	}
	reply, err := promise.Wait(ctx)
	if err != nil {
		return "", err
	}
	if reply.Err != nil {
		return "", reply.Err
	}
	answer, _ := reply.Payload.(string)
	return answer, nil
}

// Confirm sends a ConfirmRequest to target and waits for the user's decision.
func Confirm(ctx context.Context, dir *actor.Directory, ctxName, target, message string) (bool, error) {
	promise, err := actor.Send(ctx, dir, ctxName, target, ConfirmRequest{Message: message})
	if err != nil {
		return false, err
	}
	reply, err := promise.Wait(ctx)
	if err != nil {
		return false, err
	}
	if reply.Err != nil {
		return false, reply.Err
	}
	approved, _ := reply.Payload.(bool)
	return approved, nil
}

// Prompt sends a PromptRequest to target and waits for free-text input.
func Prompt(ctx context.Context, dir *actor.Directory, ctxName, target, message string) (string, error) {
	promise, err := actor.Send(ctx, dir, ctxName, target, PromptRequest{Message: message})
	if err != nil {
		return "", err
	}
	reply, err := promise.Wait(ctx)
	if err != nil {
		return "", err
	}
	if reply.Err != nil {
		return "", reply.Err
	}
	text, _ := reply.Payload.(string)
	return text, nil
}

// NotifyYielded sends a fire-and-forget AgentYieldedToUser to target.
func NotifyYielded(ctx context.Context, dir *actor.Directory, target, reason string) error {
	return dir.Send(ctx, target, AgentYieldedToUser{Reason: reason})
}
