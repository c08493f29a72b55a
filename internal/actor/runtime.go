// Package actor implements the actor runtime: typed mailboxes, a single
// worker goroutine per actor, idempotent lifecycle, and the tracing hook
// wrapped around every handled message.
package actor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Handler processes one message delivered to an actor's mailbox. It runs on
// the actor's single worker goroutine; handlers never run concurrently with
// each other for the same actor.
type Handler func(ctx context.Context, msg any)

// envelope is one mailbox entry: the message plus the context it was sent
// under, so cancellation of the sender's scope is visible to the handler.
type envelope struct {
	ctx context.Context
	msg any
}

// Actor is a single-goroutine message processor with a FIFO mailbox backed
// by a buffered channel (capacity 64 unless WithMailboxHint says otherwise);
// the mailbox is bounded, and Send waits while it is full. Start, Send, and
// Stop are all safe to call multiple times and from multiple goroutines.
type Actor struct {
	Role string
	ID   string

	handler Handler
	tracer  Tracer

	mailbox chan envelope
	done    chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stopped   atomic.Bool
}

// Option configures an Actor at construction time.
type Option func(*Actor)

// WithTracer attaches a Tracer whose hooks wrap every handled message.
func WithTracer(t Tracer) Option {
	return func(a *Actor) { a.tracer = t }
}

// WithMailboxHint sets the capacity of the mailbox channel. The channel does
// not grow: once n messages are queued, Send waits until the worker takes
// one. A value <= 0 keeps the default capacity of 64.
func WithMailboxHint(n int) Option {
	return func(a *Actor) {
		if n > 0 {
			a.mailbox = make(chan envelope, n)
		}
	}
}

// New constructs an actor identified by (role, id) that dispatches every
// delivered message to handler. The actor is not running until Start is
// called.
func New(role, id string, handler Handler, opts ...Option) *Actor {
	a := &Actor{
		Role:    role,
		ID:      id,
		handler: handler,
		tracer:  NoopTracer{},
		mailbox: make(chan envelope, 64),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start launches the actor's worker goroutine. Calling Start more than once
// has no additional effect.
func (a *Actor) Start() {
	a.startOnce.Do(func() {
		a.started.Store(true)
		go a.run()
	})
}

// Send enqueues msg on the actor's mailbox under ctx. It returns as soon as
// the message is queued; while the mailbox is full it waits for the worker
// to take a message. Send on a stopped actor is a silent no-op, matching the
// idempotent-stop contract: callers that raced a Stop should not observe a
// panic.
func (a *Actor) Send(ctx context.Context, msg any) {
	if a.stopped.Load() {
		return
	}
	// A Stop that closes the mailbox between the check above and the send
	// below makes the send panic; the message is dropped like any other send
	// to a stopped actor.
	defer func() { _ = recover() }()
	select {
	case a.mailbox <- envelope{ctx: ctx, msg: msg}:
	case <-a.done:
	}
}

// Stop accepts no further messages; the worker still handles the messages
// already queued and exits once the mailbox is empty. Stop is idempotent and safe to call from any
// goroutine, including the actor's own handler.
func (a *Actor) Stop() {
	a.stopOnce.Do(func() {
		a.stopped.Store(true)
		close(a.mailbox)
	})
}

// Wait blocks until the actor's worker goroutine has exited.
func (a *Actor) Wait() {
	<-a.done
}

// URI returns the actor:// reference this actor resolves under when
// registered with a Directory.
func (a *Actor) URI() string {
	return fmt.Sprintf("actor://%s/%s", a.Role, a.ID)
}

func (a *Actor) run() {
	defer close(a.done)
	for env := range a.mailbox {
		a.dispatch(env)
	}
}

func (a *Actor) dispatch(env envelope) {
	end := a.tracer.StartMessage(env.ctx, a.Role, a.ID, env.msg)
	status := "ok"
	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			end(status, fmt.Errorf("actor %s panicked: %v", a.URI(), r))
			return
		}
		end(status, nil)
	}()
	a.handler(env.ctx, env.msg)
}
