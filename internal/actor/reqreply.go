package actor

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Request is the envelope a caller sends to ask an actor to do work and
// report back exactly once. Target actors read RequestID/ReplyTo to know
// where and under what correlation id to send their Reply.
type Request struct {
	RequestID string
	ReplyTo   string
	Payload   any
}

// Reply is the one-shot answer a callee sends back to a Request's ReplyTo
// uri. Err is set on failure or cancellation instead of Payload.
type Reply struct {
	RequestID string
	Payload   any
	Err       error
}

// Cancel asks the actor that received RequestID to abandon the in-flight
// work. A well-behaved callee still sends exactly one Reply afterward (with
// Err set, typically context.Canceled) rather than going silent: this is the
// structured-concurrency settlement guarantee — a cancelled caller still
// waits for that final Reply instead of abandoning the callee mid-flight.
type Cancel struct {
	RequestID string
}

// Promise is the caller's one-shot handle on a Request's eventual Reply. It
// is registered in a Directory under a dedicated reply-to uri for the
// lifetime of the request and unregistered once settled.
type Promise struct {
	uri string
	dir *Directory
	ch  chan Reply

	once sync.Once
}

// newPromise registers a fresh reply-to sink in dir and returns both the uri
// to hand to the callee and the Promise to await it with.
func newPromise(ctxName string, dir *Directory) (*Promise, string) {
	uri := ActorURI(ctxName, "reply", uuid.NewString())
	p := &Promise{uri: uri, dir: dir, ch: make(chan Reply, 1)}
	dir.Register(uri, replySink{p})
	return p, uri
}

// replySink adapts a Promise to the Sink interface so it can be registered
// directly in a Directory.
type replySink struct{ p *Promise }

func (s replySink) Send(_ context.Context, msg any) {
	if r, ok := msg.(Reply); ok {
		s.p.settle(r)
	}
}

func (p *Promise) settle(r Reply) {
	p.once.Do(func() {
		p.dir.Unregister(p.uri)
		p.ch <- r
	})
}

// Wait blocks until the Reply arrives or ctx is done. Per the settlement
// guarantee, a ctx cancellation here does NOT abandon the request: it only
// stops waiting early and returns ctx.Err(); the Promise stays registered so
// a late Reply from the callee is still consumed (and does not leak).
// Callers that cancel should follow up by sending a Cancel to the callee and
// may call Wait again (with a fresh, non-cancelled ctx) to observe the
// callee's final settlement.
func (p *Promise) Wait(ctx context.Context) (Reply, error) {
	select {
	case r := <-p.ch:
		return r, nil
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}

// Send dispatches a Request to target through dir and returns a Promise for
// its Reply. ctxName scopes the ephemeral reply-to uri so concurrent
// requests from different sessions never collide.
func Send(ctx context.Context, dir *Directory, ctxName, target string, payload any) (*Promise, error) {
	promise, replyTo := newPromise(ctxName, dir)
	req := Request{RequestID: uuid.NewString(), ReplyTo: replyTo, Payload: payload}
	if err := dir.Send(ctx, target, req); err != nil {
		dir.Unregister(replyTo)
		return nil, err
	}
	return promise, nil
}

// Deliver sends a settled Reply back to req's caller through dir. Callees
// call this exactly once per Request, including on cancellation or error.
func Deliver(ctx context.Context, dir *Directory, req Request, payload any, err error) error {
	return dir.Send(ctx, req.ReplyTo, Reply{RequestID: req.RequestID, Payload: payload, Err: err})
}
