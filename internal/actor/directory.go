package actor

import (
	"context"
	"fmt"
	"sync"
)

// Sink is anything a Directory can deliver a message to. *Actor satisfies
// Sink; tests may register fakes.
type Sink interface {
	Send(ctx context.Context, msg any)
}

// Directory resolves actor:// URIs to live Sinks, grounded on the teacher's
// mutex-guarded name->value registry (internal/agent/tool_registry.go's
// ToolRegistry) generalized from tool names to actor references.
//
// URI shape: actor://<context>/<role>[/<id>]. <context> namespaces a
// session or sub-agent run so that identically-rolled actors in different
// runs never collide.
type Directory struct {
	mu    sync.RWMutex
	sinks map[string]Sink
}

// NewDirectory constructs an empty Directory.
func NewDirectory() *Directory {
	return &Directory{sinks: make(map[string]Sink)}
}

// ActorURI builds the actor://<context>/<role>[/<id>] reference a Directory
// registers and resolves.
func ActorURI(ctxName, role, id string) string {
	if id == "" {
		return fmt.Sprintf("actor://%s/%s", ctxName, role)
	}
	return fmt.Sprintf("actor://%s/%s/%s", ctxName, role, id)
}

// Register binds uri to sink, overwriting any previous binding. Register is
// idempotent: registering the same (uri, sink) pair twice is a no-op beyond
// the second write.
func (d *Directory) Register(uri string, sink Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks[uri] = sink
}

// Unregister removes uri's binding, if any. Unregistering an absent uri is a
// silent no-op.
func (d *Directory) Unregister(uri string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.sinks, uri)
}

// Resolve returns the Sink bound to uri, or ok=false if none is registered.
func (d *Directory) Resolve(uri string) (sink Sink, ok bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	sink, ok = d.sinks[uri]
	return sink, ok
}

// ErrNoSuchActor is returned by Send when uri has no registered Sink.
type ErrNoSuchActor struct{ URI string }

func (e *ErrNoSuchActor) Error() string {
	return fmt.Sprintf("actor: no actor registered at %s", e.URI)
}

// Send resolves uri and forwards msg to it, or returns ErrNoSuchActor.
func (d *Directory) Send(ctx context.Context, uri string, msg any) error {
	sink, ok := d.Resolve(uri)
	if !ok {
		return &ErrNoSuchActor{URI: uri}
	}
	sink.Send(ctx, msg)
	return nil
}
