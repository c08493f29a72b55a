package actor

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the actor runtime's tracing hook (spec.md §4.1): every handled
// message is wrapped between StartMessage and the returned end func, which
// reports the handler's outcome.
type Tracer interface {
	// StartMessage is called before a message is dispatched to a handler. It
	// returns a function to call when handling completes, with the final
	// status ("ok", "error", "panic") and an error when status != "ok".
	StartMessage(ctx context.Context, role, id string, msg any) (end func(status string, err error))
}

// NoopTracer discards all tracing hooks. It is the default Tracer so actors
// are usable without an OpenTelemetry provider configured.
type NoopTracer struct{}

// StartMessage implements Tracer.
func (NoopTracer) StartMessage(context.Context, string, string, any) func(string, error) {
	return func(string, error) {}
}

// OTelTracer realizes the tracing hook as an OpenTelemetry span per message,
// named "actor.message" with attributes {actor.role, actor.id, message_type,
// handler_ms, status} as described in SPEC_FULL.md §9.
type OTelTracer struct {
	tracer trace.Tracer
}

// NewOTelTracer builds a Tracer backed by the named OTel tracer, typically
// obtained from a TracerProvider configured at process startup.
func NewOTelTracer(name string) OTelTracer {
	return OTelTracer{tracer: otel.Tracer(name)}
}

// StartMessage implements Tracer.
func (t OTelTracer) StartMessage(ctx context.Context, role, id string, msg any) func(string, error) {
	start := time.Now()
	_, span := t.tracer.Start(ctx, "actor.message", trace.WithAttributes(
		attribute.String("actor.role", role),
		attribute.String("actor.id", id),
		attribute.String("message_type", fmt.Sprintf("%T", msg)),
	))
	return func(status string, err error) {
		span.SetAttributes(
			attribute.Int64("handler_ms", time.Since(start).Milliseconds()),
			attribute.String("status", status),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
