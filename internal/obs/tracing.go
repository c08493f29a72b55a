package obs

import (
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewTracerProvider builds an in-process TracerProvider with no exporter
// wired: spans are created and ended (so actor.OTelTracer's handler_ms and
// status attributes are computed and any context propagation works) but are
// never shipped anywhere. Exporting to a collector is a telemetry-sink
// concern this repo's scope excludes (spec.md §1); the SDK itself is kept
// purely to realize the tracing hook spec.md §4.1 requires.
func NewTracerProvider() *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider()
}

// InstallGlobal registers tp as the process-wide TracerProvider so
// actor.NewOTelTracer's otel.Tracer(name) calls resolve against it.
func InstallGlobal(tp *sdktrace.TracerProvider) {
	otel.SetTracerProvider(tp)
}
