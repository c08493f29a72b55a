// Package obs provides the ambient logging and tracing stack: a structured
// slog logger with context-correlated IDs and secret redaction, and the
// OpenTelemetry tracer provider actors attach their spans to.
package obs

import (
	"context"
	"log/slog"
	"os"
	"regexp"
)

type correlationKey struct{ name string }

var (
	sessionIDKey = correlationKey{"session_id"}
	runIDKey     = correlationKey{"run_id"}
	toolCallKey  = correlationKey{"tool_call_id"}
	agentKey     = correlationKey{"agent"}
)

// WithSessionID attaches a session id to ctx for log correlation.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// WithRunID attaches a run id to ctx for log correlation.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// WithToolCallID attaches a tool-call id to ctx for log correlation.
func WithToolCallID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, toolCallKey, id)
}

// WithAgent attaches an agent name to ctx for log correlation.
func WithAgent(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, agentKey, name)
}

// contextHandler wraps an slog.Handler, injecting any correlation IDs found
// on the record's context as attributes before delegating.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, kv := range []struct {
		key  correlationKey
		name string
	}{
		{sessionIDKey, "session_id"},
		{runIDKey, "run_id"},
		{toolCallKey, "tool_call_id"},
		{agentKey, "agent"},
	} {
		if v, ok := ctx.Value(kv.key).(string); ok && v != "" {
			r.AddAttrs(slog.String(kv.name, v))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{h.Handler.WithGroup(name)}
}

// secretPatterns match common secret shapes so they are never written to
// logs verbatim, even if a tool result or error message happens to embed one.
// The Bearer pattern runs first: the key=value pattern would otherwise
// consume only the word "Bearer" after "Authorization:" and leave the token.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Bearer\s+[A-Za-z0-9._-]+`),
	regexp.MustCompile(`(?i)(api[_-]?key|authorization|secret|token)\s*[=:]\s*\S+`),
	regexp.MustCompile(`sk-[A-Za-z0-9]{16,}`),
}

// Redact scrubs s of anything matching secretPatterns, replacing the
// matched text with "[redacted]".
func Redact(s string) string {
	for _, p := range secretPatterns {
		s = p.ReplaceAllString(s, "[redacted]")
	}
	return s
}

// redactingHandler wraps an slog.Handler, redacting the Message and any
// string Attr values before they reach the underlying handler.
type redactingHandler struct {
	slog.Handler
}

func (h redactingHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Message = Redact(r.Message)
	attrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		if a.Value.Kind() == slog.KindString {
			a.Value = slog.StringValue(Redact(a.Value.String()))
		}
		attrs = append(attrs, a)
		return true
	})
	nr := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	nr.AddAttrs(attrs...)
	return h.Handler.Handle(ctx, nr)
}

func (h redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return redactingHandler{h.Handler.WithAttrs(attrs)}
}

func (h redactingHandler) WithGroup(name string) slog.Handler {
	return redactingHandler{h.Handler.WithGroup(name)}
}

// NewLogger builds the process-wide structured logger: JSON output to
// os.Stderr, correlation-ID injection, and secret
// redaction, matching the teacher's internal/observability/logging.go.
func NewLogger(level slog.Level) *slog.Logger {
	base := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(contextHandler{redactingHandler{base}})
}
