// Package tools implements the Tool contract (spec.md §6), the registry of
// tool-capabilities an Agent Actor is given, and the two required built-in
// tools every agent loop carries.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/haasonsaas/agentcore/pkg/models"
)

// Tool is the external contract a tool capability implements (spec.md §6).
// Execute receives the raw, already schema-validated argument object.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns this tool's JSON-Schema parameter document.
	Parameters() json.RawMessage
	Execute(ctx context.Context, args json.RawMessage) (models.ToolResult, error)
}

// Registry is the mutex-guarded name -> Tool map a Tool-Capability Actor
// dispatches against, adapted from the teacher's ToolRegistry
// (internal/agent/tool_registry.go).
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds t, keyed by t.Name(). Registering a name twice overwrites
// the prior binding.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Unregister removes name's binding, if any.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns the Tool bound to name, or ok=false if unknown.
func (r *Registry) Get(name string) (t Tool, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok = r.tools[name]
	return t, ok
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ToolDescriptor is the wire shape a Completer adapter translates into its
// provider-specific tool-schema format.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Descriptors returns every registered tool's descriptor, in Names() order,
// for handing to a Completer as the model's available tool set.
func (r *Registry) Descriptors() []ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]ToolDescriptor, 0, len(names))
	for _, n := range names {
		t := r.tools[n]
		out = append(out, ToolDescriptor{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return out
}

// ErrUnknownTool is returned when a model requests a tool name that is not
// registered (spec.md §4.5 "unknown-tool handling").
type ErrUnknownTool struct{ Name string }

func (e *ErrUnknownTool) Error() string {
	return fmt.Sprintf("tools: unknown tool %q", e.Name)
}

// Decode validates raw against name's Tool's generated schema and reports
// ErrUnknownTool if name is not registered. It does not execute the tool.
func (r *Registry) Decode(name string, raw json.RawMessage) error {
	t, ok := r.Get(name)
	if !ok {
		return &ErrUnknownTool{Name: name}
	}
	return Validate(t.Parameters(), raw)
}
