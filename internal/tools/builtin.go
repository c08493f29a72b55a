package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/agentcore/pkg/models"
)

// FinishTaskName and CompactConversationName are the two tool names every
// Agent Actor's tool set must include (spec.md §4.6).
const (
	FinishTaskName          = "finish_task"
	CompactConversationName = "compact_conversation"
)

// finishTaskParams is the parameter struct finish_task's schema is generated
// from via GenerateSchema.
type finishTaskParams struct {
	Result  string `json:"result" jsonschema:"required,description=The final answer or artifact produced for the user."`
	Summary string `json:"summary" jsonschema:"required,description=A one- or two-sentence summary of what was done."`
}

// FinishTask is the built-in tool an Agent Actor calls to terminate its run
// with a result (spec.md §4.6, §6).
type FinishTask struct {
	schema json.RawMessage
}

// NewFinishTask constructs the finish_task tool, generating its schema once.
func NewFinishTask() *FinishTask {
	schema, err := GenerateSchema(&finishTaskParams{})
	if err != nil {
		// The parameter struct is a fixed, compile-time shape: a failure here
		// is a programming error, not a runtime condition to recover from.
		panic(fmt.Sprintf("tools: generate finish_task schema: %v", err))
	}
	return &FinishTask{schema: schema}
}

func (t *FinishTask) Name() string               { return FinishTaskName }
func (t *FinishTask) Parameters() json.RawMessage { return t.schema }
func (t *FinishTask) Description() string {
	return "Ends the current agent run and reports its final result to the caller."
}

// Execute decodes args into finishTaskParams and returns a Finish ToolResult.
// Arguments are assumed already schema-validated by the caller (spec.md
// §4.5 step 1.a); Execute itself only needs a structural decode.
func (t *FinishTask) Execute(_ context.Context, args json.RawMessage) (models.ToolResult, error) {
	var p finishTaskParams
	if err := json.Unmarshal(args, &p); err != nil {
		return models.ToolResult{}, fmt.Errorf("finish_task: decode arguments: %w", err)
	}
	return models.FinishResult(p.Result, p.Summary), nil
}

// compactConversationParams is the parameter struct compact_conversation's
// schema is generated from.
type compactConversationParams struct {
	Summary string `json:"summary" jsonschema:"required,description=A summary of the conversation so far, to replace the compacted messages."`
}

// CompactConversation is the built-in tool the model calls to shrink the turn
// log (spec.md §4.6, §6). When a token threshold is crossed the Agent Actor
// asks the model to call it; the actor never invokes it on its own behalf.
type CompactConversation struct {
	schema json.RawMessage
}

// NewCompactConversation constructs the compact_conversation tool.
func NewCompactConversation() *CompactConversation {
	schema, err := GenerateSchema(&compactConversationParams{})
	if err != nil {
		panic(fmt.Sprintf("tools: generate compact_conversation schema: %v", err))
	}
	return &CompactConversation{schema: schema}
}

func (t *CompactConversation) Name() string               { return CompactConversationName }
func (t *CompactConversation) Parameters() json.RawMessage { return t.schema }
func (t *CompactConversation) Description() string {
	return "Replaces the conversation history so far with a summary, freeing context for further turns."
}

// Execute decodes args and returns a Compact ToolResult.
func (t *CompactConversation) Execute(_ context.Context, args json.RawMessage) (models.ToolResult, error) {
	var p compactConversationParams
	if err := json.Unmarshal(args, &p); err != nil {
		return models.ToolResult{}, fmt.Errorf("compact_conversation: decode arguments: %w", err)
	}
	return models.CompactResult(p.Summary), nil
}

// RegisterBuiltins adds FinishTask and CompactConversation to r.
func RegisterBuiltins(r *Registry) {
	r.Register(NewFinishTask())
	r.Register(NewCompactConversation())
}
