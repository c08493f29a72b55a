// Package models defines the data shared between the actors: messages,
// tool calls and results, usage accounting, and the agent's description and
// mutable state.
package models

import (
	"encoding/json"
	"time"
)

// Role identifies which of the message tagged-sum variants a Message carries.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// PartKind identifies the kind of a User message content part.
type PartKind string

const (
	PartKindText     PartKind = "text"
	PartKindImageURL PartKind = "image_url"
)

// Part is one element of a User message's content when it is not a bare
// string. Kind selects which of the payload fields is meaningful.
type Part struct {
	Kind PartKind `json:"type"`
	Text string   `json:"text,omitempty"`
	// ImageURL holds a URL or data: URL when Kind == PartKindImageURL.
	ImageURL string `json:"image_url,omitempty"`
}

// ToolCall is one function-call request emitted by the model inside an
// Assistant message. Arguments are decoded lazily by the Tool-Call Actor.
type ToolCall struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Arguments is the raw JSON object text produced by the model. It may be
	// malformed; decoding failure is handled by the caller, not here.
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResultKind distinguishes the three outcomes a tool call can produce,
// per spec.md §3 ("ToolResult — tagged sum").
type ToolResultKind string

const (
	ToolResultText   ToolResultKind = "text"
	ToolResultFinish ToolResultKind = "finish"
	ToolResultCompact ToolResultKind = "compact"
)

// ToolResult is the tagged-sum outcome of a single tool execution. Only
// fields relevant to Kind are populated.
type ToolResult struct {
	Kind ToolResultKind

	// Text holds the verbatim content when Kind == ToolResultText.
	Text string

	// Result/Summary hold the finish_task payload when Kind == ToolResultFinish.
	Result  string
	Summary string

	// CompactSummary holds the compact_conversation summary when Kind == ToolResultCompact.
	CompactSummary string
}

// TextResult builds a Text tool result.
func TextResult(content string) ToolResult {
	return ToolResult{Kind: ToolResultText, Text: content}
}

// FinishResult builds a Finish tool result.
func FinishResult(result, summary string) ToolResult {
	return ToolResult{Kind: ToolResultFinish, Result: result, Summary: summary}
}

// CompactResult builds a Compact tool result.
func CompactResult(summary string) ToolResult {
	return ToolResult{Kind: ToolResultCompact, CompactSummary: summary}
}

// Usage tracks token and cost accounting for one completion step. Usage is
// monotone over a session: see AgentState.TotalUsage.
type Usage struct {
	Tokens int     `json:"tokens"`
	Cost   float64 `json:"cost"`
}

// Add returns the pointwise sum of two Usage values.
func (u Usage) Add(o Usage) Usage {
	return Usage{Tokens: u.Tokens + o.Tokens, Cost: u.Cost + o.Cost}
}

// Message is the tagged sum over System, User, Assistant, and Tool variants
// described in spec.md §3. Only the fields relevant to Role are meaningful;
// unused fields are left zero.
type Message struct {
	Role Role `json:"role"`

	// Content is plain text for System/Assistant messages, and for User
	// messages when Parts is empty.
	Content string `json:"content,omitempty"`

	// Parts holds a typed User message when it carries more than plain text
	// (e.g. an image). When non-empty it takes precedence over Content.
	Parts []Part `json:"parts,omitempty"`

	// Reasoning is the assistant's optional reasoning trace (Assistant only).
	Reasoning string `json:"reasoning,omitempty"`

	// ToolCalls is the ordered list of calls an Assistant message requests.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ProviderFields carries opaque provider-specific data the core does not
	// interpret (Assistant only), round-tripped verbatim through persistence.
	ProviderFields json.RawMessage `json:"provider_fields,omitempty"`

	// ToolCallID and ToolName identify which ToolCall a Tool message answers.
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"name,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// HasToolCalls reports whether an Assistant message carries pending calls.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// NewSystemMessage builds a System message.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text, CreatedAt: time.Now()}
}

// NewUserMessage builds a plain-text User message.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text, CreatedAt: time.Now()}
}

// NewUserPartsMessage builds a User message from typed parts.
func NewUserPartsMessage(parts []Part) Message {
	return Message{Role: RoleUser, Parts: parts, CreatedAt: time.Now()}
}

// NewAssistantMessage builds an Assistant message.
func NewAssistantMessage(text, reasoning string, calls []ToolCall) Message {
	return Message{
		Role:      RoleAssistant,
		Content:   text,
		Reasoning: reasoning,
		ToolCalls: calls,
		CreatedAt: time.Now(),
	}
}

// NewToolMessage builds a Tool message answering one ToolCall.
func NewToolMessage(toolCallID, toolName, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: toolCallID,
		ToolName:   toolName,
		CreatedAt:  time.Now(),
	}
}

// Parameter is one named, described, valued entry of an AgentDescription.
type Parameter struct {
	Name        string
	Description string
	Value       string
}

// AgentDescription is the immutable identity of an agent invocation: its
// name, model, ordered parameters, and the set of tool capability names it
// was given. See spec.md §3.
type AgentDescription struct {
	Name       string
	Model      string
	Parameters []Parameter
	Tools      []string
}

// Output is the finish_task payload that terminates an agent run.
type Output struct {
	Result  string
	Summary string
}

// AgentState is the mutable per-run state: the turn log and, once set, the
// terminal output. Output transitions None -> Some exactly once (invariant 4).
type AgentState struct {
	History    []Message
	Output     *Output
	TotalUsage Usage
}

// SetOutput sets Output if and only if it is currently unset, returning
// false if the agent already produced a result (invariant 4).
func (s *AgentState) SetOutput(out Output) bool {
	if s.Output != nil {
		return false
	}
	s.Output = &out
	return true
}

// AddUsage accumulates Usage monotonically (invariant 5).
func (s *AgentState) AddUsage(u Usage) {
	s.TotalUsage = s.TotalUsage.Add(u)
}

// AgentContext pairs an AgentDescription with its AgentState. Identity is
// carried by the State pointer; concurrently running sub-agents each own
// their own Context.
type AgentContext struct {
	Description AgentDescription
	State       *AgentState
}

// NewAgentContext creates a context with an empty history and no output.
func NewAgentContext(desc AgentDescription) *AgentContext {
	return &AgentContext{
		Description: desc,
		State:       &AgentState{History: nil},
	}
}
