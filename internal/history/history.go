// Package history manages the append-only turn log: invariant-preserving
// appends, crash-safe persistence, and token-budget compaction.
package history

import (
	"fmt"

	"github.com/haasonsaas/agentcore/pkg/models"
)

// History is the ordered, append-only turn log for one AgentContext. It
// enforces invariant 1 from spec.md §3: every Tool message's tool_call_id
// must reference a ToolCall emitted by a strictly preceding Assistant
// message, and every such ToolCall is answered at most once.
type History struct {
	messages []models.Message
}

// New constructs an empty History.
func New() *History {
	return &History{}
}

// FromMessages wraps an existing, already-valid slice (e.g. loaded from
// disk) without revalidating it. Callers that cannot vouch for the slice's
// provenance should call RepairTranscript first.
func FromMessages(msgs []models.Message) *History {
	return &History{messages: append([]models.Message(nil), msgs...)}
}

// Messages returns the turn log. The returned slice is a defensive copy.
func (h *History) Messages() []models.Message {
	return append([]models.Message(nil), h.messages...)
}

// Len reports the number of messages in the log.
func (h *History) Len() int {
	return len(h.messages)
}

// Clear discards every message but the first, as used by the "/clear" chat
// command (spec.md §4.7) and clear_history (spec.md §4.9): the turn log's
// first (start) message is never dropped, so an agent resumed after a clear
// still has its original brief. Clearing an empty log is a no-op.
func (h *History) Clear() {
	if len(h.messages) == 0 {
		return
	}
	h.messages = h.messages[:1:1]
}

// ErrUnresolvedToolCall is returned by Append when a Tool message's
// tool_call_id does not match any outstanding ToolCall.
type ErrUnresolvedToolCall struct {
	ToolCallID string
}

func (e *ErrUnresolvedToolCall) Error() string {
	return fmt.Sprintf("history: tool message references unknown tool_call_id %q", e.ToolCallID)
}

// ErrDuplicateToolResult is returned by Append when a Tool message answers a
// tool_call_id that has already been answered (invariant: each ToolCall is
// answered at most once).
type ErrDuplicateToolResult struct {
	ToolCallID string
}

func (e *ErrDuplicateToolResult) Error() string {
	return fmt.Sprintf("history: tool_call_id %q already has a recorded result", e.ToolCallID)
}

// Append adds msg to the log, validating it against the outstanding set of
// unanswered tool calls when msg is a Tool message. System, User, and
// Assistant messages are always accepted.
func (h *History) Append(msg models.Message) error {
	if msg.Role == models.RoleTool {
		pending, answered := h.pendingToolCallIDs()
		if answered[msg.ToolCallID] {
			return &ErrDuplicateToolResult{ToolCallID: msg.ToolCallID}
		}
		if !pending[msg.ToolCallID] {
			return &ErrUnresolvedToolCall{ToolCallID: msg.ToolCallID}
		}
	}
	h.messages = append(h.messages, msg)
	return nil
}

// pendingToolCallIDs walks the log and returns the set of tool_call_ids
// emitted by Assistant messages that have not yet been answered, and the set
// already answered.
func (h *History) pendingToolCallIDs() (pending, answered map[string]bool) {
	pending = make(map[string]bool)
	answered = make(map[string]bool)
	for _, m := range h.messages {
		switch m.Role {
		case models.RoleAssistant:
			for _, tc := range m.ToolCalls {
				pending[tc.ID] = true
			}
		case models.RoleTool:
			if pending[m.ToolCallID] {
				delete(pending, m.ToolCallID)
				answered[m.ToolCallID] = true
			}
		}
	}
	return pending, answered
}

// PendingToolCallIDs exposes the set of tool_call_ids awaiting a Tool
// message, in the order their owning Assistant message listed them.
func (h *History) PendingToolCallIDs() []string {
	pending, _ := h.pendingToolCallIDs()
	var ids []string
	for _, m := range h.messages {
		if m.Role != models.RoleAssistant {
			continue
		}
		for _, tc := range m.ToolCalls {
			if pending[tc.ID] {
				ids = append(ids, tc.ID)
			}
		}
	}
	return ids
}
