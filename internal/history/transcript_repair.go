package history

import "github.com/haasonsaas/agentcore/pkg/models"

// RepairTranscript drops a trailing Assistant message's unresolved tool
// calls so a transcript interrupted mid-batch (process killed between the
// Assistant message landing and its Tool replies arriving) reloads into a
// valid History. Adapted from the teacher's repairTranscript: walk the
// messages tracking the pending tool_call_id set opened by the most recent
// Assistant message, clearing it whenever a later Assistant message starts a
// new batch or a Tool message resolves an entry; anything still pending at
// the end of the transcript is unresolved and is stripped from that last
// Assistant message.
func RepairTranscript(msgs []models.Message) []models.Message {
	if len(msgs) == 0 {
		return msgs
	}

	out := append([]models.Message(nil), msgs...)
	pending := make(map[string]bool)
	lastAssistantIdx := -1

	for i, m := range out {
		switch m.Role {
		case models.RoleAssistant:
			pending = make(map[string]bool, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				pending[tc.ID] = true
			}
			lastAssistantIdx = i
		case models.RoleTool:
			delete(pending, m.ToolCallID)
		}
	}

	if len(pending) == 0 || lastAssistantIdx < 0 {
		return out
	}

	last := out[lastAssistantIdx]
	kept := last.ToolCalls[:0:0]
	for _, tc := range last.ToolCalls {
		if !pending[tc.ID] {
			kept = append(kept, tc)
		}
	}
	last.ToolCalls = kept
	out[lastAssistantIdx] = last
	return out
}
