// Package completer provides two reference Completer implementations
// (spec.md §6, SPEC_FULL.md §6 [ADD]): Anthropic Messages API and OpenAI
// Chat Completions. Neither is imported by the actor packages above
// llmactor; the core only depends on the llmactor.Completer interface.
package completer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/haasonsaas/agentcore/internal/llmactor"
	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// AnthropicCompleter wraps the Anthropic Messages API behind the
// llmactor.Completer contract.
type AnthropicCompleter struct {
	client    anthropic.Client
	maxTokens int64
}

// NewAnthropicCompleter builds a Completer authenticated with apiKey.
// maxTokens bounds each completion's output; 0 falls back to a conservative
// default.
func NewAnthropicCompleter(apiKey string, maxTokens int64) *AnthropicCompleter {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicCompleter{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		maxTokens: maxTokens,
	}
}

// Complete implements llmactor.Completer.
func (c *AnthropicCompleter) Complete(ctx context.Context, req llmactor.CompletionRequest, onChunk llmactor.StreamCallback) (llmactor.CompletionResult, error) {
	var system string
	var history []anthropic.MessageParam

	for _, m := range req.Messages {
		switch m.Role {
		case models.RoleSystem:
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		case models.RoleUser:
			history = append(history, anthropic.NewUserMessage(anthropic.NewTextBlock(userText(m))))
		case models.RoleAssistant:
			blocks := assistantBlocks(m)
			if len(blocks) > 0 {
				history = append(history, anthropic.NewAssistantMessage(blocks...))
			}
		case models.RoleTool:
			history = append(history, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false),
			))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: c.maxTokens,
		Messages:  history,
		Tools:     anthropicTools(req.Tools),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return llmactor.CompletionResult{}, fmt.Errorf("anthropic completer: %w", err)
	}

	var text string
	var calls []models.ToolCall
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += b.Text
			if onChunk != nil {
				onChunk(b.Text)
			}
		case anthropic.ToolUseBlock:
			calls = append(calls, models.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: json.RawMessage(b.Input),
			})
		}
	}

	return llmactor.CompletionResult{
		Message: models.NewAssistantMessage(text, "", calls),
		Usage: models.Usage{
			Tokens: int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

// userText extracts plain text from a User message, joining typed Parts if
// present (images are not representable in a text-only fallback path and are
// dropped here).
func userText(m models.Message) string {
	if len(m.Parts) == 0 {
		return m.Content
	}
	var out string
	for _, p := range m.Parts {
		if p.Kind == models.PartKindText {
			out += p.Text
		}
	}
	return out
}

// assistantBlocks translates an Assistant message's text and tool calls into
// Anthropic content blocks, preserving tool_call ordering.
func assistantBlocks(m models.Message) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion
	if m.Content != "" {
		blocks = append(blocks, anthropic.NewTextBlock(m.Content))
	}
	for _, tc := range m.ToolCalls {
		blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, json.RawMessage(tc.Arguments), tc.Name))
	}
	return blocks
}

// anthropicTools translates tool descriptors into Anthropic tool-use
// schemas.
func anthropicTools(descs []tools.ToolDescriptor) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(descs))
	for _, d := range descs {
		var schema anthropic.ToolInputSchemaParam
		_ = json.Unmarshal(d.Parameters, &schema)
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        d.Name,
				Description: anthropic.String(d.Description),
				InputSchema: schema,
			},
		})
	}
	return out
}
