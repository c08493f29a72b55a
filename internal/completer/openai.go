package completer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/haasonsaas/agentcore/internal/llmactor"
	"github.com/haasonsaas/agentcore/internal/tools"
	"github.com/haasonsaas/agentcore/pkg/models"
)

// OpenAICompleter wraps the OpenAI Chat Completions API (with function
// calling) behind the llmactor.Completer contract.
type OpenAICompleter struct {
	client *openai.Client
}

// NewOpenAICompleter builds a Completer authenticated with apiKey.
func NewOpenAICompleter(apiKey string) *OpenAICompleter {
	return &OpenAICompleter{client: openai.NewClient(apiKey)}
}

// Complete implements llmactor.Completer.
func (c *OpenAICompleter) Complete(ctx context.Context, req llmactor.CompletionRequest, onChunk llmactor.StreamCallback) (llmactor.CompletionResult, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, toOpenAIMessage(m))
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: messages,
		Tools:    openAITools(req.Tools),
	})
	if err != nil {
		return llmactor.CompletionResult{}, fmt.Errorf("openai completer: %w", err)
	}
	if len(resp.Choices) == 0 {
		return llmactor.CompletionResult{}, fmt.Errorf("openai completer: empty choices")
	}

	choice := resp.Choices[0].Message
	if onChunk != nil && choice.Content != "" {
		onChunk(choice.Content)
	}

	var calls []models.ToolCall
	for _, tc := range choice.ToolCalls {
		calls = append(calls, models.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}

	return llmactor.CompletionResult{
		Message: models.NewAssistantMessage(choice.Content, "", calls),
		Usage:   models.Usage{Tokens: resp.Usage.TotalTokens},
	}, nil
}

// toOpenAIMessage translates one Message into the Chat Completions wire
// shape, including the tool-call/tool-result roles OpenAI models directly.
func toOpenAIMessage(m models.Message) openai.ChatCompletionMessage {
	switch m.Role {
	case models.RoleSystem:
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: m.Content}
	case models.RoleUser:
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userText(m)}
	case models.RoleAssistant:
		out := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content}
		for _, tc := range m.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		return out
	case models.RoleTool:
		return openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.ToolName,
		}
	default:
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Content}
	}
}

// openAITools translates tool descriptors into OpenAI function-calling
// schemas.
func openAITools(descs []tools.ToolDescriptor) []openai.Tool {
	out := make([]openai.Tool, 0, len(descs))
	for _, d := range descs {
		var params any
		_ = json.Unmarshal(d.Parameters, &params)
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  params,
			},
		})
	}
	return out
}
