package responder

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"contextdb/pkg/models"
)

const systemPrompt = "You are a helpful support assistant. Use the prior conversation summary, when present, to keep your answers consistent with what was already discussed."

// OpenAI answers queries through a chat-completion model, feeding the
// stored context summary in as system context.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds an OpenAI-backed responder. baseURL is optional and
// allows pointing at API-compatible providers.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *OpenAI) Answer(ctx context.Context, _ models.IdentityKey, query, contextSummary string) (string, error) {
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
	}
	if contextSummary != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: contextSummary})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: query})

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: msgs,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
