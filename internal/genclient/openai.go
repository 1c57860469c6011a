package genclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/example/realmforge/internal/models"
)

// openaiBackend drives any OpenAI-compatible chat-completions service
// (OpenRouter and friends). JSON mode keeps replies machine-readable; the
// response schema is restated in the system prompt since these APIs have no
// native schema constraint.
type openaiBackend struct {
	client *openai.Client
	model  string
}

func newOpenAIBackend(apiKey, baseURL, model string, timeout time.Duration) *openaiBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}
	return &openaiBackend{client: openai.NewClientWithConfig(cfg), model: model}
}

func (b *openaiBackend) withModel(model string) *openaiBackend {
	return &openaiBackend{client: b.client, model: model}
}

func (b *openaiBackend) generate(ctx context.Context, req textRequest) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleSystem,
		Content: "You are the narrator of an interactive role-playing adventure. " +
			"Reply with a single JSON object matching this schema, nothing else:\n" + req.SchemaText,
	})
	for _, h := range req.History {
		role := openai.ChatMessageRoleUser
		if h.Role == models.RoleNarrator {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: h.Text})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Instruction,
	})

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       b.model,
		Messages:    msgs,
		Temperature: req.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}
