package generate

import (
	"context"
	"errors"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

// Anthropic talks to the Anthropic Messages API.
type Anthropic struct {
	client *anthropic.Client
	opts   Options
}

// NewAnthropic creates a client for apiKey.
func NewAnthropic(apiKey string, opts Options) *Anthropic {
	return &Anthropic{client: anthropic.NewClient(apiKey), opts: opts}
}

// Generate implements Generator.
func (c *Anthropic) Generate(ctx context.Context, messages []Message) (string, error) {
	system, dialogue := splitSystem(messages)

	msgs := make([]anthropic.Message, 0, len(dialogue))
	for _, m := range dialogue {
		role := anthropic.RoleUser
		if m.Role == RoleAssistant {
			role = anthropic.RoleAssistant
		}
		msgs = append(msgs, anthropic.Message{
			Role:    role,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(m.Content)},
		})
	}

	temperature := c.opts.Temperature
	req := anthropic.MessagesRequest{
		Model:       anthropic.Model(c.opts.Model),
		Messages:    msgs,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: &temperature,
	}
	if system != "" {
		req.MultiSystem = []anthropic.MessageSystemPart{{Type: "text", Text: system}}
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			b.WriteString(*block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New("empty response from messages api")
	}
	return b.String(), nil
}
