// Package anthropic provides a model.Completer backed by the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/helmsman-ai/helmsman/core"
	"github.com/helmsman-ai/helmsman/model"
)

// Options configures the Anthropic completer (model id, API key). Extend via
// functional options to preserve stability.
type Options struct {
	Model  anthropic.Model
	APIKey string
}

// Completer wraps the Anthropic Messages API behind the generic
// model.Completer interface.
type Completer struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new Anthropic completer using the official client.
func New(optFns ...func(o *Options)) *Completer {
	opts := Options{
		Model: anthropic.ModelClaude3_5Sonnet20241022,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Completer{client: &client, opts: opts}
}

// NewFromClient creates a new Anthropic completer from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Completer {
	opts := Options{
		Model: anthropic.ModelClaude3_5Sonnet20241022,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Completer{client: client, opts: opts}
}

// Complete implements model.Completer. The Messages API has no native JSON
// response format, so ForceJSON is honored by appending a strict instruction
// to the system prompt.
func (c *Completer) Complete(ctx context.Context, req model.Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	params := anthropic.MessageNewParams{
		Model:       c.opts.Model,
		Messages:    buildMessages(req.Messages),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(req.Temperature),
	}

	system := req.System
	if req.ForceJSON {
		if system != "" {
			system += "\n\n"
		}
		system += "Respond with ONLY a single valid JSON object and nothing else."
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	return sb.String(), nil
}

// buildMessages converts normalized messages into Anthropic message params.
func buildMessages(messages []core.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case core.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		case core.RoleSystem:
			// System content is carried in params.System; skip here.
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out
}

// Info returns metadata describing this Anthropic completer implementation.
func (c *Completer) Info() model.Info {
	return model.Info{Name: string(c.opts.Model), Provider: "anthropic"}
}
