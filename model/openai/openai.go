// Package openai provides an implementation of model.Completer using the
// OpenAI Chat Completions API. It adapts Helmsman's normalized Request into
// the SDK's message format and extracts the first choice's text.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/helmsman-ai/helmsman/core"
	"github.com/helmsman-ai/helmsman/model"
)

// Options configure the OpenAI completer. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	Model string
	// APIKey overrides the OPENAI_API_KEY environment variable.
	APIKey string
}

// Completer wraps the OpenAI Chat Completions API behind the generic
// model.Completer interface.
type Completer struct {
	client *openai.Client
	opts   Options
}

// New creates a new OpenAI completer using the official client. When
// Options.APIKey is unset the client reads OPENAI_API_KEY (and
// OPENAI_BASE_URL) from the environment.
func New(optFns ...func(o *Options)) *Completer {
	opts := Options{
		Model: openai.ChatModelGPT4o,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := openai.NewClient(clientOpts...)
	return &Completer{client: &client, opts: opts}
}

// NewFromClient creates a new OpenAI completer from an existing client.
// Options.APIKey is ignored here; credentials belong to the client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Completer {
	opts := Options{
		Model: openai.ChatModelGPT4o,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Completer{client: client, opts: opts}
}

// Complete implements model.Completer.
func (c *Completer) Complete(ctx context.Context, req model.Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages:    buildMessages(req),
		Model:       c.opts.Model,
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(req.MaxTokens)
	}
	if req.ForceJSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// buildMessages converts normalized messages into OpenAI chat messages,
// prepending the system prompt when present.
func buildMessages(req model.Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case core.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	return messages
}

// Info returns metadata describing this OpenAI completer implementation.
func (c *Completer) Info() model.Info {
	return model.Info{Name: c.opts.Model, Provider: "openai"}
}
