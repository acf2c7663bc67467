package worker

import (
	"context"
	"fmt"

	"github.com/helmsman-ai/helmsman/core"
	"github.com/helmsman-ai/helmsman/logging"
	"github.com/helmsman-ai/helmsman/model"
	"github.com/helmsman-ai/helmsman/persona"
)

const reasoningDescription = "General reasoning and conversation worker. Use for: answering questions, " +
	"summarizing text, explaining concepts, writing content, calculations, " +
	"giving recommendations, general conversation. Does NOT browse the internet - " +
	"use the browsing worker for that."

const (
	reasoningTemperature = 0.7
	reasoningMaxTokens   = 2048
)

// ReasoningOptions configure a Reasoning worker.
type ReasoningOptions struct {
	Logger logging.Logger
}

// Reasoning answers tasks by calling the completion capability directly, with
// the persona system prompt, long-term memory context and rolling history.
type Reasoning struct {
	BaseWorker
	completer model.Completer
	persona   *persona.Provider
}

var _ core.Worker = (*Reasoning)(nil)

// NewReasoning constructs the reasoning worker.
func NewReasoning(completer model.Completer, p *persona.Provider, optFns ...func(o *ReasoningOptions)) *Reasoning {
	opts := ReasoningOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Reasoning{
		BaseWorker: NewBaseWorker(core.WorkerReasoning, reasoningDescription, opts.Logger),
		completer:  completer,
		persona:    p,
	}
}

// Run implements core.Worker.
func (w *Reasoning) Run(ctx context.Context, tc *core.TaskContext) (core.Outcome, error) {
	system := w.persona.BuildSystemPrompt(tc.MemoryContext)

	messages := make([]core.Message, 0, len(tc.History)+1)
	messages = append(messages, tc.History...)
	messages = append(messages, core.UserMessage(tc.Task))

	tc.Notify(ctx, fmt.Sprintf("[reasoning] %s is thinking...", w.persona.AssistantName()))

	output, err := w.completer.Complete(ctx, model.Request{
		System:      system,
		Messages:    messages,
		Temperature: reasoningTemperature,
		MaxTokens:   reasoningMaxTokens,
	})
	if err != nil {
		if ctx.Err() != nil {
			return core.Outcome{}, ctx.Err()
		}
		w.Logger().Error("reasoning completion failed", "error", err)
		return core.FailedOutcome(w.Name(), "", err.Error()), nil
	}

	return core.Outcome{
		Success:    true,
		Output:     output,
		WorkerName: w.Name(),
		Steps:      1,
	}, nil
}
