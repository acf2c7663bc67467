package worker

import (
	"context"
	"fmt"
	"strings"

	"github.com/helmsman-ai/helmsman/core"
	"github.com/helmsman-ai/helmsman/logging"
)

const memoryDescription = "Memory management worker. Use for: saving important facts or preferences " +
	"(\"remember that...\", \"save this\"), recalling past information " +
	"(\"what do you know about me?\", \"what did we discuss?\"), " +
	"listing stored memories, or deleting memories."

// Keyword families for intent detection. English keywords per the contract,
// Indonesian ones carried over from the original deployment.
var (
	deleteKeywords = []string{"delete", "forget", "clear", "erase", "hapus", "lupa", "bersihkan"}
	listKeywords   = []string{"list", "show", "what do you know", "tampilkan", "ingat apa", "tau apa", "apa yang"}
	savePrefixes   = []string{
		"ingat bahwa ", "ingat ", "remember that ", "remember ",
		"simpan ", "save ", "catat ", "note ",
	}
)

const (
	memoryListLimit      = 10
	memoryDigestMaxChars = 150
	savedEchoMaxChars    = 100
)

// MemoryOptions configure a Memory worker.
type MemoryOptions struct {
	Logger logging.Logger
}

// Memory interprets memory-management tasks without the router's classifier,
// via an explicit ordered rule list with fixed precedence: delete, then list,
// then save. The tie-break order is part of the contract: "forget what I
// listed" deletes, it does not list.
type Memory struct {
	BaseWorker
	store core.Store
	rules []intentRule
}

// intentRule pairs a predicate over the lowercased task text with its
// handler. Rules are evaluated in order; the first match wins.
type intentRule struct {
	name    string
	matches func(taskLower string) bool
	handle  func(ctx context.Context, tc *core.TaskContext) core.Outcome
}

var _ core.Worker = (*Memory)(nil)

// NewMemory constructs the memory worker over the given store.
func NewMemory(store core.Store, optFns ...func(o *MemoryOptions)) *Memory {
	opts := MemoryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	w := &Memory{
		BaseWorker: NewBaseWorker(core.WorkerMemory, memoryDescription, opts.Logger),
		store:      store,
	}
	w.rules = []intentRule{
		{name: "delete", matches: containsAny(deleteKeywords), handle: w.handleDelete},
		{name: "list", matches: containsAny(listKeywords), handle: w.handleList},
	}
	return w
}

// Run implements core.Worker. Tasks matching no delete/list rule are treated
// as save intent.
func (w *Memory) Run(ctx context.Context, tc *core.TaskContext) (core.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return core.Outcome{}, err
	}
	taskLower := strings.ToLower(tc.Task)
	for _, rule := range w.rules {
		if rule.matches(taskLower) {
			w.Logger().Debug("memory intent matched", "rule", rule.name)
			return rule.handle(ctx, tc), nil
		}
	}
	return w.handleSave(ctx, tc), nil
}

func (w *Memory) handleDelete(ctx context.Context, tc *core.TaskContext) core.Outcome {
	count, err := w.store.MemoryDelete(ctx, tc.Channel, tc.ChannelID)
	if err != nil {
		return core.FailedOutcome(w.Name(), "Could not delete memory.", err.Error())
	}
	return core.Outcome{
		Success:    true,
		Output:     fmt.Sprintf("%d memories deleted.", count),
		WorkerName: w.Name(),
	}
}

func (w *Memory) handleList(ctx context.Context, tc *core.TaskContext) core.Outcome {
	records, err := w.store.MemoryGetContext(ctx, tc.Channel, tc.ChannelID, memoryListLimit)
	if err != nil {
		return core.FailedOutcome(w.Name(), "Could not read memory.", err.Error())
	}
	if len(records) == 0 {
		return core.Outcome{
			Success:    true,
			Output:     "No memory stored yet.",
			WorkerName: w.Name(),
		}
	}
	// Records arrive newest first and are rendered in that order.
	lines := []string{"Stored memories:"}
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("[%s] %s: %s",
			r.Kind, r.CreatedAt.Format("02/01 15:04"), truncate(r.Content, memoryDigestMaxChars)))
	}
	return core.Outcome{
		Success:    true,
		Output:     strings.Join(lines, "\n"),
		WorkerName: w.Name(),
	}
}

func (w *Memory) handleSave(ctx context.Context, tc *core.TaskContext) core.Outcome {
	content := stripSavePrefix(tc.Task)
	if content == "" {
		return core.FailedOutcome(w.Name(), "Nothing to save.")
	}
	_, err := w.store.MemoryAdd(ctx, core.Memory{
		Channel:   tc.Channel,
		ChannelID: tc.ChannelID,
		Username:  tc.Username,
		Content:   content,
		Kind:      "user_note",
		Source:    "user_explicit",
	})
	if err != nil {
		return core.FailedOutcome(w.Name(), "Could not save memory.", err.Error())
	}
	return core.Outcome{
		Success:    true,
		Output:     fmt.Sprintf("Saved: %q", truncate(content, savedEchoMaxChars)),
		WorkerName: w.Name(),
	}
}

// stripSavePrefix removes the first recognized leading phrase, preserving the
// remainder verbatim. Unprefixed tasks are returned unchanged.
func stripSavePrefix(task string) string {
	taskLower := strings.ToLower(task)
	for _, prefix := range savePrefixes {
		if strings.HasPrefix(taskLower, prefix) {
			return strings.TrimSpace(task[len(prefix):])
		}
	}
	return strings.TrimSpace(task)
}

func containsAny(keywords []string) func(string) bool {
	return func(taskLower string) bool {
		for _, k := range keywords {
			if strings.Contains(taskLower, k) {
				return true
			}
		}
		return false
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
