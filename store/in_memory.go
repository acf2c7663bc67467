package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/helmsman-ai/helmsman/core"
)

// InMemory is a volatile core.Store implementation keeping all records in
// process-local maps. It is safe for concurrent access and best suited for
// tests or running without a database file.
type InMemory struct {
	mu          sync.RWMutex
	tasks       map[string]*core.TaskRecord
	steps       map[string][]StepEntry         // taskID -> steps
	attachments map[string][]core.Attachment   // taskID -> attachments
	memories    map[string][]core.MemoryRecord // channel:channelID -> oldest first
}

// StepEntry is one recorded execution step of a task.
type StepEntry struct {
	StepNum    int
	Actions    []string
	NextGoal   string
	Evaluation string
	URL        string
}

var _ core.Store = (*InMemory)(nil)

// NewInMemory constructs an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		tasks:       make(map[string]*core.TaskRecord),
		steps:       make(map[string][]StepEntry),
		attachments: make(map[string][]core.Attachment),
		memories:    make(map[string][]core.MemoryRecord),
	}
}

func memKey(channel, channelID string) string {
	return channel + ":" + channelID
}

// TaskCreate implements core.Store.
func (s *InMemory) TaskCreate(ctx context.Context, channel, channelID, username, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := core.NewID()
	now := time.Now().UTC()
	s.tasks[id] = &core.TaskRecord{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		Channel:   channel,
		ChannelID: channelID,
		Username:  username,
		Prompt:    prompt,
		Status:    core.TaskStatusPending,
	}
	return id, nil
}

// TaskStart implements core.Store.
func (s *InMemory) TaskStart(ctx context.Context, taskID string) error {
	return s.setStatus(ctx, taskID, core.TaskStatusRunning)
}

// TaskDone implements core.Store.
func (s *InMemory) TaskDone(ctx context.Context, taskID, output string, success bool, steps int, duration time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %s not found", taskID)
	}
	rec.Status = core.TaskStatusDone
	if !success {
		rec.Status = core.TaskStatusFailed
	}
	rec.Output = output
	rec.Success = success
	rec.Steps = steps
	rec.Duration = duration
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

// TaskCancel implements core.Store.
func (s *InMemory) TaskCancel(ctx context.Context, taskID string) error {
	// Cancellation marking must succeed even when the surrounding context is
	// already cancelled, so ctx is deliberately not consulted here.
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %s not found", taskID)
	}
	rec.Status = core.TaskStatusCancelled
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemory) setStatus(ctx context.Context, taskID, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %s not found", taskID)
	}
	rec.Status = status
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

// TaskGet returns one audit record by id, or nil when absent.
func (s *InMemory) TaskGet(_ context.Context, taskID string) (*core.TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tasks[taskID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// StepLog implements core.Store.
func (s *InMemory) StepLog(ctx context.Context, taskID string, stepNum int, actions []string, nextGoal, evaluation, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps[taskID] = append(s.steps[taskID], StepEntry{
		StepNum: stepNum, Actions: actions, NextGoal: nextGoal, Evaluation: evaluation, URL: url,
	})
	return nil
}

// StepsForTask returns all steps recorded for a task in insertion order.
func (s *InMemory) StepsForTask(taskID string) []StepEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StepEntry, len(s.steps[taskID]))
	copy(out, s.steps[taskID])
	return out
}

// AttachmentSave implements core.Store.
func (s *InMemory) AttachmentSave(ctx context.Context, att core.Attachment) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments[att.TaskID] = append(s.attachments[att.TaskID], att)
	return core.NewID(), nil
}

// AttachmentsForTask returns all attachments recorded for a task.
func (s *InMemory) AttachmentsForTask(_ context.Context, taskID string) ([]core.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Attachment, len(s.attachments[taskID]))
	copy(out, s.attachments[taskID])
	return out, nil
}

// MemoryAdd implements core.Store.
func (s *InMemory) MemoryAdd(ctx context.Context, mem core.Memory) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := core.NewID()
	k := memKey(mem.Channel, mem.ChannelID)
	s.memories[k] = append(s.memories[k], core.MemoryRecord{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Channel:   mem.Channel,
		ChannelID: mem.ChannelID,
		Content:   mem.Content,
		Kind:      mem.Kind,
		Source:    mem.Source,
	})
	return id, nil
}

// MemoryGetContext implements core.Store; newest entries first.
func (s *InMemory) MemoryGetContext(ctx context.Context, channel, channelID string, limit int) ([]core.MemoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.memories[memKey(channel, channelID)]
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	out := make([]core.MemoryRecord, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// MemoryDelete implements core.Store.
func (s *InMemory) MemoryDelete(ctx context.Context, channel, channelID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memKey(channel, channelID)
	count := len(s.memories[k])
	delete(s.memories, k)
	return count, nil
}

// MemoryFormatForPrompt implements core.Store; renders oldest first so the
// prompt reads chronologically.
func (s *InMemory) MemoryFormatForPrompt(ctx context.Context, channel, channelID string, limit int) (string, error) {
	records, err := s.MemoryGetContext(ctx, channel, channelID, limit)
	if err != nil {
		return "", err
	}
	return FormatForPrompt(records), nil
}

// FormatForPrompt renders newest-first memory records as an injectable prompt
// fragment, oldest first. Returns "" for empty input.
func FormatForPrompt(newestFirst []core.MemoryRecord) string {
	if len(newestFirst) == 0 {
		return ""
	}
	lines := []string{"Context from previous conversations:"}
	for i := len(newestFirst) - 1; i >= 0; i-- {
		r := newestFirst[i]
		lines = append(lines, fmt.Sprintf("  [%s] %s", r.Kind, r.Content))
	}
	return strings.Join(lines, "\n")
}
