package core

import (
	"context"
	"time"
)

// Task lifecycle statuses persisted by Store implementations.
const (
	TaskStatusPending   = "PENDING"
	TaskStatusRunning   = "RUNNING"
	TaskStatusDone      = "DONE"
	TaskStatusFailed    = "FAILED"
	TaskStatusCancelled = "CANCELLED"
)

// TaskRecord is the persisted audit representation of one orchestrated task.
type TaskRecord struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Channel   string
	ChannelID string
	Username  string
	Prompt    string
	Status    string
	Output    string
	Success   bool
	Steps     int
	Duration  time.Duration
}

// MemoryRecord is one long-term memory entry scoped to a (channel, channel id)
// identity.
type MemoryRecord struct {
	ID        string
	CreatedAt time.Time
	Channel   string
	ChannelID string
	Content   string
	Kind      string // "user_note", "task_result", ...
	Source    string // worker name or "user_explicit"
}

// Memory describes a long-term memory entry to persist.
type Memory struct {
	Channel   string
	ChannelID string
	Username  string
	Content   string
	Kind      string
	Source    string
	TaskID    string // optional originating audit record
}

// Attachment describes a produced file to record against an audit task.
type Attachment struct {
	TaskID    string
	FileName  string
	FilePath  string
	FileType  string // "screenshot" or "file"
	MimeType  string
	SizeBytes int64 // 0 when unknown
}

// Store persists the audit trail (tasks, steps, attachments) and long-term
// memory. Every method may fail with a transport or storage error; callers in
// the orchestration path treat such failures as best-effort and continue.
type Store interface {
	// TaskCreate inserts a PENDING audit record and returns its id.
	TaskCreate(ctx context.Context, channel, channelID, username, prompt string) (string, error)

	// TaskStart marks the record RUNNING.
	TaskStart(ctx context.Context, taskID string) error

	// TaskDone marks the record DONE or FAILED with the final output,
	// step count and wall-clock duration.
	TaskDone(ctx context.Context, taskID, output string, success bool, steps int, duration time.Duration) error

	// TaskCancel marks the record CANCELLED.
	TaskCancel(ctx context.Context, taskID string) error

	// StepLog records one execution step of a worker.
	StepLog(ctx context.Context, taskID string, stepNum int, actions []string, nextGoal, evaluation, url string) error

	// AttachmentSave records a produced file and returns the attachment id.
	AttachmentSave(ctx context.Context, att Attachment) (string, error)

	// MemoryAdd persists a long-term memory entry and returns its id.
	MemoryAdd(ctx context.Context, mem Memory) (string, error)

	// MemoryGetContext returns the newest memory entries first, up to limit.
	MemoryGetContext(ctx context.Context, channel, channelID string, limit int) ([]MemoryRecord, error)

	// MemoryDelete removes all memory for the identity and returns the count.
	MemoryDelete(ctx context.Context, channel, channelID string) (int, error)

	// MemoryFormatForPrompt renders recent memory as an injectable prompt
	// fragment, oldest first. Returns "" when no memory is stored.
	MemoryFormatForPrompt(ctx context.Context, channel, channelID string, limit int) (string, error)
}
