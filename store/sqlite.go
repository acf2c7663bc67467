package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/helmsman-ai/helmsman/core"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS tasks (
  id TEXT PRIMARY KEY,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  channel TEXT NOT NULL,
  channel_id TEXT NOT NULL,
  username TEXT,
  prompt TEXT NOT NULL,
  status TEXT NOT NULL,
  output TEXT,
  success INTEGER,
  steps INTEGER NOT NULL DEFAULT 0,
  duration_ms INTEGER
);

CREATE INDEX IF NOT EXISTS idx_tasks_channel_created ON tasks(channel, channel_id, created_at);

CREATE TABLE IF NOT EXISTS step_logs (
  id TEXT PRIMARY KEY,
  task_id TEXT NOT NULL,
  step_num INTEGER NOT NULL,
  actions TEXT,
  next_goal TEXT,
  evaluation TEXT,
  url TEXT,
  created_at TEXT NOT NULL,
  FOREIGN KEY(task_id) REFERENCES tasks(id)
);

CREATE INDEX IF NOT EXISTS idx_step_logs_task_id ON step_logs(task_id);

CREATE TABLE IF NOT EXISTS attachments (
  id TEXT PRIMARY KEY,
  task_id TEXT NOT NULL,
  file_name TEXT NOT NULL,
  file_path TEXT NOT NULL,
  file_type TEXT NOT NULL,
  mime_type TEXT,
  size_bytes INTEGER,
  created_at TEXT NOT NULL,
  FOREIGN KEY(task_id) REFERENCES tasks(id)
);

CREATE INDEX IF NOT EXISTS idx_attachments_task_id ON attachments(task_id);

CREATE TABLE IF NOT EXISTS memories (
  id TEXT PRIMARY KEY,
  created_at TEXT NOT NULL,
  channel TEXT NOT NULL,
  channel_id TEXT NOT NULL,
  username TEXT,
  content TEXT NOT NULL,
  kind TEXT NOT NULL,
  source TEXT,
  task_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_memories_channel_created ON memories(channel, channel_id, created_at);
`

// Open opens (creating if necessary) the SQLite database at path, applies the
// pragmas and migrates the schema.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", stmt, err)
		}
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate applies the schema statements. Safe to run repeatedly.
func Migrate(db *sql.DB) error {
	statements := strings.Split(schemaSQL, ";")
	for _, raw := range statements {
		stmt := strings.TrimSpace(raw)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w (statement=%q)", err, stmt)
		}
	}
	return nil
}

// SQLite is a file-backed core.Store.
type SQLite struct {
	db *sql.DB
}

var _ core.Store = (*SQLite)(nil)

// NewSQLite wraps an opened database handle.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// TaskCreate implements core.Store.
func (s *SQLite) TaskCreate(ctx context.Context, channel, channelID, username, prompt string) (string, error) {
	id := core.NewID()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, created_at, updated_at, channel, channel_id, username, prompt, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, now, now, channel, channelID, nullString(username), prompt, core.TaskStatusPending)
	if err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}
	return id, nil
}

// TaskStart implements core.Store.
func (s *SQLite) TaskStart(ctx context.Context, taskID string) error {
	return s.setStatus(ctx, taskID, core.TaskStatusRunning)
}

// TaskDone implements core.Store.
func (s *SQLite) TaskDone(ctx context.Context, taskID, output string, success bool, steps int, duration time.Duration) error {
	status := core.TaskStatusDone
	if !success {
		status = core.TaskStatusFailed
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status=?, output=?, success=?, steps=?, duration_ms=?, updated_at=? WHERE id=?`,
		status, output, boolInt(success), steps, duration.Milliseconds(), now, taskID)
	if err != nil {
		return fmt.Errorf("finish task: %w", err)
	}
	return requireOneRow(res, taskID)
}

// TaskCancel implements core.Store. A fresh background-derived context is not
// needed here: the statement carries no ctx so cancellation marking succeeds
// even when the run's context is already done.
func (s *SQLite) TaskCancel(_ context.Context, taskID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.Exec(
		`UPDATE tasks SET status=?, updated_at=? WHERE id=?`,
		core.TaskStatusCancelled, now, taskID)
	if err != nil {
		return fmt.Errorf("cancel task: %w", err)
	}
	return requireOneRow(res, taskID)
}

func (s *SQLite) setStatus(ctx context.Context, taskID, status string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status=?, updated_at=? WHERE id=?`, status, now, taskID)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return requireOneRow(res, taskID)
}

// TaskGet returns one audit record by id, or nil when absent.
func (s *SQLite) TaskGet(ctx context.Context, taskID string) (*core.TaskRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at, channel, channel_id, username, prompt, status, output, success, steps, duration_ms
		 FROM tasks WHERE id=?`, taskID)
	rec, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return rec, nil
}

// TaskList returns the newest audit records for a channel identity.
func (s *SQLite) TaskList(ctx context.Context, channel, channelID string, limit int) ([]core.TaskRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, updated_at, channel, channel_id, username, prompt, status, output, success, steps, duration_ms
		 FROM tasks WHERE channel=? AND channel_id=? ORDER BY created_at DESC LIMIT ?`,
		channel, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []core.TaskRecord
	for rows.Next() {
		rec, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return out, nil
}

// StepLog implements core.Store.
func (s *SQLite) StepLog(ctx context.Context, taskID string, stepNum int, actions []string, nextGoal, evaluation, url string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO step_logs (id, task_id, step_num, actions, next_goal, evaluation, url, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		core.NewID(), taskID, stepNum, strings.Join(actions, ","),
		nullString(nextGoal), nullString(evaluation), nullString(url), now)
	if err != nil {
		return fmt.Errorf("insert step log: %w", err)
	}
	return nil
}

// AttachmentSave implements core.Store.
func (s *SQLite) AttachmentSave(ctx context.Context, att core.Attachment) (string, error) {
	id := core.NewID()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attachments (id, task_id, file_name, file_path, file_type, mime_type, size_bytes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, att.TaskID, att.FileName, att.FilePath, att.FileType,
		nullString(att.MimeType), nullInt(att.SizeBytes), now)
	if err != nil {
		return "", fmt.Errorf("insert attachment: %w", err)
	}
	return id, nil
}

// AttachmentsForTask returns all attachments recorded for a task.
func (s *SQLite) AttachmentsForTask(ctx context.Context, taskID string) ([]core.Attachment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, file_name, file_path, file_type, mime_type, size_bytes
		 FROM attachments WHERE task_id=? ORDER BY created_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var out []core.Attachment
	for rows.Next() {
		var att core.Attachment
		var mime sql.NullString
		var size sql.NullInt64
		if err := rows.Scan(&att.TaskID, &att.FileName, &att.FilePath, &att.FileType, &mime, &size); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		att.MimeType = mime.String
		att.SizeBytes = size.Int64
		out = append(out, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return out, nil
}

// MemoryAdd implements core.Store.
func (s *SQLite) MemoryAdd(ctx context.Context, mem core.Memory) (string, error) {
	id := core.NewID()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memories (id, created_at, channel, channel_id, username, content, kind, source, task_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, now, mem.Channel, mem.ChannelID, nullString(mem.Username),
		mem.Content, mem.Kind, nullString(mem.Source), nullString(mem.TaskID))
	if err != nil {
		return "", fmt.Errorf("insert memory: %w", err)
	}
	return id, nil
}

// MemoryGetContext implements core.Store; newest entries first.
func (s *SQLite) MemoryGetContext(ctx context.Context, channel, channelID string, limit int) ([]core.MemoryRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, channel, channel_id, content, kind, source
		 FROM memories WHERE channel=? AND channel_id=? ORDER BY created_at DESC LIMIT ?`,
		channel, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	defer rows.Close()

	var out []core.MemoryRecord
	for rows.Next() {
		var rec core.MemoryRecord
		var createdAt string
		var source sql.NullString
		if err := rows.Scan(&rec.ID, &createdAt, &rec.Channel, &rec.ChannelID, &rec.Content, &rec.Kind, &source); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		rec.Source = source.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memories: %w", err)
	}
	return out, nil
}

// MemoryDelete implements core.Store.
func (s *SQLite) MemoryDelete(ctx context.Context, channel, channelID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM memories WHERE channel=? AND channel_id=?`, channel, channelID)
	if err != nil {
		return 0, fmt.Errorf("delete memories: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete memories: %w", err)
	}
	return int(n), nil
}

// MemoryFormatForPrompt implements core.Store.
func (s *SQLite) MemoryFormatForPrompt(ctx context.Context, channel, channelID string, limit int) (string, error) {
	records, err := s.MemoryGetContext(ctx, channel, channelID, limit)
	if err != nil {
		return "", err
	}
	return FormatForPrompt(records), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*core.TaskRecord, error) {
	var rec core.TaskRecord
	var createdAt, updatedAt string
	var username, output sql.NullString
	var success sql.NullInt64
	var durationMs sql.NullInt64
	if err := row.Scan(&rec.ID, &createdAt, &updatedAt, &rec.Channel, &rec.ChannelID,
		&username, &rec.Prompt, &rec.Status, &output, &success, &rec.Steps, &durationMs); err != nil {
		return nil, err
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	rec.Username = username.String
	rec.Output = output.String
	rec.Success = success.Int64 == 1
	rec.Duration = time.Duration(durationMs.Int64) * time.Millisecond
	return &rec, nil
}

func requireOneRow(res sql.Result, taskID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task %s not found", taskID)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
