package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helmsman-ai/helmsman/core"
)

func TestInMemory_TaskLifecycle(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	id, err := s.TaskCreate(ctx, "cli", "local", "user", "check the weather")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := s.TaskGet(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, core.TaskStatusPending, rec.Status)
	assert.Equal(t, "check the weather", rec.Prompt)

	require.NoError(t, s.TaskStart(ctx, id))
	rec, _ = s.TaskGet(ctx, id)
	assert.Equal(t, core.TaskStatusRunning, rec.Status)

	require.NoError(t, s.TaskDone(ctx, id, "31°C", true, 3, 2*time.Second))
	rec, _ = s.TaskGet(ctx, id)
	assert.Equal(t, core.TaskStatusDone, rec.Status)
	assert.Equal(t, "31°C", rec.Output)
	assert.True(t, rec.Success)
	assert.Equal(t, 3, rec.Steps)
	assert.Equal(t, 2*time.Second, rec.Duration)
}

func TestInMemory_TaskDoneFailure(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	id, _ := s.TaskCreate(ctx, "cli", "local", "user", "task")
	require.NoError(t, s.TaskDone(ctx, id, "", false, 1, time.Second))

	rec, _ := s.TaskGet(ctx, id)
	assert.Equal(t, core.TaskStatusFailed, rec.Status)
}

func TestInMemory_TaskCancelIgnoresContextState(t *testing.T) {
	s := NewInMemory()

	id, err := s.TaskCreate(context.Background(), "cli", "local", "user", "task")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.TaskCancel(ctx, id))
	rec, _ := s.TaskGet(context.Background(), id)
	assert.Equal(t, core.TaskStatusCancelled, rec.Status)
}

func TestInMemory_UnknownTask(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	assert.Error(t, s.TaskStart(ctx, "nope"))
	assert.Error(t, s.TaskDone(ctx, "nope", "", true, 0, 0))
	assert.Error(t, s.TaskCancel(ctx, "nope"))

	rec, err := s.TaskGet(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestInMemory_Attachments(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	id, _ := s.TaskCreate(ctx, "cli", "local", "user", "task")
	attID, err := s.AttachmentSave(ctx, core.Attachment{
		TaskID: id, FileName: "a.png", FilePath: "shots/a.png",
		FileType: "screenshot", MimeType: "image/png", SizeBytes: 1234,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, attID)

	atts, err := s.AttachmentsForTask(ctx, id)
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, "screenshot", atts[0].FileType)
}

func TestInMemory_MemoryNewestFirst(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	for _, content := range []string{"first", "second", "third"} {
		_, err := s.MemoryAdd(ctx, core.Memory{
			Channel: "cli", ChannelID: "local", Content: content, Kind: "user_note",
		})
		require.NoError(t, err)
	}

	records, err := s.MemoryGetContext(ctx, "cli", "local", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "third", records[0].Content)
	assert.Equal(t, "second", records[1].Content)
}

func TestInMemory_MemoryDelete(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = s.MemoryAdd(ctx, core.Memory{Channel: "cli", ChannelID: "local", Content: "x", Kind: "user_note"})
	}
	_, _ = s.MemoryAdd(ctx, core.Memory{Channel: "telegram", ChannelID: "7", Content: "y", Kind: "user_note"})

	n, err := s.MemoryDelete(ctx, "cli", "local")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Other identities are untouched.
	records, _ := s.MemoryGetContext(ctx, "telegram", "7", 10)
	assert.Len(t, records, 1)
}

func TestInMemory_MemoryFormatForPrompt(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	frag, err := s.MemoryFormatForPrompt(ctx, "cli", "local", 10)
	require.NoError(t, err)
	assert.Empty(t, frag)

	_, _ = s.MemoryAdd(ctx, core.Memory{Channel: "cli", ChannelID: "local", Content: "older", Kind: "user_note"})
	_, _ = s.MemoryAdd(ctx, core.Memory{Channel: "cli", ChannelID: "local", Content: "newer", Kind: "task_result"})

	frag, err = s.MemoryFormatForPrompt(ctx, "cli", "local", 10)
	require.NoError(t, err)

	// Chronological render: oldest first under the header.
	assert.Equal(t, "Context from previous conversations:\n  [user_note] older\n  [task_result] newer", frag)
}

func TestInMemory_ConcurrentAccess(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.TaskCreate(ctx, "cli", "local", "user", "task")
			assert.NoError(t, err)
			assert.NoError(t, s.TaskStart(ctx, id))
			_, err = s.MemoryAdd(ctx, core.Memory{Channel: "cli", ChannelID: "local", Content: "c", Kind: "user_note"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	records, err := s.MemoryGetContext(ctx, "cli", "local", 0)
	require.NoError(t, err)
	assert.Len(t, records, 20)
}
