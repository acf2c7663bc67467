package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageConstructors(t *testing.T) {
	u := UserMessage("hello")
	assert.Equal(t, RoleUser, u.Role)
	assert.Equal(t, "hello", u.Content)

	a := AssistantMessage("hi there")
	assert.Equal(t, RoleAssistant, a.Role)
	assert.Equal(t, "hi there", a.Content)
}

func TestNewTaskContextDefaults(t *testing.T) {
	tc := NewTaskContext("do the thing")

	assert.Equal(t, "do the thing", tc.Task)
	assert.Equal(t, "cli", tc.Channel)
	assert.Equal(t, "local", tc.ChannelID)
	assert.Equal(t, "user", tc.Username)
	assert.NotNil(t, tc.Extra)
	assert.Empty(t, tc.TaskID)
}

func TestTaskContextNotify(t *testing.T) {
	tc := NewTaskContext("task")

	// No callback set: Notify is a no-op.
	tc.Notify(context.Background(), "ignored")

	var got []string
	tc.OnUpdate = func(_ context.Context, status string) error {
		got = append(got, status)
		return errors.New("delivery failed")
	}

	// Delivery errors are swallowed.
	tc.Notify(context.Background(), "working")
	require.Equal(t, []string{"working"}, got)
}

func TestFailedOutcome(t *testing.T) {
	out := FailedOutcome("browsing", "no result", "timeout", "dns error")

	assert.False(t, out.Success)
	assert.Equal(t, "browsing", out.WorkerName)
	assert.Equal(t, "no result", out.Output)
	assert.Equal(t, []string{"timeout", "dns error"}, out.Errors)
}

func TestResultFormat(t *testing.T) {
	res := Result{
		Success:    true,
		Output:     "31°C and sunny",
		WorkerName: "browsing",
		Steps:      4,
	}

	formatted := res.Format()
	assert.Contains(t, formatted, "Status: Done")
	assert.Contains(t, formatted, "Worker: browsing")
	assert.Contains(t, formatted, "Steps: 4")
	assert.Contains(t, formatted, "31°C and sunny")
	assert.NotContains(t, formatted, "Errors:")
}

func TestResultFormatFailure(t *testing.T) {
	res := Result{
		Success:    false,
		Output:     "could not load the page",
		WorkerName: "browsing",
		Errors:     []string{"net::ERR_NAME_NOT_RESOLVED", ""},
	}

	formatted := res.Format()
	assert.Contains(t, formatted, "Status: Failed")
	assert.Contains(t, formatted, "Errors:\n- net::ERR_NAME_NOT_RESOLVED")
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
