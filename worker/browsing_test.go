package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helmsman-ai/helmsman/core"
)

// stubDriver records the run call and replays a canned result.
type stubDriver struct {
	gotTask     string
	gotMaxSteps int
	stepInfos   []core.StepInfo
	result      core.DriverResult
	err         error
}

func (d *stubDriver) Run(ctx context.Context, task string, maxSteps int, onStep func(core.StepInfo)) (core.DriverResult, error) {
	d.gotTask = task
	d.gotMaxSteps = maxSteps
	if onStep != nil {
		for _, info := range d.stepInfos {
			onStep(info)
		}
	}
	if d.err != nil {
		return core.DriverResult{}, d.err
	}
	return d.result, nil
}

func TestBrowsing_Success(t *testing.T) {
	driver := &stubDriver{
		result: core.DriverResult{
			Success:     true,
			FinalOutput: "The weather in Jakarta is 31°C.",
			Steps:       3,
			Attachments: []string{"shots/a.png", "shots/a.png", "shots/b.png", ""},
		},
	}
	w := NewBrowsing(driver)

	out, err := w.Run(context.Background(), core.NewTaskContext("weather in Jakarta"))
	require.NoError(t, err)

	assert.True(t, out.Success)
	assert.Equal(t, "The weather in Jakarta is 31°C.", out.Output)
	assert.Equal(t, 3, out.Steps)
	assert.Equal(t, []string{"shots/a.png", "shots/b.png"}, out.Attachments)
}

func TestBrowsing_MemoryContextPrependedToTask(t *testing.T) {
	driver := &stubDriver{result: core.DriverResult{Success: true, FinalOutput: "done"}}
	w := NewBrowsing(driver)

	tc := core.NewTaskContext("find my usual coffee shop's hours")
	tc.MemoryContext = "Context from previous conversations:\n  [user_note] favorite cafe is Blue Door"

	_, err := w.Run(context.Background(), tc)
	require.NoError(t, err)

	assert.Contains(t, driver.gotTask, "favorite cafe is Blue Door")
	assert.Contains(t, driver.gotTask, "Current task:\nfind my usual coffee shop's hours")
}

func TestBrowsing_StepBudgetFromTaskContext(t *testing.T) {
	driver := &stubDriver{result: core.DriverResult{Success: true, FinalOutput: "done"}}
	w := NewBrowsing(driver)

	tc := core.NewTaskContext("browse")
	tc.Extra[core.ExtraStepBudget] = 7

	_, err := w.Run(context.Background(), tc)
	require.NoError(t, err)
	assert.Equal(t, 7, driver.gotMaxSteps)
}

func TestBrowsing_DefaultStepBudget(t *testing.T) {
	driver := &stubDriver{result: core.DriverResult{Success: true, FinalOutput: "done"}}
	w := NewBrowsing(driver, func(o *BrowsingOptions) { o.MaxSteps = 12 })

	_, err := w.Run(context.Background(), core.NewTaskContext("browse"))
	require.NoError(t, err)
	assert.Equal(t, 12, driver.gotMaxSteps)
}

func TestBrowsing_StepNotificationsAndTrace(t *testing.T) {
	driver := &stubDriver{
		stepInfos: []core.StepInfo{
			{Step: 1, Actions: []string{"navigate"}, NextGoal: "open the weather site"},
			{Step: 2, Actions: []string{"extract"}, NextGoal: "read the forecast"},
		},
		result: core.DriverResult{Success: true, FinalOutput: "31°C", Steps: 2},
	}
	w := NewBrowsing(driver)

	var updates []string
	tc := core.NewTaskContext("weather")
	tc.OnUpdate = func(_ context.Context, status string) error {
		updates = append(updates, status)
		return nil
	}

	out, err := w.Run(context.Background(), tc)
	require.NoError(t, err)

	require.Len(t, updates, 2)
	assert.Contains(t, updates[0], "[browsing] step 1: navigate")
	assert.Contains(t, updates[0], "open the weather site")

	trace, ok := out.Metadata[core.MetadataStepInfos].([]core.StepInfo)
	require.True(t, ok)
	assert.Len(t, trace, 2)
}

func TestBrowsing_EmptyOutputGetsPlaceholder(t *testing.T) {
	driver := &stubDriver{result: core.DriverResult{Success: true, Steps: 1}}
	w := NewBrowsing(driver)

	out, err := w.Run(context.Background(), core.NewTaskContext("browse"))
	require.NoError(t, err)
	assert.Equal(t, "Task finished without output.", out.Output)
}

func TestBrowsing_DriverFailure(t *testing.T) {
	driver := &stubDriver{err: assert.AnError}
	w := NewBrowsing(driver)

	out, err := w.Run(context.Background(), core.NewTaskContext("browse"))
	require.NoError(t, err)

	assert.False(t, out.Success)
	assert.Contains(t, out.Errors, assert.AnError.Error())
}

func TestBrowsing_CancelledContext(t *testing.T) {
	driver := &stubDriver{err: context.Canceled}
	w := NewBrowsing(driver)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Run(ctx, core.NewTaskContext("browse"))
	assert.ErrorIs(t, err, context.Canceled)
}
