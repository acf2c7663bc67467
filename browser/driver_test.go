package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helmsman-ai/helmsman/model"
)

// Driver construction and prompt assembly are testable without a browser;
// Run itself needs a live Chromium and is exercised through the
// core.BrowserDriver seam elsewhere.

func TestDriver_SystemPromptIncludesInstruction(t *testing.T) {
	d := New(model.NewMockCompleter(""), func(o *Options) {
		o.Instruction = func() string { return "You are browsing on behalf of Mirai." }
	})

	prompt := d.systemPrompt()
	assert.Contains(t, prompt, "Available actions:")
	assert.Contains(t, prompt, "You are browsing on behalf of Mirai.")
}

func TestDriver_SystemPromptWithoutInstruction(t *testing.T) {
	d := New(model.NewMockCompleter(""))

	assert.Equal(t, plannerSystem, d.systemPrompt())
}

func TestDriver_Defaults(t *testing.T) {
	d := New(model.NewMockCompleter(""))

	assert.True(t, d.opts.Headless)
	assert.Equal(t, "screenshots", d.opts.ScreenshotDir)
}
