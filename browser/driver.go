package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/helmsman-ai/helmsman/core"
	"github.com/helmsman-ai/helmsman/logging"
	"github.com/helmsman-ai/helmsman/model"
)

const plannerSystem = `You control a web browser to complete the user's task, one action per step.

Available actions:
- {"action": "navigate", "url": "<absolute url>", "goal": "<why>"}
- {"action": "extract", "goal": "<what to look for on the current page>"}
- {"action": "screenshot", "goal": "<why>"}
- {"action": "finish", "result": "<final answer for the user>", "success": true|false}

Rules:
- ALWAYS respond with ONLY one valid JSON object in one of the formats above
- Use "extract" to read the current page before deciding what to do next
- Use "finish" as soon as the task is answerable; put the complete answer in "result"
- If the task cannot be completed, finish with "success": false and explain in "result"`

// plannerAction is the strict JSON shape requested from the planning model.
type plannerAction struct {
	Action  string `json:"action"`
	URL     string `json:"url,omitempty"`
	Goal    string `json:"goal,omitempty"`
	Result  string `json:"result,omitempty"`
	Success bool   `json:"success,omitempty"`
}

const (
	pageExcerptMaxChars = 3000
	plannerMaxTokens    = 600
)

// Options configure the rod Driver.
type Options struct {
	// Headless runs Chromium without a visible window.
	Headless bool
	// BinPath overrides the browser executable; empty means rod's managed
	// download or system default.
	BinPath string
	// ScreenshotDir is where screenshot attachments are written.
	ScreenshotDir string
	// NavigationTimeout bounds each page load.
	NavigationTimeout time.Duration
	// Instruction supplies an extra system instruction per run, typically
	// the persona's condensed browsing instruction. May be nil.
	Instruction func() string
	Logger      logging.Logger
}

// Driver is the rod-backed browsing engine.
type Driver struct {
	completer model.Completer
	opts      Options
}

var _ core.BrowserDriver = (*Driver)(nil)

// New constructs a Driver planning with the given completer.
func New(completer model.Completer, optFns ...func(o *Options)) *Driver {
	opts := Options{
		Headless:          true,
		ScreenshotDir:     "screenshots",
		NavigationTimeout: 30 * time.Second,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Driver{completer: completer, opts: opts}
}

// Run implements core.BrowserDriver.
func (d *Driver) Run(ctx context.Context, task string, maxSteps int, onStep func(core.StepInfo)) (core.DriverResult, error) {
	l := launcher.New().Headless(d.opts.Headless)
	if d.opts.BinPath != "" {
		l = l.Bin(d.opts.BinPath)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return core.DriverResult{}, fmt.Errorf("launch browser: %w", err)
	}
	defer l.Cleanup()

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return core.DriverResult{}, fmt.Errorf("connect browser: %w", err)
	}
	defer func() { _ = b.Close() }()

	page, err := b.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return core.DriverResult{}, fmt.Errorf("open page: %w", err)
	}

	system := d.systemPrompt()
	run := runState{task: task}
	res := core.DriverResult{}

	for step := 1; step <= maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		act, err := d.plan(ctx, system, &run, page)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Errors = append(res.Errors, err.Error())
			res.Steps = step
			return res, nil
		}

		if onStep != nil {
			onStep(core.StepInfo{Step: step, Actions: []string{act.Action}, NextGoal: act.Goal, URL: run.currentURL})
		}
		res.Steps = step

		if act.Action == "finish" {
			res.Success = act.Success
			res.FinalOutput = act.Result
			return res, nil
		}
		if err := d.execute(ctx, page, act, &run, &res); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			d.opts.Logger.Warn("browser action failed", "action", act.Action, "error", err)
			res.Errors = append(res.Errors, err.Error())
			run.note(fmt.Sprintf("step %d: %s failed: %v", step, act.Action, err))
		}
	}

	res.Success = false
	res.FinalOutput = run.lastExcerpt
	res.Errors = append(res.Errors, fmt.Sprintf("step budget of %d exhausted", maxSteps))
	return res, nil
}

// systemPrompt combines the fixed planner contract with the configured
// per-run instruction, typically the persona's condensed browsing directive.
func (d *Driver) systemPrompt() string {
	system := plannerSystem
	if d.opts.Instruction != nil {
		if extra := d.opts.Instruction(); extra != "" {
			system += "\n\n" + extra
		}
	}
	return system
}

// runState accumulates what the planner has seen so far in one run.
type runState struct {
	task        string
	currentURL  string
	title       string
	lastExcerpt string
	history     []string
}

func (r *runState) note(line string) {
	r.history = append(r.history, line)
}

// plan asks the completion capability for the next action as strict JSON.
func (d *Driver) plan(ctx context.Context, system string, run *runState, page *rod.Page) (plannerAction, error) {
	d.observe(page, run)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Task:\n%s\n\n", run.task)
	if run.currentURL != "" {
		fmt.Fprintf(&sb, "Current page: %s (%s)\n", run.currentURL, run.title)
	} else {
		sb.WriteString("Current page: none yet\n")
	}
	if run.lastExcerpt != "" {
		fmt.Fprintf(&sb, "\nCurrent page text (truncated):\n%s\n", run.lastExcerpt)
	}
	if len(run.history) > 0 {
		fmt.Fprintf(&sb, "\nActions so far:\n%s\n", strings.Join(run.history, "\n"))
	}
	sb.WriteString("\nNext action?")

	raw, err := d.completer.Complete(ctx, model.Request{
		System:      system,
		Messages:    []core.Message{core.UserMessage(sb.String())},
		Temperature: 0,
		MaxTokens:   plannerMaxTokens,
		ForceJSON:   true,
	})
	if err != nil {
		return plannerAction{}, fmt.Errorf("plan step: %w", err)
	}

	var act plannerAction
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &act); err != nil {
		return plannerAction{}, fmt.Errorf("plan step: malformed action %q: %w", raw, err)
	}
	return act, nil
}

// execute performs one planned action against the page.
func (d *Driver) execute(ctx context.Context, page *rod.Page, act plannerAction, run *runState, res *core.DriverResult) error {
	switch act.Action {
	case "navigate":
		if act.URL == "" {
			return fmt.Errorf("navigate: empty url")
		}
		p := page.Timeout(d.opts.NavigationTimeout)
		if err := p.Navigate(act.URL); err != nil {
			return fmt.Errorf("navigate %s: %w", act.URL, err)
		}
		if err := p.WaitLoad(); err != nil {
			return fmt.Errorf("wait load %s: %w", act.URL, err)
		}
		run.note("navigated to " + act.URL)
		return nil

	case "extract":
		d.observe(page, run)
		run.note("extracted page text from " + run.currentURL)
		return nil

	case "screenshot":
		path, err := d.screenshot(page)
		if err != nil {
			return err
		}
		res.Attachments = append(res.Attachments, path)
		run.note("saved screenshot " + filepath.Base(path))
		return nil

	default:
		return fmt.Errorf("unknown action %q", act.Action)
	}
}

// observe refreshes the run state with the page's URL, title and body text.
// Failures leave the previous observation in place; a blank page is normal at
// step one.
func (d *Driver) observe(page *rod.Page, run *runState) {
	info, err := page.Info()
	if err != nil {
		return
	}
	run.currentURL = info.URL
	run.title = info.Title

	body, err := page.Element("body")
	if err != nil {
		return
	}
	text, err := body.Text()
	if err != nil {
		return
	}
	text = strings.TrimSpace(text)
	if len(text) > pageExcerptMaxChars {
		text = text[:pageExcerptMaxChars]
	}
	run.lastExcerpt = text
}

// screenshot captures the viewport to a timestamped PNG under ScreenshotDir.
func (d *Driver) screenshot(page *rod.Page) (string, error) {
	data, err := page.Screenshot(false, nil)
	if err != nil {
		return "", fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.MkdirAll(d.opts.ScreenshotDir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}
	name := fmt.Sprintf("screenshot_%s.png", time.Now().Format("20060102_150405.000"))
	path := filepath.Join(d.opts.ScreenshotDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}
