// Package helmsman provides a high-level façade over the orchestration core
// (router, workers, gate, session manager, persona & store) enabling rapid
// construction of a personal assistant. Most applications interact with this
// package by:
//  1. Creating an Assistant via New() with a model.Completer (optionally
//     overriding the default in-memory store and browsing driver)
//  2. Calling Run() with the user's free-text task
//
// The façade delegates execution to orchestrator.Orchestrator while keeping
// setup ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply the SQLite store and a
// structured logger.
package helmsman

import (
	"context"

	"github.com/helmsman-ai/helmsman/browser"
	"github.com/helmsman-ai/helmsman/core"
	"github.com/helmsman-ai/helmsman/gate"
	"github.com/helmsman-ai/helmsman/logging"
	"github.com/helmsman-ai/helmsman/model"
	"github.com/helmsman-ai/helmsman/orchestrator"
	"github.com/helmsman-ai/helmsman/persona"
	"github.com/helmsman-ai/helmsman/router"
	"github.com/helmsman-ai/helmsman/session"
	"github.com/helmsman-ai/helmsman/store"
	"github.com/helmsman-ai/helmsman/worker"
)

// Options configures the Assistant instance.
type Options struct {
	// CharacterPath and OwnerPath locate the persona source files. Missing
	// files degrade to the minimal default persona.
	CharacterPath string
	OwnerPath     string

	// Store persists the audit trail and long-term memory (defaults to
	// in-memory).
	Store core.Store

	// Driver backs the browsing worker. Nil constructs the default headless
	// browser driver planned by the same completer.
	Driver core.BrowserDriver

	// BrowsingStepBudget caps each browsing run. Zero keeps the worker
	// default.
	BrowsingStepBudget int

	// ScreenshotDir is where the default driver writes screenshots.
	ScreenshotDir string

	// BrowserHeadless and BrowserBinPath configure the default driver's
	// Chromium process. Ignored when Driver is set.
	BrowserHeadless bool
	BrowserBinPath  string

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Assistant is the high-level façade aggregating the orchestration core and
// its services.
type Assistant struct {
	persona      *persona.Provider
	orchestrator *orchestrator.Orchestrator
	sessions     *session.Manager
	store        core.Store
	logger       logging.Logger
}

// New creates an Assistant with optional overrides. Any unset service is
// initialized with an in-memory or local default.
func New(completer model.Completer, optFns ...func(o *Options)) *Assistant {
	opts := Options{
		CharacterPath:   "persona/character.md",
		OwnerPath:       "persona/owner.md",
		Store:           store.NewInMemory(),
		ScreenshotDir:   "screenshots",
		BrowserHeadless: true,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	p := persona.NewProvider(opts.CharacterPath, opts.OwnerPath, func(o *persona.Options) {
		o.Logger = opts.Logger
	})

	driver := opts.Driver
	if driver == nil {
		driver = browser.New(completer, func(o *browser.Options) {
			o.Headless = opts.BrowserHeadless
			o.BinPath = opts.BrowserBinPath
			o.ScreenshotDir = opts.ScreenshotDir
			o.Instruction = p.BuildBrowsingInstruction
			o.Logger = opts.Logger
		})
	}

	sessions := session.NewManager()

	workers := []core.Worker{
		worker.NewBrowsing(driver, func(o *worker.BrowsingOptions) { o.Logger = opts.Logger }),
		worker.NewReasoning(completer, p, func(o *worker.ReasoningOptions) { o.Logger = opts.Logger }),
		worker.NewMemory(opts.Store, func(o *worker.MemoryOptions) { o.Logger = opts.Logger }),
	}

	r := router.New(completer, func(o *router.Options) { o.Logger = opts.Logger })

	orch := orchestrator.New(r, func(o *orchestrator.Options) {
		o.Workers = workers
		o.Store = opts.Store
		o.Sessions = sessions
		o.Gate = gate.New()
		o.BrowsingStepBudget = opts.BrowsingStepBudget
		o.Logger = opts.Logger
	})

	return &Assistant{
		persona:      p,
		orchestrator: orch,
		sessions:     sessions,
		store:        opts.Store,
		logger:       opts.Logger,
	}
}

// Run executes one free-text task with CLI channel defaults and returns the
// final Result.
func (a *Assistant) Run(ctx context.Context, task string) core.Result {
	return a.orchestrator.Run(ctx, core.NewTaskContext(task))
}

// RunContext executes one task with caller-supplied channel identity, history
// and notification callback.
func (a *Assistant) RunContext(ctx context.Context, tc *core.TaskContext) core.Result {
	return a.orchestrator.Run(ctx, tc)
}

// UpsertWorker registers an additional worker with the orchestrator.
func (a *Assistant) UpsertWorker(w core.Worker) { a.orchestrator.UpsertWorker(w) }

// Persona exposes the persona provider, e.g. for channel frontends that greet
// by assistant name.
func (a *Assistant) Persona() *persona.Provider { return a.persona }

// Sessions exposes the conversation history manager.
func (a *Assistant) Sessions() *session.Manager { return a.sessions }
