package worker

import "github.com/helmsman-ai/helmsman/logging"

// BaseWorker bundles the identity fields shared by all worker variants. Embed
// it and supply a Run method to satisfy core.Worker.
type BaseWorker struct {
	name        string
	description string
	logger      logging.Logger
}

// NewBaseWorker constructs a BaseWorker with a guaranteed non-nil logger.
func NewBaseWorker(name, description string, logger logging.Logger) BaseWorker {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return BaseWorker{name: name, description: description, logger: logger}
}

// Name returns the stable registry identifier of the worker.
func (b *BaseWorker) Name() string { return b.name }

// Description returns the capability description used by the router.
func (b *BaseWorker) Description() string { return b.description }

// Logger returns the worker's logger.
func (b *BaseWorker) Logger() logging.Logger { return b.logger }
