package export

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cutline/cutline/internal/logging"
)

// Notifier surfaces a failed export to the user.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

// Journal records export attempts.
type Journal interface {
	Begin(ctx context.Context, snap Snapshot) (string, error)
	Finish(ctx context.Context, id string, res Result) error
}

// CoordinatorConfig wires a Coordinator. Client and Saver are required.
type CoordinatorConfig struct {
	Client   Uploader
	Saver    Saver
	Journal  Journal
	Notifier Notifier
	Logger   *slog.Logger
	Now      func() time.Time
}

// Coordinator runs at most one export at a time. The state moves
// Idle -> Processing -> Completed|Error and always lands back on Idle.
type Coordinator struct {
	client   Uploader
	saver    Saver
	journal  Journal
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	status Status
	last   Result
}

func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	c := &Coordinator{
		client:   cfg.Client,
		saver:    cfg.Saver,
		journal:  cfg.Journal,
		notifier: cfg.Notifier,
		logger:   cfg.Logger,
		now:      cfg.Now,
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Status returns the current state.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Busy reports whether an export is in flight.
func (c *Coordinator) Busy() bool {
	return c.Status() == StatusProcessing
}

// LastResult returns the outcome of the most recent finished export.
func (c *Coordinator) LastResult() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Start performs one export of snap and blocks until it finishes. It
// returns false without doing anything when snap has no source or no
// segments, or when another export is in flight.
func (c *Coordinator) Start(ctx context.Context, snap Snapshot) (Result, bool) {
	if !snap.Ready() {
		return Result{}, false
	}
	if !c.begin() {
		c.logger.Debug("export already in flight, ignoring trigger")
		return Result{}, false
	}
	defer c.setStatus(StatusIdle)

	res := Result{StartedAt: c.now()}

	if c.journal != nil {
		id, err := c.journal.Begin(ctx, snap)
		if err != nil {
			c.logger.Warn("failed to journal export start", "error", err)
		}
		res.ID = id
	}

	logger := c.logger
	if res.ID != "" {
		logger = logging.WithExportID(logger, res.ID)
	}
	logger.Info("export started",
		"source", snap.Source.Name,
		"segment_count", len(snap.Segments),
		"muted", snap.Muted,
	)

	outputPath, err := c.run(ctx, snap)
	res.FinishedAt = c.now()
	if err != nil {
		res.Status = StatusError
		res.Err = err
		res.Message = UserMessage(err)
		logger.Warn("export failed", "error", err, "duration_ms", res.FinishedAt.Sub(res.StartedAt).Milliseconds())
	} else {
		res.Status = StatusCompleted
		res.OutputPath = outputPath
		logger.Info("export completed",
			"output", logging.SanitizePath(outputPath),
			"duration_ms", res.FinishedAt.Sub(res.StartedAt).Milliseconds(),
		)
	}

	c.finish(res)

	if c.journal != nil && res.ID != "" {
		if err := c.journal.Finish(context.WithoutCancel(ctx), res.ID, res); err != nil {
			logger.Warn("failed to journal export result", "error", err)
		}
	}
	if res.Status == StatusError && c.notifier != nil {
		c.notifier.Notify(res.Message)
	}

	return res, true
}

func (c *Coordinator) run(ctx context.Context, snap Snapshot) (string, error) {
	if err := c.saver.Prepare(); err != nil {
		return "", err
	}

	body, err := c.client.Export(ctx, snap)
	if err != nil {
		return "", err
	}
	defer body.Close()

	return c.saver.Save(OutputFilename(c.now()), body)
}

func (c *Coordinator) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusProcessing {
		return false
	}
	c.status = StatusProcessing
	return true
}

func (c *Coordinator) finish(res Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = res.Status
	c.last = res
}

func (c *Coordinator) setStatus(s Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = s
}
