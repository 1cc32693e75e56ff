package ingest

import (
	"context"
	"log/slog"
	"time"
)

// Coordinator drives the background ingestion loop: an initial pass on
// start, then one pass per interval until the context is cancelled.
//
// Passes run inline in the coordinator goroutine, so no two passes ever
// overlap: a tick that fires while a pass is still running is dropped by
// the ticker. Overlap would be safe (upserts are idempotent) but skipping
// bounds the load on the external API.
type Coordinator struct {
	ingestor *Ingestor
	interval time.Duration

	cancelFunc context.CancelFunc
	done       chan struct{}
}

// NewCoordinator creates a coordinator running one ingestion pass per
// interval.
func NewCoordinator(ingestor *Ingestor, interval time.Duration) *Coordinator {
	return &Coordinator{
		ingestor: ingestor,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins the background ingestion loop. Blocks until the context is
// cancelled.
func (c *Coordinator) Start(ctx context.Context) error {
	slog.Info("Starting ingestion coordinator", "interval", c.interval)

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	defer func() {
		close(c.done)
		slog.Info("Ingestion coordinator shutting down")
	}()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Initial pass on startup
	c.runPass(loopCtx)

	for {
		select {
		case <-ticker.C:
			c.runPass(loopCtx)
		case <-loopCtx.Done():
			slog.Info("Ingestion coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator and waits for it to finish.
func (c *Coordinator) Stop() error {
	if c.cancelFunc != nil {
		slog.Info("Stopping ingestion coordinator")
		c.cancelFunc()
		<-c.done
	}
	return nil
}

// runPass executes a single ingestion pass and logs its outcome. A failed
// pass never stops the loop; the next interval retries from scratch.
func (c *Coordinator) runPass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	slog.Info("Starting ingestion pass")

	result, err := c.ingestor.Run(ctx)
	if err != nil {
		slog.Error("Ingestion pass aborted", "error", err, "duration", time.Since(start))
		return
	}

	logFn := slog.Info
	if result.Errors > 0 {
		logFn = slog.Warn
	}
	logFn("Ingestion pass finished",
		"employees", result.Employees,
		"projects", result.Projects,
		"tasks", result.Tasks,
		"subtasks", result.Subtasks,
		"errors", result.Errors,
		"duration", time.Since(start))
}
