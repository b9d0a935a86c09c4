package jobs

import (
	"context"
	"log"
	"time"

	"github.com/lumenfeed/newsrag/internal/telemetry"
)

// Runner is one unit of background work, invoked on each tick.
type Runner interface {
	RunOnce(ctx context.Context) error
}

// Worker drives a Runner on a fixed polling interval.
type Worker struct {
	runner       Runner
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

// NewWorker creates a new Worker instance
func NewWorker(runner Runner, pollInterval time.Duration) *Worker {
	return &Worker{
		runner:       runner,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start begins the worker's polling loop
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("Worker started with poll interval: %v", w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Println("Worker stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Println("Worker stopped: stop signal received")
			return
		case <-ticker.C:
			if err := w.runner.RunOnce(ctx); err != nil {
				log.Printf("Background run failed: %v", err)
				telemetry.CaptureError(ctx, err)
			}
		}
	}
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Println("Worker shutdown complete")
}
