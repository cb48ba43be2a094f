package controller

import (
	"context"
	"sync"
	"time"

	"github.com/droneguard/droneguard/pkg/log"
)

// Status describes the runner's current movement, if any.
type Status struct {
	Running     bool  `json:"running"`
	StartedAtMs int64 `json:"started_at_ms,omitempty"`
	DurationMs  int   `json:"duration_ms,omitempty"`
	FreqHz      int   `json:"freq_hz,omitempty"`
	LastCmd     *Move `json:"last_cmd,omitempty"`
}

// MoveRunner executes direct-control moves against the controller in the
// background. Starting a new move cancels any in-flight one; the controller
// is always told to stop when a run finishes, errors, or is cancelled.
// The controller's batch moveSequence endpoint does the per-tick timing, so
// a run is a single outbound call rather than a client-side loop.
type MoveRunner struct {
	client Client
	logger *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	status Status
}

// NewMoveRunner creates a runner over the given controller client.
func NewMoveRunner(client Client) *MoveRunner {
	return &MoveRunner{
		client: client,
		logger: log.ForService("controller"),
	}
}

// Status returns a snapshot of the runner state.
func (r *MoveRunner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Start launches move in the background, cancelling any previous run first.
func (r *MoveRunner) Start(move Move, freqHz int) {
	r.mu.Lock()
	r.cancelLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	r.cancel = cancel
	r.done = done
	moveCopy := move
	r.status = Status{
		Running:     true,
		StartedAtMs: time.Now().UnixMilli(),
		DurationMs:  move.DurationMs,
		FreqHz:      freqHz,
		LastCmd:     &moveCopy,
	}
	r.mu.Unlock()

	go r.run(ctx, done, move, freqHz)
}

// StartAndWait launches move and blocks until it completes or ctx expires.
func (r *MoveRunner) StartAndWait(ctx context.Context, move Move, freqHz int) error {
	r.Start(move, freqHz)

	r.mu.Lock()
	done := r.done
	r.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop cancels any in-flight run and issues a controller stop.
func (r *MoveRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	r.cancelLocked()
	r.status = Status{}
	r.mu.Unlock()

	_, err := r.client.Stop(ctx)
	return err
}

// cancelLocked cancels the current run and waits for it to wind down.
// Callers must hold r.mu.
func (r *MoveRunner) cancelLocked() {
	if r.cancel != nil {
		r.cancel()
		done := r.done
		r.cancel = nil
		r.done = nil
		if done != nil {
			r.mu.Unlock()
			<-done
			r.mu.Lock()
		}
	}
}

func (r *MoveRunner) run(ctx context.Context, done chan struct{}, move Move, freqHz int) {
	defer close(done)
	defer func() {
		// Always leave the drone stopped, even on cancellation. A fresh
		// context: the run's own may already be cancelled.
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		if _, err := r.client.Stop(stopCtx); err != nil {
			r.logger.Warnf("final stop failed: %v", err)
		}

		r.mu.Lock()
		r.status = Status{}
		r.mu.Unlock()
	}()

	if _, err := r.client.EnableVirtualStick(ctx, true); err != nil {
		r.logger.Errorf("enable virtual stick: %v", err)
		return
	}
	if _, err := r.client.MoveSequence(ctx, []Move{move}, freqHz); err != nil {
		r.logger.Errorf("move sequence: %v", err)
		return
	}
}
