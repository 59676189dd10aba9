// Package timer tracks elapsed study time from a persisted wall-clock anchor.
//
// Elapsed time is never accumulated by ticking: while running it is derived
// as accumulated + (now - anchor) on every read, so a suspended or killed
// process picks up exactly where it left off once the record is reloaded.
package timer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is the engine's position in the Idle/Running/Paused machine.
type State int

const (
	Idle State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

// Controls reports which timer buttons are available in the current state.
type Controls struct {
	Start  bool
	Resume bool
	Stop   bool
	Reset  bool
}

// ControlsFor derives button availability from a state.
func ControlsFor(s State) Controls {
	switch s {
	case Running:
		return Controls{Stop: true}
	case Paused:
		return Controls{Resume: true, Reset: true}
	default:
		return Controls{Start: true}
	}
}

type Engine struct {
	mu    sync.Mutex
	store StateStore
	now   func() time.Time
	log   *slog.Logger
	rec   Record
}

type Option func(*Engine)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine builds an engine from the persisted record. A record that was
// running when the process died is running again immediately.
func NewEngine(ctx context.Context, store StateStore, opts ...Option) (*Engine, error) {
	e := &Engine{
		store: store,
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	rec, err := store.LoadTimerState(ctx)
	if err != nil {
		return nil, fmt.Errorf("load timer state: %w", err)
	}
	if rec.AccumulatedSeconds < 0 {
		rec.AccumulatedSeconds = 0
	}
	e.rec = rec

	if rec.Running {
		e.log.Debug("timer recovered running", "elapsed", e.elapsedLocked())
	}
	return e, nil
}

// Start begins a running interval from initialSeconds. Calling Start on a
// running timer is a no-op: the anchor is kept and nothing is persisted.
func (e *Engine) Start(ctx context.Context, initialSeconds int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startLocked(ctx, initialSeconds)
}

// Resume continues from the accumulated seconds of a paused timer.
func (e *Engine) Resume(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startLocked(ctx, e.rec.AccumulatedSeconds)
}

func (e *Engine) startLocked(ctx context.Context, initialSeconds int64) error {
	if e.rec.Running {
		return nil
	}
	if initialSeconds < 0 {
		initialSeconds = 0
	}
	return e.commit(ctx, "start", Record{
		AnchorMs:           e.now().UnixMilli(),
		AccumulatedSeconds: initialSeconds,
		Running:            true,
	})
}

// Pause folds the running interval into the accumulated seconds. The anchor
// is kept in the record for auditing only.
func (e *Engine) Pause(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.rec.Running {
		return nil
	}
	return e.commit(ctx, "pause", Record{
		AnchorMs:           e.rec.AnchorMs,
		AccumulatedSeconds: e.rec.AccumulatedSeconds + e.sinceAnchor(),
		Running:            false,
	})
}

// Reset clears the anchor and zeroes the timer (the stop transition).
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.commit(ctx, "reset", Record{})
}

// Set loads an explicit elapsed value in the paused state.
func (e *Engine) Set(ctx context.Context, seconds int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if seconds < 0 {
		seconds = 0
	}
	return e.commit(ctx, "set", Record{AccumulatedSeconds: seconds})
}

// commit persists next before adopting it; on a write failure the in-memory
// state stays in step with what is on disk.
func (e *Engine) commit(ctx context.Context, op string, next Record) error {
	if err := e.store.SaveTimerState(ctx, next); err != nil {
		e.log.Error("timer transition failed", "op", op, "err", err)
		return fmt.Errorf("timer %s: %w", op, err)
	}
	e.rec = next
	e.log.Debug("timer transition", "op", op, "accumulated", next.AccumulatedSeconds, "running", next.Running)
	return nil
}

// Elapsed returns whole elapsed seconds, recomputed from the anchor.
func (e *Engine) Elapsed() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.elapsedLocked()
}

func (e *Engine) elapsedLocked() int64 {
	if e.rec.Running {
		return e.rec.AccumulatedSeconds + e.sinceAnchor()
	}
	return e.rec.AccumulatedSeconds
}

// sinceAnchor is zero when the anchor is absent or lies in the future.
func (e *Engine) sinceAnchor() int64 {
	if e.rec.AnchorMs <= 0 {
		return 0
	}
	d := e.now().UnixMilli() - e.rec.AnchorMs
	if d < 0 {
		return 0
	}
	return d / 1000
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) stateLocked() State {
	switch {
	case e.rec.Running:
		return Running
	case e.rec.AccumulatedSeconds > 0:
		return Paused
	default:
		return Idle
	}
}

func (e *Engine) Controls() Controls {
	return ControlsFor(e.State())
}

// Snapshot returns a copy of the current record.
func (e *Engine) Snapshot() Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec
}

// Watch emits Elapsed immediately and then every interval until ctx is done.
// It is a refresh hint only; a slow reader simply misses samples.
func (e *Engine) Watch(ctx context.Context, interval time.Duration) <-chan int64 {
	ch := make(chan int64, 1)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case ch <- e.Elapsed():
			default:
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return ch
}
