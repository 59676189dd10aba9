package timer

import (
	"context"
	"sync"
)

// Record is the durable timer state. It is written on every transition so
// the engine can be rebuilt verbatim after an abrupt restart.
type Record struct {
	AnchorMs           int64 `json:"anchor_ms"` // 0 when absent
	AccumulatedSeconds int64 `json:"accumulated_seconds"`
	Running            bool  `json:"running"`
}

// StateStore persists a single Record.
type StateStore interface {
	LoadTimerState(ctx context.Context) (Record, error)
	SaveTimerState(ctx context.Context, rec Record) error
}

// MemoryState keeps the record in process memory. It survives engine
// re-creation but not process death.
type MemoryState struct {
	mu  sync.Mutex
	rec Record
}

func (m *MemoryState) LoadTimerState(context.Context) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rec, nil
}

func (m *MemoryState) SaveTimerState(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = rec
	return nil
}
