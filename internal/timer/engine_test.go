package timer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(t *testing.T, st StateStore, clk *fakeClock) *Engine {
	t.Helper()
	e, err := NewEngine(context.Background(), st, WithClock(clk.Now))
	require.NoError(t, err)
	return e
}

type failingState struct {
	MemoryState
	failSave bool
}

func (f *failingState) SaveTimerState(ctx context.Context, rec Record) error {
	if f.failSave {
		return errors.New("disk full")
	}
	return f.MemoryState.SaveTimerState(ctx, rec)
}

func TestEngineStartsIdle(t *testing.T) {
	e := newTestEngine(t, &MemoryState{}, newFakeClock())

	assert.Equal(t, Idle, e.State())
	assert.Equal(t, int64(0), e.Elapsed())
	assert.Equal(t, Controls{Start: true}, e.Controls())
}

func TestEngineElapsedDerivedFromAnchor(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	e := newTestEngine(t, &MemoryState{}, clk)

	require.NoError(t, e.Start(ctx, 0))
	clk.Advance(2500 * time.Millisecond)
	assert.Equal(t, int64(2), e.Elapsed())

	clk.Advance(90 * time.Minute)
	assert.Equal(t, int64(2+90*60), e.Elapsed())
	assert.Equal(t, Running, e.State())
	assert.Equal(t, Controls{Stop: true}, e.Controls())
}

func TestEngineStartWithInitialSeconds(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	e := newTestEngine(t, &MemoryState{}, clk)

	require.NoError(t, e.Start(ctx, 100))
	clk.Advance(5 * time.Second)
	assert.Equal(t, int64(105), e.Elapsed())
}

func TestEngineStartNegativeInitialClampsToZero(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, &MemoryState{}, newFakeClock())

	require.NoError(t, e.Start(ctx, -40))
	assert.Equal(t, int64(0), e.Elapsed())
}

func TestEngineStartWhileRunningIsNoOp(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	st := &MemoryState{}
	e := newTestEngine(t, st, clk)

	require.NoError(t, e.Start(ctx, 10))
	before := e.Snapshot()

	clk.Advance(30 * time.Second)
	require.NoError(t, e.Start(ctx, 0))

	assert.Equal(t, before, e.Snapshot(), "anchor and accumulated must not change")
	persisted, _ := st.LoadTimerState(ctx)
	assert.Equal(t, before, persisted)
	assert.Equal(t, int64(40), e.Elapsed())
}

func TestEnginePauseAccumulates(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	e := newTestEngine(t, &MemoryState{}, clk)

	require.NoError(t, e.Start(ctx, 0))
	clk.Advance(61*time.Second + 900*time.Millisecond)
	require.NoError(t, e.Pause(ctx))

	assert.Equal(t, int64(61), e.Elapsed())
	assert.Equal(t, Paused, e.State())
	assert.Equal(t, Controls{Resume: true, Reset: true}, e.Controls())

	// Wall-clock time while paused does not count.
	clk.Advance(time.Hour)
	assert.Equal(t, int64(61), e.Elapsed())
}

func TestEnginePauseWhenNotRunningIsNoOp(t *testing.T) {
	ctx := context.Background()
	st := &failingState{failSave: true}
	e := newTestEngine(t, st, newFakeClock())

	// No save is attempted, so the failing store is never hit.
	require.NoError(t, e.Pause(ctx))
	assert.Equal(t, Idle, e.State())
}

func TestEnginePauseWithoutAnchorCountsZero(t *testing.T) {
	ctx := context.Background()
	st := &MemoryState{}
	require.NoError(t, st.SaveTimerState(ctx, Record{AccumulatedSeconds: 12, Running: true}))

	e := newTestEngine(t, st, newFakeClock())
	assert.Equal(t, int64(12), e.Elapsed())

	require.NoError(t, e.Pause(ctx))
	assert.Equal(t, int64(12), e.Elapsed())
}

func TestEngineAnchorInFutureCountsZero(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	st := &MemoryState{}
	future := clk.Now().Add(time.Hour).UnixMilli()
	require.NoError(t, st.SaveTimerState(ctx, Record{AnchorMs: future, AccumulatedSeconds: 5, Running: true}))

	e := newTestEngine(t, st, clk)
	assert.Equal(t, int64(5), e.Elapsed())
}

func TestEngineStartPauseStartPauseSumsIntervals(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	e := newTestEngine(t, &MemoryState{}, clk)

	require.NoError(t, e.Start(ctx, 0))
	clk.Advance(42 * time.Second)
	require.NoError(t, e.Pause(ctx))

	clk.Advance(17 * time.Minute)

	require.NoError(t, e.Resume(ctx))
	clk.Advance(18 * time.Second)
	require.NoError(t, e.Pause(ctx))

	assert.Equal(t, int64(60), e.Elapsed())
}

func TestEngineReset(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	st := &MemoryState{}
	e := newTestEngine(t, st, clk)

	require.NoError(t, e.Start(ctx, 0))
	clk.Advance(time.Minute)
	require.NoError(t, e.Reset(ctx))

	assert.Equal(t, Idle, e.State())
	assert.Equal(t, int64(0), e.Elapsed())
	persisted, _ := st.LoadTimerState(ctx)
	assert.Equal(t, Record{}, persisted)
}

func TestEngineSetLoadsPausedValue(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	e := newTestEngine(t, &MemoryState{}, clk)

	require.NoError(t, e.Start(ctx, 0))
	require.NoError(t, e.Set(ctx, 3600))

	assert.Equal(t, Paused, e.State())
	clk.Advance(time.Minute)
	assert.Equal(t, int64(3600), e.Elapsed())

	require.NoError(t, e.Set(ctx, 0))
	assert.Equal(t, Idle, e.State())
}

func TestEnginePersistsEveryTransition(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	st := &MemoryState{}
	e := newTestEngine(t, st, clk)

	require.NoError(t, e.Start(ctx, 7))
	rec, _ := st.LoadTimerState(ctx)
	assert.Equal(t, Record{AnchorMs: clk.Now().UnixMilli(), AccumulatedSeconds: 7, Running: true}, rec)

	anchor := clk.Now().UnixMilli()
	clk.Advance(3 * time.Second)
	require.NoError(t, e.Pause(ctx))
	rec, _ = st.LoadTimerState(ctx)
	assert.Equal(t, Record{AnchorMs: anchor, AccumulatedSeconds: 10, Running: false}, rec)
}

func TestEngineRestartWhileRunning(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	st := &MemoryState{}

	first := newTestEngine(t, st, clk)
	require.NoError(t, first.Start(ctx, 20))
	clk.Advance(45 * time.Second)
	want := first.Elapsed()

	// Simulated process restart: a fresh engine over the same record.
	second := newTestEngine(t, st, clk)
	assert.Equal(t, Running, second.State())
	assert.Equal(t, want, second.Elapsed())

	clk.Advance(15 * time.Second)
	assert.Equal(t, first.Elapsed(), second.Elapsed())
	assert.Equal(t, int64(80), second.Elapsed())
}

func TestEngineRestartWhilePaused(t *testing.T) {
	ctx := context.Background()
	clk := newFakeClock()
	st := &MemoryState{}

	first := newTestEngine(t, st, clk)
	require.NoError(t, first.Start(ctx, 0))
	clk.Advance(30 * time.Second)
	require.NoError(t, first.Pause(ctx))

	clk.Advance(time.Hour)
	second := newTestEngine(t, st, clk)
	assert.Equal(t, Paused, second.State())
	assert.Equal(t, int64(30), second.Elapsed())
}

func TestEngineSaveFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	st := &failingState{}
	e := newTestEngine(t, st, newFakeClock())

	st.failSave = true
	err := e.Start(ctx, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, Idle, e.State())
}

func TestNewEngineLoadFailure(t *testing.T) {
	_, err := NewEngine(context.Background(), loadErrState{})
	require.Error(t, err)
}

type loadErrState struct{}

func (loadErrState) LoadTimerState(context.Context) (Record, error) {
	return Record{}, errors.New("corrupt")
}

func (loadErrState) SaveTimerState(context.Context, Record) error { return nil }

func TestEngineWatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clk := newFakeClock()
	e := newTestEngine(t, &MemoryState{}, clk)
	require.NoError(t, e.Set(ctx, 9))

	ch := e.Watch(ctx, 5*time.Millisecond)
	select {
	case v := <-ch:
		assert.Equal(t, int64(9), v)
	case <-time.After(time.Second):
		t.Fatal("no sample from Watch")
	}

	cancel()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("Watch channel not closed after cancel")
		}
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "paused", Paused.String())
}
