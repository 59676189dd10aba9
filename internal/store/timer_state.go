package store

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sadopc/studylog/internal/timer"
)

const (
	keyTimerAnchor      = "timer_anchor_ms"
	keyTimerAccumulated = "timer_accumulated"
	keyTimerRunning     = "timer_running"
)

// LoadTimerState reads the persisted timer record from the settings table.
// Missing or malformed values read as zero.
func (s *Store) LoadTimerState(ctx context.Context) (timer.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM settings WHERE key IN (?, ?, ?)`,
		keyTimerAnchor, keyTimerAccumulated, keyTimerRunning,
	)
	if err != nil {
		return timer.Record{}, fmt.Errorf("load timer state: %w", err)
	}
	defer rows.Close()

	var rec timer.Record
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return timer.Record{}, fmt.Errorf("load timer state: %w", err)
		}
		switch k {
		case keyTimerAnchor:
			rec.AnchorMs, _ = strconv.ParseInt(v, 10, 64)
		case keyTimerAccumulated:
			rec.AccumulatedSeconds, _ = strconv.ParseInt(v, 10, 64)
		case keyTimerRunning:
			rec.Running, _ = strconv.ParseBool(v)
		}
	}
	if err := rows.Err(); err != nil {
		return timer.Record{}, fmt.Errorf("load timer state: %w", err)
	}
	return rec, nil
}

// SaveTimerState writes all three fields in one transaction so a crash never
// leaves a half-written record behind.
func (s *Store) SaveTimerState(ctx context.Context, rec timer.Record) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save timer state: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	values := []Setting{
		{Key: keyTimerAnchor, Value: strconv.FormatInt(rec.AnchorMs, 10)},
		{Key: keyTimerAccumulated, Value: strconv.FormatInt(rec.AccumulatedSeconds, 10)},
		{Key: keyTimerRunning, Value: strconv.FormatBool(rec.Running)},
	}
	for _, v := range values {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			v.Key, v.Value,
		); err != nil {
			return fmt.Errorf("save timer state %q: %w", v.Key, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("save timer state: %w", err)
	}
	return nil
}
