package timer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

var stateKey = []byte("timer/state")

// BadgerState stores the timer record as one JSON value in a Badger database.
type BadgerState struct {
	db *badger.DB
}

// OpenBadgerState opens (or creates) a Badger database in dir with synchronous
// writes, so every saved transition is on disk before Save returns. Badger's
// own log output goes to logger, or nowhere when logger is nil.
func OpenBadgerState(dir string, logger *slog.Logger) (*BadgerState, error) {
	opts := badger.DefaultOptions(dir).WithSyncWrites(true)
	if logger != nil {
		opts = opts.WithLogger(badgerLogger{logger.With("component", "badger")})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerState{db: db}, nil
}

// NewBadgerState wraps an already open database. Close closes db.
func NewBadgerState(db *badger.DB) *BadgerState {
	return &BadgerState{db: db}
}

func (b *BadgerState) Close() error {
	return b.db.Close()
}

func (b *BadgerState) LoadTimerState(context.Context) (Record, error) {
	var rec Record
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(stateKey)
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("load timer state: %w", err)
	}
	return rec, nil
}

func (b *BadgerState) SaveTimerState(_ context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal timer state: %w", err)
	}
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(stateKey, data)
	}); err != nil {
		return fmt.Errorf("save timer state: %w", err)
	}
	return nil
}

// badgerLogger routes badger.Logger calls into slog. Badger logs chatty
// compaction details at info, so they are demoted to debug.
type badgerLogger struct {
	l *slog.Logger
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.l.Error(trimf(format, args))
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.l.Warn(trimf(format, args))
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.l.Debug(trimf(format, args))
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.l.Debug(trimf(format, args))
}

func trimf(format string, args []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
