package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/sadopc/studylog/internal/config"
	"github.com/sadopc/studylog/internal/logging"
	"github.com/sadopc/studylog/internal/session"
	"github.com/sadopc/studylog/internal/stats"
	"github.com/sadopc/studylog/internal/store"
	"github.com/sadopc/studylog/internal/timer"
)

// app holds the wired components shared by every command.
type app struct {
	cfg config.Config
	loc *time.Location
	log *slog.Logger

	store      *store.Store
	engine     *timer.Engine
	ctl        *session.Controller
	statistics *session.Statistics

	closers []io.Closer
}

// openApp loads configuration and opens storage. Logs go to logW, or to the
// configured log file when logW is nil (the TUI owns the terminal).
func openApp(ctx context.Context, cfgPath string, logW io.Writer) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, loc: loc}

	if logW == nil {
		f, err := logging.OpenFile(cfg.Log.File)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, f)
		logW = f
	}
	a.log = logging.New(level, logW)

	if err := a.open(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) open(ctx context.Context) error {
	st, err := store.New(a.cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	a.store = st
	a.closers = append(a.closers, st)

	var state timer.StateStore = st
	if a.cfg.Storage.TimerBackend == config.BackendBadger {
		bs, err := timer.OpenBadgerState(a.cfg.Storage.BadgerDir, a.log)
		if err != nil {
			return fmt.Errorf("failed to open timer state: %w", err)
		}
		a.closers = append(a.closers, bs)
		state = bs
	}

	engine, err := timer.NewEngine(ctx, state, timer.WithLogger(a.log.With("component", "timer")))
	if err != nil {
		return err
	}
	a.engine = engine
	a.ctl = session.New(st, engine, session.WithLogger(a.log.With("component", "session")))
	a.statistics = session.NewStatistics(stats.New(st, stats.WithLocation(a.loc)))

	a.log.Debug("storage opened", "db", a.cfg.Storage.DBPath, "timer_backend", a.cfg.Storage.TimerBackend)
	return nil
}

// exportDir is where the TUI writes exports unless a setting overrides it.
func (a *app) exportDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

// setting reads a stored setting, returning def when it was never saved or
// is blank.
func (a *app) setting(ctx context.Context, key, def string) (string, error) {
	v, err := a.store.GetSetting(ctx, key)
	if errors.Is(err, store.ErrNotFound) || (err == nil && strings.TrimSpace(v) == "") {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

// Close releases resources in reverse order of opening.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && a.log != nil {
			a.log.Error("close failed", "error", err)
		}
	}
	a.closers = nil
}
