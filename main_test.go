package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/studylog/internal/config"
	"github.com/sadopc/studylog/internal/store"
)

// isolate points XDG directories and the working directory at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	for _, k := range []string{"DB_PATH", "TIMER_BACKEND", "BADGER_DIR", "TICK_INTERVAL", "LOG_FILE"} {
		t.Setenv("STUDYLOG_"+k, "")
	}
	t.Setenv("STUDYLOG_TIMEZONE", "UTC")
	t.Setenv("STUDYLOG_LOG_LEVEL", "error")
	t.Chdir(dir)
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedNotes(t *testing.T, dbPath string) {
	t.Helper()
	ctx := context.Background()
	s, err := store.New(dbPath)
	require.NoError(t, err)
	defer s.Close()

	id, err := s.InsertLesson(ctx, "MATH")
	require.NoError(t, err)
	at := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	for _, secs := range []int64{3600, 1800} {
		_, err := s.InsertNote(ctx, store.Note{
			LessonID: id, SubjectTitle: "LIMITS", StudyDetails: "x",
			StudyTimeSeconds: secs, Timestamp: at.UnixMilli(),
		})
		require.NoError(t, err)
	}
}

func TestStatsCommand(t *testing.T) {
	isolate(t)
	seedNotes(t, config.DefaultDBPath())

	out, err := execute(t, "stats", "--week-of", "2024-03-14")
	require.NoError(t, err)

	for _, want := range []string{
		"Week 11 Mart - 17 Mart",
		"Çarşamba",
		"01:30:00",
		"MATH 01:30:00",
		"11 Mart - 17 Mart",
		"Mart 2024",
	} {
		assert.Contains(t, out, want)
	}
}

func TestStatsCommandEmptyWeek(t *testing.T) {
	isolate(t)

	out, err := execute(t, "stats", "--week-of", "2024-03-14")
	require.NoError(t, err)
	assert.Contains(t, out, "Pazartesi")
	assert.Contains(t, out, "no notes")
}

func TestStatsCommandBadDate(t *testing.T) {
	isolate(t)

	_, err := execute(t, "stats", "--week-of", "14/03/2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--week-of")
}

func TestExportCommand(t *testing.T) {
	dir := isolate(t)
	seedNotes(t, config.DefaultDBPath())
	path := filepath.Join(dir, "out", "notes.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	out, err := execute(t, "export", "--format", "JSON", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 2 notes to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"lesson": "MATH"`)
}

func TestExportCommandDefaultName(t *testing.T) {
	dir := isolate(t)
	seedNotes(t, config.DefaultDBPath())

	out, err := execute(t, "export")
	require.NoError(t, err)

	name := "studylog-export-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	assert.Contains(t, out, name)
	_, err = os.Stat(filepath.Join(dir, name))
	assert.NoError(t, err)
}

func TestExportCommandUsesSavedSettings(t *testing.T) {
	dir := isolate(t)
	seedNotes(t, config.DefaultDBPath())
	exportDir := filepath.Join(dir, "exports")

	s, err := store.New(config.DefaultDBPath())
	require.NoError(t, err)
	require.NoError(t, s.SetSetting(context.Background(), store.SettingExportDir, exportDir))
	require.NoError(t, s.SetSetting(context.Background(), store.SettingExportFormat, "json"))
	require.NoError(t, s.Close())

	out, err := execute(t, "export")
	require.NoError(t, err)

	path := filepath.Join(exportDir, "studylog-export-"+time.Now().UTC().Format("2006-01-02")+".json")
	assert.Contains(t, out, "exported 2 notes to "+path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"lesson": "MATH"`)

	// An explicit flag still wins over the saved format.
	out, err = execute(t, "export", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, ".csv")
}

func TestExportCommandBadFormat(t *testing.T) {
	isolate(t)

	_, err := execute(t, "export", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestTimerCommands(t *testing.T) {
	isolate(t)

	out, err := execute(t, "timer", "status")
	require.NoError(t, err)
	assert.Equal(t, "idle 00:00:00\n", out)

	out, err = execute(t, "timer", "start")
	require.NoError(t, err)
	assert.Contains(t, out, "running")

	// The running state survives a new process.
	out, err = execute(t, "timer", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "running")

	out, err = execute(t, "timer", "reset")
	require.NoError(t, err)
	assert.Equal(t, "idle 00:00:00\n", out)
}

func TestTimerCommandsBadger(t *testing.T) {
	dir := isolate(t)
	t.Setenv("STUDYLOG_TIMER_BACKEND", "badger")

	out, err := execute(t, "timer", "start")
	require.NoError(t, err)
	assert.Contains(t, out, "running")

	out, err = execute(t, "timer", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "running")

	_, err = os.Stat(filepath.Join(dir, "data", "studylog", "timer"))
	assert.NoError(t, err, "badger directory should be created")
}

func TestConfigFlag(t *testing.T) {
	dir := isolate(t)
	dbPath := filepath.Join(dir, "custom.db")
	cfgPath := filepath.Join(dir, "studylog.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[storage]\ndb_path = \""+filepath.ToSlash(dbPath)+"\"\n"), 0o644))

	_, err := execute(t, "--config", cfgPath, "timer", "start")
	require.NoError(t, err)

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "db should be created at the configured path")
}

func TestConfigFlagInvalid(t *testing.T) {
	dir := isolate(t)
	cfgPath := filepath.Join(dir, "studylog.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[storage]\ntimer_backend = \"redis\"\n"), 0o644))

	_, err := execute(t, "--config", cfgPath, "timer", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.timer_backend")
}

func TestConfigFlagMissingFile(t *testing.T) {
	dir := isolate(t)

	_, err := execute(t, "--config", filepath.Join(dir, "nope.toml"), "timer", "status")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = os.Stat(config.DefaultDBPath())
	assert.True(t, os.IsNotExist(err), "no database should be opened with the defaults")
}
