package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/studylog/internal/session"
)

// viewState represents the currently active view.
type viewState int

const (
	viewLessons viewState = iota
	viewStudy
	viewStatistics
	viewSettings
)

var viewNames = []string{"Lessons", "Study", "Statistics", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

// elapsedMsg carries a timer sample published by the session controller.
type elapsedMsg int64

// lessonOpenedMsg switches to the study view for a lesson.
type lessonOpenedMsg struct {
	id   int64
	name string
}

// statsLoadedMsg carries rollups computed for the week offset that was shown
// when the load started.
type statsLoadedMsg struct {
	offset int
	snap   session.Snapshot
}

type exportDoneMsg struct {
	path  string
	count int
}

// --- Helpers ---

// op runs fn off the render loop and reports the result in the status bar.
// An empty ok text leaves the status untouched on success.
func op(ok string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(context.Background()); err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return statusMsg{text: ok}
	}
}

// parseClock accepts plain seconds ("90"), MM:SS ("1:30") or HH:MM:SS
// ("01:02:03"). Minutes and seconds after the first field must be < 60.
func parseClock(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time")
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}

	var total int64
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		if i > 0 && n >= 60 {
			return 0, fmt.Errorf("invalid time %q: field %d out of range", s, i+1)
		}
		total = total*60 + n
	}
	return total, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
