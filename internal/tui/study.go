package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studylog/internal/session"
	"github.com/sadopc/studylog/internal/stats"
	"github.com/sadopc/studylog/internal/store"
)

type studyForm int

const (
	formNone studyForm = iota
	formNote
	formTime
)

type studyModel struct {
	ctl    *session.Controller
	loc    *time.Location
	width  int
	height int

	lessonID   int64
	lessonName string

	cursor        int
	confirmDelete bool

	form     *huh.Form
	formKind studyForm

	// Form field pointers (survive value copies)
	formSubject *string
	formDetails *string
	formTime    *string
}

func newStudyModel(ctl *session.Controller, loc *time.Location) studyModel {
	subject, details, clock := "", "", ""
	return studyModel{
		ctl:         ctl,
		loc:         loc,
		formSubject: &subject,
		formDetails: &details,
		formTime:    &clock,
	}
}

func (s *studyModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s studyModel) capturing() bool {
	return s.formKind != formNone || s.confirmDelete
}

// open switches the view to a lesson and loads its notes.
func (s studyModel) open(id int64, name string) (studyModel, tea.Cmd) {
	if s.lessonID != id {
		s.cursor = 0
		s.confirmDelete = false
	}
	s.lessonID = id
	s.lessonName = name
	return s, s.refresh()
}

func (s studyModel) refresh() tea.Cmd {
	if s.lessonID == 0 {
		return nil
	}
	id := s.lessonID
	return op("", func(ctx context.Context) error {
		return s.ctl.SelectLesson(ctx, id)
	})
}

func (s studyModel) update(msg tea.Msg) (studyModel, tea.Cmd) {
	if s.formKind != formNone && s.form != nil {
		return s.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	notes := s.notes()
	if s.cursor >= len(notes) {
		s.cursor = max(0, len(notes)-1)
	}

	if s.confirmDelete {
		s.confirmDelete = false
		if key.Matches(km, keys.Confirm) && s.cursor < len(notes) {
			noteID, lessonID := notes[s.cursor].ID, s.lessonID
			return s, op("Note deleted", func(ctx context.Context) error {
				return s.ctl.DeleteNote(ctx, noteID, lessonID)
			})
		}
		return s, nil
	}

	controls := s.ctl.Controls.Get()

	switch {
	case key.Matches(km, keys.Start):
		switch {
		case controls.Start:
			return s, op("Timer started", s.ctl.StartTimer)
		case controls.Resume:
			return s, op("Timer resumed", s.ctl.ResumeTimer)
		}
	case key.Matches(km, keys.Pause):
		switch {
		case controls.Stop:
			return s, op("Timer paused", s.ctl.PauseTimer)
		case controls.Resume:
			return s, op("Timer resumed", s.ctl.ResumeTimer)
		}
	case key.Matches(km, keys.Reset):
		if controls.Reset {
			return s, op("Timer reset", s.ctl.ResetTimer)
		}
	case key.Matches(km, keys.SetTime):
		return s.showTimeForm()
	case key.Matches(km, keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(km, keys.Down):
		if s.cursor < len(notes)-1 {
			s.cursor++
		}
	case key.Matches(km, keys.New):
		if s.lessonID == 0 {
			return s, func() tea.Msg {
				return statusMsg{text: "Select a lesson first (press 1)", isError: true}
			}
		}
		return s.showNoteForm()
	case key.Matches(km, keys.Edit):
		if len(notes) > 0 {
			noteID := notes[s.cursor].ID
			return s, op("Editing note", func(ctx context.Context) error {
				return s.ctl.StartEditingNote(ctx, noteID)
			})
		}
	case key.Matches(km, keys.Delete):
		if len(notes) > 0 {
			s.confirmDelete = true
		}
	case key.Matches(km, keys.Back):
		if s.ctl.EditingNote.Get() != 0 {
			return s, op("Edit cancelled", s.ctl.CancelEditingNote)
		}
	}
	return s, nil
}

func (s studyModel) notes() []store.Note {
	if s.lessonID == 0 || s.ctl.SelectedLesson.Get() != s.lessonID {
		return nil
	}
	return s.ctl.Notes.Get()
}

func (s studyModel) showNoteForm() (studyModel, tea.Cmd) {
	*s.formSubject = s.ctl.SubjectInput.Get()
	*s.formDetails = s.ctl.DetailsInput.Get()

	title := "Save Note"
	if s.ctl.EditingNote.Get() != 0 {
		title = "Update Note"
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Description("Time: " + stats.FormatSeconds(s.ctl.Elapsed.Get())).
				Placeholder("Subject").
				Value(s.formSubject),
			huh.NewText().
				Title("Details").
				Lines(4).
				Value(s.formDetails),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formKind = formNote
	return s, s.form.Init()
}

func (s studyModel) showTimeForm() (studyModel, tea.Cmd) {
	*s.formTime = stats.FormatSeconds(s.ctl.Elapsed.Get())

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Set Time").
				Description("HH:MM:SS, MM:SS or seconds").
				Value(s.formTime).
				Validate(func(v string) error {
					_, err := parseClock(v)
					return err
				}),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formKind = formTime
	return s, s.form.Init()
}

func (s studyModel) updateForm(msg tea.Msg) (studyModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		s.formKind = formNone
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State != huh.StateCompleted {
		return s, cmd
	}

	kind := s.formKind
	s.formKind = formNone
	s.form = nil

	switch kind {
	case formNote:
		s.ctl.SubjectInput.Set(*s.formSubject)
		s.ctl.DetailsInput.Set(*s.formDetails)
		text := "Note saved"
		if s.ctl.EditingNote.Get() != 0 {
			text = "Note updated"
		}
		lessonID := s.lessonID
		s.cursor = 0
		return s, op(text, func(ctx context.Context) error {
			return s.ctl.AddOrUpdateNote(ctx, lessonID)
		})
	case formTime:
		secs, err := parseClock(*s.formTime)
		if err != nil {
			return s, func() tea.Msg { return statusMsg{text: err.Error(), isError: true} }
		}
		return s, op("Time set to "+stats.FormatSeconds(secs), func(ctx context.Context) error {
			return s.ctl.SetTimeManually(ctx, secs)
		})
	}
	return s, nil
}

func (s studyModel) view() string {
	if s.width < 20 {
		return "Terminal too small"
	}
	w := s.width - 4

	if s.formKind != formNone && s.form != nil {
		return activePanelStyle.Width(w).Render(s.form.View())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		s.renderTimerPanel(w),
		s.renderNotesPanel(w),
	)
}

func (s studyModel) renderTimerPanel(w int) string {
	controls := s.ctl.Controls.Get()
	timeStr := stats.FormatSeconds(s.ctl.Elapsed.Get())

	var timeDisplay, indicator, hint string
	style := panelStyle
	switch {
	case controls.Stop:
		timeDisplay = timerRunningStyle.Width(w - 6).Render(timeStr)
		indicator = successStyle.Render("●  RUNNING")
		hint = mutedStyle.Render("space: pause  n: save note")
		style = activePanelStyle
	case controls.Resume:
		timeDisplay = timerPausedStyle.Width(w - 6).Render(timeStr)
		indicator = warningStyle.Render("⏸  PAUSED")
		hint = mutedStyle.Render("s/space: resume  r: reset  t: set time  n: save note")
		style = activePanelStyle
	default:
		timeDisplay = timerStyle.Width(w - 6).Render(timeStr)
		indicator = mutedStyle.Render("■  STOPPED")
		hint = mutedStyle.Render("Press s to start studying")
	}

	lesson := mutedStyle.Render("No lesson selected")
	if s.lessonID != 0 {
		lesson = lipgloss.NewStyle().Foreground(lessonColor(s.lessonName)).Bold(true).Render(s.lessonName)
	}
	if s.ctl.EditingNote.Get() != 0 {
		lesson += accentStyle.Render("  (editing note, esc to cancel)")
	}

	content := lipgloss.JoinVertical(lipgloss.Center, timeDisplay, indicator, lesson, hint)
	return style.Width(w).Render(content)
}

func (s studyModel) renderNotesPanel(w int) string {
	title := titleStyle.Render("Notes")
	if s.lessonID == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("Pick a lesson on the Lessons tab and press enter."),
		))
	}

	notes := s.notes()
	if len(notes) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No notes yet. Time a session and press n."),
		))
	}

	// Keep the cursor visible when the list is taller than the panel.
	visible := max(3, s.height-16)
	start := 0
	if s.cursor >= visible {
		start = s.cursor - visible + 1
	}
	end := min(len(notes), start+visible)

	editing := s.ctl.EditingNote.Get()
	detailsWidth := max(10, w-52)

	var rows []string
	rows = append(rows, fmt.Sprintf("%s  %s", title, mutedStyle.Render(fmt.Sprintf("(%d)", len(notes)))))
	for i := start; i < end; i++ {
		n := notes[i]
		cursor := "  "
		style := normalItemStyle
		if i == s.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		mark := " "
		if n.ID == editing {
			mark = accentStyle.Render("✎")
		}
		row := fmt.Sprintf("%s%s %s  %-18s %s  %s",
			cursor, mark,
			n.Time(s.loc).Format("2006-01-02 15:04"),
			truncate(n.SubjectTitle, 18),
			highlightStyle.Render(stats.FormatSeconds(n.StudyTimeSeconds)),
			mutedStyle.Render(truncate(strings.ReplaceAll(n.StudyDetails, "\n", " "), detailsWidth)),
		)
		rows = append(rows, style.Render(row))
	}

	rows = append(rows, "")
	if s.confirmDelete && s.cursor < len(notes) {
		rows = append(rows, errorStyle.Render("  Delete this note? y: yes  any key: no"))
	} else {
		rows = append(rows, mutedStyle.Render("  e: edit  d: delete  esc: cancel edit"))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

// syncLesson follows renames and drops a lesson that no longer exists.
func (s *studyModel) syncLesson() {
	if s.lessonID == 0 {
		return
	}
	for _, l := range s.ctl.Lessons.Get() {
		if l.ID == s.lessonID {
			s.lessonName = l.Name
			return
		}
	}
	s.lessonID = 0
	s.lessonName = ""
	s.cursor = 0
	s.confirmDelete = false
}
