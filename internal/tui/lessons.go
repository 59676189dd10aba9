package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studylog/internal/session"
)

type lessonsModel struct {
	ctl    *session.Controller
	width  int
	height int

	cursor        int
	confirmDelete bool

	formActive bool
	form       *huh.Form

	// Form field pointer (survives value copies)
	formName *string
}

func newLessonsModel(ctl *session.Controller) lessonsModel {
	name := ""
	return lessonsModel{
		ctl:      ctl,
		formName: &name,
	}
}

func (l *lessonsModel) setSize(w, h int) {
	l.width = w
	l.height = h
}

func (l lessonsModel) refresh() tea.Cmd {
	return op("", l.ctl.Load)
}

func (l lessonsModel) capturing() bool {
	return l.formActive || l.confirmDelete
}

func (l lessonsModel) update(msg tea.Msg) (lessonsModel, tea.Cmd) {
	if l.formActive && l.form != nil {
		return l.updateForm(msg)
	}

	lessons := l.ctl.Lessons.Get()
	if l.cursor >= len(lessons) {
		l.cursor = max(0, len(lessons)-1)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return l, nil
	}

	if l.confirmDelete {
		l.confirmDelete = false
		if key.Matches(km, keys.Confirm) && l.cursor < len(lessons) {
			lesson := lessons[l.cursor]
			return l, op(fmt.Sprintf("Deleted %s", lesson.Name), func(ctx context.Context) error {
				return l.ctl.DeleteLesson(ctx, lesson.ID)
			})
		}
		return l, nil
	}

	switch {
	case key.Matches(km, keys.Up):
		if l.cursor > 0 {
			l.cursor--
		}
	case key.Matches(km, keys.Down):
		if l.cursor < len(lessons)-1 {
			l.cursor++
		}
	case key.Matches(km, keys.Enter):
		if len(lessons) > 0 {
			lesson := lessons[l.cursor]
			return l, func() tea.Msg { return lessonOpenedMsg{id: lesson.ID, name: lesson.Name} }
		}
	case key.Matches(km, keys.New):
		l.ctl.CancelEditingLesson()
		return l.showForm()
	case key.Matches(km, keys.Edit):
		if len(lessons) > 0 {
			lesson := lessons[l.cursor]
			l.ctl.StartEditingLesson(lesson.ID, lesson.Name)
			return l.showForm()
		}
	case key.Matches(km, keys.Delete):
		if len(lessons) > 0 {
			l.confirmDelete = true
		}
	}
	return l, nil
}

func (l lessonsModel) showForm() (lessonsModel, tea.Cmd) {
	*l.formName = l.ctl.LessonInput.Get()

	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Lesson Name").Value(l.formName),
		),
	).WithShowHelp(true).WithShowErrors(true)

	l.formActive = true
	return l, l.form.Init()
}

func (l lessonsModel) updateForm(msg tea.Msg) (lessonsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		l.formActive = false
		l.form = nil
		l.ctl.CancelEditingLesson()
		return l, nil
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}

	if l.form.State == huh.StateCompleted {
		l.formActive = false
		l.ctl.LessonInput.Set(*l.formName)
		return l, l.save()
	}
	return l, cmd
}

func (l lessonsModel) save() tea.Cmd {
	return func() tea.Msg {
		outcome, err := l.ctl.AddOrUpdateLesson(context.Background())
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		return statusMsg{text: lessonOutcomeText(outcome), isError: outcome == session.LessonDuplicate}
	}
}

func lessonOutcomeText(o session.LessonOutcome) string {
	switch o {
	case session.LessonCreated:
		return "Lesson added"
	case session.LessonUpdated:
		return "Lesson renamed"
	case session.LessonDuplicate:
		return "A lesson with that name already exists"
	}
	return ""
}

func (l lessonsModel) view() string {
	w := l.width - 4

	if l.formActive && l.form != nil {
		title := titleStyle.Render("New Lesson")
		if l.ctl.EditingLesson.Get() != 0 {
			title = titleStyle.Render("Rename Lesson")
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, "", l.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Lessons")
	lessons := l.ctl.Lessons.Get()

	if len(lessons) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No lessons yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for i, lesson := range lessons {
		dot := lipgloss.NewStyle().Foreground(lessonColor(lesson.Name)).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == l.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor)+dot+" "+style.Render(truncate(lesson.Name, max(8, w-12))))
	}

	rows = append(rows, "")
	if l.confirmDelete && l.cursor < len(lessons) {
		rows = append(rows, errorStyle.Render(fmt.Sprintf("  Delete %s and all of its notes? y: yes  any key: no", lessons[l.cursor].Name)))
	} else {
		rows = append(rows, mutedStyle.Render("  n: new  e: rename  d: delete  enter: study"))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
