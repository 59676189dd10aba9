package tui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studylog/internal/export"
	"github.com/sadopc/studylog/internal/session"
	"github.com/sadopc/studylog/internal/stats"
)

// Deps is everything the TUI needs from the rest of the program.
type Deps struct {
	Controller *session.Controller
	Statistics *session.Statistics
	Export     export.Source
	Settings   SettingsStore
	Location   *time.Location
	ExportDir  string
	Logger     *slog.Logger
	Now        func() time.Time
}

// App is the root Bubble Tea model.
type App struct {
	ctl     *session.Controller
	exports export.Source
	loc     *time.Location
	log     *slog.Logger
	now     func() time.Time

	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	lessons    lessonsModel
	study      studyModel
	statistics statisticsModel
	settings   settingsModel

	elapsed     <-chan int64
	unsubscribe func()

	help   help.Model
	status string
	isErr  bool
}

func NewApp(d Deps) App {
	h := help.New()
	h.ShowAll = false

	if d.Location == nil {
		d.Location = time.Local
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	elapsed, unsubscribe := d.Controller.Elapsed.Subscribe()

	return App{
		ctl:         d.Controller,
		exports:     d.Export,
		loc:         d.Location,
		log:         d.Logger,
		now:         d.Now,
		activeView:  viewLessons,
		lessons:     newLessonsModel(d.Controller),
		study:       newStudyModel(d.Controller, d.Location),
		statistics:  newStatisticsModel(d.Statistics, d.Now),
		settings:    newSettingsModel(d.Settings, d.ExportDir),
		elapsed:     elapsed,
		unsubscribe: unsubscribe,
		help:        h,
	}
}

// Close stops the elapsed-time subscription.
func (a App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.lessons.refresh(),
		a.settings.refresh(),
		waitForElapsed(a.elapsed),
	)
}

// waitForElapsed blocks on the next published timer sample.
func waitForElapsed(ch <-chan int64) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		secs, ok := <-ch
		if !ok {
			return nil
		}
		return elapsedMsg(secs)
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.lessons.setSize(a.width, contentHeight)
		a.study.setSize(a.width, contentHeight)
		a.statistics.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			if a.settings.exportFormat() == export.FormatJSON {
				a.exportCursor = 1
			}
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			a.activeView = viewLessons
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab2):
			a.activeView = viewStudy
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab3):
			a.activeView = viewStatistics
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab4):
			a.activeView = viewSettings
			return a, a.refreshCurrentView()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewState(len(viewNames))
			return a, a.refreshCurrentView()
		}

	case elapsedMsg:
		// Rendering reads the controller directly; just wait for the next one.
		return a, waitForElapsed(a.elapsed)

	case lessonOpenedMsg:
		a.activeView = viewStudy
		var cmd tea.Cmd
		a.study, cmd = a.study.open(msg.id, msg.name)
		return a, cmd

	case statusMsg:
		if msg.text != "" || msg.isError {
			a.status = msg.text
			a.isErr = msg.isError
		}
		if msg.isError {
			a.log.Error("tui operation failed", "view", viewNames[a.activeView], "error", msg.text)
		}
		a.study.syncLesson()
		return a, nil

	case settingsDataMsg:
		a.settings, _ = a.settings.update(msg)
		a.statistics.goal = a.settings.dailyGoal()
		return a, nil

	case statsLoadedMsg:
		a.statistics, _ = a.statistics.update(msg)
		return a, nil

	case exportDoneMsg:
		a.status = fmt.Sprintf("Exported %d notes to %s", msg.count, msg.path)
		a.isErr = false
		a.exportPicking = false
		a.log.Info("notes exported", "path", msg.path, "count", msg.count)
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewLessons:
		a.lessons, cmd = a.lessons.update(msg)
	case viewStudy:
		a.study, cmd = a.study.update(msg)
	case viewStatistics:
		a.statistics, cmd = a.statistics.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewLessons:
		return a.lessons.capturing()
	case viewStudy:
		return a.study.capturing()
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewLessons:
		return a.lessons.refresh()
	case viewStudy:
		return a.study.refresh()
	case viewStatistics:
		return a.statistics.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewLessons:
		content = a.lessons.view()
	case viewStudy:
		content = a.study.view()
	case viewStatistics:
		content = a.statistics.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(1, a.height-headerHeight-footerHeight)

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("studylog")
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.isErr {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	// Timer indicator in footer
	timerInfo := ""
	controls := a.ctl.Controls.Get()
	elapsed := stats.FormatSeconds(a.ctl.Elapsed.Get())
	switch {
	case controls.Stop:
		timerInfo = successStyle.Render(" ● " + elapsed)
	case controls.Resume:
		timerInfo = warningStyle.Render(" ⏸ " + elapsed)
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []export.Format{export.FormatCSV, export.FormatJSON}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, mutedStyle.Render("to "+a.settings.exportDirectory()))
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+string(f)))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(exportFormats[a.exportCursor])
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(f export.Format) tea.Cmd {
	dir := a.settings.exportDirectory()
	path := filepath.Join(dir, export.DefaultFilename(f, a.now().In(a.loc)))
	src, loc := a.exports, a.loc
	return func() tea.Msg {
		if src == nil {
			return statusMsg{text: "Export is not available", isError: true}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		n, err := export.Run(context.Background(), src, f, path, loc)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}
		return exportDoneMsg{path: path, count: n}
	}
}
