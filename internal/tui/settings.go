package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studylog/internal/export"
	"github.com/sadopc/studylog/internal/store"
)

// Settings the TUI owns. Timer keys in the same table are not shown.
const (
	settingExportDir    = store.SettingExportDir
	settingExportFormat = store.SettingExportFormat
	settingDailyGoal    = store.SettingDailyGoal
)

var settingLabels = map[string]string{
	settingExportDir:    "Export directory",
	settingExportFormat: "Export format",
	settingDailyGoal:    "Daily goal",
}

// SettingsStore persists key/value settings.
type SettingsStore interface {
	GetAllSettings(ctx context.Context) ([]store.Setting, error)
	SetSetting(ctx context.Context, key, value string) error
}

type settingsDataMsg struct {
	values map[string]string
}

type settingsModel struct {
	store      SettingsStore
	exportDir  string // used when export_dir is unset
	width      int
	height     int
	values     map[string]string
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	formExportDir    *string
	formExportFormat *string
	formDailyGoal    *string
}

func newSettingsModel(s SettingsStore, exportDir string) settingsModel {
	dir, format, goal := "", "", ""
	return settingsModel{
		store:            s,
		exportDir:        exportDir,
		values:           map[string]string{},
		formExportDir:    &dir,
		formExportFormat: &format,
		formDailyGoal:    &goal,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) refresh() tea.Cmd {
	if s.store == nil {
		return nil
	}
	return func() tea.Msg {
		settings, err := s.store.GetAllSettings(context.Background())
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
		}
		values := make(map[string]string, len(settings))
		for _, st := range settings {
			values[st.Key] = st.Value
		}
		return settingsDataMsg{values: values}
	}
}

func (s settingsModel) get(k, fallback string) string {
	if v, ok := s.values[k]; ok && v != "" {
		return v
	}
	return fallback
}

func (s settingsModel) exportDirectory() string {
	return s.get(settingExportDir, s.exportDir)
}

func (s settingsModel) exportFormat() export.Format {
	f, err := export.ParseFormat(s.get(settingExportFormat, string(export.FormatCSV)))
	if err != nil {
		return export.FormatCSV
	}
	return f
}

// dailyGoal is the goal in seconds, 0 when unset.
func (s settingsModel) dailyGoal() int64 {
	secs, err := strconv.ParseInt(s.get(settingDailyGoal, "0"), 10, 64)
	if err != nil || secs < 0 {
		return 0
	}
	return secs
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.values = msg.values
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.Edit):
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.formExportDir = s.exportDirectory()
	*s.formExportFormat = string(s.exportFormat())
	*s.formDailyGoal = secsToHours(s.dailyGoal())

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Export directory").Value(s.formExportDir),
			huh.NewSelect[string]().Title("Export format").
				Options(
					huh.NewOption("CSV", string(export.FormatCSV)),
					huh.NewOption("JSON", string(export.FormatJSON)),
				).Value(s.formExportFormat),
		).Title("Export"),
		huh.NewGroup(
			huh.NewInput().Title("Daily goal (hours)").
				Value(s.formDailyGoal).
				Validate(func(v string) error {
					_, err := hoursToSecs(v)
					return err
				}),
		).Title("Study"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		s.formActive = false
		s.form = nil
		return s, nil
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, tea.Sequence(s.save(), s.refresh())
	}
	return s, cmd
}

func (s settingsModel) save() tea.Cmd {
	goal, err := hoursToSecs(*s.formDailyGoal)
	if err != nil {
		return func() tea.Msg { return statusMsg{text: err.Error(), isError: true} }
	}
	values := map[string]string{
		settingExportDir:    strings.TrimSpace(*s.formExportDir),
		settingExportFormat: *s.formExportFormat,
		settingDailyGoal:    strconv.FormatInt(goal, 10),
	}
	return op("Settings saved", func(ctx context.Context) error {
		for _, k := range []string{settingExportDir, settingExportFormat, settingDailyGoal} {
			if err := s.store.SetSetting(ctx, k, values[k]); err != nil {
				return fmt.Errorf("save %s: %w", k, err)
			}
		}
		return nil
	})
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	rows := []string{title, ""}
	for _, k := range []string{settingExportDir, settingExportFormat, settingDailyGoal} {
		label := lipgloss.NewStyle().Width(20).Render(settingLabels[k])
		rows = append(rows, fmt.Sprintf("  %s %s", label, highlightStyle.Render(s.display(k))))
	}
	rows = append(rows, "", mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (s settingsModel) display(k string) string {
	switch k {
	case settingExportDir:
		return s.exportDirectory()
	case settingExportFormat:
		return strings.ToUpper(string(s.exportFormat()))
	case settingDailyGoal:
		if g := s.dailyGoal(); g > 0 {
			return secsToHours(g) + " hours"
		}
		return "none"
	}
	return s.values[k]
}

func secsToHours(secs int64) string {
	return strconv.FormatFloat(float64(secs)/3600, 'f', -1, 64)
}

func hoursToSecs(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	hours, err := strconv.ParseFloat(s, 64)
	if err != nil || hours < 0 || hours > 24 {
		return 0, fmt.Errorf("daily goal must be between 0 and 24 hours")
	}
	return int64(hours * 3600), nil
}
