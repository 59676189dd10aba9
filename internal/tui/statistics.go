package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studylog/internal/session"
	"github.com/sadopc/studylog/internal/stats"
)

type statsMode int

const (
	statsDaily statsMode = iota
	statsWeekly
	statsMonthly
)

var statsModeNames = []string{"Daily", "Weekly", "Monthly"}

type statisticsModel struct {
	stats  *session.Statistics
	now    func() time.Time
	width  int
	height int

	mode   statsMode
	offset int   // weeks back from the current one
	goal   int64 // daily goal in seconds, 0 when unset

	chart barchart.Model
}

func newStatisticsModel(s *session.Statistics, now func() time.Time) statisticsModel {
	return statisticsModel{
		stats: s,
		now:   now,
		chart: barchart.New(60, 12),
	}
}

func (m *statisticsModel) setSize(w, h int) {
	m.width = w
	m.height = h
	m.buildChart()
}

// ref is the reference time for the week being shown.
func (m statisticsModel) ref() time.Time {
	return m.now().AddDate(0, 0, -7*m.offset)
}

func (m statisticsModel) refresh() tea.Cmd {
	ref, offset := m.ref(), m.offset
	return func() tea.Msg {
		snap, err := m.stats.Compute(context.Background(), ref)
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Statistics error: %v", err), isError: true}
		}
		return statsLoadedMsg{offset: offset, snap: snap}
	}
}

func (m statisticsModel) update(msg tea.Msg) (statisticsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		// Drop loads started for a week that is no longer shown.
		if msg.offset != m.offset {
			return m, nil
		}
		m.stats.Publish(msg.snap)
		m.buildChart()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			m.offset++
			return m, m.refresh()
		case key.Matches(msg, keys.Right):
			if m.offset > 0 {
				m.offset--
				return m, m.refresh()
			}
		case key.Matches(msg, keys.Mode):
			m.mode = (m.mode + 1) % statsMode(len(statsModeNames))
			m.buildChart()
			return m, nil
		}
	}
	return m, nil
}

func (m *statisticsModel) buildChart() {
	chartWidth := max(20, m.width-8)
	chartHeight := 12
	if m.height > 30 {
		chartHeight = 16
	}
	m.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	switch m.mode {
	case statsDaily:
		for _, d := range m.stats.Daily.Get() {
			bars = append(bars, barchart.BarData{
				Label:  truncate(d.DayLabel, 3),
				Values: lessonValues(d.PerLessonSeconds),
			})
		}
	case statsWeekly:
		weeks := m.stats.Weekly.Get()
		// Oldest week on the left.
		for i := len(weeks) - 1; i >= 0; i-- {
			bars = append(bars, barchart.BarData{
				Label:  weeks[i].WeekStart,
				Values: lessonValues(weeks[i].PerLessonSeconds),
			})
		}
	case statsMonthly:
		months := m.stats.Monthly.Get()
		for i := len(months) - 1; i >= 0 && len(months)-i <= 12; i-- {
			bars = append(bars, barchart.BarData{
				Label: truncate(months[i].MonthLabel, 8),
				Values: []barchart.BarValue{{
					Name:  months[i].MonthLabel,
					Value: hours(months[i].TotalSeconds),
					Style: lipgloss.NewStyle().Foreground(colorPrimary),
				}},
			})
		}
	}
	if len(bars) == 0 {
		return
	}

	m.chart.PushAll(bars)
	m.chart.Draw()
}

// lessonValues stacks one bar segment per lesson, in name order so a
// lesson always sits at the same height.
func lessonValues(perLesson map[string]int64) []barchart.BarValue {
	names := sortedLessons(perLesson)
	if len(names) == 0 {
		return []barchart.BarValue{{Name: "", Value: 0, Style: lipgloss.NewStyle().Foreground(colorSubtle)}}
	}
	values := make([]barchart.BarValue, 0, len(names))
	for _, name := range names {
		values = append(values, barchart.BarValue{
			Name:  name,
			Value: hours(perLesson[name]),
			Style: lipgloss.NewStyle().Foreground(lessonColor(name)),
		})
	}
	return values
}

func sortedLessons(perLesson map[string]int64) []string {
	names := make([]string, 0, len(perLesson))
	for name := range perLesson {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func hours(secs int64) float64 {
	return float64(secs) / 3600.0
}

func (m statisticsModel) view() string {
	w := m.width - 4

	var tabs []string
	for i, name := range statsModeNames {
		if statsMode(i) == m.mode {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Statistics"), "  ", modeTabs, "  ", mutedStyle.Render(m.rangeLabel()),
	)

	var table, legend string
	switch m.mode {
	case statsDaily:
		table = m.renderDailyTable(w)
		legend = m.renderLegend()
	case statsWeekly:
		table = m.renderWeeklyTable(w)
		legend = m.renderLegend()
	case statsMonthly:
		table = m.renderMonthlyTable(w)
	}

	nav := mutedStyle.Render("  ←/→: older/newer week  m: switch mode")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", m.chart.View(), "", legend, "", table, "", nav,
		),
	)
}

func (m statisticsModel) rangeLabel() string {
	if m.mode == statsMonthly {
		return "all time"
	}
	daily := m.stats.Daily.Get()
	if len(daily) == 0 {
		return ""
	}
	return fmt.Sprintf("%s - %s", daily[0].WeekStart, daily[0].WeekEnd)
}

func (m statisticsModel) renderDailyTable(w int) string {
	days := m.stats.Daily.Get()
	if len(days) == 0 {
		return mutedStyle.Render("  No data for this week")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-10s %-10s %10s  %s", "Day", "Date", "Total", "Lessons")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", max(10, min(w-6, 64)))))

	for _, d := range days {
		total := d.TotalTime()
		switch {
		case m.goal > 0 && d.TotalSeconds >= m.goal:
			total = successStyle.Render(total + " ✓")
		case d.TotalSeconds > 0:
			total = highlightStyle.Render(total)
		default:
			total = mutedStyle.Render(total)
		}
		rows = append(rows, fmt.Sprintf("  %-10s %-10s %10s  %s",
			d.DayLabel, d.DateLabel, total, lessonBreakdown(d.PerLessonSeconds),
		))
	}
	return strings.Join(rows, "\n")
}

func (m statisticsModel) renderWeeklyTable(w int) string {
	weeks := m.stats.Weekly.Get()
	if len(weeks) == 0 {
		return mutedStyle.Render("  No notes in the last four weeks")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-22s %10s  %s", "Week", "Total", "Lessons")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", max(10, min(w-6, 64)))))
	for _, wk := range weeks {
		rows = append(rows, fmt.Sprintf("  %-22s %10s  %s",
			wk.WeekStart+" - "+wk.WeekEnd, highlightStyle.Render(wk.TotalTime()), lessonBreakdown(wk.PerLessonSeconds),
		))
	}
	return strings.Join(rows, "\n")
}

func (m statisticsModel) renderMonthlyTable(w int) string {
	months := m.stats.Monthly.Get()
	if len(months) == 0 {
		return mutedStyle.Render("  No notes yet")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-16s %10s", "Month", "Total")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", max(10, min(w-6, 30)))))
	for _, mo := range months {
		rows = append(rows, fmt.Sprintf("  %-16s %10s", mo.MonthLabel, highlightStyle.Render(mo.TotalTime())))
	}
	return strings.Join(rows, "\n")
}

func lessonBreakdown(perLesson map[string]int64) string {
	var parts []string
	for _, name := range sortedLessons(perLesson) {
		dot := lipgloss.NewStyle().Foreground(lessonColor(name)).Render("●")
		parts = append(parts, fmt.Sprintf("%s %s %s", dot, name, stats.FormatSeconds(perLesson[name])))
	}
	return strings.Join(parts, "  ")
}

func (m statisticsModel) renderLegend() string {
	seen := make(map[string]bool)
	var names []string
	collect := func(perLesson map[string]int64) {
		for name := range perLesson {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	if m.mode == statsDaily {
		for _, d := range m.stats.Daily.Get() {
			collect(d.PerLessonSeconds)
		}
	} else {
		for _, wk := range m.stats.Weekly.Get() {
			collect(wk.PerLessonSeconds)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)

	items := make([]string, 0, len(names))
	for _, name := range names {
		dot := lipgloss.NewStyle().Foreground(lessonColor(name)).Render("●")
		items = append(items, fmt.Sprintf("%s %s", dot, name))
	}
	return "  " + strings.Join(items, "  ")
}
