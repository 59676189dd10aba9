package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/studylog/internal/export"
	"github.com/sadopc/studylog/internal/stats"
	"github.com/sadopc/studylog/internal/store"
)

var (
	statsWeekOf string

	exportFormat string
	exportOut    string
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print daily, weekly and monthly study totals",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsWeekOf, "week-of", "", "any date in the week to show (YYYY-MM-DD, default: today)")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd.Context(), configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	ref := time.Now().In(a.loc)
	if statsWeekOf != "" {
		ref, err = time.ParseInLocation("2006-01-02", statsWeekOf, a.loc)
		if err != nil {
			return fmt.Errorf("invalid --week-of value: %w", err)
		}
	}

	if err := a.statistics.Load(cmd.Context(), ref); err != nil {
		return fmt.Errorf("failed to compute statistics: %w", err)
	}
	return writeStats(cmd.OutOrStdout(), a.statistics.Daily.Get(), a.statistics.Weekly.Get(), a.statistics.Monthly.Get())
}

func writeStats(w io.Writer, daily []stats.DailyStatistic, weekly []stats.WeeklyStatistic, monthly []stats.MonthlyStatistic) error {
	var b strings.Builder

	if len(daily) > 0 {
		fmt.Fprintf(&b, "Week %s - %s\n", daily[0].WeekStart, daily[0].WeekEnd)
	}
	days := newTable("Day", "Date", "Total", "Lessons")
	for _, d := range daily {
		days.Row(d.DayLabel, d.DateLabel, d.TotalTime(), formatLessonTimes(d.LessonTimes()))
	}
	b.WriteString(days.String() + "\n\n")

	b.WriteString("Last four weeks\n")
	if len(weekly) == 0 {
		b.WriteString("no notes\n\n")
	} else {
		weeks := newTable("Week", "Total", "Lessons")
		for _, wk := range weekly {
			weeks.Row(wk.WeekStart+" - "+wk.WeekEnd, wk.TotalTime(), formatLessonTimes(wk.LessonTimes()))
		}
		b.WriteString(weeks.String() + "\n\n")
	}

	b.WriteString("Months\n")
	if len(monthly) == 0 {
		b.WriteString("no notes\n")
	} else {
		months := newTable("Month", "Total")
		for _, m := range monthly {
			months.Row(m.MonthLabel, m.TotalTime())
		}
		b.WriteString(months.String() + "\n")
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func formatLessonTimes(times map[string]string) string {
	names := make([]string, 0, len(times))
	for name := range times {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+" "+times[name])
	}
	return strings.Join(parts, ", ")
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every note to CSV or JSON",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportFormat, "format", string(export.FormatCSV), "csv or json")
	cmd.Flags().StringVar(&exportOut, "out", "", "output file (default: studylog-export-<date>.<format>)")
	return cmd
}

// runExportCmd falls back to the export_format and export_dir settings saved
// from the TUI when --format or --out is not given.
func runExportCmd(cmd *cobra.Command, _ []string) error {
	if _, err := export.ParseFormat(exportFormat); err != nil {
		return err
	}

	a, err := openApp(cmd.Context(), configPath, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	name := exportFormat
	if !cmd.Flags().Changed("format") {
		if name, err = a.setting(cmd.Context(), store.SettingExportFormat, exportFormat); err != nil {
			return err
		}
	}
	format, err := export.ParseFormat(name)
	if err != nil {
		return err
	}

	path := exportOut
	if path == "" {
		dir, err := a.setting(cmd.Context(), store.SettingExportDir, "")
		if err != nil {
			return err
		}
		path = export.DefaultFilename(format, time.Now().In(a.loc))
		if dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create export directory: %w", err)
			}
			path = filepath.Join(dir, path)
		}
	}

	n, err := export.Run(cmd.Context(), a.store, format, path, a.loc)
	if err != nil {
		return err
	}
	a.log.Info("notes exported", "path", path, "count", n, "format", format)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %d notes to %s\n", n, path)
	return err
}

func newTimerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Inspect or drive the study timer",
	}

	actions := []struct {
		use, short string
		run        func(*app, *cobra.Command) error
	}{
		{"status", "Show the timer state", func(*app, *cobra.Command) error { return nil }},
		{"start", "Start the timer from zero", func(a *app, c *cobra.Command) error { return a.ctl.StartTimer(c.Context()) }},
		{"pause", "Pause a running timer", func(a *app, c *cobra.Command) error { return a.ctl.PauseTimer(c.Context()) }},
		{"resume", "Resume a paused timer", func(a *app, c *cobra.Command) error { return a.ctl.ResumeTimer(c.Context()) }},
		{"reset", "Stop the timer and clear it", func(a *app, c *cobra.Command) error { return a.ctl.ResetTimer(c.Context()) }},
	}
	for _, act := range actions {
		cmd.AddCommand(&cobra.Command{
			Use:   act.use,
			Short: act.short,
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, _ []string) error {
				a, err := openApp(c.Context(), configPath, c.ErrOrStderr())
				if err != nil {
					return err
				}
				defer a.Close()

				if err := act.run(a, c); err != nil {
					return fmt.Errorf("timer %s: %w", act.use, err)
				}
				_, err = fmt.Fprintf(c.OutOrStdout(), "%s %s\n", a.engine.State(), stats.FormatSeconds(a.engine.Elapsed()))
				return err
			},
		})
	}
	return cmd
}
