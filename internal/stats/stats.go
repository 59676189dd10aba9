// Package stats rolls the note history up into daily, weekly and monthly
// study-time statistics.
package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sadopc/studylog/internal/store"
)

// WeeksInRollup is how many Monday-start weeks Weekly looks back over,
// the current week included.
const WeeksInRollup = 4

// Source is the read side of the persistence gateway the aggregator needs.
type Source interface {
	NotesByDateRange(ctx context.Context, startMs, endMs int64) ([]store.Note, error)
	AllNotes(ctx context.Context) ([]store.Note, error)
	FindLessonByID(ctx context.Context, id int64) (*store.Lesson, error)
}

type DailyStatistic struct {
	Date             time.Time
	DayLabel         string
	DateLabel        string
	WeekStart        string
	WeekEnd          string
	PerLessonSeconds map[string]int64
	TotalSeconds     int64
}

func (d DailyStatistic) TotalTime() string { return FormatSeconds(d.TotalSeconds) }

func (d DailyStatistic) LessonTimes() map[string]string { return formatLessonTimes(d.PerLessonSeconds) }

type WeeklyStatistic struct {
	Start            time.Time
	End              time.Time
	WeekStart        string
	WeekEnd          string
	PerLessonSeconds map[string]int64
	TotalSeconds     int64
}

func (w WeeklyStatistic) TotalTime() string { return FormatSeconds(w.TotalSeconds) }

func (w WeeklyStatistic) LessonTimes() map[string]string { return formatLessonTimes(w.PerLessonSeconds) }

type MonthlyStatistic struct {
	Year         int
	Month        time.Month
	MonthLabel   string
	TotalSeconds int64
}

func (m MonthlyStatistic) TotalTime() string { return FormatSeconds(m.TotalSeconds) }

func formatLessonTimes(in map[string]int64) map[string]string {
	out := make(map[string]string, len(in))
	for name, secs := range in {
		out[name] = FormatSeconds(secs)
	}
	return out
}

type Aggregator struct {
	src Source
	loc *time.Location
}

type Option func(*Aggregator)

// WithLocation sets the timezone that defines calendar days. Default time.Local.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) {
		if loc != nil {
			a.loc = loc
		}
	}
}

func New(src Source, opts ...Option) *Aggregator {
	a := &Aggregator{src: src, loc: time.Local}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) Location() *time.Location { return a.loc }

// Daily returns one entry per day of ref's Monday-start week, Monday first.
// Days without notes are included with a zero total.
func (a *Aggregator) Daily(ctx context.Context, ref time.Time) ([]DailyStatistic, error) {
	weekStart, weekEnd := WeekBounds(ref, a.loc)
	startLabel, endLabel := FormatDate(weekStart), FormatDate(weekEnd)
	names := newLessonNames(a.src)

	days := make([]DailyStatistic, 0, 7)
	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		from, to := DayBounds(day, a.loc)

		notes, err := a.src.NotesByDateRange(ctx, from.UnixMilli(), to.UnixMilli())
		if err != nil {
			return nil, fmt.Errorf("daily notes %s: %w", day.Format("2006-01-02"), err)
		}
		perLesson, total, err := sumByLesson(ctx, names, notes)
		if err != nil {
			return nil, err
		}

		days = append(days, DailyStatistic{
			Date:             day,
			DayLabel:         DayName(day),
			DateLabel:        FormatDate(day),
			WeekStart:        startLabel,
			WeekEnd:          endLabel,
			PerLessonSeconds: perLesson,
			TotalSeconds:     total,
		})
	}
	return days, nil
}

// Weekly returns rollups for ref's week and the three before it, current week
// first. Weeks without notes are left out.
func (a *Aggregator) Weekly(ctx context.Context, ref time.Time) ([]WeeklyStatistic, error) {
	names := newLessonNames(a.src)
	var weeks []WeeklyStatistic

	for offset := 0; offset < WeeksInRollup; offset++ {
		start, end := WeekBounds(ref.In(a.loc).AddDate(0, 0, -7*offset), a.loc)

		notes, err := a.src.NotesByDateRange(ctx, start.UnixMilli(), end.UnixMilli())
		if err != nil {
			return nil, fmt.Errorf("weekly notes %s: %w", start.Format("2006-01-02"), err)
		}
		if len(notes) == 0 {
			continue
		}
		perLesson, total, err := sumByLesson(ctx, names, notes)
		if err != nil {
			return nil, err
		}

		weeks = append(weeks, WeeklyStatistic{
			Start:            start,
			End:              end,
			WeekStart:        FormatDate(start),
			WeekEnd:          FormatDate(end),
			PerLessonSeconds: perLesson,
			TotalSeconds:     total,
		})
	}
	return weeks, nil
}

type monthKey struct {
	year  int
	month time.Month
}

// Monthly totals every note by calendar month across all lessons, most
// recent month first. Ordering is by (year, month), not by label text; see
// SortMonthlyByLabel for the label ordering.
func (a *Aggregator) Monthly(ctx context.Context) ([]MonthlyStatistic, error) {
	notes, err := a.src.AllNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("monthly notes: %w", err)
	}

	totals := make(map[monthKey]int64)
	for _, n := range notes {
		t := n.Time(a.loc)
		totals[monthKey{t.Year(), t.Month()}] += n.StudyTimeSeconds
	}

	months := make([]MonthlyStatistic, 0, len(totals))
	for k, total := range totals {
		months = append(months, MonthlyStatistic{
			Year:         k.year,
			Month:        k.month,
			MonthLabel:   FormatMonth(k.year, k.month),
			TotalSeconds: total,
		})
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year > months[j].Year
		}
		return months[i].Month > months[j].Month
	})
	return months, nil
}

// SortMonthlyByLabel orders months by descending label text. It misorders across years and within a
// year ("Şubat" sorts after "Ekim"); kept for comparison only.
func SortMonthlyByLabel(months []MonthlyStatistic) {
	sort.SliceStable(months, func(i, j int) bool {
		return months[i].MonthLabel > months[j].MonthLabel
	})
}

func sumByLesson(ctx context.Context, names *lessonNames, notes []store.Note) (map[string]int64, int64, error) {
	perLesson := make(map[string]int64)
	var total int64
	for _, n := range notes {
		name, err := names.lookup(ctx, n.LessonID)
		if err != nil {
			return nil, 0, err
		}
		perLesson[name] += n.StudyTimeSeconds
		total += n.StudyTimeSeconds
	}
	return perLesson, total, nil
}

// lessonNames memoizes id → name lookups for the span of one rollup call.
type lessonNames struct {
	src   Source
	names map[int64]string
}

func newLessonNames(src Source) *lessonNames {
	return &lessonNames{src: src, names: make(map[int64]string)}
}

func (l *lessonNames) lookup(ctx context.Context, id int64) (string, error) {
	if name, ok := l.names[id]; ok {
		return name, nil
	}
	lesson, err := l.src.FindLessonByID(ctx, id)
	if err != nil {
		return "", fmt.Errorf("resolve lesson %d: %w", id, err)
	}
	name := UnknownLesson
	if lesson != nil {
		name = lesson.Name
	}
	l.names[id] = name
	return name, nil
}
