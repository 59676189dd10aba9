// Package export writes the note history to CSV or JSON files.
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sadopc/studylog/internal/stats"
	"github.com/sadopc/studylog/internal/store"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "csv" or "json" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv or json)", s)
	}
}

// DefaultFilename is studylog-export-<date>.<format>.
func DefaultFilename(f Format, now time.Time) string {
	return fmt.Sprintf("studylog-export-%s.%s", now.Format("2006-01-02"), f)
}

// Source is the read side of the store an export needs.
type Source interface {
	AllNotes(ctx context.Context) ([]store.Note, error)
	ListLessons(ctx context.Context) ([]store.Lesson, error)
}

// Run exports every note to path and returns how many were written.
func Run(ctx context.Context, src Source, f Format, path string, loc *time.Location) (int, error) {
	notes, err := src.AllNotes(ctx)
	if err != nil {
		return 0, fmt.Errorf("export notes: %w", err)
	}
	lessons, err := src.ListLessons(ctx)
	if err != nil {
		return 0, fmt.Errorf("export lessons: %w", err)
	}
	names := LessonNames(lessons)

	switch f {
	case FormatCSV:
		err = ToCSV(notes, names, loc, path)
	case FormatJSON:
		err = ToJSON(notes, names, loc, path)
	default:
		err = fmt.Errorf("unknown export format %q", f)
	}
	if err != nil {
		return 0, err
	}
	return len(notes), nil
}

// LessonNames indexes lessons by id.
func LessonNames(lessons []store.Lesson) map[int64]string {
	names := make(map[int64]string, len(lessons))
	for _, l := range lessons {
		names[l.ID] = l.Name
	}
	return names
}

func lessonName(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok {
		return name
	}
	return stats.UnknownLesson
}
