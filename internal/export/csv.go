package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/studylog/internal/stats"
	"github.com/sadopc/studylog/internal/store"
)

var csvHeader = []string{"ID", "Lesson", "Subject", "Details", "Timestamp", "Duration (s)", "Duration"}

func ToCSV(notes []store.Note, lessons map[int64]string, loc *time.Location, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, notes, lessons, loc); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV writes one row per note, timestamps rendered in loc.
func WriteCSV(out io.Writer, notes []store.Note, lessons map[int64]string, loc *time.Location) error {
	w := csv.NewWriter(out)

	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, n := range notes {
		row := []string{
			strconv.FormatInt(n.ID, 10),
			lessonName(lessons, n.LessonID),
			n.SubjectTitle,
			n.StudyDetails,
			n.Time(loc).Format(time.RFC3339),
			strconv.FormatInt(n.StudyTimeSeconds, 10),
			stats.FormatSeconds(n.StudyTimeSeconds),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", n.ID, err)
		}
	}

	w.Flush()
	return w.Error()
}
