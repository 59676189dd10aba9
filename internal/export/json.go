package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/studylog/internal/stats"
	"github.com/sadopc/studylog/internal/store"
)

type jsonExport struct {
	ExportedAt string     `json:"exported_at"`
	Count      int        `json:"count"`
	Notes      []jsonNote `json:"notes"`
}

type jsonNote struct {
	ID          int64  `json:"id"`
	Lesson      string `json:"lesson"`
	LessonID    int64  `json:"lesson_id"`
	Subject     string `json:"subject"`
	Details     string `json:"details"`
	Timestamp   string `json:"timestamp"`
	TimestampMs int64  `json:"timestamp_ms"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
}

func ToJSON(notes []store.Note, lessons map[int64]string, loc *time.Location, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()

	if err := WriteJSON(f, notes, lessons, loc); err != nil {
		return err
	}
	return f.Close()
}

// WriteJSON writes an indented document with every note and its lesson name.
func WriteJSON(out io.Writer, notes []store.Note, lessons map[int64]string, loc *time.Location) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(notes),
	}

	for _, n := range notes {
		export.Notes = append(export.Notes, jsonNote{
			ID:          n.ID,
			Lesson:      lessonName(lessons, n.LessonID),
			LessonID:    n.LessonID,
			Subject:     n.SubjectTitle,
			Details:     n.StudyDetails,
			Timestamp:   n.Time(loc).Format(time.RFC3339),
			TimestampMs: n.Timestamp,
			DurationSec: n.StudyTimeSeconds,
			Duration:    stats.FormatSeconds(n.StudyTimeSeconds),
		})
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
