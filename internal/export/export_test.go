package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/studylog/internal/store"
)

var ist = time.FixedZone("TRT", 3*60*60)

func sampleData() ([]store.Note, map[int64]string) {
	base := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)

	notes := []store.Note{
		{
			ID:               1,
			LessonID:         1,
			SubjectTitle:     "ALGEBRA",
			StudyDetails:     "chapter 1",
			StudyTimeSeconds: 3600,
			Timestamp:        base.UnixMilli(),
		},
		{
			ID:               2,
			LessonID:         2,
			SubjectTitle:     "OPTICS",
			StudyDetails:     "BULUNAMADI",
			StudyTimeSeconds: 125,
			Timestamp:        base.Add(time.Hour).UnixMilli(),
		},
		{
			ID:               3,
			LessonID:         1,
			SubjectTitle:     "GEOMETRY",
			StudyDetails:     "",
			StudyTimeSeconds: 0,
			Timestamp:        base.Add(2 * time.Hour).UnixMilli(),
		},
	}

	lessons := map[int64]string{
		1: "MATH",
		2: "PHYSICS",
	}

	return notes, lessons
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	return records
}

func readJSON(t *testing.T, path string) jsonExport {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	return result
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	notes, lessons := sampleData()
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := ToCSV(notes, lessons, ist, path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	records := readCSV(t, path)
	if len(records) != 4 {
		t.Fatalf("expected 4 rows (1 header + 3 data), got %d", len(records))
	}

	for i, h := range csvHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[0] != "1" {
		t.Fatalf("ID = %q, want 1", row[0])
	}
	if row[1] != "MATH" {
		t.Fatalf("Lesson = %q, want MATH", row[1])
	}
	if row[2] != "ALGEBRA" || row[3] != "chapter 1" {
		t.Fatalf("Subject/Details = %q/%q", row[2], row[3])
	}
	if row[4] != "2024-03-11T12:00:00+03:00" {
		t.Fatalf("Timestamp = %q, want local RFC3339", row[4])
	}
	if row[5] != "3600" {
		t.Fatalf("Duration (s) = %q, want 3600", row[5])
	}
	if row[6] != "01:00:00" {
		t.Fatalf("Duration = %q, want 01:00:00", row[6])
	}

	if records[2][6] != "00:02:05" {
		t.Fatalf("Duration = %q, want 00:02:05", records[2][6])
	}
	if records[3][5] != "0" || records[3][3] != "" {
		t.Fatalf("zero-length note mangled: %v", records[3])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	if err := ToCSV(nil, nil, time.UTC, path); err != nil {
		t.Fatal(err)
	}

	records := readCSV(t, path)
	if len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVUnknownLesson(t *testing.T) {
	notes := []store.Note{
		{ID: 1, LessonID: 999, Timestamp: time.Now().UnixMilli(), StudyTimeSeconds: 60},
	}
	path := filepath.Join(t.TempDir(), "unknown.csv")

	if err := ToCSV(notes, map[int64]string{}, time.UTC, path); err != nil {
		t.Fatal(err)
	}

	records := readCSV(t, path)
	if records[1][1] != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN for missing lesson, got %q", records[1][1])
	}
}

func TestToCSVBadPath(t *testing.T) {
	err := ToCSV(nil, nil, time.UTC, "/nonexistent/dir/file.csv")
	if err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToCSVSpecialCharacters(t *testing.T) {
	notes := []store.Note{
		{
			ID:               1,
			LessonID:         1,
			SubjectTitle:     `"QUOTED" TOPIC`,
			StudyDetails:     "details with \"quotes\", commas\nand newlines",
			StudyTimeSeconds: 60,
			Timestamp:        time.Now().UnixMilli(),
		},
	}
	path := filepath.Join(t.TempDir(), "special.csv")

	if err := ToCSV(notes, map[int64]string{1: "TÜRKÇE, DİL"}, time.UTC, path); err != nil {
		t.Fatal(err)
	}

	records := readCSV(t, path)
	if records[1][1] != "TÜRKÇE, DİL" {
		t.Fatalf("lesson name mangled: %q", records[1][1])
	}
	if records[1][2] != `"QUOTED" TOPIC` {
		t.Fatalf("subject mangled: %q", records[1][2])
	}
	if records[1][3] != "details with \"quotes\", commas\nand newlines" {
		t.Fatalf("details mangled: %q", records[1][3])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	notes, lessons := sampleData()
	path := filepath.Join(t.TempDir(), "test.json")

	if err := ToJSON(notes, lessons, ist, path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	result := readJSON(t, path)
	if result.Count != 3 {
		t.Fatalf("count = %d, want 3", result.Count)
	}
	if len(result.Notes) != 3 {
		t.Fatalf("notes = %d, want 3", len(result.Notes))
	}
	if result.ExportedAt == "" {
		t.Fatal("exported_at should not be empty")
	}

	n := result.Notes[1]
	if n.ID != 2 || n.LessonID != 2 {
		t.Fatalf("ID/LessonID = %d/%d, want 2/2", n.ID, n.LessonID)
	}
	if n.Lesson != "PHYSICS" {
		t.Fatalf("Lesson = %q, want PHYSICS", n.Lesson)
	}
	if n.Subject != "OPTICS" || n.Details != "BULUNAMADI" {
		t.Fatalf("Subject/Details = %q/%q", n.Subject, n.Details)
	}
	if n.DurationSec != 125 || n.Duration != "00:02:05" {
		t.Fatalf("duration = %d/%q", n.DurationSec, n.Duration)
	}
	if n.TimestampMs != notes[1].Timestamp {
		t.Fatalf("timestamp_ms = %d, want %d", n.TimestampMs, notes[1].Timestamp)
	}
	if n.Timestamp != "2024-03-11T13:00:00+03:00" {
		t.Fatalf("timestamp = %q", n.Timestamp)
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")

	if err := ToJSON(nil, nil, time.UTC, path); err != nil {
		t.Fatal(err)
	}

	result := readJSON(t, path)
	if result.Count != 0 {
		t.Fatalf("count = %d, want 0", result.Count)
	}
	if result.Notes != nil {
		t.Fatal("notes should be nil/null for empty export")
	}
}

func TestToJSONUnknownLesson(t *testing.T) {
	notes := []store.Note{
		{ID: 1, LessonID: 999, Timestamp: time.Now().UnixMilli(), StudyTimeSeconds: 60},
	}
	path := filepath.Join(t.TempDir(), "unknown.json")

	if err := ToJSON(notes, map[int64]string{}, time.UTC, path); err != nil {
		t.Fatal(err)
	}

	result := readJSON(t, path)
	if result.Notes[0].Lesson != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN, got %q", result.Notes[0].Lesson)
	}
}

func TestToJSONBadPath(t *testing.T) {
	err := ToJSON(nil, nil, time.UTC, "/nonexistent/dir/file.json")
	if err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestToJSONPrettyPrinted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pretty.json")
	if err := ToJSON(nil, nil, time.UTC, path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "\n  ") {
		t.Fatal("JSON should be indented with spaces")
	}
}

func TestToJSONValidTimestamps(t *testing.T) {
	notes, lessons := sampleData()
	path := filepath.Join(t.TempDir(), "ts.json")
	if err := ToJSON(notes, lessons, time.UTC, path); err != nil {
		t.Fatal(err)
	}

	result := readJSON(t, path)
	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}
	for _, n := range result.Notes {
		ts, err := time.Parse(time.RFC3339, n.Timestamp)
		if err != nil {
			t.Fatalf("timestamp is not valid RFC3339: %q", n.Timestamp)
		}
		if ts.UnixMilli() != n.TimestampMs {
			t.Fatalf("timestamp %q disagrees with timestamp_ms %d", n.Timestamp, n.TimestampMs)
		}
	}
}

// ============================================================
// Run
// ============================================================

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"csv": FormatCSV, " JSON ": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatal("expected error for xml")
	}
}

func TestDefaultFilename(t *testing.T) {
	got := DefaultFilename(FormatCSV, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC))
	if got != "studylog-export-2024-03-11.csv" {
		t.Fatalf("DefaultFilename = %q", got)
	}
}

func TestRunFromStore(t *testing.T) {
	ctx := context.Background()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	math, _ := s.InsertLesson(ctx, "MATH")
	for i, secs := range []int64{60, 120} {
		_, err := s.InsertNote(ctx, store.Note{
			LessonID: math, SubjectTitle: "ALGEBRA", StudyDetails: "x",
			StudyTimeSeconds: secs, Timestamp: int64(1000 * (i + 1)),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), "run.csv")
	n, err := Run(ctx, s, FormatCSV, path, time.UTC)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("exported %d notes, want 2", n)
	}
	records := readCSV(t, path)
	if len(records) != 3 || records[1][1] != "MATH" || records[2][5] != "120" {
		t.Fatalf("unexpected export: %v", records)
	}
}
