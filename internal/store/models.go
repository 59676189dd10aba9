package store

import "time"

type Lesson struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Note is one timed study session logged against a lesson.
type Note struct {
	ID               int64
	LessonID         int64
	SubjectTitle     string
	StudyDetails     string
	StudyTimeSeconds int64
	Timestamp        int64 // epoch milliseconds
}

// Time returns the note timestamp as a time.Time in loc.
func (n Note) Time(loc *time.Location) time.Time {
	return time.UnixMilli(n.Timestamp).In(loc)
}

type Setting struct {
	Key   string
	Value string
}

// NoteFilter is used to filter notes in queries. From and To are inclusive
// epoch-millisecond bounds.
type NoteFilter struct {
	LessonID *int64
	From     *int64
	To       *int64
	Newest   bool
	Limit    int
}
