package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
)

var noteColumns = []string{"id", "lesson_id", "subject_title", "study_details", "study_time_seconds", "timestamp"}

func (s *Store) InsertNote(ctx context.Context, n Note) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (lesson_id, subject_title, study_details, study_time_seconds, timestamp)
		 VALUES (?, ?, ?, ?, ?)`,
		n.LessonID, n.SubjectTitle, n.StudyDetails, n.StudyTimeSeconds, n.Timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("insert note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert note: %w", err)
	}
	return id, nil
}

// UpdateNote rewrites the editable fields of an existing note. The lesson
// and the creation timestamp are preserved as stored.
func (s *Store) UpdateNote(ctx context.Context, n Note) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notes SET subject_title = ?, study_details = ?, study_time_seconds = ? WHERE id = ?`,
		n.SubjectTitle, n.StudyDetails, n.StudyTimeSeconds, n.ID,
	)
	if err != nil {
		return fmt.Errorf("update note %d: %w", n.ID, err)
	}
	return checkAffected(res, "update note", n.ID)
}

func (s *Store) DeleteNote(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note %d: %w", id, err)
	}
	return checkAffected(res, "delete note", id)
}

func (s *Store) DeleteNotesByLesson(ctx context.Context, lessonID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE lesson_id = ?`, lessonID)
	if err != nil {
		return fmt.Errorf("delete notes of lesson %d: %w", lessonID, err)
	}
	return nil
}

func (s *Store) GetNote(ctx context.Context, id int64) (*Note, error) {
	n := &Note{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, lesson_id, subject_title, study_details, study_time_seconds, timestamp
		 FROM notes WHERE id = ?`, id,
	).Scan(&n.ID, &n.LessonID, &n.SubjectTitle, &n.StudyDetails, &n.StudyTimeSeconds, &n.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get note %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get note %d: %w", id, err)
	}
	return n, nil
}

// NotesByLesson returns the lesson's notes, newest first.
func (s *Store) NotesByLesson(ctx context.Context, lessonID int64) ([]Note, error) {
	return s.ListNotes(ctx, NoteFilter{LessonID: &lessonID, Newest: true})
}

// NotesByDateRange returns notes whose timestamp lies in [startMs, endMs].
func (s *Store) NotesByDateRange(ctx context.Context, startMs, endMs int64) ([]Note, error) {
	return s.ListNotes(ctx, NoteFilter{From: &startMs, To: &endMs})
}

func (s *Store) AllNotes(ctx context.Context) ([]Note, error) {
	return s.ListNotes(ctx, NoteFilter{})
}

func (s *Store) ListNotes(ctx context.Context, f NoteFilter) ([]Note, error) {
	query := sqlBuilder.Select(noteColumns...).From("notes")

	if f.LessonID != nil {
		query = query.Where(squirrel.Eq{"lesson_id": *f.LessonID})
	}
	if f.From != nil {
		query = query.Where(squirrel.GtOrEq{"timestamp": *f.From})
	}
	if f.To != nil {
		query = query.Where(squirrel.LtOrEq{"timestamp": *f.To})
	}
	if f.Newest {
		query = query.OrderBy("timestamp DESC", "id DESC")
	} else {
		query = query.OrderBy("timestamp", "id")
	}
	if f.Limit > 0 {
		query = query.Limit(uint64(f.Limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build notes query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.LessonID, &n.SubjectTitle, &n.StudyDetails, &n.StudyTimeSeconds, &n.Timestamp); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
