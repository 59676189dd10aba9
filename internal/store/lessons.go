package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (s *Store) InsertLesson(ctx context.Context, name string) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO lessons (name, created_at) VALUES (?, ?)`,
		name, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert lesson %q: %w", name, ErrDuplicateName)
		}
		return 0, fmt.Errorf("insert lesson: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert lesson: %w", err)
	}
	return id, nil
}

func (s *Store) UpdateLesson(ctx context.Context, id int64, name string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE lessons SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update lesson %d: %w", id, ErrDuplicateName)
		}
		return fmt.Errorf("update lesson %d: %w", id, err)
	}
	return checkAffected(res, "update lesson", id)
}

// DeleteLesson removes the lesson row; its notes go with it through the
// ON DELETE CASCADE foreign key.
func (s *Store) DeleteLesson(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lessons WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete lesson %d: %w", id, err)
	}
	return checkAffected(res, "delete lesson", id)
}

func (s *Store) ListLessons(ctx context.Context) ([]Lesson, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM lessons ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	var lessons []Lesson
	for rows.Next() {
		var l Lesson
		var createdAt string
		if err := rows.Scan(&l.ID, &l.Name, &createdAt); err != nil {
			return nil, err
		}
		l.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// FindLessonByID returns nil, nil when no lesson has the given id.
func (s *Store) FindLessonByID(ctx context.Context, id int64) (*Lesson, error) {
	return s.findLesson(ctx, `SELECT id, name, created_at FROM lessons WHERE id = ?`, id)
}

// FindLessonByName matches the stored (normalized) name exactly.
func (s *Store) FindLessonByName(ctx context.Context, name string) (*Lesson, error) {
	return s.findLesson(ctx, `SELECT id, name, created_at FROM lessons WHERE name = ?`, name)
}

func (s *Store) findLesson(ctx context.Context, query string, arg any) (*Lesson, error) {
	l := &Lesson{}
	var createdAt string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&l.ID, &l.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find lesson %v: %w", arg, err)
	}
	l.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return l, nil
}
