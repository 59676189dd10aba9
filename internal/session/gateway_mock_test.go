package session

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sadopc/studylog/internal/store"
)

// mockGateway is a mock implementation of Gateway
type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) InsertLesson(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockGateway) UpdateLesson(ctx context.Context, id int64, name string) error {
	args := m.Called(ctx, id, name)
	return args.Error(0)
}

func (m *mockGateway) DeleteLesson(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockGateway) ListLessons(ctx context.Context) ([]store.Lesson, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Lesson), args.Error(1)
}

func (m *mockGateway) FindLessonByName(ctx context.Context, name string) (*store.Lesson, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Lesson), args.Error(1)
}

func (m *mockGateway) InsertNote(ctx context.Context, n store.Note) (int64, error) {
	args := m.Called(ctx, n)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockGateway) UpdateNote(ctx context.Context, n store.Note) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *mockGateway) DeleteNote(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockGateway) DeleteNotesByLesson(ctx context.Context, lessonID int64) error {
	args := m.Called(ctx, lessonID)
	return args.Error(0)
}

func (m *mockGateway) GetNote(ctx context.Context, id int64) (*store.Note, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*store.Note), args.Error(1)
}

func (m *mockGateway) NotesByLesson(ctx context.Context, lessonID int64) ([]store.Note, error) {
	args := m.Called(ctx, lessonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.Note), args.Error(1)
}
