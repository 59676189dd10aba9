// Package session orchestrates the lesson, note and timer flows on top of the
// persistence gateway and the timer engine, and publishes the resulting
// state as observable values for a presentation layer to render.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sadopc/studylog/internal/signal"
	"github.com/sadopc/studylog/internal/store"
	"github.com/sadopc/studylog/internal/timer"
)

// Placeholder replaces a blank subject or details field when a note is saved.
const Placeholder = "BULUNAMADI"

// Gateway is the subset of the store the controller drives.
type Gateway interface {
	InsertLesson(ctx context.Context, name string) (int64, error)
	UpdateLesson(ctx context.Context, id int64, name string) error
	DeleteLesson(ctx context.Context, id int64) error
	ListLessons(ctx context.Context) ([]store.Lesson, error)
	FindLessonByName(ctx context.Context, name string) (*store.Lesson, error)

	InsertNote(ctx context.Context, n store.Note) (int64, error)
	UpdateNote(ctx context.Context, n store.Note) error
	DeleteNote(ctx context.Context, id int64) error
	DeleteNotesByLesson(ctx context.Context, lessonID int64) error
	GetNote(ctx context.Context, id int64) (*store.Note, error)
	NotesByLesson(ctx context.Context, lessonID int64) ([]store.Note, error)
}

// LessonOutcome tells the caller what AddOrUpdateLesson did.
type LessonOutcome int

const (
	LessonBlank     LessonOutcome = iota // nothing to save
	LessonDuplicate                      // name taken, input kept
	LessonCreated
	LessonUpdated
)

func (o LessonOutcome) String() string {
	switch o {
	case LessonDuplicate:
		return "duplicate"
	case LessonCreated:
		return "created"
	case LessonUpdated:
		return "updated"
	default:
		return "blank"
	}
}

// Controller holds the session state. Every exported method that touches the
// gateway or the timer runs under one mutex, so a reload always observes its
// own mutation and two flows never interleave.
//
// Editing ids are 0 when no edit is in progress; store ids start at 1.
type Controller struct {
	mu    sync.Mutex
	gw    Gateway
	timer *timer.Engine
	log   *slog.Logger
	now   func() time.Time

	Lessons        *signal.Value[[]store.Lesson]
	Notes          *signal.Value[[]store.Note]
	SelectedLesson *signal.Value[int64]
	Elapsed        *signal.Value[int64]
	Controls       *signal.Value[timer.Controls]

	LessonInput  *signal.Value[string]
	SubjectInput *signal.Value[string]
	DetailsInput *signal.Value[string]

	EditingLesson *signal.Value[int64]
	EditingNote   *signal.Value[int64]
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithClock sets the source of note timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

func New(gw Gateway, engine *timer.Engine, opts ...Option) *Controller {
	c := &Controller{
		gw:    gw,
		timer: engine,
		log:   slog.Default(),
		now:   time.Now,

		Lessons:        signal.New[[]store.Lesson](nil),
		Notes:          signal.New[[]store.Note](nil),
		SelectedLesson: signal.New[int64](0),
		Elapsed:        signal.New(engine.Elapsed()),
		Controls:       signal.New(engine.Controls()),

		LessonInput:  signal.New(""),
		SubjectInput: signal.New(""),
		DetailsInput: signal.New(""),

		EditingLesson: signal.New[int64](0),
		EditingNote:   signal.New[int64](0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load publishes the initial lesson list and timer state.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishTimer()
	return c.reloadLessons(ctx)
}

// ============================================================
// Lessons
// ============================================================

// NormalizeLessonName trims and upper-cases a lesson name.
func NormalizeLessonName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// AddOrUpdateLesson saves LessonInput as a new lesson, or renames the lesson
// being edited. A blank name and a name that already exists are not errors:
// they are reported through the outcome and the input is left untouched.
func (c *Controller) AddOrUpdateLesson(ctx context.Context) (LessonOutcome, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := NormalizeLessonName(c.LessonInput.Get())
	if name == "" {
		return LessonBlank, nil
	}

	var outcome LessonOutcome
	if id := c.EditingLesson.Get(); id != 0 {
		if err := c.gw.UpdateLesson(ctx, id, name); err != nil {
			return LessonBlank, fmt.Errorf("rename lesson: %w", err)
		}
		c.EditingLesson.Set(0)
		outcome = LessonUpdated
	} else {
		existing, err := c.gw.FindLessonByName(ctx, name)
		if err != nil {
			return LessonBlank, fmt.Errorf("check lesson name: %w", err)
		}
		if existing != nil {
			c.log.Debug("lesson already exists", "name", name, "id", existing.ID)
			return LessonDuplicate, nil
		}
		if _, err := c.gw.InsertLesson(ctx, name); err != nil {
			if errors.Is(err, store.ErrDuplicateName) {
				return LessonDuplicate, nil
			}
			return LessonBlank, fmt.Errorf("add lesson: %w", err)
		}
		outcome = LessonCreated
	}

	c.LessonInput.Set("")
	c.log.Debug("lesson saved", "name", name, "outcome", outcome)
	return outcome, c.reloadLessons(ctx)
}

// StartEditingLesson enters lesson edit mode with name prefilled.
func (c *Controller) StartEditingLesson(id int64, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.EditingLesson.Set(id)
	c.LessonInput.Set(name)
}

func (c *Controller) CancelEditingLesson() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.EditingLesson.Set(0)
	c.LessonInput.Set("")
}

// DeleteLesson removes the lesson and all of its notes. Any edit or note
// list tied to the lesson is dropped with it.
func (c *Controller) DeleteLesson(ctx context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.gw.DeleteNotesByLesson(ctx, id); err != nil {
		return fmt.Errorf("delete lesson notes: %w", err)
	}
	if err := c.gw.DeleteLesson(ctx, id); err != nil {
		return fmt.Errorf("delete lesson: %w", err)
	}
	c.log.Debug("lesson deleted", "id", id)

	if c.EditingLesson.Get() == id {
		c.EditingLesson.Set(0)
		c.LessonInput.Set("")
	}
	if c.SelectedLesson.Get() == id {
		c.SelectedLesson.Set(0)
		c.Notes.Set(nil)
		if c.EditingNote.Get() != 0 {
			if err := c.leaveNoteEditLocked(ctx); err != nil {
				return err
			}
		}
	}
	return c.reloadLessons(ctx)
}

func (c *Controller) reloadLessons(ctx context.Context) error {
	lessons, err := c.gw.ListLessons(ctx)
	if err != nil {
		return fmt.Errorf("reload lessons: %w", err)
	}
	c.Lessons.Set(lessons)
	return nil
}

// ============================================================
// Notes
// ============================================================

// SelectLesson makes lessonID the current lesson and loads its notes,
// newest first.
func (c *Controller) SelectLesson(ctx context.Context, lessonID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.SelectedLesson.Set(lessonID)
	return c.reloadNotes(ctx, lessonID)
}

// AddOrUpdateNote saves the note inputs with the timer's current elapsed
// seconds. Blank fields are stored as Placeholder. When a note is being
// edited its id, lesson and timestamp are preserved; otherwise a new note is
// stamped with the current time. Afterwards the timer is reset and the
// inputs are cleared.
func (c *Controller) AddOrUpdateNote(ctx context.Context, lessonID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	subject := strings.ToUpper(strings.TrimSpace(c.SubjectInput.Get()))
	if subject == "" {
		subject = Placeholder
	}
	details := strings.TrimSpace(c.DetailsInput.Get())
	if details == "" {
		details = Placeholder
	}
	secs := c.timer.Elapsed()

	if id := c.EditingNote.Get(); id != 0 {
		n, err := c.gw.GetNote(ctx, id)
		if err != nil {
			return fmt.Errorf("load note for edit: %w", err)
		}
		n.SubjectTitle = subject
		n.StudyDetails = details
		n.StudyTimeSeconds = secs
		if err := c.gw.UpdateNote(ctx, *n); err != nil {
			return fmt.Errorf("update note: %w", err)
		}
		c.log.Debug("note updated", "id", id, "seconds", secs)
	} else {
		id, err := c.gw.InsertNote(ctx, store.Note{
			LessonID:         lessonID,
			SubjectTitle:     subject,
			StudyDetails:     details,
			StudyTimeSeconds: secs,
			Timestamp:        c.now().UnixMilli(),
		})
		if err != nil {
			return fmt.Errorf("add note: %w", err)
		}
		c.log.Debug("note added", "id", id, "lesson", lessonID, "seconds", secs)
	}

	// The note is stored; leave edit mode even if the reload fails so a
	// retry cannot save the same session twice.
	reloadErr := c.reloadNotes(ctx, lessonID)
	return errors.Join(reloadErr, c.leaveNoteEditLocked(ctx))
}

// StartEditingNote fills the inputs from the stored note and loads its time
// into the timer, paused, so the session can be extended before saving.
func (c *Controller) StartEditingNote(ctx context.Context, noteID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err := c.gw.GetNote(ctx, noteID)
	if err != nil {
		return fmt.Errorf("edit note: %w", err)
	}
	if err := c.timer.Set(ctx, n.StudyTimeSeconds); err != nil {
		c.publishTimer()
		return fmt.Errorf("edit note: %w", err)
	}
	c.SubjectInput.Set(n.SubjectTitle)
	c.DetailsInput.Set(n.StudyDetails)
	c.EditingNote.Set(noteID)
	c.publishTimer()
	return nil
}

// CancelEditingNote leaves note edit mode, resetting the timer and inputs.
func (c *Controller) CancelEditingNote(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.leaveNoteEditLocked(ctx)
}

// DeleteNote removes a note and reloads the notes of lessonID.
func (c *Controller) DeleteNote(ctx context.Context, noteID, lessonID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.gw.DeleteNote(ctx, noteID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	c.log.Debug("note deleted", "id", noteID, "lesson", lessonID)

	if c.EditingNote.Get() == noteID {
		if err := c.leaveNoteEditLocked(ctx); err != nil {
			return err
		}
	}
	return c.reloadNotes(ctx, lessonID)
}

func (c *Controller) leaveNoteEditLocked(ctx context.Context) error {
	c.EditingNote.Set(0)
	c.SubjectInput.Set("")
	c.DetailsInput.Set("")
	err := c.timer.Reset(ctx)
	c.publishTimer()
	if err != nil {
		return fmt.Errorf("reset timer: %w", err)
	}
	return nil
}

func (c *Controller) reloadNotes(ctx context.Context, lessonID int64) error {
	notes, err := c.gw.NotesByLesson(ctx, lessonID)
	if err != nil {
		return fmt.Errorf("reload notes: %w", err)
	}
	if c.SelectedLesson.Get() == lessonID {
		c.Notes.Set(notes)
	}
	return nil
}

// ============================================================
// Timer
// ============================================================

func (c *Controller) StartTimer(ctx context.Context) error {
	return c.timerOp(func() error { return c.timer.Start(ctx, 0) })
}

func (c *Controller) ResumeTimer(ctx context.Context) error {
	return c.timerOp(func() error { return c.timer.Resume(ctx) })
}

func (c *Controller) PauseTimer(ctx context.Context) error {
	return c.timerOp(func() error { return c.timer.Pause(ctx) })
}

// ResetTimer is the stop transition: the timer returns to zero.
func (c *Controller) ResetTimer(ctx context.Context) error {
	return c.timerOp(func() error { return c.timer.Reset(ctx) })
}

// SetTimeManually loads secs into the timer in the paused state.
func (c *Controller) SetTimeManually(ctx context.Context, secs int64) error {
	return c.timerOp(func() error { return c.timer.Set(ctx, secs) })
}

func (c *Controller) timerOp(op func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := op()
	c.publishTimer()
	return err
}

func (c *Controller) publishTimer() {
	c.Elapsed.Set(c.timer.Elapsed())
	c.Controls.Set(c.timer.Controls())
}

// Run republishes the elapsed time and controls every interval until ctx is
// done. The values are recomputed from the engine's anchor on every tick.
func (c *Controller) Run(ctx context.Context, interval time.Duration) {
	for elapsed := range c.timer.Watch(ctx, interval) {
		c.Elapsed.Set(elapsed)
		c.Controls.Set(c.timer.Controls())
	}
}
