package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

// DefaultNoteDebounce is the quiet window before a note body is persisted.
const DefaultNoteDebounce = 1500 * time.Millisecond

type pendingNote struct {
	timer     *time.Timer
	body      string
	studentID string
	moduleID  uint
}

// noteService coalesces keystroke-level saves: each Save resets the
// per-(student, module) timer, and only the latest body in the window
// reaches the store.
type noteService struct {
	repo   repositories.Repository
	delay  time.Duration
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]*pendingNote
}

func NewNoteService(repo repositories.Repository, delay time.Duration, logger *slog.Logger) NoteService {
	if delay <= 0 {
		delay = DefaultNoteDebounce
	}
	return &noteService{
		repo:    repo,
		delay:   delay,
		logger:  logger,
		pending: make(map[string]*pendingNote),
	}
}

func noteKey(studentID string, moduleID uint) string {
	return fmt.Sprintf("%s|%d", studentID, moduleID)
}

// Save schedules the body for persistence after the debounce window. Rapid
// successive saves for the same pair keep pushing the window out.
func (s *noteService) Save(_ context.Context, studentID string, moduleID uint, body string) {
	key := noteKey(studentID, moduleID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[key]; ok {
		p.body = body
		p.timer.Reset(s.delay)
		return
	}

	p := &pendingNote{body: body, studentID: studentID, moduleID: moduleID}
	p.timer = time.AfterFunc(s.delay, func() {
		s.flushKey(studentID, moduleID, key)
	})
	s.pending[key] = p
}

// Get returns the stored note. A write still inside its debounce window is
// reflected so the student always reads their own latest keystrokes.
func (s *noteService) Get(ctx context.Context, studentID string, moduleID uint) (*models.StudentNote, error) {
	s.mu.Lock()
	p, buffered := s.pending[noteKey(studentID, moduleID)]
	var body string
	if buffered {
		body = p.body
	}
	s.mu.Unlock()

	note, err := s.repo.Note().GetByStudentAndModule(ctx, studentID, moduleID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to load note: %w", err)
		}
		note = &models.StudentNote{StudentID: studentID, ModuleID: moduleID}
	}
	if buffered {
		note.Body = body
	}
	return note, nil
}

// Flush persists every pending body immediately. Called on shutdown.
func (s *noteService) Flush() {
	s.mu.Lock()
	drained := s.pending
	s.pending = make(map[string]*pendingNote)
	s.mu.Unlock()

	for _, p := range drained {
		p.timer.Stop()
		s.persist(p.studentID, p.moduleID, p.body)
	}
}

func (s *noteService) flushKey(studentID string, moduleID uint, key string) {
	s.mu.Lock()
	p, ok := s.pending[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	body := p.body
	delete(s.pending, key)
	s.mu.Unlock()

	s.persist(studentID, moduleID, body)
}

func (s *noteService) persist(studentID string, moduleID uint, body string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.repo.Note().Upsert(ctx, &models.StudentNote{
		StudentID: studentID,
		ModuleID:  moduleID,
		Body:      body,
	})
	if err != nil {
		s.logger.Error("failed to persist note",
			"student_id", studentID,
			"module_id", moduleID,
			"error", err)
		return
	}
	s.logger.Debug("note persisted",
		"student_id", studentID,
		"module_id", moduleID,
		"bytes", len(body))
}
