package quiz

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
)

// Config tunes the engine. Tests inject a short tick interval and a seeded
// source so shuffle-dependent assertions are deterministic.
type Config struct {
	TickInterval time.Duration
	Seed         int64
}

// Engine owns all live quiz sessions. One session per (student, module) at a
// time; starting again while one is live resumes it.
type Engine struct {
	mu       sync.Mutex
	sessions map[string]*Session
	byKey    map[string]*Session

	interval time.Duration
	rng      *rand.Rand
	logger   *slog.Logger
}

func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	interval := cfg.TickInterval
	if interval <= 0 {
		interval = time.Second
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{
		sessions: make(map[string]*Session),
		byKey:    make(map[string]*Session),
		interval: interval,
		rng:      rand.New(rand.NewSource(seed)),
		logger:   logger,
	}
}

func sessionKey(studentID string, moduleID uint) string {
	return fmt.Sprintf("%s|%d", studentID, moduleID)
}

// StartSession opens and starts a session for a student on a module's quiz.
// A still-running session for the same pair is returned as-is.
func (e *Engine) StartSession(studentID string, moduleID uint, q models.Quiz, onGraded GradedFunc) (*Session, error) {
	if len(q.Questions) == 0 {
		return nil, ErrEmptyQuiz
	}

	e.mu.Lock()
	key := sessionKey(studentID, moduleID)
	if existing, ok := e.byKey[key]; ok {
		if existing.State() == StateInProgress {
			e.mu.Unlock()
			e.logger.Info("resuming live quiz session",
				"session_id", existing.ID,
				"student_id", studentID,
				"module_id", moduleID)
			return existing, nil
		}
		// A superseded graded session is forgotten, not kept around.
		delete(e.sessions, existing.ID)
		existing.Teardown()
	}

	// Each session gets its own source; rand.Rand is not safe for use from
	// the per-session ticker goroutines.
	rng := rand.New(rand.NewSource(e.rng.Int63()))
	s := newSession(uuid.NewString(), studentID, moduleID, q, e.interval, rng, onGraded)
	e.sessions[s.ID] = s
	e.byKey[key] = s
	e.mu.Unlock()

	if err := s.Start(); err != nil {
		e.Remove(s.ID)
		return nil, err
	}

	e.logger.Info("quiz session started",
		"session_id", s.ID,
		"student_id", studentID,
		"module_id", moduleID,
		"questions", len(q.Questions),
		"pass_mark", q.PassMark)
	return s, nil
}

// Get looks a session up by id.
func (e *Engine) Get(id string) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	return s, ok
}

// GetByStudentModule looks a session up by its (student, module) pair.
func (e *Engine) GetByStudentModule(studentID string, moduleID uint) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.byKey[sessionKey(studentID, moduleID)]
	return s, ok
}

// Remove tears a session down and forgets it. Safe on any state; the ticker
// is always cancelled.
func (e *Engine) Remove(id string) {
	e.mu.Lock()
	s, ok := e.sessions[id]
	if ok {
		delete(e.sessions, id)
		delete(e.byKey, sessionKey(s.StudentID, s.ModuleID))
	}
	e.mu.Unlock()

	if ok {
		s.Teardown()
	}
}

// Shutdown tears down every live session.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	all := make([]*Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		all = append(all, s)
	}
	e.sessions = make(map[string]*Session)
	e.byKey = make(map[string]*Session)
	e.mu.Unlock()

	for _, s := range all {
		s.Teardown()
	}
	e.logger.Info("quiz engine shut down", "sessions_closed", len(all))
}
