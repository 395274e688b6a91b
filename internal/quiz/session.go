package quiz

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
)

type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateGraded     State = "graded"
)

// End reasons recorded on the graded result.
const (
	EndReasonSubmitted  = "submitted"
	EndReasonTimeout    = "timeout"
	EndReasonVisibility = "visibility_hidden"
	EndReasonNavigation = "back_navigation"
)

var (
	ErrEmptyQuiz          = errors.New("quiz has no questions")
	ErrNotInProgress      = errors.New("attempt is not in progress")
	ErrAlreadyStarted     = errors.New("attempt already started")
	ErrNotGraded          = errors.New("attempt is not graded")
	ErrRetakeAfterPass    = errors.New("cannot retake a passed attempt")
	ErrQuestionIndex      = errors.New("question index out of range")
	ErrAnswerKind         = errors.New("answer kind does not match question kind")
	ErrInvalidPermutation = errors.New("permutation does not cover all pairs")
)

// Result is the graded outcome of one attempt.
type Result struct {
	Score     float64 `json:"score"`
	Passed    bool    `json:"passed"`
	Correct   int     `json:"correct"`
	Total     int     `json:"total"`
	EndReason string  `json:"end_reason"`
}

// GradedFunc receives the result once, on whichever path ended the attempt.
type GradedFunc func(s *Session, r Result)

// Session is one student's attempt at a module quiz, modeled as an explicit
// state machine: NotStarted -> InProgress(index, timeLeft, answers) -> Graded.
// While InProgress the session owns exactly one ticker goroutine; every exit
// path stops it before the state changes hands.
type Session struct {
	ID        string
	StudentID string
	ModuleID  uint

	quiz     models.Quiz
	interval time.Duration
	rng      *rand.Rand
	onGraded GradedFunc

	mu       sync.Mutex
	state    State
	index    int
	timeLeft int
	answers  []models.Answer
	answered []bool
	result   *Result
	stopTick chan struct{} // non-nil only while the ticker runs
}

// Snapshot is a lock-free copy of the observable session state for API
// responses.
type Snapshot struct {
	ID            string          `json:"id"`
	State         State           `json:"state"`
	QuestionIndex int             `json:"question_index"`
	TimeLeft      int             `json:"time_left"`
	QuestionCount int             `json:"question_count"`
	Presented     []int           `json:"presented,omitempty"` // matching order shown to the student
	Result        *Result         `json:"result,omitempty"`
	Answers       []models.Answer `json:"-"`
}

func newSession(id, studentID string, moduleID uint, q models.Quiz, interval time.Duration, rng *rand.Rand, onGraded GradedFunc) *Session {
	return &Session{
		ID:        id,
		StudentID: studentID,
		ModuleID:  moduleID,
		quiz:      q,
		interval:  interval,
		rng:       rng,
		onGraded:  onGraded,
		state:     StateNotStarted,
		answers:   make([]models.Answer, len(q.Questions)),
		answered:  make([]bool, len(q.Questions)),
	}
}

// Start moves NotStarted -> InProgress at question 0 and starts the timer.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNotStarted {
		return ErrAlreadyStarted
	}
	if len(s.quiz.Questions) == 0 {
		return ErrEmptyQuiz
	}

	s.state = StateInProgress
	s.index = 0
	s.enterQuestionLocked()
	s.startTickerLocked()
	return nil
}

// Answer records or overwrites the student's answer for a question. It may
// be called any number of times before advancing.
func (s *Session) Answer(questionIndex int, a models.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInProgress {
		return ErrNotInProgress
	}
	if questionIndex < 0 || questionIndex >= len(s.quiz.Questions) {
		return ErrQuestionIndex
	}
	q := s.quiz.Questions[questionIndex]
	if a.Kind != q.Kind {
		return ErrAnswerKind
	}
	if q.Kind == models.Matching && !isPermutation(a.Permutation, len(q.Pairs)) {
		return ErrInvalidPermutation
	}

	s.answers[questionIndex] = a
	s.answered[questionIndex] = true
	return nil
}

// Next advances to the following question, or grades the attempt when none
// remain. The per-question timer resets on every advance.
func (s *Session) Next() (bool, error) {
	s.mu.Lock()
	graded, fire, err := s.advanceLocked(EndReasonSubmitted)
	s.mu.Unlock()

	if fire != nil {
		s.fireGraded(*fire)
	}
	return graded, err
}

// Submit grades the attempt immediately with the given end reason.
// Unanswered questions score as incorrect.
func (s *Session) Submit(reason string) (Result, error) {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return Result{}, ErrNotInProgress
	}
	res := s.gradeLocked(reason)
	s.mu.Unlock()

	s.fireGraded(res)
	return res, nil
}

// Retake re-enters NotStarted with answers and score cleared. Only failed
// attempts may be retaken.
func (s *Session) Retake() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateGraded {
		return ErrNotGraded
	}
	if s.result != nil && s.result.Passed {
		return ErrRetakeAfterPass
	}

	s.stopTickerLocked() // no-op after grading, kept for symmetry
	s.state = StateNotStarted
	s.index = 0
	s.timeLeft = 0
	s.result = nil
	s.answers = make([]models.Answer, len(s.quiz.Questions))
	s.answered = make([]bool, len(s.quiz.Questions))
	return nil
}

// Teardown cancels the timer without grading. Used when the student
// navigates away from the quiz view.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTickerLocked()
}

// State returns the current machine state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TimerRunning reports whether the per-question ticker is live.
func (s *Session) TimerRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopTick != nil
}

// Snapshot copies the observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:            s.ID,
		State:         s.state,
		QuestionIndex: s.index,
		TimeLeft:      s.timeLeft,
		QuestionCount: len(s.quiz.Questions),
		Answers:       append([]models.Answer(nil), s.answers...),
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	if s.state == StateInProgress {
		q := s.quiz.Questions[s.index]
		if q.Kind == models.Matching {
			snap.Presented = append([]int(nil), s.answers[s.index].Permutation...)
		}
	}
	return snap
}

// ===== internal transitions (mu held) =====

// enterQuestionLocked resets the countdown for the current question and, for
// matching questions, seeds the student's proposed mapping with a fresh
// random permutation.
func (s *Session) enterQuestionLocked() {
	q := s.quiz.Questions[s.index]

	s.timeLeft = q.TimeLimit
	if s.timeLeft <= 0 {
		s.timeLeft = models.DefaultQuestionTime
	}

	if q.Kind == models.Matching && !s.answered[s.index] {
		s.answers[s.index] = models.Answer{
			Kind:        models.Matching,
			Permutation: s.rng.Perm(len(q.Pairs)),
		}
		// The shuffled arrangement is the student's current proposal.
		s.answered[s.index] = true
	}
}

func (s *Session) advanceLocked(reason string) (graded bool, fire *Result, err error) {
	if s.state != StateInProgress {
		return false, nil, ErrNotInProgress
	}

	if s.index+1 < len(s.quiz.Questions) {
		s.index++
		s.enterQuestionLocked()
		return false, nil, nil
	}

	res := s.gradeLocked(reason)
	return true, &res, nil
}

func (s *Session) gradeLocked(reason string) Result {
	s.stopTickerLocked()

	res := grade(s.quiz, s.answers, s.answered)
	res.EndReason = reason
	s.result = &res
	s.state = StateGraded
	return res
}

func (s *Session) fireGraded(r Result) {
	if s.onGraded != nil {
		s.onGraded(s, r)
	}
}

// ===== timer ownership =====

func (s *Session) startTickerLocked() {
	if s.stopTick != nil {
		return
	}
	stop := make(chan struct{})
	s.stopTick = stop

	go func() {
		t := time.NewTicker(s.interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				s.tick()
			}
		}
	}()
}

func (s *Session) stopTickerLocked() {
	if s.stopTick != nil {
		close(s.stopTick)
		s.stopTick = nil
	}
}

// tick decrements the countdown once per interval. Hitting zero behaves as
// if the student advanced: the question stands as answered-or-not and the
// attempt moves on, never auto-fails.
func (s *Session) tick() {
	s.mu.Lock()
	if s.state != StateInProgress {
		s.mu.Unlock()
		return
	}

	s.timeLeft--
	if s.timeLeft > 0 {
		s.mu.Unlock()
		return
	}

	_, fire, _ := s.advanceLocked(EndReasonTimeout)
	s.mu.Unlock()

	if fire != nil {
		s.fireGraded(*fire)
	}
}

func isPermutation(p []int, n int) bool {
	if len(p) != n {
		return false
	}
	seen := make([]bool, n)
	for _, v := range p {
		if v < 0 || v >= n || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
