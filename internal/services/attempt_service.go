package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/JosefMarie/usafi-barista-app-sub003/internal/errors"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/events"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/quiz"
	"github.com/JosefMarie/usafi-barista-app-sub003/internal/repositories"
)

// CheatSink receives proctoring observations for asynchronous persistence.
type CheatSink interface {
	Enqueue(ctx context.Context, event *models.CheatEvent) error
}

type attemptService struct {
	repo      repositories.Repository
	engine    *quiz.Engine
	content   ContentService
	unlock    UnlockService
	publisher events.Publisher
	cheats    CheatSink
	guard     accessGuard
	validator *validator.Validate
	logger    *slog.Logger
}

func NewAttemptService(
	repo repositories.Repository,
	engine *quiz.Engine,
	content ContentService,
	unlock UnlockService,
	publisher events.Publisher,
	cheats CheatSink,
	v *validator.Validate,
	logger *slog.Logger,
) AttemptService {
	return &attemptService{
		repo:      repo,
		engine:    engine,
		content:   content,
		unlock:    unlock,
		publisher: publisher,
		cheats:    cheats,
		guard:     accessGuard{repo: repo},
		validator: v,
		logger:    logger,
	}
}

// Start opens a quiz attempt for the student on the module. A live attempt
// for the same pair is resumed rather than restarted.
func (s *attemptService) Start(ctx context.Context, studentID string, moduleID uint) (*AttemptState, error) {
	content, err := s.content.LoadModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.checkModuleAccess(ctx, studentID, content.Module); err != nil {
		return nil, err
	}
	if len(content.Quiz.Questions) == 0 {
		return nil, ErrQuizEmpty
	}

	if content.Module.QuizGated {
		granted, err := s.repo.Module().HasQuizAccess(ctx, moduleID, studentID)
		if err != nil {
			return nil, fmt.Errorf("failed to check quiz access: %w", err)
		}
		if !granted {
			return nil, ErrQuizLocked
		}
	}

	record, err := getOrCreateProgress(ctx, s.repo, studentID, moduleID)
	if err != nil {
		return nil, err
	}
	if record.Passed {
		return nil, ErrAttemptPassed
	}

	session, err := s.engine.StartSession(studentID, moduleID, content.Quiz, s.onGraded(content.Module.CourseID, record.ID))
	if err != nil {
		if err == quiz.ErrEmptyQuiz {
			return nil, ErrQuizEmpty
		}
		return nil, fmt.Errorf("failed to start attempt: %w", err)
	}
	return s.state(session, content.Quiz), nil
}

// Answer records the student's answer for one question of a live attempt.
func (s *attemptService) Answer(ctx context.Context, studentID, sessionID string, req *AnswerRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return apperrors.ToValidationErrors(err)
	}

	session, _, err := s.ownedSession(ctx, studentID, sessionID)
	if err != nil {
		return err
	}

	if err := session.Answer(req.QuestionIndex, req.Answer); err != nil {
		return mapSessionError(err)
	}
	return nil
}

// Next advances the attempt; passing the last question grades it.
func (s *attemptService) Next(ctx context.Context, studentID, sessionID string) (*AttemptState, error) {
	session, q, err := s.ownedSession(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}

	if _, err := session.Next(); err != nil {
		return nil, mapSessionError(err)
	}
	return s.state(session, q), nil
}

// Submit grades the attempt immediately; unanswered questions count as
// incorrect.
func (s *attemptService) Submit(ctx context.Context, studentID, sessionID string) (*AttemptState, error) {
	session, q, err := s.ownedSession(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}

	if _, err := session.Submit(quiz.EndReasonSubmitted); err != nil {
		return nil, mapSessionError(err)
	}
	return s.state(session, q), nil
}

// Retake restarts a failed attempt from the first question with answers and
// score cleared.
func (s *attemptService) Retake(ctx context.Context, studentID, sessionID string) (*AttemptState, error) {
	session, q, err := s.ownedSession(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}

	if err := session.Retake(); err != nil {
		return nil, mapSessionError(err)
	}
	if err := session.Start(); err != nil {
		return nil, mapSessionError(err)
	}

	s.logger.Info("attempt retaken",
		"session_id", sessionID,
		"student_id", studentID,
		"module_id", session.ModuleID)
	return s.state(session, q), nil
}

// Teardown discards the session without grading, for when the student leaves
// the quiz view. The per-question timer is always cancelled.
func (s *attemptService) Teardown(ctx context.Context, studentID, sessionID string) error {
	if _, _, err := s.ownedSession(ctx, studentID, sessionID); err != nil {
		return err
	}
	s.engine.Remove(sessionID)
	return nil
}

// ReportCheat records a proctoring observation. Events that force submission
// grade the attempt with the observation as the end reason; the event itself
// is queued for the recorder worker either way.
func (s *attemptService) ReportCheat(ctx context.Context, studentID, sessionID string, report *CheatReport) (*AttemptState, error) {
	if err := s.validator.Struct(report); err != nil {
		return nil, apperrors.ToValidationErrors(err)
	}

	session, q, err := s.ownedSession(ctx, studentID, sessionID)
	if err != nil {
		return nil, err
	}

	event := &models.CheatEvent{
		AttemptID:  sessionID,
		StudentID:  studentID,
		ModuleID:   session.ModuleID,
		Type:       report.Type,
		TimeOffset: report.TimeOffset,
		UserAgent:  report.UserAgent,
		RecordedAt: time.Now(),
	}
	if report.Data != nil {
		if data, merr := json.Marshal(report.Data); merr == nil {
			event.Data = data
		}
	}
	if err := s.cheats.Enqueue(ctx, event); err != nil {
		// Persistence is best-effort; the attempt outcome must not depend
		// on the proctoring pipeline.
		s.logger.Error("failed to enqueue cheat event",
			"session_id", sessionID,
			"type", report.Type,
			"error", err)
	}

	if report.Type.ForcesSubmit() && session.State() == quiz.StateInProgress {
		reason := quiz.EndReasonVisibility
		if report.Type == models.EventBackNavigation {
			reason = quiz.EndReasonNavigation
		}
		if _, err := session.Submit(reason); err != nil && err != quiz.ErrNotInProgress {
			return nil, mapSessionError(err)
		}
		s.logger.Warn("attempt force-submitted",
			"session_id", sessionID,
			"student_id", studentID,
			"module_id", session.ModuleID,
			"reason", reason)
	}
	return s.state(session, q), nil
}

// RequestQuizAccess flags the student's progress so a trainer can unlock a
// gated assessment.
func (s *attemptService) RequestQuizAccess(ctx context.Context, studentID string, moduleID uint) error {
	module, err := s.repo.Module().GetByID(ctx, moduleID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrModuleNotFound
		}
		return fmt.Errorf("failed to load module %d: %w", moduleID, err)
	}
	if err := s.guard.checkModuleAccess(ctx, studentID, module); err != nil {
		return err
	}

	record, err := getOrCreateProgress(ctx, s.repo, studentID, moduleID)
	if err != nil {
		return err
	}
	err = s.repo.Progress().UpdateFields(ctx, record.ID, map[string]interface{}{
		"quiz_access_requested": true,
	})
	if err != nil {
		return fmt.Errorf("failed to flag quiz access request: %w", err)
	}

	s.publish(context.WithoutCancel(ctx), &events.LearningEvent{
		Type:      events.QuizAccessRequested,
		StudentID: studentID,
		CourseID:  module.CourseID,
		ModuleID:  moduleID,
	})
	return nil
}

// ===== grading callback =====

// onGraded persists the outcome and, on a pass, runs the unlock chain. It is
// invoked from whichever goroutine ended the attempt (request handler or the
// session ticker), so it carries its own context.
func (s *attemptService) onGraded(courseID uint, progressID uint) quiz.GradedFunc {
	return func(session *quiz.Session, r quiz.Result) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		fields := map[string]interface{}{
			"last_score": r.Score,
			"passed":     r.Passed,
		}
		now := time.Now()
		if r.Passed {
			fields["status"] = models.ProgressCompleted
			fields["completed_at"] = &now
		} else {
			fields["status"] = models.ProgressFailed
		}
		if err := s.repo.Progress().UpdateFields(ctx, progressID, fields); err != nil {
			s.logger.Error("failed to persist attempt result",
				"session_id", session.ID,
				"student_id", session.StudentID,
				"module_id", session.ModuleID,
				"error", err)
		}

		s.logger.Info("attempt graded",
			"session_id", session.ID,
			"student_id", session.StudentID,
			"module_id", session.ModuleID,
			"score", r.Score,
			"passed", r.Passed,
			"end_reason", r.EndReason)

		s.publish(ctx, &events.LearningEvent{
			Type:      events.QuizGraded,
			StudentID: session.StudentID,
			CourseID:  courseID,
			ModuleID:  session.ModuleID,
			Score:     r.Score,
			Passed:    r.Passed,
			Data:      map[string]interface{}{"end_reason": r.EndReason},
		})

		if r.Passed {
			if err := s.unlock.OnPassed(ctx, session.StudentID, session.ModuleID); err != nil {
				s.logger.Error("failed to unlock next module",
					"student_id", session.StudentID,
					"module_id", session.ModuleID,
					"error", err)
			}
		}
	}
}

// ===== helpers =====

func (s *attemptService) ownedSession(ctx context.Context, studentID, sessionID string) (*quiz.Session, models.Quiz, error) {
	session, ok := s.engine.Get(sessionID)
	if !ok {
		return nil, models.Quiz{}, ErrAttemptNotFound
	}
	if session.StudentID != studentID {
		return nil, models.Quiz{}, NewPermissionError(studentID, 0, "attempt", "access", "attempt belongs to another student")
	}

	content, err := s.content.LoadModule(ctx, session.ModuleID)
	if err != nil {
		return nil, models.Quiz{}, err
	}
	return session, content.Quiz, nil
}

func (s *attemptService) state(session *quiz.Session, q models.Quiz) *AttemptState {
	snap := session.Snapshot()
	state := &AttemptState{
		SessionID:     snap.ID,
		ModuleID:      session.ModuleID,
		State:         snap.State,
		QuestionIndex: snap.QuestionIndex,
		TimeLeft:      snap.TimeLeft,
		QuestionCount: snap.QuestionCount,
		Presented:     snap.Presented,
		Result:        snap.Result,
	}
	if snap.State == quiz.StateInProgress && snap.QuestionIndex < len(q.Questions) {
		state.Question = redactQuestion(q.Questions[snap.QuestionIndex], snap.Presented)
	}
	return state
}

// redactQuestion strips the answer key before a question leaves the service.
// Matching pairs are presented with the values rearranged per the session's
// current permutation.
func redactQuestion(q models.Question, presented []int) *models.Question {
	out := models.Question{
		Prompt:    q.Prompt,
		Kind:      q.Kind,
		TimeLimit: q.TimeLimit,
		Options:   q.Options,
	}
	if q.Kind == models.Matching && len(presented) == len(q.Pairs) {
		pairs := make([]models.MatchPair, len(q.Pairs))
		for i, src := range presented {
			pairs[i] = models.MatchPair{
				Key:   q.Pairs[i].Key,
				Value: q.Pairs[src].Value,
			}
		}
		out.Pairs = pairs
	}
	return &out
}

func mapSessionError(err error) error {
	switch err {
	case quiz.ErrEmptyQuiz:
		return ErrQuizEmpty
	case quiz.ErrNotInProgress:
		return ErrAttemptNotActive
	case quiz.ErrNotGraded:
		return ErrAttemptNotGraded
	case quiz.ErrRetakeAfterPass:
		return ErrAttemptPassed
	case quiz.ErrQuestionIndex:
		return NewValidationError("question_index", "out of range", nil)
	case quiz.ErrAnswerKind:
		return NewValidationError("answer", "kind does not match the question", nil)
	case quiz.ErrInvalidPermutation:
		return NewValidationError("permutation", "must cover every pair exactly once", nil)
	default:
		return err
	}
}

func (s *attemptService) publish(ctx context.Context, event *events.LearningEvent) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish learning event",
			"type", event.Type,
			"student_id", event.StudentID,
			"error", err)
	}
}
