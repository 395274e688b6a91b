package quiz

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
)

func newTestSession(t *testing.T, q models.Quiz, interval time.Duration, onGraded GradedFunc) *Session {
	t.Helper()
	s := newSession("s-1", "student-1", 10, q, interval, rand.New(rand.NewSource(42)), onGraded)
	t.Cleanup(s.Teardown)
	return s
}

// gradedRecorder collects graded callbacks safely across goroutines.
type gradedRecorder struct {
	mu      sync.Mutex
	results []Result
}

func (g *gradedRecorder) record(_ *Session, r Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.results = append(g.results, r)
}

func (g *gradedRecorder) all() []Result {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Result(nil), g.results...)
}

func TestSessionHappyPath(t *testing.T) {
	rec := &gradedRecorder{}
	s := newTestSession(t, fourQuestionQuiz(), time.Hour, rec.record)

	assert.Equal(t, StateNotStarted, s.State())
	require.NoError(t, s.Start())
	assert.Equal(t, StateInProgress, s.State())
	assert.True(t, s.TimerRunning())

	require.NoError(t, s.Answer(0, models.Answer{Kind: models.MultipleChoice, SelectedOption: 1}))
	graded, err := s.Next()
	require.NoError(t, err)
	assert.False(t, graded)

	require.NoError(t, s.Answer(1, models.Answer{Kind: models.TrueFalse, BoolAnswer: false}))
	_, err = s.Next()
	require.NoError(t, err)

	require.NoError(t, s.Answer(2, models.Answer{Kind: models.FillIn, Text: " Espresso "}))
	_, err = s.Next()
	require.NoError(t, err)

	require.NoError(t, s.Answer(3, models.Answer{Kind: models.Matching, Permutation: []int{0, 1, 2}}))
	graded, err = s.Next()
	require.NoError(t, err)
	assert.True(t, graded)

	assert.Equal(t, StateGraded, s.State())
	assert.False(t, s.TimerRunning())

	results := rec.all()
	require.Len(t, results, 1)
	assert.Equal(t, 100.0, results[0].Score)
	assert.True(t, results[0].Passed)
	assert.Equal(t, EndReasonSubmitted, results[0].EndReason)
}

func TestSessionAnswerOverwrite(t *testing.T) {
	s := newTestSession(t, fourQuestionQuiz(), time.Hour, nil)
	require.NoError(t, s.Start())

	require.NoError(t, s.Answer(0, models.Answer{Kind: models.MultipleChoice, SelectedOption: 0}))
	require.NoError(t, s.Answer(0, models.Answer{Kind: models.MultipleChoice, SelectedOption: 1}))

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Answers[0].SelectedOption)
}

func TestSessionAnswerValidation(t *testing.T) {
	s := newTestSession(t, fourQuestionQuiz(), time.Hour, nil)

	err := s.Answer(0, models.Answer{Kind: models.MultipleChoice, SelectedOption: 1})
	assert.ErrorIs(t, err, ErrNotInProgress)

	require.NoError(t, s.Start())

	assert.ErrorIs(t, s.Answer(9, models.Answer{Kind: models.MultipleChoice}), ErrQuestionIndex)
	assert.ErrorIs(t, s.Answer(0, models.Answer{Kind: models.TrueFalse}), ErrAnswerKind)
	assert.ErrorIs(t,
		s.Answer(3, models.Answer{Kind: models.Matching, Permutation: []int{0, 0, 2}}),
		ErrInvalidPermutation)
}

func TestSessionMatchingSeededWithShuffle(t *testing.T) {
	q := models.Quiz{
		PassMark: 70,
		Questions: []models.Question{
			{
				Prompt: "match",
				Kind:   models.Matching,
				Pairs: []models.MatchPair{
					{Key: "a", Value: "1"},
					{Key: "b", Value: "2"},
					{Key: "c", Value: "3"},
					{Key: "d", Value: "4"},
					{Key: "e", Value: "5"},
				},
			},
		},
	}
	s := newTestSession(t, q, time.Hour, nil)
	require.NoError(t, s.Start())

	snap := s.Snapshot()
	require.Len(t, snap.Presented, 5)
	// The seeded arrangement counts as the current proposal.
	assert.True(t, snap.Answers[0].Kind == models.Matching)
	assert.True(t, isPermutation(snap.Presented, 5))
}

func TestSessionSubmitEarlyGradesUnansweredAsIncorrect(t *testing.T) {
	rec := &gradedRecorder{}
	s := newTestSession(t, fourQuestionQuiz(), time.Hour, rec.record)
	require.NoError(t, s.Start())

	require.NoError(t, s.Answer(0, models.Answer{Kind: models.MultipleChoice, SelectedOption: 1}))
	require.NoError(t, s.Answer(1, models.Answer{Kind: models.TrueFalse, BoolAnswer: false}))

	res, err := s.Submit(EndReasonVisibility)
	require.NoError(t, err)

	assert.Equal(t, 50.0, res.Score)
	assert.False(t, res.Passed)
	assert.Equal(t, EndReasonVisibility, res.EndReason)
	assert.Equal(t, StateGraded, s.State())
	assert.False(t, s.TimerRunning())
	require.Len(t, rec.all(), 1)
}

func TestSessionRetakeClearsState(t *testing.T) {
	s := newTestSession(t, fourQuestionQuiz(), time.Hour, nil)
	require.NoError(t, s.Start())

	require.NoError(t, s.Answer(0, models.Answer{Kind: models.MultipleChoice, SelectedOption: 0}))
	_, err := s.Submit(EndReasonSubmitted)
	require.NoError(t, err)

	require.NoError(t, s.Retake())
	assert.Equal(t, StateNotStarted, s.State())

	require.NoError(t, s.Start())
	snap := s.Snapshot()
	assert.Equal(t, 0, snap.QuestionIndex)
	assert.Nil(t, snap.Result)
	assert.Equal(t, models.QuestionKind(""), snap.Answers[0].Kind)
}

func TestSessionRetakeRejectedAfterPass(t *testing.T) {
	rec := &gradedRecorder{}
	s := newTestSession(t, fourQuestionQuiz(), time.Hour, rec.record)
	require.NoError(t, s.Start())

	require.NoError(t, s.Answer(0, models.Answer{Kind: models.MultipleChoice, SelectedOption: 1}))
	require.NoError(t, s.Answer(1, models.Answer{Kind: models.TrueFalse, BoolAnswer: false}))
	require.NoError(t, s.Answer(2, models.Answer{Kind: models.FillIn, Text: "espresso"}))
	require.NoError(t, s.Answer(3, models.Answer{Kind: models.Matching, Permutation: []int{0, 1, 2}}))
	_, err := s.Submit(EndReasonSubmitted)
	require.NoError(t, err)

	assert.ErrorIs(t, s.Retake(), ErrRetakeAfterPass)
}

func TestSessionRetakeBeforeGradingRejected(t *testing.T) {
	s := newTestSession(t, fourQuestionQuiz(), time.Hour, nil)
	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Retake(), ErrNotGraded)
}

func TestSessionTimerAdvancesOnZero(t *testing.T) {
	q := models.Quiz{
		PassMark: 70,
		Questions: []models.Question{
			{Prompt: "q1", Kind: models.TrueFalse, CorrectBool: true, TimeLimit: 2},
			{Prompt: "q2", Kind: models.TrueFalse, CorrectBool: true, TimeLimit: 60},
		},
	}
	s := newTestSession(t, q, 5*time.Millisecond, nil)
	require.NoError(t, s.Start())

	// Answer q1 correctly, then let its clock run out.
	require.NoError(t, s.Answer(0, models.Answer{Kind: models.TrueFalse, BoolAnswer: true}))

	assert.Eventually(t, func() bool {
		return s.Snapshot().QuestionIndex == 1
	}, time.Second, 5*time.Millisecond, "timeout should advance to the next question")
	assert.Equal(t, StateInProgress, s.State())
}

func TestSessionTimeoutOnLastQuestionAutoSubmits(t *testing.T) {
	rec := &gradedRecorder{}
	q := models.Quiz{
		PassMark: 70,
		Questions: []models.Question{
			{Prompt: "only", Kind: models.TrueFalse, CorrectBool: true, TimeLimit: 1},
		},
	}
	s := newTestSession(t, q, 5*time.Millisecond, rec.record)
	require.NoError(t, s.Start())

	assert.Eventually(t, func() bool {
		return s.State() == StateGraded
	}, time.Second, 5*time.Millisecond)

	results := rec.all()
	require.Len(t, results, 1)
	assert.Equal(t, 0.0, results[0].Score)
	assert.False(t, results[0].Passed)
	assert.Equal(t, EndReasonTimeout, results[0].EndReason)

	// Failed timeouts stay retakeable.
	require.NoError(t, s.Retake())
	require.NoError(t, s.Start())
	assert.Equal(t, StateInProgress, s.State())
}

func TestSessionTimerStoppedAfterEveryExit(t *testing.T) {
	s := newTestSession(t, fourQuestionQuiz(), time.Hour, nil)
	require.NoError(t, s.Start())
	assert.True(t, s.TimerRunning())

	s.Teardown()
	assert.False(t, s.TimerRunning())

	// Teardown is idempotent.
	s.Teardown()
	assert.False(t, s.TimerRunning())
}

func TestSessionCannotStartTwice(t *testing.T) {
	s := newTestSession(t, fourQuestionQuiz(), time.Hour, nil)
	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrAlreadyStarted)
}
