package quiz

import (
	"math"
	"strings"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
)

// grade scores a full attempt. Callers guarantee the quiz is non-empty; the
// engine refuses to open sessions for empty quizzes, so no divide-by-zero
// path exists.
func grade(q models.Quiz, answers []models.Answer, answered []bool) Result {
	total := len(q.Questions)
	correct := 0
	for i, question := range q.Questions {
		if !answered[i] {
			continue
		}
		if scoreQuestion(question, answers[i]) {
			correct++
		}
	}

	score := RoundScore(100 * float64(correct) / float64(total))
	return Result{
		Score:   score,
		Passed:  score >= float64(q.PassMark),
		Correct: correct,
		Total:   total,
	}
}

// scoreQuestion is an exhaustive match over the question kind. There is no
// partial credit.
func scoreQuestion(q models.Question, a models.Answer) bool {
	if a.Kind != q.Kind {
		return false
	}

	switch q.Kind {
	case models.MultipleChoice:
		return a.SelectedOption == q.CorrectOption

	case models.TrueFalse:
		return a.BoolAnswer == q.CorrectBool

	case models.FillIn:
		return strings.EqualFold(
			strings.TrimSpace(a.Text),
			strings.TrimSpace(q.CorrectText),
		)

	case models.Matching:
		// Correct only when every key maps back to its original value,
		// i.e. the proposal is the identity permutation.
		if len(a.Permutation) != len(q.Pairs) {
			return false
		}
		for i, v := range a.Permutation {
			if v != i {
				return false
			}
		}
		return true

	default:
		return false
	}
}

// RoundScore rounds a score to two decimal places for display and storage.
func RoundScore(score float64) float64 {
	return math.Round(score*100) / 100
}
