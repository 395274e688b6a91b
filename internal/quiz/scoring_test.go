package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JosefMarie/usafi-barista-app-sub003/internal/models"
)

func fourQuestionQuiz() models.Quiz {
	return models.Quiz{
		PassMark: 70,
		Questions: []models.Question{
			{
				Prompt:        "Which grind suits espresso?",
				Kind:          models.MultipleChoice,
				Options:       []string{"Coarse", "Fine", "Medium"},
				CorrectOption: 1,
			},
			{
				Prompt:      "Milk for a flat white is steamed to 75C",
				Kind:        models.TrueFalse,
				CorrectBool: false,
			},
			{
				Prompt:      "Name the base of every milk drink",
				Kind:        models.FillIn,
				CorrectText: "espresso",
			},
			{
				Prompt: "Match each drink to its milk texture",
				Kind:   models.Matching,
				Pairs: []models.MatchPair{
					{Key: "Cappuccino", Value: "Thick foam"},
					{Key: "Latte", Value: "Light foam"},
					{Key: "Macchiato", Value: "Dollop"},
				},
			},
		},
	}
}

func TestGradeThreeOfFourPasses(t *testing.T) {
	q := fourQuestionQuiz()
	answers := []models.Answer{
		{Kind: models.MultipleChoice, SelectedOption: 1},
		{Kind: models.TrueFalse, BoolAnswer: false},
		{Kind: models.FillIn, Text: "ristretto"}, // wrong
		{Kind: models.Matching, Permutation: []int{0, 1, 2}},
	}
	answered := []bool{true, true, true, true}

	res := grade(q, answers, answered)
	assert.Equal(t, 75.0, res.Score)
	assert.True(t, res.Passed)
	assert.Equal(t, 3, res.Correct)
	assert.Equal(t, 4, res.Total)
}

func TestGradeUnansweredCountAsIncorrect(t *testing.T) {
	q := fourQuestionQuiz()
	answers := make([]models.Answer, 4)
	answers[0] = models.Answer{Kind: models.MultipleChoice, SelectedOption: 1}
	answered := []bool{true, false, false, false}

	res := grade(q, answers, answered)
	assert.Equal(t, 25.0, res.Score)
	assert.False(t, res.Passed)
	assert.Equal(t, 1, res.Correct)
}

func TestGradeExactPassMarkPasses(t *testing.T) {
	q := fourQuestionQuiz()
	q.PassMark = 75
	answers := []models.Answer{
		{Kind: models.MultipleChoice, SelectedOption: 1},
		{Kind: models.TrueFalse, BoolAnswer: false},
		{Kind: models.FillIn, Text: "espresso"},
		{Kind: models.Matching, Permutation: []int{1, 0, 2}},
	}
	res := grade(q, answers, []bool{true, true, true, true})
	assert.Equal(t, 75.0, res.Score)
	assert.True(t, res.Passed)
}

func TestScoreFillInCaseAndWhitespaceInsensitive(t *testing.T) {
	q := models.Question{Kind: models.FillIn, CorrectText: "espresso"}

	assert.True(t, scoreQuestion(q, models.Answer{Kind: models.FillIn, Text: "  Espresso "}))
	assert.True(t, scoreQuestion(q, models.Answer{Kind: models.FillIn, Text: "ESPRESSO"}))
	assert.False(t, scoreQuestion(q, models.Answer{Kind: models.FillIn, Text: "espresso doppio"}))
}

func TestScoreMatchingIdentityOnly(t *testing.T) {
	q := models.Question{
		Kind: models.Matching,
		Pairs: []models.MatchPair{
			{Key: "a", Value: "1"},
			{Key: "b", Value: "2"},
			{Key: "c", Value: "3"},
		},
	}

	assert.True(t, scoreQuestion(q, models.Answer{Kind: models.Matching, Permutation: []int{0, 1, 2}}))
	// one swap off
	assert.False(t, scoreQuestion(q, models.Answer{Kind: models.Matching, Permutation: []int{1, 0, 2}}))
	// wrong length
	assert.False(t, scoreQuestion(q, models.Answer{Kind: models.Matching, Permutation: []int{0, 1}}))
}

func TestScoreKindMismatchIsIncorrect(t *testing.T) {
	q := models.Question{Kind: models.TrueFalse, CorrectBool: true}
	assert.False(t, scoreQuestion(q, models.Answer{Kind: models.FillIn, Text: "true"}))
}

func TestRoundScore(t *testing.T) {
	assert.Equal(t, 33.33, RoundScore(100.0/3.0))
	assert.Equal(t, 66.67, RoundScore(200.0/3.0))
	assert.Equal(t, 100.0, RoundScore(100))
}
