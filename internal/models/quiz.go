package models

type QuestionKind string

const (
	MultipleChoice QuestionKind = "multiple_choice"
	TrueFalse      QuestionKind = "true_false"
	FillIn         QuestionKind = "fill_in"
	Matching       QuestionKind = "matching"
)

// DefaultPassMark applies when a module's quiz omits one.
const DefaultPassMark = 70

// DefaultQuestionTime is the per-question limit in seconds when a question
// does not set its own.
const DefaultQuestionTime = 30

// Quiz is the canonical embedded quiz definition. It is a value object
// stored as JSON on the module row.
type Quiz struct {
	Questions []Question `json:"questions"`
	PassMark  int        `json:"pass_mark" validate:"min=0,max=100"`
}

// Question is a tagged union over Kind. Only the fields for the question's
// kind are meaningful; scoring switches exhaustively on the tag.
type Question struct {
	Prompt    string       `json:"prompt" validate:"required"`
	Kind      QuestionKind `json:"kind" validate:"required,question_kind"`
	TimeLimit int          `json:"time_limit" validate:"min=0,max=600"` // seconds, 0 means default

	// multiple_choice
	Options       []string `json:"options,omitempty"`
	CorrectOption int      `json:"correct_option,omitempty"`

	// true_false
	CorrectBool bool `json:"correct_bool,omitempty"`

	// fill_in (case-insensitive, trimmed match)
	CorrectText string `json:"correct_text,omitempty"`

	// matching
	Pairs []MatchPair `json:"pairs,omitempty"`
}

type MatchPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Answer mirrors Question: a tagged union keyed by the question's kind.
type Answer struct {
	Kind QuestionKind `json:"kind"`

	SelectedOption int    `json:"selected_option,omitempty"` // multiple_choice
	BoolAnswer     bool   `json:"bool_answer,omitempty"`     // true_false
	Text           string `json:"text,omitempty"`            // fill_in

	// Permutation is the student's proposed arrangement for matching
	// questions: Permutation[i] is the original pair index whose value the
	// student placed against key i. Identity is the only correct mapping.
	Permutation []int `json:"permutation,omitempty"`
}
