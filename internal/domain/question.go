package domain

import (
	"strings"
)

const (
	// QuestionSetSize is the number of questions returned for every generation request.
	QuestionSetSize = 5
	// OptionCount is the number of options every question carries.
	OptionCount = 4
)

// Question is a single multiple-choice question.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// QuestionSet is the unit returned to callers. Its length is fixed by the type.
type QuestionSet [QuestionSetSize]Question

// PlaceholderQuestion returns the fixed fallback question.
// Callers and clients match on these exact strings, do not change them.
func PlaceholderQuestion() Question {
	return Question{
		Question:      "这是一个示例问题",
		Options:       []string{"选项A", "选项B", "选项C", "选项D"},
		CorrectAnswer: "选项A",
		Explanation:   "这是一个示例解释",
	}
}

// PlaceholderSet returns a QuestionSet made only of placeholders.
func PlaceholderSet() QuestionSet {
	var set QuestionSet
	for i := range set {
		set[i] = PlaceholderQuestion()
	}
	return set
}

// IsPlaceholder reports whether q equals the fallback question.
func (q Question) IsPlaceholder() bool {
	p := PlaceholderQuestion()
	if q.Question != p.Question || q.CorrectAnswer != p.CorrectAnswer || q.Explanation != p.Explanation {
		return false
	}
	if len(q.Options) != len(p.Options) {
		return false
	}
	for i := range p.Options {
		if q.Options[i] != p.Options[i] {
			return false
		}
	}
	return true
}

// Validate checks the structural invariants of a question.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return NewValidationError("question is required")
	}
	if len(q.Options) != OptionCount {
		return NewValidationError("exactly 4 options are required")
	}
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return NewValidationError("options must not be blank")
		}
	}
	if !q.hasOption(q.CorrectAnswer) {
		return NewValidationError("correct_answer must be one of the options")
	}
	return nil
}

func (q Question) hasOption(answer string) bool {
	for _, opt := range q.Options {
		if opt == answer {
			return true
		}
	}
	return false
}

// NewQuestionSet pads questions with placeholders or truncates them so exactly
// QuestionSetSize remain, preserving order.
func NewQuestionSet(questions []Question) QuestionSet {
	set := PlaceholderSet()
	copy(set[:], questions)
	return set
}

// Slice returns the questions as a slice, convenient for JSON responses and loops.
func (s QuestionSet) Slice() []Question {
	out := make([]Question, len(s))
	copy(out, s[:])
	return out
}

// ValidationError represents a structural validation failure
type ValidationError struct {
	message string
}

func (e *ValidationError) Error() string {
	return e.message
}

func NewValidationError(message string) error {
	return &ValidationError{message: message}
}
