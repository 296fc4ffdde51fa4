package dto

import (
	"trivia-rag/internal/domain"
)

// GenerateRequest represents a document-based generation request
// @Description Request body for generating questions from a document
type GenerateRequest struct {
	DocumentType     string `json:"document_type" example:"text"`
	DocumentContent  string `json:"document_content" example:"Photosynthesis converts light energy into chemical energy..."`
	UseExistingIndex bool   `json:"use_existing_index"`
	Difficulty       string `json:"difficulty,omitempty" example:"medium" enums:"easy,medium,hard"`
}

// TopicRequest represents a topic-based generation request
// @Description Request body for generating questions directly from a topic
type TopicRequest struct {
	Topic      string `json:"topic" example:"The French Revolution"`
	Difficulty string `json:"difficulty,omitempty" example:"medium" enums:"easy,medium,hard"`
	// Question is the topic field name used by older clients of /api/generate-question.
	Question string `json:"question,omitempty" swaggerignore:"true"`
}

// QuestionResponse is one multiple-choice question
type QuestionResponse struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// QuestionsResponse always carries exactly five questions
// @Description Generated question set
type QuestionsResponse struct {
	Questions []QuestionResponse `json:"questions"`
}

// HealthResponse represents the health check result
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

// SweepResponse reports how many expired document cache entries were evicted
type SweepResponse struct {
	Removed int `json:"removed"`
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// NewQuestionResponse converts one question to its wire form.
func NewQuestionResponse(q domain.Question) QuestionResponse {
	return QuestionResponse{
		Question:      q.Question,
		Options:       append([]string(nil), q.Options...),
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
	}
}

// NewQuestionsResponse converts a question set to its wire form.
func NewQuestionsResponse(set domain.QuestionSet) QuestionsResponse {
	out := make([]QuestionResponse, 0, len(set))
	for _, q := range set {
		out = append(out, NewQuestionResponse(q))
	}
	return QuestionsResponse{Questions: out}
}
