package validation

import (
	"fmt"
	"strings"
	"trivia-rag/internal/domain"
	"trivia-rag/internal/dto"
	"unicode/utf8"
)

const (
	// DefaultDocumentType is applied when a request leaves document_type empty.
	DefaultDocumentType = "text"

	maxTopicLength   = 500
	maxContentLength = 2_000_000
)

var documentTypes = map[string]bool{
	"text":     true,
	"txt":      true,
	"markdown": true,
	"md":       true,
	"pdf":      true,
}

// FieldError describes one rejected request field
type FieldError struct {
	Field   string
	Message string
}

// Errors collects every field problem of one request
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return strings.Join(parts, "; ")
}

// Err returns nil when there are no problems, otherwise an invalid argument error.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return domain.NewInvalidArgumentError(e.Error())
}

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateGenerateRequest validates and normalizes a document generation request.
// Content may be empty only when the existing index is requested.
func (v *Validator) ValidateGenerateRequest(req *dto.GenerateRequest) Errors {
	var errs Errors

	req.DocumentType = strings.ToLower(strings.TrimSpace(req.DocumentType))
	if req.DocumentType == "" {
		req.DocumentType = DefaultDocumentType
	} else if !documentTypes[req.DocumentType] {
		errs = append(errs, FieldError{"document_type", fmt.Sprintf("unsupported document type %q", req.DocumentType)})
	}

	if strings.TrimSpace(req.DocumentContent) == "" {
		if !req.UseExistingIndex {
			errs = append(errs, FieldError{"document_content", "is required"})
		}
	} else if n := utf8.RuneCountInString(req.DocumentContent); n > maxContentLength {
		errs = append(errs, FieldError{"document_content", fmt.Sprintf("length %d exceeds %d characters", n, maxContentLength)})
	}

	errs = normalizeDifficulty(&req.Difficulty, errs)
	return errs
}

// ValidateTopicRequest validates a topic generation request. The legacy
// question field stands in for a missing topic.
func (v *Validator) ValidateTopicRequest(req *dto.TopicRequest) Errors {
	var errs Errors

	if strings.TrimSpace(req.Topic) == "" {
		req.Topic = req.Question
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		errs = append(errs, FieldError{"topic", "is required"})
	} else if n := utf8.RuneCountInString(topic); n > maxTopicLength {
		errs = append(errs, FieldError{"topic", fmt.Sprintf("length %d exceeds %d characters", n, maxTopicLength)})
	}

	errs = normalizeDifficulty(&req.Difficulty, errs)
	return errs
}

// normalizeDifficulty rewrites *difficulty to its canonical value, defaulting to medium.
func normalizeDifficulty(difficulty *string, errs Errors) Errors {
	d, err := domain.ParseDifficulty(*difficulty)
	if err != nil {
		return append(errs, FieldError{"difficulty", fmt.Sprintf("unsupported difficulty %q (want easy, medium or hard)", *difficulty)})
	}
	*difficulty = string(d)
	return errs
}
