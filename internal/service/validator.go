package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"trivia-rag/internal/domain"
	"trivia-rag/internal/logger"

	"go.uber.org/zap"
)

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// stripThink removes reasoning blocks. An unterminated block swallows the rest of the text.
func stripThink(raw string) string {
	cleaned := thinkBlock.ReplaceAllString(raw, "")
	if i := strings.Index(cleaned, "<think>"); i != -1 {
		cleaned = cleaned[:i]
	}
	return strings.TrimSpace(cleaned)
}

// widestSpan returns text from the first open to the last close delimiter.
func widestSpan(text string, open, close byte) (string, bool) {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// ExtractAndValidate turns a raw model response into exactly five valid questions.
// It never fails: unusable output degrades to placeholders.
func ExtractAndValidate(raw string) (set domain.QuestionSet) {
	defer func() {
		if r := recover(); r != nil {
			logger.Get().Error("Recovered while repairing LLM response", zap.Any("panic", r))
			set = domain.PlaceholderSet()
		}
	}()

	questions, err := ExtractQuestions(raw)
	if err != nil {
		logger.Get().Warn("LLM response unusable, falling back to placeholders", zap.Error(err))
		return domain.PlaceholderSet()
	}
	if len(questions) < domain.QuestionSetSize {
		logger.Get().Info("Padding question set with placeholders",
			zap.Int("valid", len(questions)),
			zap.Int("want", domain.QuestionSetSize))
	}
	return domain.NewQuestionSet(questions)
}

// ExtractQuestions returns every valid question found in raw, in order.
// It returns a ResponseMalformed error when none can be recovered.
func ExtractQuestions(raw string) ([]domain.Question, error) {
	cleaned := stripThink(raw)
	if cleaned == "" {
		return nil, domain.NewResponseMalformedError("empty response", nil)
	}

	var lastErr error
	for _, candidate := range candidates(cleaned) {
		var parsed any
		if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
			lastErr = err
			continue
		}
		questions, dropped := normalizeAll(questionItems(parsed))
		if dropped > 0 {
			logger.Get().Debug("Dropped invalid questions", zap.Int("dropped", dropped))
		}
		if len(questions) > 0 {
			return questions, nil
		}
		lastErr = fmt.Errorf("no valid questions in %d candidate items", dropped)
	}

	if values := decodeConcatenated(cleaned); len(values) > 0 {
		var items []any
		for _, v := range values {
			items = append(items, questionItems(v)...)
		}
		if questions, _ := normalizeAll(items); len(questions) > 0 {
			return questions, nil
		}
	}

	return nil, domain.NewResponseMalformedError("no valid questions in response", lastErr)
}

// candidates lists the JSON spans worth parsing, widest object first.
func candidates(text string) []string {
	var out []string
	if span, ok := widestSpan(text, '{', '}'); ok {
		out = append(out, span)
	}
	if span, ok := widestSpan(text, '[', ']'); ok {
		out = append(out, span)
	}
	return out
}

// decodeConcatenated reads back-to-back JSON values starting at the first '{',
// which covers models that emit one object per question.
func decodeConcatenated(text string) []any {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return nil
	}
	dec := json.NewDecoder(strings.NewReader(text[start:]))
	var values []any
	for {
		var v any
		if err := dec.Decode(&v); err != nil {
			return values
		}
		values = append(values, v)
	}
}

// questionItems recognizes the supported response shapes, in priority order:
// an object with a "questions" key, a bare array of questions, an array holding
// objects with a "questions" key, and a lone question object.
func questionItems(parsed any) []any {
	switch v := parsed.(type) {
	case map[string]any:
		if qs, ok := v["questions"]; ok {
			arr, _ := qs.([]any)
			return arr
		}
		if _, ok := v["question"]; ok {
			return []any{v}
		}
	case []any:
		var nested []any
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				if qs, ok := m["questions"].([]any); ok {
					nested = append(nested, qs...)
				}
			}
		}
		if len(nested) > 0 {
			return nested
		}
		return v
	}
	return nil
}

func normalizeAll(items []any) ([]domain.Question, int) {
	questions := make([]domain.Question, 0, len(items))
	dropped := 0
	for _, item := range items {
		q, err := normalizeQuestion(item)
		if err != nil {
			dropped++
			logger.Get().Debug("Dropping invalid question", zap.Error(err))
			continue
		}
		questions = append(questions, q)
	}
	return questions, dropped
}

func stringField(m map[string]any, key string) (string, error) {
	raw, ok := m[key]
	if !ok {
		return "", fmt.Errorf("missing field %q", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("field %q is %T, not a string", key, raw)
	}
	return strings.TrimSpace(s), nil
}

func normalizeQuestion(item any) (domain.Question, error) {
	m, ok := item.(map[string]any)
	if !ok {
		return domain.Question{}, fmt.Errorf("question is %T, not an object", item)
	}

	var q domain.Question
	var err error
	if q.Question, err = stringField(m, "question"); err != nil {
		return domain.Question{}, err
	}
	if q.Explanation, err = stringField(m, "explanation"); err != nil {
		return domain.Question{}, err
	}
	if q.Explanation == "" {
		return domain.Question{}, fmt.Errorf("explanation is blank")
	}
	answer, err := stringField(m, "correct_answer")
	if err != nil {
		return domain.Question{}, err
	}

	rawOptions, ok := m["options"].([]any)
	if !ok {
		return domain.Question{}, fmt.Errorf("options is %T, not an array", m["options"])
	}
	if len(rawOptions) != domain.OptionCount {
		return domain.Question{}, fmt.Errorf("expected %d options, got %d", domain.OptionCount, len(rawOptions))
	}
	q.Options = make([]string, 0, domain.OptionCount)
	for i, o := range rawOptions {
		s, ok := o.(string)
		if !ok {
			return domain.Question{}, fmt.Errorf("option %d is %T, not a string", i, o)
		}
		q.Options = append(q.Options, strings.TrimSpace(s))
	}

	q.CorrectAnswer = resolveAnswer(answer, q.Options)
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

// resolveAnswer maps a model's answer onto one of options: verbatim, then
// case-insensitively, then as a letter A-D. Anything else becomes options[0].
func resolveAnswer(answer string, options []string) string {
	for _, o := range options {
		if o == answer {
			return o
		}
	}
	for _, o := range options {
		if strings.EqualFold(o, answer) {
			return o
		}
	}
	if idx, ok := letterIndex(answer); ok && idx < len(options) {
		return options[idx]
	}
	logger.Get().Debug("correct_answer not among options, using first option", zap.String("answer", answer))
	return options[0]
}

var answerLetter = regexp.MustCompile(`(?i)^(?:选项|option\s*)?\(?([a-d])\)?[.)：:]?$`)

func letterIndex(answer string) (int, bool) {
	m := answerLetter.FindStringSubmatch(strings.TrimSpace(answer))
	if m == nil {
		return 0, false
	}
	return int(strings.ToUpper(m[1])[0] - 'A'), true
}
