package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlaceholderQuestion_ExactShape(t *testing.T) {
	p := PlaceholderQuestion()
	assert.Equal(t, "这是一个示例问题", p.Question)
	assert.Equal(t, []string{"选项A", "选项B", "选项C", "选项D"}, p.Options)
	assert.Equal(t, "选项A", p.CorrectAnswer)
	assert.Equal(t, "这是一个示例解释", p.Explanation)
	assert.NoError(t, p.Validate())
	assert.True(t, p.IsPlaceholder())
}

func TestPlaceholderQuestion_ReturnsIndependentOptions(t *testing.T) {
	a := PlaceholderQuestion()
	a.Options[0] = "changed"
	assert.Equal(t, "选项A", PlaceholderQuestion().Options[0])
}

func TestQuestion_Validate(t *testing.T) {
	valid := Question{
		Question:      "Q",
		Options:       []string{"a", "b", "c", "d"},
		CorrectAnswer: "c",
		Explanation:   "E",
	}

	tests := []struct {
		name    string
		mutate  func(q *Question)
		wantErr string
	}{
		{"valid", func(q *Question) {}, ""},
		{"blank question", func(q *Question) { q.Question = "  " }, "question is required"},
		{"three options", func(q *Question) { q.Options = []string{"a", "b", "c"} }, "exactly 4 options are required"},
		{"blank option", func(q *Question) { q.Options = []string{"a", "", "c", "d"} }, "options must not be blank"},
		{"answer not in options", func(q *Question) { q.CorrectAnswer = "z" }, "correct_answer must be one of the options"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := valid
			q.Options = append([]string(nil), valid.Options...)
			tt.mutate(&q)
			err := q.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
			var vErr *ValidationError
			assert.True(t, errors.As(err, &vErr))
		})
	}
}

func TestNewQuestionSet_PadsAndTruncates(t *testing.T) {
	q := Question{Question: "Q1", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a", Explanation: "E1"}

	t.Run("pads short input", func(t *testing.T) {
		set := NewQuestionSet([]Question{q})
		assert.Equal(t, q, set[0])
		for i := 1; i < QuestionSetSize; i++ {
			assert.True(t, set[i].IsPlaceholder(), "index %d should be a placeholder", i)
		}
	})

	t.Run("truncates long input preserving order", func(t *testing.T) {
		var many []Question
		for i := 0; i < 7; i++ {
			qi := q
			qi.Question = string(rune('A' + i))
			many = append(many, qi)
		}
		set := NewQuestionSet(many)
		assert.Len(t, set.Slice(), QuestionSetSize)
		assert.Equal(t, "A", set[0].Question)
		assert.Equal(t, "E", set[4].Question)
	})

	t.Run("nil input is all placeholders", func(t *testing.T) {
		assert.Equal(t, PlaceholderSet(), NewQuestionSet(nil))
	})
}

func TestCacheEntry_Valid(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ttl := time.Hour

	assert.True(t, CacheEntry{DocID: "d", CreatedAt: now.Add(-59 * time.Minute)}.Valid(now, ttl))
	assert.False(t, CacheEntry{DocID: "d", CreatedAt: now.Add(-time.Hour)}.Valid(now, ttl))
	assert.False(t, CacheEntry{CreatedAt: now}.Valid(now, ttl))
	assert.False(t, CacheEntry{DocID: "d"}.Valid(now, ttl))
}

func TestCodeOf(t *testing.T) {
	wrapped := errors.Join(errors.New("outer"), NewProviderUnavailableError("llm down", nil))
	assert.Equal(t, ErrProviderUnavailable, CodeOf(wrapped))
	assert.Equal(t, ErrInternal, CodeOf(errors.New("plain")))
	assert.True(t, IsCode(NewInvalidArgumentError("x"), ErrInvalidArgument))
	assert.False(t, IsCode(nil, ErrInvalidArgument))
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in      string
		want    Difficulty
		wantErr bool
	}{
		{in: "", want: DifficultyMedium},
		{in: "  ", want: DifficultyMedium},
		{in: "easy", want: DifficultyEasy},
		{in: " HARD ", want: DifficultyHard},
		{in: "medium", want: DifficultyMedium},
		{in: "extreme", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDifficulty(tt.in)
		if tt.wantErr {
			assert.True(t, IsCode(err, ErrInvalidArgument), tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestDifficulty_Label(t *testing.T) {
	assert.Equal(t, "简单", DifficultyEasy.Label())
	assert.Equal(t, "中等", DifficultyMedium.Label())
	assert.Equal(t, "困难", DifficultyHard.Label())
	assert.Equal(t, "中等", Difficulty("").Label())
	assert.Equal(t, DifficultyMedium, Difficulty("bogus").OrDefault())
}
