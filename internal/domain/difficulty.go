package domain

import (
	"fmt"
	"strings"
)

// Difficulty is the requested difficulty of generated questions.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DefaultDifficulty applies when a request does not name one.
const DefaultDifficulty = DifficultyMedium

var difficultyLabels = map[Difficulty]string{
	DifficultyEasy:   "简单",
	DifficultyMedium: "中等",
	DifficultyHard:   "困难",
}

// ParseDifficulty normalizes s. Blank input yields DefaultDifficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultDifficulty, nil
	}
	d := Difficulty(s)
	if _, ok := difficultyLabels[d]; !ok {
		return "", NewInvalidArgumentError(fmt.Sprintf("unsupported difficulty: %q (want easy, medium or hard)", s))
	}
	return d, nil
}

// OrDefault returns d, or DefaultDifficulty when d is not a known value.
func (d Difficulty) OrDefault() Difficulty {
	if _, ok := difficultyLabels[d]; ok {
		return d
	}
	return DefaultDifficulty
}

// Label is the wording used in generation prompts.
func (d Difficulty) Label() string {
	return difficultyLabels[d.OrDefault()]
}
