package service

import (
	"fmt"
	"trivia-rag/internal/domain"

	"github.com/tmc/langchaingo/prompts"
)

// PromptKind selects the framing of a generation prompt.
type PromptKind int

const (
	PromptKindTopic PromptKind = iota
	PromptKindDocument
)

func (k PromptKind) String() string {
	switch k {
	case PromptKindTopic:
		return "topic"
	case PromptKindDocument:
		return "document"
	default:
		return fmt.Sprintf("PromptKind(%d)", int(k))
	}
}

// framing differs only in what the questions are grounded on.
var framing = map[PromptKind]string{
	PromptKindTopic:    "基于主题",
	PromptKindDocument: "基于文档内容",
}

const questionPromptTemplate = `你是一个专业的问答游戏出题者。请{{.framing}}生成{{.count}}个有趣且具有教育意义的单项选择题。

要求：
1. 每个问题恰好有4个选项（概念上对应A、B、C、D）。
2. correct_answer 必须与 options 中的某一个选项逐字相同。
3. 恰好生成{{.count}}个问题，不多不少。
4. 每个问题都必须附带详细的 explanation。
5. 问题内容必须{{.framing}}，不要编造无关内容。

输出格式：
只返回一个 JSON 对象，且只包含一个键 "questions"，其值为问题数组。
不要返回裸数组，不要返回多个 JSON 对象，不要添加任何其他文字。
{"questions": [{"question": "问题文本", "options": ["选项A", "选项B", "选项C", "选项D"], "correct_answer": "选项A", "explanation": "详细解释"}]}

难度：{{.difficulty}}
{{.label}}：
{{.context}}`

// PromptBuilder renders generation prompts.
type PromptBuilder struct {
	template prompts.PromptTemplate
}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		template: prompts.NewPromptTemplate(questionPromptTemplate, []string{"framing", "count", "difficulty", "label", "context"}),
	}
}

// Build renders a prompt asking for a full question set at the default difficulty.
func (b *PromptBuilder) Build(kind PromptKind, context string) (string, error) {
	return b.BuildN(kind, context, domain.QuestionSetSize, domain.DefaultDifficulty)
}

// BuildN renders a prompt asking for exactly n questions. An unknown difficulty
// renders as the default.
func (b *PromptBuilder) BuildN(kind PromptKind, context string, n int, difficulty domain.Difficulty) (string, error) {
	frame, ok := framing[kind]
	if !ok {
		return "", domain.NewInvalidArgumentError(fmt.Sprintf("unknown prompt kind: %s", kind))
	}
	if n <= 0 {
		return "", domain.NewInvalidArgumentError(fmt.Sprintf("question count must be positive, got %d", n))
	}

	label := "主题"
	if kind == PromptKindDocument {
		label = "文档内容"
	}

	prompt, err := b.template.Format(map[string]any{
		"framing":    frame,
		"count":      n,
		"difficulty": difficulty.Label(),
		"label":      label,
		"context":    context,
	})
	if err != nil {
		return "", domain.NewInternalError("failed to render prompt", err)
	}
	return prompt, nil
}
