package grading

import (
	"context"
	"strconv"
	"strings"

	"examclash-session-service/internal/domain"
)

// Local grades against the key embedded in the question itself.
//
// Choice and O/X questions match the submitted choice (by index or label)
// against the keyed index. Free-text answers pass on trimmed
// case-insensitive equality with any keyword, or when any keyword appears
// as a substring of the answer. The substring rule is deliberately lenient;
// do not tighten it without revisiting the essay-style question content
// that depends on it.
type Local struct{}

// NewLocal returns the embedded-key grading strategy.
func NewLocal() *Local { return &Local{} }

func (l *Local) Grade(_ context.Context, q domain.Question, candidate string) (Verdict, error) {
	v := Verdict{
		Explanation:   q.Explanation,
		CorrectAnswer: correctAnswerText(q),
	}
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return v, nil
	}

	switch q.Kind {
	case domain.KindBinary, domain.KindChoice:
		v.Correct = matchesChoice(q, candidate)
	case domain.KindText:
		v.Correct = matchesKeywords(q.Keywords, candidate)
	}
	return v, nil
}

// matchesChoice accepts either the zero-based choice index or the choice
// label, so callers do not have to care which form their client sends.
func matchesChoice(q domain.Question, candidate string) bool {
	if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Choices) {
		return false
	}
	if idx, err := strconv.Atoi(candidate); err == nil {
		return idx == q.AnswerIndex
	}
	return strings.EqualFold(candidate, q.Choices[q.AnswerIndex].Label)
}

func matchesKeywords(keywords []string, candidate string) bool {
	folded := strings.ToLower(candidate)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if folded == kw || strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

func correctAnswerText(q domain.Question) string {
	switch q.Kind {
	case domain.KindBinary, domain.KindChoice:
		if q.AnswerIndex >= 0 && q.AnswerIndex < len(q.Choices) {
			c := q.Choices[q.AnswerIndex]
			if c.Text != "" {
				return c.Text
			}
			return c.Label
		}
	case domain.KindText:
		if len(q.Keywords) > 0 {
			return q.Keywords[0]
		}
	}
	return ""
}
