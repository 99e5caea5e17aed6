// Package review builds the read-only wrong-answer walkthrough from a
// finished session.
package review

import (
	"examclash-session-service/internal/domain"
)

// Item pairs one incorrectly answered question with what the learner
// submitted and what the key was.
type Item struct {
	Question      domain.RedactedQuestion `json:"question"`
	Submitted     string                  `json:"submitted"`
	TimedOut      bool                    `json:"timedOut"`
	CorrectAnswer string                  `json:"correctAnswer"`
	Explanation   string                  `json:"explanation"`
}

// Review is a pure projection over a finished result's wrong answers.
// It supports forward and backward navigation and never mutates its input.
type Review struct {
	items []Item
	pos   int
}

// New derives a review from the session result and the questions the
// session ran over. Records whose question can no longer be resolved are
// skipped rather than shown without content.
func New(result domain.SessionResult, questions []domain.Question) *Review {
	byID := make(map[string]domain.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	items := make([]Item, 0, len(result.WrongAnswers))
	for _, rec := range result.WrongAnswers {
		q, ok := byID[rec.QuestionID]
		if !ok {
			continue
		}
		items = append(items, Item{
			Question:      q.Redact(len(items), len(result.WrongAnswers), 0),
			Submitted:     rec.Submitted,
			TimedOut:      rec.TimedOut,
			CorrectAnswer: correctAnswer(q),
			Explanation:   q.Explanation,
		})
	}
	return &Review{items: items}
}

// Empty reports whether there is nothing to review. Callers should treat an
// empty review as an immediate completion signal and skip the screen
// entirely.
func (r *Review) Empty() bool { return len(r.items) == 0 }

// Len returns the number of reviewable items.
func (r *Review) Len() int { return len(r.items) }

// Current returns the item under the cursor.
func (r *Review) Current() (Item, bool) {
	if r.Empty() {
		return Item{}, false
	}
	return r.items[r.pos], true
}

// Next moves the cursor forward, reporting false at the end.
func (r *Review) Next() (Item, bool) {
	if r.pos+1 >= len(r.items) {
		return Item{}, false
	}
	r.pos++
	return r.items[r.pos], true
}

// Prev moves the cursor backward, reporting false at the start.
func (r *Review) Prev() (Item, bool) {
	if r.pos == 0 || r.Empty() {
		return Item{}, false
	}
	r.pos--
	return r.items[r.pos], true
}

// Items returns a copy of the full projection, for callers that render the
// whole list at once.
func (r *Review) Items() []Item {
	out := make([]Item, len(r.items))
	copy(out, r.items)
	return out
}

func correctAnswer(q domain.Question) string {
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
