package grading

import (
	"context"

	"examclash-session-service/internal/domain"
)

// Verdict is the normalized grading outcome. Transport failures in remote
// strategies are absorbed into a pessimistic verdict before this point, so
// the runner never sees a "grading failed" state.
type Verdict struct {
	Correct     bool
	Explanation string
	// CorrectAnswer optionally carries the key back for display; remote
	// graders may omit it.
	CorrectAnswer string
}

// Strategy decides whether a candidate answer is correct. Implementations
// must be safe for use from the runner's grading goroutine.
type Strategy interface {
	Grade(ctx context.Context, q domain.Question, candidate string) (Verdict, error)
}
