package domain

import "time"

// QuestionKind discriminates how a question is answered and graded.
type QuestionKind string

const (
	// KindBinary is an O/X (true/false) question with exactly two choices.
	KindBinary QuestionKind = "binary"
	// KindChoice is a single-answer multiple choice question.
	KindChoice QuestionKind = "choice"
	// KindText is a free-text question graded by keyword match.
	KindText QuestionKind = "text"
)

// Difficulty is an informational tag; scoring never depends on it.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Choice is one candidate answer. Label is the short marker shown to the
// learner ("O", "A", "1"), Text the full answer body.
type Choice struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is a single graded prompt. AnswerIndex and Keywords hold the
// grading key and must never be sent to clients; RedactedQuestion is the
// wire-safe projection.
type Question struct {
	ID          string       `json:"id"`
	Prompt      string       `json:"prompt"`
	Kind        QuestionKind `json:"kind"`
	Choices     []Choice     `json:"choices,omitempty"`
	AnswerIndex int          `json:"answerIndex"`        // key for binary/choice kinds
	Keywords    []string     `json:"keywords,omitempty"` // key for text kind
	Difficulty  Difficulty   `json:"difficulty,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
}

// QuestionSet is an ordered, finite sequence of questions making up one
// session's material.
type QuestionSet struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}

// RedactedQuestion is what a client sees while a question is live: the
// grading key is stripped, the explanation withheld until grading.
type RedactedQuestion struct {
	ID         string       `json:"id"`
	Index      int          `json:"index"`
	Total      int          `json:"total"`
	Prompt     string       `json:"prompt"`
	Kind       QuestionKind `json:"kind"`
	Choices    []Choice     `json:"choices,omitempty"`
	Difficulty Difficulty   `json:"difficulty,omitempty"`
	TimeLimit  int          `json:"timeLimitSeconds,omitempty"`
}

// Redact strips the grading key from q for presentation.
func (q Question) Redact(index, total int, timeLimit time.Duration) RedactedQuestion {
	return RedactedQuestion{
		ID:         q.ID,
		Index:      index,
		Total:      total,
		Prompt:     q.Prompt,
		Kind:       q.Kind,
		Choices:    q.Choices,
		Difficulty: q.Difficulty,
		TimeLimit:  int(timeLimit / time.Second),
	}
}

// AnswerRecord is one append-only entry in a session's answered log.
// A timed-out question is logged exactly like an explicit empty submission,
// with TimedOut set.
type AnswerRecord struct {
	QuestionID string        `json:"questionId"`
	Submitted  string        `json:"submitted"`
	Correct    bool          `json:"correct"`
	Awarded    int           `json:"awarded"`
	Elapsed    time.Duration `json:"elapsed"`
	TimedOut   bool          `json:"timedOut"`
}

// Outcome is what SubmitAnswer reports back for display after grading.
type Outcome struct {
	QuestionID  string `json:"questionId"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation"`
	Awarded     int    `json:"awarded"`
	Score       int    `json:"score"`
	Combo       int    `json:"combo"`
	Eliminated  bool   `json:"eliminated,omitempty"`
}

// SessionResult is the final tally handed to the caller when a session
// finishes. WrongAnswers feeds the wrong-answer review.
type SessionResult struct {
	Score        int            `json:"score"`
	Total        int            `json:"total"`
	CorrectCount int            `json:"correctCount"`
	Answered     []AnswerRecord `json:"answered"`
	WrongAnswers []AnswerRecord `json:"wrongAnswers"`
	Eliminated   bool           `json:"eliminated,omitempty"`
	Rank         int            `json:"rank,omitempty"`
	FinishedAt   time.Time      `json:"finishedAt"`
}
