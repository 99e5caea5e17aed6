package domain

// Phase is the session runner's gate: answers are accepted only while
// AwaitingAnswer, advancing only while ShowingResult.
type Phase string

const (
	// PhaseAwaitingAnswer means the current question is live.
	PhaseAwaitingAnswer Phase = "awaiting_answer"
	// PhaseGrading means a submission was accepted and its verdict is in
	// flight; further submissions are rejected, and the countdown no longer
	// applies to this question.
	PhaseGrading Phase = "grading"
	// PhaseShowingResult means the verdict and explanation are on display.
	PhaseShowingResult Phase = "showing_result"
	// PhaseFinished is terminal.
	PhaseFinished Phase = "finished"
)
