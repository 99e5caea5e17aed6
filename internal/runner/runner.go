package runner

import (
	"context"
	"log"
	"sync"
	"time"

	"examclash-session-service/internal/domain"
	"examclash-session-service/internal/grading"
)

// Runner drives one session: it sequences through a fixed question list,
// gates one live answer at a time, scores it under the session policy, and
// terminates with a final tally.
//
// The phase field is the single gate for every transition. The per-question
// timer fires on its own goroutine, so the gate is enforced under a mutex;
// whichever of a submission and a timeout takes the lock first wins, the
// other is rejected. Each question also carries an epoch, so a timer armed
// for an earlier question can never grade a later one.
type Runner struct {
	mu       sync.Mutex
	qs       []domain.Question
	policy   domain.Policy
	strategy grading.Strategy
	clock    func() time.Time

	phase      domain.Phase
	idx        int
	score      int
	combo      int
	correct    int
	eliminated bool
	rank       int
	records    []domain.AnswerRecord

	epoch         int
	questionStart time.Time
	deadline      time.Time
	timer         *time.Timer

	closed      bool
	result      domain.SessionResult
	subscribers map[chan Event]struct{}
}

// New builds a runner over a non-empty question list. The policy and
// strategy are fixed for the session's lifetime.
func New(questions []domain.Question, policy domain.Policy, strategy grading.Strategy) (*Runner, error) {
	return NewWithClock(questions, policy, strategy, time.Now)
}

// NewWithClock allows deterministic countdowns in tests.
func NewWithClock(questions []domain.Question, policy domain.Policy, strategy grading.Strategy, now func() time.Time) (*Runner, error) {
	if len(questions) == 0 {
		return nil, domain.ErrEmptyQuestionSet
	}
	r := &Runner{
		qs:          questions,
		policy:      policy,
		strategy:    strategy,
		clock:       now,
		records:     make([]domain.AnswerRecord, 0, len(questions)),
		subscribers: make(map[chan Event]struct{}),
	}
	r.mu.Lock()
	r.startQuestionLocked()
	r.mu.Unlock()
	if policy.Timed() {
		go r.tickLoop()
	}
	return r, nil
}

// Phase reports the current gate state.
func (r *Runner) Phase() domain.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// CurrentQuestion returns the live question stripped of its grading key,
// or false once the session has finished.
func (r *Runner) CurrentQuestion() (domain.RedactedQuestion, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase == domain.PhaseFinished {
		return domain.RedactedQuestion{}, false
	}
	return r.currentRedactedLocked(), true
}

// SubmitAnswer grades the candidate against the live question. It is
// rejected with ErrInvalidPhase unless the runner is awaiting an answer,
// which also covers the in-flight case: the phase moves to Grading before
// the strategy is consulted, so a second submission (or a timeout racing
// the first) can never double-grade a question.
func (r *Runner) SubmitAnswer(ctx context.Context, candidate string) (domain.Outcome, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return domain.Outcome{}, domain.ErrSessionClosed
	}
	if r.phase != domain.PhaseAwaitingAnswer {
		r.mu.Unlock()
		return domain.Outcome{}, domain.ErrInvalidPhase
	}
	q := r.qs[r.idx]
	epoch := r.epoch
	r.phase = domain.PhaseGrading
	r.stopTimerLocked()
	now := r.clock()
	elapsed := now.Sub(r.questionStart)
	remaining := r.remainingLocked(now)
	r.mu.Unlock()

	verdict, err := r.strategy.Grade(ctx, q, candidate)
	if err != nil {
		// Strategies absorb their own failures; this is the backstop.
		log.Printf("grading error for question %s: %v", q.ID, err)
		verdict = grading.Verdict{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.epoch != epoch {
		// Session was exited while the verdict was in flight; discard it.
		return domain.Outcome{}, domain.ErrSessionClosed
	}
	return r.applyVerdictLocked(q, candidate, verdict, elapsed, remaining, false), nil
}

// Timeout grades the live question as an empty, always-incorrect
// submission. The scheduling layer (or a test) may call it directly; the
// internal per-question timer routes through the same path. A timeout
// arriving after an answer was accepted is ignored by the phase gate.
func (r *Runner) Timeout() {
	r.mu.Lock()
	epoch := r.epoch
	r.mu.Unlock()
	r.timeout(epoch)
}

func (r *Runner) timeout(epoch int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.epoch != epoch || r.phase != domain.PhaseAwaitingAnswer {
		return
	}
	q := r.qs[r.idx]
	elapsed := r.clock().Sub(r.questionStart)
	verdict := grading.Verdict{Explanation: q.Explanation}
	r.applyVerdictLocked(q, "", verdict, elapsed, 0, true)
}

// Advance moves past the result display: to the next question, or to the
// terminal phase on the last question or after an elimination. Calling it
// on a finished runner is a no-op reporting Finished.
func (r *Runner) Advance() (domain.Phase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", domain.ErrSessionClosed
	}
	if r.phase == domain.PhaseFinished {
		return domain.PhaseFinished, nil
	}
	if r.phase != domain.PhaseShowingResult {
		return "", domain.ErrInvalidPhase
	}
	if r.eliminated || r.idx == len(r.qs)-1 {
		r.finishLocked()
		return domain.PhaseFinished, nil
	}
	r.idx++
	r.startQuestionLocked()
	return domain.PhaseAwaitingAnswer, nil
}

// Result returns the final tally. It is only available once the runner has
// reached the terminal phase.
func (r *Runner) Result() (domain.SessionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != domain.PhaseFinished {
		return domain.SessionResult{}, domain.ErrSessionNotFinished
	}
	return r.result, nil
}

// Close stops the countdown and marks the runner dead. An in-flight
// grading verdict arriving afterwards is discarded, and all subscriber
// channels are closed.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.epoch++
	r.stopTimerLocked()
	for ch := range r.subscribers {
		delete(r.subscribers, ch)
		close(ch)
	}
}

// applyVerdictLocked is the single scoring step: award, combo, log append,
// elimination, and phase move happen atomically so the score can never
// drift from the answered log.
func (r *Runner) applyVerdictLocked(q domain.Question, candidate string, verdict grading.Verdict, elapsed time.Duration, remaining time.Duration, timedOut bool) domain.Outcome {
	awarded := 0
	if verdict.Correct {
		awarded = r.awardLocked(remaining)
		r.score += awarded
		r.correct++
		r.combo++
	} else {
		r.combo = 0
		if r.policy.Mode == domain.ModeElimination {
			r.eliminated = true
			r.rank = r.policy.Participants
		}
	}

	r.records = append(r.records, domain.AnswerRecord{
		QuestionID: q.ID,
		Submitted:  candidate,
		Correct:    verdict.Correct,
		Awarded:    awarded,
		Elapsed:    elapsed,
		TimedOut:   timedOut,
	})

	r.phase = domain.PhaseShowingResult
	outcome := domain.Outcome{
		QuestionID:  q.ID,
		Correct:     verdict.Correct,
		Explanation: verdict.Explanation,
		Awarded:     awarded,
		Score:       r.score,
		Combo:       r.combo,
		Eliminated:  r.eliminated,
	}
	r.broadcastLocked(Event{Type: EventGraded, Outcome: &outcome})
	return outcome
}

// awardLocked computes the points for a correct answer. The combo bonus
// uses the streak entering this question; the streak itself is bumped by
// the caller afterwards.
func (r *Runner) awardLocked(remaining time.Duration) int {
	switch r.policy.Mode {
	case domain.ModeCompetitive:
		speed := int(remaining/time.Second) / domain.SpeedBonusDivisor
		combo := r.combo * domain.ComboBonusStep
		if combo > domain.ComboBonusCap {
			combo = domain.ComboBonusCap
		}
		return domain.CompetitiveBasePoints + speed + combo
	case domain.ModeElimination:
		return domain.EliminationBasePoints
	default:
		return domain.PracticeBasePoints
	}
}

func (r *Runner) startQuestionLocked() {
	r.epoch++
	r.phase = domain.PhaseAwaitingAnswer
	r.questionStart = r.clock()
	if r.policy.Timed() {
		limit := r.policy.TimeFor(r.qs[r.idx].Kind)
		r.deadline = r.questionStart.Add(limit)
		epoch := r.epoch
		r.timer = time.AfterFunc(limit, func() { r.timeout(epoch) })
	}
	q := r.currentRedactedLocked()
	r.broadcastLocked(Event{Type: EventQuestion, Question: &q})
}

func (r *Runner) finishLocked() {
	r.epoch++
	r.stopTimerLocked()
	r.phase = domain.PhaseFinished

	answered := make([]domain.AnswerRecord, len(r.records))
	copy(answered, r.records)
	wrong := make([]domain.AnswerRecord, 0)
	for _, rec := range r.records {
		if !rec.Correct {
			wrong = append(wrong, rec)
		}
	}
	r.result = domain.SessionResult{
		Score:        r.score,
		Total:        len(r.qs),
		CorrectCount: r.correct,
		Answered:     answered,
		WrongAnswers: wrong,
		Eliminated:   r.eliminated,
		Rank:         r.rank,
		FinishedAt:   r.clock(),
	}
	res := r.result
	r.broadcastLocked(Event{Type: EventFinished, Result: &res})
}

func (r *Runner) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *Runner) currentRedactedLocked() domain.RedactedQuestion {
	q := r.qs[r.idx]
	var limit time.Duration
	if r.policy.Timed() {
		limit = r.policy.TimeFor(q.Kind)
	}
	return q.Redact(r.idx, len(r.qs), limit)
}

func (r *Runner) remainingLocked(now time.Time) time.Duration {
	if !r.policy.Timed() {
		return 0
	}
	rem := r.deadline.Sub(now)
	if rem < 0 {
		rem = 0
	}
	return rem
}

// tickLoop publishes a countdown event once per second while a timed
// question is live. It exits once the session finishes or is closed.
func (r *Runner) tickLoop() {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for range t.C {
		r.mu.Lock()
		if r.closed || r.phase == domain.PhaseFinished {
			r.mu.Unlock()
			return
		}
		if r.phase == domain.PhaseAwaitingAnswer {
			rem := int(r.remainingLocked(r.clock()) / time.Second)
			r.broadcastLocked(Event{Type: EventTick, Remaining: rem})
		}
		r.mu.Unlock()
	}
}
